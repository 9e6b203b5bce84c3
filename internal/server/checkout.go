package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	checkoutdomain "github.com/constructia/billing/internal/checkout/domain"
	"github.com/gin-gonic/gin"
)

type startCheckoutRequest struct {
	Email         string `json:"email"`
	CompanyName   string `json:"company_name"`
	ClientID      string `json:"client_id"`
	PackageSlug   string `json:"package_slug" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

func (s *Server) StartCheckout(c *gin.Context) {
	var req startCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var clientID snowflake.ID
	if strings.TrimSpace(req.ClientID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
		if err != nil {
			AbortWithError(c, newValidationError("client_id", "invalid_account_id", "invalid value"))
			return
		}
		clientID = parsed
	}

	session, err := s.checkoutSvc.StartCheckout(c.Request.Context(), checkoutdomain.StartCheckoutRequest{
		Email:         req.Email,
		CompanyName:   req.CompanyName,
		ClientID:      clientID,
		PackageSlug:   req.PackageSlug,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (s *Server) GetCheckoutSession(c *gin.Context) {
	session, err := s.checkoutSvc.GetSession(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}
