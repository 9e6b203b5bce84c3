package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	settlementdomain "github.com/constructia/billing/internal/settlement/domain"
	"github.com/gin-gonic/gin"
)

type settlePurchaseRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	ClientID      string `json:"client_id" binding:"required"`
	Package       struct {
		Name        string  `json:"name" binding:"required"`
		Tokens      int64   `json:"tokens" binding:"required"`
		BonusTokens int64   `json:"bonus_tokens"`
		StorageGB   float64 `json:"storage_gb"`
		PriceCents  int64   `json:"price_cents" binding:"required"`
	} `json:"package" binding:"required"`
	Confirmation struct {
		Method      string `json:"method" binding:"required"`
		AmountCents int64  `json:"amount_cents" binding:"required"`
	} `json:"confirmation" binding:"required"`
}

// SettlePurchase is the manual reconciliation path: operators replay a
// confirmed payment that never arrived through the webhook.
func (s *Server) SettlePurchase(c *gin.Context) {
	var req settlePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil || clientID == 0 {
		AbortWithError(c, newValidationError("client_id", "invalid_account_id", "invalid value"))
		return
	}

	result, err := s.settlementSvc.Settle(c.Request.Context(), settlementdomain.SettleRequest{
		TransactionID: req.TransactionID,
		ClientID:      clientID,
		Package: settlementdomain.PackageSelection{
			Name:        req.Package.Name,
			Tokens:      req.Package.Tokens,
			BonusTokens: req.Package.BonusTokens,
			StorageGB:   req.Package.StorageGB,
			PriceCents:  req.Package.PriceCents,
		},
		Confirmation: settlementdomain.PaymentConfirmation{
			Method:      req.Confirmation.Method,
			AmountCents: req.Confirmation.AmountCents,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
