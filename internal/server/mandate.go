package server

import (
	"net/http"
	"time"

	mandatedomain "github.com/constructia/billing/internal/mandate/domain"
	"github.com/gin-gonic/gin"
)

type createMandateRequest struct {
	DebtorName string `json:"debtor_name" binding:"required"`
	DebtorIBAN string `json:"debtor_iban" binding:"required"`
	DebtorBIC  string `json:"debtor_bic" binding:"required"`
	Signature  struct {
		Raster     []byte     `json:"raster" binding:"required"`
		Device     string     `json:"device"`
		CapturedAt *time.Time `json:"captured_at"`
	} `json:"signature" binding:"required"`
}

func (s *Server) CreateMandate(c *gin.Context) {
	clientID, err := parseClientID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createMandateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	proof := mandatedomain.SignatureProof{
		Raster: req.Signature.Raster,
		Device: req.Signature.Device,
	}
	if req.Signature.CapturedAt != nil {
		proof.CapturedAt = *req.Signature.CapturedAt
	}

	mandate, err := s.mandateSvc.CreateMandate(c.Request.Context(), mandatedomain.CreateMandateRequest{
		ClientID:   clientID,
		DebtorName: req.DebtorName,
		DebtorIBAN: req.DebtorIBAN,
		DebtorBIC:  req.DebtorBIC,
		Signature:  proof,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mandate)
}

func (s *Server) GetActiveMandate(c *gin.Context) {
	clientID, err := parseClientID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	mandate, err := s.mandateSvc.GetActiveMandate(c.Request.Context(), clientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if mandate == nil {
		AbortWithError(c, mandatedomain.ErrMandateNotFound)
		return
	}

	c.JSON(http.StatusOK, mandate)
}

func (s *Server) RevokeMandate(c *gin.Context) {
	clientID, err := parseClientID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.mandateSvc.RevokeMandate(c.Request.Context(), clientID, c.Param("reference")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}
