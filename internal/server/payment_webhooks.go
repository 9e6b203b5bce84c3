package server

import (
	"errors"
	"net/http"
	"strings"

	paymentdomain "github.com/constructia/billing/internal/payment/domain"
	"github.com/gin-gonic/gin"
)

type paymentWebhookRequest struct {
	EventID       string         `json:"event_id" binding:"required"`
	TransactionID string         `json:"transaction_id" binding:"required"`
	Status        string         `json:"status" binding:"required"`
	AmountCents   int64          `json:"amount_cents"`
	Method        string         `json:"method"`
	Data          map[string]any `json:"data"`
}

func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))

	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.paymentSvc.IngestConfirmation(c.Request.Context(), paymentdomain.Confirmation{
		Provider:      provider,
		EventID:       req.EventID,
		TransactionID: req.TransactionID,
		Status:        req.Status,
		AmountCents:   req.AmountCents,
		Method:        req.Method,
		Raw:           req.Data,
	})
	if err != nil {
		// Replays acknowledge with 200 so the provider stops retrying.
		if errors.Is(err, paymentdomain.ErrEventAlreadyHandled) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
