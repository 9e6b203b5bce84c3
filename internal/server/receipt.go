package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) DownloadReceipt(c *gin.Context) {
	result, err := s.receiptSvc.IssueReceipt(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payload, err := io.ReadAll(result.PDF)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Receipt.ReceiptNumber+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}
