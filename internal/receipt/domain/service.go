package domain

import (
	"context"
	"errors"
	"io"
)

type IssueReceiptResult struct {
	Receipt *ReceiptRecord
	PDF     io.Reader
}

type Service interface {
	// IssueReceipt renders the PDF receipt for a settled transaction. The
	// first issuance records it and counts toward the KPI snapshot; later
	// calls regenerate the same document.
	IssueReceipt(ctx context.Context, transactionID string) (IssueReceiptResult, error)
}

var (
	ErrInvalidTransactionID = errors.New("invalid_transaction_id")
	ErrPurchaseNotFound     = errors.New("purchase_not_found")
)
