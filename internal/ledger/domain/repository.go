package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListPurchaseFilter selects purchase history rows, newest first.
type ListPurchaseFilter struct {
	ClientID snowflake.ID
	Cursor   *PurchaseCursor
	Limit    int
}

type PurchaseCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

// Repository is the thin transactional store for the purchase and financial
// record families. Callers own the transaction boundary; only the settlement
// engine writes more than one family at a time.
type Repository interface {
	// InsertPurchase inserts idempotently on transaction_id and reports
	// whether a new row was written.
	InsertPurchase(ctx context.Context, db *gorm.DB, record *PurchaseRecord) (bool, error)
	FindPurchaseByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*PurchaseRecord, error)
	InsertFinancialRecord(ctx context.Context, db *gorm.DB, record *FinancialRecord) error
	ListPurchases(ctx context.Context, db *gorm.DB, filter ListPurchaseFilter) ([]*PurchaseRecord, error)
}

var (
	ErrInvalidTransactionID = errors.New("invalid_transaction_id")
	ErrInvalidClient        = errors.New("invalid_client")
	ErrInvalidAmount        = errors.New("invalid_amount")
)
