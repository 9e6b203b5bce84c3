package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// PackageSelection is the purchased bundle as frozen at checkout time.
type PackageSelection struct {
	Name        string
	Tokens      int64
	BonusTokens int64
	StorageGB   float64
	PriceCents  int64
}

// TotalTokens is the credited amount: purchased plus bonus.
func (p PackageSelection) TotalTokens() int64 { return p.Tokens + p.BonusTokens }

// PaymentConfirmation is what the external processor reported for the
// transaction.
type PaymentConfirmation struct {
	Method      string
	AmountCents int64
}

// SettleRequest applies one confirmed payment to the ledger. TransactionID
// is the idempotency key; re-sending the same confirmation is harmless.
type SettleRequest struct {
	TransactionID string
	ClientID      snowflake.ID
	Package       PackageSelection
	Confirmation  PaymentConfirmation
}

type SettleResult struct {
	TransactionID    string       `json:"transaction_id"`
	PurchaseRecordID snowflake.ID `json:"purchase_record_id"`
	NewBalance       int64        `json:"new_balance"`
	AlreadySettled   bool         `json:"already_settled"`
}

type Service interface {
	// Settle credits the client balance, appends the purchase and financial
	// records plus an activity entry, and bumps the KPI snapshot in a single
	// transaction. Safe to call repeatedly with the same TransactionID.
	Settle(ctx context.Context, req SettleRequest) (SettleResult, error)
}

var (
	ErrInvalidTransactionID = errors.New("invalid_transaction_id")
	ErrInvalidClient        = errors.New("invalid_client")
	ErrInvalidPackage       = errors.New("invalid_package")
	ErrInvalidMethod        = errors.New("invalid_payment_method")
	// ErrAmountMismatch: the confirmed amount differs from the expected
	// price. Rejected before any write.
	ErrAmountMismatch = errors.New("amount_mismatch")
	ErrClientNotFound = errors.New("client_not_found")
	// ErrConflict: a purchase with the same transaction ID exists but its
	// payload differs. Never silently overwritten; needs manual
	// reconciliation.
	ErrConflict = errors.New("transaction_conflict")
)
