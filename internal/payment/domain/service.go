package domain

import (
	"context"
	"errors"

	settlementdomain "github.com/constructia/billing/internal/settlement/domain"
)

// Confirmation is one event from a payment processor webhook.
type Confirmation struct {
	Provider      string
	EventID       string
	TransactionID string
	Status        string
	AmountCents   int64
	Method        string
	Raw           map[string]any
}

type IngestResult struct {
	Settlement *settlementdomain.SettleResult `json:"settlement,omitempty"`
	Status     string                         `json:"status"`
}

type Service interface {
	// IngestConfirmation records the event, then hands succeeded payments to
	// the settlement engine and logs failed ones. A replayed event ID is
	// rejected without touching the ledger.
	IngestConfirmation(ctx context.Context, confirmation Confirmation) (IngestResult, error)
}

// TransactionLocker serializes confirmation processing for one transaction
// across nodes. The settlement engine's unique index stays the correctness
// guarantee; the lock only keeps concurrent webhook replays from racing to
// the database.
type TransactionLocker interface {
	TryLockTransaction(ctx context.Context, transactionID string) (token string, acquired bool, err error)
	ReleaseTransaction(ctx context.Context, transactionID, token string) error
}

var (
	ErrInvalidProvider      = errors.New("invalid_provider")
	ErrInvalidEventID       = errors.New("invalid_event_id")
	ErrInvalidStatus        = errors.New("invalid_confirmation_status")
	ErrUnknownTransaction   = errors.New("unknown_transaction")
	ErrEventAlreadyHandled  = errors.New("event_already_processed")
	ErrInvalidTransactionID = errors.New("invalid_transaction_id")
	ErrTransactionBusy      = errors.New("transaction_in_progress")
)
