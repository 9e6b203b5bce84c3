package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertConfirmation inserts idempotently on (provider, provider_event_id)
	// and reports whether a new row was written.
	InsertConfirmation(ctx context.Context, db *gorm.DB, record *ConfirmationRecord) (bool, error)
}
