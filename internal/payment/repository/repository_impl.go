package repository

import (
	"context"
	"strings"

	"github.com/constructia/billing/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertConfirmation(ctx context.Context, db *gorm.DB, record *domain.ConfirmationRecord) (bool, error) {
	if record == nil || strings.TrimSpace(record.ProviderEventID) == "" {
		return false, domain.ErrInvalidEventID
	}

	result := db.WithContext(ctx).Exec(
		`INSERT INTO payment_confirmations (
			id, provider, provider_event_id, transaction_id,
			status, amount_cents, payload, received_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, provider_event_id) DO NOTHING`,
		record.ID,
		record.Provider,
		record.ProviderEventID,
		record.TransactionID,
		record.Status,
		record.AmountCents,
		record.Payload,
		record.ReceivedAt.UTC(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
