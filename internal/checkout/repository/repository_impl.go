package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/constructia/billing/internal/checkout/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, session *domain.CheckoutSession) error {
	return db.WithContext(ctx).Create(session).Error
}

func (r *repo) FindByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*domain.CheckoutSession, error) {
	var session domain.CheckoutSession
	err := db.WithContext(ctx).First(&session, "transaction_id = ?", strings.TrimSpace(transactionID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, transactionID string, status domain.SessionStatus, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE checkout_sessions SET status = ?, updated_at = ? WHERE transaction_id = ? AND status = ?`,
		string(status),
		at.UTC(),
		strings.TrimSpace(transactionID),
		string(domain.SessionStatusPending),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
