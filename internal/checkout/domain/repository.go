package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, session *CheckoutSession) error
	FindByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*CheckoutSession, error)
	// UpdateStatus transitions a pending session and reports whether the
	// guard matched. Terminal sessions stay put.
	UpdateStatus(ctx context.Context, db *gorm.DB, transactionID string, status SessionStatus, at time.Time) (bool, error)
}
