package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/constructia/billing/internal/ledger/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertPurchase(ctx context.Context, db *gorm.DB, record *domain.PurchaseRecord) (bool, error) {
	if record == nil {
		return false, domain.ErrInvalidTransactionID
	}
	if strings.TrimSpace(record.TransactionID) == "" {
		return false, domain.ErrInvalidTransactionID
	}
	if record.ClientID == 0 {
		return false, domain.ErrInvalidClient
	}

	result := db.WithContext(ctx).Exec(
		`INSERT INTO purchase_records (
			id, client_id, package_name, tokens_purchased, bonus_tokens,
			price_cents, transaction_id, payment_method, status, purchased_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (transaction_id) DO NOTHING`,
		record.ID,
		record.ClientID,
		record.PackageName,
		record.TokensPurchased,
		record.BonusTokens,
		record.PriceCents,
		record.TransactionID,
		record.PaymentMethod,
		string(record.Status),
		record.PurchasedAt.UTC(),
		record.CreatedAt.UTC(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindPurchaseByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*domain.PurchaseRecord, error) {
	var record domain.PurchaseRecord
	err := db.WithContext(ctx).First(&record, "transaction_id = ?", strings.TrimSpace(transactionID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repo) InsertFinancialRecord(ctx context.Context, db *gorm.DB, record *domain.FinancialRecord) error {
	if record == nil {
		return domain.ErrInvalidAmount
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO financial_records (
			id, type, amount_cents, category, transaction_id,
			client_id, payment_status, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		string(record.Type),
		record.AmountCents,
		record.Category,
		record.TransactionID,
		record.ClientID,
		record.PaymentStatus,
		record.Metadata,
		record.CreatedAt.UTC(),
	).Error
}

func (r *repo) ListPurchases(ctx context.Context, db *gorm.DB, filter domain.ListPurchaseFilter) ([]*domain.PurchaseRecord, error) {
	var records []*domain.PurchaseRecord
	stmt := db.WithContext(ctx).Model(&domain.PurchaseRecord{}).
		Where("client_id = ?", filter.ClientID)

	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
