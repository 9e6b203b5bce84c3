package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/constructia/billing/internal/receipt/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.ReceiptRecord) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO receipt_records (
			id, receipt_number, purchase_record_id, transaction_id,
			client_id, amount_cents, tax_cents, issued_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (purchase_record_id) DO NOTHING`,
		record.ID,
		record.ReceiptNumber,
		record.PurchaseRecordID,
		record.TransactionID,
		record.ClientID,
		record.AmountCents,
		record.TaxCents,
		record.IssuedAt.UTC(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindByPurchaseID(ctx context.Context, db *gorm.DB, purchaseID snowflake.ID) (*domain.ReceiptRecord, error) {
	var record domain.ReceiptRecord
	err := db.WithContext(ctx).First(&record, "purchase_record_id = ?", purchaseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
