package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/constructia/billing/internal/mandate/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, mandate *domain.SEPAMandate) error {
	return db.WithContext(ctx).Create(mandate).Error
}

func (r *repo) FindLatestActive(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (*domain.SEPAMandate, error) {
	var mandate domain.SEPAMandate
	err := db.WithContext(ctx).
		Where("client_id = ? AND status = ?", clientID, string(domain.MandateStatusActive)).
		Order("signed_at desc, id desc").
		First(&mandate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mandate, nil
}

func (r *repo) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.SEPAMandate, error) {
	var mandate domain.SEPAMandate
	err := db.WithContext(ctx).First(&mandate, "mandate_reference = ?", strings.TrimSpace(reference)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mandate, nil
}

func (r *repo) Revoke(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE sepa_mandates SET status = ?, revoked_at = ? WHERE id = ? AND status = ?`,
		string(domain.MandateStatusRevoked),
		at.UTC(),
		id,
		string(domain.MandateStatusActive),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
