package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/constructia/billing/internal/account/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *domain.ClientAccount) error {
	return db.WithContext(ctx).Create(account).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ClientAccount, error) {
	var account domain.ClientAccount
	err := db.WithContext(ctx).First(&account, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.ClientAccount, error) {
	var account domain.ClientAccount
	err := db.WithContext(ctx).First(&account, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repo) CreditBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, credit domain.BalanceCredit, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE client_accounts
		 SET available_tokens = available_tokens + ?,
		     storage_limit_gb = storage_limit_gb + ?,
		     subscription_status = ?,
		     updated_at = ?
		 WHERE id = ?`,
		credit.Tokens,
		credit.StorageGB,
		string(domain.SubscriptionStatusActive),
		at.UTC(),
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
