package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreatePackageRequest struct {
	Name        string
	Tokens      int64
	BonusTokens int64
	StorageGB   float64
	PriceCents  int64
	Currency    string
}

type UpdatePackageRequest struct {
	ID         snowflake.ID
	PriceCents *int64
	Active     *bool
}

type Service interface {
	Create(ctx context.Context, req CreatePackageRequest) (*TokenPackage, error)
	Update(ctx context.Context, req UpdatePackageRequest) (*TokenPackage, error)
	GetBySlug(ctx context.Context, slug string) (*TokenPackage, error)
	List(ctx context.Context, activeOnly bool) ([]*TokenPackage, error)
}

var (
	ErrNotFound       = errors.New("package_not_found")
	ErrInvalidName    = errors.New("invalid_package_name")
	ErrInvalidTokens  = errors.New("invalid_package_tokens")
	ErrInvalidPrice   = errors.New("invalid_package_price")
	ErrDuplicateSlug  = errors.New("duplicate_package_slug")
	ErrInvalidID      = errors.New("invalid_package_id")
	ErrPackageRetired = errors.New("package_retired")
)
