package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, pkg *TokenPackage) error
	Save(ctx context.Context, db *gorm.DB, pkg *TokenPackage) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*TokenPackage, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*TokenPackage, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*TokenPackage, error)
}
