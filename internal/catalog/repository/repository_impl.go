package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/constructia/billing/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, pkg *domain.TokenPackage) error {
	return db.WithContext(ctx).Create(pkg).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, pkg *domain.TokenPackage) error {
	return db.WithContext(ctx).Save(pkg).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.TokenPackage, error) {
	var pkg domain.TokenPackage
	err := db.WithContext(ctx).First(&pkg, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.TokenPackage, error) {
	var pkg domain.TokenPackage
	err := db.WithContext(ctx).First(&pkg, "slug = ?", strings.TrimSpace(slug)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*domain.TokenPackage, error) {
	var pkgs []*domain.TokenPackage
	stmt := db.WithContext(ctx).Model(&domain.TokenPackage{}).Order("price_cents asc")
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	if err := stmt.Find(&pkgs).Error; err != nil {
		return nil, err
	}
	return pkgs, nil
}
