package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/constructia/billing/internal/catalog/domain"
	pkgdb "github.com/constructia/billing/pkg/db"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePackageRequest) (*domain.TokenPackage, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Tokens <= 0 || req.BonusTokens < 0 {
		return nil, domain.ErrInvalidTokens
	}
	if req.PriceCents <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}

	now := time.Now().UTC()
	pkg := &domain.TokenPackage{
		ID:          s.genID.Generate(),
		Name:        name,
		Slug:        slug.Make(name),
		Tokens:      req.Tokens,
		BonusTokens: req.BonusTokens,
		StorageGB:   req.StorageGB,
		PriceCents:  req.PriceCents,
		Currency:    currency,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, pkg); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateSlug
		}
		return nil, err
	}

	s.log.Info("token package created",
		zap.String("package_id", pkg.ID.String()),
		zap.String("slug", pkg.Slug),
	)
	return pkg, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdatePackageRequest) (*domain.TokenPackage, error) {
	if req.ID == 0 {
		return nil, domain.ErrInvalidID
	}
	pkg, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, domain.ErrNotFound
	}

	if req.PriceCents != nil {
		if *req.PriceCents <= 0 {
			return nil, domain.ErrInvalidPrice
		}
		pkg.PriceCents = *req.PriceCents
	}
	if req.Active != nil {
		pkg.Active = *req.Active
	}
	pkg.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, s.db, pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

func (s *Service) GetBySlug(ctx context.Context, rawSlug string) (*domain.TokenPackage, error) {
	if strings.TrimSpace(rawSlug) == "" {
		return nil, domain.ErrInvalidID
	}
	pkg, err := s.repo.FindBySlug(ctx, s.db, rawSlug)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, domain.ErrNotFound
	}
	return pkg, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*domain.TokenPackage, error) {
	return s.repo.List(ctx, s.db, activeOnly)
}
