package service

import (
	"context"

	"github.com/constructia/billing/internal/kpi/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("kpi.service"),
		repo: p.Repo,
	}
}

func (s *Service) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	return s.repo.Get(ctx, s.db)
}
