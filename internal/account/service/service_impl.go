package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/constructia/billing/internal/account/domain"
	pkgdb "github.com/constructia/billing/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterAccountRequest) (*domain.ClientAccount, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	account := &domain.ClientAccount{
		ID:                 s.genID.Generate(),
		Email:              email,
		CompanyName:        strings.TrimSpace(req.CompanyName),
		SubscriptionStatus: domain.SubscriptionStatusTrial,
		Metadata:           datatypes.JSONMap{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Insert(ctx, s.db, account); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			// Lost the race against a concurrent registration for the same email.
			return s.repo.FindByEmail(ctx, s.db, email)
		}
		return nil, err
	}

	s.log.Info("client account registered",
		zap.String("account_id", account.ID.String()),
		zap.String("email", email),
	)
	return account, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.ClientAccount, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	account, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return account, nil
}
