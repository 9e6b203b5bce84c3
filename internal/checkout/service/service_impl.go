package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/constructia/billing/internal/account/domain"
	activitydomain "github.com/constructia/billing/internal/activity/domain"
	catalogdomain "github.com/constructia/billing/internal/catalog/domain"
	"github.com/constructia/billing/internal/checkout/domain"
	"github.com/constructia/billing/internal/clock"
	mandatedomain "github.com/constructia/billing/internal/mandate/domain"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var allowedMethods = map[string]struct{}{
	domain.PaymentMethodCard:        {},
	domain.PaymentMethodSEPA:        {},
	domain.PaymentMethodBizum:       {},
	domain.PaymentMethodDirectDebit: {},
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	AccountSvc  accountdomain.Service
	CatalogSvc  catalogdomain.Service
	MandateSvc  mandatedomain.Service
	ActivitySvc activitydomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	accountSvc  accountdomain.Service
	catalogSvc  catalogdomain.Service
	mandateSvc  mandatedomain.Service
	activitySvc activitydomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("checkout.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		accountSvc:  p.AccountSvc,
		catalogSvc:  p.CatalogSvc,
		mandateSvc:  p.MandateSvc,
		activitySvc: p.ActivitySvc,
	}
}

func (s *Service) StartCheckout(ctx context.Context, req domain.StartCheckoutRequest) (*domain.CheckoutSession, error) {
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if _, ok := allowedMethods[method]; !ok {
		return nil, domain.ErrInvalidMethod
	}
	slug := strings.TrimSpace(req.PackageSlug)
	if slug == "" {
		return nil, domain.ErrInvalidSlug
	}

	account, err := s.resolveAccount(ctx, req)
	if err != nil {
		return nil, err
	}

	pkg, err := s.catalogSvc.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !pkg.Active {
		return nil, catalogdomain.ErrPackageRetired
	}

	var mandateReference string
	if method == domain.PaymentMethodSEPA || method == domain.PaymentMethodDirectDebit {
		mandate, err := s.mandateSvc.GetActiveMandate(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if mandate == nil {
			return nil, domain.ErrMandateRequired
		}
		mandateReference = mandate.MandateReference
	}

	now := s.clock.Now()
	session := &domain.CheckoutSession{
		ID:               s.genID.Generate(),
		TransactionID:    "txn_" + uuid.NewString(),
		ClientID:         account.ID,
		PackageSlug:      pkg.Slug,
		PackageName:      pkg.Name,
		Tokens:           pkg.Tokens,
		BonusTokens:      pkg.BonusTokens,
		StorageGB:        pkg.StorageGB,
		PriceCents:       pkg.PriceCents,
		Currency:         pkg.Currency,
		PaymentMethod:    method,
		MandateReference: mandateReference,
		Status:           domain.SessionStatusPending,
		Metadata: datatypes.JSONMap{
			"package_id": pkg.ID.String(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, session); err != nil {
		return nil, err
	}

	if err := s.activitySvc.Log(ctx, account.ID, activitydomain.TypeCheckoutStarted,
		"Checkout started: "+pkg.Name, map[string]any{
			"transaction_id": session.TransactionID,
			"package_slug":   pkg.Slug,
			"amount_cents":   pkg.PriceCents,
			"payment_method": method,
		}); err != nil {
		s.log.Warn("failed to log checkout activity", zap.Error(err))
	}

	s.log.Info("checkout session opened",
		zap.String("transaction_id", session.TransactionID),
		zap.String("client_id", account.ID.String()),
		zap.String("package_slug", pkg.Slug),
	)
	return session, nil
}

// resolveAccount loads by ID when given, otherwise registers by email. An
// explicit ID wins when both are present.
func (s *Service) resolveAccount(ctx context.Context, req domain.StartCheckoutRequest) (*accountdomain.ClientAccount, error) {
	if req.ClientID != 0 {
		return s.accountSvc.GetByID(ctx, req.ClientID)
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, domain.ErrInvalidIdentity
	}
	return s.accountSvc.Register(ctx, accountdomain.RegisterAccountRequest{
		Email:       req.Email,
		CompanyName: req.CompanyName,
	})
}

func (s *Service) GetSession(ctx context.Context, transactionID string) (*domain.CheckoutSession, error) {
	session, err := s.repo.FindByTransactionID(ctx, s.db, transactionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) MarkSettled(ctx context.Context, transactionID string) error {
	return s.transition(ctx, transactionID, domain.SessionStatusSettled)
}

func (s *Service) MarkFailed(ctx context.Context, transactionID string) error {
	return s.transition(ctx, transactionID, domain.SessionStatusFailed)
}

func (s *Service) transition(ctx context.Context, transactionID string, status domain.SessionStatus) error {
	updated, err := s.repo.UpdateStatus(ctx, s.db, transactionID, status, s.clock.Now())
	if err != nil {
		return err
	}
	if !updated {
		// Already terminal or unknown; either way nothing to do.
		s.log.Debug("checkout session transition skipped",
			zap.String("transaction_id", transactionID),
			zap.String("target_status", string(status)),
		)
	}
	return nil
}
