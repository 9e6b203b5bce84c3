package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/constructia/billing/internal/activity/domain"
	"github.com/constructia/billing/internal/clock"
	"github.com/constructia/billing/internal/config"
	"github.com/constructia/billing/internal/mandate/domain"
	obsmetrics "github.com/constructia/billing/internal/observability/metrics"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Policy      *config.BillingPolicyHolder
	Repo        domain.Repository
	ActivitySvc activitydomain.Service
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	policy      *config.BillingPolicyHolder
	repo        domain.Repository
	activitySvc activitydomain.Service
	obsMetrics  *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("mandate.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		policy:      p.Policy,
		repo:        p.Repo,
		activitySvc: p.ActivitySvc,
		obsMetrics:  p.ObsMetrics,
	}
}

func (s *Service) GetActiveMandate(ctx context.Context, clientID snowflake.ID) (*domain.SEPAMandate, error) {
	if clientID == 0 {
		return nil, domain.ErrInvalidClient
	}
	return s.repo.FindLatestActive(ctx, s.db, clientID)
}

func (s *Service) CreateMandate(ctx context.Context, req domain.CreateMandateRequest) (*domain.SEPAMandate, error) {
	if req.ClientID == 0 {
		return nil, domain.ErrInvalidClient
	}
	debtorName := strings.TrimSpace(req.DebtorName)
	if debtorName == "" {
		return nil, domain.ErrInvalidDebtor
	}

	iban := domain.NormalizeIBAN(req.DebtorIBAN)
	if !domain.ValidIBAN(iban) {
		return nil, domain.ErrInvalidIBAN
	}
	bic := strings.ToUpper(strings.TrimSpace(req.DebtorBIC))
	if !domain.ValidBIC(bic) {
		return nil, domain.ErrInvalidBIC
	}

	// A blank capture is not an authorization. Only the derived metadata
	// survives; the raster itself is never stored.
	pixels := req.Signature.MarkedPixels()
	if pixels == 0 {
		return nil, domain.ErrEmptySignature
	}
	digest := sha256.Sum256(req.Signature.Raster)

	now := s.clock.Now()
	signedAt := req.Signature.CapturedAt
	if signedAt.IsZero() {
		signedAt = now
	}

	policy := s.policy.Get()
	mandate := &domain.SEPAMandate{
		ID:               s.genID.Generate(),
		MandateReference: "CIA-" + ulid.Make().String(),
		ClientID:         req.ClientID,
		DebtorName:       debtorName,
		DebtorIBAN:       iban,
		DebtorBIC:        bic,
		CreditorName:     policy.CreditorName,
		CreditorID:       policy.CreditorID,
		Status:           domain.MandateStatusActive,
		SignedAt:         signedAt.UTC(),
		SignatureHash:    hex.EncodeToString(digest[:]),
		SignaturePixels:  pixels,
		SignatureDevice:  strings.TrimSpace(req.Signature.Device),
		CreatedAt:        now,
	}

	if err := s.repo.Insert(ctx, s.db, mandate); err != nil {
		return nil, err
	}

	if err := s.activitySvc.Log(ctx, req.ClientID, activitydomain.TypeMandateSigned,
		"SEPA mandate signed", map[string]any{
			"mandate_reference": mandate.MandateReference,
			"debtor_bic":        bic,
			"signature_pixels":  pixels,
		}); err != nil {
		s.log.Warn("failed to log mandate activity", zap.Error(err))
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordMandate(ctx, "signed")
	}

	s.log.Info("sepa mandate created",
		zap.String("mandate_reference", mandate.MandateReference),
		zap.String("client_id", req.ClientID.String()),
	)
	return mandate, nil
}

func (s *Service) RevokeMandate(ctx context.Context, clientID snowflake.ID, mandateReference string) error {
	if clientID == 0 {
		return domain.ErrInvalidClient
	}
	reference := strings.TrimSpace(mandateReference)
	if reference == "" {
		return domain.ErrInvalidReference
	}

	mandate, err := s.repo.FindByReference(ctx, s.db, reference)
	if err != nil {
		return err
	}
	if mandate == nil || mandate.ClientID != clientID {
		return domain.ErrMandateNotFound
	}
	if mandate.Status == domain.MandateStatusRevoked {
		return domain.ErrMandateRevoked
	}

	revoked, err := s.repo.Revoke(ctx, s.db, mandate.ID, s.clock.Now())
	if err != nil {
		return err
	}
	if !revoked {
		return domain.ErrMandateRevoked
	}

	if err := s.activitySvc.Log(ctx, clientID, activitydomain.TypeMandateRevoked,
		"SEPA mandate revoked", map[string]any{
			"mandate_reference": reference,
		}); err != nil {
		s.log.Warn("failed to log mandate activity", zap.Error(err))
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordMandate(ctx, "revoked")
	}
	return nil
}
