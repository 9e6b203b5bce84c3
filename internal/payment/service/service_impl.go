package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/constructia/billing/internal/activity/domain"
	checkoutdomain "github.com/constructia/billing/internal/checkout/domain"
	"github.com/constructia/billing/internal/clock"
	obsmetrics "github.com/constructia/billing/internal/observability/metrics"
	"github.com/constructia/billing/internal/payment/domain"
	"github.com/constructia/billing/internal/ratelimit"
	settlementdomain "github.com/constructia/billing/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          domain.Repository
	CheckoutSvc   checkoutdomain.Service
	SettlementSvc settlementdomain.Service
	ActivitySvc   activitydomain.Service
	Limiter       *ratelimit.IngressLimiter `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics       `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          domain.Repository
	checkoutSvc   checkoutdomain.Service
	settlementSvc settlementdomain.Service
	activitySvc   activitydomain.Service
	locker        domain.TransactionLocker
	obsMetrics    *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("payment.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		checkoutSvc:   p.CheckoutSvc,
		settlementSvc: p.SettlementSvc,
		activitySvc:   p.ActivitySvc,
		locker:        p.Limiter,
		obsMetrics:    p.ObsMetrics,
	}
}

func (s *Service) IngestConfirmation(ctx context.Context, confirmation domain.Confirmation) (domain.IngestResult, error) {
	provider := strings.ToLower(strings.TrimSpace(confirmation.Provider))
	if provider == "" {
		return domain.IngestResult{}, domain.ErrInvalidProvider
	}
	eventID := strings.TrimSpace(confirmation.EventID)
	if eventID == "" {
		return domain.IngestResult{}, domain.ErrInvalidEventID
	}
	transactionID := strings.TrimSpace(confirmation.TransactionID)
	if transactionID == "" {
		return domain.IngestResult{}, domain.ErrInvalidTransactionID
	}
	status := strings.ToLower(strings.TrimSpace(confirmation.Status))
	if status != domain.ConfirmationStatusSucceeded && status != domain.ConfirmationStatusFailed {
		return domain.IngestResult{}, domain.ErrInvalidStatus
	}

	// The session is the source of truth for what was bought. An event
	// for a transaction we never opened is rejected, not guessed at.
	session, err := s.checkoutSvc.GetSession(ctx, transactionID)
	if err != nil {
		if errors.Is(err, checkoutdomain.ErrSessionNotFound) {
			s.recordEvent(ctx, provider, "unknown_transaction")
			return domain.IngestResult{}, domain.ErrUnknownTransaction
		}
		return domain.IngestResult{}, err
	}

	// Refused before the dedupe insert: a contended retry must still find a
	// clean slate, settle, and not be swallowed as a duplicate.
	lockToken, acquired, err := s.locker.TryLockTransaction(ctx, transactionID)
	if err != nil {
		s.log.Warn("transaction lock unavailable, proceeding without it",
			zap.String("transaction_id", transactionID),
			zap.Error(err),
		)
	} else if !acquired {
		s.recordEvent(ctx, provider, "contended")
		return domain.IngestResult{}, domain.ErrTransactionBusy
	} else {
		defer func() {
			if err := s.locker.ReleaseTransaction(ctx, transactionID, lockToken); err != nil {
				s.log.Warn("failed to release transaction lock",
					zap.String("transaction_id", transactionID),
					zap.Error(err),
				)
			}
		}()
	}

	inserted, err := s.repo.InsertConfirmation(ctx, s.db, &domain.ConfirmationRecord{
		ID:              s.genID.Generate(),
		Provider:        provider,
		ProviderEventID: eventID,
		TransactionID:   transactionID,
		Status:          status,
		AmountCents:     confirmation.AmountCents,
		Payload:         datatypes.JSONMap(confirmation.Raw),
		ReceivedAt:      s.clock.Now(),
	})
	if err != nil {
		return domain.IngestResult{}, err
	}
	if !inserted {
		s.recordEvent(ctx, provider, "duplicate")
		return domain.IngestResult{}, domain.ErrEventAlreadyHandled
	}

	if status == domain.ConfirmationStatusFailed {
		return s.handleFailure(ctx, provider, session, confirmation)
	}
	return s.handleSuccess(ctx, provider, session, confirmation)
}

func (s *Service) handleSuccess(ctx context.Context, provider string, session *checkoutdomain.CheckoutSession, confirmation domain.Confirmation) (domain.IngestResult, error) {
	method := strings.TrimSpace(confirmation.Method)
	if method == "" {
		method = session.PaymentMethod
	}

	result, err := s.settlementSvc.Settle(ctx, settlementdomain.SettleRequest{
		TransactionID: session.TransactionID,
		ClientID:      session.ClientID,
		Package: settlementdomain.PackageSelection{
			Name:        session.PackageName,
			Tokens:      session.Tokens,
			BonusTokens: session.BonusTokens,
			StorageGB:   session.StorageGB,
			PriceCents:  session.PriceCents,
		},
		Confirmation: settlementdomain.PaymentConfirmation{
			Method:      method,
			AmountCents: confirmation.AmountCents,
		},
	})
	if err != nil {
		s.recordEvent(ctx, provider, "settlement_error")
		return domain.IngestResult{}, err
	}

	if err := s.checkoutSvc.MarkSettled(ctx, session.TransactionID); err != nil {
		// Settlement already committed; the session catches up on the next
		// replay or stays pending without affecting balances.
		s.log.Warn("failed to mark checkout session settled",
			zap.String("transaction_id", session.TransactionID),
			zap.Error(err),
		)
	}

	s.recordEvent(ctx, provider, domain.ConfirmationStatusSucceeded)
	return domain.IngestResult{
		Settlement: &result,
		Status:     domain.ConfirmationStatusSucceeded,
	}, nil
}

func (s *Service) handleFailure(ctx context.Context, provider string, session *checkoutdomain.CheckoutSession, confirmation domain.Confirmation) (domain.IngestResult, error) {
	if err := s.checkoutSvc.MarkFailed(ctx, session.TransactionID); err != nil {
		return domain.IngestResult{}, err
	}

	if err := s.activitySvc.Log(ctx, session.ClientID, activitydomain.TypePaymentFailed,
		"Payment failed: "+session.PackageName, map[string]any{
			"transaction_id": session.TransactionID,
			"provider":       provider,
			"amount_cents":   confirmation.AmountCents,
		}); err != nil {
		s.log.Warn("failed to log payment failure", zap.Error(err))
	}

	s.recordEvent(ctx, provider, domain.ConfirmationStatusFailed)
	s.log.Info("payment confirmation failed",
		zap.String("transaction_id", session.TransactionID),
		zap.String("provider", provider),
	)
	return domain.IngestResult{Status: domain.ConfirmationStatusFailed}, nil
}

func (s *Service) recordEvent(ctx context.Context, provider, status string) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordPaymentEvent(ctx, provider, status)
}
