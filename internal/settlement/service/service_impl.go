package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/constructia/billing/internal/account/domain"
	activitydomain "github.com/constructia/billing/internal/activity/domain"
	"github.com/constructia/billing/internal/clock"
	"github.com/constructia/billing/internal/config"
	kpidomain "github.com/constructia/billing/internal/kpi/domain"
	ledgerdomain "github.com/constructia/billing/internal/ledger/domain"
	obsmetrics "github.com/constructia/billing/internal/observability/metrics"
	"github.com/constructia/billing/internal/settlement/domain"
	pkgdb "github.com/constructia/billing/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Policy     *config.BillingPolicyHolder
	Accounts   accountdomain.Repository
	Ledger     ledgerdomain.Repository
	Activity   activitydomain.Repository
	KPI        kpidomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	policy     *config.BillingPolicyHolder
	accounts   accountdomain.Repository
	ledger     ledgerdomain.Repository
	activity   activitydomain.Repository
	kpi        kpidomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("settlement.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		policy:     p.Policy,
		accounts:   p.Accounts,
		ledger:     p.Ledger,
		activity:   p.Activity,
		kpi:        p.KPI,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Settle(ctx context.Context, req domain.SettleRequest) (domain.SettleResult, error) {
	req.TransactionID = strings.TrimSpace(req.TransactionID)
	if err := validate(req); err != nil {
		s.record(ctx, req.Confirmation.Method, "rejected")
		return domain.SettleResult{}, err
	}

	result, err := s.settleOnce(ctx, req)
	if err != nil && pkgdb.IsTransientErr(err) {
		s.log.Warn("settlement hit transient storage error, retrying",
			zap.String("transaction_id", req.TransactionID),
			zap.Error(err),
		)
		result, err = s.settleOnce(ctx, req)
	}
	if err != nil {
		s.record(ctx, req.Confirmation.Method, "failed")
		return domain.SettleResult{}, err
	}

	if result.AlreadySettled {
		s.record(ctx, req.Confirmation.Method, "duplicate")
	} else {
		s.record(ctx, req.Confirmation.Method, "settled")
		s.log.Info("purchase settled",
			zap.String("transaction_id", result.TransactionID),
			zap.String("client_id", req.ClientID.String()),
			zap.Int64("amount_cents", req.Package.PriceCents),
			zap.Int64("tokens_credited", req.Package.TotalTokens()),
		)
	}
	return result, nil
}

func validate(req domain.SettleRequest) error {
	if req.TransactionID == "" {
		return domain.ErrInvalidTransactionID
	}
	if req.ClientID == 0 {
		return domain.ErrInvalidClient
	}
	if req.Package.PriceCents <= 0 || req.Package.TotalTokens() <= 0 {
		return domain.ErrInvalidPackage
	}
	if strings.TrimSpace(req.Confirmation.Method) == "" {
		return domain.ErrInvalidMethod
	}
	// Rejected before any write: a mismatched amount must leave no trace.
	if req.Confirmation.AmountCents != req.Package.PriceCents {
		return domain.ErrAmountMismatch
	}
	return nil
}

func (s *Service) settleOnce(ctx context.Context, req domain.SettleRequest) (domain.SettleResult, error) {
	existing, err := s.ledger.FindPurchaseByTransactionID(ctx, s.db, req.TransactionID)
	if err != nil {
		return domain.SettleResult{}, err
	}
	if existing != nil {
		return s.replay(ctx, existing, req)
	}

	purchase := &ledgerdomain.PurchaseRecord{
		ID:              s.genID.Generate(),
		ClientID:        req.ClientID,
		PackageName:     req.Package.Name,
		TokensPurchased: req.Package.Tokens,
		BonusTokens:     req.Package.BonusTokens,
		PriceCents:      req.Package.PriceCents,
		TransactionID:   req.TransactionID,
		PaymentMethod:   req.Confirmation.Method,
		Status:          ledgerdomain.PurchaseStatusActive,
		PurchasedAt:     s.clock.Now(),
	}

	var lostRace bool
	var balance int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.ledger.InsertPurchase(ctx, tx, purchase)
		if err != nil {
			return err
		}
		if !inserted {
			// Another writer settled this transaction between our duplicate
			// check and the insert. Back out and replay theirs.
			lostRace = true
			return nil
		}

		credited, err := s.accounts.CreditBalance(ctx, tx, req.ClientID, accountdomain.BalanceCredit{
			Tokens:    req.Package.TotalTokens(),
			StorageGB: req.Package.StorageGB,
		}, purchase.PurchasedAt)
		if err != nil {
			return err
		}
		if !credited {
			return domain.ErrClientNotFound
		}

		if err := s.ledger.InsertFinancialRecord(ctx, tx, s.financialRecord(req)); err != nil {
			return err
		}

		if err := s.activity.Insert(ctx, tx, &activitydomain.ActivityLog{
			ID:           s.genID.Generate(),
			ClientID:     req.ClientID,
			ActivityType: activitydomain.TypePurchaseSettled,
			Description:  "Purchase settled: " + req.Package.Name,
			Metadata: datatypes.JSONMap{
				"transaction_id":  req.TransactionID,
				"package_name":    req.Package.Name,
				"amount_cents":    req.Package.PriceCents,
				"tokens_credited": req.Package.TotalTokens(),
				"payment_method":  req.Confirmation.Method,
			},
			CreatedAt: purchase.PurchasedAt,
		}); err != nil {
			return err
		}

		if err := s.kpi.ApplyDelta(ctx, tx, kpidomain.Delta{
			RevenueCents: req.Package.PriceCents,
			Tokens:       req.Package.TotalTokens(),
			StorageGB:    req.Package.StorageGB,
		}, purchase.PurchasedAt); err != nil {
			return err
		}

		account, err := s.accounts.FindByID(ctx, tx, req.ClientID)
		if err != nil {
			return err
		}
		balance = account.AvailableTokens
		return nil
	})
	if err != nil {
		return domain.SettleResult{}, err
	}

	if lostRace {
		winner, err := s.ledger.FindPurchaseByTransactionID(ctx, s.db, req.TransactionID)
		if err != nil {
			return domain.SettleResult{}, err
		}
		return s.replay(ctx, winner, req)
	}

	return domain.SettleResult{
		TransactionID:    req.TransactionID,
		PurchaseRecordID: purchase.ID,
		NewBalance:       balance,
	}, nil
}

// replay resolves a duplicate confirmation: same payload returns the prior
// outcome, a diverging payload is a conflict.
func (s *Service) replay(ctx context.Context, existing *ledgerdomain.PurchaseRecord, req domain.SettleRequest) (domain.SettleResult, error) {
	if existing.ClientID != req.ClientID ||
		existing.PriceCents != req.Package.PriceCents ||
		existing.TokensPurchased != req.Package.Tokens ||
		existing.BonusTokens != req.Package.BonusTokens ||
		existing.PackageName != req.Package.Name {
		s.log.Warn("transaction replayed with diverging payload",
			zap.String("transaction_id", req.TransactionID),
			zap.String("existing_client_id", existing.ClientID.String()),
			zap.String("request_client_id", req.ClientID.String()),
		)
		return domain.SettleResult{}, domain.ErrConflict
	}

	account, err := s.accounts.FindByID(ctx, s.db, existing.ClientID)
	if err != nil {
		return domain.SettleResult{}, err
	}
	var balance int64
	if account != nil {
		balance = account.AvailableTokens
	}
	return domain.SettleResult{
		TransactionID:    existing.TransactionID,
		PurchaseRecordID: existing.ID,
		NewBalance:       balance,
		AlreadySettled:   true,
	}, nil
}

// financialRecord builds the income ledger entry, splitting the gross amount
// into taxable base and VAT at the configured rate. Prices are tax inclusive.
func (s *Service) financialRecord(req domain.SettleRequest) *ledgerdomain.FinancialRecord {
	policy := s.policy.Get()
	gross := req.Package.PriceCents
	rate := int64(policy.TaxRateBps)
	tax := gross * rate / (10000 + rate)
	return &ledgerdomain.FinancialRecord{
		ID:            s.genID.Generate(),
		Type:          ledgerdomain.FinancialRecordTypeIncome,
		AmountCents:   gross,
		Category:      ledgerdomain.CategoryTokenSales,
		TransactionID: req.TransactionID,
		ClientID:      req.ClientID,
		PaymentStatus: "completed",
		Metadata: datatypes.JSONMap{
			"package_name":   req.Package.Name,
			"payment_method": req.Confirmation.Method,
			"currency":       policy.Currency,
			"subtotal_cents": gross - tax,
			"tax_cents":      tax,
			"tax_rate_bps":   policy.TaxRateBps,
		},
		CreatedAt: s.clock.Now(),
	}
}

func (s *Service) record(ctx context.Context, method, outcome string) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordSettlement(ctx, method, outcome)
}
