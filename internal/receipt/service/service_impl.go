package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/constructia/billing/internal/account/domain"
	activitydomain "github.com/constructia/billing/internal/activity/domain"
	"github.com/constructia/billing/internal/clock"
	"github.com/constructia/billing/internal/config"
	kpidomain "github.com/constructia/billing/internal/kpi/domain"
	ledgerdomain "github.com/constructia/billing/internal/ledger/domain"
	obsmetrics "github.com/constructia/billing/internal/observability/metrics"
	"github.com/constructia/billing/internal/providers/pdf"
	"github.com/constructia/billing/internal/receipt/domain"
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
	Ledger      ledgerdomain.Repository
	Accounts    accountdomain.Repository
	KPI         kpidomain.Repository
	ActivitySvc activitydomain.Service
	Renderer    *pdf.Renderer
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	policy      *config.BillingPolicyHolder
	repo        domain.Repository
	ledger      ledgerdomain.Repository
	accounts    accountdomain.Repository
	kpi         kpidomain.Repository
	activitySvc activitydomain.Service
	renderer    *pdf.Renderer
	obsMetrics  *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("receipt.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		policy:      p.Policy,
		repo:        p.Repo,
		ledger:      p.Ledger,
		accounts:    p.Accounts,
		kpi:         p.KPI,
		activitySvc: p.ActivitySvc,
		renderer:    p.Renderer,
		obsMetrics:  p.ObsMetrics,
	}
}

func (s *Service) IssueReceipt(ctx context.Context, transactionID string) (domain.IssueReceiptResult, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return domain.IssueReceiptResult{}, domain.ErrInvalidTransactionID
	}

	purchase, err := s.ledger.FindPurchaseByTransactionID(ctx, s.db, transactionID)
	if err != nil {
		return domain.IssueReceiptResult{}, err
	}
	if purchase == nil {
		return domain.IssueReceiptResult{}, domain.ErrPurchaseNotFound
	}

	account, err := s.accounts.FindByID(ctx, s.db, purchase.ClientID)
	if err != nil {
		return domain.IssueReceiptResult{}, err
	}

	record, issued, err := s.ensureRecord(ctx, purchase)
	if err != nil {
		return domain.IssueReceiptResult{}, err
	}

	if issued {
		if err := s.activitySvc.Log(ctx, purchase.ClientID, activitydomain.TypeReceiptIssued,
			"Receipt issued: "+record.ReceiptNumber, map[string]any{
				"receipt_number": record.ReceiptNumber,
				"transaction_id": transactionID,
				"amount_cents":   purchase.PriceCents,
			}); err != nil {
			s.log.Warn("failed to log receipt activity", zap.Error(err))
		}
		if s.obsMetrics != nil {
			s.obsMetrics.RecordReceipt(ctx)
		}
		s.log.Info("receipt issued",
			zap.String("receipt_number", record.ReceiptNumber),
			zap.String("transaction_id", transactionID),
		)
	}

	reader, err := s.renderer.RenderReceipt(ctx, s.receiptData(record, purchase, account))
	if err != nil {
		return domain.IssueReceiptResult{}, err
	}
	return domain.IssueReceiptResult{Receipt: record, PDF: reader}, nil
}

// ensureRecord inserts the receipt row on first issuance and bumps the KPI
// counter in the same transaction. A lost race falls back to the winner's row.
func (s *Service) ensureRecord(ctx context.Context, purchase *ledgerdomain.PurchaseRecord) (*domain.ReceiptRecord, bool, error) {
	now := s.clock.Now()
	record := &domain.ReceiptRecord{
		ID:               s.genID.Generate(),
		ReceiptNumber:    fmt.Sprintf("REC-%d-%s", now.Year(), purchase.ID),
		PurchaseRecordID: purchase.ID,
		TransactionID:    purchase.TransactionID,
		ClientID:         purchase.ClientID,
		AmountCents:      purchase.PriceCents,
		TaxCents:         s.taxPortion(purchase.PriceCents),
		IssuedAt:         now,
	}

	var inserted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inserted, err = s.repo.Insert(ctx, tx, record)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		return s.kpi.ApplyDelta(ctx, tx, kpidomain.Delta{Receipts: 1}, now)
	})
	if err != nil {
		return nil, false, err
	}

	if !inserted {
		existing, err := s.repo.FindByPurchaseID(ctx, s.db, purchase.ID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}
	return record, inserted, nil
}

func (s *Service) receiptData(record *domain.ReceiptRecord, purchase *ledgerdomain.PurchaseRecord, account *accountdomain.ClientAccount) pdf.ReceiptData {
	policy := s.policy.Get()
	tax := record.TaxCents
	subtotal := record.AmountCents - tax

	data := pdf.ReceiptData{
		ReceiptNumber: record.ReceiptNumber,
		IssuedDate:    record.IssuedAt.Format("2006-01-02"),
		SellerName:    policy.CreditorName,
		SellerTaxID:   policy.CreditorID,
		TransactionID: purchase.TransactionID,
		PaymentMethod: purchase.PaymentMethod,
		Items: []pdf.ReceiptItem{
			{
				Description: fmt.Sprintf("%s (%d tokens)", purchase.PackageName, purchase.TokensPurchased+purchase.BonusTokens),
				Qty:         1,
				Amount:      formatCents(record.AmountCents, policy.Currency),
			},
		},
		Subtotal: formatCents(subtotal, policy.Currency),
		Tax:      formatCents(tax, policy.Currency),
		TaxLabel: taxLabel(policy.TaxRateBps),
		Total:    formatCents(record.AmountCents, policy.Currency),
	}
	if account != nil {
		data.BuyerName = account.Email
		data.BuyerEmail = account.Email
		data.BuyerCompany = account.CompanyName
	}
	return data
}

func (s *Service) taxPortion(gross int64) int64 {
	rate := int64(s.policy.Get().TaxRateBps)
	return gross * rate / (10000 + rate)
}

// taxLabel prints the rate exactly; reduced IVA rates are not whole percents.
func taxLabel(rateBps int) string {
	return fmt.Sprintf("IVA (%s%%)", strconv.FormatFloat(float64(rateBps)/100, 'f', -1, 64))
}

func formatCents(cents int64, currency string) string {
	symbol := currency
	if strings.EqualFold(currency, "EUR") {
		symbol = "€"
	}
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, symbol)
}
