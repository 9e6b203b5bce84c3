package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/constructia/billing/internal/account/domain"
	activitydomain "github.com/constructia/billing/internal/activity/domain"
	catalogdomain "github.com/constructia/billing/internal/catalog/domain"
	"github.com/constructia/billing/internal/checkout/domain"
	"github.com/constructia/billing/internal/checkout/repository"
	"github.com/constructia/billing/internal/clock"
	mandatedomain "github.com/constructia/billing/internal/mandate/domain"
	pkgdb "github.com/constructia/billing/pkg/db"
	"go.uber.org/zap"
)

type stubAccounts struct {
	mu       sync.Mutex
	node     *snowflake.Node
	byID     map[snowflake.ID]*accountdomain.ClientAccount
	byEmail  map[string]*accountdomain.ClientAccount
	register int
}

func newStubAccounts(node *snowflake.Node) *stubAccounts {
	return &stubAccounts{
		node:    node,
		byID:    map[snowflake.ID]*accountdomain.ClientAccount{},
		byEmail: map[string]*accountdomain.ClientAccount{},
	}
}

func (s *stubAccounts) Register(ctx context.Context, req accountdomain.RegisterAccountRequest) (*accountdomain.ClientAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.register++
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if existing, ok := s.byEmail[email]; ok {
		return existing, nil
	}
	account := &accountdomain.ClientAccount{ID: s.node.Generate(), Email: email, CompanyName: req.CompanyName}
	s.byID[account.ID] = account
	s.byEmail[email] = account
	return account, nil
}

func (s *stubAccounts) GetByID(ctx context.Context, id snowflake.ID) (*accountdomain.ClientAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.byID[id]; ok {
		return account, nil
	}
	return nil, accountdomain.ErrNotFound
}

type stubCatalog struct {
	packages map[string]*catalogdomain.TokenPackage
}

func (s *stubCatalog) Create(ctx context.Context, req catalogdomain.CreatePackageRequest) (*catalogdomain.TokenPackage, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCatalog) Update(ctx context.Context, req catalogdomain.UpdatePackageRequest) (*catalogdomain.TokenPackage, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCatalog) GetBySlug(ctx context.Context, slug string) (*catalogdomain.TokenPackage, error) {
	if pkg, ok := s.packages[slug]; ok {
		return pkg, nil
	}
	return nil, catalogdomain.ErrNotFound
}

func (s *stubCatalog) List(ctx context.Context, activeOnly bool) ([]*catalogdomain.TokenPackage, error) {
	return nil, nil
}

type stubMandates struct {
	active map[snowflake.ID]*mandatedomain.SEPAMandate
}

func (s *stubMandates) GetActiveMandate(ctx context.Context, clientID snowflake.ID) (*mandatedomain.SEPAMandate, error) {
	return s.active[clientID], nil
}

func (s *stubMandates) CreateMandate(ctx context.Context, req mandatedomain.CreateMandateRequest) (*mandatedomain.SEPAMandate, error) {
	return nil, errors.New("not implemented")
}

func (s *stubMandates) RevokeMandate(ctx context.Context, clientID snowflake.ID, reference string) error {
	return errors.New("not implemented")
}

type stubActivity struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubActivity) Log(ctx context.Context, clientID snowflake.ID, activityType, description string, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, activityType)
	return nil
}

func (s *stubActivity) List(ctx context.Context, req activitydomain.ListActivityRequest) (activitydomain.ListActivityResponse, error) {
	return activitydomain.ListActivityResponse{}, nil
}

type fixture struct {
	svc      domain.Service
	node     *snowflake.Node
	accounts *stubAccounts
	catalog  *stubCatalog
	mandates *stubMandates
	activity *stubActivity
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conn, err := pkgdb.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&domain.CheckoutSession{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	accounts := newStubAccounts(node)
	catalog := &stubCatalog{packages: map[string]*catalogdomain.TokenPackage{
		"paquete-estandar": {
			ID:          node.Generate(),
			Name:        "Paquete Estándar",
			Slug:        "paquete-estandar",
			Tokens:      2500,
			BonusTokens: 350,
			StorageGB:   5,
			PriceCents:  3500,
			Currency:    "EUR",
			Active:      true,
		},
		"paquete-antiguo": {
			ID:         node.Generate(),
			Name:       "Paquete Antiguo",
			Slug:       "paquete-antiguo",
			Tokens:     500,
			PriceCents: 900,
			Currency:   "EUR",
			Active:     false,
		},
	}}
	mandates := &stubMandates{active: map[snowflake.ID]*mandatedomain.SEPAMandate{}}
	activity := &stubActivity{}

	svc := NewService(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)),
		Repo:        repository.Provide(),
		AccountSvc:  accounts,
		CatalogSvc:  catalog,
		MandateSvc:  mandates,
		ActivitySvc: activity,
	})

	return &fixture{svc: svc, node: node, accounts: accounts, catalog: catalog, mandates: mandates, activity: activity}
}

func TestStartCheckoutFreezesPackageTerms(t *testing.T) {
	f := setup(t)

	session, err := f.svc.StartCheckout(context.Background(), domain.StartCheckoutRequest{
		Email:         "obra@constructia.es",
		CompanyName:   "Reformas Díaz",
		PackageSlug:   "paquete-estandar",
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("start checkout: %v", err)
	}

	if !strings.HasPrefix(session.TransactionID, "txn_") {
		t.Fatalf("unexpected transaction id: %s", session.TransactionID)
	}
	if session.Status != domain.SessionStatusPending {
		t.Fatalf("expected pending status, got %s", session.Status)
	}
	if session.PriceCents != 3500 || session.Tokens != 2500 || session.BonusTokens != 350 {
		t.Fatalf("package terms not frozen: %+v", session)
	}

	// Repricing the catalog must not touch the open session.
	f.catalog.packages["paquete-estandar"].PriceCents = 9999
	reloaded, err := f.svc.GetSession(context.Background(), session.TransactionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if reloaded.PriceCents != 3500 {
		t.Fatalf("session price moved with the catalog: %d", reloaded.PriceCents)
	}

	f.activity.mu.Lock()
	defer f.activity.mu.Unlock()
	if len(f.activity.calls) != 1 || f.activity.calls[0] != activitydomain.TypeCheckoutStarted {
		t.Fatalf("unexpected activity calls: %v", f.activity.calls)
	}
}

func TestStartCheckoutRegistersNewAccountByEmail(t *testing.T) {
	f := setup(t)

	session, err := f.svc.StartCheckout(context.Background(), domain.StartCheckoutRequest{
		Email:         "nueva@constructia.es",
		PackageSlug:   "paquete-estandar",
		PaymentMethod: "bizum",
	})
	if err != nil {
		t.Fatalf("start checkout: %v", err)
	}
	if session.ClientID == 0 {
		t.Fatal("session has no client")
	}
	if f.accounts.register != 1 {
		t.Fatalf("expected one registration, got %d", f.accounts.register)
	}
}

func TestStartCheckoutSEPARequiresMandate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	account, _ := f.accounts.Register(ctx, accountdomain.RegisterAccountRequest{Email: "sepa@constructia.es"})

	_, err := f.svc.StartCheckout(ctx, domain.StartCheckoutRequest{
		ClientID:      account.ID,
		PackageSlug:   "paquete-estandar",
		PaymentMethod: "sepa_debit",
	})
	if !errors.Is(err, domain.ErrMandateRequired) {
		t.Fatalf("expected ErrMandateRequired, got %v", err)
	}

	f.mandates.active[account.ID] = &mandatedomain.SEPAMandate{
		MandateReference: "CIA-01HV0TESTREF",
		ClientID:         account.ID,
		Status:           mandatedomain.MandateStatusActive,
	}

	session, err := f.svc.StartCheckout(ctx, domain.StartCheckoutRequest{
		ClientID:      account.ID,
		PackageSlug:   "paquete-estandar",
		PaymentMethod: "sepa_debit",
	})
	if err != nil {
		t.Fatalf("start checkout with mandate: %v", err)
	}
	if session.MandateReference != "CIA-01HV0TESTREF" {
		t.Fatalf("mandate reference not attached: %q", session.MandateReference)
	}
}

func TestStartCheckoutValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		req     domain.StartCheckoutRequest
		wantErr error
	}{
		{"unknown method", domain.StartCheckoutRequest{Email: "a@b.es", PackageSlug: "paquete-estandar", PaymentMethod: "cheque"}, domain.ErrInvalidMethod},
		{"blank slug", domain.StartCheckoutRequest{Email: "a@b.es", PackageSlug: " ", PaymentMethod: "card"}, domain.ErrInvalidSlug},
		{"no identity", domain.StartCheckoutRequest{PackageSlug: "paquete-estandar", PaymentMethod: "card"}, domain.ErrInvalidIdentity},
		{"unknown package", domain.StartCheckoutRequest{Email: "a@b.es", PackageSlug: "no-such", PaymentMethod: "card"}, catalogdomain.ErrNotFound},
		{"retired package", domain.StartCheckoutRequest{Email: "a@b.es", PackageSlug: "paquete-antiguo", PaymentMethod: "card"}, catalogdomain.ErrPackageRetired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.StartCheckout(ctx, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSessionTransitionsAreGuarded(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	session, err := f.svc.StartCheckout(ctx, domain.StartCheckoutRequest{
		Email:         "guard@constructia.es",
		PackageSlug:   "paquete-estandar",
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("start checkout: %v", err)
	}

	if err := f.svc.MarkSettled(ctx, session.TransactionID); err != nil {
		t.Fatalf("mark settled: %v", err)
	}
	reloaded, _ := f.svc.GetSession(ctx, session.TransactionID)
	if reloaded.Status != domain.SessionStatusSettled {
		t.Fatalf("expected settled, got %s", reloaded.Status)
	}

	// A late failure event cannot demote a settled session.
	if err := f.svc.MarkFailed(ctx, session.TransactionID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	reloaded, _ = f.svc.GetSession(ctx, session.TransactionID)
	if reloaded.Status != domain.SessionStatusSettled {
		t.Fatalf("terminal status overwritten: %s", reloaded.Status)
	}
}

func TestGetSessionUnknown(t *testing.T) {
	f := setup(t)

	_, err := f.svc.GetSession(context.Background(), "txn_missing")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
