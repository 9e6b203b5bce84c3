package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/constructia/billing/internal/activity/domain"
	checkoutdomain "github.com/constructia/billing/internal/checkout/domain"
	"github.com/constructia/billing/internal/clock"
	"github.com/constructia/billing/internal/payment/domain"
	"github.com/constructia/billing/internal/payment/repository"
	settlementdomain "github.com/constructia/billing/internal/settlement/domain"
	pkgdb "github.com/constructia/billing/pkg/db"
	"go.uber.org/zap"
)

type stubCheckout struct {
	mu       sync.Mutex
	sessions map[string]*checkoutdomain.CheckoutSession
	settled  []string
	failed   []string
}

func (s *stubCheckout) StartCheckout(ctx context.Context, req checkoutdomain.StartCheckoutRequest) (*checkoutdomain.CheckoutSession, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCheckout) GetSession(ctx context.Context, transactionID string) (*checkoutdomain.CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[transactionID]; ok {
		return session, nil
	}
	return nil, checkoutdomain.ErrSessionNotFound
}

func (s *stubCheckout) MarkSettled(ctx context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settled = append(s.settled, transactionID)
	return nil
}

func (s *stubCheckout) MarkFailed(ctx context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, transactionID)
	return nil
}

type stubSettlement struct {
	mu       sync.Mutex
	requests []settlementdomain.SettleRequest
	result   settlementdomain.SettleResult
	err      error
}

func (s *stubSettlement) Settle(ctx context.Context, req settlementdomain.SettleRequest) (settlementdomain.SettleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return settlementdomain.SettleResult{}, s.err
	}
	result := s.result
	result.TransactionID = req.TransactionID
	return result, nil
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
	svc        domain.Service
	checkout   *stubCheckout
	settlement *stubSettlement
	activity   *stubActivity
	node       *snowflake.Node
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conn, err := pkgdb.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&domain.ConfirmationRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	checkout := &stubCheckout{sessions: map[string]*checkoutdomain.CheckoutSession{}}
	settlement := &stubSettlement{result: settlementdomain.SettleResult{NewBalance: 2850}}
	activity := &stubActivity{}

	svc := NewService(Params{
		DB:            conn,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         clock.NewFakeClock(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)),
		Repo:          repository.Provide(),
		CheckoutSvc:   checkout,
		SettlementSvc: settlement,
		ActivitySvc:   activity,
	})

	return &fixture{svc: svc, checkout: checkout, settlement: settlement, activity: activity, node: node}
}

func (f *fixture) addSession(transactionID string) *checkoutdomain.CheckoutSession {
	session := &checkoutdomain.CheckoutSession{
		ID:            f.node.Generate(),
		TransactionID: transactionID,
		ClientID:      f.node.Generate(),
		PackageSlug:   "paquete-estandar",
		PackageName:   "Paquete Estándar",
		Tokens:        2500,
		BonusTokens:   350,
		StorageGB:     5,
		PriceCents:    3500,
		Currency:      "EUR",
		PaymentMethod: "card",
		Status:        checkoutdomain.SessionStatusPending,
	}
	f.checkout.sessions[transactionID] = session
	return session
}

func succeededEvent(eventID, transactionID string) domain.Confirmation {
	return domain.Confirmation{
		Provider:      "Stripe",
		EventID:       eventID,
		TransactionID: transactionID,
		Status:        "succeeded",
		AmountCents:   3500,
		Raw:           map[string]any{"type": "payment_intent.succeeded"},
	}
}

func TestIngestSucceededSettlesFromSessionSnapshot(t *testing.T) {
	f := setup(t)
	session := f.addSession("txn_abc")

	result, err := f.svc.IngestConfirmation(context.Background(), succeededEvent("evt_1", "txn_abc"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Status != domain.ConfirmationStatusSucceeded {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.Settlement == nil || result.Settlement.NewBalance != 2850 {
		t.Fatalf("unexpected settlement result: %+v", result.Settlement)
	}

	f.settlement.mu.Lock()
	if len(f.settlement.requests) != 1 {
		t.Fatalf("expected 1 settle call, got %d", len(f.settlement.requests))
	}
	req := f.settlement.requests[0]
	f.settlement.mu.Unlock()

	// The settlement request must come from the frozen session, not the event.
	if req.ClientID != session.ClientID || req.Package.PriceCents != 3500 || req.Package.Tokens != 2500 {
		t.Fatalf("settle request not built from session: %+v", req)
	}

	f.checkout.mu.Lock()
	defer f.checkout.mu.Unlock()
	if len(f.checkout.settled) != 1 || f.checkout.settled[0] != "txn_abc" {
		t.Fatalf("session not marked settled: %v", f.checkout.settled)
	}
}

func TestIngestDuplicateEventIsIgnored(t *testing.T) {
	f := setup(t)
	f.addSession("txn_abc")
	ctx := context.Background()

	if _, err := f.svc.IngestConfirmation(ctx, succeededEvent("evt_1", "txn_abc")); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	_, err := f.svc.IngestConfirmation(ctx, succeededEvent("evt_1", "txn_abc"))
	if !errors.Is(err, domain.ErrEventAlreadyHandled) {
		t.Fatalf("expected ErrEventAlreadyHandled, got %v", err)
	}

	f.settlement.mu.Lock()
	defer f.settlement.mu.Unlock()
	if len(f.settlement.requests) != 1 {
		t.Fatalf("duplicate event triggered %d settle calls", len(f.settlement.requests))
	}
}

func TestIngestSameEventIDFromDifferentProviders(t *testing.T) {
	f := setup(t)
	f.addSession("txn_abc")
	ctx := context.Background()

	if _, err := f.svc.IngestConfirmation(ctx, succeededEvent("evt_1", "txn_abc")); err != nil {
		t.Fatalf("stripe ingest: %v", err)
	}

	redsys := succeededEvent("evt_1", "txn_abc")
	redsys.Provider = "redsys"
	if _, err := f.svc.IngestConfirmation(ctx, redsys); err != nil {
		t.Fatalf("event ids are scoped per provider: %v", err)
	}
}

func TestIngestFailedMarksSessionFailed(t *testing.T) {
	f := setup(t)
	f.addSession("txn_abc")

	event := succeededEvent("evt_1", "txn_abc")
	event.Status = "failed"

	result, err := f.svc.IngestConfirmation(context.Background(), event)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Status != domain.ConfirmationStatusFailed {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.Settlement != nil {
		t.Fatal("failed event produced a settlement")
	}

	f.checkout.mu.Lock()
	if len(f.checkout.failed) != 1 {
		t.Fatalf("session not marked failed: %v", f.checkout.failed)
	}
	f.checkout.mu.Unlock()

	f.settlement.mu.Lock()
	if len(f.settlement.requests) != 0 {
		t.Fatalf("failed event triggered settlement")
	}
	f.settlement.mu.Unlock()

	f.activity.mu.Lock()
	defer f.activity.mu.Unlock()
	if len(f.activity.calls) != 1 || f.activity.calls[0] != activitydomain.TypePaymentFailed {
		t.Fatalf("unexpected activity calls: %v", f.activity.calls)
	}
}

func TestIngestUnknownTransaction(t *testing.T) {
	f := setup(t)

	_, err := f.svc.IngestConfirmation(context.Background(), succeededEvent("evt_1", "txn_missing"))
	if !errors.Is(err, domain.ErrUnknownTransaction) {
		t.Fatalf("expected ErrUnknownTransaction, got %v", err)
	}
}

func TestIngestValidation(t *testing.T) {
	f := setup(t)
	f.addSession("txn_abc")
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*domain.Confirmation)
		wantErr error
	}{
		{"blank provider", func(c *domain.Confirmation) { c.Provider = " " }, domain.ErrInvalidProvider},
		{"blank event id", func(c *domain.Confirmation) { c.EventID = "" }, domain.ErrInvalidEventID},
		{"blank transaction", func(c *domain.Confirmation) { c.TransactionID = "" }, domain.ErrInvalidTransactionID},
		{"unknown status", func(c *domain.Confirmation) { c.Status = "maybe" }, domain.ErrInvalidStatus},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event := succeededEvent("evt_v", "txn_abc")
			tc.mutate(&event)
			_, err := f.svc.IngestConfirmation(ctx, event)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

type stubLocker struct {
	mu       sync.Mutex
	busy     bool
	err      error
	locked   []string
	released []string
}

func (l *stubLocker) TryLockTransaction(ctx context.Context, transactionID string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", false, l.err
	}
	if l.busy {
		return "", false, nil
	}
	l.locked = append(l.locked, transactionID)
	return "token-" + transactionID, true, nil
}

func (l *stubLocker) ReleaseTransaction(ctx context.Context, transactionID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = append(l.released, token)
	return nil
}

func TestIngestContendedTransactionRefused(t *testing.T) {
	f := setup(t)
	f.addSession("txn_abc")
	f.svc.(*Service).locker = &stubLocker{busy: true}
	ctx := context.Background()

	_, err := f.svc.IngestConfirmation(ctx, succeededEvent("evt_1", "txn_abc"))
	if !errors.Is(err, domain.ErrTransactionBusy) {
		t.Fatalf("expected ErrTransactionBusy, got %v", err)
	}

	f.settlement.mu.Lock()
	if len(f.settlement.requests) != 0 {
		t.Fatal("contended event reached the settlement engine")
	}
	f.settlement.mu.Unlock()

	// Nothing was recorded, so the provider's redelivery of the same event
	// must settle instead of being swallowed as a duplicate.
	f.svc.(*Service).locker = &stubLocker{}
	result, err := f.svc.IngestConfirmation(ctx, succeededEvent("evt_1", "txn_abc"))
	if err != nil {
		t.Fatalf("redelivery after contention: %v", err)
	}
	if result.Status != domain.ConfirmationStatusSucceeded || result.Settlement == nil {
		t.Fatalf("redelivery did not settle: %+v", result)
	}
}

func TestIngestAcquiresAndReleasesTransactionLock(t *testing.T) {
	f := setup(t)
	f.addSession("txn_abc")
	locker := &stubLocker{}
	f.svc.(*Service).locker = locker

	if _, err := f.svc.IngestConfirmation(context.Background(), succeededEvent("evt_1", "txn_abc")); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	locker.mu.Lock()
	defer locker.mu.Unlock()
	if len(locker.locked) != 1 || locker.locked[0] != "txn_abc" {
		t.Fatalf("lock not taken per transaction: %v", locker.locked)
	}
	if len(locker.released) != 1 || locker.released[0] != "token-txn_abc" {
		t.Fatalf("lock not released with its token: %v", locker.released)
	}
}

func TestIngestProceedsWhenLockStoreDown(t *testing.T) {
	f := setup(t)
	f.addSession("txn_abc")
	f.svc.(*Service).locker = &stubLocker{err: errors.New("connection refused")}

	result, err := f.svc.IngestConfirmation(context.Background(), succeededEvent("evt_1", "txn_abc"))
	if err != nil {
		t.Fatalf("ingest with broken lock store: %v", err)
	}
	if result.Settlement == nil {
		t.Fatal("broken lock store blocked the settlement")
	}
}

func TestIngestSettlementErrorSurfaces(t *testing.T) {
	f := setup(t)
	f.addSession("txn_abc")
	f.settlement.err = settlementdomain.ErrAmountMismatch

	_, err := f.svc.IngestConfirmation(context.Background(), succeededEvent("evt_1", "txn_abc"))
	if !errors.Is(err, settlementdomain.ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}

	f.checkout.mu.Lock()
	defer f.checkout.mu.Unlock()
	if len(f.checkout.settled) != 0 {
		t.Fatal("session marked settled despite settlement error")
	}
}
