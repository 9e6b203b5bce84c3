package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/constructia/billing/internal/activity/domain"
	"github.com/constructia/billing/internal/clock"
	"github.com/constructia/billing/internal/config"
	"github.com/constructia/billing/internal/mandate/domain"
	"github.com/constructia/billing/internal/mandate/repository"
	pkgdb "github.com/constructia/billing/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

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

func setup(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, *stubActivity) {
	t.Helper()

	conn, err := pkgdb.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&domain.SEPAMandate{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	activity := &stubActivity{}
	svc := NewService(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)),
		Policy:      config.NewStaticBillingPolicyHolder(config.DefaultBillingPolicy()),
		Repo:        repository.Provide(),
		ActivitySvc: activity,
	})
	return svc, conn, node, activity
}

func signature() domain.SignatureProof {
	raster := make([]byte, 256)
	for i := 0; i < 40; i++ {
		raster[i*3] = 0xFF
	}
	return domain.SignatureProof{Raster: raster, Device: "tablet-obra-3"}
}

func validRequest(clientID snowflake.ID) domain.CreateMandateRequest {
	return domain.CreateMandateRequest{
		ClientID:   clientID,
		DebtorName: "Construcciones Pérez S.L.",
		DebtorIBAN: "ES91 2100 0418 4502 0005 1332",
		DebtorBIC:  "CAIXESBBXXX",
		Signature:  signature(),
	}
}

func TestCreateMandate(t *testing.T) {
	svc, _, node, activity := setup(t)
	clientID := node.Generate()

	mandate, err := svc.CreateMandate(context.Background(), validRequest(clientID))
	if err != nil {
		t.Fatalf("create mandate: %v", err)
	}

	if !strings.HasPrefix(mandate.MandateReference, "CIA-") {
		t.Fatalf("unexpected reference format: %s", mandate.MandateReference)
	}
	if mandate.DebtorIBAN != "ES9121000418450200051332" {
		t.Fatalf("IBAN not normalized: %s", mandate.DebtorIBAN)
	}
	if mandate.Status != domain.MandateStatusActive {
		t.Fatalf("expected active status, got %s", mandate.Status)
	}
	if mandate.CreditorName != "ConstructIA S.L." {
		t.Fatalf("creditor not taken from policy: %s", mandate.CreditorName)
	}
	if mandate.SignaturePixels != 40 {
		t.Fatalf("expected 40 marked pixels, got %d", mandate.SignaturePixels)
	}
	if len(mandate.SignatureHash) != 64 {
		t.Fatalf("expected hex sha256 hash, got %q", mandate.SignatureHash)
	}

	activity.mu.Lock()
	defer activity.mu.Unlock()
	if len(activity.calls) != 1 || activity.calls[0] != activitydomain.TypeMandateSigned {
		t.Fatalf("unexpected activity calls: %v", activity.calls)
	}
}

func TestCreateMandateRejectsEmptySignature(t *testing.T) {
	svc, _, node, _ := setup(t)

	req := validRequest(node.Generate())
	req.Signature.Raster = make([]byte, 256) // all blank

	_, err := svc.CreateMandate(context.Background(), req)
	if !errors.Is(err, domain.ErrEmptySignature) {
		t.Fatalf("expected ErrEmptySignature, got %v", err)
	}
}

func TestCreateMandateValidation(t *testing.T) {
	svc, _, node, _ := setup(t)
	clientID := node.Generate()

	cases := []struct {
		name    string
		mutate  func(*domain.CreateMandateRequest)
		wantErr error
	}{
		{"zero client", func(r *domain.CreateMandateRequest) { r.ClientID = 0 }, domain.ErrInvalidClient},
		{"blank debtor", func(r *domain.CreateMandateRequest) { r.DebtorName = "  " }, domain.ErrInvalidDebtor},
		{"bad iban", func(r *domain.CreateMandateRequest) { r.DebtorIBAN = "ES9121000418450200051333" }, domain.ErrInvalidIBAN},
		{"bad bic", func(r *domain.CreateMandateRequest) { r.DebtorBIC = "NOPE" }, domain.ErrInvalidBIC},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest(clientID)
			tc.mutate(&req)
			_, err := svc.CreateMandate(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestGetActiveMandateReturnsLatest(t *testing.T) {
	svc, _, node, _ := setup(t)
	clientID := node.Generate()
	ctx := context.Background()

	none, err := svc.GetActiveMandate(ctx, clientID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if none != nil {
		t.Fatal("expected no mandate yet")
	}

	first, err := svc.CreateMandate(ctx, validRequest(clientID))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}

	second := validRequest(clientID)
	second.Signature.CapturedAt = first.SignedAt.Add(time.Hour)
	latest, err := svc.CreateMandate(ctx, second)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	active, err := svc.GetActiveMandate(ctx, clientID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active == nil || active.MandateReference != latest.MandateReference {
		t.Fatalf("expected latest mandate %s, got %+v", latest.MandateReference, active)
	}
}

func TestRevokeMandate(t *testing.T) {
	svc, conn, node, activity := setup(t)
	clientID := node.Generate()
	ctx := context.Background()

	mandate, err := svc.CreateMandate(ctx, validRequest(clientID))
	if err != nil {
		t.Fatalf("create mandate: %v", err)
	}

	if err := svc.RevokeMandate(ctx, clientID, mandate.MandateReference); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	var stored domain.SEPAMandate
	if err := conn.First(&stored, "id = ?", mandate.ID).Error; err != nil {
		t.Fatalf("reload mandate: %v", err)
	}
	if stored.Status != domain.MandateStatusRevoked {
		t.Fatalf("expected revoked status, got %s", stored.Status)
	}
	if stored.RevokedAt == nil {
		t.Fatal("revoked_at not set")
	}

	// Revoked mandates are no longer reusable.
	active, err := svc.GetActiveMandate(ctx, clientID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active != nil {
		t.Fatalf("revoked mandate still active: %+v", active)
	}

	// A second revoke is an error, not a silent no-op.
	if err := svc.RevokeMandate(ctx, clientID, mandate.MandateReference); !errors.Is(err, domain.ErrMandateRevoked) {
		t.Fatalf("expected ErrMandateRevoked, got %v", err)
	}

	activity.mu.Lock()
	defer activity.mu.Unlock()
	if len(activity.calls) != 2 || activity.calls[1] != activitydomain.TypeMandateRevoked {
		t.Fatalf("unexpected activity calls: %v", activity.calls)
	}
}

func TestRevokeMandateWrongClient(t *testing.T) {
	svc, _, node, _ := setup(t)
	ctx := context.Background()

	mandate, err := svc.CreateMandate(ctx, validRequest(node.Generate()))
	if err != nil {
		t.Fatalf("create mandate: %v", err)
	}

	err = svc.RevokeMandate(ctx, node.Generate(), mandate.MandateReference)
	if !errors.Is(err, domain.ErrMandateNotFound) {
		t.Fatalf("expected ErrMandateNotFound, got %v", err)
	}
}

func TestSignatureRasterNotPersisted(t *testing.T) {
	svc, conn, node, _ := setup(t)

	mandate, err := svc.CreateMandate(context.Background(), validRequest(node.Generate()))
	if err != nil {
		t.Fatalf("create mandate: %v", err)
	}

	var stored domain.SEPAMandate
	if err := conn.First(&stored, "id = ?", mandate.ID).Error; err != nil {
		t.Fatalf("reload mandate: %v", err)
	}
	if stored.SignatureHash == "" || stored.SignaturePixels == 0 {
		t.Fatalf("derived signature metadata missing: %+v", stored)
	}
}
