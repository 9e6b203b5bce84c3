package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/constructia/billing/internal/catalog/domain"
	"github.com/constructia/billing/internal/catalog/repository"
	pkgdb "github.com/constructia/billing/pkg/db"
	"go.uber.org/zap"
)

func setup(t *testing.T) domain.Service {
	t.Helper()

	conn, err := pkgdb.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&domain.TokenPackage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	return NewService(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestCreatePackage(t *testing.T) {
	svc := setup(t)

	pkg, err := svc.Create(context.Background(), domain.CreatePackageRequest{
		Name:        "Paquete Estándar",
		Tokens:      2500,
		BonusTokens: 350,
		StorageGB:   5,
		PriceCents:  3500,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if pkg.Slug != "paquete-estandar" {
		t.Fatalf("unexpected slug: %s", pkg.Slug)
	}
	if pkg.Currency != "EUR" {
		t.Fatalf("expected EUR default, got %s", pkg.Currency)
	}
	if !pkg.Active {
		t.Fatal("new package not active")
	}
	if pkg.TotalTokens() != 2850 {
		t.Fatalf("expected 2850 total tokens, got %d", pkg.TotalTokens())
	}
}

func TestCreatePackageDuplicateSlug(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	req := domain.CreatePackageRequest{Name: "Paquete Básico", Tokens: 1000, PriceCents: 1500}
	if _, err := svc.Create(ctx, req); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, req); !errors.Is(err, domain.ErrDuplicateSlug) {
		t.Fatalf("expected ErrDuplicateSlug, got %v", err)
	}
}

func TestCreatePackageValidation(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		req     domain.CreatePackageRequest
		wantErr error
	}{
		{"blank name", domain.CreatePackageRequest{Name: " ", Tokens: 100, PriceCents: 100}, domain.ErrInvalidName},
		{"zero tokens", domain.CreatePackageRequest{Name: "X", Tokens: 0, PriceCents: 100}, domain.ErrInvalidTokens},
		{"negative bonus", domain.CreatePackageRequest{Name: "X", Tokens: 100, BonusTokens: -1, PriceCents: 100}, domain.ErrInvalidTokens},
		{"zero price", domain.CreatePackageRequest{Name: "X", Tokens: 100, PriceCents: 0}, domain.ErrInvalidPrice},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.req); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestUpdatePackage(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	pkg, err := svc.Create(ctx, domain.CreatePackageRequest{Name: "Paquete Profesional", Tokens: 6000, PriceCents: 7500})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newPrice := int64(7900)
	retired := false
	updated, err := svc.Update(ctx, domain.UpdatePackageRequest{ID: pkg.ID, PriceCents: &newPrice, Active: &retired})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PriceCents != 7900 {
		t.Fatalf("price not updated: %d", updated.PriceCents)
	}
	if updated.Active {
		t.Fatal("package not retired")
	}
	if updated.Slug != pkg.Slug {
		t.Fatalf("update changed the slug: %s", updated.Slug)
	}

	badPrice := int64(0)
	if _, err := svc.Update(ctx, domain.UpdatePackageRequest{ID: pkg.ID, PriceCents: &badPrice}); !errors.Is(err, domain.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := svc.Update(ctx, domain.UpdatePackageRequest{ID: snowflake.ID(99)}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListActiveOnly(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	active, err := svc.Create(ctx, domain.CreatePackageRequest{Name: "Activo", Tokens: 100, PriceCents: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	retiredPkg, err := svc.Create(ctx, domain.CreatePackageRequest{Name: "Retirado", Tokens: 100, PriceCents: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	off := false
	if _, err := svc.Update(ctx, domain.UpdatePackageRequest{ID: retiredPkg.ID, Active: &off}); err != nil {
		t.Fatalf("retire: %v", err)
	}

	onlyActive, err := svc.List(ctx, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(onlyActive) != 1 || onlyActive[0].ID != active.ID {
		t.Fatalf("unexpected active list: %+v", onlyActive)
	}

	all, err := svc.List(ctx, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 packages, got %d", len(all))
	}
}

func TestGetBySlug(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	pkg, err := svc.Create(ctx, domain.CreatePackageRequest{Name: "Paquete Empresarial", Tokens: 15000, PriceCents: 16000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := svc.GetBySlug(ctx, "paquete-empresarial")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if found.ID != pkg.ID {
		t.Fatalf("wrong package: %+v", found)
	}

	if _, err := svc.GetBySlug(ctx, "no-such-package"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetBySlug(ctx, "  "); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}
