package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/constructia/billing/internal/catalog/domain"
	kpidomain "github.com/constructia/billing/internal/kpi/domain"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type packageSeed struct {
	Name        string
	Tokens      int64
	BonusTokens int64
	StorageGB   float64
	PriceCents  int64
}

var defaultPackages = []packageSeed{
	{Name: "Paquete Básico", Tokens: 1000, BonusTokens: 0, StorageGB: 1, PriceCents: 1500},
	{Name: "Paquete Estándar", Tokens: 2500, BonusTokens: 350, StorageGB: 5, PriceCents: 3500},
	{Name: "Paquete Profesional", Tokens: 6000, BonusTokens: 1200, StorageGB: 15, PriceCents: 7500},
	{Name: "Paquete Empresarial", Tokens: 15000, BonusTokens: 4000, StorageGB: 50, PriceCents: 16000},
}

// EnsureDefaultPackages seeds the standard catalog and the KPI row so a
// fresh install can sell something immediately. Existing rows are left alone.
func EnsureDefaultPackages(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, seed := range defaultPackages {
			if err := ensurePackageTx(ctx, tx, node, seed); err != nil {
				return err
			}
		}
		return ensureKPISnapshotTx(ctx, tx)
	})
}

func ensurePackageTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, seed packageSeed) error {
	pkgSlug := slug.Make(seed.Name)

	var existing catalogdomain.TokenPackage
	err := tx.WithContext(ctx).Where("slug = ?", pkgSlug).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	return tx.WithContext(ctx).Create(&catalogdomain.TokenPackage{
		ID:          node.Generate(),
		Name:        seed.Name,
		Slug:        pkgSlug,
		Tokens:      seed.Tokens,
		BonusTokens: seed.BonusTokens,
		StorageGB:   seed.StorageGB,
		PriceCents:  seed.PriceCents,
		Currency:    "EUR",
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error
}

func ensureKPISnapshotTx(ctx context.Context, tx *gorm.DB) error {
	var existing kpidomain.Snapshot
	err := tx.WithContext(ctx).Where("id = ?", kpidomain.SnapshotRowID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.WithContext(ctx).Create(&kpidomain.Snapshot{
		ID:        kpidomain.SnapshotRowID,
		UpdatedAt: time.Now().UTC(),
	}).Error
}
