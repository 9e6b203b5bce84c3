package repository

import (
	"context"
	"errors"
	"time"

	"github.com/constructia/billing/internal/kpi/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// ApplyDelta upserts the singleton row with additive increments in one
// statement, so concurrent settlements cannot lose updates.
func (r *repo) ApplyDelta(ctx context.Context, db *gorm.DB, delta domain.Delta, at time.Time) error {
	if delta.IsZero() {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO kpi_snapshots (
			id, revenue_generated_cents, tokens_sold_total, storage_used_gb, receipts_issued_total, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			revenue_generated_cents = kpi_snapshots.revenue_generated_cents + excluded.revenue_generated_cents,
			tokens_sold_total = kpi_snapshots.tokens_sold_total + excluded.tokens_sold_total,
			storage_used_gb = kpi_snapshots.storage_used_gb + excluded.storage_used_gb,
			receipts_issued_total = kpi_snapshots.receipts_issued_total + excluded.receipts_issued_total,
			updated_at = excluded.updated_at`,
		domain.SnapshotRowID,
		delta.RevenueCents,
		delta.Tokens,
		delta.StorageGB,
		delta.Receipts,
		at.UTC(),
	).Error
}

func (r *repo) Get(ctx context.Context, db *gorm.DB) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	err := db.WithContext(ctx).First(&snapshot, "id = ?", domain.SnapshotRowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.Snapshot{ID: domain.SnapshotRowID}, nil
		}
		return nil, err
	}
	return &snapshot, nil
}
