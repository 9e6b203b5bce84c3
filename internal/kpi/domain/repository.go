package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// ApplyDelta performs a single atomic in-place increment. It must never
	// be implemented as read-then-write across two statements.
	ApplyDelta(ctx context.Context, db *gorm.DB, delta Delta, at time.Time) error
	Get(ctx context.Context, db *gorm.DB) (*Snapshot, error)
}

type Service interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}
