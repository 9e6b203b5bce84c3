package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods take the database handle so callers can compose them
// inside a single transaction boundary.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *ClientAccount) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ClientAccount, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*ClientAccount, error)
	// CreditBalance applies an atomic in-place increment. It never reads
	// the row first; the store performs the addition.
	CreditBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, credit BalanceCredit, at time.Time) (bool, error)
}
