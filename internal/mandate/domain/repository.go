package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, mandate *SEPAMandate) error
	FindLatestActive(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (*SEPAMandate, error)
	FindByReference(ctx context.Context, db *gorm.DB, reference string) (*SEPAMandate, error)
	Revoke(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error)
}
