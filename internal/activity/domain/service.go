package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/constructia/billing/pkg/db/pagination"
)

type ListActivityRequest struct {
	pagination.Pagination
	ClientID     snowflake.ID
	ActivityType string
	StartAt      *time.Time
	EndAt        *time.Time
}

type ListActivityResponse struct {
	pagination.PageInfo
	Activities []ActivityLog `json:"activities"`
}

type Service interface {
	Log(ctx context.Context, clientID snowflake.ID, activityType, description string, metadata map[string]any) error
	List(ctx context.Context, req ListActivityRequest) (ListActivityResponse, error)
}

var (
	ErrInvalidClient    = errors.New("invalid_client")
	ErrInvalidType      = errors.New("invalid_activity_type")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
