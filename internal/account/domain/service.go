package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type RegisterAccountRequest struct {
	Email       string
	CompanyName string
}

type Service interface {
	// Register creates the account or returns the existing one for the email.
	Register(ctx context.Context, req RegisterAccountRequest) (*ClientAccount, error)
	GetByID(ctx context.Context, id snowflake.ID) (*ClientAccount, error)
}

var (
	ErrNotFound     = errors.New("account_not_found")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_account_id")
)
