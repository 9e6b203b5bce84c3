package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type StartCheckoutRequest struct {
	Email         string
	CompanyName   string
	ClientID      snowflake.ID
	PackageSlug   string
	PaymentMethod string
}

type Service interface {
	// StartCheckout resolves the client (registering by email when no ID is
	// given), freezes the package terms and mints the transaction ID the
	// payment processor must echo back.
	StartCheckout(ctx context.Context, req StartCheckoutRequest) (*CheckoutSession, error)
	GetSession(ctx context.Context, transactionID string) (*CheckoutSession, error)
	// MarkSettled and MarkFailed transition a pending session after the
	// corresponding payment confirmation lands.
	MarkSettled(ctx context.Context, transactionID string) error
	MarkFailed(ctx context.Context, transactionID string) error
}

var (
	ErrSessionNotFound = errors.New("checkout_session_not_found")
	ErrInvalidMethod   = errors.New("invalid_payment_method")
	ErrInvalidSlug     = errors.New("invalid_package_slug")
	ErrInvalidIdentity = errors.New("invalid_client_identity")
	// ErrMandateRequired: SEPA direct debit needs an active signed mandate
	// before a session can open.
	ErrMandateRequired = errors.New("sepa_mandate_required")
)
