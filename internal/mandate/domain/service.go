package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateMandateRequest struct {
	ClientID   snowflake.ID
	DebtorName string
	DebtorIBAN string
	DebtorBIC  string
	Signature  SignatureProof
}

type Service interface {
	// GetActiveMandate returns the most recently signed active mandate for
	// the client, or nil when none exists. Settlements reuse it instead of
	// asking for a new authorization.
	GetActiveMandate(ctx context.Context, clientID snowflake.ID) (*SEPAMandate, error)
	CreateMandate(ctx context.Context, req CreateMandateRequest) (*SEPAMandate, error)
	RevokeMandate(ctx context.Context, clientID snowflake.ID, mandateReference string) error
}

var (
	ErrInvalidClient    = errors.New("invalid_client")
	ErrInvalidIBAN      = errors.New("invalid_iban")
	ErrInvalidBIC       = errors.New("invalid_bic")
	ErrInvalidDebtor    = errors.New("invalid_debtor_name")
	ErrEmptySignature   = errors.New("empty_signature")
	ErrMandateNotFound  = errors.New("mandate_not_found")
	ErrMandateRevoked   = errors.New("mandate_revoked")
	ErrInvalidReference = errors.New("invalid_mandate_reference")
)
