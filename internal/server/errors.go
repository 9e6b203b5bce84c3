package server

import (
	"errors"
	"net/http"
	"strings"

	accountdomain "github.com/constructia/billing/internal/account/domain"
	activitydomain "github.com/constructia/billing/internal/activity/domain"
	catalogdomain "github.com/constructia/billing/internal/catalog/domain"
	checkoutdomain "github.com/constructia/billing/internal/checkout/domain"
	mandatedomain "github.com/constructia/billing/internal/mandate/domain"
	paymentdomain "github.com/constructia/billing/internal/payment/domain"
	receiptdomain "github.com/constructia/billing/internal/receipt/domain"
	settlementdomain "github.com/constructia/billing/internal/settlement/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrTooManyReqs    = errors.New("too_many_requests")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, settlementdomain.ErrConflict),
		errors.Is(err, catalogdomain.ErrDuplicateSlug),
		errors.Is(err, paymentdomain.ErrEventAlreadyHandled):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case errors.Is(err, settlementdomain.ErrAmountMismatch):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "amount_mismatch",
			Message: "confirmed amount does not match the expected price",
		}
	case errors.Is(err, checkoutdomain.ErrMandateRequired):
		return http.StatusPreconditionFailed, errorPayload{
			Type:    "sepa_mandate_required",
			Message: "an active SEPA mandate is required for direct debit",
		}
	case errors.Is(err, paymentdomain.ErrTransactionBusy):
		// Non-2xx so the provider redelivers once the other worker is done.
		return http.StatusConflict, errorPayload{
			Type:    "transaction_in_progress",
			Message: "another confirmation for this transaction is being processed",
		}
	case errors.Is(err, ErrTooManyReqs):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "rate limit exceeded",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, accountdomain.ErrInvalidEmail),
		errors.Is(err, accountdomain.ErrInvalidID),
		errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrInvalidTokens),
		errors.Is(err, catalogdomain.ErrInvalidPrice),
		errors.Is(err, catalogdomain.ErrInvalidID),
		errors.Is(err, catalogdomain.ErrPackageRetired),
		errors.Is(err, checkoutdomain.ErrInvalidMethod),
		errors.Is(err, checkoutdomain.ErrInvalidSlug),
		errors.Is(err, checkoutdomain.ErrInvalidIdentity),
		errors.Is(err, mandatedomain.ErrInvalidClient),
		errors.Is(err, mandatedomain.ErrInvalidIBAN),
		errors.Is(err, mandatedomain.ErrInvalidBIC),
		errors.Is(err, mandatedomain.ErrInvalidDebtor),
		errors.Is(err, mandatedomain.ErrEmptySignature),
		errors.Is(err, mandatedomain.ErrInvalidReference),
		errors.Is(err, mandatedomain.ErrMandateRevoked),
		errors.Is(err, settlementdomain.ErrInvalidTransactionID),
		errors.Is(err, settlementdomain.ErrInvalidClient),
		errors.Is(err, settlementdomain.ErrInvalidPackage),
		errors.Is(err, settlementdomain.ErrInvalidMethod),
		errors.Is(err, paymentdomain.ErrInvalidProvider),
		errors.Is(err, paymentdomain.ErrInvalidEventID),
		errors.Is(err, paymentdomain.ErrInvalidStatus),
		errors.Is(err, paymentdomain.ErrInvalidTransactionID),
		errors.Is(err, receiptdomain.ErrInvalidTransactionID),
		errors.Is(err, activitydomain.ErrInvalidClient),
		errors.Is(err, activitydomain.ErrInvalidType),
		errors.Is(err, activitydomain.ErrInvalidPageToken),
		errors.Is(err, activitydomain.ErrInvalidTimeRange):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, accountdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, checkoutdomain.ErrSessionNotFound),
		errors.Is(err, mandatedomain.ErrMandateNotFound),
		errors.Is(err, settlementdomain.ErrClientNotFound),
		errors.Is(err, paymentdomain.ErrUnknownTransaction),
		errors.Is(err, receiptdomain.ErrPurchaseNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if code == "invalid_request" {
		return "request"
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
