package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for the billing engine. Handlers map these to HTTP status
// codes; services mark every returned error with exactly one of them.
var (
	ErrNotFound              = newSentinel(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists         = newSentinel(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation            = newSentinel(ErrCodeValidation, "validation error")
	ErrInvalidOperation      = newSentinel(ErrCodeInvalidOperation, "invalid operation")
	ErrStateConflict         = newSentinel(ErrCodeStateConflict, "state conflict")
	ErrTenantNotPayable      = newSentinel(ErrCodeTenantNotPayable, "tenant cannot accept charges")
	ErrPaymentMethodRequired = newSentinel(ErrCodePaymentMethodRequired, "no payment method on file")
	ErrProviderTransient     = newSentinel(ErrCodeProviderTransient, "payment provider unavailable")
	ErrProviderAuthRequired  = newSentinel(ErrCodeProviderAuthRequired, "additional authentication required")
	ErrInvalidSignature      = newSentinel(ErrCodeInvalidSignature, "invalid webhook signature")
	ErrPermissionDenied      = newSentinel(ErrCodePermissionDenied, "permission denied")
	ErrHTTPClient            = newSentinel(ErrCodeHTTPClient, "http client error")
	ErrDatabase              = newSentinel(ErrCodeDatabase, "database error")
	ErrSystem                = newSentinel(ErrCodeSystemError, "system error")

	statusCodeMap = map[error]int{
		ErrNotFound:              http.StatusNotFound,
		ErrAlreadyExists:         http.StatusConflict,
		ErrValidation:            http.StatusBadRequest,
		ErrInvalidOperation:      http.StatusBadRequest,
		ErrStateConflict:         http.StatusConflict,
		ErrTenantNotPayable:      http.StatusUnprocessableEntity,
		ErrPaymentMethodRequired: http.StatusUnprocessableEntity,
		ErrProviderTransient:     http.StatusBadGateway,
		ErrProviderAuthRequired:  http.StatusPaymentRequired,
		ErrInvalidSignature:      http.StatusBadRequest,
		ErrPermissionDenied:      http.StatusForbidden,
		ErrHTTPClient:            http.StatusInternalServerError,
		ErrDatabase:              http.StatusInternalServerError,
		ErrSystem:                http.StatusInternalServerError,
	}
)

const (
	ErrCodeNotFound              = "not_found"
	ErrCodeAlreadyExists         = "already_exists"
	ErrCodeValidation            = "validation_error"
	ErrCodeInvalidOperation      = "invalid_operation"
	ErrCodeStateConflict         = "state_conflict"
	ErrCodeTenantNotPayable      = "tenant_not_payable"
	ErrCodePaymentMethodRequired = "payment_method_required"
	ErrCodeProviderTransient     = "provider_transient_error"
	ErrCodeProviderAuthRequired  = "provider_auth_required"
	ErrCodeInvalidSignature      = "invalid_signature"
	ErrCodePermissionDenied      = "permission_denied"
	ErrCodeHTTPClient            = "http_client_error"
	ErrCodeDatabase              = "database_error"
	ErrCodeSystemError           = "system_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// New creates a new InternalError with the given code and message
func New(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func newSentinel(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsStateConflict checks if an error is a state conflict error
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrStateConflict)
}

// IsTenantNotPayable checks if an error means the tenant cannot originate charges
func IsTenantNotPayable(err error) bool {
	return errors.Is(err, ErrTenantNotPayable)
}

// IsPaymentMethodRequired checks if an error means no stored payment method exists
func IsPaymentMethodRequired(err error) bool {
	return errors.Is(err, ErrPaymentMethodRequired)
}

// IsProviderTransient checks if an error is a retryable provider failure
func IsProviderTransient(err error) bool {
	return errors.Is(err, ErrProviderTransient)
}

// IsProviderAuthRequired checks if the provider demanded additional authentication
func IsProviderAuthRequired(err error) bool {
	return errors.Is(err, ErrProviderAuthRequired)
}

// IsPermissionDenied checks if an error is a permission denied error
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsInvalidSignature checks if an inbound event failed signature verification
func IsInvalidSignature(err error) bool {
	return errors.Is(err, ErrInvalidSignature)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
