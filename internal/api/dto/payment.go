package dto

import (
	"github.com/dojoflow/dojoflow/internal/domain/payment"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/dojoflow/dojoflow/internal/validator"
)

// ChargeRequest represents the request to execute a charge. A billing cycle
// id makes it an installment charge against that cycle; without one it is an
// ad hoc charge against the contact's default stored method.
type ChargeRequest struct {
	ContactID      string  `json:"contact_id" validate:"required"`
	AmountCents    int64   `json:"amount_cents" validate:"omitempty,gt=0"`
	Description    string  `json:"description,omitempty"`
	BillingCycleID *string `json:"billing_cycle_id,omitempty"`
	// IdempotencyKey scopes ad hoc replay detection. Retries of the same
	// logical charge should carry the same key; two distinct charges for the
	// same contact and amount should carry different ones.
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	Metadata       types.Metadata `json:"metadata,omitempty"`
}

func (r *ChargeRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ChargeResponse represents the synchronous outcome of a charge attempt
type ChargeResponse struct {
	Status    types.PaymentStatus `json:"status"`
	PaymentID string              `json:"payment_id,omitempty"`
	// ErrorMessage carries the provider's failure reason for failed charges
	ErrorMessage string `json:"error_message,omitempty"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	*payment.Payment
}

// NewPaymentResponse creates a new payment response
func NewPaymentResponse(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{Payment: p}
}

// ListPaymentsResponse represents a paginated list of payments
type ListPaymentsResponse struct {
	Items []*PaymentResponse `json:"items"`
	Total int                `json:"total"`
}
