package payment

import (
	"time"

	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
)

// Payment is the immutable audit record of one charge attempt against a
// billing cycle or an ad hoc invoice.
type Payment struct {
	// Unique identifier for this payment transaction
	ID string `json:"id" db:"id"`
	// Unique key used to prevent duplicate payment processing. Recorded
	// before the provider round trip so a retried request cannot double-charge.
	IdempotencyKey string `json:"idempotency_key" db:"idempotency_key"`
	// The destination_type indicates what this payment settles (billing cycle or ad hoc)
	DestinationType types.PaymentDestinationType `json:"destination_type" db:"destination_type"`
	// The destination_id is the billing cycle being settled, empty for ad hoc charges
	DestinationID string `json:"destination_id" db:"destination_id"`
	// The contact_id is the student being charged
	ContactID string `json:"contact_id" db:"contact_id"`
	// The subscription_id links installment payments back to their subscription
	SubscriptionID *string `json:"subscription_id,omitempty" db:"subscription_id"`
	// The charge_shape records how the charge was executed (one-time, provider recurring, installment)
	ChargeShape types.ChargeShape `json:"charge_shape" db:"charge_shape"`
	// The payment_method_id identifies which stored method was used, when any
	PaymentMethodID *string `json:"payment_method_id,omitempty" db:"payment_method_id"`
	// The payment_method_type defines how the payment was processed
	PaymentMethodType types.PaymentMethodType `json:"payment_method_type" db:"payment_method_type"`
	// The gateway_payment_id is the provider's charge/payment-intent identifier.
	// It is the idempotency key for reconciliation: one provider charge maps to
	// at most one payment row.
	GatewayPaymentID *string `json:"gateway_payment_id,omitempty" db:"gateway_payment_id"`
	// The amount_cents field specifies the payment value in integer minor units
	AmountCents int64 `json:"amount_cents" db:"amount_cents"`
	// The currency field uses a three-letter ISO code
	Currency string `json:"currency" db:"currency"`
	// The payment_status shows the current state of this payment
	PaymentStatus types.PaymentStatus `json:"payment_status" db:"payment_status"`
	// The description is the human-readable reason for the charge
	Description string `json:"description,omitempty" db:"description"`
	// The receipt_number is the short human-facing reference for succeeded payments
	ReceiptNumber *string `json:"receipt_number,omitempty" db:"receipt_number"`
	// The track_attempts flag indicates whether processing attempts are recorded
	TrackAttempts bool `json:"track_attempts" db:"track_attempts"`
	// The succeeded_at timestamp shows when this payment completed
	SucceededAt *time.Time `json:"succeeded_at,omitempty" db:"succeeded_at"`
	// The failed_at timestamp indicates when this payment failed
	FailedAt *time.Time `json:"failed_at,omitempty" db:"failed_at"`
	// The error_message field provides the provider's failure reason, when supplied
	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`
	// The metadata field contains additional custom key-value pairs
	Metadata types.Metadata `json:"metadata,omitempty" db:"metadata"`
	// The attempts array contains all processing attempts made for this payment
	Attempts []*PaymentAttempt `json:"attempts,omitempty" db:"-"`

	types.BaseModel
}

// PaymentAttempt represents one attempt to process a payment
type PaymentAttempt struct {
	// Unique identifier for this specific payment attempt
	ID string `json:"id" db:"id"`
	// The payment_id links this attempt to its parent payment transaction
	PaymentID string `json:"payment_id" db:"payment_id"`
	// The attempt_number shows the sequential order of this processing attempt
	AttemptNumber int `json:"attempt_number" db:"attempt_number"`
	// The payment_status indicates the outcome of this specific attempt
	PaymentStatus types.PaymentStatus `json:"payment_status" db:"payment_status"`
	// The error_message field explains why this particular attempt failed
	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`

	types.BaseModel
}

// Validate validates the payment
func (p *Payment) Validate() error {
	if p.AmountCents <= 0 {
		return ierr.NewError("invalid amount").
			WithHint("Amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if err := p.DestinationType.Validate(); err != nil {
		return err
	}
	if p.DestinationType == types.PaymentDestinationTypeBillingCycle && p.DestinationID == "" {
		return ierr.NewError("invalid destination id").
			WithHint("Billing cycle is required for cycle payments").
			Mark(ierr.ErrValidation)
	}
	if p.ContactID == "" {
		return ierr.NewError("invalid contact id").
			WithHint("Contact is required").
			Mark(ierr.ErrValidation)
	}
	if p.Currency == "" {
		return ierr.NewError("invalid currency").
			WithHint("Currency is required").
			Mark(ierr.ErrValidation)
	}
	if err := p.ChargeShape.Validate(); err != nil {
		return err
	}
	if err := p.PaymentMethodType.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate validates the payment attempt
func (pa *PaymentAttempt) Validate() error {
	if pa.PaymentID == "" {
		return ierr.NewError("invalid payment id").
			WithHint("Payment id is invalid").
			Mark(ierr.ErrValidation)
	}
	if pa.AttemptNumber <= 0 {
		return ierr.NewError("invalid attempt number").
			WithHint("Attempt number is invalid").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TableName returns the table name for the payment
func (p *Payment) TableName() string {
	return "payments"
}

// TableName returns the table name for the payment attempt
func (pa *PaymentAttempt) TableName() string {
	return "payment_attempts"
}
