package subscription

import (
	"time"

	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
)

// BillingCycle represents one scheduled charge within a subscription's
// payment schedule.
type BillingCycle struct {
	// ID is the unique identifier for the billing cycle
	ID string `db:"id" json:"id"`

	// SubscriptionID is the subscription this cycle belongs to
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// ScheduledDate is the due date of the charge
	ScheduledDate time.Time `db:"scheduled_date" json:"scheduled_date"`

	// AmountCents is the charge amount in integer minor units
	AmountCents int64 `db:"amount_cents" json:"amount_cents"`

	// Currency is the three-letter ISO code of the amount
	Currency string `db:"currency" json:"currency"`

	// InstallmentNumber is the 1-based position of this cycle. It is strictly
	// increasing and unique within a subscription.
	InstallmentNumber int `db:"installment_number" json:"installment_number"`

	// TotalInstallments is the current full length of the schedule. Freeze
	// extensions rewrite this on every cycle of the subscription so the set
	// stays internally consistent.
	TotalInstallments int `db:"total_installments" json:"total_installments"`

	// CycleStatus is the charge state of this installment
	CycleStatus types.BillingCycleStatus `db:"cycle_status" json:"cycle_status"`

	// PaymentID references the payment that settled this cycle, when paid
	PaymentID *string `db:"payment_id" json:"payment_id,omitempty"`

	// PaidAt is when the cycle transitioned to paid
	PaidAt *time.Time `db:"paid_at" json:"paid_at,omitempty"`

	// RetryCount is incremented by the reconciler on failed provider charges
	// and consumed by the dunning scheduler
	RetryCount int `db:"retry_count" json:"retry_count"`

	// UpcomingRemindedAt guards the at-most-once upcoming-payment reminder
	UpcomingRemindedAt *time.Time `db:"upcoming_reminded_at" json:"upcoming_reminded_at,omitempty"`

	// OverdueRemindedAt guards the at-most-once-per-day overdue reminder
	OverdueRemindedAt *time.Time `db:"overdue_reminded_at" json:"overdue_reminded_at,omitempty"`

	types.BaseModel
}

// Validate validates the billing cycle
func (c *BillingCycle) Validate() error {
	if c.SubscriptionID == "" {
		return ierr.NewError("subscription id is required").
			WithHint("Subscription is required").
			Mark(ierr.ErrValidation)
	}
	if c.AmountCents < 0 {
		return ierr.NewError("invalid cycle amount").
			WithHint("Cycle amount must not be negative").
			Mark(ierr.ErrValidation)
	}
	if c.InstallmentNumber <= 0 {
		return ierr.NewError("invalid installment number").
			WithHint("Installment number must be positive").
			Mark(ierr.ErrValidation)
	}
	if c.ScheduledDate.IsZero() {
		return ierr.NewError("scheduled date is required").
			WithHint("Scheduled date is required").
			Mark(ierr.ErrValidation)
	}
	return c.CycleStatus.Validate()
}

// IsChargeable reports whether a charge may still be attempted for the cycle
func (c *BillingCycle) IsChargeable() bool {
	return c.CycleStatus == types.BillingCycleStatusPending ||
		c.CycleStatus == types.BillingCycleStatusOverdue
}

// TableName returns the table name for the billing cycle
func (c *BillingCycle) TableName() string {
	return "billing_cycles"
}
