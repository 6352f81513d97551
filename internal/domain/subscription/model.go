package subscription

import (
	"time"

	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/shopspring/decimal"
)

// Subscription represents one membership enrollment. It owns an ordered
// sequence of billing cycles and any freezes applied to it.
type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// ContactID is the student this membership belongs to
	ContactID string `db:"contact_id" json:"contact_id"`

	// PlanID is the membership plan this subscription was created from
	PlanID string `db:"plan_id" json:"plan_id"`

	// SubscriptionStatus is the lifecycle state of the subscription
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// Currency is the currency of the subscription in 3 letter ISO codes
	Currency string `db:"currency" json:"currency"`

	// StartDate anchors the billing schedule
	StartDate time.Time `db:"start_date" json:"start_date"`

	// CycleLengthMonths is copied from the plan at enrollment so later plan
	// edits never rewrite an existing schedule
	CycleLengthMonths int `db:"cycle_length_months" json:"cycle_length_months"`

	// FixedTerm reports whether this engine owns a finite installment schedule
	FixedTerm bool `db:"fixed_term" json:"fixed_term"`

	// AutoRenewal controls whether a new term is generated when the last
	// installment is paid
	AutoRenewal bool `db:"auto_renewal" json:"auto_renewal"`

	// RenewalDiscountPercentage is applied to renewal-term cycles
	RenewalDiscountPercentage decimal.Decimal `db:"renewal_discount_percentage" json:"renewal_discount_percentage"`

	// ProviderSubscriptionID is set when the payment provider owns the
	// recurring schedule instead of this engine
	ProviderSubscriptionID *string `db:"provider_subscription_id" json:"provider_subscription_id,omitempty"`

	// CancelledAt is when the subscription was cancelled (terminal)
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`

	Metadata types.Metadata `db:"metadata" json:"metadata,omitempty"`

	types.BaseModel
}

// Validate validates the subscription
func (s *Subscription) Validate() error {
	if s.ContactID == "" {
		return ierr.NewError("contact id is required").
			WithHint("Contact is required").
			Mark(ierr.ErrValidation)
	}
	if s.PlanID == "" {
		return ierr.NewError("plan id is required").
			WithHint("Plan is required").
			Mark(ierr.ErrValidation)
	}
	if s.StartDate.IsZero() {
		return ierr.NewError("start date is required").
			WithHint("Start date is required").
			Mark(ierr.ErrValidation)
	}
	if s.CycleLengthMonths <= 0 {
		return ierr.NewError("invalid cycle length").
			WithHint("Cycle length must be at least one month").
			Mark(ierr.ErrValidation)
	}
	return s.SubscriptionStatus.Validate()
}

// IsCancelled reports whether the subscription has reached its terminal state
func (s *Subscription) IsCancelled() bool {
	return s.SubscriptionStatus == types.SubscriptionStatusCancelled
}

// TableName returns the table name for the subscription
func (s *Subscription) TableName() string {
	return "subscriptions"
}
