package subscription

import (
	"time"

	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
)

// Freeze represents a temporary suspension window on a subscription. A closed
// freeze with a concrete end date extends the schedule by the frozen number
// of months; at most one freeze may be active per subscription at a time.
type Freeze struct {
	// ID is the unique identifier for the freeze
	ID string `db:"id" json:"id"`

	// SubscriptionID is the subscription this freeze belongs to
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// StartDate is when the suspension begins
	StartDate time.Time `db:"start_date" json:"start_date"`

	// EndDate is when the suspension ends. Nil means open-ended; the schedule
	// is only extended once the freeze is closed with a concrete end date.
	EndDate *time.Time `db:"end_date" json:"end_date,omitempty"`

	// FrozenAmountCents is an optional holding fee charged during the freeze
	FrozenAmountCents int64 `db:"frozen_amount_cents" json:"frozen_amount_cents"`

	// Reason is the member-supplied reason for freezing
	Reason string `db:"reason" json:"reason,omitempty"`

	// FreezeStatus is active or ended
	FreezeStatus types.FreezeStatus `db:"freeze_status" json:"freeze_status"`

	// ExtensionAppliedAt records that the schedule extension for this freeze
	// has run. Replays of the same close operation see it set and do nothing,
	// keeping the extension idempotent per freeze id.
	ExtensionAppliedAt *time.Time `db:"extension_applied_at" json:"extension_applied_at,omitempty"`

	// ExtensionMonths is the number of compensating cycles appended
	ExtensionMonths int `db:"extension_months" json:"extension_months"`

	types.BaseModel
}

// Validate validates the freeze
func (f *Freeze) Validate() error {
	if f.SubscriptionID == "" {
		return ierr.NewError("subscription id is required").
			WithHint("Subscription is required").
			Mark(ierr.ErrValidation)
	}
	if f.StartDate.IsZero() {
		return ierr.NewError("start date is required").
			WithHint("Freeze start date is required").
			Mark(ierr.ErrValidation)
	}
	if f.EndDate != nil && !f.EndDate.After(f.StartDate) {
		return ierr.NewError("invalid freeze window").
			WithHint("Freeze end date must be after the start date").
			Mark(ierr.ErrValidation)
	}
	if f.FrozenAmountCents < 0 {
		return ierr.NewError("invalid frozen amount").
			WithHint("Frozen amount must not be negative").
			Mark(ierr.ErrValidation)
	}
	return f.FreezeStatus.Validate()
}

// ExtensionApplied reports whether the schedule extension already ran
func (f *Freeze) ExtensionApplied() bool {
	return f.ExtensionAppliedAt != nil
}

// TableName returns the table name for the freeze
func (f *Freeze) TableName() string {
	return "freezes"
}
