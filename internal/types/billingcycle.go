package types

import (
	"time"

	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/samber/lo"
)

// BillingCycleStatus represents the charge state of one scheduled installment
type BillingCycleStatus string

const (
	BillingCycleStatusPending   BillingCycleStatus = "pending"
	BillingCycleStatusPaid      BillingCycleStatus = "paid"
	BillingCycleStatusOverdue   BillingCycleStatus = "overdue"
	BillingCycleStatusSkipped   BillingCycleStatus = "skipped"
	BillingCycleStatusCancelled BillingCycleStatus = "cancelled"
)

func (s BillingCycleStatus) String() string {
	return string(s)
}

func (s BillingCycleStatus) Validate() error {
	allowed := []BillingCycleStatus{
		BillingCycleStatusPending,
		BillingCycleStatusPaid,
		BillingCycleStatusOverdue,
		BillingCycleStatusSkipped,
		BillingCycleStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid billing cycle status").
			WithHintf("Billing cycle status %s is not valid", s).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal reports whether no further charge will ever be attempted for a
// cycle in this status.
func (s BillingCycleStatus) IsTerminal() bool {
	return s == BillingCycleStatusPaid ||
		s == BillingCycleStatusSkipped ||
		s == BillingCycleStatusCancelled
}

// BillingCycleFilter represents the filter for listing billing cycles
type BillingCycleFilter struct {
	*QueryFilter

	SubscriptionID  *string             `form:"subscription_id"`
	CycleStatus     *BillingCycleStatus `form:"cycle_status"`
	ScheduledBefore *time.Time          `form:"scheduled_before"`
	ScheduledAfter  *time.Time          `form:"scheduled_after"`
}

func (f *BillingCycleFilter) Validate() error {
	if f == nil {
		return nil
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	if f.CycleStatus != nil {
		return f.CycleStatus.Validate()
	}
	return nil
}
