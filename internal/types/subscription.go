package types

import (
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus represents the lifecycle state of a membership subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusFrozen    SubscriptionStatus = "frozen"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusFrozen,
		SubscriptionStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHintf("Subscription status %s is not valid", s).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SubscriptionFilter represents the filter for listing subscriptions
type SubscriptionFilter struct {
	*QueryFilter
	*TimeRangeFilter

	SubscriptionIDs    []string `form:"subscription_ids"`
	ContactID          *string  `form:"contact_id"`
	PlanID             *string  `form:"plan_id"`
	SubscriptionStatus *string  `form:"subscription_status"`
}

func (f *SubscriptionFilter) Validate() error {
	if f == nil {
		return nil
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	return f.TimeRangeFilter.Validate()
}
