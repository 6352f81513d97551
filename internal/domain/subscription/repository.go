package subscription

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/types"
)

// Repository defines the interface for subscription persistence
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	GetByProviderSubscriptionID(ctx context.Context, providerID string) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	List(ctx context.Context, filter *types.SubscriptionFilter) ([]*Subscription, error)
	Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error)
}

// BillingCycleRepository defines the interface for billing cycle persistence
type BillingCycleRepository interface {
	CreateBulk(ctx context.Context, cycles []*BillingCycle) error
	Get(ctx context.Context, id string) (*BillingCycle, error)
	Update(ctx context.Context, cycle *BillingCycle) error
	// UpdateTotalInstallments rewrites total_installments on every cycle of
	// the subscription in one statement.
	UpdateTotalInstallments(ctx context.Context, subscriptionID string, totalInstallments int) error
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*BillingCycle, error)
	List(ctx context.Context, filter *types.BillingCycleFilter) ([]*BillingCycle, error)
	// ListPendingDueBefore returns pending cycles whose due date is strictly
	// before the cutoff, across all subscriptions of the current tenant.
	ListPendingDueBefore(ctx context.Context, cutoff time.Time) ([]*BillingCycle, error)
	// ListPendingDueBetween returns pending cycles due inside [from, to].
	ListPendingDueBetween(ctx context.Context, from, to time.Time) ([]*BillingCycle, error)
	// CancelFutureCycles marks all non-paid cycles scheduled on or after the
	// given date as cancelled and returns the number of rows affected.
	CancelFutureCycles(ctx context.Context, subscriptionID string, from time.Time) (int, error)
}

// FreezeRepository defines the interface for freeze persistence.
// Create must be backed by a uniqueness guarantee of at most one active
// freeze per subscription: a losing concurrent writer gets ErrStateConflict.
type FreezeRepository interface {
	Create(ctx context.Context, freeze *Freeze) error
	Get(ctx context.Context, id string) (*Freeze, error)
	Update(ctx context.Context, freeze *Freeze) error
	GetActiveBySubscription(ctx context.Context, subscriptionID string) (*Freeze, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*Freeze, error)
}
