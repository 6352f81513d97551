package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/postgres"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type subscriptionRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewSubscriptionRepository(client postgres.IClient, log *logger.Logger) subscription.Repository {
	return &subscriptionRepository{client: client, log: log}
}

var subscriptionSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"start_date": true,
}

const subscriptionInsertQuery = `
INSERT INTO subscriptions (
	id, tenant_id, contact_id, plan_id, subscription_status, currency,
	start_date, cycle_length_months, fixed_term, auto_renewal,
	renewal_discount_percentage, provider_subscription_id, cancelled_at,
	metadata, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :tenant_id, :contact_id, :plan_id, :subscription_status, :currency,
	:start_date, :cycle_length_months, :fixed_term, :auto_renewal,
	:renewal_discount_percentage, :provider_subscription_id, :cancelled_at,
	:metadata, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	r.log.Debugw("creating subscription",
		"subscription_id", sub.ID,
		"tenant_id", sub.TenantID,
		"contact_id", sub.ContactID)

	_, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), subscriptionInsertQuery, sub)
	if err != nil {
		if isUniqueViolation(err, "idx_subscriptions_provider_id") {
			return ierr.WithError(err).
				WithHint("A subscription with this provider reference already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &sub,
		`SELECT * FROM subscriptions WHERE id = $1 AND tenant_id = $2`,
		id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Subscription with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

// GetByProviderSubscriptionID resolves a provider-owned subscription from the
// provider's identifier. The lookup is global because provider events arrive
// before a tenant is known.
func (r *subscriptionRepository) GetByProviderSubscriptionID(ctx context.Context, providerID string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &sub,
		`SELECT * FROM subscriptions WHERE provider_subscription_id = $1`, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Subscription with provider ID %s was not found", providerID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription by provider ID").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

const subscriptionUpdateQuery = `
UPDATE subscriptions SET
	subscription_status = :subscription_status,
	auto_renewal = :auto_renewal,
	renewal_discount_percentage = :renewal_discount_percentage,
	provider_subscription_id = :provider_subscription_id,
	cancelled_at = :cancelled_at,
	metadata = :metadata,
	status = :status,
	updated_at = :updated_at,
	updated_by = :updated_by
WHERE id = :id AND tenant_id = :tenant_id`

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	sub.UpdatedBy = types.GetUserID(ctx)

	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), subscriptionUpdateQuery, sub)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("subscription not found").
			WithHintf("Subscription with ID %s was not found", sub.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	if filter == nil {
		filter = &types.SubscriptionFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}

	b := r.buildFilterQuery(ctx, `SELECT * FROM subscriptions`, filter)
	b.write(orderBy(filter.QueryFilter, subscriptionSortColumns))
	paginate(b, filter.QueryFilter)

	subs := make([]*subscription.Subscription, 0)
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &subs, b.String(), b.args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

func (r *subscriptionRepository) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	if filter == nil {
		filter = &types.SubscriptionFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}

	b := r.buildFilterQuery(ctx, `SELECT count(*) FROM subscriptions`, filter)

	var count int
	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &count, b.String(), b.args...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *subscriptionRepository) buildFilterQuery(ctx context.Context, selectClause string, filter *types.SubscriptionFilter) *queryBuilder {
	b := &queryBuilder{}
	b.write(selectClause)
	b.write(` WHERE tenant_id = ` + b.arg(types.GetTenantID(ctx)))
	b.write(` AND status = ` + b.arg(filter.GetStatus()))
	if len(filter.SubscriptionIDs) > 0 {
		b.write(` AND id = ANY(` + b.arg(pq.Array(filter.SubscriptionIDs)) + `)`)
	}
	if filter.ContactID != nil {
		b.write(` AND contact_id = ` + b.arg(*filter.ContactID))
	}
	if filter.PlanID != nil {
		b.write(` AND plan_id = ` + b.arg(*filter.PlanID))
	}
	if filter.SubscriptionStatus != nil {
		b.write(` AND subscription_status = ` + b.arg(*filter.SubscriptionStatus))
	}
	if filter.TimeRangeFilter != nil {
		if filter.StartTime != nil {
			b.write(` AND created_at >= ` + b.arg(*filter.StartTime))
		}
		if filter.EndTime != nil {
			b.write(` AND created_at <= ` + b.arg(*filter.EndTime))
		}
	}
	return b
}
