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
)

type billingCycleRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewBillingCycleRepository(client postgres.IClient, log *logger.Logger) subscription.BillingCycleRepository {
	return &billingCycleRepository{client: client, log: log}
}

var billingCycleSortColumns = map[string]bool{
	"created_at":         true,
	"scheduled_date":     true,
	"installment_number": true,
}

const billingCycleInsertQuery = `
INSERT INTO billing_cycles (
	id, tenant_id, subscription_id, scheduled_date, amount_cents, currency,
	installment_number, total_installments, cycle_status, payment_id, paid_at,
	retry_count, upcoming_reminded_at, overdue_reminded_at,
	status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :tenant_id, :subscription_id, :scheduled_date, :amount_cents, :currency,
	:installment_number, :total_installments, :cycle_status, :payment_id, :paid_at,
	:retry_count, :upcoming_reminded_at, :overdue_reminded_at,
	:status, :created_at, :updated_at, :created_by, :updated_by
)`

// CreateBulk inserts a whole schedule in one statement. The unique constraint
// on (subscription_id, installment_number) rejects overlapping generation runs.
func (r *billingCycleRepository) CreateBulk(ctx context.Context, cycles []*subscription.BillingCycle) error {
	if len(cycles) == 0 {
		return nil
	}

	r.log.Debugw("creating billing cycles",
		"subscription_id", cycles[0].SubscriptionID,
		"count", len(cycles))

	_, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), billingCycleInsertQuery, cycles)
	if err != nil {
		if isUniqueViolation(err, "uq_billing_cycles_installment") {
			return ierr.WithError(err).
				WithHint("A cycle with this installment number already exists").
				Mark(ierr.ErrStateConflict)
		}
		return ierr.WithError(err).
			WithHint("Failed to create billing cycles").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *billingCycleRepository) Get(ctx context.Context, id string) (*subscription.BillingCycle, error) {
	var cycle subscription.BillingCycle
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &cycle,
		`SELECT * FROM billing_cycles WHERE id = $1 AND tenant_id = $2`,
		id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Billing cycle with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get billing cycle").
			Mark(ierr.ErrDatabase)
	}
	return &cycle, nil
}

const billingCycleUpdateQuery = `
UPDATE billing_cycles SET
	scheduled_date = :scheduled_date,
	amount_cents = :amount_cents,
	total_installments = :total_installments,
	cycle_status = :cycle_status,
	payment_id = :payment_id,
	paid_at = :paid_at,
	retry_count = :retry_count,
	upcoming_reminded_at = :upcoming_reminded_at,
	overdue_reminded_at = :overdue_reminded_at,
	status = :status,
	updated_at = :updated_at,
	updated_by = :updated_by
WHERE id = :id AND tenant_id = :tenant_id`

func (r *billingCycleRepository) Update(ctx context.Context, cycle *subscription.BillingCycle) error {
	cycle.UpdatedAt = time.Now().UTC()
	cycle.UpdatedBy = types.GetUserID(ctx)

	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), billingCycleUpdateQuery, cycle)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update billing cycle").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("billing cycle not found").
			WithHintf("Billing cycle with ID %s was not found", cycle.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// UpdateTotalInstallments rewrites total_installments across the whole
// schedule in one statement so the set never disagrees with itself.
func (r *billingCycleRepository) UpdateTotalInstallments(ctx context.Context, subscriptionID string, totalInstallments int) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx,
		`UPDATE billing_cycles SET total_installments = $1, updated_at = $2
		 WHERE subscription_id = $3 AND tenant_id = $4`,
		totalInstallments, time.Now().UTC(), subscriptionID, types.GetTenantID(ctx))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update total installments").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *billingCycleRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*subscription.BillingCycle, error) {
	cycles := make([]*subscription.BillingCycle, 0)
	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &cycles,
		`SELECT * FROM billing_cycles
		 WHERE subscription_id = $1 AND tenant_id = $2
		 ORDER BY installment_number ASC`,
		subscriptionID, types.GetTenantID(ctx))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list billing cycles").
			Mark(ierr.ErrDatabase)
	}
	return cycles, nil
}

func (r *billingCycleRepository) List(ctx context.Context, filter *types.BillingCycleFilter) ([]*subscription.BillingCycle, error) {
	if filter == nil {
		filter = &types.BillingCycleFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}

	b := &queryBuilder{}
	b.write(`SELECT * FROM billing_cycles WHERE tenant_id = ` + b.arg(types.GetTenantID(ctx)))
	b.write(` AND status = ` + b.arg(filter.GetStatus()))
	if filter.SubscriptionID != nil {
		b.write(` AND subscription_id = ` + b.arg(*filter.SubscriptionID))
	}
	if filter.CycleStatus != nil {
		b.write(` AND cycle_status = ` + b.arg(filter.CycleStatus.String()))
	}
	if filter.ScheduledBefore != nil {
		b.write(` AND scheduled_date < ` + b.arg(*filter.ScheduledBefore))
	}
	if filter.ScheduledAfter != nil {
		b.write(` AND scheduled_date >= ` + b.arg(*filter.ScheduledAfter))
	}
	b.write(orderBy(filter.QueryFilter, billingCycleSortColumns))
	paginate(b, filter.QueryFilter)

	cycles := make([]*subscription.BillingCycle, 0)
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &cycles, b.String(), b.args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list billing cycles").
			Mark(ierr.ErrDatabase)
	}
	return cycles, nil
}

// ListPendingDueBefore feeds the overdue side of the dunning sweep
func (r *billingCycleRepository) ListPendingDueBefore(ctx context.Context, cutoff time.Time) ([]*subscription.BillingCycle, error) {
	cycles := make([]*subscription.BillingCycle, 0)
	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &cycles,
		`SELECT * FROM billing_cycles
		 WHERE tenant_id = $1 AND cycle_status IN ('pending', 'overdue') AND scheduled_date < $2
		 ORDER BY scheduled_date ASC`,
		types.GetTenantID(ctx), cutoff)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list due billing cycles").
			Mark(ierr.ErrDatabase)
	}
	return cycles, nil
}

// ListPendingDueBetween feeds the upcoming-reminder side of the dunning sweep
func (r *billingCycleRepository) ListPendingDueBetween(ctx context.Context, from, to time.Time) ([]*subscription.BillingCycle, error) {
	cycles := make([]*subscription.BillingCycle, 0)
	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &cycles,
		`SELECT * FROM billing_cycles
		 WHERE tenant_id = $1 AND cycle_status = 'pending' AND scheduled_date >= $2 AND scheduled_date <= $3
		 ORDER BY scheduled_date ASC`,
		types.GetTenantID(ctx), from, to)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list upcoming billing cycles").
			Mark(ierr.ErrDatabase)
	}
	return cycles, nil
}

// CancelFutureCycles terminates the remaining schedule on cancellation. Paid
// and already-terminal cycles are left untouched.
func (r *billingCycleRepository) CancelFutureCycles(ctx context.Context, subscriptionID string, from time.Time) (int, error) {
	res, err := r.client.Querier(ctx).ExecContext(ctx,
		`UPDATE billing_cycles SET cycle_status = 'cancelled', updated_at = $1
		 WHERE subscription_id = $2 AND tenant_id = $3
		   AND scheduled_date >= $4 AND cycle_status IN ('pending', 'overdue')`,
		time.Now().UTC(), subscriptionID, types.GetTenantID(ctx), from)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to cancel future billing cycles").
			Mark(ierr.ErrDatabase)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
