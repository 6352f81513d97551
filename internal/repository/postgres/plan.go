package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dojoflow/dojoflow/internal/domain/plan"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/postgres"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/jmoiron/sqlx"
)

type planRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewPlanRepository(client postgres.IClient, log *logger.Logger) plan.Repository {
	return &planRepository{client: client, log: log}
}

var planSortColumns = map[string]bool{
	"created_at":       true,
	"updated_at":       true,
	"name":             true,
	"base_price_cents": true,
}

const planInsertQuery = `
INSERT INTO plans (
	id, tenant_id, name, base_price_cents, currency, cycle_length_months,
	total_installments, recurring, renewal_discount_percentage, metadata,
	status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :tenant_id, :name, :base_price_cents, :currency, :cycle_length_months,
	:total_installments, :recurring, :renewal_discount_percentage, :metadata,
	:status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	r.log.Debugw("creating plan", "plan_id", p.ID, "tenant_id", p.TenantID)

	_, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), planInsertQuery, p)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create plan").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	var p plan.Plan
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &p,
		`SELECT * FROM plans WHERE id = $1 AND tenant_id = $2`,
		id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Plan with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get plan").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

const planUpdateQuery = `
UPDATE plans SET
	name = :name,
	base_price_cents = :base_price_cents,
	currency = :currency,
	cycle_length_months = :cycle_length_months,
	total_installments = :total_installments,
	recurring = :recurring,
	renewal_discount_percentage = :renewal_discount_percentage,
	metadata = :metadata,
	status = :status,
	updated_at = :updated_at,
	updated_by = :updated_by
WHERE id = :id AND tenant_id = :tenant_id`

func (r *planRepository) Update(ctx context.Context, p *plan.Plan) error {
	p.UpdatedAt = time.Now().UTC()
	p.UpdatedBy = types.GetUserID(ctx)

	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), planUpdateQuery, p)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update plan").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("plan not found").
			WithHintf("Plan with ID %s was not found", p.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *planRepository) Delete(ctx context.Context, id string) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx,
		`UPDATE plans SET status = 'deleted', updated_at = $1, updated_by = $2
		 WHERE id = $3 AND tenant_id = $4 AND status != 'deleted'`,
		time.Now().UTC(), types.GetUserID(ctx), id, types.GetTenantID(ctx))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete plan").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("plan not found").
			WithHintf("Plan with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *planRepository) List(ctx context.Context, filter *plan.PlanFilter) ([]*plan.Plan, error) {
	if filter == nil {
		filter = &plan.PlanFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}

	b := &queryBuilder{}
	b.write(`SELECT * FROM plans WHERE tenant_id = ` + b.arg(types.GetTenantID(ctx)))
	b.write(` AND status = ` + b.arg(filter.GetStatus()))
	b.write(orderBy(filter.QueryFilter, planSortColumns))
	paginate(b, filter.QueryFilter)

	plans := make([]*plan.Plan, 0)
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &plans, b.String(), b.args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}
	return plans, nil
}
