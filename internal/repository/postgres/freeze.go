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

type freezeRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewFreezeRepository(client postgres.IClient, log *logger.Logger) subscription.FreezeRepository {
	return &freezeRepository{client: client, log: log}
}

const freezeInsertQuery = `
INSERT INTO freezes (
	id, tenant_id, subscription_id, start_date, end_date, frozen_amount_cents,
	reason, freeze_status, extension_applied_at, extension_months,
	status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :tenant_id, :subscription_id, :start_date, :end_date, :frozen_amount_cents,
	:reason, :freeze_status, :extension_applied_at, :extension_months,
	:status, :created_at, :updated_at, :created_by, :updated_by
)`

// Create inserts an active freeze. The partial unique index on
// (subscription_id) WHERE freeze_status = 'active' arbitrates concurrent
// requests: exactly one wins, the rest get a state conflict.
func (r *freezeRepository) Create(ctx context.Context, freeze *subscription.Freeze) error {
	r.log.Debugw("creating freeze",
		"freeze_id", freeze.ID,
		"subscription_id", freeze.SubscriptionID)

	_, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), freezeInsertQuery, freeze)
	if err != nil {
		if isUniqueViolation(err, "idx_freezes_one_active") {
			return ierr.WithError(err).
				WithHint("The subscription already has an active freeze").
				WithReportableDetails(map[string]any{
					"subscription_id": freeze.SubscriptionID,
				}).
				Mark(ierr.ErrStateConflict)
		}
		return ierr.WithError(err).
			WithHint("Failed to create freeze").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *freezeRepository) Get(ctx context.Context, id string) (*subscription.Freeze, error) {
	var freeze subscription.Freeze
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &freeze,
		`SELECT * FROM freezes WHERE id = $1 AND tenant_id = $2`,
		id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Freeze with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get freeze").
			Mark(ierr.ErrDatabase)
	}
	return &freeze, nil
}

const freezeUpdateQuery = `
UPDATE freezes SET
	start_date = :start_date,
	end_date = :end_date,
	frozen_amount_cents = :frozen_amount_cents,
	reason = :reason,
	freeze_status = :freeze_status,
	extension_applied_at = :extension_applied_at,
	extension_months = :extension_months,
	status = :status,
	updated_at = :updated_at,
	updated_by = :updated_by
WHERE id = :id AND tenant_id = :tenant_id`

func (r *freezeRepository) Update(ctx context.Context, freeze *subscription.Freeze) error {
	freeze.UpdatedAt = time.Now().UTC()
	freeze.UpdatedBy = types.GetUserID(ctx)

	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), freezeUpdateQuery, freeze)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update freeze").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("freeze not found").
			WithHintf("Freeze with ID %s was not found", freeze.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *freezeRepository) GetActiveBySubscription(ctx context.Context, subscriptionID string) (*subscription.Freeze, error) {
	var freeze subscription.Freeze
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &freeze,
		`SELECT * FROM freezes
		 WHERE subscription_id = $1 AND tenant_id = $2 AND freeze_status = 'active'`,
		subscriptionID, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Subscription %s has no active freeze", subscriptionID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get active freeze").
			Mark(ierr.ErrDatabase)
	}
	return &freeze, nil
}

func (r *freezeRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*subscription.Freeze, error) {
	freezes := make([]*subscription.Freeze, 0)
	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &freezes,
		`SELECT * FROM freezes
		 WHERE subscription_id = $1 AND tenant_id = $2
		 ORDER BY start_date ASC`,
		subscriptionID, types.GetTenantID(ctx))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list freezes").
			Mark(ierr.ErrDatabase)
	}
	return freezes, nil
}
