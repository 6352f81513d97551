package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dojoflow/dojoflow/internal/domain/tenant"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/postgres"
	"github.com/jmoiron/sqlx"
)

type tenantRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewTenantRepository(client postgres.IClient, log *logger.Logger) tenant.Repository {
	return &tenantRepository{client: client, log: log}
}

const tenantInsertQuery = `
INSERT INTO tenants (
	id, name, billing_email, payment_account_id, charges_enabled, currency,
	metadata, status, created_at, updated_at
) VALUES (
	:id, :name, :billing_email, :payment_account_id, :charges_enabled, :currency,
	:metadata, :status, :created_at, :updated_at
)`

func (r *tenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	r.log.Debugw("creating tenant", "tenant_id", t.ID, "name", t.Name)

	_, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), tenantInsertQuery, t)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ierr.WithError(err).
				WithHint("A tenant with this identifier already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create tenant").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *tenantRepository) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &t,
		`SELECT * FROM tenants WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Tenant with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get tenant").
			Mark(ierr.ErrDatabase)
	}
	return &t, nil
}

const tenantUpdateQuery = `
UPDATE tenants SET
	name = :name,
	billing_email = :billing_email,
	payment_account_id = :payment_account_id,
	charges_enabled = :charges_enabled,
	currency = :currency,
	metadata = :metadata,
	status = :status,
	updated_at = :updated_at
WHERE id = :id`

func (r *tenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), tenantUpdateQuery, t)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update tenant").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("tenant not found").
			WithHintf("Tenant with ID %s was not found", t.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *tenantRepository) List(ctx context.Context) ([]*tenant.Tenant, error) {
	tenants := make([]*tenant.Tenant, 0)
	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &tenants,
		`SELECT * FROM tenants WHERE status = 'published' ORDER BY created_at DESC`)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list tenants").
			Mark(ierr.ErrDatabase)
	}
	return tenants, nil
}
