package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dojoflow/dojoflow/internal/domain/paymentmethod"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/postgres"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/jmoiron/sqlx"
)

type paymentMethodRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewPaymentMethodRepository(client postgres.IClient, log *logger.Logger) paymentmethod.Repository {
	return &paymentMethodRepository{client: client, log: log}
}

const paymentMethodInsertQuery = `
INSERT INTO payment_methods (
	id, tenant_id, contact_id, provider_method_id, method_type, last4, brand,
	is_default, metadata, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :tenant_id, :contact_id, :provider_method_id, :method_type, :last4, :brand,
	:is_default, :metadata, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *paymentMethodRepository) Create(ctx context.Context, method *paymentmethod.PaymentMethod) error {
	r.log.Debugw("creating payment method",
		"payment_method_id", method.ID,
		"contact_id", method.ContactID)

	_, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), paymentMethodInsertQuery, method)
	if err != nil {
		if isUniqueViolation(err, "idx_payment_methods_one_default") {
			return ierr.WithError(err).
				WithHint("The contact already has a default payment method").
				Mark(ierr.ErrStateConflict)
		}
		return ierr.WithError(err).
			WithHint("Failed to create payment method").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentMethodRepository) Get(ctx context.Context, id string) (*paymentmethod.PaymentMethod, error) {
	var method paymentmethod.PaymentMethod
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &method,
		`SELECT * FROM payment_methods WHERE id = $1 AND tenant_id = $2 AND status = 'published'`,
		id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Payment method with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment method").
			Mark(ierr.ErrDatabase)
	}
	return &method, nil
}

const paymentMethodUpdateQuery = `
UPDATE payment_methods SET
	provider_method_id = :provider_method_id,
	method_type = :method_type,
	last4 = :last4,
	brand = :brand,
	is_default = :is_default,
	metadata = :metadata,
	status = :status,
	updated_at = :updated_at,
	updated_by = :updated_by
WHERE id = :id AND tenant_id = :tenant_id`

func (r *paymentMethodRepository) Update(ctx context.Context, method *paymentmethod.PaymentMethod) error {
	method.UpdatedAt = time.Now().UTC()
	method.UpdatedBy = types.GetUserID(ctx)

	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), paymentMethodUpdateQuery, method)
	if err != nil {
		if isUniqueViolation(err, "idx_payment_methods_one_default") {
			return ierr.WithError(err).
				WithHint("The contact already has a default payment method").
				Mark(ierr.ErrStateConflict)
		}
		return ierr.WithError(err).
			WithHint("Failed to update payment method").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("payment method not found").
			WithHintf("Payment method with ID %s was not found", method.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// Delete soft-deletes the method. A deleted method leaves the partial unique
// index, so the contact's default slot frees up immediately.
func (r *paymentMethodRepository) Delete(ctx context.Context, id string) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx,
		`UPDATE payment_methods SET status = 'deleted', is_default = FALSE, updated_at = $1, updated_by = $2
		 WHERE id = $3 AND tenant_id = $4 AND status != 'deleted'`,
		time.Now().UTC(), types.GetUserID(ctx), id, types.GetTenantID(ctx))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete payment method").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("payment method not found").
			WithHintf("Payment method with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *paymentMethodRepository) ListByContact(ctx context.Context, contactID string) ([]*paymentmethod.PaymentMethod, error) {
	methods := make([]*paymentmethod.PaymentMethod, 0)
	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &methods,
		`SELECT * FROM payment_methods
		 WHERE contact_id = $1 AND tenant_id = $2 AND status = 'published'
		 ORDER BY created_at DESC`,
		contactID, types.GetTenantID(ctx))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payment methods").
			Mark(ierr.ErrDatabase)
	}
	return methods, nil
}

func (r *paymentMethodRepository) GetDefaultByContact(ctx context.Context, contactID string) (*paymentmethod.PaymentMethod, error) {
	var method paymentmethod.PaymentMethod
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &method,
		`SELECT * FROM payment_methods
		 WHERE contact_id = $1 AND tenant_id = $2 AND is_default = TRUE AND status = 'published'`,
		contactID, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Contact %s has no default payment method", contactID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get default payment method").
			Mark(ierr.ErrDatabase)
	}
	return &method, nil
}

// SetDefault atomically moves the default flag to the given method. The clear
// and the set run in one transaction, so concurrent callers serialize on the
// partial unique index and the last writer wins with exactly one default.
func (r *paymentMethodRepository) SetDefault(ctx context.Context, contactID, methodID string) error {
	return r.client.WithTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		tenantID := types.GetTenantID(ctx)

		_, err := r.client.Querier(ctx).ExecContext(ctx,
			`UPDATE payment_methods SET is_default = FALSE, updated_at = $1
			 WHERE contact_id = $2 AND tenant_id = $3 AND is_default = TRUE`,
			now, contactID, tenantID)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Failed to clear default payment method").
				Mark(ierr.ErrDatabase)
		}

		res, err := r.client.Querier(ctx).ExecContext(ctx,
			`UPDATE payment_methods SET is_default = TRUE, updated_at = $1, updated_by = $2
			 WHERE id = $3 AND contact_id = $4 AND tenant_id = $5 AND status = 'published'`,
			now, types.GetUserID(ctx), methodID, contactID, tenantID)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Failed to set default payment method").
				Mark(ierr.ErrDatabase)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ierr.NewError("payment method not found").
				WithHintf("Payment method with ID %s was not found for this contact", methodID).
				Mark(ierr.ErrNotFound)
		}
		return nil
	})
}
