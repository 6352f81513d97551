package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dojoflow/dojoflow/internal/domain/payment"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/postgres"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type paymentRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewPaymentRepository(client postgres.IClient, log *logger.Logger) payment.Repository {
	return &paymentRepository{client: client, log: log}
}

var paymentSortColumns = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"amount_cents": true,
	"succeeded_at": true,
}

const paymentInsertQuery = `
INSERT INTO payments (
	id, tenant_id, idempotency_key, destination_type, destination_id,
	contact_id, subscription_id, charge_shape, payment_method_id,
	payment_method_type, gateway_payment_id, amount_cents, currency,
	payment_status, description, receipt_number, track_attempts,
	succeeded_at, failed_at, error_message, metadata,
	status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :tenant_id, :idempotency_key, :destination_type, :destination_id,
	:contact_id, :subscription_id, :charge_shape, :payment_method_id,
	:payment_method_type, :gateway_payment_id, :amount_cents, :currency,
	:payment_status, :description, :receipt_number, :track_attempts,
	:succeeded_at, :failed_at, :error_message, :metadata,
	:status, :created_at, :updated_at, :created_by, :updated_by
)`

// Create inserts a payment. The unique indexes on idempotency_key and
// gateway_payment_id turn duplicate charge attempts and webhook redeliveries
// into ErrAlreadyExists instead of double rows.
func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	r.log.Debugw("creating payment",
		"payment_id", p.ID,
		"tenant_id", p.TenantID,
		"destination_type", p.DestinationType,
		"destination_id", p.DestinationID)

	_, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), paymentInsertQuery, p)
	if err != nil {
		if isUniqueViolation(err, "idx_payments_idempotency_key") {
			return ierr.WithError(err).
				WithHint("A payment with this idempotency key already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		if isUniqueViolation(err, "idx_payments_gateway_payment_id") {
			return ierr.WithError(err).
				WithHint("A payment for this provider charge already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	var p payment.Payment
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &p,
		`SELECT * FROM payments WHERE id = $1 AND tenant_id = $2`,
		id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Payment with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

const paymentUpdateQuery = `
UPDATE payments SET
	payment_method_id = :payment_method_id,
	payment_method_type = :payment_method_type,
	gateway_payment_id = :gateway_payment_id,
	payment_status = :payment_status,
	receipt_number = :receipt_number,
	succeeded_at = :succeeded_at,
	failed_at = :failed_at,
	error_message = :error_message,
	metadata = :metadata,
	status = :status,
	updated_at = :updated_at,
	updated_by = :updated_by
WHERE id = :id AND tenant_id = :tenant_id`

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	p.UpdatedAt = time.Now().UTC()
	p.UpdatedBy = types.GetUserID(ctx)

	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), paymentUpdateQuery, p)
	if err != nil {
		if isUniqueViolation(err, "idx_payments_gateway_payment_id") {
			return ierr.WithError(err).
				WithHint("A payment for this provider charge already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to update payment").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("payment not found").
			WithHintf("Payment with ID %s was not found", p.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *paymentRepository) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	if filter == nil {
		filter = &types.PaymentFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}

	b := r.buildFilterQuery(ctx, `SELECT * FROM payments`, filter)
	b.write(orderBy(filter.QueryFilter, paymentSortColumns))
	paginate(b, filter.QueryFilter)

	payments := make([]*payment.Payment, 0)
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &payments, b.String(), b.args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payments").
			Mark(ierr.ErrDatabase)
	}
	return payments, nil
}

func (r *paymentRepository) Count(ctx context.Context, filter *types.PaymentFilter) (int, error) {
	if filter == nil {
		filter = &types.PaymentFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}

	b := r.buildFilterQuery(ctx, `SELECT count(*) FROM payments`, filter)

	var count int
	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &count, b.String(), b.args...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count payments").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *paymentRepository) buildFilterQuery(ctx context.Context, selectClause string, filter *types.PaymentFilter) *queryBuilder {
	b := &queryBuilder{}
	b.write(selectClause)
	b.write(` WHERE tenant_id = ` + b.arg(types.GetTenantID(ctx)))
	b.write(` AND status = ` + b.arg(filter.GetStatus()))
	if len(filter.PaymentIDs) > 0 {
		b.write(` AND id = ANY(` + b.arg(pq.Array(filter.PaymentIDs)) + `)`)
	}
	if filter.DestinationType != nil {
		b.write(` AND destination_type = ` + b.arg(*filter.DestinationType))
	}
	if filter.DestinationID != nil {
		b.write(` AND destination_id = ` + b.arg(*filter.DestinationID))
	}
	if filter.ContactID != nil {
		b.write(` AND contact_id = ` + b.arg(*filter.ContactID))
	}
	if filter.PaymentStatus != nil {
		b.write(` AND payment_status = ` + b.arg(*filter.PaymentStatus))
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

func (r *paymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	var p payment.Payment
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &p,
		`SELECT * FROM payments WHERE tenant_id = $1 AND idempotency_key = $2`,
		types.GetTenantID(ctx), key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No payment exists for this idempotency key").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment by idempotency key").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

// GetByGatewayPaymentID is the reconciliation dedup lookup. It is not tenant
// scoped because provider charge ids are globally unique and the tenant is
// resolved from the payment row itself during event handling.
func (r *paymentRepository) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*payment.Payment, error) {
	var p payment.Payment
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &p,
		`SELECT * FROM payments WHERE gateway_payment_id = $1`, gatewayPaymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No payment exists for this provider charge").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment by provider charge id").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

const paymentAttemptInsertQuery = `
INSERT INTO payment_attempts (
	id, tenant_id, payment_id, attempt_number, payment_status, error_message,
	status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :tenant_id, :payment_id, :attempt_number, :payment_status, :error_message,
	:status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *paymentRepository) CreateAttempt(ctx context.Context, attempt *payment.PaymentAttempt) error {
	_, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), paymentAttemptInsertQuery, attempt)
	if err != nil {
		if isUniqueViolation(err, "uq_payment_attempts_number") {
			return ierr.WithError(err).
				WithHint("An attempt with this number already exists for the payment").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create payment attempt").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

const paymentAttemptUpdateQuery = `
UPDATE payment_attempts SET
	payment_status = :payment_status,
	error_message = :error_message,
	updated_at = :updated_at,
	updated_by = :updated_by
WHERE id = :id AND tenant_id = :tenant_id`

func (r *paymentRepository) UpdateAttempt(ctx context.Context, attempt *payment.PaymentAttempt) error {
	attempt.UpdatedAt = time.Now().UTC()
	attempt.UpdatedBy = types.GetUserID(ctx)

	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), paymentAttemptUpdateQuery, attempt)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update payment attempt").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("payment attempt not found").
			WithHintf("Payment attempt with ID %s was not found", attempt.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *paymentRepository) ListAttempts(ctx context.Context, paymentID string) ([]*payment.PaymentAttempt, error) {
	attempts := make([]*payment.PaymentAttempt, 0)
	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &attempts,
		`SELECT * FROM payment_attempts
		 WHERE payment_id = $1 AND tenant_id = $2
		 ORDER BY attempt_number ASC`,
		paymentID, types.GetTenantID(ctx))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payment attempts").
			Mark(ierr.ErrDatabase)
	}
	return attempts, nil
}

func (r *paymentRepository) GetLatestAttempt(ctx context.Context, paymentID string) (*payment.PaymentAttempt, error) {
	var attempt payment.PaymentAttempt
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &attempt,
		`SELECT * FROM payment_attempts
		 WHERE payment_id = $1 AND tenant_id = $2
		 ORDER BY attempt_number DESC LIMIT 1`,
		paymentID, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Payment %s has no attempts", paymentID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get latest payment attempt").
			Mark(ierr.ErrDatabase)
	}
	return &attempt, nil
}
