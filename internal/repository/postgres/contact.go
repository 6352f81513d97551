package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dojoflow/dojoflow/internal/domain/contact"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/postgres"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/jmoiron/sqlx"
)

type contactRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewContactRepository(client postgres.IClient, log *logger.Logger) contact.Repository {
	return &contactRepository{client: client, log: log}
}

var contactSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"email":      true,
}

const contactInsertQuery = `
INSERT INTO contacts (
	id, tenant_id, name, email, phone, provider_customer_id, metadata,
	status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :tenant_id, :name, :email, :phone, :provider_customer_id, :metadata,
	:status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *contactRepository) Create(ctx context.Context, c *contact.Contact) error {
	r.log.Debugw("creating contact", "contact_id", c.ID, "tenant_id", c.TenantID)

	_, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), contactInsertQuery, c)
	if err != nil {
		if isUniqueViolation(err, "idx_contacts_tenant_email") {
			return ierr.WithError(err).
				WithHintf("A contact with email %s already exists", c.Email).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create contact").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *contactRepository) Get(ctx context.Context, id string) (*contact.Contact, error) {
	var c contact.Contact
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &c,
		`SELECT * FROM contacts WHERE id = $1 AND tenant_id = $2`,
		id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Contact with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get contact").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

// GetByEmail is the idempotent lookup used before provisioning a provider
// customer for a contact. Matching is case-insensitive.
func (r *contactRepository) GetByEmail(ctx context.Context, email string) (*contact.Contact, error) {
	var c contact.Contact
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &c,
		`SELECT * FROM contacts
		 WHERE tenant_id = $1 AND lower(email) = lower($2) AND status = 'published'`,
		types.GetTenantID(ctx), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Contact with email %s was not found", email).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get contact by email").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

const contactUpdateQuery = `
UPDATE contacts SET
	name = :name,
	email = :email,
	phone = :phone,
	provider_customer_id = :provider_customer_id,
	metadata = :metadata,
	status = :status,
	updated_at = :updated_at,
	updated_by = :updated_by
WHERE id = :id AND tenant_id = :tenant_id`

func (r *contactRepository) Update(ctx context.Context, c *contact.Contact) error {
	c.UpdatedAt = time.Now().UTC()
	c.UpdatedBy = types.GetUserID(ctx)

	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), contactUpdateQuery, c)
	if err != nil {
		if isUniqueViolation(err, "idx_contacts_tenant_email") {
			return ierr.WithError(err).
				WithHintf("A contact with email %s already exists", c.Email).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to update contact").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("contact not found").
			WithHintf("Contact with ID %s was not found", c.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// Delete soft-deletes the contact. Reference checks against subscriptions and
// payments happen at the service layer before this is called.
func (r *contactRepository) Delete(ctx context.Context, id string) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx,
		`UPDATE contacts SET status = 'deleted', updated_at = $1, updated_by = $2
		 WHERE id = $3 AND tenant_id = $4 AND status != 'deleted'`,
		time.Now().UTC(), types.GetUserID(ctx), id, types.GetTenantID(ctx))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete contact").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("contact not found").
			WithHintf("Contact with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *contactRepository) List(ctx context.Context, filter *contact.ContactFilter) ([]*contact.Contact, error) {
	if filter == nil {
		filter = &contact.ContactFilter{QueryFilter: types.NewDefaultQueryFilter()}
	}

	b := &queryBuilder{}
	b.write(`SELECT * FROM contacts WHERE tenant_id = ` + b.arg(types.GetTenantID(ctx)))
	b.write(` AND status = ` + b.arg(filter.GetStatus()))
	if filter.Email != nil {
		b.write(` AND lower(email) = lower(` + b.arg(*filter.Email) + `)`)
	}
	b.write(orderBy(filter.QueryFilter, contactSortColumns))
	paginate(b, filter.QueryFilter)

	contacts := make([]*contact.Contact, 0)
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &contacts, b.String(), b.args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list contacts").
			Mark(ierr.ErrDatabase)
	}
	return contacts, nil
}
