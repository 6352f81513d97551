package tenant

import (
	"time"

	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
)

// Tenant represents one academy: an isolated customer organization that owns
// its contacts, subscriptions and an optional payment-provider sub-account.
type Tenant struct {
	// ID is the unique identifier for the tenant
	ID string `db:"id" json:"id"`

	// Name is the display name of the academy
	Name string `db:"name" json:"name"`

	// BillingEmail receives dunning and receipt notifications for the academy
	BillingEmail string `db:"billing_email" json:"billing_email"`

	// PaymentAccountID is the provider sub-account (connected account) all of
	// this tenant's charges are routed through. Nil means the legacy platform
	// account path.
	PaymentAccountID *string `db:"payment_account_id" json:"payment_account_id,omitempty"`

	// ChargesEnabled mirrors the provider's onboarding state. A tenant with
	// charges disabled must never originate a charge.
	ChargesEnabled bool `db:"charges_enabled" json:"charges_enabled"`

	// Currency is the single ISO currency all of the tenant's amounts use
	Currency string `db:"currency" json:"currency"`

	Metadata types.Metadata `db:"metadata" json:"metadata,omitempty"`

	Status    types.Status `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// Validate validates the tenant
func (t *Tenant) Validate() error {
	if t.Name == "" {
		return ierr.NewError("tenant name is required").
			WithHint("Tenant name is required").
			Mark(ierr.ErrValidation)
	}
	if t.Currency == "" {
		return ierr.NewError("tenant currency is required").
			WithHint("Tenant currency is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TableName returns the table name for the tenant
func (t *Tenant) TableName() string {
	return "tenants"
}
