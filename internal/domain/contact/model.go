package contact

import (
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
)

// Contact represents a student or guardian within a tenant. Contacts are
// shared by subscriptions, payment methods and payments, so deletion is
// blocked while any of those still reference the contact.
type Contact struct {
	// ID is the unique identifier for the contact
	ID string `db:"id" json:"id"`

	// Name is the full display name of the contact
	Name string `db:"name" json:"name"`

	// Email is used for idempotent provider customer resolution and reminders
	Email string `db:"email" json:"email"`

	// Phone is an optional contact number
	Phone *string `db:"phone" json:"phone,omitempty"`

	// ProviderCustomerID is the payment-provider customer object this contact
	// maps to, scoped to the tenant's sub-account. Created lazily.
	ProviderCustomerID *string `db:"provider_customer_id" json:"provider_customer_id,omitempty"`

	Metadata types.Metadata `db:"metadata" json:"metadata,omitempty"`

	types.BaseModel
}

// Validate validates the contact
func (c *Contact) Validate() error {
	if c.Name == "" {
		return ierr.NewError("contact name is required").
			WithHint("Contact name is required").
			Mark(ierr.ErrValidation)
	}
	if c.Email == "" {
		return ierr.NewError("contact email is required").
			WithHint("Contact email is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TableName returns the table name for the contact
func (c *Contact) TableName() string {
	return "contacts"
}
