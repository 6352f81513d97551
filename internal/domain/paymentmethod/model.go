package paymentmethod

import (
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
)

// PaymentMethod is a stored payment instrument belonging to a contact,
// scoped to the tenant's provider sub-account. At most one method per
// contact is the default at any time.
type PaymentMethod struct {
	// ID is the unique identifier for the payment method
	ID string `db:"id" json:"id"`

	// ContactID is the contact this method belongs to
	ContactID string `db:"contact_id" json:"contact_id"`

	// ProviderMethodID is the provider-side payment method identifier
	ProviderMethodID string `db:"provider_method_id" json:"provider_method_id"`

	// MethodType is the kind of instrument (card, bank account, offline)
	MethodType types.PaymentMethodType `db:"method_type" json:"method_type"`

	// Last4 is the display suffix of the instrument, when the provider
	// supplies one
	Last4 *string `db:"last4" json:"last4,omitempty"`

	// Brand is the card brand or bank name, when known
	Brand *string `db:"brand" json:"brand,omitempty"`

	// IsDefault marks the method used for off-session installment charges
	IsDefault bool `db:"is_default" json:"is_default"`

	Metadata types.Metadata `db:"metadata" json:"metadata,omitempty"`

	types.BaseModel
}

// Validate validates the payment method
func (m *PaymentMethod) Validate() error {
	if m.ContactID == "" {
		return ierr.NewError("contact id is required").
			WithHint("Contact is required").
			Mark(ierr.ErrValidation)
	}
	if err := m.MethodType.Validate(); err != nil {
		return err
	}
	if !m.MethodType.IsOffline() && m.ProviderMethodID == "" {
		return ierr.NewError("provider method id is required").
			WithHint("A provider payment method reference is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TableName returns the table name for the payment method
func (m *PaymentMethod) TableName() string {
	return "payment_methods"
}
