package dto

import (
	"context"

	"github.com/dojoflow/dojoflow/internal/domain/tenant"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/dojoflow/dojoflow/internal/validator"
)

// CreateTenantRequest represents the request to create a tenant
type CreateTenantRequest struct {
	Name         string         `json:"name" validate:"required"`
	BillingEmail string         `json:"billing_email" validate:"required,email"`
	Currency     string         `json:"currency" validate:"required,len=3"`
	Metadata     types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateTenantRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateTenantRequest) ToTenant(ctx context.Context) *tenant.Tenant {
	t := &tenant.Tenant{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TENANT),
		Name:         r.Name,
		BillingEmail: r.BillingEmail,
		Currency:     r.Currency,
		Metadata:     r.Metadata,
	}
	base := types.GetDefaultBaseModel(ctx)
	t.Status = base.Status
	t.CreatedAt = base.CreatedAt
	t.UpdatedAt = base.UpdatedAt
	return t
}

// UpdateTenantRequest represents the request to update a tenant
type UpdateTenantRequest struct {
	Name         *string        `json:"name,omitempty"`
	BillingEmail *string        `json:"billing_email,omitempty"`
	Metadata     types.Metadata `json:"metadata,omitempty"`
}

func (r *UpdateTenantRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// LinkPaymentAccountRequest links a provider sub-account to a tenant
type LinkPaymentAccountRequest struct {
	PaymentAccountID string `json:"payment_account_id" validate:"required"`
	ChargesEnabled   bool   `json:"charges_enabled"`
}

func (r *LinkPaymentAccountRequest) Validate() error {
	if r.PaymentAccountID == "" {
		return ierr.NewError("payment account id is required").
			WithHint("Payment account id is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TenantResponse represents a tenant in API responses
type TenantResponse struct {
	*tenant.Tenant
}

// NewTenantResponse creates a new tenant response
func NewTenantResponse(t *tenant.Tenant) *TenantResponse {
	return &TenantResponse{Tenant: t}
}
