package dto

import (
	"context"

	"github.com/dojoflow/dojoflow/internal/domain/paymentmethod"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/dojoflow/dojoflow/internal/validator"
)

// CreatePaymentMethodRequest registers a stored payment method for a contact
type CreatePaymentMethodRequest struct {
	ContactID        string                  `json:"contact_id" validate:"required"`
	ProviderMethodID string                  `json:"provider_method_id,omitempty"`
	MethodType       types.PaymentMethodType `json:"method_type" validate:"required"`
	Last4            *string                 `json:"last4,omitempty"`
	Brand            *string                 `json:"brand,omitempty"`
	IsDefault        bool                    `json:"is_default"`
	Metadata         types.Metadata          `json:"metadata,omitempty"`
}

func (r *CreatePaymentMethodRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.MethodType.Validate()
}

func (r *CreatePaymentMethodRequest) ToPaymentMethod(ctx context.Context) *paymentmethod.PaymentMethod {
	return &paymentmethod.PaymentMethod{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_METHOD),
		ContactID:        r.ContactID,
		ProviderMethodID: r.ProviderMethodID,
		MethodType:       r.MethodType,
		Last4:            r.Last4,
		Brand:            r.Brand,
		IsDefault:        r.IsDefault,
		Metadata:         r.Metadata,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
}

// PaymentMethodResponse represents a payment method in API responses
type PaymentMethodResponse struct {
	*paymentmethod.PaymentMethod
}

// NewPaymentMethodResponse creates a new payment method response
func NewPaymentMethodResponse(m *paymentmethod.PaymentMethod) *PaymentMethodResponse {
	return &PaymentMethodResponse{PaymentMethod: m}
}

// ListPaymentMethodsResponse represents a contact's stored methods
type ListPaymentMethodsResponse struct {
	Items []*PaymentMethodResponse `json:"items"`
}

// CreateSetupIntentRequest requests a provider setup intent so a contact can
// store a payment method for off-session use
type CreateSetupIntentRequest struct {
	ContactID string `json:"contact_id" validate:"required"`
}

func (r *CreateSetupIntentRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// SetupIntentResponse carries the client secret the front end confirms with
type SetupIntentResponse struct {
	SetupIntentID string `json:"setup_intent_id"`
	ClientSecret  string `json:"client_secret"`
	CustomerID    string `json:"customer_id"`
}
