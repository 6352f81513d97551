package service

import (
	"context"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/types"
)

// PaymentMethodService manages stored payment methods and the setup-intent
// flow used to collect them for off-session charging.
type PaymentMethodService interface {
	CreatePaymentMethod(ctx context.Context, req dto.CreatePaymentMethodRequest) (*dto.PaymentMethodResponse, error)
	GetPaymentMethod(ctx context.Context, id string) (*dto.PaymentMethodResponse, error)
	ListPaymentMethods(ctx context.Context, contactID string) (*dto.ListPaymentMethodsResponse, error)
	// SetDefault atomically makes the given method the contact's only default.
	SetDefault(ctx context.Context, contactID, methodID string) (*dto.PaymentMethodResponse, error)
	DeletePaymentMethod(ctx context.Context, id string) error
	CreateSetupIntent(ctx context.Context, req dto.CreateSetupIntentRequest) (*dto.SetupIntentResponse, error)
}

type paymentMethodService struct {
	ServiceParams
}

// NewPaymentMethodService creates a new payment method service
func NewPaymentMethodService(params ServiceParams) PaymentMethodService {
	return &paymentMethodService{ServiceParams: params}
}

func (s *paymentMethodService) CreatePaymentMethod(ctx context.Context, req dto.CreatePaymentMethodRequest) (*dto.PaymentMethodResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ContactRepo.Get(ctx, req.ContactID); err != nil {
		return nil, err
	}

	method := req.ToPaymentMethod(ctx)
	if err := method.Validate(); err != nil {
		return nil, err
	}

	// Create the method non-default and promote it through the atomic
	// default swap, so two concurrent creates can never leave two defaults.
	wantDefault := method.IsDefault
	method.IsDefault = false
	if err := s.PaymentMethodRepo.Create(ctx, method); err != nil {
		return nil, err
	}
	if wantDefault {
		if err := s.PaymentMethodRepo.SetDefault(ctx, method.ContactID, method.ID); err != nil {
			return nil, err
		}
		method.IsDefault = true
	}

	s.Logger.Infow("stored payment method",
		"payment_method_id", method.ID,
		"contact_id", method.ContactID,
		"is_default", method.IsDefault,
	)
	return dto.NewPaymentMethodResponse(method), nil
}

func (s *paymentMethodService) GetPaymentMethod(ctx context.Context, id string) (*dto.PaymentMethodResponse, error) {
	method, err := s.PaymentMethodRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewPaymentMethodResponse(method), nil
}

func (s *paymentMethodService) ListPaymentMethods(ctx context.Context, contactID string) (*dto.ListPaymentMethodsResponse, error) {
	methods, err := s.PaymentMethodRepo.ListByContact(ctx, contactID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListPaymentMethodsResponse{}
	for _, m := range methods {
		resp.Items = append(resp.Items, dto.NewPaymentMethodResponse(m))
	}
	return resp, nil
}

func (s *paymentMethodService) SetDefault(ctx context.Context, contactID, methodID string) (*dto.PaymentMethodResponse, error) {
	if err := s.PaymentMethodRepo.SetDefault(ctx, contactID, methodID); err != nil {
		return nil, err
	}
	method, err := s.PaymentMethodRepo.Get(ctx, methodID)
	if err != nil {
		return nil, err
	}
	return dto.NewPaymentMethodResponse(method), nil
}

func (s *paymentMethodService) DeletePaymentMethod(ctx context.Context, id string) error {
	if _, err := s.PaymentMethodRepo.Get(ctx, id); err != nil {
		return err
	}
	return s.PaymentMethodRepo.Delete(ctx, id)
}

func (s *paymentMethodService) CreateSetupIntent(ctx context.Context, req dto.CreateSetupIntentRequest) (*dto.SetupIntentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.ContactRepo.Get(ctx, req.ContactID)
	if err != nil {
		return nil, err
	}

	route, err := s.StripeClient.ResolveRoute(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}
	customerID, err := s.StripeCustomers.EnsureProviderCustomer(ctx, c, route)
	if err != nil {
		return nil, err
	}

	intent, err := s.StripePayments.CreateSetupIntent(ctx, customerID, map[string]string{
		"dojoflow_contact_id": c.ID,
		"dojoflow_tenant_id":  types.GetTenantID(ctx),
	}, route)
	if err != nil {
		return nil, err
	}

	return &dto.SetupIntentResponse{
		SetupIntentID: intent.ID,
		ClientSecret:  intent.ClientSecret,
		CustomerID:    customerID,
	}, nil
}
