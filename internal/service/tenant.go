package service

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/api/dto"
)

// TenantService manages academies and their payment-provider sub-accounts
type TenantService interface {
	CreateTenant(ctx context.Context, req dto.CreateTenantRequest) (*dto.TenantResponse, error)
	GetTenant(ctx context.Context, id string) (*dto.TenantResponse, error)
	UpdateTenant(ctx context.Context, id string, req dto.UpdateTenantRequest) (*dto.TenantResponse, error)
	// LinkPaymentAccount attaches a provider connected account to the tenant.
	// Until charges_enabled is set the tenant cannot originate charges.
	LinkPaymentAccount(ctx context.Context, id string, req dto.LinkPaymentAccountRequest) (*dto.TenantResponse, error)
	ListTenants(ctx context.Context) ([]*dto.TenantResponse, error)
}

type tenantService struct {
	ServiceParams
}

// NewTenantService creates a new tenant service
func NewTenantService(params ServiceParams) TenantService {
	return &tenantService{ServiceParams: params}
}

func (s *tenantService) CreateTenant(ctx context.Context, req dto.CreateTenantRequest) (*dto.TenantResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t := req.ToTenant(ctx)
	if err := s.TenantRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.Logger.Infow("created tenant", "tenant_id", t.ID, "name", t.Name)
	return dto.NewTenantResponse(t), nil
}

func (s *tenantService) GetTenant(ctx context.Context, id string) (*dto.TenantResponse, error) {
	t, err := s.TenantRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewTenantResponse(t), nil
}

func (s *tenantService) UpdateTenant(ctx context.Context, id string, req dto.UpdateTenantRequest) (*dto.TenantResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.TenantRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.BillingEmail != nil {
		t.BillingEmail = *req.BillingEmail
	}
	if req.Metadata != nil {
		t.Metadata = req.Metadata
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.TenantRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	return dto.NewTenantResponse(t), nil
}

func (s *tenantService) LinkPaymentAccount(ctx context.Context, id string, req dto.LinkPaymentAccountRequest) (*dto.TenantResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.TenantRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	t.PaymentAccountID = &req.PaymentAccountID
	t.ChargesEnabled = req.ChargesEnabled
	t.UpdatedAt = time.Now().UTC()

	if err := s.TenantRepo.Update(ctx, t); err != nil {
		return nil, err
	}

	// Routing decisions are cached; the new sub-account must take effect now.
	s.StripeClient.InvalidateRoute(ctx, t.ID)

	s.Logger.Infow("linked payment account",
		"tenant_id", t.ID,
		"payment_account_id", req.PaymentAccountID,
		"charges_enabled", req.ChargesEnabled,
	)
	return dto.NewTenantResponse(t), nil
}

func (s *tenantService) ListTenants(ctx context.Context) ([]*dto.TenantResponse, error) {
	tenants, err := s.TenantRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]*dto.TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		resp = append(resp, dto.NewTenantResponse(t))
	}
	return resp, nil
}
