package service

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/domain/plan"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/integration/stripe"
	"github.com/dojoflow/dojoflow/internal/types"
)

// SubscriptionService manages membership enrollments and their schedules
type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error)
	CancelSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
}

type subscriptionService struct {
	ServiceParams
	schedule ScheduleService
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
		schedule:      NewScheduleService(params),
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.ContactRepo.Get(ctx, req.ContactID)
	if err != nil {
		return nil, err
	}
	p, err := s.PlanRepo.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	sub := &subscription.Subscription{
		ID:                        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		ContactID:                 c.ID,
		PlanID:                    p.ID,
		SubscriptionStatus:        types.SubscriptionStatusActive,
		Currency:                  p.Currency,
		StartDate:                 req.StartDate,
		CycleLengthMonths:         p.CycleLengthMonths,
		FixedTerm:                 p.IsFixedTerm(),
		AutoRenewal:               req.AutoRenewal,
		RenewalDiscountPercentage: p.RenewalDiscountPercentage,
		Metadata:                  req.Metadata,
		BaseModel:                 types.GetDefaultBaseModel(ctx),
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	if p.Recurring {
		// The provider owns the schedule: create a provider-native
		// subscription and let the reconciler record its invoices.
		if err := s.createProviderSubscription(ctx, sub, p, c.ID); err != nil {
			return nil, err
		}
	}

	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	var cycles []*subscription.BillingCycle
	if !p.Recurring {
		cycles, err = s.schedule.GenerateCycles(ctx, sub, p)
		if err != nil {
			return nil, err
		}
		if err := s.CycleRepo.CreateBulk(ctx, cycles); err != nil {
			return nil, err
		}
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"contact_id", c.ID,
		"plan_id", p.ID,
		"cycles", len(cycles),
	)
	return dto.NewSubscriptionResponse(sub, cycles), nil
}

func (s *subscriptionService) createProviderSubscription(ctx context.Context, sub *subscription.Subscription, p *plan.Plan, contactID string) error {
	route, err := s.StripeClient.ResolveRoute(ctx, types.GetTenantID(ctx))
	if err != nil {
		return err
	}

	c, err := s.ContactRepo.Get(ctx, contactID)
	if err != nil {
		return err
	}
	customerID, err := s.StripeCustomers.EnsureProviderCustomer(ctx, c, route)
	if err != nil {
		return err
	}

	method, err := s.PaymentMethodRepo.GetDefaultByContact(ctx, contactID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return ierr.NewError("no default payment method").
				WithHint("A stored payment method is required for recurring plans").
				Mark(ierr.ErrPaymentMethodRequired)
		}
		return err
	}

	providerSub, err := s.StripeSubscriptions.CreateSubscription(ctx, &stripe.ProviderSubscriptionRequest{
		CustomerID:      customerID,
		PaymentMethodID: method.ProviderMethodID,
		PlanID:          p.ID,
		PlanName:        p.Name,
		AmountCents:     p.BasePriceCents,
		Currency:        p.Currency,
		IntervalMonths:  p.CycleLengthMonths,
		Metadata: map[string]string{
			"dojoflow_subscription_id": sub.ID,
			"dojoflow_tenant_id":       types.GetTenantID(ctx),
		},
	}, route)
	if err != nil {
		return err
	}
	sub.ProviderSubscriptionID = &providerSub.ID
	return nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cycles, err := s.CycleRepo.ListBySubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub, cycles), nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.SubRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListSubscriptionsResponse{Total: total}
	for _, sub := range subs {
		resp.Items = append(resp.Items, dto.NewSubscriptionResponse(sub, nil))
	}
	return resp, nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.IsCancelled() {
		return nil, ierr.NewError("subscription already cancelled").
			WithHint("The subscription is already cancelled").
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	sub.SubscriptionStatus = types.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	sub.UpdatedAt = now
	sub.UpdatedBy = types.GetUserID(ctx)
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	cancelled, err := s.CycleRepo.CancelFutureCycles(ctx, sub.ID, now)
	if err != nil {
		return nil, err
	}

	if sub.ProviderSubscriptionID != nil {
		route, err := s.StripeClient.ResolveRoute(ctx, types.GetTenantID(ctx))
		if err == nil {
			if err := s.StripeSubscriptions.CancelSubscription(ctx, *sub.ProviderSubscriptionID, route); err != nil {
				// The provider will emit its own cancellation event; the
				// reconciler re-runs the local cancel then.
				s.Logger.Errorw("failed to cancel provider subscription",
					"error", err,
					"subscription_id", sub.ID,
					"provider_subscription_id", *sub.ProviderSubscriptionID,
				)
			}
		}
	}

	cycles, err := s.CycleRepo.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("cancelled subscription",
		"subscription_id", sub.ID,
		"cancelled_cycles", cancelled,
	)

	resp := dto.NewSubscriptionResponse(sub, cycles)
	s.publishWebhookEvent(ctx, types.WebhookEventSubscriptionEnd, resp)
	return resp, nil
}
