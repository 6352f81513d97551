package stripe

import (
	"context"

	"github.com/dojoflow/dojoflow/internal/cache"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/stripe/stripe-go/v82"
)

// SubscriptionService handles provider-native recurring subscriptions, where
// the provider owns the billing schedule instead of this engine.
type SubscriptionService struct {
	client *Client
	cache  cache.Cache
	logger *logger.Logger
}

// NewSubscriptionService creates a new Stripe subscription service
func NewSubscriptionService(client *Client, cache cache.Cache, logger *logger.Logger) *SubscriptionService {
	return &SubscriptionService{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// ProviderSubscriptionRequest describes a provider-native recurring
// subscription to be created.
type ProviderSubscriptionRequest struct {
	CustomerID      string
	PaymentMethodID string
	PlanID          string
	PlanName        string
	AmountCents     int64
	Currency        string
	IntervalMonths  int
	Metadata        map[string]string
}

// CreateSubscription creates a recurring subscription on the provider with an
// inline price. The provider then fires invoice events on its own schedule
// and the reconciler records them.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, req *ProviderSubscriptionRequest, route *Route) (*stripe.Subscription, error) {
	productID, err := s.ensureProduct(ctx, req.PlanID, req.PlanName, route)
	if err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionCreateParams{
		Customer:             stripe.String(req.CustomerID),
		DefaultPaymentMethod: stripe.String(req.PaymentMethodID),
		Items: []*stripe.SubscriptionCreateItemParams{
			{
				PriceData: &stripe.SubscriptionCreateItemPriceDataParams{
					Product:    stripe.String(productID),
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.AmountCents),
					Recurring: &stripe.SubscriptionCreateItemPriceDataRecurringParams{
						Interval:      stripe.String("month"),
						IntervalCount: stripe.Int64(int64(req.IntervalMonths)),
					},
				},
			},
		},
		Metadata: req.Metadata,
	}
	route.Apply(&params.Params)

	sub, err := s.client.API().V1Subscriptions.Create(ctx, params)
	if err != nil {
		s.logger.Errorw("failed to create provider subscription",
			"error", err,
			"customer_id", req.CustomerID,
			"plan_id", req.PlanID)
		return nil, ierr.WithError(err).
			WithHint("Failed to create subscription with the payment provider").
			Mark(ierr.ErrProviderTransient)
	}

	s.logger.Infow("created provider subscription",
		"provider_subscription_id", sub.ID,
		"customer_id", req.CustomerID,
		"plan_id", req.PlanID)

	return sub, nil
}

// CancelSubscription cancels a provider-owned subscription immediately
func (s *SubscriptionService) CancelSubscription(ctx context.Context, providerSubscriptionID string, route *Route) error {
	params := &stripe.SubscriptionCancelParams{}
	route.Apply(&params.Params)

	_, err := s.client.API().V1Subscriptions.Cancel(ctx, providerSubscriptionID, params)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.HTTPStatusCode == 404 {
			// Already gone on the provider side, nothing to undo
			return nil
		}
		return ierr.WithError(err).
			WithHintf("Failed to cancel provider subscription %s", providerSubscriptionID).
			Mark(ierr.ErrProviderTransient)
	}
	return nil
}

// ensureProduct resolves the provider product for a plan, creating it on
// first use. The mapping is cached per tenant and plan.
func (s *SubscriptionService) ensureProduct(ctx context.Context, planID, planName string, route *Route) (string, error) {
	key := cache.GenerateKey(cache.PrefixPlan, route.TenantID, planID)
	if cached, ok := s.cache.Get(ctx, key); ok {
		if productID, ok := cached.(string); ok {
			return productID, nil
		}
	}

	params := &stripe.ProductCreateParams{
		Name: stripe.String(planName),
		Metadata: map[string]string{
			"dojoflow_plan_id":   planID,
			"dojoflow_tenant_id": route.TenantID,
		},
	}
	route.Apply(&params.Params)

	product, err := s.client.API().V1Products.Create(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to create product with the payment provider").
			Mark(ierr.ErrProviderTransient)
	}

	s.cache.Set(ctx, key, product.ID, 0)
	return product.ID, nil
}
