package stripe

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/cache"
	"github.com/dojoflow/dojoflow/internal/config"
	"github.com/dojoflow/dojoflow/internal/domain/tenant"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/stripe/stripe-go/v82"
)

// routeCacheTTL bounds how stale a cached tenant route may get. Tenant
// updates also invalidate the entry eagerly.
const routeCacheTTL = 5 * time.Minute

// Route captures how charges for one tenant reach the provider. Tenants with
// a connected sub-account are routed through it via the Stripe-Account
// header; tenants without one use the platform account directly.
type Route struct {
	TenantID       string
	AccountID      *string
	ChargesEnabled bool
}

// Client handles Stripe API client setup and per-tenant charge routing
type Client struct {
	api        *stripe.Client
	cfg        *config.Configuration
	tenantRepo tenant.Repository
	cache      cache.Cache
	logger     *logger.Logger
}

// NewClient creates a new Stripe client
func NewClient(
	cfg *config.Configuration,
	tenantRepo tenant.Repository,
	cache cache.Cache,
	logger *logger.Logger,
) *Client {
	return &Client{
		api:        stripe.NewClient(cfg.Stripe.SecretKey, nil),
		cfg:        cfg,
		tenantRepo: tenantRepo,
		cache:      cache,
		logger:     logger,
	}
}

// API returns the platform Stripe client. Sub-account routing happens per
// request through Route.Apply.
func (c *Client) API() *stripe.Client {
	return c.api
}

// WebhookSecret returns the endpoint secret used to verify inbound events
func (c *Client) WebhookSecret() string {
	return c.cfg.Stripe.WebhookSecret
}

// ResolveRoute resolves the charge route for a tenant. Every charge path goes
// through here, so a tenant whose onboarding is incomplete can never
// originate a charge.
func (c *Client) ResolveRoute(ctx context.Context, tenantID string) (*Route, error) {
	key := cache.GenerateKey(cache.PrefixTenantRouting, tenantID)
	if cached, ok := c.cache.Get(ctx, key); ok {
		if route, ok := cached.(*Route); ok {
			return c.gateRoute(route)
		}
	}

	t, err := c.tenantRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	route := &Route{
		TenantID:       t.ID,
		AccountID:      t.PaymentAccountID,
		ChargesEnabled: t.ChargesEnabled,
	}
	c.cache.Set(ctx, key, route, routeCacheTTL)

	return c.gateRoute(route)
}

// InvalidateRoute drops the cached route for a tenant, forcing the next
// charge to re-read the tenant row.
func (c *Client) InvalidateRoute(ctx context.Context, tenantID string) {
	c.cache.Delete(ctx, cache.GenerateKey(cache.PrefixTenantRouting, tenantID))
}

func (c *Client) gateRoute(route *Route) (*Route, error) {
	if !route.ChargesEnabled {
		return nil, ierr.NewError("tenant cannot accept charges").
			WithHint("The academy has not completed payment onboarding").
			WithReportableDetails(map[string]any{
				"tenant_id": route.TenantID,
			}).
			Mark(ierr.ErrTenantNotPayable)
	}
	return route, nil
}

// Apply stamps the route's sub-account onto a request's params
func (r *Route) Apply(params *stripe.Params) {
	if r.AccountID != nil && *r.AccountID != "" {
		params.SetStripeAccount(*r.AccountID)
	}
}

// ApplySearch is Apply for search requests, which carry their own account
// field instead of embedding stripe.Params.
func (r *Route) ApplySearch(params *stripe.SearchParams) {
	if r.AccountID != nil && *r.AccountID != "" {
		params.StripeAccount = r.AccountID
	}
}
