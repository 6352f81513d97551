package stripe

import (
	"context"

	"github.com/dojoflow/dojoflow/internal/domain/contact"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"
)

// CustomerService handles Stripe customer operations
type CustomerService struct {
	client      *Client
	contactRepo contact.Repository
	logger      *logger.Logger
}

// NewCustomerService creates a new Stripe customer service
func NewCustomerService(
	client *Client,
	contactRepo contact.Repository,
	logger *logger.Logger,
) *CustomerService {
	return &CustomerService{
		client:      client,
		contactRepo: contactRepo,
		logger:      logger,
	}
}

// EnsureProviderCustomer resolves the provider customer for a contact,
// creating one if needed. Resolution is idempotent: a stored id wins, then an
// email match inside the tenant's sub-account, and only then is a new
// customer created. Retried enrollments therefore never mint duplicates.
func (s *CustomerService) EnsureProviderCustomer(ctx context.Context, c *contact.Contact, route *Route) (string, error) {
	if c.ProviderCustomerID != nil && *c.ProviderCustomerID != "" {
		return *c.ProviderCustomerID, nil
	}

	existing, err := s.findCustomerByEmail(ctx, c.Email, route)
	if err != nil && !ierr.IsNotFound(err) {
		return "", err
	}

	var providerID string
	if existing != nil {
		s.logger.Infow("reusing provider customer matched by email",
			"contact_id", c.ID,
			"provider_customer_id", existing.ID)
		providerID = existing.ID
	} else {
		created, err := s.createCustomer(ctx, c, route)
		if err != nil {
			return "", err
		}
		providerID = created.ID
	}

	c.ProviderCustomerID = lo.ToPtr(providerID)
	if err := s.contactRepo.Update(ctx, c); err != nil {
		return "", err
	}

	return providerID, nil
}

func (s *CustomerService) findCustomerByEmail(ctx context.Context, email string, route *Route) (*stripe.Customer, error) {
	params := &stripe.CustomerSearchParams{}
	params.Query = "email:'" + email + "'"
	params.Limit = stripe.Int64(1)
	route.ApplySearch(&params.SearchParams)

	iter := s.client.API().V1Customers.Search(ctx, params)
	for customer, err := range iter {
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to search provider customers").
				Mark(ierr.ErrProviderTransient)
		}
		return customer, nil
	}

	return nil, ierr.NewError("customer not found").Mark(ierr.ErrNotFound)
}

func (s *CustomerService) createCustomer(ctx context.Context, c *contact.Contact, route *Route) (*stripe.Customer, error) {
	params := &stripe.CustomerCreateParams{
		Name:  stripe.String(c.Name),
		Email: stripe.String(c.Email),
		Metadata: map[string]string{
			"dojoflow_contact_id": c.ID,
			"dojoflow_tenant_id":  c.TenantID,
		},
	}
	route.Apply(&params.Params)

	customer, err := s.client.API().V1Customers.Create(ctx, params)
	if err != nil {
		s.logger.Errorw("failed to create provider customer",
			"error", err,
			"contact_id", c.ID)
		return nil, ierr.WithError(err).
			WithHint("Failed to create customer with the payment provider").
			Mark(ierr.ErrProviderTransient)
	}

	s.logger.Infow("created provider customer",
		"contact_id", c.ID,
		"provider_customer_id", customer.ID)

	return customer, nil
}
