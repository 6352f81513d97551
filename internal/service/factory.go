package service

import (
	"github.com/dojoflow/dojoflow/internal/config"
	"github.com/dojoflow/dojoflow/internal/domain/contact"
	"github.com/dojoflow/dojoflow/internal/domain/payment"
	"github.com/dojoflow/dojoflow/internal/domain/paymentmethod"
	"github.com/dojoflow/dojoflow/internal/domain/plan"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	"github.com/dojoflow/dojoflow/internal/domain/tenant"
	"github.com/dojoflow/dojoflow/internal/httpclient"
	"github.com/dojoflow/dojoflow/internal/integration/stripe"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/notification"
	"github.com/dojoflow/dojoflow/internal/postgres"
	webhookPublisher "github.com/dojoflow/dojoflow/internal/webhook/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	TenantRepo        tenant.Repository
	ContactRepo       contact.Repository
	PlanRepo          plan.Repository
	SubRepo           subscription.Repository
	CycleRepo         subscription.BillingCycleRepository
	FreezeRepo        subscription.FreezeRepository
	PaymentMethodRepo paymentmethod.Repository
	PaymentRepo       payment.Repository

	// Payment provider integration
	StripeClient        *stripe.Client
	StripeCustomers     *stripe.CustomerService
	StripePayments      *stripe.PaymentService
	StripeSubscriptions *stripe.SubscriptionService

	// Outbound notifications
	WebhookPublisher webhookPublisher.WebhookPublisher
	EmailSender      notification.EmailSender

	// http client
	Client httpclient.Client
}

// NewServiceParams builds the common service dependency set
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	tenantRepo tenant.Repository,
	contactRepo contact.Repository,
	planRepo plan.Repository,
	subRepo subscription.Repository,
	cycleRepo subscription.BillingCycleRepository,
	freezeRepo subscription.FreezeRepository,
	paymentMethodRepo paymentmethod.Repository,
	paymentRepo payment.Repository,
	stripeClient *stripe.Client,
	stripeCustomers *stripe.CustomerService,
	stripePayments *stripe.PaymentService,
	stripeSubscriptions *stripe.SubscriptionService,
	webhookPublisher webhookPublisher.WebhookPublisher,
	emailSender notification.EmailSender,
	client httpclient.Client,
) ServiceParams {
	return ServiceParams{
		Logger:              logger,
		Config:              config,
		DB:                  db,
		TenantRepo:          tenantRepo,
		ContactRepo:         contactRepo,
		PlanRepo:            planRepo,
		SubRepo:             subRepo,
		CycleRepo:           cycleRepo,
		FreezeRepo:          freezeRepo,
		PaymentMethodRepo:   paymentMethodRepo,
		PaymentRepo:         paymentRepo,
		StripeClient:        stripeClient,
		StripeCustomers:     stripeCustomers,
		StripePayments:      stripePayments,
		StripeSubscriptions: stripeSubscriptions,
		WebhookPublisher:    webhookPublisher,
		EmailSender:         emailSender,
		Client:              client,
	}
}
