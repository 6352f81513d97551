package testutil

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/cache"
	"github.com/dojoflow/dojoflow/internal/config"
	"github.com/dojoflow/dojoflow/internal/domain/contact"
	"github.com/dojoflow/dojoflow/internal/domain/payment"
	"github.com/dojoflow/dojoflow/internal/domain/paymentmethod"
	"github.com/dojoflow/dojoflow/internal/domain/plan"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	"github.com/dojoflow/dojoflow/internal/domain/tenant"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/postgres"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	TenantRepo        tenant.Repository
	ContactRepo       contact.Repository
	PlanRepo          plan.Repository
	SubscriptionRepo  subscription.Repository
	BillingCycleRepo  subscription.BillingCycleRepository
	FreezeRepo        subscription.FreezeRepository
	PaymentMethodRepo paymentmethod.Repository
	PaymentRepo       payment.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx              context.Context
	stores           Stores
	webhookPublisher *InMemoryWebhookPublisher
	emailSender      *InMemoryEmailSender
	cache            cache.Cache
	db               postgres.IClient
	logger           *logger.Logger
	config           *config.Configuration
	now              time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	s.config = &config.Configuration{
		Logging: config.LoggingConfig{
			Level: "info",
		},
		Dunning: config.DunningConfig{
			GraceDays: 3,
			LeadDays:  3,
			Workers:   2,
		},
	}
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = types.SetTenantID(s.ctx, types.DefaultTenantID)
	s.ctx = types.SetUserID(s.ctx, types.DefaultUserID)
	s.ctx = types.SetRequestID(s.ctx, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		TenantRepo:        NewInMemoryTenantStore(),
		ContactRepo:       NewInMemoryContactStore(),
		PlanRepo:          NewInMemoryPlanStore(),
		SubscriptionRepo:  NewInMemorySubscriptionStore(),
		BillingCycleRepo:  NewInMemoryBillingCycleStore(),
		FreezeRepo:        NewInMemoryFreezeStore(),
		PaymentMethodRepo: NewInMemoryPaymentMethodStore(),
		PaymentRepo:       NewInMemoryPaymentStore(),
	}

	s.db = NewMockPostgresClient(s.logger)
	s.cache = cache.NewInMemoryCache()
	s.webhookPublisher = NewInMemoryWebhookPublisher()
	s.emailSender = NewInMemoryEmailSender()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.TenantRepo.(*InMemoryTenantStore).Clear()
	s.stores.ContactRepo.(*InMemoryContactStore).Clear()
	s.stores.PlanRepo.(*InMemoryPlanStore).Clear()
	s.stores.SubscriptionRepo.(*InMemorySubscriptionStore).Clear()
	s.stores.BillingCycleRepo.(*InMemoryBillingCycleStore).Clear()
	s.stores.FreezeRepo.(*InMemoryFreezeStore).Clear()
	s.stores.PaymentMethodRepo.(*InMemoryPaymentMethodStore).Clear()
	s.stores.PaymentRepo.(*InMemoryPaymentStore).Clear()
	s.webhookPublisher.Clear()
	s.emailSender.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetStores returns the in-memory stores
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetDB returns the mock database client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetCache returns the in-memory cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetWebhookPublisher returns the capturing webhook publisher
func (s *BaseServiceTestSuite) GetWebhookPublisher() *InMemoryWebhookPublisher {
	return s.webhookPublisher
}

// GetEmailSender returns the capturing email sender
func (s *BaseServiceTestSuite) GetEmailSender() *InMemoryEmailSender {
	return s.emailSender
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
