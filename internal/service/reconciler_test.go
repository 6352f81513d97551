package service

import (
	"testing"
	"time"

	"github.com/dojoflow/dojoflow/internal/domain/contact"
	"github.com/dojoflow/dojoflow/internal/domain/payment"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	"github.com/dojoflow/dojoflow/internal/integration/stripe"
	providerwebhook "github.com/dojoflow/dojoflow/internal/integration/stripe/webhook"
	"github.com/dojoflow/dojoflow/internal/testutil"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type ReconcilerServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  ReconcilerService
	testData struct {
		contact *contact.Contact
		sub     *subscription.Subscription
		cycle   *subscription.BillingCycle
	}
}

func TestReconcilerService(t *testing.T) {
	suite.Run(t, new(ReconcilerServiceSuite))
}

func (s *ReconcilerServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	// The route resolver only touches the tenant store and the cache, so a
	// real client is safe here. No tenant is linked to a provider account in
	// these tests, which keeps card enrichment out of the picture.
	stripeClient := stripe.NewClient(s.GetConfig(), s.GetStores().TenantRepo, s.GetCache(), s.GetLogger())

	s.service = NewReconcilerService(ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		DB:                s.GetDB(),
		ContactRepo:       s.GetStores().ContactRepo,
		SubRepo:           s.GetStores().SubscriptionRepo,
		CycleRepo:         s.GetStores().BillingCycleRepo,
		PaymentMethodRepo: s.GetStores().PaymentMethodRepo,
		PaymentRepo:       s.GetStores().PaymentRepo,
		StripeClient:      stripeClient,
		StripePayments:    stripe.NewPaymentService(stripeClient, s.GetLogger()),
		WebhookPublisher:  s.GetWebhookPublisher(),
	})
	s.setupTestData()
}

func (s *ReconcilerServiceSuite) setupTestData() {
	ctx := s.GetContext()

	s.testData.contact = &contact.Contact{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CONTACT),
		Name:      "Jordan Lee",
		Email:     "jordan@example.com",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().ContactRepo.Create(ctx, s.testData.contact))

	s.testData.sub = &subscription.Subscription{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		ContactID:              s.testData.contact.ID,
		PlanID:                 "plan_test",
		SubscriptionStatus:     types.SubscriptionStatusActive,
		Currency:               "usd",
		StartDate:              time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CycleLengthMonths:      1,
		FixedTerm:              true,
		ProviderSubscriptionID: lo.ToPtr("sub_provider_1"),
		BaseModel:              types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, s.testData.sub))

	s.testData.cycle = &subscription.BillingCycle{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_CYCLE),
		SubscriptionID:    s.testData.sub.ID,
		ScheduledDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		AmountCents:       5000,
		Currency:          "usd",
		InstallmentNumber: 1,
		TotalInstallments: 12,
		CycleStatus:       types.BillingCycleStatusPending,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().BillingCycleRepo.CreateBulk(ctx, []*subscription.BillingCycle{s.testData.cycle}))
}

func (s *ReconcilerServiceSuite) createSettledPayment(gatewayID string) *payment.Payment {
	ctx := s.GetContext()
	now := time.Now().UTC()
	p := &payment.Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		IdempotencyKey:    gatewayID,
		DestinationType:   types.PaymentDestinationTypeBillingCycle,
		DestinationID:     s.testData.cycle.ID,
		ContactID:         s.testData.contact.ID,
		SubscriptionID:    &s.testData.sub.ID,
		ChargeShape:       types.ChargeShapeInstallment,
		PaymentMethodType: types.PaymentMethodTypeCard,
		GatewayPaymentID:  &gatewayID,
		AmountCents:       5000,
		Currency:          "usd",
		PaymentStatus:     types.PaymentStatusSucceeded,
		SucceededAt:       &now,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PaymentRepo.Create(ctx, p))

	s.testData.cycle.CycleStatus = types.BillingCycleStatusPaid
	s.testData.cycle.PaymentID = &p.ID
	s.testData.cycle.PaidAt = &now
	s.NoError(s.GetStores().BillingCycleRepo.Update(ctx, s.testData.cycle))
	return p
}

func (s *ReconcilerServiceSuite) TestPaymentSucceededRedeliveryIsNoOp() {
	ctx := s.GetContext()
	s.createSettledPayment("pi_settled_1")

	err := s.service.ProcessEvent(ctx, &providerwebhook.ProviderEvent{
		ID:               "evt_1",
		Type:             types.ProviderEventPaymentSucceeded,
		GatewayPaymentID: "pi_settled_1",
		AmountCents:      5000,
		Currency:         "usd",
	})
	s.NoError(err)

	count, err := s.GetStores().PaymentRepo.Count(ctx, &types.PaymentFilter{ContactID: lo.ToPtr(s.testData.contact.ID)})
	s.NoError(err)
	s.Equal(1, count)

	cycle, err := s.GetStores().BillingCycleRepo.Get(ctx, s.testData.cycle.ID)
	s.NoError(err)
	s.Equal(types.BillingCycleStatusPaid, cycle.CycleStatus)
}

func (s *ReconcilerServiceSuite) TestInvoicePaidCreatesAndSettlesPayment() {
	ctx := s.GetContext()

	event := &providerwebhook.ProviderEvent{
		ID:                     "evt_2",
		Type:                   types.ProviderEventInvoicePaid,
		GatewayPaymentID:       "in_provider_1",
		ProviderSubscriptionID: "sub_provider_1",
		AmountCents:            5000,
		Currency:               "usd",
	}
	s.NoError(s.service.ProcessEvent(ctx, event))

	p, err := s.GetStores().PaymentRepo.GetByGatewayPaymentID(ctx, "in_provider_1")
	s.NoError(err)
	s.Equal(types.PaymentStatusSucceeded, p.PaymentStatus)
	s.Equal(s.testData.contact.ID, p.ContactID)
	s.Equal(types.ChargeShapeProviderRecurring, p.ChargeShape)
	s.Equal(s.testData.cycle.ID, p.DestinationID)

	cycle, err := s.GetStores().BillingCycleRepo.Get(ctx, s.testData.cycle.ID)
	s.NoError(err)
	s.Equal(types.BillingCycleStatusPaid, cycle.CycleStatus)
	s.Equal(p.ID, *cycle.PaymentID)

	// Redelivery of the same invoice produces no second row.
	s.NoError(s.service.ProcessEvent(ctx, event))
	count, err := s.GetStores().PaymentRepo.Count(ctx, &types.PaymentFilter{ContactID: lo.ToPtr(s.testData.contact.ID)})
	s.NoError(err)
	s.Equal(1, count)
}

func (s *ReconcilerServiceSuite) TestUnmappedChargeIsAcknowledged() {
	ctx := s.GetContext()

	err := s.service.ProcessEvent(ctx, &providerwebhook.ProviderEvent{
		ID:                     "evt_3",
		Type:                   types.ProviderEventPaymentSucceeded,
		GatewayPaymentID:       "pi_unknown",
		ProviderSubscriptionID: "sub_unknown",
		AmountCents:            1234,
		Currency:               "usd",
	})
	s.NoError(err)

	count, err := s.GetStores().PaymentRepo.Count(ctx, &types.PaymentFilter{})
	s.NoError(err)
	s.Equal(0, count)
}

func (s *ReconcilerServiceSuite) TestPaymentFailedMarksPastDueCycleOverdue() {
	ctx := s.GetContext()
	gatewayID := "pi_failed_1"
	p := &payment.Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		IdempotencyKey:    gatewayID,
		DestinationType:   types.PaymentDestinationTypeBillingCycle,
		DestinationID:     s.testData.cycle.ID,
		ContactID:         s.testData.contact.ID,
		SubscriptionID:    &s.testData.sub.ID,
		ChargeShape:       types.ChargeShapeInstallment,
		PaymentMethodType: types.PaymentMethodTypeCard,
		GatewayPaymentID:  &gatewayID,
		AmountCents:       5000,
		Currency:          "usd",
		PaymentStatus:     types.PaymentStatusPending,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PaymentRepo.Create(ctx, p))

	event := &providerwebhook.ProviderEvent{
		ID:               "evt_4",
		Type:             types.ProviderEventPaymentFailed,
		GatewayPaymentID: gatewayID,
		AmountCents:      5000,
		Currency:         "usd",
		ErrorMessage:     "card_declined",
	}
	s.NoError(s.service.ProcessEvent(ctx, event))

	updated, err := s.GetStores().PaymentRepo.Get(ctx, p.ID)
	s.NoError(err)
	s.Equal(types.PaymentStatusFailed, updated.PaymentStatus)
	s.Equal("card_declined", *updated.ErrorMessage)

	cycle, err := s.GetStores().BillingCycleRepo.Get(ctx, s.testData.cycle.ID)
	s.NoError(err)
	s.Equal(types.BillingCycleStatusOverdue, cycle.CycleStatus)
	s.Equal(1, cycle.RetryCount)

	// A redelivered failure does not bump the retry count again.
	s.NoError(s.service.ProcessEvent(ctx, event))
	cycle, err = s.GetStores().BillingCycleRepo.Get(ctx, s.testData.cycle.ID)
	s.NoError(err)
	s.Equal(1, cycle.RetryCount)
}

func (s *ReconcilerServiceSuite) TestPaymentFailedKeepsFutureCyclePending() {
	ctx := s.GetContext()

	s.testData.cycle.ScheduledDate = time.Now().UTC().AddDate(0, 1, 0)
	s.NoError(s.GetStores().BillingCycleRepo.Update(ctx, s.testData.cycle))

	gatewayID := "pi_failed_2"
	p := &payment.Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		IdempotencyKey:    gatewayID,
		DestinationType:   types.PaymentDestinationTypeBillingCycle,
		DestinationID:     s.testData.cycle.ID,
		ContactID:         s.testData.contact.ID,
		ChargeShape:       types.ChargeShapeInstallment,
		PaymentMethodType: types.PaymentMethodTypeCard,
		GatewayPaymentID:  &gatewayID,
		AmountCents:       5000,
		Currency:          "usd",
		PaymentStatus:     types.PaymentStatusPending,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PaymentRepo.Create(ctx, p))

	s.NoError(s.service.ProcessEvent(ctx, &providerwebhook.ProviderEvent{
		ID:               "evt_5",
		Type:             types.ProviderEventPaymentFailed,
		GatewayPaymentID: gatewayID,
	}))

	cycle, err := s.GetStores().BillingCycleRepo.Get(ctx, s.testData.cycle.ID)
	s.NoError(err)
	s.Equal(types.BillingCycleStatusPending, cycle.CycleStatus)
	s.Equal(1, cycle.RetryCount)
}

func (s *ReconcilerServiceSuite) TestSubscriptionDeletedCancelsFutureCycles() {
	ctx := s.GetContext()

	future := &subscription.BillingCycle{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_CYCLE),
		SubscriptionID:    s.testData.sub.ID,
		ScheduledDate:     time.Now().UTC().AddDate(0, 2, 0),
		AmountCents:       5000,
		Currency:          "usd",
		InstallmentNumber: 2,
		TotalInstallments: 12,
		CycleStatus:       types.BillingCycleStatusPending,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().BillingCycleRepo.CreateBulk(ctx, []*subscription.BillingCycle{future}))
	s.createSettledPayment("pi_settled_2")

	event := &providerwebhook.ProviderEvent{
		ID:                     "evt_6",
		Type:                   types.ProviderEventSubscriptionDeleted,
		ProviderSubscriptionID: "sub_provider_1",
	}
	s.NoError(s.service.ProcessEvent(ctx, event))

	sub, err := s.GetStores().SubscriptionRepo.Get(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, sub.SubscriptionStatus)
	s.NotNil(sub.CancelledAt)

	cycle, err := s.GetStores().BillingCycleRepo.Get(ctx, future.ID)
	s.NoError(err)
	s.Equal(types.BillingCycleStatusCancelled, cycle.CycleStatus)

	// The settled cycle keeps its paid state.
	paid, err := s.GetStores().BillingCycleRepo.Get(ctx, s.testData.cycle.ID)
	s.NoError(err)
	s.Equal(types.BillingCycleStatusPaid, paid.CycleStatus)

	// Replay is harmless once the subscription is already cancelled.
	s.NoError(s.service.ProcessEvent(ctx, event))
}

func (s *ReconcilerServiceSuite) TestSetupSucceededStoresPaymentMethod() {
	ctx := s.GetContext()

	event := &providerwebhook.ProviderEvent{
		ID:              "evt_7",
		Type:            types.ProviderEventSetupSucceeded,
		PaymentMethodID: "pm_provider_1",
		Metadata: map[string]string{
			"dojoflow_contact_id": s.testData.contact.ID,
			"dojoflow_tenant_id":  types.GetTenantID(ctx),
		},
	}
	s.NoError(s.service.ProcessEvent(ctx, event))

	methods, err := s.GetStores().PaymentMethodRepo.ListByContact(ctx, s.testData.contact.ID)
	s.NoError(err)
	s.Len(methods, 1)
	s.Equal("pm_provider_1", methods[0].ProviderMethodID)
	s.True(methods[0].IsDefault)

	// Redelivery does not store the method twice.
	s.NoError(s.service.ProcessEvent(ctx, event))
	methods, err = s.GetStores().PaymentMethodRepo.ListByContact(ctx, s.testData.contact.ID)
	s.NoError(err)
	s.Len(methods, 1)
}

func (s *ReconcilerServiceSuite) TestSetupSucceededWithoutMetadataIsIgnored() {
	ctx := s.GetContext()

	s.NoError(s.service.ProcessEvent(ctx, &providerwebhook.ProviderEvent{
		ID:              "evt_8",
		Type:            types.ProviderEventSetupSucceeded,
		PaymentMethodID: "pm_provider_2",
	}))

	methods, err := s.GetStores().PaymentMethodRepo.ListByContact(ctx, s.testData.contact.ID)
	s.NoError(err)
	s.Len(methods, 0)
}

func (s *ReconcilerServiceSuite) TestIgnoredEventIsNoOp() {
	ctx := s.GetContext()

	s.NoError(s.service.ProcessEvent(ctx, &providerwebhook.ProviderEvent{
		ID:   "evt_9",
		Type: types.ProviderEventIgnored,
	}))

	count, err := s.GetStores().PaymentRepo.Count(ctx, &types.PaymentFilter{})
	s.NoError(err)
	s.Equal(0, count)
}
