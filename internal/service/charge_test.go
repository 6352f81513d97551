package service

import (
	"testing"
	"time"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/domain/contact"
	"github.com/dojoflow/dojoflow/internal/domain/payment"
	"github.com/dojoflow/dojoflow/internal/domain/paymentmethod"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	"github.com/dojoflow/dojoflow/internal/domain/tenant"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/idempotency"
	"github.com/dojoflow/dojoflow/internal/integration/stripe"
	"github.com/dojoflow/dojoflow/internal/testutil"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/stretchr/testify/suite"
)

type ChargeServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  ChargeService
	testData struct {
		tenant  *tenant.Tenant
		contact *contact.Contact
	}
}

func TestChargeService(t *testing.T) {
	suite.Run(t, new(ChargeServiceSuite))
}

func (s *ChargeServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stripeClient := stripe.NewClient(s.GetConfig(), s.GetStores().TenantRepo, s.GetCache(), s.GetLogger())
	s.service = NewChargeService(ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		DB:                s.GetDB(),
		TenantRepo:        s.GetStores().TenantRepo,
		ContactRepo:       s.GetStores().ContactRepo,
		SubRepo:           s.GetStores().SubscriptionRepo,
		CycleRepo:         s.GetStores().BillingCycleRepo,
		PaymentMethodRepo: s.GetStores().PaymentMethodRepo,
		PaymentRepo:       s.GetStores().PaymentRepo,
		StripeClient:      stripeClient,
		StripeCustomers:   stripe.NewCustomerService(stripeClient, s.GetStores().ContactRepo, s.GetLogger()),
		StripePayments:    stripe.NewPaymentService(stripeClient, s.GetLogger()),
		WebhookPublisher:  s.GetWebhookPublisher(),
	})
	s.setupTestData()
}

func (s *ChargeServiceSuite) setupTestData() {
	ctx := s.GetContext()

	s.testData.tenant = &tenant.Tenant{
		ID:           types.GetTenantID(ctx),
		Name:         "North Side Dojo",
		BillingEmail: "billing@northside.example.com",
		Currency:     "usd",
		Status:       types.StatusPublished,
	}
	s.NoError(s.GetStores().TenantRepo.Create(ctx, s.testData.tenant))

	s.testData.contact = &contact.Contact{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CONTACT),
		Name:      "Sam Rivera",
		Email:     "sam@example.com",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().ContactRepo.Create(ctx, s.testData.contact))
}

func (s *ChargeServiceSuite) storeDefaultMethod(methodType types.PaymentMethodType) *paymentmethod.PaymentMethod {
	ctx := s.GetContext()
	method := &paymentmethod.PaymentMethod{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_METHOD),
		ContactID:        s.testData.contact.ID,
		ProviderMethodID: "pm_stored_1",
		MethodType:       methodType,
		IsDefault:        true,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PaymentMethodRepo.Create(ctx, method))
	return method
}

func (s *ChargeServiceSuite) TestAdHocChargeWithoutStoredMethod() {
	ctx := s.GetContext()

	_, err := s.service.ChargeAdHoc(ctx, dto.ChargeRequest{
		ContactID:   s.testData.contact.ID,
		AmountCents: 2500,
		Description: "Grading fee",
	})
	s.Error(err)
	s.True(ierr.IsPaymentMethodRequired(err))

	// The failed resolution must not leave a payment row behind.
	count, err := s.GetStores().PaymentRepo.Count(ctx, &types.PaymentFilter{})
	s.NoError(err)
	s.Equal(0, count)
}

func (s *ChargeServiceSuite) TestAdHocChargeWithOfflineDefaultMethod() {
	ctx := s.GetContext()
	s.storeDefaultMethod(types.PaymentMethodTypeOfflineCash)

	_, err := s.service.ChargeAdHoc(ctx, dto.ChargeRequest{
		ContactID:   s.testData.contact.ID,
		AmountCents: 2500,
		Description: "Grading fee",
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	count, err := s.GetStores().PaymentRepo.Count(ctx, &types.PaymentFilter{})
	s.NoError(err)
	s.Equal(0, count)
}

func (s *ChargeServiceSuite) TestAdHocChargeRejectsNonPositiveAmount() {
	ctx := s.GetContext()
	s.storeDefaultMethod(types.PaymentMethodTypeCard)

	_, err := s.service.ChargeAdHoc(ctx, dto.ChargeRequest{
		ContactID:   s.testData.contact.ID,
		AmountCents: 0,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ChargeServiceSuite) TestAdHocChargeReplayReturnsRecordedOutcome() {
	ctx := s.GetContext()
	s.storeDefaultMethod(types.PaymentMethodTypeCard)

	req := dto.ChargeRequest{
		ContactID:      s.testData.contact.ID,
		AmountCents:    2500,
		Description:    "Grading fee",
		IdempotencyKey: "grading-2024-06",
	}

	// Seed the row a completed first attempt would have left behind, keyed the
	// same way the service keys it.
	key := idempotency.NewGenerator().GenerateKey(idempotency.ScopeAdHocCharge, map[string]interface{}{
		"contact_id":  req.ContactID,
		"amount":      req.AmountCents,
		"description": req.Description,
		"request_key": req.IdempotencyKey,
	})
	now := time.Now().UTC()
	s.NoError(s.GetStores().PaymentRepo.Create(ctx, &payment.Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		IdempotencyKey:    key,
		DestinationType:   types.PaymentDestinationTypeAdHoc,
		ContactID:         s.testData.contact.ID,
		ChargeShape:       types.ChargeShapeOneTime,
		PaymentMethodType: types.PaymentMethodTypeCard,
		AmountCents:       2500,
		Currency:          "usd",
		PaymentStatus:     types.PaymentStatusSucceeded,
		SucceededAt:       &now,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}))

	resp, err := s.service.ChargeAdHoc(ctx, req)
	s.NoError(err)
	s.Equal(types.PaymentStatusSucceeded, resp.Status)

	count, err := s.GetStores().PaymentRepo.Count(ctx, &types.PaymentFilter{})
	s.NoError(err)
	s.Equal(1, count)
}

func (s *ChargeServiceSuite) TestAdHocChargeDistinctKeysAreSeparateCharges() {
	ctx := s.GetContext()
	s.storeDefaultMethod(types.PaymentMethodTypeCard)

	// A recorded charge for this contact and amount under one key.
	firstKey := idempotency.NewGenerator().GenerateKey(idempotency.ScopeAdHocCharge, map[string]interface{}{
		"contact_id":  s.testData.contact.ID,
		"amount":      int64(2500),
		"description": "Grading fee",
		"request_key": "grading-2024-06",
	})
	now := time.Now().UTC()
	s.NoError(s.GetStores().PaymentRepo.Create(ctx, &payment.Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		IdempotencyKey:    firstKey,
		DestinationType:   types.PaymentDestinationTypeAdHoc,
		ContactID:         s.testData.contact.ID,
		ChargeShape:       types.ChargeShapeOneTime,
		PaymentMethodType: types.PaymentMethodTypeCard,
		AmountCents:       2500,
		Currency:          "usd",
		PaymentStatus:     types.PaymentStatusSucceeded,
		SucceededAt:       &now,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}))

	// The same contact, amount and description under a new key is a new
	// charge, not a replay: it runs into the charge gate instead of
	// returning the recorded outcome.
	_, err := s.service.ChargeAdHoc(ctx, dto.ChargeRequest{
		ContactID:      s.testData.contact.ID,
		AmountCents:    2500,
		Description:    "Grading fee",
		IdempotencyKey: "grading-2024-12",
	})
	s.Error(err)
	s.True(ierr.IsTenantNotPayable(err))
}

func (s *ChargeServiceSuite) TestChargeCycleRejectsPaidCycle() {
	ctx := s.GetContext()
	s.storeDefaultMethod(types.PaymentMethodTypeCard)

	_, cycle := s.createSubscriptionWithCycle(types.BillingCycleStatusPaid)

	_, err := s.service.ChargeCycle(ctx, cycle.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *ChargeServiceSuite) TestChargeCycleRejectsFrozenSubscription() {
	ctx := s.GetContext()
	s.storeDefaultMethod(types.PaymentMethodTypeCard)

	sub, cycle := s.createSubscriptionWithCycle(types.BillingCycleStatusPending)
	sub.SubscriptionStatus = types.SubscriptionStatusFrozen
	s.NoError(s.GetStores().SubscriptionRepo.Update(ctx, sub))

	_, err := s.service.ChargeCycle(ctx, cycle.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *ChargeServiceSuite) TestChargeCycleReplayReturnsRecordedOutcome() {
	ctx := s.GetContext()
	method := s.storeDefaultMethod(types.PaymentMethodTypeCard)

	sub, cycle := s.createSubscriptionWithCycle(types.BillingCycleStatusPending)

	key := idempotency.NewGenerator().GenerateKey(idempotency.ScopeCycleCharge, map[string]interface{}{
		"cycle_id": cycle.ID,
	})
	s.NoError(s.GetStores().PaymentRepo.Create(ctx, &payment.Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		IdempotencyKey:    key,
		DestinationType:   types.PaymentDestinationTypeBillingCycle,
		DestinationID:     cycle.ID,
		ContactID:         s.testData.contact.ID,
		SubscriptionID:    &sub.ID,
		ChargeShape:       types.ChargeShapeInstallment,
		PaymentMethodID:   &method.ID,
		PaymentMethodType: method.MethodType,
		AmountCents:       cycle.AmountCents,
		Currency:          cycle.Currency,
		PaymentStatus:     types.PaymentStatusProcessing,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}))

	resp, err := s.service.ChargeCycle(ctx, cycle.ID)
	s.NoError(err)
	s.Equal(types.PaymentStatusProcessing, resp.Status)

	count, err := s.GetStores().PaymentRepo.Count(ctx, &types.PaymentFilter{})
	s.NoError(err)
	s.Equal(1, count)
}

func (s *ChargeServiceSuite) createSubscriptionWithCycle(status types.BillingCycleStatus) (*subscription.Subscription, *subscription.BillingCycle) {
	ctx := s.GetContext()

	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		ContactID:          s.testData.contact.ID,
		PlanID:             "plan_test",
		SubscriptionStatus: types.SubscriptionStatusActive,
		Currency:           "usd",
		StartDate:          time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CycleLengthMonths:  1,
		FixedTerm:          true,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, sub))

	cycle := &subscription.BillingCycle{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_CYCLE),
		SubscriptionID:    sub.ID,
		ScheduledDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		AmountCents:       5000,
		Currency:          "usd",
		InstallmentNumber: 1,
		TotalInstallments: 12,
		CycleStatus:       status,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().BillingCycleRepo.CreateBulk(ctx, []*subscription.BillingCycle{cycle}))
	return sub, cycle
}
