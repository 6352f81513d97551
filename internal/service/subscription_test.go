package service

import (
	"testing"
	"time"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/domain/contact"
	"github.com/dojoflow/dojoflow/internal/domain/plan"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/testutil"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  SubscriptionService
	testData struct {
		contact *contact.Contact
		plan    *plan.Plan
	}
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewSubscriptionService(ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		DB:                s.GetDB(),
		ContactRepo:       s.GetStores().ContactRepo,
		PlanRepo:          s.GetStores().PlanRepo,
		SubRepo:           s.GetStores().SubscriptionRepo,
		CycleRepo:         s.GetStores().BillingCycleRepo,
		PaymentMethodRepo: s.GetStores().PaymentMethodRepo,
		WebhookPublisher:  s.GetWebhookPublisher(),
	})
	s.setupTestData()
}

func (s *SubscriptionServiceSuite) setupTestData() {
	ctx := s.GetContext()

	s.testData.contact = &contact.Contact{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CONTACT),
		Name:      "Sam Rivera",
		Email:     "sam@example.com",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().ContactRepo.Create(ctx, s.testData.contact))

	s.testData.plan = &plan.Plan{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:              "12 Month Membership",
		BasePriceCents:    10000,
		Currency:          "usd",
		CycleLengthMonths: 1,
		TotalInstallments: lo.ToPtr(12),
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PlanRepo.Create(ctx, s.testData.plan))
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionGeneratesSchedule() {
	ctx := s.GetContext()

	resp, err := s.service.CreateSubscription(ctx, dto.CreateSubscriptionRequest{
		ContactID: s.testData.contact.ID,
		PlanID:    s.testData.plan.ID,
		StartDate: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
	s.True(resp.FixedTerm)
	s.Len(resp.Cycles, 12)
	s.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), resp.Cycles[1].ScheduledDate)

	stored, err := s.GetStores().BillingCycleRepo.ListBySubscription(ctx, resp.ID)
	s.NoError(err)
	s.Len(stored, 12)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionUnknownPlan() {
	_, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		ContactID: s.testData.contact.ID,
		PlanID:    "plan_missing",
		StartDate: time.Now().UTC(),
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionServiceSuite) TestCancelSubscriptionCancelsFutureCycles() {
	ctx := s.GetContext()

	created, err := s.service.CreateSubscription(ctx, dto.CreateSubscriptionRequest{
		ContactID: s.testData.contact.ID,
		PlanID:    s.testData.plan.ID,
		StartDate: time.Now().UTC().AddDate(0, 0, 7),
	})
	s.NoError(err)

	cancelled, err := s.service.CancelSubscription(ctx, created.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, cancelled.SubscriptionStatus)

	for _, c := range cancelled.Cycles {
		s.Equal(types.BillingCycleStatusCancelled, c.CycleStatus)
	}
	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventSubscriptionEnd)
}

func (s *SubscriptionServiceSuite) TestCancelTwiceIsRejected() {
	ctx := s.GetContext()

	created, err := s.service.CreateSubscription(ctx, dto.CreateSubscriptionRequest{
		ContactID: s.testData.contact.ID,
		PlanID:    s.testData.plan.ID,
		StartDate: time.Now().UTC(),
	})
	s.NoError(err)

	_, err = s.service.CancelSubscription(ctx, created.ID)
	s.NoError(err)

	_, err = s.service.CancelSubscription(ctx, created.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestListSubscriptionsByContact() {
	ctx := s.GetContext()

	for i := 0; i < 2; i++ {
		_, err := s.service.CreateSubscription(ctx, dto.CreateSubscriptionRequest{
			ContactID: s.testData.contact.ID,
			PlanID:    s.testData.plan.ID,
			StartDate: time.Now().UTC(),
		})
		s.NoError(err)
	}

	resp, err := s.service.ListSubscriptions(ctx, &types.SubscriptionFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		ContactID:   lo.ToPtr(s.testData.contact.ID),
	})
	s.NoError(err)
	s.Equal(2, resp.Total)
	s.Len(resp.Items, 2)
}
