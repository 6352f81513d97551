package service

import (
	"testing"
	"time"

	"github.com/dojoflow/dojoflow/internal/domain/contact"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	"github.com/dojoflow/dojoflow/internal/domain/tenant"
	"github.com/dojoflow/dojoflow/internal/testutil"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type DunningServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  DunningService
	testData struct {
		tenant  *tenant.Tenant
		contact *contact.Contact
		sub     *subscription.Subscription
	}
}

func TestDunningService(t *testing.T) {
	suite.Run(t, new(DunningServiceSuite))
}

func (s *DunningServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewDunningService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		TenantRepo:       s.GetStores().TenantRepo,
		ContactRepo:      s.GetStores().ContactRepo,
		SubRepo:          s.GetStores().SubscriptionRepo,
		CycleRepo:        s.GetStores().BillingCycleRepo,
		FreezeRepo:       s.GetStores().FreezeRepo,
		WebhookPublisher: s.GetWebhookPublisher(),
		EmailSender:      s.GetEmailSender(),
	})
	s.setupTestData()
}

func (s *DunningServiceSuite) setupTestData() {
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

	s.testData.sub = &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		ContactID:          s.testData.contact.ID,
		PlanID:             "plan_test",
		SubscriptionStatus: types.SubscriptionStatusActive,
		Currency:           "usd",
		StartDate:          time.Now().UTC().AddDate(-1, 0, 0),
		CycleLengthMonths:  1,
		FixedTerm:          true,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, s.testData.sub))
}

func (s *DunningServiceSuite) createCycle(scheduledDate time.Time, installment int) *subscription.BillingCycle {
	ctx := s.GetContext()
	cycle := &subscription.BillingCycle{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_CYCLE),
		SubscriptionID:    s.testData.sub.ID,
		ScheduledDate:     scheduledDate,
		AmountCents:       5000,
		Currency:          "usd",
		InstallmentNumber: installment,
		TotalInstallments: 12,
		CycleStatus:       types.BillingCycleStatusPending,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().BillingCycleRepo.CreateBulk(ctx, []*subscription.BillingCycle{cycle}))
	return cycle
}

func (s *DunningServiceSuite) TestOverduePromotionAndNotice() {
	ctx := s.GetContext()
	cycle := s.createCycle(time.Now().UTC().AddDate(0, 0, -10), 1)

	s.NoError(s.service.RunForTenant(ctx, s.testData.tenant.ID))

	updated, err := s.GetStores().BillingCycleRepo.Get(ctx, cycle.ID)
	s.NoError(err)
	s.Equal(types.BillingCycleStatusOverdue, updated.CycleStatus)
	s.NotNil(updated.OverdueRemindedAt)

	notices := s.GetEmailSender().OverdueNotices()
	s.Len(notices, 1)
	s.Equal(s.testData.contact.Email, notices[0].ToEmail)
	s.Equal("North Side Dojo", notices[0].AcademyName)
	s.Equal(int64(5000), notices[0].AmountCents)

	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventCycleOverdue)
}

func (s *DunningServiceSuite) TestOverdueNoticeAtMostOncePerDay() {
	ctx := s.GetContext()
	s.createCycle(time.Now().UTC().AddDate(0, 0, -10), 1)

	s.NoError(s.service.RunForTenant(ctx, s.testData.tenant.ID))
	s.NoError(s.service.RunForTenant(ctx, s.testData.tenant.ID))

	s.Len(s.GetEmailSender().OverdueNotices(), 1)
}

func (s *DunningServiceSuite) TestCycleInsideGraceWindowIsLeftAlone() {
	ctx := s.GetContext()
	cycle := s.createCycle(time.Now().UTC().AddDate(0, 0, -1), 1)

	s.NoError(s.service.RunForTenant(ctx, s.testData.tenant.ID))

	updated, err := s.GetStores().BillingCycleRepo.Get(ctx, cycle.ID)
	s.NoError(err)
	s.Equal(types.BillingCycleStatusPending, updated.CycleStatus)
	s.Len(s.GetEmailSender().OverdueNotices(), 0)
}

func (s *DunningServiceSuite) TestUpcomingReminderSentOnce() {
	ctx := s.GetContext()
	cycle := s.createCycle(time.Now().UTC().AddDate(0, 0, 2), 1)

	s.NoError(s.service.RunForTenant(ctx, s.testData.tenant.ID))

	updated, err := s.GetStores().BillingCycleRepo.Get(ctx, cycle.ID)
	s.NoError(err)
	s.Equal(types.BillingCycleStatusPending, updated.CycleStatus)
	s.NotNil(updated.UpcomingRemindedAt)

	reminders := s.GetEmailSender().UpcomingReminders()
	s.Len(reminders, 1)
	s.Equal(s.testData.contact.Email, reminders[0].ToEmail)

	s.Contains(s.GetWebhookPublisher().EventNames(), types.WebhookEventCycleUpcoming)

	// The reminder flag survives across runs, so a second scan stays quiet.
	s.NoError(s.service.RunForTenant(ctx, s.testData.tenant.ID))
	s.Len(s.GetEmailSender().UpcomingReminders(), 1)
}

func (s *DunningServiceSuite) TestFrozenSubscriptionIsSkipped() {
	ctx := s.GetContext()
	s.createCycle(time.Now().UTC().AddDate(0, 0, -10), 1)
	s.createCycle(time.Now().UTC().AddDate(0, 0, 2), 2)

	s.testData.sub.SubscriptionStatus = types.SubscriptionStatusFrozen
	s.NoError(s.GetStores().SubscriptionRepo.Update(ctx, s.testData.sub))

	s.NoError(s.service.RunForTenant(ctx, s.testData.tenant.ID))

	s.Len(s.GetEmailSender().OverdueNotices(), 0)
	s.Len(s.GetEmailSender().UpcomingReminders(), 0)
}

func (s *DunningServiceSuite) TestScanReleasesElapsedFreeze() {
	ctx := s.GetContext()
	cycle := s.createCycle(time.Now().UTC().AddDate(0, 0, -10), 1)

	s.testData.sub.SubscriptionStatus = types.SubscriptionStatusFrozen
	s.NoError(s.GetStores().SubscriptionRepo.Update(ctx, s.testData.sub))

	freeze := &subscription.Freeze{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FREEZE),
		SubscriptionID: s.testData.sub.ID,
		StartDate:      time.Now().UTC().AddDate(0, -3, 0),
		EndDate:        lo.ToPtr(time.Now().UTC().AddDate(0, -2, 0)),
		FreezeStatus:   types.FreezeStatusActive,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().FreezeRepo.Create(ctx, freeze))

	s.NoError(s.service.RunForTenant(ctx, s.testData.tenant.ID))

	// The elapsed window ends on the same pass, so the member is back on the
	// scan and the overdue cycle gets its notice.
	sub, err := s.GetStores().SubscriptionRepo.Get(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.SubscriptionStatus)

	released, err := s.GetStores().FreezeRepo.Get(ctx, freeze.ID)
	s.NoError(err)
	s.Equal(types.FreezeStatusEnded, released.FreezeStatus)

	updated, err := s.GetStores().BillingCycleRepo.Get(ctx, cycle.ID)
	s.NoError(err)
	s.Equal(types.BillingCycleStatusOverdue, updated.CycleStatus)
	s.Len(s.GetEmailSender().OverdueNotices(), 1)
}

func (s *DunningServiceSuite) TestRunScansAllTenants() {
	ctx := s.GetContext()
	s.createCycle(time.Now().UTC().AddDate(0, 0, -10), 1)

	// A second tenant with nothing due must not disturb the first one's scan.
	s.NoError(s.GetStores().TenantRepo.Create(ctx, &tenant.Tenant{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TENANT),
		Name:         "River City Dojo",
		BillingEmail: "billing@rivercity.example.com",
		Currency:     "usd",
		Status:       types.StatusPublished,
	}))

	s.NoError(s.service.Run(ctx))
	s.Len(s.GetEmailSender().OverdueNotices(), 1)
}
