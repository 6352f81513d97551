package service

import (
	"testing"
	"time"

	"github.com/dojoflow/dojoflow/internal/domain/plan"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/testutil"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ScheduleServiceSuite struct {
	testutil.BaseServiceTestSuite
	service ScheduleService
}

func TestScheduleService(t *testing.T) {
	suite.Run(t, new(ScheduleServiceSuite))
}

func (s *ScheduleServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewScheduleService(ServiceParams{
		Logger:    s.GetLogger(),
		Config:    s.GetConfig(),
		DB:        s.GetDB(),
		PlanRepo:  s.GetStores().PlanRepo,
		SubRepo:   s.GetStores().SubscriptionRepo,
		CycleRepo: s.GetStores().BillingCycleRepo,
	})
}

func (s *ScheduleServiceSuite) fixedTermPlan() *plan.Plan {
	return &plan.Plan{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:              "12 Month Membership",
		BasePriceCents:    10000,
		Currency:          "usd",
		CycleLengthMonths: 1,
		TotalInstallments: lo.ToPtr(12),
		BaseModel:         types.GetDefaultBaseModel(s.GetContext()),
	}
}

func (s *ScheduleServiceSuite) subscriptionFor(p *plan.Plan, start time.Time) *subscription.Subscription {
	return &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		ContactID:          "cont_test",
		PlanID:             p.ID,
		SubscriptionStatus: types.SubscriptionStatusActive,
		Currency:           p.Currency,
		StartDate:          start,
		CycleLengthMonths:  p.CycleLengthMonths,
		FixedTerm:          p.IsFixedTerm(),
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
}

func (s *ScheduleServiceSuite) TestGenerateCyclesMonthEndClamping() {
	p := s.fixedTermPlan()
	sub := s.subscriptionFor(p, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))

	cycles, err := s.service.GenerateCycles(s.GetContext(), sub, p)
	s.NoError(err)
	s.Len(cycles, 12)

	s.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), cycles[0].ScheduledDate)
	s.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), cycles[1].ScheduledDate)
	s.Equal(time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC), cycles[2].ScheduledDate)

	for i, c := range cycles {
		s.Equal(int64(10000), c.AmountCents)
		s.Equal(i+1, c.InstallmentNumber)
		s.Equal(12, c.TotalInstallments)
		s.Equal(types.BillingCycleStatusPending, c.CycleStatus)
		s.Equal(sub.ID, c.SubscriptionID)
	}
}

func (s *ScheduleServiceSuite) TestGenerateCyclesAmountRoundTrip() {
	p := s.fixedTermPlan()
	sub := s.subscriptionFor(p, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	cycles, err := s.service.GenerateCycles(s.GetContext(), sub, p)
	s.NoError(err)

	var total int64
	for _, c := range cycles {
		total += c.AmountCents
	}
	s.Equal(p.BasePriceCents*int64(*p.TotalInstallments), total)
}

func (s *ScheduleServiceSuite) TestGenerateCyclesOpenEnded() {
	p := s.fixedTermPlan()
	p.TotalInstallments = nil
	sub := s.subscriptionFor(p, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	cycles, err := s.service.GenerateCycles(s.GetContext(), sub, p)
	s.NoError(err)
	s.Len(cycles, 1)
	s.Equal(1, cycles[0].InstallmentNumber)
}

func (s *ScheduleServiceSuite) TestGenerateCyclesRejectsInvalidPlan() {
	p := s.fixedTermPlan()
	p.CycleLengthMonths = 0
	sub := s.subscriptionFor(p, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	sub.CycleLengthMonths = 1

	_, err := s.service.GenerateCycles(s.GetContext(), sub, p)
	s.Error(err)
	s.True(ierr.IsValidation(err))

	p = s.fixedTermPlan()
	p.BasePriceCents = -100
	_, err = s.service.GenerateCycles(s.GetContext(), sub, p)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ScheduleServiceSuite) TestGenerateRenewalTermAppliesDiscount() {
	p := s.fixedTermPlan()
	sub := s.subscriptionFor(p, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	sub.RenewalDiscountPercentage = decimal.NewFromInt(10)

	lastCycle := &subscription.BillingCycle{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_CYCLE),
		SubscriptionID:    sub.ID,
		ScheduledDate:     time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
		AmountCents:       10000,
		Currency:          "usd",
		InstallmentNumber: 12,
		TotalInstallments: 12,
		CycleStatus:       types.BillingCycleStatusPaid,
	}

	cycles, err := s.service.GenerateRenewalTerm(s.GetContext(), sub, p, lastCycle)
	s.NoError(err)
	s.Len(cycles, 12)

	s.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), cycles[0].ScheduledDate)
	s.Equal(13, cycles[0].InstallmentNumber)
	s.Equal(24, cycles[0].TotalInstallments)
	for _, c := range cycles {
		s.Equal(int64(9000), c.AmountCents)
	}
}

func (s *ScheduleServiceSuite) TestGenerateRenewalTermRejectsOpenEndedPlan() {
	p := s.fixedTermPlan()
	p.TotalInstallments = nil
	sub := s.subscriptionFor(p, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	_, err := s.service.GenerateRenewalTerm(s.GetContext(), sub, p, &subscription.BillingCycle{})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *ScheduleServiceSuite) TestGenerateNextCycle() {
	p := s.fixedTermPlan()
	sub := s.subscriptionFor(p, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))

	lastCycle := &subscription.BillingCycle{
		SubscriptionID:    sub.ID,
		ScheduledDate:     time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		AmountCents:       10000,
		Currency:          "usd",
		InstallmentNumber: 1,
		TotalInstallments: 1,
	}

	next, err := s.service.GenerateNextCycle(s.GetContext(), sub, lastCycle)
	s.NoError(err)
	s.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), next.ScheduledDate)
	s.Equal(2, next.InstallmentNumber)
	s.Equal(int64(10000), next.AmountCents)
}

func (s *ScheduleServiceSuite) TestAdvanceAfterSettlementRenewsAutoRenewalTerm() {
	ctx := s.GetContext()

	p := s.fixedTermPlan()
	s.NoError(s.GetStores().PlanRepo.Create(ctx, p))

	sub := s.subscriptionFor(p, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	sub.AutoRenewal = true
	sub.RenewalDiscountPercentage = decimal.NewFromInt(10)
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, sub))

	cycles, err := s.service.GenerateCycles(ctx, sub, p)
	s.NoError(err)
	s.NoError(s.GetStores().BillingCycleRepo.CreateBulk(ctx, cycles))

	last := cycles[len(cycles)-1]
	last.CycleStatus = types.BillingCycleStatusPaid
	s.NoError(s.GetStores().BillingCycleRepo.Update(ctx, last))

	s.NoError(s.service.AdvanceAfterSettlement(ctx, last))

	all, err := s.GetStores().BillingCycleRepo.ListBySubscription(ctx, sub.ID)
	s.NoError(err)
	s.Len(all, 24)
	for _, c := range all {
		s.Equal(24, c.TotalInstallments)
	}
	s.Equal(int64(9000), all[12].AmountCents)
	s.Equal(13, all[12].InstallmentNumber)
}

func (s *ScheduleServiceSuite) TestAdvanceAfterSettlementAppendsNextOpenEndedCycle() {
	ctx := s.GetContext()

	p := s.fixedTermPlan()
	p.TotalInstallments = nil
	s.NoError(s.GetStores().PlanRepo.Create(ctx, p))

	sub := s.subscriptionFor(p, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, sub))

	cycles, err := s.service.GenerateCycles(ctx, sub, p)
	s.NoError(err)
	s.NoError(s.GetStores().BillingCycleRepo.CreateBulk(ctx, cycles))

	first := cycles[0]
	first.CycleStatus = types.BillingCycleStatusPaid
	s.NoError(s.GetStores().BillingCycleRepo.Update(ctx, first))

	s.NoError(s.service.AdvanceAfterSettlement(ctx, first))

	all, err := s.GetStores().BillingCycleRepo.ListBySubscription(ctx, sub.ID)
	s.NoError(err)
	s.Len(all, 2)
	s.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), all[1].ScheduledDate)
	s.Equal(2, all[1].TotalInstallments)
	s.Equal(2, all[0].TotalInstallments)
}

func (s *ScheduleServiceSuite) TestAdvanceAfterSettlementMidTermIsNoOp() {
	ctx := s.GetContext()

	p := s.fixedTermPlan()
	s.NoError(s.GetStores().PlanRepo.Create(ctx, p))

	sub := s.subscriptionFor(p, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	sub.AutoRenewal = true
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, sub))

	cycles, err := s.service.GenerateCycles(ctx, sub, p)
	s.NoError(err)
	s.NoError(s.GetStores().BillingCycleRepo.CreateBulk(ctx, cycles))

	s.NoError(s.service.AdvanceAfterSettlement(ctx, cycles[0]))

	all, err := s.GetStores().BillingCycleRepo.ListBySubscription(ctx, sub.ID)
	s.NoError(err)
	s.Len(all, 12)
}

func TestDiscountedAmountCents(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		discount decimal.Decimal
		expected int64
	}{
		{"zero discount is identity", 10000, decimal.Zero, 10000},
		{"ten percent", 10000, decimal.NewFromInt(10), 9000},
		{"rounds down to the cent", 9999, decimal.NewFromInt(10), 8999},
		{"fractional percentage floors", 10000, decimal.NewFromFloat(12.5), 8750},
		{"full discount", 10000, decimal.NewFromInt(100), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DiscountedAmountCents(tt.amount, tt.discount); got != tt.expected {
				t.Errorf("DiscountedAmountCents(%d, %s) = %d, want %d", tt.amount, tt.discount, got, tt.expected)
			}
		})
	}
}
