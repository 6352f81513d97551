package service

import (
	"sync"
	"testing"
	"time"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/testutil"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type FreezeServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  FreezeService
	testData struct {
		sub    *subscription.Subscription
		cycles []*subscription.BillingCycle
	}
}

func TestFreezeService(t *testing.T) {
	suite.Run(t, new(FreezeServiceSuite))
}

func (s *FreezeServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewFreezeService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		SubRepo:          s.GetStores().SubscriptionRepo,
		CycleRepo:        s.GetStores().BillingCycleRepo,
		FreezeRepo:       s.GetStores().FreezeRepo,
		WebhookPublisher: s.GetWebhookPublisher(),
	})
	s.setupTestData()
}

// setupTestData creates a fixed-term subscription with 12 monthly cycles of
// 5000 cents starting 2024-01-15.
func (s *FreezeServiceSuite) setupTestData() {
	ctx := s.GetContext()

	s.testData.sub = &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		ContactID:          "cont_test",
		PlanID:             "plan_test",
		SubscriptionStatus: types.SubscriptionStatusActive,
		Currency:           "usd",
		StartDate:          time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CycleLengthMonths:  1,
		FixedTerm:          true,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, s.testData.sub))

	s.testData.cycles = nil
	date := s.testData.sub.StartDate
	for n := 1; n <= 12; n++ {
		s.testData.cycles = append(s.testData.cycles, &subscription.BillingCycle{
			ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_CYCLE),
			SubscriptionID:    s.testData.sub.ID,
			ScheduledDate:     date,
			AmountCents:       5000,
			Currency:          "usd",
			InstallmentNumber: n,
			TotalInstallments: 12,
			CycleStatus:       types.BillingCycleStatusPending,
			BaseModel:         types.GetDefaultBaseModel(ctx),
		})
		date = types.AddClampedMonths(date, 1)
	}
	s.NoError(s.GetStores().BillingCycleRepo.CreateBulk(ctx, s.testData.cycles))
}

func (s *FreezeServiceSuite) TestApplyFreezeExtendsSchedule() {
	ctx := s.GetContext()

	resp, err := s.service.ApplyFreeze(ctx, dto.CreateFreezeRequest{
		SubscriptionID: s.testData.sub.ID,
		StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        lo.ToPtr(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
		Reason:         "injury",
	})
	s.NoError(err)
	s.Equal(types.FreezeStatusActive, resp.FreezeStatus)
	s.Equal(2, resp.ExtensionMonths)

	cycles, err := s.GetStores().BillingCycleRepo.ListBySubscription(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Len(cycles, 14)

	// Every cycle agrees on the new schedule length and the installment
	// numbers stay contiguous.
	for i, c := range cycles {
		s.Equal(14, c.TotalInstallments)
		s.Equal(i+1, c.InstallmentNumber)
	}

	// Appended cycles carry the last cycle's amount; existing amounts are
	// untouched.
	for _, c := range cycles {
		s.Equal(int64(5000), c.AmountCents)
	}

	// Cycles due inside the window are suspended, the rest keep their state.
	for _, c := range cycles {
		inWindow := !c.ScheduledDate.Before(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) &&
			c.ScheduledDate.Before(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
		if inWindow {
			s.Equal(types.BillingCycleStatusSkipped, c.CycleStatus)
		} else {
			s.Equal(types.BillingCycleStatusPending, c.CycleStatus)
		}
	}

	// The appended tail continues one cycle length past the old last date.
	s.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), cycles[12].ScheduledDate)

	sub, err := s.GetStores().SubscriptionRepo.Get(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusFrozen, sub.SubscriptionStatus)
}

func (s *FreezeServiceSuite) TestApplyFreezePartialMonthRoundsUp() {
	ctx := s.GetContext()

	// A month and a half freezes for two whole months worth of schedule.
	resp, err := s.service.ApplyFreeze(ctx, dto.CreateFreezeRequest{
		SubscriptionID: s.testData.sub.ID,
		StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        lo.ToPtr(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)),
	})
	s.NoError(err)
	s.Equal(2, resp.ExtensionMonths)

	cycles, err := s.GetStores().BillingCycleRepo.ListBySubscription(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Len(cycles, 14)
	for _, c := range cycles {
		s.Equal(14, c.TotalInstallments)
	}
}

func (s *FreezeServiceSuite) TestApplyFreezeOpenEndedDefersExtension() {
	ctx := s.GetContext()

	resp, err := s.service.ApplyFreeze(ctx, dto.CreateFreezeRequest{
		SubscriptionID: s.testData.sub.ID,
		StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)
	s.Equal(types.FreezeStatusActive, resp.FreezeStatus)
	s.False(resp.ExtensionApplied())

	cycles, err := s.GetStores().BillingCycleRepo.ListBySubscription(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Len(cycles, 12)
}

func (s *FreezeServiceSuite) TestApplyFreezeRejectsSecondActive() {
	ctx := s.GetContext()

	_, err := s.service.ApplyFreeze(ctx, dto.CreateFreezeRequest{
		SubscriptionID: s.testData.sub.ID,
		StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)

	_, err = s.service.ApplyFreeze(ctx, dto.CreateFreezeRequest{
		SubscriptionID: s.testData.sub.ID,
		StartDate:      time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Error(err)
	s.True(ierr.IsStateConflict(err))
}

func (s *FreezeServiceSuite) TestApplyFreezeConcurrentOneWins() {
	ctx := s.GetContext()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.ApplyFreeze(ctx, dto.CreateFreezeRequest{
				SubscriptionID: s.testData.sub.ID,
				StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			})
		}(i)
	}
	wg.Wait()

	conflicts := 0
	for _, err := range errs {
		if err != nil {
			s.True(ierr.IsStateConflict(err))
			conflicts++
		}
	}
	s.Equal(1, conflicts)
}

func (s *FreezeServiceSuite) TestApplyFreezeRejectsCancelledSubscription() {
	ctx := s.GetContext()

	s.testData.sub.SubscriptionStatus = types.SubscriptionStatusCancelled
	s.NoError(s.GetStores().SubscriptionRepo.Update(ctx, s.testData.sub))

	_, err := s.service.ApplyFreeze(ctx, dto.CreateFreezeRequest{
		SubscriptionID: s.testData.sub.ID,
		StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *FreezeServiceSuite) TestCloseFreezeExtendsRetroactively() {
	ctx := s.GetContext()

	created, err := s.service.ApplyFreeze(ctx, dto.CreateFreezeRequest{
		SubscriptionID: s.testData.sub.ID,
		StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)

	closed, err := s.service.CloseFreeze(ctx, created.ID, dto.CloseFreezeRequest{
		EndDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)
	s.Equal(types.FreezeStatusEnded, closed.FreezeStatus)
	s.Equal(2, closed.ExtensionMonths)

	cycles, err := s.GetStores().BillingCycleRepo.ListBySubscription(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Len(cycles, 14)

	sub, err := s.GetStores().SubscriptionRepo.Get(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.SubscriptionStatus)
}

func (s *FreezeServiceSuite) TestCloseFixedWindowFreezeReactivatesSubscription() {
	ctx := s.GetContext()

	endDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	created, err := s.service.ApplyFreeze(ctx, dto.CreateFreezeRequest{
		SubscriptionID: s.testData.sub.ID,
		StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        lo.ToPtr(endDate),
	})
	s.NoError(err)
	s.Equal(types.FreezeStatusActive, created.FreezeStatus)

	closed, err := s.service.CloseFreeze(ctx, created.ID, dto.CloseFreezeRequest{EndDate: endDate})
	s.NoError(err)
	s.Equal(types.FreezeStatusEnded, closed.FreezeStatus)

	// The extension ran at apply time; the close must not append again.
	cycles, err := s.GetStores().BillingCycleRepo.ListBySubscription(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Len(cycles, 14)

	sub, err := s.GetStores().SubscriptionRepo.Get(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.SubscriptionStatus)
}

func (s *FreezeServiceSuite) TestReleaseElapsedEndsPastWindows() {
	ctx := s.GetContext()

	created, err := s.service.ApplyFreeze(ctx, dto.CreateFreezeRequest{
		SubscriptionID: s.testData.sub.ID,
		StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        lo.ToPtr(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
	})
	s.NoError(err)

	s.NoError(s.service.ReleaseElapsed(ctx))

	freeze, err := s.GetStores().FreezeRepo.Get(ctx, created.ID)
	s.NoError(err)
	s.Equal(types.FreezeStatusEnded, freeze.FreezeStatus)

	sub, err := s.GetStores().SubscriptionRepo.Get(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.SubscriptionStatus)

	// A second pass finds nothing frozen and changes nothing.
	s.NoError(s.service.ReleaseElapsed(ctx))
	cycles, err := s.GetStores().BillingCycleRepo.ListBySubscription(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Len(cycles, 14)
}

func (s *FreezeServiceSuite) TestReleaseElapsedLeavesOpenWindowsFrozen() {
	ctx := s.GetContext()

	_, err := s.service.ApplyFreeze(ctx, dto.CreateFreezeRequest{
		SubscriptionID: s.testData.sub.ID,
		StartDate:      time.Now().UTC(),
		EndDate:        lo.ToPtr(time.Now().UTC().AddDate(0, 2, 0)),
	})
	s.NoError(err)

	s.NoError(s.service.ReleaseElapsed(ctx))

	sub, err := s.GetStores().SubscriptionRepo.Get(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusFrozen, sub.SubscriptionStatus)
}

func (s *FreezeServiceSuite) TestCloseFreezeReplayIsIdempotent() {
	ctx := s.GetContext()

	created, err := s.service.ApplyFreeze(ctx, dto.CreateFreezeRequest{
		SubscriptionID: s.testData.sub.ID,
		StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)

	endDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	first, err := s.service.CloseFreeze(ctx, created.ID, dto.CloseFreezeRequest{EndDate: endDate})
	s.NoError(err)

	// A close that recorded the ended freeze but died before reactivating the
	// subscription heals when the close is retried.
	s.testData.sub.SubscriptionStatus = types.SubscriptionStatusFrozen
	s.NoError(s.GetStores().SubscriptionRepo.Update(ctx, s.testData.sub))

	replay, err := s.service.CloseFreeze(ctx, created.ID, dto.CloseFreezeRequest{EndDate: endDate})
	s.NoError(err)

	// The replay must come out identical to a single close: same schedule
	// length, no second batch of appended cycles.
	s.Len(replay.AffectedCycles, len(first.AffectedCycles))

	cycles, err := s.GetStores().BillingCycleRepo.ListBySubscription(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Len(cycles, 14)
	for _, c := range cycles {
		s.Equal(14, c.TotalInstallments)
	}

	sub, err := s.GetStores().SubscriptionRepo.Get(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.SubscriptionStatus)
}

func (s *FreezeServiceSuite) TestFreezeOnOpenEndedSubscriptionOnlySkips() {
	ctx := s.GetContext()

	s.testData.sub.FixedTerm = false
	s.NoError(s.GetStores().SubscriptionRepo.Update(ctx, s.testData.sub))

	resp, err := s.service.ApplyFreeze(ctx, dto.CreateFreezeRequest{
		SubscriptionID: s.testData.sub.ID,
		StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        lo.ToPtr(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
	})
	s.NoError(err)
	s.True(resp.ExtensionApplied())
	s.Equal(0, resp.ExtensionMonths)

	// No tail is appended; only the in-window cycles are suspended.
	cycles, err := s.GetStores().BillingCycleRepo.ListBySubscription(ctx, s.testData.sub.ID)
	s.NoError(err)
	s.Len(cycles, 12)

	skipped := 0
	for _, c := range cycles {
		if c.CycleStatus == types.BillingCycleStatusSkipped {
			skipped++
		}
	}
	s.Equal(2, skipped)
}
