package service

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/samber/lo"
)

// FreezeService suspends subscriptions and extends their schedules. The
// extension is keyed by freeze id and recorded on the freeze row, so a
// replayed close operation never double-appends cycles.
type FreezeService interface {
	ApplyFreeze(ctx context.Context, req dto.CreateFreezeRequest) (*dto.FreezeResponse, error)
	CloseFreeze(ctx context.Context, freezeID string, req dto.CloseFreezeRequest) (*dto.FreezeResponse, error)
	ReleaseElapsed(ctx context.Context) error
	GetFreeze(ctx context.Context, id string) (*dto.FreezeResponse, error)
	ListFreezes(ctx context.Context, subscriptionID string) ([]*dto.FreezeResponse, error)
}

type freezeService struct {
	ServiceParams
}

// NewFreezeService creates a new freeze service
func NewFreezeService(params ServiceParams) FreezeService {
	return &freezeService{ServiceParams: params}
}

func (s *freezeService) ApplyFreeze(ctx context.Context, req dto.CreateFreezeRequest) (*dto.FreezeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.IsCancelled() {
		return nil, ierr.NewError("subscription is cancelled").
			WithHint("A cancelled subscription cannot be frozen").
			Mark(ierr.ErrInvalidOperation)
	}

	freeze := &subscription.Freeze{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FREEZE),
		SubscriptionID:    req.SubscriptionID,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		FrozenAmountCents: req.FrozenAmountCents,
		Reason:            req.Reason,
		FreezeStatus:      types.FreezeStatusActive,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	if err := freeze.Validate(); err != nil {
		return nil, err
	}

	// The one-active-freeze constraint lives in storage. A losing concurrent
	// writer gets ErrStateConflict here instead of corrupting the schedule.
	if err := s.FreezeRepo.Create(ctx, freeze); err != nil {
		return nil, err
	}

	sub.SubscriptionStatus = types.SubscriptionStatusFrozen
	sub.UpdatedAt = time.Now().UTC()
	sub.UpdatedBy = types.GetUserID(ctx)
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	// A freeze with a known end date extends the schedule right away, but the
	// freeze itself stays active until its window elapses or it is closed. An
	// open-ended freeze extends the schedule later, when it is closed.
	if req.EndDate != nil {
		if err := s.extendSchedule(ctx, sub, freeze); err != nil {
			return nil, err
		}
	}

	cycles, err := s.CycleRepo.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	resp := dto.NewFreezeResponse(freeze, cycles)
	s.publishWebhookEvent(ctx, types.WebhookEventFreezeApplied, resp)
	return resp, nil
}

func (s *freezeService) CloseFreeze(ctx context.Context, freezeID string, req dto.CloseFreezeRequest) (*dto.FreezeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	freeze, err := s.FreezeRepo.Get(ctx, freezeID)
	if err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, freeze.SubscriptionID)
	if err != nil {
		return nil, err
	}

	// Replaying the same close leaves the schedule untouched: the extension
	// already ran. The subscription still comes out of the freeze, so a close
	// that died between the freeze update and the reactivation heals on retry.
	if freeze.FreezeStatus == types.FreezeStatusEnded && freeze.ExtensionApplied() {
		if err := s.reactivate(ctx, sub); err != nil {
			return nil, err
		}
		cycles, err := s.CycleRepo.ListBySubscription(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		return dto.NewFreezeResponse(freeze, cycles), nil
	}

	if !req.EndDate.After(freeze.StartDate) {
		return nil, ierr.NewError("invalid freeze window").
			WithHint("Freeze end date must be after the start date").
			Mark(ierr.ErrValidation)
	}

	// A fixed-window freeze keeps the end date its extension was computed
	// from; only an open-ended freeze takes the end date of the close.
	if freeze.EndDate == nil {
		freeze.EndDate = &req.EndDate
	}
	freeze.FreezeStatus = types.FreezeStatusEnded
	freeze.UpdatedAt = time.Now().UTC()
	freeze.UpdatedBy = types.GetUserID(ctx)

	if err := s.extendSchedule(ctx, sub, freeze); err != nil {
		return nil, err
	}
	if err := s.FreezeRepo.Update(ctx, freeze); err != nil {
		return nil, err
	}

	if err := s.reactivate(ctx, sub); err != nil {
		return nil, err
	}

	cycles, err := s.CycleRepo.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	resp := dto.NewFreezeResponse(freeze, cycles)
	s.publishWebhookEvent(ctx, types.WebhookEventFreezeClosed, resp)
	return resp, nil
}

// ReleaseElapsed ends active freezes whose window has passed and returns
// their subscriptions to active. The dunning scan runs it on every pass, so
// members come back on schedule without an explicit close call.
func (s *freezeService) ReleaseElapsed(ctx context.Context) error {
	now := time.Now().UTC()
	frozen, err := s.SubRepo.List(ctx, &types.SubscriptionFilter{
		QueryFilter:        types.NewNoLimitQueryFilter(),
		SubscriptionStatus: lo.ToPtr(string(types.SubscriptionStatusFrozen)),
	})
	if err != nil {
		return err
	}

	for _, sub := range frozen {
		freeze, err := s.FreezeRepo.GetActiveBySubscription(ctx, sub.ID)
		if err != nil {
			if ierr.IsNotFound(err) {
				continue
			}
			return err
		}
		if freeze.EndDate == nil || freeze.EndDate.After(now) {
			continue
		}
		if _, err := s.CloseFreeze(ctx, freeze.ID, dto.CloseFreezeRequest{EndDate: *freeze.EndDate}); err != nil {
			s.Logger.Errorw("failed to release elapsed freeze",
				"error", err,
				"freeze_id", freeze.ID,
				"subscription_id", sub.ID,
			)
		}
	}
	return nil
}

func (s *freezeService) reactivate(ctx context.Context, sub *subscription.Subscription) error {
	if sub.SubscriptionStatus != types.SubscriptionStatusFrozen {
		return nil
	}
	sub.SubscriptionStatus = types.SubscriptionStatusActive
	sub.UpdatedAt = time.Now().UTC()
	sub.UpdatedBy = types.GetUserID(ctx)
	return s.SubRepo.Update(ctx, sub)
}

func (s *freezeService) GetFreeze(ctx context.Context, id string) (*dto.FreezeResponse, error) {
	freeze, err := s.FreezeRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewFreezeResponse(freeze, nil), nil
}

func (s *freezeService) ListFreezes(ctx context.Context, subscriptionID string) ([]*dto.FreezeResponse, error) {
	freezes, err := s.FreezeRepo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	resp := make([]*dto.FreezeResponse, 0, len(freezes))
	for _, f := range freezes {
		resp = append(resp, dto.NewFreezeResponse(f, nil))
	}
	return resp, nil
}

// extendSchedule appends the compensating cycles for a freeze window and
// persists the fact that the extension ran. It also suspends the pending
// cycles that fall inside the window, so the member is not charged while
// frozen.
func (s *freezeService) extendSchedule(ctx context.Context, sub *subscription.Subscription, freeze *subscription.Freeze) error {
	if freeze.ExtensionApplied() {
		return nil
	}
	if freeze.EndDate == nil {
		return nil
	}

	durationMonths := types.MonthsBetweenCeil(freeze.StartDate, *freeze.EndDate)

	// Extension is a fixed-term-only operation: an open-ended subscription has
	// no tail to extend, so the freeze only suspends charges in its window.
	if !sub.FixedTerm {
		durationMonths = 0
	}

	cycles, err := s.CycleRepo.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return err
	}

	var last *subscription.BillingCycle
	for _, c := range cycles {
		if c.CycleStatus == types.BillingCycleStatusCancelled {
			continue
		}
		if last == nil || c.InstallmentNumber > last.InstallmentNumber {
			last = c
		}
	}

	// Suspend pending charges that fall inside the freeze window.
	for _, c := range cycles {
		if c.CycleStatus != types.BillingCycleStatusPending && c.CycleStatus != types.BillingCycleStatusOverdue {
			continue
		}
		if c.ScheduledDate.Before(freeze.StartDate) || !c.ScheduledDate.Before(*freeze.EndDate) {
			continue
		}
		c.CycleStatus = types.BillingCycleStatusSkipped
		c.UpdatedAt = time.Now().UTC()
		c.UpdatedBy = types.GetUserID(ctx)
		if err := s.CycleRepo.Update(ctx, c); err != nil {
			return err
		}
	}

	if durationMonths > 0 && last != nil {
		newTotal := last.TotalInstallments + durationMonths

		// Appended cycles carry the last cycle's amount, not the plan's
		// current price, preserving whatever discount was already baked into
		// the final installment.
		appended := make([]*subscription.BillingCycle, 0, durationMonths)
		date := last.ScheduledDate
		for n := 1; n <= durationMonths; n++ {
			date = types.AddClampedMonths(date, sub.CycleLengthMonths)
			appended = append(appended, &subscription.BillingCycle{
				ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_CYCLE),
				SubscriptionID:    sub.ID,
				ScheduledDate:     date,
				AmountCents:       last.AmountCents,
				Currency:          last.Currency,
				InstallmentNumber: last.InstallmentNumber + n,
				TotalInstallments: newTotal,
				CycleStatus:       types.BillingCycleStatusPending,
				BaseModel:         types.GetDefaultBaseModel(ctx),
			})
		}

		if err := s.CycleRepo.CreateBulk(ctx, appended); err != nil {
			return err
		}
		// Keep every cycle's view of the schedule length consistent.
		if err := s.CycleRepo.UpdateTotalInstallments(ctx, sub.ID, newTotal); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	freeze.ExtensionAppliedAt = &now
	freeze.ExtensionMonths = durationMonths
	freeze.UpdatedAt = now
	freeze.UpdatedBy = types.GetUserID(ctx)
	if err := s.FreezeRepo.Update(ctx, freeze); err != nil {
		return err
	}

	s.Logger.Infow("applied freeze schedule extension",
		"freeze_id", freeze.ID,
		"subscription_id", sub.ID,
		"extension_months", durationMonths,
	)
	return nil
}
