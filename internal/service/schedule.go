package service

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/domain/plan"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/shopspring/decimal"
)

// ScheduleService computes installment schedules for subscriptions. All date
// arithmetic is calendar-month based with day-of-month clamping, so a
// schedule anchored on Jan 31 dues on Feb 28/29, not Mar 2.
type ScheduleService interface {
	// GenerateCycles produces the initial schedule for a new subscription.
	// Fixed-term plans get their full installment sequence; open-ended plans
	// get a single cycle and the next one is generated on demand.
	GenerateCycles(ctx context.Context, sub *subscription.Subscription, p *plan.Plan) ([]*subscription.BillingCycle, error)

	// GenerateRenewalTerm produces a follow-on term after the last installment
	// of a fixed-term subscription is paid. The renewal discount applies to
	// every cycle of the new term, rounded down to the cent.
	GenerateRenewalTerm(ctx context.Context, sub *subscription.Subscription, p *plan.Plan, lastCycle *subscription.BillingCycle) ([]*subscription.BillingCycle, error)

	// GenerateNextCycle appends the next on-demand cycle of an open-ended
	// subscription after its current last cycle.
	GenerateNextCycle(ctx context.Context, sub *subscription.Subscription, lastCycle *subscription.BillingCycle) (*subscription.BillingCycle, error)

	// AdvanceAfterSettlement extends the schedule once its last installment
	// settles: auto-renewing fixed terms get a discounted follow-on term,
	// open-ended subscriptions get their next cycle. Settling any other
	// installment is a no-op.
	AdvanceAfterSettlement(ctx context.Context, cycle *subscription.BillingCycle) error
}

type scheduleService struct {
	ServiceParams
}

// NewScheduleService creates a new schedule service
func NewScheduleService(params ServiceParams) ScheduleService {
	return &scheduleService{ServiceParams: params}
}

func (s *scheduleService) GenerateCycles(ctx context.Context, sub *subscription.Subscription, p *plan.Plan) ([]*subscription.BillingCycle, error) {
	if err := validateSchedulePlan(p); err != nil {
		return nil, err
	}

	count := 1
	if p.TotalInstallments != nil {
		count = *p.TotalInstallments
	}

	cycles := buildCycles(ctx, sub, buildCyclesInput{
		startDate:         sub.StartDate,
		amountCents:       p.BasePriceCents,
		currency:          p.Currency,
		cycleLengthMonths: p.CycleLengthMonths,
		firstInstallment:  1,
		count:             count,
		totalInstallments: count,
	})

	s.Logger.Debugw("generated billing schedule",
		"subscription_id", sub.ID,
		"plan_id", p.ID,
		"cycles", len(cycles),
	)
	return cycles, nil
}

func (s *scheduleService) GenerateRenewalTerm(ctx context.Context, sub *subscription.Subscription, p *plan.Plan, lastCycle *subscription.BillingCycle) ([]*subscription.BillingCycle, error) {
	if err := validateSchedulePlan(p); err != nil {
		return nil, err
	}
	if p.TotalInstallments == nil {
		return nil, ierr.NewError("renewal term requires a fixed-term plan").
			WithHint("Open-ended plans renew cycle by cycle").
			Mark(ierr.ErrInvalidOperation)
	}

	count := *p.TotalInstallments
	amount := DiscountedAmountCents(p.BasePriceCents, sub.RenewalDiscountPercentage)
	newTotal := lastCycle.TotalInstallments + count

	cycles := buildCycles(ctx, sub, buildCyclesInput{
		startDate:         types.AddClampedMonths(lastCycle.ScheduledDate, sub.CycleLengthMonths),
		amountCents:       amount,
		currency:          lastCycle.Currency,
		cycleLengthMonths: sub.CycleLengthMonths,
		firstInstallment:  lastCycle.InstallmentNumber + 1,
		count:             count,
		totalInstallments: newTotal,
	})
	return cycles, nil
}

func (s *scheduleService) GenerateNextCycle(ctx context.Context, sub *subscription.Subscription, lastCycle *subscription.BillingCycle) (*subscription.BillingCycle, error) {
	cycles := buildCycles(ctx, sub, buildCyclesInput{
		startDate:         types.AddClampedMonths(lastCycle.ScheduledDate, sub.CycleLengthMonths),
		amountCents:       lastCycle.AmountCents,
		currency:          lastCycle.Currency,
		cycleLengthMonths: sub.CycleLengthMonths,
		firstInstallment:  lastCycle.InstallmentNumber + 1,
		count:             1,
		totalInstallments: lastCycle.TotalInstallments + 1,
	})
	return cycles[0], nil
}

func (s *scheduleService) AdvanceAfterSettlement(ctx context.Context, cycle *subscription.BillingCycle) error {
	if cycle.InstallmentNumber != cycle.TotalInstallments {
		return nil
	}

	sub, err := s.SubRepo.Get(ctx, cycle.SubscriptionID)
	if err != nil {
		return err
	}
	if sub.SubscriptionStatus != types.SubscriptionStatusActive {
		return nil
	}

	if !sub.FixedTerm {
		next, err := s.GenerateNextCycle(ctx, sub, cycle)
		if err != nil {
			return err
		}
		if err := s.CycleRepo.CreateBulk(ctx, []*subscription.BillingCycle{next}); err != nil {
			return err
		}
		return s.CycleRepo.UpdateTotalInstallments(ctx, sub.ID, next.TotalInstallments)
	}

	// A completed fixed term without auto-renewal simply runs out.
	if !sub.AutoRenewal {
		return nil
	}

	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return err
	}
	cycles, err := s.GenerateRenewalTerm(ctx, sub, p, cycle)
	if err != nil {
		return err
	}
	if err := s.CycleRepo.CreateBulk(ctx, cycles); err != nil {
		return err
	}
	if err := s.CycleRepo.UpdateTotalInstallments(ctx, sub.ID, cycles[0].TotalInstallments); err != nil {
		return err
	}

	s.Logger.Infow("generated renewal term",
		"subscription_id", sub.ID,
		"cycles", len(cycles),
		"new_total_installments", cycles[0].TotalInstallments,
	)
	return nil
}

type buildCyclesInput struct {
	startDate         time.Time
	amountCents       int64
	currency          string
	cycleLengthMonths int
	firstInstallment  int
	count             int
	totalInstallments int
}

func buildCycles(ctx context.Context, sub *subscription.Subscription, in buildCyclesInput) []*subscription.BillingCycle {
	// Each due date steps from the previous one, so a schedule anchored on
	// Jan 31 runs Jan 31, Feb 29, Mar 29: once clamped, the clamped day
	// carries forward instead of snapping back to the anchor's day.
	cycles := make([]*subscription.BillingCycle, 0, in.count)
	date := in.startDate
	for n := 0; n < in.count; n++ {
		cycles = append(cycles, &subscription.BillingCycle{
			ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_CYCLE),
			SubscriptionID:    sub.ID,
			ScheduledDate:     date,
			AmountCents:       in.amountCents,
			Currency:          in.currency,
			InstallmentNumber: in.firstInstallment + n,
			TotalInstallments: in.totalInstallments,
			CycleStatus:       types.BillingCycleStatusPending,
			BaseModel:         types.GetDefaultBaseModel(ctx),
		})
		date = types.AddClampedMonths(date, in.cycleLengthMonths)
	}
	return cycles
}

func validateSchedulePlan(p *plan.Plan) error {
	if p.CycleLengthMonths <= 0 {
		return ierr.NewError("invalid plan cycle length").
			WithHint("Cycle length must be at least one month").
			WithReportableDetails(map[string]any{
				"cycle_length_months": p.CycleLengthMonths,
			}).
			Mark(ierr.ErrValidation)
	}
	if p.BasePriceCents < 0 {
		return ierr.NewError("invalid plan price").
			WithHint("Plan price must not be negative").
			WithReportableDetails(map[string]any{
				"base_price_cents": p.BasePriceCents,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DiscountedAmountCents applies a percentage discount to an amount in minor
// units, rounding down to the nearest cent.
func DiscountedAmountCents(amountCents int64, discountPercentage decimal.Decimal) int64 {
	if discountPercentage.IsZero() {
		return amountCents
	}
	multiplier := decimal.NewFromInt(100).Sub(discountPercentage)
	return decimal.NewFromInt(amountCents).
		Mul(multiplier).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}
