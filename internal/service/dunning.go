package service

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/domain/contact"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	"github.com/dojoflow/dojoflow/internal/notification"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/sourcegraph/conc/pool"
)

// DunningService periodically scans billing cycles, reclassifies overdue ones
// and emits reminders. The scan is partial-failure tolerant: one cycle's
// reminder failing never stops the rest, and a re-run is always safe.
type DunningService interface {
	Run(ctx context.Context) error
	RunForTenant(ctx context.Context, tenantID string) error
}

type dunningService struct {
	ServiceParams
	freezes FreezeService
}

// NewDunningService creates a new dunning service
func NewDunningService(params ServiceParams) DunningService {
	return &dunningService{
		ServiceParams: params,
		freezes:       NewFreezeService(params),
	}
}

func (s *dunningService) Run(ctx context.Context) error {
	tenants, err := s.TenantRepo.List(ctx)
	if err != nil {
		return err
	}

	workers := s.Config.Dunning.Workers
	if workers <= 0 {
		workers = 1
	}

	p := pool.New().WithMaxGoroutines(workers)
	for _, t := range tenants {
		tenantID := t.ID
		p.Go(func() {
			tenantCtx := types.SetTenantID(ctx, tenantID)
			if err := s.RunForTenant(tenantCtx, tenantID); err != nil {
				s.Logger.Errorw("dunning scan failed for tenant",
					"error", err,
					"tenant_id", tenantID,
				)
			}
		})
	}
	p.Wait()
	return nil
}

func (s *dunningService) RunForTenant(ctx context.Context, tenantID string) error {
	now := time.Now().UTC()
	tenant, err := s.TenantRepo.Get(ctx, tenantID)
	if err != nil {
		return err
	}

	// Elapsed freezes release first, so their subscriptions rejoin the scan
	// as active instead of waiting for an explicit close.
	if err := s.freezes.ReleaseElapsed(ctx); err != nil {
		s.Logger.Errorw("failed to release elapsed freezes",
			"error", err,
			"tenant_id", tenantID,
		)
	}

	scan := &dunningScan{
		service:  s,
		tenant:   tenant.Name,
		now:      now,
		subs:     make(map[string]*subscription.Subscription),
		contacts: make(map[string]*contact.Contact),
	}

	// Pending cycles past the grace window become overdue and get a daily
	// reminder until settled.
	graceCutoff := now.AddDate(0, 0, -s.Config.Dunning.GraceDays)
	overdue, err := s.CycleRepo.ListPendingDueBefore(ctx, graceCutoff)
	if err != nil {
		return err
	}
	for _, cycle := range overdue {
		scan.processOverdue(ctx, cycle)
	}

	// Pending cycles due soon get a single upcoming-payment reminder.
	upcoming, err := s.CycleRepo.ListPendingDueBetween(ctx, now, now.AddDate(0, 0, s.Config.Dunning.LeadDays))
	if err != nil {
		return err
	}
	for _, cycle := range upcoming {
		scan.processUpcoming(ctx, cycle)
	}

	s.Logger.Infow("dunning scan completed",
		"tenant_id", tenantID,
		"overdue_cycles", len(overdue),
		"upcoming_cycles", len(upcoming),
	)
	return nil
}

// dunningScan carries per-run lookup caches so a tenant scan resolves each
// subscription and contact once.
type dunningScan struct {
	service  *dunningService
	tenant   string
	now      time.Time
	subs     map[string]*subscription.Subscription
	contacts map[string]*contact.Contact
}

func (d *dunningScan) processOverdue(ctx context.Context, cycle *subscription.BillingCycle) {
	s := d.service

	sub, c, ok := d.resolve(ctx, cycle)
	if !ok || sub.SubscriptionStatus != types.SubscriptionStatusActive {
		return
	}

	changed := false
	if cycle.CycleStatus == types.BillingCycleStatusPending {
		cycle.CycleStatus = types.BillingCycleStatusOverdue
		changed = true
	}

	// At most one overdue reminder per cycle per day.
	if cycle.OverdueRemindedAt == nil || types.DateOnly(*cycle.OverdueRemindedAt).Before(types.DateOnly(d.now)) {
		if err := s.EmailSender.SendOverdueNotice(ctx, &notification.Reminder{
			ToEmail:     c.Email,
			ToName:      c.Name,
			AcademyName: d.tenant,
			AmountCents: cycle.AmountCents,
			Currency:    cycle.Currency,
			DueDate:     cycle.ScheduledDate,
		}); err != nil {
			s.Logger.Errorw("failed to send overdue reminder",
				"error", err,
				"cycle_id", cycle.ID,
			)
		} else {
			remindedAt := d.now
			cycle.OverdueRemindedAt = &remindedAt
			changed = true
			s.publishWebhookEvent(ctx, types.WebhookEventCycleOverdue, dto.NewBillingCycleResponse(cycle))
		}
	}

	if changed {
		cycle.UpdatedAt = d.now
		if err := s.CycleRepo.Update(ctx, cycle); err != nil {
			s.Logger.Errorw("failed to update overdue cycle",
				"error", err,
				"cycle_id", cycle.ID,
			)
		}
	}
}

func (d *dunningScan) processUpcoming(ctx context.Context, cycle *subscription.BillingCycle) {
	s := d.service

	if cycle.UpcomingRemindedAt != nil {
		return
	}
	sub, c, ok := d.resolve(ctx, cycle)
	if !ok || sub.SubscriptionStatus != types.SubscriptionStatusActive {
		return
	}

	if err := s.EmailSender.SendUpcomingChargeReminder(ctx, &notification.Reminder{
		ToEmail:     c.Email,
		ToName:      c.Name,
		AcademyName: d.tenant,
		AmountCents: cycle.AmountCents,
		Currency:    cycle.Currency,
		DueDate:     cycle.ScheduledDate,
	}); err != nil {
		s.Logger.Errorw("failed to send upcoming reminder",
			"error", err,
			"cycle_id", cycle.ID,
		)
		return
	}

	remindedAt := d.now
	cycle.UpcomingRemindedAt = &remindedAt
	cycle.UpdatedAt = d.now
	if err := s.CycleRepo.Update(ctx, cycle); err != nil {
		s.Logger.Errorw("failed to record upcoming reminder",
			"error", err,
			"cycle_id", cycle.ID,
		)
		return
	}
	s.publishWebhookEvent(ctx, types.WebhookEventCycleUpcoming, dto.NewBillingCycleResponse(cycle))
}

func (d *dunningScan) resolve(ctx context.Context, cycle *subscription.BillingCycle) (*subscription.Subscription, *contact.Contact, bool) {
	s := d.service

	sub, ok := d.subs[cycle.SubscriptionID]
	if !ok {
		var err error
		sub, err = s.SubRepo.Get(ctx, cycle.SubscriptionID)
		if err != nil {
			s.Logger.Errorw("failed to resolve subscription for cycle",
				"error", err,
				"cycle_id", cycle.ID,
			)
			return nil, nil, false
		}
		d.subs[cycle.SubscriptionID] = sub
	}

	c, ok := d.contacts[sub.ContactID]
	if !ok {
		var err error
		c, err = s.ContactRepo.Get(ctx, sub.ContactID)
		if err != nil {
			s.Logger.Errorw("failed to resolve contact for cycle",
				"error", err,
				"cycle_id", cycle.ID,
			)
			return nil, nil, false
		}
		d.contacts[sub.ContactID] = c
	}

	return sub, c, true
}
