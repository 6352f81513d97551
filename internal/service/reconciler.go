package service

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/domain/payment"
	"github.com/dojoflow/dojoflow/internal/domain/paymentmethod"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	providerwebhook "github.com/dojoflow/dojoflow/internal/integration/stripe/webhook"
	"github.com/dojoflow/dojoflow/internal/types"
)

// ReconcilerService applies verified provider events to billing state. Every
// transition is idempotent under redelivery: the provider charge id maps to
// at most one payment row, and reapplying an event a second time is a no-op.
type ReconcilerService interface {
	ProcessEvent(ctx context.Context, event *providerwebhook.ProviderEvent) error
}

type reconcilerService struct {
	ServiceParams
	schedule ScheduleService
}

// NewReconcilerService creates a new reconciler service
func NewReconcilerService(params ServiceParams) ReconcilerService {
	return &reconcilerService{
		ServiceParams: params,
		schedule:      NewScheduleService(params),
	}
}

func (s *reconcilerService) ProcessEvent(ctx context.Context, event *providerwebhook.ProviderEvent) error {
	switch event.Type {
	case types.ProviderEventPaymentSucceeded, types.ProviderEventInvoicePaid:
		return s.handlePaymentSucceeded(ctx, event)
	case types.ProviderEventPaymentFailed, types.ProviderEventInvoiceFailed:
		return s.handlePaymentFailed(ctx, event)
	case types.ProviderEventSetupSucceeded:
		return s.handleSetupSucceeded(ctx, event)
	case types.ProviderEventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	case types.ProviderEventChargeDisputeCreated:
		return s.handleDispute(ctx, event)
	case types.ProviderEventIgnored:
		// Acknowledged without side effects so the provider stops retrying.
		s.Logger.Debugw("ignoring provider event", "event_id", event.ID)
		return nil
	}
	return nil
}

func (s *reconcilerService) handlePaymentSucceeded(ctx context.Context, event *providerwebhook.ProviderEvent) error {
	p, ctx, err := s.resolvePayment(ctx, event)
	if err != nil {
		return err
	}

	if p != nil {
		if p.PaymentStatus == types.PaymentStatusSucceeded {
			// Redelivery: the row exists and the transition already ran.
			s.Logger.Debugw("duplicate payment event, already reconciled",
				"event_id", event.ID,
				"payment_id", p.ID,
			)
			return nil
		}
		return s.settlePayment(ctx, p, event)
	}

	// No local row: the provider originated this charge (recurring invoice).
	sub, err := s.SubRepo.GetByProviderSubscriptionID(ctx, event.ProviderSubscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			// Unmapped charge. Retrying will never map it, so acknowledge.
			s.Logger.Warnw("provider charge does not map to any subscription",
				"event_id", event.ID,
				"gateway_payment_id", event.GatewayPaymentID,
			)
			return nil
		}
		return err
	}
	ctx = types.SetTenantID(ctx, sub.TenantID)

	p = &payment.Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		IdempotencyKey:    event.GatewayPaymentID,
		DestinationType:   types.PaymentDestinationTypeBillingCycle,
		ContactID:         sub.ContactID,
		SubscriptionID:    &sub.ID,
		ChargeShape:       types.ChargeShapeProviderRecurring,
		PaymentMethodType: types.PaymentMethodTypeCard,
		GatewayPaymentID:  &event.GatewayPaymentID,
		AmountCents:       event.AmountCents,
		Currency:          event.Currency,
		PaymentStatus:     types.PaymentStatusPending,
		Description:       "Recurring membership charge",
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}

	cycle, err := s.matchCycle(ctx, sub.ID, event)
	if err != nil {
		return err
	}
	if cycle != nil {
		p.DestinationID = cycle.ID
	} else {
		p.DestinationType = types.PaymentDestinationTypeAdHoc
	}

	// The unique gateway payment id constraint makes concurrent redelivery
	// safe: the second writer loses and treats the event as already applied.
	if err := s.PaymentRepo.Create(ctx, p); err != nil {
		if ierr.IsAlreadyExists(err) {
			s.Logger.Debugw("concurrent redelivery, payment already recorded",
				"gateway_payment_id", event.GatewayPaymentID,
			)
			return nil
		}
		return err
	}

	return s.settlePayment(ctx, p, event)
}

// settlePayment transitions a payment row to succeeded and marks the matched
// billing cycle paid.
func (s *reconcilerService) settlePayment(ctx context.Context, p *payment.Payment, event *providerwebhook.ProviderEvent) error {
	now := time.Now().UTC()
	p.PaymentStatus = types.PaymentStatusSucceeded
	p.SucceededAt = &now
	p.UpdatedAt = now
	if p.GatewayPaymentID == nil && event.GatewayPaymentID != "" {
		p.GatewayPaymentID = &event.GatewayPaymentID
	}
	if p.ReceiptNumber == nil {
		receipt := types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_RECEIPT)
		p.ReceiptNumber = &receipt
	}
	if err := s.PaymentRepo.Update(ctx, p); err != nil {
		return err
	}

	if p.DestinationType == types.PaymentDestinationTypeBillingCycle && p.DestinationID != "" {
		cycle, err := s.CycleRepo.Get(ctx, p.DestinationID)
		if err != nil {
			return err
		}
		if cycle.CycleStatus != types.BillingCycleStatusPaid {
			cycle.CycleStatus = types.BillingCycleStatusPaid
			cycle.PaymentID = &p.ID
			cycle.PaidAt = &now
			cycle.UpdatedAt = now
			if err := s.CycleRepo.Update(ctx, cycle); err != nil {
				return err
			}
			// Best effort: the payment is settled either way, and a failed
			// event must not be redelivered once the row exists.
			if err := s.schedule.AdvanceAfterSettlement(ctx, cycle); err != nil {
				s.Logger.Errorw("failed to advance schedule after settlement",
					"error", err,
					"cycle_id", cycle.ID,
				)
			}
		}
	}

	s.Logger.Infow("reconciled successful payment",
		"event_id", event.ID,
		"payment_id", p.ID,
		"gateway_payment_id", event.GatewayPaymentID,
	)
	s.publishWebhookEvent(ctx, types.WebhookEventPaymentSuccess, dto.NewPaymentResponse(p))
	return nil
}

func (s *reconcilerService) handlePaymentFailed(ctx context.Context, event *providerwebhook.ProviderEvent) error {
	p, ctx, err := s.resolvePayment(ctx, event)
	if err != nil {
		return err
	}
	if p == nil {
		// A failed charge we never initiated leaves nothing to update.
		s.Logger.Warnw("failed provider charge does not map to any payment",
			"event_id", event.ID,
			"gateway_payment_id", event.GatewayPaymentID,
		)
		return nil
	}
	if p.PaymentStatus == types.PaymentStatusFailed {
		return nil
	}

	now := time.Now().UTC()
	p.PaymentStatus = types.PaymentStatusFailed
	p.FailedAt = &now
	p.UpdatedAt = now
	if event.ErrorMessage != "" {
		p.ErrorMessage = &event.ErrorMessage
	}
	if p.GatewayPaymentID == nil && event.GatewayPaymentID != "" {
		p.GatewayPaymentID = &event.GatewayPaymentID
	}
	if err := s.PaymentRepo.Update(ctx, p); err != nil {
		return err
	}

	if p.DestinationType == types.PaymentDestinationTypeBillingCycle && p.DestinationID != "" {
		cycle, err := s.CycleRepo.Get(ctx, p.DestinationID)
		if err != nil {
			return err
		}
		if !cycle.CycleStatus.IsTerminal() {
			// Past-due failures go straight to overdue; future cycles stay
			// pending for the dunning scan to pick up.
			if cycle.ScheduledDate.Before(now) {
				cycle.CycleStatus = types.BillingCycleStatusOverdue
			}
			cycle.RetryCount++
			cycle.UpdatedAt = now
			if err := s.CycleRepo.Update(ctx, cycle); err != nil {
				return err
			}
		}
	}

	s.Logger.Infow("reconciled failed payment",
		"event_id", event.ID,
		"payment_id", p.ID,
		"error_message", event.ErrorMessage,
	)
	s.publishWebhookEvent(ctx, types.WebhookEventPaymentFailed, dto.NewPaymentResponse(p))
	return nil
}

func (s *reconcilerService) handleSetupSucceeded(ctx context.Context, event *providerwebhook.ProviderEvent) error {
	contactID := event.Metadata["dojoflow_contact_id"]
	tenantID := event.Metadata["dojoflow_tenant_id"]
	if contactID == "" || tenantID == "" {
		s.Logger.Warnw("setup event without contact metadata, ignoring",
			"event_id", event.ID,
		)
		return nil
	}
	ctx = types.SetTenantID(ctx, tenantID)

	c, err := s.ContactRepo.Get(ctx, contactID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("setup event for unknown contact, ignoring",
				"event_id", event.ID,
				"contact_id", contactID,
			)
			return nil
		}
		return err
	}

	existing, err := s.PaymentMethodRepo.ListByContact(ctx, c.ID)
	if err != nil {
		return err
	}
	for _, m := range existing {
		if m.ProviderMethodID == event.PaymentMethodID {
			// Redelivery: the method is already stored.
			return nil
		}
	}

	method := &paymentmethod.PaymentMethod{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_METHOD),
		ContactID:        c.ID,
		ProviderMethodID: event.PaymentMethodID,
		MethodType:       types.PaymentMethodTypeCard,
		IsDefault:        len(existing) == 0,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}

	// Enrich with card details when the provider has them.
	route, err := s.StripeClient.ResolveRoute(ctx, tenantID)
	if err == nil {
		if pm, err := s.StripePayments.GetPaymentMethod(ctx, event.PaymentMethodID, route); err == nil && pm.Card != nil {
			last4 := pm.Card.Last4
			brand := string(pm.Card.Brand)
			method.Last4 = &last4
			method.Brand = &brand
		}
	}

	if err := s.PaymentMethodRepo.Create(ctx, method); err != nil {
		if ierr.IsStateConflict(err) || ierr.IsAlreadyExists(err) {
			return nil
		}
		return err
	}

	s.Logger.Infow("stored payment method from setup event",
		"event_id", event.ID,
		"contact_id", c.ID,
		"payment_method_id", method.ID,
	)
	return nil
}

func (s *reconcilerService) handleSubscriptionDeleted(ctx context.Context, event *providerwebhook.ProviderEvent) error {
	sub, err := s.SubRepo.GetByProviderSubscriptionID(ctx, event.ProviderSubscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("cancellation event for unknown subscription, ignoring",
				"event_id", event.ID,
				"provider_subscription_id", event.ProviderSubscriptionID,
			)
			return nil
		}
		return err
	}
	ctx = types.SetTenantID(ctx, sub.TenantID)

	if sub.IsCancelled() {
		return nil
	}

	now := time.Now().UTC()
	sub.SubscriptionStatus = types.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	sub.UpdatedAt = now
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}
	cancelled, err := s.CycleRepo.CancelFutureCycles(ctx, sub.ID, now)
	if err != nil {
		return err
	}

	s.Logger.Infow("cancelled subscription from provider event",
		"event_id", event.ID,
		"subscription_id", sub.ID,
		"cancelled_cycles", cancelled,
	)
	s.publishWebhookEvent(ctx, types.WebhookEventSubscriptionEnd, dto.NewSubscriptionResponse(sub, nil))
	return nil
}

func (s *reconcilerService) handleDispute(ctx context.Context, event *providerwebhook.ProviderEvent) error {
	p, ctx, err := s.resolvePayment(ctx, event)
	if err != nil {
		return err
	}
	if p == nil {
		s.Logger.Warnw("dispute for unknown charge, ignoring",
			"event_id", event.ID,
			"gateway_payment_id", event.GatewayPaymentID,
		)
		return nil
	}

	// Disputes are surfaced to the academy; the payment row stays as the
	// audit record of what was charged.
	s.Logger.Warnw("charge dispute opened",
		"event_id", event.ID,
		"payment_id", p.ID,
		"amount_cents", event.AmountCents,
	)
	s.publishWebhookEvent(ctx, types.WebhookEventPaymentFailed, dto.NewPaymentResponse(p))
	return nil
}

// resolvePayment finds the local payment row for a provider event, first by
// gateway payment id, then by the payment id we stamped on the charge
// metadata. The returned context carries the payment's tenant.
func (s *reconcilerService) resolvePayment(ctx context.Context, event *providerwebhook.ProviderEvent) (*payment.Payment, context.Context, error) {
	if event.GatewayPaymentID != "" {
		p, err := s.PaymentRepo.GetByGatewayPaymentID(ctx, event.GatewayPaymentID)
		if err == nil {
			return p, types.SetTenantID(ctx, p.TenantID), nil
		}
		if !ierr.IsNotFound(err) {
			return nil, ctx, err
		}
	}

	if paymentID := event.Metadata["dojoflow_payment_id"]; paymentID != "" {
		if tenantID := event.Metadata["dojoflow_tenant_id"]; tenantID != "" {
			ctx = types.SetTenantID(ctx, tenantID)
		}
		p, err := s.PaymentRepo.Get(ctx, paymentID)
		if err == nil {
			return p, ctx, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, ctx, err
		}
	}

	return nil, ctx, nil
}

// matchCycle links a provider-originated charge to a billing cycle: first by
// explicit cycle metadata, then by amount and nearest unpaid due date.
func (s *reconcilerService) matchCycle(ctx context.Context, subscriptionID string, event *providerwebhook.ProviderEvent) (*subscription.BillingCycle, error) {
	if cycleID := event.Metadata["dojoflow_cycle_id"]; cycleID != "" {
		cycle, err := s.CycleRepo.Get(ctx, cycleID)
		if err == nil {
			return cycle, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	cycles, err := s.CycleRepo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	var best *subscription.BillingCycle
	for _, c := range cycles {
		if !c.IsChargeable() {
			continue
		}
		if c.AmountCents != event.AmountCents {
			continue
		}
		if best == nil || c.ScheduledDate.Before(best.ScheduledDate) {
			best = c
		}
	}
	return best, nil
}
