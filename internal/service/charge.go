package service

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/domain/contact"
	"github.com/dojoflow/dojoflow/internal/domain/payment"
	"github.com/dojoflow/dojoflow/internal/domain/paymentmethod"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/idempotency"
	"github.com/dojoflow/dojoflow/internal/integration/stripe"
	"github.com/dojoflow/dojoflow/internal/types"
)

// ChargeService turns due billing cycles and ad hoc requests into provider
// charges. The payment row, carrying the client idempotency key, is recorded
// before the provider round trip: a retried request lands on the same
// provider intent instead of charging twice.
type ChargeService interface {
	// Charge dispatches on the request shape: with a billing cycle id it is
	// an installment charge, without one an ad hoc charge.
	Charge(ctx context.Context, req dto.ChargeRequest) (*dto.ChargeResponse, error)
	ChargeCycle(ctx context.Context, cycleID string) (*dto.ChargeResponse, error)
	ChargeAdHoc(ctx context.Context, req dto.ChargeRequest) (*dto.ChargeResponse, error)
}

type chargeService struct {
	ServiceParams
	idempGen *idempotency.Generator
	schedule ScheduleService
}

// NewChargeService creates a new charge service
func NewChargeService(params ServiceParams) ChargeService {
	return &chargeService{
		ServiceParams: params,
		idempGen:      idempotency.NewGenerator(),
		schedule:      NewScheduleService(params),
	}
}

func (s *chargeService) Charge(ctx context.Context, req dto.ChargeRequest) (*dto.ChargeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.BillingCycleID != nil {
		return s.ChargeCycle(ctx, *req.BillingCycleID)
	}
	return s.ChargeAdHoc(ctx, req)
}

func (s *chargeService) ChargeCycle(ctx context.Context, cycleID string) (*dto.ChargeResponse, error) {
	cycle, err := s.CycleRepo.Get(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if !cycle.IsChargeable() {
		return nil, ierr.NewError("cycle is not chargeable").
			WithHintf("Billing cycle is %s", cycle.CycleStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	sub, err := s.SubRepo.Get(ctx, cycle.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.SubscriptionStatus != types.SubscriptionStatusActive {
		return nil, ierr.NewError("subscription is not active").
			WithHintf("Subscription is %s, charges are suspended", sub.SubscriptionStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	c, method, err := s.resolveContactAndMethod(ctx, sub.ContactID)
	if err != nil {
		return nil, err
	}

	idempotencyKey := s.idempGen.GenerateKey(idempotency.ScopeCycleCharge, map[string]interface{}{
		"cycle_id": cycle.ID,
	})
	if resp, done, err := s.shortCircuitOnReplay(ctx, idempotencyKey); done {
		return resp, err
	}

	p := &payment.Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		IdempotencyKey:    idempotencyKey,
		DestinationType:   types.PaymentDestinationTypeBillingCycle,
		DestinationID:     cycle.ID,
		ContactID:         c.ID,
		SubscriptionID:    &sub.ID,
		ChargeShape:       types.ChargeShapeInstallment,
		PaymentMethodID:   &method.ID,
		PaymentMethodType: method.MethodType,
		AmountCents:       cycle.AmountCents,
		Currency:          cycle.Currency,
		PaymentStatus:     types.PaymentStatusPending,
		Description:       "Membership installment",
		TrackAttempts:     true,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}

	result, err := s.executeCharge(ctx, p, c, method)
	if err != nil {
		return nil, err
	}

	if result.Status == types.PaymentStatusSucceeded {
		if err := s.markCyclePaid(ctx, cycle, p); err != nil {
			return nil, err
		}
	}
	return chargeResponse(p, result), nil
}

func (s *chargeService) ChargeAdHoc(ctx context.Context, req dto.ChargeRequest) (*dto.ChargeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.AmountCents <= 0 {
		return nil, ierr.NewError("invalid amount").
			WithHint("Amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}

	// Resolve the default method before creating any state: a contact with
	// nothing on file must fail without leaving a payment row behind.
	c, method, err := s.resolveContactAndMethod(ctx, req.ContactID)
	if err != nil {
		return nil, err
	}

	tenant, err := s.TenantRepo.Get(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}

	// A client-supplied key scopes replay detection exactly. Without one the
	// key carries a minute bucket, so an immediate retry still dedupes while
	// a later identical charge goes through as a new payment.
	requestKey := req.IdempotencyKey
	if requestKey == "" {
		requestKey = time.Now().UTC().Format("2006-01-02T15:04")
	}
	idempotencyKey := s.idempGen.GenerateKey(idempotency.ScopeAdHocCharge, map[string]interface{}{
		"contact_id":  req.ContactID,
		"amount":      req.AmountCents,
		"description": req.Description,
		"request_key": requestKey,
	})
	if resp, done, err := s.shortCircuitOnReplay(ctx, idempotencyKey); done {
		return resp, err
	}

	p := &payment.Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		IdempotencyKey:    idempotencyKey,
		DestinationType:   types.PaymentDestinationTypeAdHoc,
		ContactID:         c.ID,
		ChargeShape:       types.ChargeShapeOneTime,
		PaymentMethodID:   &method.ID,
		PaymentMethodType: method.MethodType,
		AmountCents:       req.AmountCents,
		Currency:          tenant.Currency,
		PaymentStatus:     types.PaymentStatusPending,
		Description:       req.Description,
		Metadata:          req.Metadata,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}

	result, err := s.executeCharge(ctx, p, c, method)
	if err != nil {
		return nil, err
	}
	return chargeResponse(p, result), nil
}

// resolveContactAndMethod loads the contact and its default stored method.
// No default method means no charge can be attempted at all.
func (s *chargeService) resolveContactAndMethod(ctx context.Context, contactID string) (*contact.Contact, *paymentmethod.PaymentMethod, error) {
	c, err := s.ContactRepo.Get(ctx, contactID)
	if err != nil {
		return nil, nil, err
	}

	method, err := s.PaymentMethodRepo.GetDefaultByContact(ctx, contactID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil, ierr.NewError("no payment method on file").
				WithHint("The contact has no default payment method").
				WithReportableDetails(map[string]any{
					"contact_id": contactID,
				}).
				Mark(ierr.ErrPaymentMethodRequired)
		}
		return nil, nil, err
	}
	if method.MethodType.IsOffline() {
		return nil, nil, ierr.NewError("default method is offline").
			WithHint("Offline payment methods cannot be charged automatically").
			Mark(ierr.ErrInvalidOperation)
	}
	return c, method, nil
}

// shortCircuitOnReplay returns the recorded outcome when the same logical
// charge was already executed.
func (s *chargeService) shortCircuitOnReplay(ctx context.Context, idempotencyKey string) (*dto.ChargeResponse, bool, error) {
	existing, err := s.PaymentRepo.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, true, err
	}

	s.Logger.Infow("charge replay detected, returning recorded outcome",
		"payment_id", existing.ID,
		"payment_status", existing.PaymentStatus,
	)
	resp := &dto.ChargeResponse{
		Status:    existing.PaymentStatus,
		PaymentID: existing.ID,
	}
	if existing.ErrorMessage != nil {
		resp.ErrorMessage = *existing.ErrorMessage
	}
	return resp, true, nil
}

// executeCharge records the payment row, fires the off-session charge, and
// applies the outcome to the row. A transport failure leaves the row in
// processing: the outcome is unknown and only the provider's event stream
// can settle it.
func (s *chargeService) executeCharge(ctx context.Context, p *payment.Payment, c *contact.Contact, method *paymentmethod.PaymentMethod) (*stripe.ChargeResult, error) {
	route, err := s.StripeClient.ResolveRoute(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}
	customerID, err := s.StripeCustomers.EnsureProviderCustomer(ctx, c, route)
	if err != nil {
		return nil, err
	}

	if err := s.PaymentRepo.Create(ctx, p); err != nil {
		if ierr.IsAlreadyExists(err) {
			return nil, ierr.WithError(err).
				WithHint("The same charge is already being processed").
				Mark(ierr.ErrStateConflict)
		}
		return nil, err
	}

	result, err := s.StripePayments.ChargeOffSession(ctx, &stripe.OffSessionChargeRequest{
		CustomerID:      customerID,
		PaymentMethodID: method.ProviderMethodID,
		AmountCents:     p.AmountCents,
		Currency:        p.Currency,
		IdempotencyKey:  p.IdempotencyKey,
		Description:     p.Description,
		Metadata: map[string]string{
			"dojoflow_payment_id": p.ID,
			"dojoflow_cycle_id":   p.DestinationID,
			"dojoflow_tenant_id":  p.TenantID,
		},
	}, route)
	if err != nil {
		// Unknown outcome: never blind-retry, wait for the provider event.
		p.PaymentStatus = types.PaymentStatusProcessing
		p.UpdatedAt = time.Now().UTC()
		if updateErr := s.PaymentRepo.Update(ctx, p); updateErr != nil {
			s.Logger.Errorw("failed to record processing state", "error", updateErr, "payment_id", p.ID)
		}
		s.recordAttempt(ctx, p, nil)
		return nil, err
	}

	s.applyChargeResult(ctx, p, result)
	s.recordAttempt(ctx, p, result)
	return result, nil
}

func (s *chargeService) applyChargeResult(ctx context.Context, p *payment.Payment, result *stripe.ChargeResult) {
	now := time.Now().UTC()
	p.PaymentStatus = result.Status
	p.UpdatedAt = now
	p.UpdatedBy = types.GetUserID(ctx)
	if result.GatewayPaymentID != "" {
		p.GatewayPaymentID = &result.GatewayPaymentID
	}

	switch result.Status {
	case types.PaymentStatusSucceeded:
		p.SucceededAt = &now
		receipt := types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_RECEIPT)
		p.ReceiptNumber = &receipt
	case types.PaymentStatusFailed:
		p.FailedAt = &now
		p.ErrorMessage = result.ErrorMessage
	}

	if err := s.PaymentRepo.Update(ctx, p); err != nil {
		s.Logger.Errorw("failed to record charge outcome",
			"error", err,
			"payment_id", p.ID,
			"payment_status", result.Status,
		)
	}

	switch result.Status {
	case types.PaymentStatusSucceeded:
		s.publishWebhookEvent(ctx, types.WebhookEventPaymentSuccess, dto.NewPaymentResponse(p))
	case types.PaymentStatusFailed:
		s.publishWebhookEvent(ctx, types.WebhookEventPaymentFailed, dto.NewPaymentResponse(p))
	case types.PaymentStatusRequiresAction:
		s.publishWebhookEvent(ctx, types.WebhookEventPaymentAction, dto.NewPaymentResponse(p))
	}
}

func (s *chargeService) recordAttempt(ctx context.Context, p *payment.Payment, result *stripe.ChargeResult) {
	if !p.TrackAttempts {
		return
	}

	attemptNumber := 1
	if latest, err := s.PaymentRepo.GetLatestAttempt(ctx, p.ID); err == nil {
		attemptNumber = latest.AttemptNumber + 1
	}

	attempt := &payment.PaymentAttempt{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_ATTEMPT),
		PaymentID:     p.ID,
		AttemptNumber: attemptNumber,
		PaymentStatus: p.PaymentStatus,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	if result != nil {
		attempt.ErrorMessage = result.ErrorMessage
	}
	if err := s.PaymentRepo.CreateAttempt(ctx, attempt); err != nil {
		s.Logger.Errorw("failed to record payment attempt",
			"error", err,
			"payment_id", p.ID,
			"attempt_number", attemptNumber,
		)
	}
}

func (s *chargeService) markCyclePaid(ctx context.Context, cycle *subscription.BillingCycle, p *payment.Payment) error {
	now := time.Now().UTC()
	cycle.CycleStatus = types.BillingCycleStatusPaid
	cycle.PaymentID = &p.ID
	cycle.PaidAt = &now
	cycle.UpdatedAt = now
	cycle.UpdatedBy = types.GetUserID(ctx)
	if err := s.CycleRepo.Update(ctx, cycle); err != nil {
		return err
	}

	if err := s.schedule.AdvanceAfterSettlement(ctx, cycle); err != nil {
		// The charge itself succeeded; the missing renewal surfaces in the
		// schedule, not in the charge outcome.
		s.Logger.Errorw("failed to advance schedule after settlement",
			"error", err,
			"cycle_id", cycle.ID,
		)
	}
	return nil
}

func chargeResponse(p *payment.Payment, result *stripe.ChargeResult) *dto.ChargeResponse {
	resp := &dto.ChargeResponse{
		Status:    result.Status,
		PaymentID: p.ID,
	}
	if result.ErrorMessage != nil {
		resp.ErrorMessage = *result.ErrorMessage
	}
	return resp
}
