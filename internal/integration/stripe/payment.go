package stripe

import (
	"context"

	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"
)

// PaymentService handles Stripe payment operations
type PaymentService struct {
	client *Client
	logger *logger.Logger
}

// NewPaymentService creates a new Stripe payment service
func NewPaymentService(client *Client, logger *logger.Logger) *PaymentService {
	return &PaymentService{
		client: client,
		logger: logger,
	}
}

// OffSessionChargeRequest describes one off-session charge against a stored
// payment method.
type OffSessionChargeRequest struct {
	CustomerID      string
	PaymentMethodID string
	AmountCents     int64
	Currency        string
	IdempotencyKey  string
	Description     string
	Metadata        map[string]string
}

// ChargeResult is the normalized outcome of a charge attempt. Declines and
// authentication challenges are outcomes, not errors: the caller records them
// on the payment row. Only transport and provider failures surface as errors.
type ChargeResult struct {
	GatewayPaymentID string
	Status           types.PaymentStatus
	ErrorMessage     *string
}

// ChargeOffSession fires a confirmed off-session PaymentIntent. The
// idempotency key is stamped on the provider request, so a retried call after
// a network failure lands on the same intent instead of charging again.
func (s *PaymentService) ChargeOffSession(ctx context.Context, req *OffSessionChargeRequest, route *Route) (*ChargeResult, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(req.Currency),
		Customer:      stripe.String(req.CustomerID),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(req.Description),
		Metadata:      req.Metadata,
	}
	params.SetIdempotencyKey(req.IdempotencyKey)
	route.Apply(&params.Params)

	paymentIntent, err := s.client.API().V1PaymentIntents.Create(ctx, params)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok {
			switch stripeErr.Code {
			case stripe.ErrorCodeAuthenticationRequired:
				// The stored card demands on-session authentication. The
				// intent exists on the provider side and completes once the
				// member returns.
				result := &ChargeResult{
					Status:       types.PaymentStatusRequiresAction,
					ErrorMessage: lo.ToPtr(stripeErr.Msg),
				}
				if stripeErr.PaymentIntent != nil {
					result.GatewayPaymentID = stripeErr.PaymentIntent.ID
				}
				return result, nil
			case stripe.ErrorCodeCardDeclined, stripe.ErrorCodeExpiredCard, stripe.ErrorCodeIncorrectCVC:
				result := &ChargeResult{
					Status:       types.PaymentStatusFailed,
					ErrorMessage: lo.ToPtr(stripeErr.Msg),
				}
				if stripeErr.PaymentIntent != nil {
					result.GatewayPaymentID = stripeErr.PaymentIntent.ID
				}
				return result, nil
			}
		}

		s.logger.Errorw("off-session charge failed",
			"error", err,
			"customer_id", req.CustomerID,
			"payment_method_id", req.PaymentMethodID,
			"amount_cents", req.AmountCents)
		return nil, ierr.WithError(err).
			WithHint("The payment provider could not process the charge").
			WithReportableDetails(map[string]any{
				"customer_id": req.CustomerID,
			}).
			Mark(ierr.ErrProviderTransient)
	}

	result := &ChargeResult{GatewayPaymentID: paymentIntent.ID}
	switch paymentIntent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		result.Status = types.PaymentStatusSucceeded
	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation:
		result.Status = types.PaymentStatusRequiresAction
	case stripe.PaymentIntentStatusCanceled:
		result.Status = types.PaymentStatusFailed
		if paymentIntent.LastPaymentError != nil {
			result.ErrorMessage = lo.ToPtr(paymentIntent.LastPaymentError.Msg)
		}
	default:
		result.Status = types.PaymentStatusProcessing
	}

	s.logger.Infow("off-session charge completed",
		"payment_intent_id", paymentIntent.ID,
		"status", result.Status,
		"amount_cents", req.AmountCents)

	return result, nil
}

// CreateSetupIntent creates a setup intent used to collect and store a
// payment method for later off-session charges.
func (s *PaymentService) CreateSetupIntent(ctx context.Context, customerID string, metadata map[string]string, route *Route) (*stripe.SetupIntent, error) {
	params := &stripe.SetupIntentCreateParams{
		Customer: stripe.String(customerID),
		Usage:    stripe.String("off_session"),
		Metadata: metadata,
	}
	route.Apply(&params.Params)

	setupIntent, err := s.client.API().V1SetupIntents.Create(ctx, params)
	if err != nil {
		s.logger.Errorw("failed to create setup intent",
			"error", err,
			"customer_id", customerID)
		return nil, ierr.WithError(err).
			WithHint("Failed to create setup intent with the payment provider").
			Mark(ierr.ErrProviderTransient)
	}

	return setupIntent, nil
}

// GetPaymentMethod fetches a payment method from the provider, used to copy
// display details (brand, last4) onto our stored record.
func (s *PaymentService) GetPaymentMethod(ctx context.Context, paymentMethodID string, route *Route) (*stripe.PaymentMethod, error) {
	params := &stripe.PaymentMethodRetrieveParams{}
	route.Apply(&params.Params)

	pm, err := s.client.API().V1PaymentMethods.Retrieve(ctx, paymentMethodID, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Payment method %s was not found with the provider", paymentMethodID).
			Mark(ierr.ErrNotFound)
	}
	return pm, nil
}
