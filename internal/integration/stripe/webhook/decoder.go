package webhook

import (
	"encoding/json"

	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/integration/stripe"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/types"
	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// ProviderEvent is the closed, normalized form of a verified provider
// webhook. Decoding happens once at this boundary; everything downstream
// switches on Type and never inspects raw provider payloads.
type ProviderEvent struct {
	// ID is the provider's event id, used for tracing
	ID string
	// Type is one of the recognized event categories, or ignored
	Type types.ProviderEventType
	// GatewayPaymentID is the provider charge/payment-intent id, when present
	GatewayPaymentID string
	// GatewayCustomerID is the provider customer id, when present
	GatewayCustomerID string
	// ProviderSubscriptionID links provider-owned subscription events
	ProviderSubscriptionID string
	// PaymentMethodID is set on setup events that stored a new method
	PaymentMethodID string
	// AmountCents is the charged amount in minor units, when present
	AmountCents int64
	// Currency is the charge currency, when present
	Currency string
	// ErrorMessage carries the provider's failure reason on failed charges
	ErrorMessage string
	// Metadata is the metadata we stamped on the originating request
	Metadata map[string]string
}

// Decoder verifies and decodes inbound provider webhooks
type Decoder struct {
	client *stripe.Client
	logger *logger.Logger
}

// NewDecoder creates a new webhook decoder
func NewDecoder(client *stripe.Client, logger *logger.Logger) *Decoder {
	return &Decoder{
		client: client,
		logger: logger,
	}
}

// VerifyAndDecode checks the event signature and maps the payload into a
// ProviderEvent. Verification is mandatory: an event that fails it is
// rejected outright, never processed on a best-effort basis.
func (d *Decoder) VerifyAndDecode(payload []byte, signature string) (*ProviderEvent, error) {
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, d.client.WebhookSecret(), options)
	if err != nil {
		d.logger.Errorw("webhook signature verification failed", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrInvalidSignature)
	}

	return d.decode(&event)
}

func (d *Decoder) decode(event *stripeapi.Event) (*ProviderEvent, error) {
	decoded := &ProviderEvent{
		ID:   event.ID,
		Type: types.ParseProviderEventType(string(event.Type)),
	}

	switch decoded.Type {
	case types.ProviderEventPaymentSucceeded, types.ProviderEventPaymentFailed:
		var intent stripeapi.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, d.malformed(event, err)
		}
		decoded.GatewayPaymentID = intent.ID
		decoded.AmountCents = intent.Amount
		decoded.Currency = string(intent.Currency)
		decoded.Metadata = intent.Metadata
		if intent.Customer != nil {
			decoded.GatewayCustomerID = intent.Customer.ID
		}
		if intent.LastPaymentError != nil {
			decoded.ErrorMessage = intent.LastPaymentError.Msg
		}

	case types.ProviderEventSetupSucceeded:
		var setupIntent stripeapi.SetupIntent
		if err := json.Unmarshal(event.Data.Raw, &setupIntent); err != nil {
			return nil, d.malformed(event, err)
		}
		decoded.Metadata = setupIntent.Metadata
		if setupIntent.Customer != nil {
			decoded.GatewayCustomerID = setupIntent.Customer.ID
		}
		if setupIntent.PaymentMethod != nil {
			decoded.PaymentMethodID = setupIntent.PaymentMethod.ID
		}

	case types.ProviderEventSubscriptionDeleted:
		var sub stripeapi.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, d.malformed(event, err)
		}
		decoded.ProviderSubscriptionID = sub.ID
		decoded.Metadata = sub.Metadata
		if sub.Customer != nil {
			decoded.GatewayCustomerID = sub.Customer.ID
		}

	case types.ProviderEventInvoicePaid, types.ProviderEventInvoiceFailed:
		var invoice stripeapi.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return nil, d.malformed(event, err)
		}
		decoded.GatewayPaymentID = invoice.ID
		decoded.AmountCents = invoice.AmountPaid
		if invoice.AmountPaid == 0 {
			decoded.AmountCents = invoice.AmountDue
		}
		decoded.Currency = string(invoice.Currency)
		decoded.Metadata = invoice.Metadata
		if invoice.Customer != nil {
			decoded.GatewayCustomerID = invoice.Customer.ID
		}
		if invoice.Parent != nil && invoice.Parent.SubscriptionDetails != nil && invoice.Parent.SubscriptionDetails.Subscription != nil {
			decoded.ProviderSubscriptionID = invoice.Parent.SubscriptionDetails.Subscription.ID
		}

	case types.ProviderEventChargeDisputeCreated:
		var dispute stripeapi.Dispute
		if err := json.Unmarshal(event.Data.Raw, &dispute); err != nil {
			return nil, d.malformed(event, err)
		}
		if dispute.PaymentIntent != nil {
			decoded.GatewayPaymentID = dispute.PaymentIntent.ID
		}
		decoded.AmountCents = dispute.Amount
		decoded.Currency = string(dispute.Currency)

	case types.ProviderEventIgnored:
		d.logger.Debugw("ignoring unrecognized provider event",
			"event_id", event.ID,
			"event_type", event.Type)
	}

	return decoded, nil
}

func (d *Decoder) malformed(event *stripeapi.Event, err error) error {
	d.logger.Errorw("failed to decode provider event payload",
		"event_id", event.ID,
		"event_type", event.Type,
		"error", err)
	return ierr.WithError(err).
		WithHintf("Malformed payload for event %s", event.Type).
		Mark(ierr.ErrValidation)
}
