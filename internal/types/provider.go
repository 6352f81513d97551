package types

// ProviderEventType enumerates the payment-provider webhook event categories
// this engine recognizes. Inbound events are decoded into exactly one of these
// at the boundary; anything else maps to ProviderEventIgnored rather than
// being interpreted best-effort.
type ProviderEventType string

const (
	ProviderEventPaymentSucceeded     ProviderEventType = "payment_intent.succeeded"
	ProviderEventPaymentFailed        ProviderEventType = "payment_intent.payment_failed"
	ProviderEventSetupSucceeded       ProviderEventType = "setup_intent.succeeded"
	ProviderEventSubscriptionDeleted  ProviderEventType = "customer.subscription.deleted"
	ProviderEventInvoicePaid          ProviderEventType = "invoice.payment_succeeded"
	ProviderEventInvoiceFailed        ProviderEventType = "invoice.payment_failed"
	ProviderEventChargeDisputeCreated ProviderEventType = "charge.dispute.created"

	// ProviderEventIgnored is the explicit "recognized as unrecognized" case.
	// Events mapping here are acknowledged and produce no state mutation.
	ProviderEventIgnored ProviderEventType = "ignored"
)

func (s ProviderEventType) String() string {
	return string(s)
}

// ParseProviderEventType maps a raw provider event type string to the closed
// set above. Unknown types map to ProviderEventIgnored.
func ParseProviderEventType(raw string) ProviderEventType {
	switch ProviderEventType(raw) {
	case ProviderEventPaymentSucceeded,
		ProviderEventPaymentFailed,
		ProviderEventSetupSucceeded,
		ProviderEventSubscriptionDeleted,
		ProviderEventInvoicePaid,
		ProviderEventInvoiceFailed,
		ProviderEventChargeDisputeCreated:
		return ProviderEventType(raw)
	default:
		return ProviderEventIgnored
	}
}
