package types

import (
	"encoding/json"
	"time"
)

// WebhookEvent is the envelope published on the outbound notification pipeline
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	TenantID  string          `json:"tenant_id"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Outbound webhook event names
const (
	WebhookEventPaymentPending  = "payment.pending"
	WebhookEventPaymentSuccess  = "payment.succeeded"
	WebhookEventPaymentFailed   = "payment.failed"
	WebhookEventPaymentAction   = "payment.requires_action"
	WebhookEventCycleOverdue    = "cycle.overdue"
	WebhookEventCycleUpcoming   = "cycle.upcoming"
	WebhookEventFreezeApplied   = "freeze.applied"
	WebhookEventFreezeClosed    = "freeze.closed"
	WebhookEventSubscriptionEnd = "subscription.cancelled"
)

// MemoryPubSub and KafkaPubSub name the supported outbound transports
const (
	MemoryPubSub = "memory"
	KafkaPubSub  = "kafka"
)
