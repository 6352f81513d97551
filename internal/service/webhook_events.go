package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dojoflow/dojoflow/internal/types"
)

// publishWebhookEvent emits an outbound notification for the current tenant.
// Delivery is best effort: a publish failure is logged and never fails the
// operation that produced the event.
func (p ServiceParams) publishWebhookEvent(ctx context.Context, eventName string, payload interface{}) {
	if p.WebhookPublisher == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.Logger.Errorw("failed to marshal webhook payload",
			"error", err,
			"event_name", eventName,
		)
		return
	}

	event := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName: eventName,
		TenantID:  types.GetTenantID(ctx),
		UserID:    types.GetUserID(ctx),
		Timestamp: time.Now().UTC(),
		Payload:   data,
	}

	if err := p.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		p.Logger.Errorw("failed to publish webhook event",
			"error", err,
			"event_name", eventName,
			"tenant_id", event.TenantID,
		)
	}
}
