package handler

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dojoflow/dojoflow/internal/config"
	"github.com/dojoflow/dojoflow/internal/httpclient"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/pubsub"
	pubsubRouter "github.com/dojoflow/dojoflow/internal/pubsub/router"
	"github.com/dojoflow/dojoflow/internal/sentry"
	"github.com/dojoflow/dojoflow/internal/svix"
	"github.com/dojoflow/dojoflow/internal/types"
)

// Handler interface for processing webhook events
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

type handler struct {
	pubSub     pubsub.PubSub
	config     *config.WebhookConfig
	client     httpclient.Client
	logger     *logger.Logger
	sentry     *sentry.Service
	svixClient *svix.Client
}

// NewHandler creates a new webhook handler
func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	client httpclient.Client,
	logger *logger.Logger,
	sentry *sentry.Service,
	svixClient *svix.Client,
) (Handler, error) {
	return &handler{
		pubSub:     pubSub,
		config:     &cfg.Webhook,
		client:     client,
		logger:     logger,
		sentry:     sentry,
		svixClient: svixClient,
	}, nil
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"webhook_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

// processMessage processes a single webhook message
func (h *handler) processMessage(msg *message.Message) error {
	ctx := msg.Context()

	var event types.WebhookEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal webhook event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil // Don't retry on unmarshal errors
	}

	ctx = context.WithValue(ctx, types.CtxTenantID, event.TenantID)
	ctx = context.WithValue(ctx, types.CtxUserID, event.UserID)

	if h.config.Svix.Enabled {
		return h.processMessageSvix(ctx, &event, msg.UUID)
	}

	return h.processMessageNative(ctx, &event, msg.UUID)
}

// processMessageSvix delivers a webhook message through Svix
func (h *handler) processMessageSvix(ctx context.Context, event *types.WebhookEvent, messageUUID string) error {
	appID, err := h.svixClient.GetOrCreateApplication(ctx, event.TenantID)
	if err != nil {
		if err.Error() == "application not found" {
			h.logger.Debugw("no Svix application found, skipping webhook",
				"tenant_id", event.TenantID,
			)
			return nil
		}
		return err
	}

	if err := h.svixClient.SendMessage(ctx, appID, event.EventName, event.Payload); err != nil {
		h.logger.Errorw("failed to send webhook via Svix",
			"error", err,
			"message_uuid", messageUUID,
			"tenant_id", event.TenantID,
			"event", event.EventName,
		)
		return err
	}

	h.logger.Infow("webhook sent successfully via Svix",
		"message_uuid", messageUUID,
		"tenant_id", event.TenantID,
		"event", event.EventName,
	)

	return nil
}

// processMessageNative delivers a webhook message to the tenant's configured endpoint
func (h *handler) processMessageNative(ctx context.Context, event *types.WebhookEvent, messageUUID string) error {
	tenantCfg, ok := h.config.Users[event.TenantID]
	if !ok {
		h.logger.Warnw("tenant webhook config not found",
			"tenant_id", event.TenantID,
			"message_uuid", messageUUID,
		)
		// Don't retry if tenant not found
		return nil
	}

	if !tenantCfg.Enabled {
		h.logger.Debugw("webhooks disabled for tenant",
			"tenant_id", event.TenantID,
			"message_uuid", messageUUID,
		)
		return nil
	}

	for _, excludedEvent := range tenantCfg.ExcludedEvents {
		if excludedEvent == event.EventName {
			h.logger.Debugw("event excluded for tenant",
				"tenant_id", event.TenantID,
				"event", event.EventName,
			)
			return nil
		}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req := &httpclient.Request{
		Method:  "POST",
		URL:     tenantCfg.Endpoint,
		Headers: tenantCfg.Headers,
		Body:    body,
	}

	resp, err := h.client.Send(ctx, req)
	if err != nil {
		h.logger.Errorw("failed to send webhook",
			"error", err,
			"message_uuid", messageUUID,
			"tenant_id", event.TenantID,
			"event", event.EventName,
		)
		return err
	}

	h.logger.Infow("webhook sent successfully",
		"message_uuid", messageUUID,
		"tenant_id", event.TenantID,
		"event", event.EventName,
		"status_code", resp.StatusCode,
	)

	return nil
}
