package webhook

import (
	"github.com/dojoflow/dojoflow/internal/config"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/pubsub"
	"github.com/dojoflow/dojoflow/internal/pubsub/memory"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/dojoflow/dojoflow/internal/webhook/handler"
	"github.com/dojoflow/dojoflow/internal/webhook/publisher"
	"go.uber.org/fx"
)

// Module provides all webhook-related dependencies
var Module = fx.Options(
	fx.Provide(
		// PubSub for sending webhook events
		providePubSub,
	),

	fx.Provide(
		// Publisher for sending webhook events
		publisher.NewPublisher,

		// Handler for delivering webhook events
		handler.NewHandler,

		// Main webhook service
		NewWebhookService,
	),
)

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) pubsub.PubSub {
	switch cfg.Webhook.PubSub {
	case types.MemoryPubSub:
		return memory.NewPubSub(cfg, logger)
	case types.KafkaPubSub:
		// TODO: wire a kafka transport once a deployment needs cross-process delivery
	}
	panic("unsupported pubsub type")
}
