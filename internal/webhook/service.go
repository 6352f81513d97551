package webhook

import (
	"context"
	"fmt"

	"github.com/dojoflow/dojoflow/internal/config"
	"github.com/dojoflow/dojoflow/internal/logger"
	pubsubRouter "github.com/dojoflow/dojoflow/internal/pubsub/router"
	"github.com/dojoflow/dojoflow/internal/webhook/handler"
	"github.com/dojoflow/dojoflow/internal/webhook/publisher"
)

// WebhookService orchestrates outbound webhook delivery
type WebhookService struct {
	config    *config.Configuration
	publisher publisher.WebhookPublisher
	handler   handler.Handler
	logger    *logger.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	cfg *config.Configuration,
	publisher publisher.WebhookPublisher,
	h handler.Handler,
	l *logger.Logger,
) *WebhookService {
	return &WebhookService{
		config:    cfg,
		publisher: publisher,
		handler:   h,
		logger:    l,
	}
}

// Start registers the delivery handler on the message router
func (s *WebhookService) Start(ctx context.Context, router *pubsubRouter.Router) error {
	if !s.config.Webhook.Enabled {
		s.logger.Info("webhook service disabled")
		return nil
	}

	s.logger.Debug("starting webhook service")
	s.handler.RegisterHandler(router)

	s.logger.Info("webhook service started successfully")
	return nil
}

// Stop stops the webhook service
func (s *WebhookService) Stop() error {
	s.logger.Debug("stopping webhook service")

	if err := s.publisher.Close(); err != nil {
		s.logger.Errorw("failed to close webhook publisher", "error", err)
		return fmt.Errorf("failed to close webhook publisher: %w", err)
	}

	s.logger.Info("webhook service stopped successfully")
	return nil
}
