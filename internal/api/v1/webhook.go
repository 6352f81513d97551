package v1

import (
	"net/http"

	ierr "github.com/dojoflow/dojoflow/internal/errors"
	providerwebhook "github.com/dojoflow/dojoflow/internal/integration/stripe/webhook"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/service"
	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	decoder    *providerwebhook.Decoder
	reconciler service.ReconcilerService
	log        *logger.Logger
}

func NewWebhookHandler(decoder *providerwebhook.Decoder, reconciler service.ReconcilerService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{decoder: decoder, reconciler: reconciler, log: log}
}

// @Summary Receive payment provider events
// @Description Verify, decode and reconcile an inbound provider webhook
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} middleware.ErrorResponse
// @Router /webhooks/payments [post]
func (h *WebhookHandler) HandleProviderWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Unable to read request body").
			Mark(ierr.ErrValidation))
		return
	}

	event, err := h.decoder.VerifyAndDecode(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if ierr.IsInvalidSignature(err) {
			c.Error(err)
			return
		}
		// A payload we cannot parse will never parse on redelivery either,
		// so acknowledge it instead of making the provider retry forever.
		h.log.Warnw("Acknowledging undecodable provider event", "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.reconciler.ProcessEvent(c.Request.Context(), event); err != nil {
		h.log.Errorw("Failed to reconcile provider event",
			"event_id", event.ID,
			"error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
