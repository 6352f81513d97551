package cron

import (
	"net/http"

	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/service"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/gin-gonic/gin"
)

// DunningHandler exposes the dunning scan as an HTTP trigger so operators
// can run it on demand between scheduled passes.
type DunningHandler struct {
	dunningService service.DunningService
	log            *logger.Logger
}

func NewDunningHandler(dunningService service.DunningService, log *logger.Logger) *DunningHandler {
	return &DunningHandler{
		dunningService: dunningService,
		log:            log,
	}
}

// RunDunning runs the dunning scan across every tenant
func (h *DunningHandler) RunDunning(c *gin.Context) {
	h.log.Info("Starting dunning scan cron job")

	if err := h.dunningService.Run(c.Request.Context()); err != nil {
		h.log.Errorw("Failed to run dunning scan", "error", err)
		c.Error(err)
		return
	}

	h.log.Info("Completed dunning scan cron job")
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// RunDunningForTenant runs the dunning scan for a single tenant
func (h *DunningHandler) RunDunningForTenant(c *gin.Context) {
	tenantID := types.GetTenantID(c.Request.Context())

	if err := h.dunningService.RunForTenant(c.Request.Context(), tenantID); err != nil {
		h.log.Errorw("Failed to run dunning scan",
			"tenant_id", tenantID,
			"error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}
