package v1

import (
	"net/http"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/service"
	"github.com/gin-gonic/gin"
)

type FreezeHandler struct {
	service service.FreezeService
	log     *logger.Logger
}

func NewFreezeHandler(service service.FreezeService, log *logger.Logger) *FreezeHandler {
	return &FreezeHandler{service: service, log: log}
}

// @Summary Freeze a subscription
// @Description Pause a subscription; a closed freeze extends the payment schedule
// @Tags Freezes
// @Accept json
// @Produce json
// @Param freeze body dto.CreateFreezeRequest true "Freeze"
// @Success 201 {object} dto.FreezeResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /freezes [post]
func (h *FreezeHandler) CreateFreeze(c *gin.Context) {
	var req dto.CreateFreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ApplyFreeze(c.Request.Context(), req)
	if err != nil {
		h.log.Errorw("Failed to apply freeze", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Close an open-ended freeze
// @Description End a freeze and extend the subscription schedule by the frozen span
// @Tags Freezes
// @Accept json
// @Produce json
// @Param id path string true "Freeze ID"
// @Param freeze body dto.CloseFreezeRequest true "Close parameters"
// @Success 200 {object} dto.FreezeResponse
// @Router /freezes/{id}/close [post]
func (h *FreezeHandler) CloseFreeze(c *gin.Context) {
	var req dto.CloseFreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CloseFreeze(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.log.Errorw("Failed to close freeze", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get a freeze by ID
// @Tags Freezes
// @Produce json
// @Param id path string true "Freeze ID"
// @Success 200 {object} dto.FreezeResponse
// @Router /freezes/{id} [get]
func (h *FreezeHandler) GetFreeze(c *gin.Context) {
	resp, err := h.service.GetFreeze(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List freezes for a subscription
// @Tags Freezes
// @Produce json
// @Param subscription_id query string true "Subscription ID"
// @Success 200 {array} dto.FreezeResponse
// @Router /freezes [get]
func (h *FreezeHandler) ListFreezes(c *gin.Context) {
	subscriptionID := c.Query("subscription_id")
	if subscriptionID == "" {
		c.Error(ierr.NewError("subscription_id is required").
			WithHint("Pass subscription_id as a query parameter").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListFreezes(c.Request.Context(), subscriptionID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
