package v1

import (
	"net/http"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/service"
	"github.com/gin-gonic/gin"
)

type PaymentMethodHandler struct {
	service service.PaymentMethodService
	log     *logger.Logger
}

func NewPaymentMethodHandler(service service.PaymentMethodService, log *logger.Logger) *PaymentMethodHandler {
	return &PaymentMethodHandler{service: service, log: log}
}

// @Summary Register a payment method
// @Description Attach a stored payment method to a contact
// @Tags PaymentMethods
// @Accept json
// @Produce json
// @Param method body dto.CreatePaymentMethodRequest true "Payment method"
// @Success 201 {object} dto.PaymentMethodResponse
// @Router /payment-methods [post]
func (h *PaymentMethodHandler) CreatePaymentMethod(c *gin.Context) {
	var req dto.CreatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreatePaymentMethod(c.Request.Context(), req)
	if err != nil {
		h.log.Errorw("Failed to create payment method", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a payment method by ID
// @Tags PaymentMethods
// @Produce json
// @Param id path string true "Payment method ID"
// @Success 200 {object} dto.PaymentMethodResponse
// @Router /payment-methods/{id} [get]
func (h *PaymentMethodHandler) GetPaymentMethod(c *gin.Context) {
	resp, err := h.service.GetPaymentMethod(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List a contact's payment methods
// @Tags PaymentMethods
// @Produce json
// @Param contact_id query string true "Contact ID"
// @Success 200 {object} dto.ListPaymentMethodsResponse
// @Router /payment-methods [get]
func (h *PaymentMethodHandler) ListPaymentMethods(c *gin.Context) {
	contactID := c.Query("contact_id")
	if contactID == "" {
		c.Error(ierr.NewError("contact_id is required").
			WithHint("Pass contact_id as a query parameter").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListPaymentMethods(c.Request.Context(), contactID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Set the default payment method
// @Description Make the given method the contact's only default
// @Tags PaymentMethods
// @Produce json
// @Param id path string true "Payment method ID"
// @Param contact_id query string true "Contact ID"
// @Success 200 {object} dto.PaymentMethodResponse
// @Router /payment-methods/{id}/default [post]
func (h *PaymentMethodHandler) SetDefault(c *gin.Context) {
	contactID := c.Query("contact_id")
	if contactID == "" {
		c.Error(ierr.NewError("contact_id is required").
			WithHint("Pass contact_id as a query parameter").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.SetDefault(c.Request.Context(), contactID, c.Param("id"))
	if err != nil {
		h.log.Errorw("Failed to set default payment method", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Delete a payment method
// @Tags PaymentMethods
// @Param id path string true "Payment method ID"
// @Success 204
// @Router /payment-methods/{id} [delete]
func (h *PaymentMethodHandler) DeletePaymentMethod(c *gin.Context) {
	if err := h.service.DeletePaymentMethod(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Create a setup intent
// @Description Start a provider card-collection session for a contact
// @Tags PaymentMethods
// @Accept json
// @Produce json
// @Param intent body dto.CreateSetupIntentRequest true "Setup intent"
// @Success 201 {object} dto.SetupIntentResponse
// @Router /payment-methods/setup-intent [post]
func (h *PaymentMethodHandler) CreateSetupIntent(c *gin.Context) {
	var req dto.CreateSetupIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateSetupIntent(c.Request.Context(), req)
	if err != nil {
		h.log.Errorw("Failed to create setup intent", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
