package v1

import (
	"net/http"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/service"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	charges  service.ChargeService
	payments service.PaymentService
	log      *logger.Logger
}

func NewPaymentHandler(charges service.ChargeService, payments service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{charges: charges, payments: payments, log: log}
}

// @Summary Execute a charge
// @Description Charge a billing cycle or an ad hoc amount against a contact's default method
// @Tags Payments
// @Accept json
// @Produce json
// @Param charge body dto.ChargeRequest true "Charge"
// @Success 200 {object} dto.ChargeResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /charges [post]
func (h *PaymentHandler) Charge(c *gin.Context) {
	var req dto.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.charges.Charge(c.Request.Context(), req)
	if err != nil {
		h.log.Errorw("Failed to execute charge", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get a payment by ID
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Router /payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	resp, err := h.payments.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List payments
// @Tags Payments
// @Produce json
// @Success 200 {object} dto.ListPaymentsResponse
// @Router /payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	var filter types.PaymentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.payments.ListPayments(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
