package v1

import (
	"net/http"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/service"
	"github.com/gin-gonic/gin"
)

type TenantHandler struct {
	service service.TenantService
	log     *logger.Logger
}

func NewTenantHandler(service service.TenantService, log *logger.Logger) *TenantHandler {
	return &TenantHandler{service: service, log: log}
}

// @Summary Create a new academy
// @Description Create a new academy tenant
// @Tags Tenants
// @Accept json
// @Produce json
// @Param tenant body dto.CreateTenantRequest true "Tenant configuration"
// @Success 201 {object} dto.TenantResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /tenants [post]
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var req dto.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateTenant(c.Request.Context(), req)
	if err != nil {
		h.log.Errorw("Failed to create tenant", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get an academy by ID
// @Tags Tenants
// @Produce json
// @Param id path string true "Tenant ID"
// @Success 200 {object} dto.TenantResponse
// @Router /tenants/{id} [get]
func (h *TenantHandler) GetTenant(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Tenant ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetTenant(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Update an academy
// @Tags Tenants
// @Accept json
// @Produce json
// @Param id path string true "Tenant ID"
// @Param tenant body dto.UpdateTenantRequest true "Tenant update"
// @Success 200 {object} dto.TenantResponse
// @Router /tenants/{id} [put]
func (h *TenantHandler) UpdateTenant(c *gin.Context) {
	var req dto.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateTenant(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Link a payment sub-account to an academy
// @Description Attach a provider connected account so the academy can originate charges
// @Tags Tenants
// @Accept json
// @Produce json
// @Param id path string true "Tenant ID"
// @Param account body dto.LinkPaymentAccountRequest true "Payment account"
// @Success 200 {object} dto.TenantResponse
// @Router /tenants/{id}/payment-account [post]
func (h *TenantHandler) LinkPaymentAccount(c *gin.Context) {
	var req dto.LinkPaymentAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.LinkPaymentAccount(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.log.Errorw("Failed to link payment account", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List academies
// @Tags Tenants
// @Produce json
// @Success 200 {array} dto.TenantResponse
// @Router /tenants [get]
func (h *TenantHandler) ListTenants(c *gin.Context) {
	resp, err := h.service.ListTenants(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
