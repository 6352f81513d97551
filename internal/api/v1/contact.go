package v1

import (
	"net/http"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/domain/contact"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/service"
	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	service service.ContactService
	log     *logger.Logger
}

func NewContactHandler(service service.ContactService, log *logger.Logger) *ContactHandler {
	return &ContactHandler{service: service, log: log}
}

// @Summary Create a new contact
// @Description Register a student with the academy
// @Tags Contacts
// @Accept json
// @Produce json
// @Param contact body dto.CreateContactRequest true "Contact"
// @Success 201 {object} dto.ContactResponse
// @Router /contacts [post]
func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req dto.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateContact(c.Request.Context(), req)
	if err != nil {
		h.log.Errorw("Failed to create contact", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a contact by ID
// @Tags Contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} dto.ContactResponse
// @Router /contacts/{id} [get]
func (h *ContactHandler) GetContact(c *gin.Context) {
	resp, err := h.service.GetContact(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Update a contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID"
// @Param contact body dto.UpdateContactRequest true "Contact update"
// @Success 200 {object} dto.ContactResponse
// @Router /contacts/{id} [put]
func (h *ContactHandler) UpdateContact(c *gin.Context) {
	var req dto.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateContact(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Delete a contact
// @Description Delete a contact without active references
// @Tags Contacts
// @Param id path string true "Contact ID"
// @Success 204
// @Router /contacts/{id} [delete]
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	if err := h.service.DeleteContact(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary List contacts
// @Tags Contacts
// @Produce json
// @Success 200 {object} dto.ListContactsResponse
// @Router /contacts [get]
func (h *ContactHandler) ListContacts(c *gin.Context) {
	var filter contact.ContactFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListContacts(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
