package dto

import (
	"context"

	"github.com/dojoflow/dojoflow/internal/domain/contact"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/dojoflow/dojoflow/internal/validator"
)

// CreateContactRequest represents the request to create a contact
type CreateContactRequest struct {
	Name     string         `json:"name" validate:"required"`
	Email    string         `json:"email" validate:"required,email"`
	Phone    *string        `json:"phone,omitempty"`
	Metadata types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateContactRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateContactRequest) ToContact(ctx context.Context) *contact.Contact {
	return &contact.Contact{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CONTACT),
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Metadata:  r.Metadata,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
}

// UpdateContactRequest represents the request to update a contact
type UpdateContactRequest struct {
	Name     *string        `json:"name,omitempty"`
	Email    *string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string        `json:"phone,omitempty"`
	Metadata types.Metadata `json:"metadata,omitempty"`
}

func (r *UpdateContactRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ContactResponse represents a contact in API responses
type ContactResponse struct {
	*contact.Contact
}

// NewContactResponse creates a new contact response
func NewContactResponse(c *contact.Contact) *ContactResponse {
	return &ContactResponse{Contact: c}
}

// ListContactsResponse represents a paginated list of contacts
type ListContactsResponse struct {
	Items []*ContactResponse `json:"items"`
}
