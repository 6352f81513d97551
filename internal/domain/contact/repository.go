package contact

import (
	"context"

	"github.com/dojoflow/dojoflow/internal/types"
)

// ContactFilter represents the filter for listing contacts
type ContactFilter struct {
	*types.QueryFilter

	Email *string `form:"email"`
}

// Repository defines the interface for contact persistence
type Repository interface {
	Create(ctx context.Context, contact *Contact) error
	Get(ctx context.Context, id string) (*Contact, error)
	GetByEmail(ctx context.Context, email string) (*Contact, error)
	Update(ctx context.Context, contact *Contact) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *ContactFilter) ([]*Contact, error)
}
