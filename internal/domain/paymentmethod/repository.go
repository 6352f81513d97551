package paymentmethod

import (
	"context"
)

// Repository defines the interface for payment method persistence.
// SetDefault must be atomic: after it returns, exactly one method of the
// contact is the default regardless of concurrent callers (last writer wins).
type Repository interface {
	Create(ctx context.Context, method *PaymentMethod) error
	Get(ctx context.Context, id string) (*PaymentMethod, error)
	Update(ctx context.Context, method *PaymentMethod) error
	Delete(ctx context.Context, id string) error
	ListByContact(ctx context.Context, contactID string) ([]*PaymentMethod, error)
	GetDefaultByContact(ctx context.Context, contactID string) (*PaymentMethod, error)
	SetDefault(ctx context.Context, contactID, methodID string) error
}
