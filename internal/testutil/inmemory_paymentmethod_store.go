package testutil

import (
	"context"
	"sync"

	"github.com/dojoflow/dojoflow/internal/domain/paymentmethod"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
)

type InMemoryPaymentMethodStore struct {
	mu      sync.Mutex
	methods map[string]*paymentmethod.PaymentMethod
}

func NewInMemoryPaymentMethodStore() *InMemoryPaymentMethodStore {
	return &InMemoryPaymentMethodStore{
		methods: make(map[string]*paymentmethod.PaymentMethod),
	}
}

func (s *InMemoryPaymentMethodStore) Create(ctx context.Context, m *paymentmethod.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.methods[m.ID]; exists {
		return ierr.NewError("payment method already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	if m.IsDefault {
		for _, existing := range s.methods {
			if existing.ContactID == m.ContactID && existing.IsDefault {
				return ierr.NewError("contact already has a default payment method").
					Mark(ierr.ErrStateConflict)
			}
		}
	}

	s.methods[m.ID] = m
	return nil
}

func (s *InMemoryPaymentMethodStore) Get(ctx context.Context, id string) (*paymentmethod.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, exists := s.methods[id]
	if !exists || m.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("payment method not found").
			Mark(ierr.ErrNotFound)
	}
	return m, nil
}

func (s *InMemoryPaymentMethodStore) Update(ctx context.Context, m *paymentmethod.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.methods[m.ID]; !exists {
		return ierr.NewError("payment method not found").
			Mark(ierr.ErrNotFound)
	}

	s.methods[m.ID] = m
	return nil
}

func (s *InMemoryPaymentMethodStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.methods[id]; !exists {
		return ierr.NewError("payment method not found").
			Mark(ierr.ErrNotFound)
	}

	delete(s.methods, id)
	return nil
}

func (s *InMemoryPaymentMethodStore) ListByContact(ctx context.Context, contactID string) ([]*paymentmethod.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	methods := make([]*paymentmethod.PaymentMethod, 0)
	for _, m := range s.methods {
		if m.ContactID == contactID {
			methods = append(methods, m)
		}
	}
	return methods, nil
}

func (s *InMemoryPaymentMethodStore) GetDefaultByContact(ctx context.Context, contactID string) (*paymentmethod.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.methods {
		if m.ContactID == contactID && m.IsDefault {
			return m, nil
		}
	}
	return nil, ierr.NewError("no default payment method").
		Mark(ierr.ErrNotFound)
}

// SetDefault demotes the current default and promotes the given method in one
// critical section, matching the single-statement swap the real repository does.
func (s *InMemoryPaymentMethodStore) SetDefault(ctx context.Context, contactID, methodID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, exists := s.methods[methodID]
	if !exists || target.ContactID != contactID {
		return ierr.NewError("payment method not found").
			Mark(ierr.ErrNotFound)
	}

	for _, m := range s.methods {
		if m.ContactID == contactID {
			m.IsDefault = false
		}
	}
	target.IsDefault = true
	return nil
}

func (s *InMemoryPaymentMethodStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.methods = make(map[string]*paymentmethod.PaymentMethod)
}
