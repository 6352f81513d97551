package testutil

import (
	"context"
	"sync"

	"github.com/dojoflow/dojoflow/internal/domain/contact"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
)

type InMemoryContactStore struct {
	mu       sync.RWMutex
	contacts map[string]*contact.Contact
}

func NewInMemoryContactStore() *InMemoryContactStore {
	return &InMemoryContactStore{
		contacts: make(map[string]*contact.Contact),
	}
}

func (s *InMemoryContactStore) Create(ctx context.Context, c *contact.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contacts[c.ID]; exists {
		return ierr.NewError("contact already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	s.contacts[c.ID] = c
	return nil
}

func (s *InMemoryContactStore) Get(ctx context.Context, id string) (*contact.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.contacts[id]
	if !exists || c.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("contact not found").
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (s *InMemoryContactStore) GetByEmail(ctx context.Context, email string) (*contact.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.contacts {
		if c.TenantID == types.GetTenantID(ctx) && c.Email == email {
			return c, nil
		}
	}
	return nil, ierr.NewError("contact not found").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryContactStore) Update(ctx context.Context, c *contact.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contacts[c.ID]; !exists {
		return ierr.NewError("contact not found").
			Mark(ierr.ErrNotFound)
	}

	s.contacts[c.ID] = c
	return nil
}

func (s *InMemoryContactStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contacts[id]; !exists {
		return ierr.NewError("contact not found").
			Mark(ierr.ErrNotFound)
	}

	delete(s.contacts, id)
	return nil
}

func (s *InMemoryContactStore) List(ctx context.Context, filter *contact.ContactFilter) ([]*contact.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contacts := make([]*contact.Contact, 0)
	for _, c := range s.contacts {
		if c.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if filter != nil && filter.Email != nil && c.Email != *filter.Email {
			continue
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

func (s *InMemoryContactStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contacts = make(map[string]*contact.Contact)
}
