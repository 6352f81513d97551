package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/dojoflow/dojoflow/internal/domain/tenant"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
)

type InMemoryTenantStore struct {
	mu      sync.RWMutex
	tenants map[string]*tenant.Tenant
}

func NewInMemoryTenantStore() *InMemoryTenantStore {
	return &InMemoryTenantStore{
		tenants: make(map[string]*tenant.Tenant),
	}
}

func (s *InMemoryTenantStore) Create(ctx context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[t.ID]; exists {
		return ierr.NewError("tenant already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = time.Now().UTC()
	s.tenants[t.ID] = t
	return nil
}

func (s *InMemoryTenantStore) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, exists := s.tenants[id]; exists {
		return t, nil
	}
	return nil, ierr.NewError("tenant not found").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryTenantStore) Update(ctx context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[t.ID]; !exists {
		return ierr.NewError("tenant not found").
			Mark(ierr.ErrNotFound)
	}

	t.UpdatedAt = time.Now().UTC()
	s.tenants[t.ID] = t
	return nil
}

func (s *InMemoryTenantStore) List(ctx context.Context) ([]*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenants := make([]*tenant.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		tenants = append(tenants, t)
	}
	return tenants, nil
}

func (s *InMemoryTenantStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tenants = make(map[string]*tenant.Tenant)
}
