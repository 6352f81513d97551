package testutil

import (
	"context"
	"sync"

	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
)

// InMemoryFreezeStore mirrors the storage guarantee of the real repository:
// at most one active freeze per subscription, enforced at insert time.
type InMemoryFreezeStore struct {
	mu      sync.Mutex
	freezes map[string]*subscription.Freeze
}

func NewInMemoryFreezeStore() *InMemoryFreezeStore {
	return &InMemoryFreezeStore{
		freezes: make(map[string]*subscription.Freeze),
	}
}

func (s *InMemoryFreezeStore) Create(ctx context.Context, f *subscription.Freeze) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.freezes[f.ID]; exists {
		return ierr.NewError("freeze already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	if f.FreezeStatus == types.FreezeStatusActive {
		for _, existing := range s.freezes {
			if existing.SubscriptionID == f.SubscriptionID && existing.FreezeStatus == types.FreezeStatusActive {
				return ierr.NewError("subscription already has an active freeze").
					WithHint("Close the current freeze before opening a new one").
					Mark(ierr.ErrStateConflict)
			}
		}
	}

	s.freezes[f.ID] = f
	return nil
}

func (s *InMemoryFreezeStore) Get(ctx context.Context, id string) (*subscription.Freeze, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, exists := s.freezes[id]
	if !exists || f.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("freeze not found").
			Mark(ierr.ErrNotFound)
	}
	return f, nil
}

func (s *InMemoryFreezeStore) Update(ctx context.Context, f *subscription.Freeze) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.freezes[f.ID]; !exists {
		return ierr.NewError("freeze not found").
			Mark(ierr.ErrNotFound)
	}

	s.freezes[f.ID] = f
	return nil
}

func (s *InMemoryFreezeStore) GetActiveBySubscription(ctx context.Context, subscriptionID string) (*subscription.Freeze, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.freezes {
		if f.SubscriptionID == subscriptionID && f.FreezeStatus == types.FreezeStatusActive {
			return f, nil
		}
	}
	return nil, ierr.NewError("no active freeze").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryFreezeStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*subscription.Freeze, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	freezes := make([]*subscription.Freeze, 0)
	for _, f := range s.freezes {
		if f.SubscriptionID == subscriptionID {
			freezes = append(freezes, f)
		}
	}
	return freezes, nil
}

func (s *InMemoryFreezeStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.freezes = make(map[string]*subscription.Freeze)
}
