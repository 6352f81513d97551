package testutil

import (
	"context"
	"sync"

	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
)

type InMemorySubscriptionStore struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription.Subscription
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		subscriptions: make(map[string]*subscription.Subscription),
	}
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID]; exists {
		return ierr.NewError("subscription already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	s.subscriptions[sub.ID] = sub
	return nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, exists := s.subscriptions[id]
	if !exists || sub.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("subscription not found").
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func (s *InMemorySubscriptionStore) GetByProviderSubscriptionID(ctx context.Context, providerID string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscriptions {
		if sub.ProviderSubscriptionID != nil && *sub.ProviderSubscriptionID == providerID {
			return sub, nil
		}
	}
	return nil, ierr.NewError("subscription not found").
		Mark(ierr.ErrNotFound)
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID]; !exists {
		return ierr.NewError("subscription not found").
			Mark(ierr.ErrNotFound)
	}

	s.subscriptions[sub.ID] = sub
	return nil
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]*subscription.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if !matchesSubscriptionFilter(sub, filter) {
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (s *InMemorySubscriptionStore) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	subs, err := s.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(subs), nil
}

func matchesSubscriptionFilter(sub *subscription.Subscription, filter *types.SubscriptionFilter) bool {
	if filter == nil {
		return true
	}
	if filter.ContactID != nil && sub.ContactID != *filter.ContactID {
		return false
	}
	if filter.PlanID != nil && sub.PlanID != *filter.PlanID {
		return false
	}
	if filter.SubscriptionStatus != nil && string(sub.SubscriptionStatus) != *filter.SubscriptionStatus {
		return false
	}
	return true
}

func (s *InMemorySubscriptionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions = make(map[string]*subscription.Subscription)
}
