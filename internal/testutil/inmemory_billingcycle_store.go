package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
)

type InMemoryBillingCycleStore struct {
	mu     sync.RWMutex
	cycles map[string]*subscription.BillingCycle
}

func NewInMemoryBillingCycleStore() *InMemoryBillingCycleStore {
	return &InMemoryBillingCycleStore{
		cycles: make(map[string]*subscription.BillingCycle),
	}
}

func (s *InMemoryBillingCycleStore) CreateBulk(ctx context.Context, cycles []*subscription.BillingCycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range cycles {
		if _, exists := s.cycles[c.ID]; exists {
			return ierr.NewError("billing cycle already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	for _, c := range cycles {
		s.cycles[c.ID] = c
	}
	return nil
}

func (s *InMemoryBillingCycleStore) Get(ctx context.Context, id string) (*subscription.BillingCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.cycles[id]
	if !exists || c.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("billing cycle not found").
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (s *InMemoryBillingCycleStore) Update(ctx context.Context, c *subscription.BillingCycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cycles[c.ID]; !exists {
		return ierr.NewError("billing cycle not found").
			Mark(ierr.ErrNotFound)
	}

	s.cycles[c.ID] = c
	return nil
}

func (s *InMemoryBillingCycleStore) UpdateTotalInstallments(ctx context.Context, subscriptionID string, totalInstallments int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.cycles {
		if c.SubscriptionID == subscriptionID {
			c.TotalInstallments = totalInstallments
		}
	}
	return nil
}

func (s *InMemoryBillingCycleStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*subscription.BillingCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cycles := make([]*subscription.BillingCycle, 0)
	for _, c := range s.cycles {
		if c.SubscriptionID == subscriptionID {
			cycles = append(cycles, c)
		}
	}
	sortCyclesByInstallment(cycles)
	return cycles, nil
}

func (s *InMemoryBillingCycleStore) List(ctx context.Context, filter *types.BillingCycleFilter) ([]*subscription.BillingCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cycles := make([]*subscription.BillingCycle, 0)
	for _, c := range s.cycles {
		if c.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if !matchesCycleFilter(c, filter) {
			continue
		}
		cycles = append(cycles, c)
	}
	sortCyclesByInstallment(cycles)
	return cycles, nil
}

func (s *InMemoryBillingCycleStore) ListPendingDueBefore(ctx context.Context, cutoff time.Time) ([]*subscription.BillingCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cycles := make([]*subscription.BillingCycle, 0)
	for _, c := range s.cycles {
		if c.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if c.CycleStatus == types.BillingCycleStatusPending && c.ScheduledDate.Before(cutoff) {
			cycles = append(cycles, c)
		}
	}
	sortCyclesByInstallment(cycles)
	return cycles, nil
}

func (s *InMemoryBillingCycleStore) ListPendingDueBetween(ctx context.Context, from, to time.Time) ([]*subscription.BillingCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cycles := make([]*subscription.BillingCycle, 0)
	for _, c := range s.cycles {
		if c.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if c.CycleStatus != types.BillingCycleStatusPending {
			continue
		}
		if !c.ScheduledDate.Before(from) && !c.ScheduledDate.After(to) {
			cycles = append(cycles, c)
		}
	}
	sortCyclesByInstallment(cycles)
	return cycles, nil
}

func (s *InMemoryBillingCycleStore) CancelFutureCycles(ctx context.Context, subscriptionID string, from time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	affected := 0
	for _, c := range s.cycles {
		if c.SubscriptionID != subscriptionID {
			continue
		}
		if c.CycleStatus == types.BillingCycleStatusPaid || c.CycleStatus == types.BillingCycleStatusCancelled {
			continue
		}
		if c.ScheduledDate.Before(from) {
			continue
		}
		c.CycleStatus = types.BillingCycleStatusCancelled
		affected++
	}
	return affected, nil
}

func matchesCycleFilter(c *subscription.BillingCycle, filter *types.BillingCycleFilter) bool {
	if filter == nil {
		return true
	}
	if filter.SubscriptionID != nil && c.SubscriptionID != *filter.SubscriptionID {
		return false
	}
	if filter.CycleStatus != nil && c.CycleStatus != *filter.CycleStatus {
		return false
	}
	if filter.ScheduledBefore != nil && !c.ScheduledDate.Before(*filter.ScheduledBefore) {
		return false
	}
	if filter.ScheduledAfter != nil && !c.ScheduledDate.After(*filter.ScheduledAfter) {
		return false
	}
	return true
}

func sortCyclesByInstallment(cycles []*subscription.BillingCycle) {
	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].InstallmentNumber < cycles[j].InstallmentNumber
	})
}

func (s *InMemoryBillingCycleStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cycles = make(map[string]*subscription.BillingCycle)
}
