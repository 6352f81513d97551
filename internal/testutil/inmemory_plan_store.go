package testutil

import (
	"context"
	"sync"

	"github.com/dojoflow/dojoflow/internal/domain/plan"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
)

type InMemoryPlanStore struct {
	mu    sync.RWMutex
	plans map[string]*plan.Plan
}

func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		plans: make(map[string]*plan.Plan),
	}
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID]; exists {
		return ierr.NewError("plan already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	s.plans[p.ID] = p
	return nil
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.plans[id]
	if !exists || p.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("plan not found").
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryPlanStore) Update(ctx context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID]; !exists {
		return ierr.NewError("plan not found").
			Mark(ierr.ErrNotFound)
	}

	s.plans[p.ID] = p
	return nil
}

func (s *InMemoryPlanStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[id]; !exists {
		return ierr.NewError("plan not found").
			Mark(ierr.ErrNotFound)
	}

	delete(s.plans, id)
	return nil
}

func (s *InMemoryPlanStore) List(ctx context.Context, filter *plan.PlanFilter) ([]*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plans := make([]*plan.Plan, 0)
	for _, p := range s.plans {
		if p.TenantID != types.GetTenantID(ctx) {
			continue
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (s *InMemoryPlanStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans = make(map[string]*plan.Plan)
}
