package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/dojoflow/dojoflow/internal/domain/payment"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
)

// InMemoryPaymentStore mirrors the uniqueness guarantees of the real
// repository: one payment per (tenant, idempotency key) and at most one
// payment per provider charge id. A losing concurrent writer gets
// ErrAlreadyExists, exactly as the partial unique indexes behave.
type InMemoryPaymentStore struct {
	mu       sync.Mutex
	payments map[string]*payment.Payment
	attempts map[string][]*payment.PaymentAttempt
}

func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		payments: make(map[string]*payment.Payment),
		attempts: make(map[string][]*payment.PaymentAttempt),
	}
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID]; exists {
		return ierr.NewError("payment already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	for _, existing := range s.payments {
		if existing.TenantID == p.TenantID && p.IdempotencyKey != "" && existing.IdempotencyKey == p.IdempotencyKey {
			return ierr.NewError("duplicate idempotency key").
				Mark(ierr.ErrAlreadyExists)
		}
		if p.GatewayPaymentID != nil && existing.GatewayPaymentID != nil &&
			*existing.GatewayPaymentID == *p.GatewayPaymentID {
			return ierr.NewError("duplicate gateway payment id").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	s.payments[p.ID] = p
	return nil
}

func (s *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.payments[id]
	if !exists || p.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("payment not found").
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryPaymentStore) Update(ctx context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID]; !exists {
		return ierr.NewError("payment not found").
			Mark(ierr.ErrNotFound)
	}

	s.payments[p.ID] = p
	return nil
}

func (s *InMemoryPaymentStore) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payments := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if p.TenantID != types.GetTenantID(ctx) {
			continue
		}
		if !matchesPaymentFilter(p, filter) {
			continue
		}
		payments = append(payments, p)
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.Before(payments[j].CreatedAt)
	})
	return payments, nil
}

func (s *InMemoryPaymentStore) Count(ctx context.Context, filter *types.PaymentFilter) (int, error) {
	payments, err := s.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(payments), nil
}

func (s *InMemoryPaymentStore) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.TenantID == types.GetTenantID(ctx) && p.IdempotencyKey == key {
			return p, nil
		}
	}
	return nil, ierr.NewError("payment not found").
		Mark(ierr.ErrNotFound)
}

// GetByGatewayPaymentID is deliberately not tenant scoped: provider webhooks
// arrive before any tenant is known.
func (s *InMemoryPaymentStore) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.GatewayPaymentID != nil && *p.GatewayPaymentID == gatewayPaymentID {
			return p, nil
		}
	}
	return nil, ierr.NewError("payment not found").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryPaymentStore) CreateAttempt(ctx context.Context, attempt *payment.PaymentAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[attempt.PaymentID] = append(s.attempts[attempt.PaymentID], attempt)
	return nil
}

func (s *InMemoryPaymentStore) UpdateAttempt(ctx context.Context, attempt *payment.PaymentAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.attempts[attempt.PaymentID] {
		if a.ID == attempt.ID {
			s.attempts[attempt.PaymentID][i] = attempt
			return nil
		}
	}
	return ierr.NewError("payment attempt not found").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryPaymentStore) ListAttempts(ctx context.Context, paymentID string) ([]*payment.PaymentAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempts := make([]*payment.PaymentAttempt, len(s.attempts[paymentID]))
	copy(attempts, s.attempts[paymentID])
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].AttemptNumber < attempts[j].AttemptNumber
	})
	return attempts, nil
}

func (s *InMemoryPaymentStore) GetLatestAttempt(ctx context.Context, paymentID string) (*payment.PaymentAttempt, error) {
	attempts, err := s.ListAttempts(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, ierr.NewError("no payment attempts").
			Mark(ierr.ErrNotFound)
	}
	return attempts[len(attempts)-1], nil
}

func matchesPaymentFilter(p *payment.Payment, filter *types.PaymentFilter) bool {
	if filter == nil {
		return true
	}
	if filter.ContactID != nil && p.ContactID != *filter.ContactID {
		return false
	}
	if filter.DestinationType != nil && string(p.DestinationType) != *filter.DestinationType {
		return false
	}
	if filter.DestinationID != nil && p.DestinationID != *filter.DestinationID {
		return false
	}
	if filter.PaymentStatus != nil && string(p.PaymentStatus) != *filter.PaymentStatus {
		return false
	}
	return true
}

func (s *InMemoryPaymentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payments = make(map[string]*payment.Payment)
	s.attempts = make(map[string][]*payment.PaymentAttempt)
}
