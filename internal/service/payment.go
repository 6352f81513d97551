package service

import (
	"context"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/types"
)

// PaymentService exposes the payment audit trail
type PaymentService interface {
	GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error)
	ListPayments(ctx context.Context, filter *types.PaymentFilter) (*dto.ListPaymentsResponse, error)
}

type paymentService struct {
	ServiceParams
}

// NewPaymentService creates a new payment service
func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{ServiceParams: params}
}

func (s *paymentService) GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error) {
	p, err := s.PaymentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.TrackAttempts {
		attempts, err := s.PaymentRepo.ListAttempts(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Attempts = attempts
	}
	return dto.NewPaymentResponse(p), nil
}

func (s *paymentService) ListPayments(ctx context.Context, filter *types.PaymentFilter) (*dto.ListPaymentsResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	payments, err := s.PaymentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.PaymentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListPaymentsResponse{Total: total}
	for _, p := range payments {
		resp.Items = append(resp.Items, dto.NewPaymentResponse(p))
	}
	return resp, nil
}
