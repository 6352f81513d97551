package service

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/domain/plan"
	"github.com/dojoflow/dojoflow/internal/types"
)

// PlanService manages membership plans
type PlanService interface {
	CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error)
	UpdatePlan(ctx context.Context, id string, req dto.UpdatePlanRequest) (*dto.PlanResponse, error)
	DeletePlan(ctx context.Context, id string) error
	ListPlans(ctx context.Context, filter *plan.PlanFilter) (*dto.ListPlansResponse, error)
}

type planService struct {
	ServiceParams
}

// NewPlanService creates a new plan service
func NewPlanService(params ServiceParams) PlanService {
	return &planService{ServiceParams: params}
}

func (s *planService) CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.ToPlan(ctx)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.PlanRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Infow("created plan", "plan_id", p.ID, "name", p.Name)
	return dto.NewPlanResponse(p), nil
}

func (s *planService) GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewPlanResponse(p), nil
}

func (s *planService) UpdatePlan(ctx context.Context, id string, req dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Metadata != nil {
		p.Metadata = req.Metadata
	}
	p.UpdatedAt = time.Now().UTC()
	p.UpdatedBy = types.GetUserID(ctx)

	if err := s.PlanRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return dto.NewPlanResponse(p), nil
}

func (s *planService) DeletePlan(ctx context.Context, id string) error {
	if _, err := s.PlanRepo.Get(ctx, id); err != nil {
		return err
	}
	return s.PlanRepo.Delete(ctx, id)
}

func (s *planService) ListPlans(ctx context.Context, filter *plan.PlanFilter) (*dto.ListPlansResponse, error) {
	plans, err := s.PlanRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListPlansResponse{}
	for _, p := range plans {
		resp.Items = append(resp.Items, dto.NewPlanResponse(p))
	}
	return resp, nil
}
