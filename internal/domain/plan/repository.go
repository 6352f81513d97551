package plan

import (
	"context"

	"github.com/dojoflow/dojoflow/internal/types"
)

// PlanFilter represents the filter for listing plans
type PlanFilter struct {
	*types.QueryFilter
}

// Repository defines the interface for plan persistence
type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	Update(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *PlanFilter) ([]*Plan, error)
}
