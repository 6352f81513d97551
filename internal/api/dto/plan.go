package dto

import (
	"context"

	"github.com/dojoflow/dojoflow/internal/domain/plan"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/dojoflow/dojoflow/internal/validator"
	"github.com/shopspring/decimal"
)

// CreatePlanRequest represents the request to create a membership plan
type CreatePlanRequest struct {
	Name                      string          `json:"name" validate:"required"`
	BasePriceCents            int64           `json:"base_price_cents" validate:"gte=0"`
	Currency                  string          `json:"currency" validate:"required,len=3"`
	CycleLengthMonths         int             `json:"cycle_length_months" validate:"required,gt=0"`
	TotalInstallments         *int            `json:"total_installments,omitempty" validate:"omitempty,gt=0"`
	Recurring                 bool            `json:"recurring"`
	RenewalDiscountPercentage decimal.Decimal `json:"renewal_discount_percentage"`
	Metadata                  types.Metadata  `json:"metadata,omitempty"`
}

func (r *CreatePlanRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreatePlanRequest) ToPlan(ctx context.Context) *plan.Plan {
	return &plan.Plan{
		ID:                        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:                      r.Name,
		BasePriceCents:            r.BasePriceCents,
		Currency:                  r.Currency,
		CycleLengthMonths:         r.CycleLengthMonths,
		TotalInstallments:         r.TotalInstallments,
		Recurring:                 r.Recurring,
		RenewalDiscountPercentage: r.RenewalDiscountPercentage,
		Metadata:                  r.Metadata,
		BaseModel:                 types.GetDefaultBaseModel(ctx),
	}
}

// UpdatePlanRequest represents the request to update a plan. Schedule-shaping
// fields are immutable once subscriptions exist; only display fields change.
type UpdatePlanRequest struct {
	Name     *string        `json:"name,omitempty"`
	Metadata types.Metadata `json:"metadata,omitempty"`
}

func (r *UpdatePlanRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// PlanResponse represents a plan in API responses
type PlanResponse struct {
	*plan.Plan
}

// NewPlanResponse creates a new plan response
func NewPlanResponse(p *plan.Plan) *PlanResponse {
	return &PlanResponse{Plan: p}
}

// ListPlansResponse represents a paginated list of plans
type ListPlansResponse struct {
	Items []*PlanResponse `json:"items"`
}
