package dto

import (
	"time"

	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/validator"
)

// CreateFreezeRequest represents the request to freeze a subscription
type CreateFreezeRequest struct {
	SubscriptionID    string     `json:"subscription_id" validate:"required"`
	StartDate         time.Time  `json:"start_date" validate:"required"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	FrozenAmountCents int64      `json:"frozen_amount_cents" validate:"gte=0"`
	Reason            string     `json:"reason,omitempty"`
}

func (r *CreateFreezeRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.EndDate != nil && !r.EndDate.After(r.StartDate) {
		return ierr.NewError("invalid freeze window").
			WithHint("Freeze end date must be after the start date").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CloseFreezeRequest represents the request to close an open freeze
type CloseFreezeRequest struct {
	EndDate time.Time `json:"end_date" validate:"required"`
}

func (r *CloseFreezeRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// FreezeResponse represents a freeze and the cycles it touched
type FreezeResponse struct {
	*subscription.Freeze
	AffectedCycles []*BillingCycleResponse `json:"affected_cycles,omitempty"`
}

// NewFreezeResponse creates a new freeze response
func NewFreezeResponse(f *subscription.Freeze, cycles []*subscription.BillingCycle) *FreezeResponse {
	resp := &FreezeResponse{Freeze: f}
	for _, c := range cycles {
		resp.AffectedCycles = append(resp.AffectedCycles, NewBillingCycleResponse(c))
	}
	return resp
}
