package dto

import (
	"time"

	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/dojoflow/dojoflow/internal/validator"
)

// CreateSubscriptionRequest represents the request to enroll a contact in a plan
type CreateSubscriptionRequest struct {
	ContactID   string         `json:"contact_id" validate:"required"`
	PlanID      string         `json:"plan_id" validate:"required"`
	StartDate   time.Time      `json:"start_date" validate:"required"`
	AutoRenewal bool           `json:"auto_renewal"`
	Metadata    types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// SubscriptionResponse represents a subscription with its schedule
type SubscriptionResponse struct {
	*subscription.Subscription
	Cycles []*BillingCycleResponse `json:"cycles,omitempty"`
}

// NewSubscriptionResponse creates a new subscription response
func NewSubscriptionResponse(sub *subscription.Subscription, cycles []*subscription.BillingCycle) *SubscriptionResponse {
	resp := &SubscriptionResponse{Subscription: sub}
	for _, c := range cycles {
		resp.Cycles = append(resp.Cycles, NewBillingCycleResponse(c))
	}
	return resp
}

// ListSubscriptionsResponse represents a paginated list of subscriptions
type ListSubscriptionsResponse struct {
	Items []*SubscriptionResponse `json:"items"`
	Total int                     `json:"total"`
}

// BillingCycleResponse represents one scheduled installment
type BillingCycleResponse struct {
	*subscription.BillingCycle
}

// NewBillingCycleResponse creates a new billing cycle response
func NewBillingCycleResponse(c *subscription.BillingCycle) *BillingCycleResponse {
	return &BillingCycleResponse{BillingCycle: c}
}
