package plan

import (
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/shopspring/decimal"
)

// Plan represents a membership plan sold by an academy. Fixed-term plans have
// a concrete TotalInstallments; recurring-until-cancelled plans leave it nil
// and the next cycle is generated on demand.
type Plan struct {
	// ID is the unique identifier for the plan
	ID string `db:"id" json:"id"`

	// Name is the display name of the plan
	Name string `db:"name" json:"name"`

	// BasePriceCents is the per-cycle price in integer minor units
	BasePriceCents int64 `db:"base_price_cents" json:"base_price_cents"`

	// Currency is the three-letter ISO code the price is denominated in
	Currency string `db:"currency" json:"currency"`

	// CycleLengthMonths is the calendar-month length of one billing cycle
	CycleLengthMonths int `db:"cycle_length_months" json:"cycle_length_months"`

	// TotalInstallments is the number of cycles for fixed-term plans.
	// Nil means recurring until cancelled.
	TotalInstallments *int `db:"total_installments" json:"total_installments,omitempty"`

	// Recurring marks plans whose schedule is owned by the payment provider
	// rather than this engine
	Recurring bool `db:"recurring" json:"recurring"`

	// RenewalDiscountPercentage is applied to cycles at or after a renewal
	// boundary, e.g. 10 means 10% off. Zero means no discount.
	RenewalDiscountPercentage decimal.Decimal `db:"renewal_discount_percentage" json:"renewal_discount_percentage"`

	Metadata types.Metadata `db:"metadata" json:"metadata,omitempty"`

	types.BaseModel
}

// Validate validates the plan. Plans with a non-positive cycle length or a
// negative price can never produce a valid schedule.
func (p *Plan) Validate() error {
	if p.Name == "" {
		return ierr.NewError("plan name is required").
			WithHint("Plan name is required").
			Mark(ierr.ErrValidation)
	}
	if p.CycleLengthMonths <= 0 {
		return ierr.NewError("invalid plan cycle length").
			WithHint("Cycle length must be at least one month").
			WithReportableDetails(map[string]any{
				"cycle_length_months": p.CycleLengthMonths,
			}).
			Mark(ierr.ErrValidation)
	}
	if p.BasePriceCents < 0 {
		return ierr.NewError("invalid plan price").
			WithHint("Plan price must not be negative").
			WithReportableDetails(map[string]any{
				"base_price_cents": p.BasePriceCents,
			}).
			Mark(ierr.ErrValidation)
	}
	if p.TotalInstallments != nil && *p.TotalInstallments <= 0 {
		return ierr.NewError("invalid total installments").
			WithHint("Total installments must be positive when set").
			Mark(ierr.ErrValidation)
	}
	if p.RenewalDiscountPercentage.IsNegative() || p.RenewalDiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return ierr.NewError("invalid renewal discount").
			WithHint("Renewal discount must be between 0 and 100").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsFixedTerm reports whether the plan has a finite installment schedule
func (p *Plan) IsFixedTerm() bool {
	return p.TotalInstallments != nil
}

// TableName returns the table name for the plan
func (p *Plan) TableName() string {
	return "plans"
}
