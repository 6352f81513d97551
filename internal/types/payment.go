package types

import (
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/samber/lo"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending        PaymentStatus = "pending"
	PaymentStatusProcessing     PaymentStatus = "processing"
	PaymentStatusSucceeded      PaymentStatus = "succeeded"
	PaymentStatusRequiresAction PaymentStatus = "requires_action"
	PaymentStatusFailed         PaymentStatus = "failed"
	PaymentStatusRefunded       PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusProcessing,
		PaymentStatusSucceeded,
		PaymentStatusRequiresAction,
		PaymentStatusFailed,
		PaymentStatusRefunded,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment status").
			WithHintf("Payment status %s is not valid", s).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentDestinationType represents what entity a payment settles
type PaymentDestinationType string

const (
	PaymentDestinationTypeBillingCycle PaymentDestinationType = "billing_cycle"
	PaymentDestinationTypeAdHoc        PaymentDestinationType = "ad_hoc"
)

func (s PaymentDestinationType) String() string {
	return string(s)
}

func (s PaymentDestinationType) Validate() error {
	allowed := []PaymentDestinationType{
		PaymentDestinationTypeBillingCycle,
		PaymentDestinationTypeAdHoc,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment destination type").
			WithHintf("Payment destination type %s is not valid", s).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ChargeShape distinguishes how a charge is executed against the provider
type ChargeShape string

const (
	// ChargeShapeOneTime is a single ad hoc payment or invoice
	ChargeShapeOneTime ChargeShape = "one_time"
	// ChargeShapeProviderRecurring is a provider-native subscription where the
	// provider owns the schedule
	ChargeShapeProviderRecurring ChargeShape = "provider_recurring"
	// ChargeShapeInstallment is an internally-scheduled installment plan where
	// this engine owns the schedule and fires off-session charges
	ChargeShapeInstallment ChargeShape = "installment"
)

func (s ChargeShape) String() string {
	return string(s)
}

func (s ChargeShape) Validate() error {
	allowed := []ChargeShape{
		ChargeShapeOneTime,
		ChargeShapeProviderRecurring,
		ChargeShapeInstallment,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid charge shape").
			WithHintf("Charge shape %s is not valid", s).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentFilter represents the filter for listing payments
type PaymentFilter struct {
	*QueryFilter
	*TimeRangeFilter

	PaymentIDs      []string `form:"payment_ids"`
	DestinationType *string  `form:"destination_type"`
	DestinationID   *string  `form:"destination_id"`
	ContactID       *string  `form:"contact_id"`
	PaymentStatus   *string  `form:"payment_status"`
}

// NewNoLimitPaymentFilter creates a new payment filter with no limit
func NewNoLimitPaymentFilter() *PaymentFilter {
	return &PaymentFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

func (f *PaymentFilter) Validate() error {
	if f == nil {
		return nil
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	return f.TimeRangeFilter.Validate()
}
