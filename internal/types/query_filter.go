package types

import (
	"time"

	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/samber/lo"
)

const (
	defaultLimit  = 50
	maxLimit      = 1000
	defaultSort   = "created_at"
	defaultOrder  = "desc"
	defaultStatus = string(StatusPublished)
)

// QueryFilter is the common pagination and ordering filter shared by all list
// operations.
type QueryFilter struct {
	Limit  *int    `form:"limit" json:"limit,omitempty"`
	Offset *int    `form:"offset" json:"offset,omitempty"`
	Sort   *string `form:"sort" json:"sort,omitempty"`
	Order  *string `form:"order" json:"order,omitempty"`
	Status *string `form:"status" json:"status,omitempty"`
}

// NewDefaultQueryFilter returns a filter with sensible defaults
func NewDefaultQueryFilter() *QueryFilter {
	return &QueryFilter{
		Limit:  lo.ToPtr(defaultLimit),
		Offset: lo.ToPtr(0),
		Sort:   lo.ToPtr(defaultSort),
		Order:  lo.ToPtr(defaultOrder),
		Status: lo.ToPtr(defaultStatus),
	}
}

// NewNoLimitQueryFilter returns a filter that fetches all matching rows
func NewNoLimitQueryFilter() *QueryFilter {
	return &QueryFilter{
		Offset: lo.ToPtr(0),
		Sort:   lo.ToPtr(defaultSort),
		Order:  lo.ToPtr(defaultOrder),
		Status: lo.ToPtr(defaultStatus),
	}
}

func (f *QueryFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Limit != nil && (*f.Limit < 0 || *f.Limit > maxLimit) {
		return ierr.NewError("invalid limit").
			WithHintf("Limit must be between 0 and %d", maxLimit).
			Mark(ierr.ErrValidation)
	}
	if f.Offset != nil && *f.Offset < 0 {
		return ierr.NewError("invalid offset").
			WithHint("Offset must be non-negative").
			Mark(ierr.ErrValidation)
	}
	if f.Order != nil && *f.Order != "asc" && *f.Order != "desc" {
		return ierr.NewError("invalid order").
			WithHint("Order must be asc or desc").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (f *QueryFilter) GetLimit() int {
	if f == nil || f.Limit == nil {
		return defaultLimit
	}
	return *f.Limit
}

func (f *QueryFilter) GetOffset() int {
	if f == nil || f.Offset == nil {
		return 0
	}
	return *f.Offset
}

func (f *QueryFilter) GetSort() string {
	if f == nil || f.Sort == nil {
		return defaultSort
	}
	return *f.Sort
}

func (f *QueryFilter) GetOrder() string {
	if f == nil || f.Order == nil {
		return defaultOrder
	}
	return *f.Order
}

func (f *QueryFilter) GetStatus() string {
	if f == nil || f.Status == nil {
		return defaultStatus
	}
	return *f.Status
}

// IsUnlimited returns true if the filter has no limit
func (f *QueryFilter) IsUnlimited() bool {
	return f != nil && f.Limit == nil
}

// TimeRangeFilter restricts results to a created-at window
type TimeRangeFilter struct {
	StartTime *time.Time `form:"start_time" json:"start_time,omitempty"`
	EndTime   *time.Time `form:"end_time" json:"end_time,omitempty"`
}

func (f *TimeRangeFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return ierr.NewError("invalid time range").
			WithHint("End time must not be before start time").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaginationResponse is the envelope for list responses
type PaginationResponse struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func NewPaginationResponse(total, limit, offset int) PaginationResponse {
	return PaginationResponse{Total: total, Limit: limit, Offset: offset}
}
