package types

import (
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/samber/lo"
)

// FreezeStatus represents the state of a membership freeze window
type FreezeStatus string

const (
	FreezeStatusActive FreezeStatus = "active"
	FreezeStatusEnded  FreezeStatus = "ended"
)

func (s FreezeStatus) String() string {
	return string(s)
}

func (s FreezeStatus) Validate() error {
	allowed := []FreezeStatus{
		FreezeStatusActive,
		FreezeStatusEnded,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid freeze status").
			WithHintf("Freeze status %s is not valid", s).
			Mark(ierr.ErrValidation)
	}
	return nil
}
