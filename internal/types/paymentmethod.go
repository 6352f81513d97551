package types

import (
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/samber/lo"
)

// PaymentMethodType represents the kind of stored payment instrument
type PaymentMethodType string

const (
	PaymentMethodTypeCard         PaymentMethodType = "card"
	PaymentMethodTypeBankAccount  PaymentMethodType = "bank_account"
	PaymentMethodTypeOfflineCash  PaymentMethodType = "offline_cash"
	PaymentMethodTypeOfflineOther PaymentMethodType = "offline_other"
)

func (s PaymentMethodType) String() string {
	return string(s)
}

func (s PaymentMethodType) Validate() error {
	allowed := []PaymentMethodType{
		PaymentMethodTypeCard,
		PaymentMethodTypeBankAccount,
		PaymentMethodTypeOfflineCash,
		PaymentMethodTypeOfflineOther,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment method type").
			WithHintf("Payment method type %s is not valid", s).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsOffline reports whether the method never touches the payment provider
func (s PaymentMethodType) IsOffline() bool {
	return s == PaymentMethodTypeOfflineCash || s == PaymentMethodTypeOfflineOther
}
