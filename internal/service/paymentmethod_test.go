package service

import (
	"sync"
	"testing"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/domain/contact"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/testutil"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/stretchr/testify/suite"
)

type PaymentMethodServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  PaymentMethodService
	testData struct {
		contact *contact.Contact
	}
}

func TestPaymentMethodService(t *testing.T) {
	suite.Run(t, new(PaymentMethodServiceSuite))
}

func (s *PaymentMethodServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPaymentMethodService(ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		DB:                s.GetDB(),
		ContactRepo:       s.GetStores().ContactRepo,
		PaymentMethodRepo: s.GetStores().PaymentMethodRepo,
	})

	ctx := s.GetContext()
	s.testData.contact = &contact.Contact{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CONTACT),
		Name:      "Sam Rivera",
		Email:     "sam@example.com",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().ContactRepo.Create(ctx, s.testData.contact))
}

func (s *PaymentMethodServiceSuite) createMethod(providerID string, isDefault bool) *dto.PaymentMethodResponse {
	resp, err := s.service.CreatePaymentMethod(s.GetContext(), dto.CreatePaymentMethodRequest{
		ContactID:        s.testData.contact.ID,
		ProviderMethodID: providerID,
		MethodType:       types.PaymentMethodTypeCard,
		IsDefault:        isDefault,
	})
	s.NoError(err)
	return resp
}

func (s *PaymentMethodServiceSuite) countDefaults() int {
	methods, err := s.GetStores().PaymentMethodRepo.ListByContact(s.GetContext(), s.testData.contact.ID)
	s.NoError(err)
	defaults := 0
	for _, m := range methods {
		if m.IsDefault {
			defaults++
		}
	}
	return defaults
}

func (s *PaymentMethodServiceSuite) TestCreateDefaultThenReplace() {
	first := s.createMethod("pm_1", true)
	s.True(first.IsDefault)

	// Storing a second default demotes the first instead of stacking.
	second := s.createMethod("pm_2", true)
	s.True(second.IsDefault)
	s.Equal(1, s.countDefaults())

	reloaded, err := s.service.GetPaymentMethod(s.GetContext(), first.ID)
	s.NoError(err)
	s.False(reloaded.IsDefault)
}

func (s *PaymentMethodServiceSuite) TestCreateNonDefaultThenPromote() {
	ctx := s.GetContext()
	first := s.createMethod("pm_1", true)
	second := s.createMethod("pm_2", false)
	s.False(second.IsDefault)

	promoted, err := s.service.SetDefault(ctx, s.testData.contact.ID, second.ID)
	s.NoError(err)
	s.True(promoted.IsDefault)
	s.Equal(1, s.countDefaults())

	demoted, err := s.service.GetPaymentMethod(ctx, first.ID)
	s.NoError(err)
	s.False(demoted.IsDefault)
}

func (s *PaymentMethodServiceSuite) TestConcurrentSetDefaultLeavesOneDefault() {
	ctx := s.GetContext()
	first := s.createMethod("pm_1", true)
	second := s.createMethod("pm_2", false)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		target := first.ID
		if i%2 == 0 {
			target = second.ID
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.service.SetDefault(ctx, s.testData.contact.ID, id)
			s.NoError(err)
		}(target)
	}
	wg.Wait()

	s.Equal(1, s.countDefaults())
}

func (s *PaymentMethodServiceSuite) TestCreateForUnknownContact() {
	_, err := s.service.CreatePaymentMethod(s.GetContext(), dto.CreatePaymentMethodRequest{
		ContactID:        "cont_missing",
		ProviderMethodID: "pm_1",
		MethodType:       types.PaymentMethodTypeCard,
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentMethodServiceSuite) TestDeletePaymentMethod() {
	ctx := s.GetContext()
	method := s.createMethod("pm_1", false)

	s.NoError(s.service.DeletePaymentMethod(ctx, method.ID))

	_, err := s.service.GetPaymentMethod(ctx, method.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentMethodServiceSuite) TestListPaymentMethods() {
	s.createMethod("pm_1", true)
	s.createMethod("pm_2", false)

	resp, err := s.service.ListPaymentMethods(s.GetContext(), s.testData.contact.ID)
	s.NoError(err)
	s.Len(resp.Items, 2)
}
