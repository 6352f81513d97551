package service

import (
	"testing"
	"time"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/domain/subscription"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/testutil"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type ContactServiceSuite struct {
	testutil.BaseServiceTestSuite
	service ContactService
}

func TestContactService(t *testing.T) {
	suite.Run(t, new(ContactServiceSuite))
}

func (s *ContactServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewContactService(ServiceParams{
		Logger:      s.GetLogger(),
		Config:      s.GetConfig(),
		DB:          s.GetDB(),
		ContactRepo: s.GetStores().ContactRepo,
		SubRepo:     s.GetStores().SubscriptionRepo,
		PaymentRepo: s.GetStores().PaymentRepo,
	})
}

func (s *ContactServiceSuite) TestCreateAndGetContact() {
	ctx := s.GetContext()

	created, err := s.service.CreateContact(ctx, dto.CreateContactRequest{
		Name:  "Sam Rivera",
		Email: "sam@example.com",
	})
	s.NoError(err)
	s.NotEmpty(created.ID)

	got, err := s.service.GetContact(ctx, created.ID)
	s.NoError(err)
	s.Equal("sam@example.com", got.Email)
}

func (s *ContactServiceSuite) TestContactIsTenantScoped() {
	ctx := s.GetContext()

	created, err := s.service.CreateContact(ctx, dto.CreateContactRequest{
		Name:  "Sam Rivera",
		Email: "sam@example.com",
	})
	s.NoError(err)

	otherTenant := types.SetTenantID(ctx, types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TENANT))
	_, err = s.service.GetContact(otherTenant, created.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *ContactServiceSuite) TestUpdateContact() {
	ctx := s.GetContext()

	created, err := s.service.CreateContact(ctx, dto.CreateContactRequest{
		Name:  "Sam Rivera",
		Email: "sam@example.com",
	})
	s.NoError(err)

	updated, err := s.service.UpdateContact(ctx, created.ID, dto.UpdateContactRequest{
		Email: lo.ToPtr("sam.rivera@example.com"),
	})
	s.NoError(err)
	s.Equal("sam.rivera@example.com", updated.Email)
	s.Equal("Sam Rivera", updated.Name)
}

func (s *ContactServiceSuite) TestDeleteContactBlockedBySubscription() {
	ctx := s.GetContext()

	created, err := s.service.CreateContact(ctx, dto.CreateContactRequest{
		Name:  "Sam Rivera",
		Email: "sam@example.com",
	})
	s.NoError(err)

	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		ContactID:          created.ID,
		PlanID:             "plan_test",
		SubscriptionStatus: types.SubscriptionStatusActive,
		Currency:           "usd",
		StartDate:          time.Now().UTC(),
		CycleLengthMonths:  1,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}))

	err = s.service.DeleteContact(ctx, created.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *ContactServiceSuite) TestDeleteContactWithoutHistory() {
	ctx := s.GetContext()

	created, err := s.service.CreateContact(ctx, dto.CreateContactRequest{
		Name:  "Sam Rivera",
		Email: "sam@example.com",
	})
	s.NoError(err)

	s.NoError(s.service.DeleteContact(ctx, created.ID))

	_, err = s.service.GetContact(ctx, created.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
