package service

import (
	"context"
	"time"

	"github.com/dojoflow/dojoflow/internal/api/dto"
	"github.com/dojoflow/dojoflow/internal/domain/contact"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/samber/lo"
)

// ContactService manages students and their provider customer objects
type ContactService interface {
	CreateContact(ctx context.Context, req dto.CreateContactRequest) (*dto.ContactResponse, error)
	GetContact(ctx context.Context, id string) (*dto.ContactResponse, error)
	UpdateContact(ctx context.Context, id string, req dto.UpdateContactRequest) (*dto.ContactResponse, error)
	// DeleteContact refuses to remove a contact that subscriptions or
	// payments still reference. Removal is always explicit, never a cascade.
	DeleteContact(ctx context.Context, id string) error
	ListContacts(ctx context.Context, filter *contact.ContactFilter) (*dto.ListContactsResponse, error)
}

type contactService struct {
	ServiceParams
}

// NewContactService creates a new contact service
func NewContactService(params ServiceParams) ContactService {
	return &contactService{ServiceParams: params}
}

func (s *contactService) CreateContact(ctx context.Context, req dto.CreateContactRequest) (*dto.ContactResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c := req.ToContact(ctx)
	if err := s.ContactRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.Logger.Infow("created contact", "contact_id", c.ID, "email", c.Email)
	return dto.NewContactResponse(c), nil
}

func (s *contactService) GetContact(ctx context.Context, id string) (*dto.ContactResponse, error) {
	c, err := s.ContactRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewContactResponse(c), nil
}

func (s *contactService) UpdateContact(ctx context.Context, id string, req dto.UpdateContactRequest) (*dto.ContactResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.ContactRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Email != nil {
		c.Email = *req.Email
	}
	if req.Phone != nil {
		c.Phone = req.Phone
	}
	if req.Metadata != nil {
		c.Metadata = req.Metadata
	}
	c.UpdatedAt = time.Now().UTC()
	c.UpdatedBy = types.GetUserID(ctx)

	if err := s.ContactRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return dto.NewContactResponse(c), nil
}

func (s *contactService) DeleteContact(ctx context.Context, id string) error {
	if _, err := s.ContactRepo.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.SubRepo.Count(ctx, &types.SubscriptionFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		ContactID:   lo.ToPtr(id),
	})
	if err != nil {
		return err
	}
	if count > 0 {
		return ierr.NewError("contact has subscriptions").
			WithHint("Cancel the contact's subscriptions before deleting").
			WithReportableDetails(map[string]any{
				"subscriptions": count,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	payments, err := s.PaymentRepo.Count(ctx, &types.PaymentFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		ContactID:   lo.ToPtr(id),
	})
	if err != nil {
		return err
	}
	if payments > 0 {
		return ierr.NewError("contact has payments").
			WithHint("Contacts with payment history cannot be deleted").
			Mark(ierr.ErrInvalidOperation)
	}

	return s.ContactRepo.Delete(ctx, id)
}

func (s *contactService) ListContacts(ctx context.Context, filter *contact.ContactFilter) (*dto.ListContactsResponse, error) {
	contacts, err := s.ContactRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListContactsResponse{}
	for _, c := range contacts {
		resp.Items = append(resp.Items, dto.NewContactResponse(c))
	}
	return resp, nil
}
