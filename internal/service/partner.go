package service

import (
	"context"
	"strings"

	"coop-backoffice/internal/domain"

	"github.com/google/uuid"
)

type PartnerStore interface {
	Create(ctx context.Context, p *domain.Partner) error
	GetByID(ctx context.Context, id string) (*domain.Partner, error)
	List(ctx context.Context) ([]domain.Partner, error)
	Update(ctx context.Context, p *domain.Partner) error
	Delete(ctx context.Context, id string) error
}

type PartnerService struct {
	repo PartnerStore
}

func NewPartnerService(repo PartnerStore) *PartnerService {
	return &PartnerService{repo: repo}
}

type PartnerInput struct {
	FirstName            string
	LastName             string
	IdentificationNumber *string
	Alias                *string
}

func (in PartnerInput) validate() error {
	if strings.TrimSpace(in.FirstName) == "" {
		return domain.NewValidationError("firstName", "first name is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		return domain.NewValidationError("lastName", "last name is required")
	}
	return nil
}

func (s *PartnerService) Register(ctx context.Context, in PartnerInput) (*domain.Partner, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &domain.Partner{
		ID:                   uuid.NewString(),
		FirstName:            strings.TrimSpace(in.FirstName),
		LastName:             strings.TrimSpace(in.LastName),
		IdentificationNumber: in.IdentificationNumber,
		Alias:                in.Alias,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PartnerService) Get(ctx context.Context, id string) (*domain.Partner, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PartnerService) List(ctx context.Context) ([]domain.Partner, error) {
	return s.repo.List(ctx)
}

func (s *PartnerService) Update(ctx context.Context, id string, in PartnerInput) (*domain.Partner, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.FirstName = strings.TrimSpace(in.FirstName)
	p.LastName = strings.TrimSpace(in.LastName)
	p.IdentificationNumber = in.IdentificationNumber
	p.Alias = in.Alias

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Remove deletes the partner together with all owned loans and installments.
// There is no soft delete; payments and receipts stay as the money trail.
func (s *PartnerService) Remove(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
