package service

import (
	"context"
	"errors"
	"strings"

	"messenger/internal/database"
	"messenger/internal/domain"
	"messenger/internal/models"

	"github.com/rs/zerolog"
)

type CompanyService struct {
	repo   domain.CompanyRepository
	logger *zerolog.Logger
}

func NewCompanyService(repo domain.CompanyRepository, logger *zerolog.Logger) *CompanyService {
	return &CompanyService{repo: repo, logger: logger}
}

// ListActive is the selection list shown when booking.
func (s *CompanyService) ListActive(ctx context.Context) ([]*models.Company, error) {
	return s.repo.ListActiveCompanies(ctx)
}

func (s *CompanyService) ListAll(ctx context.Context) ([]*models.Company, error) {
	return s.repo.ListCompanies(ctx)
}

type CompanyInput struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

func (s *CompanyService) Create(ctx context.Context, in CompanyInput) (*models.Company, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, required("name")
	}
	company := &models.Company{Name: strings.TrimSpace(*in.Name), IsActive: true}
	if in.IsActive != nil {
		company.IsActive = *in.IsActive
	}

	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, mapCompanyError(err)
	}
	s.logger.Info().Int64("company_id", company.ID).Str("name", company.Name).Msg("company created")
	return company, nil
}

// Update renames a company or toggles its visibility.
func (s *CompanyService) Update(ctx context.Context, id int64, in CompanyInput) (*models.Company, error) {
	company, err := s.repo.GetCompanyByID(ctx, id)
	if err != nil {
		return nil, mapCompanyError(err)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, required("name")
		}
		company.Name = name
	}
	if in.IsActive != nil {
		company.IsActive = *in.IsActive
	}

	if err := s.repo.UpdateCompany(ctx, company); err != nil {
		return nil, mapCompanyError(err)
	}
	s.logger.Info().Int64("company_id", company.ID).Bool("is_active", company.IsActive).Msg("company updated")
	return company, nil
}

func mapCompanyError(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return ErrCompanyNotFound
	case errors.Is(err, database.ErrCompanyNameTaken):
		return ErrCompanyTaken
	}
	return err
}
