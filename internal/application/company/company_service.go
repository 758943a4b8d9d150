package company

import (
	"context"
	"time"

	"github.com/creditpm/backend/internal/application/validation"
	"github.com/creditpm/backend/internal/domain/company"
	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CompanyService provides application-level company operations
type CompanyService struct {
	companyRepo company.Repository
	registry    financial.UpstreamRegistry
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(companyRepo company.Repository, registry financial.UpstreamRegistry) *CompanyService {
	return &CompanyService{companyRepo: companyRepo, registry: registry}
}

// CreateCompanyRequest creates a company from manual input
type CreateCompanyRequest struct {
	OrganizationNumber  string `json:"organization_number" validate:"required"`
	Name                string `json:"name" validate:"required"`
	IndustryCode        string `json:"industry_code"`
	BusinessDescription string `json:"business_description"`
	Currency            string `json:"currency"`
	Employees           *int   `json:"employees"`
}

// CompanyResponse represents a company in API responses
type CompanyResponse struct {
	ID                  uuid.UUID `json:"id"`
	OrganizationNumber  string    `json:"organization_number"`
	Name                string    `json:"name"`
	IndustryCode        string    `json:"industry_code,omitempty"`
	BusinessDescription string    `json:"business_description,omitempty"`
	Currency            string    `json:"currency"`
	Employees           *int      `json:"employees,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// CreateCompany registers a company from manual input. The organization
// number must be unique.
func (s *CompanyService) CreateCompany(ctx context.Context, req CreateCompanyRequest) (*CompanyResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	existing, err := s.companyRepo.FindByOrgNumber(ctx, req.OrganizationNumber)
	if err != nil && !shared.HasCode(err, shared.CodeNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewConflictError("A company with this organization number already exists")
	}

	comp, err := company.NewCompany(req.OrganizationNumber, req.Name, req.IndustryCode)
	if err != nil {
		return nil, err
	}
	if req.Currency != "" {
		if err := comp.SetCurrency(req.Currency); err != nil {
			return nil, err
		}
	}
	comp.BusinessDescription = req.BusinessDescription
	comp.Employees = req.Employees

	if err := s.companyRepo.Save(ctx, comp); err != nil {
		return nil, err
	}
	return toCompanyResponse(comp), nil
}

// GetOrCreateFromRegistry returns the company for the organization
// number, seeding it from registry master data when unknown.
func (s *CompanyService) GetOrCreateFromRegistry(ctx context.Context, orgNumber string) (*CompanyResponse, error) {
	existing, err := s.companyRepo.FindByOrgNumber(ctx, orgNumber)
	if err != nil && !shared.HasCode(err, shared.CodeNotFound) {
		return nil, err
	}
	if existing != nil {
		return toCompanyResponse(existing), nil
	}

	profile, err := s.registry.FetchProfile(ctx, orgNumber)
	if err != nil {
		return nil, err
	}
	comp, err := company.NewCompany(profile.OrganizationNumber, profile.Name, profile.IndustryCode)
	if err != nil {
		return nil, err
	}
	comp.BusinessDescription = profile.BusinessDescription
	comp.Employees = profile.Employees

	if err := s.companyRepo.Save(ctx, comp); err != nil {
		return nil, err
	}
	return toCompanyResponse(comp), nil
}

// GetCompany returns one company
func (s *CompanyService) GetCompany(ctx context.Context, id uuid.UUID) (*CompanyResponse, error) {
	comp, err := s.companyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCompanyResponse(comp), nil
}

// ListCompanies returns every registered company
func (s *CompanyService) ListCompanies(ctx context.Context) ([]CompanyResponse, error) {
	companies, err := s.companyRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CompanyResponse, len(companies))
	for i := range companies {
		out[i] = *toCompanyResponse(&companies[i])
	}
	return out, nil
}

// DeleteCompany removes a company and all owned financial data
func (s *CompanyService) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	if _, err := s.companyRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.companyRepo.Delete(ctx, id)
}

func toCompanyResponse(c *company.Company) *CompanyResponse {
	return &CompanyResponse{
		ID:                  c.ID,
		OrganizationNumber:  c.OrganizationNumber,
		Name:                c.Name,
		IndustryCode:        c.IndustryCode,
		BusinessDescription: c.BusinessDescription,
		Currency:            c.Currency,
		Employees:           c.Employees,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}
