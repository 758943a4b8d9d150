package memo

import (
	"context"
	"time"

	"github.com/creditpm/backend/internal/application/validation"
	"github.com/creditpm/backend/internal/domain/company"
	"github.com/creditpm/backend/internal/domain/memo"
	"github.com/google/uuid"
)

// CaseService provides application-level case operations
type CaseService struct {
	caseRepo    memo.CaseRepository
	companyRepo company.Repository
}

// NewCaseService creates a new CaseService
func NewCaseService(caseRepo memo.CaseRepository, companyRepo company.Repository) *CaseService {
	return &CaseService{caseRepo: caseRepo, companyRepo: companyRepo}
}

// CreateCaseRequest opens a memo case for a company
type CreateCaseRequest struct {
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
	Title     string    `json:"title"`
}

// CaseResponse represents a case in API responses
type CaseResponse struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCase opens a draft case. An empty title defaults to the company
// name.
func (s *CaseService) CreateCase(ctx context.Context, req CreateCaseRequest, actor memo.Actor) (*CaseResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	comp, err := s.companyRepo.FindByID(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	title := req.Title
	if title == "" {
		title = "PM - " + comp.Name
	}
	pmCase, err := memo.NewPMCase(comp.ID, title, actor)
	if err != nil {
		return nil, err
	}
	if err := s.caseRepo.Save(ctx, pmCase); err != nil {
		return nil, err
	}
	return toCaseResponse(pmCase), nil
}

// GetCase returns one case
func (s *CaseService) GetCase(ctx context.Context, id uuid.UUID) (*CaseResponse, error) {
	pmCase, err := s.caseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCaseResponse(pmCase), nil
}

// ListCases returns the company's cases
func (s *CaseService) ListCases(ctx context.Context, companyID uuid.UUID) ([]CaseResponse, error) {
	cases, err := s.caseRepo.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]CaseResponse, len(cases))
	for i := range cases {
		out[i] = *toCaseResponse(&cases[i])
	}
	return out, nil
}

// UpdateCaseRequest renames or re-statuses a case
type UpdateCaseRequest struct {
	Title  *string `json:"title"`
	Status *string `json:"status"`
}

// UpdateCase applies title and status changes
func (s *CaseService) UpdateCase(ctx context.Context, id uuid.UUID, req UpdateCaseRequest) (*CaseResponse, error) {
	pmCase, err := s.caseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		if err := pmCase.UpdateTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Status != nil {
		if err := pmCase.TransitionTo(memo.CaseStatus(*req.Status)); err != nil {
			return nil, err
		}
	}
	if err := s.caseRepo.Save(ctx, pmCase); err != nil {
		return nil, err
	}
	return toCaseResponse(pmCase), nil
}

// DeleteCase removes a case and its sections
func (s *CaseService) DeleteCase(ctx context.Context, id uuid.UUID) error {
	if _, err := s.caseRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.caseRepo.Delete(ctx, id)
}

func toCaseResponse(c *memo.PMCase) *CaseResponse {
	return &CaseResponse{
		ID:        c.ID,
		CompanyID: c.CompanyID,
		Title:     c.Title,
		Status:    string(c.Status),
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
