package memo

import (
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CaseStatus is the lifecycle state of a credit memo case
type CaseStatus string

const (
	CaseDraft      CaseStatus = "draft"
	CaseInProgress CaseStatus = "in_progress"
	CaseCompleted  CaseStatus = "completed"
	CaseExported   CaseStatus = "exported"
)

// IsValid checks whether the status is a known value
func (s CaseStatus) IsValid() bool {
	switch s {
	case CaseDraft, CaseInProgress, CaseCompleted, CaseExported:
		return true
	}
	return false
}

// PMCase is one credit memo under preparation for a company. Sections
// hang off the case keyed by section type.
type PMCase struct {
	shared.BaseEntity
	CompanyID uuid.UUID  `json:"company_id"`
	Title     string     `json:"title"`
	Status    CaseStatus `json:"status"`
	CreatedBy uuid.UUID  `json:"created_by"`
}

// NewPMCase opens a draft case for a company
func NewPMCase(companyID uuid.UUID, title string, createdBy Actor) (*PMCase, error) {
	if title == "" {
		return nil, shared.NewValidationError("title", "Case title is required")
	}
	if err := createdBy.Validate(); err != nil {
		return nil, err
	}
	return &PMCase{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		Title:      title,
		Status:     CaseDraft,
		CreatedBy:  createdBy.ID,
	}, nil
}

// UpdateTitle renames the case
func (c *PMCase) UpdateTitle(title string) error {
	if title == "" {
		return shared.NewValidationError("title", "Case title is required")
	}
	c.Title = title
	c.Touch()
	return nil
}

// TransitionTo moves the case along its lifecycle. Draft and in-progress
// move freely; exported is terminal.
func (c *PMCase) TransitionTo(status CaseStatus) error {
	if !status.IsValid() {
		return shared.NewValidationError("status", "Unknown case status")
	}
	if c.Status == CaseExported {
		return shared.NewInvalidStateError("case", string(c.Status), string(status))
	}
	c.Status = status
	c.Touch()
	return nil
}
