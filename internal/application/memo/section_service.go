package memo

import (
	"context"
	"fmt"
	"time"

	"github.com/creditpm/backend/internal/domain/analysis"
	"github.com/creditpm/backend/internal/domain/company"
	"github.com/creditpm/backend/internal/domain/memo"
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/creditpm/backend/internal/infrastructure/keylock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SectionService is the version ledger over memo sections. Every
// content-affecting write increments the section version by one and
// appends exactly one immutable audit entry. Writes to one
// (case, section_type) are serialized; the actor behind each write is
// passed in explicitly and never resolved here.
type SectionService struct {
	caseRepo    memo.CaseRepository
	sectionRepo memo.SectionRepository
	auditRepo   memo.AuditLogRepository
	companyRepo company.Repository
	generator   analysis.SectionGenerator
	locks       *keylock.KeyLock
	logger      *zap.Logger
}

// NewSectionService creates a new SectionService
func NewSectionService(
	caseRepo memo.CaseRepository,
	sectionRepo memo.SectionRepository,
	auditRepo memo.AuditLogRepository,
	companyRepo company.Repository,
	generator analysis.SectionGenerator,
	locks *keylock.KeyLock,
	logger *zap.Logger,
) *SectionService {
	return &SectionService{
		caseRepo:    caseRepo,
		sectionRepo: sectionRepo,
		auditRepo:   auditRepo,
		companyRepo: companyRepo,
		generator:   generator,
		locks:       locks,
		logger:      logger,
	}
}

// SectionResponse represents a memo section in API responses
type SectionResponse struct {
	ID          uuid.UUID `json:"id"`
	CaseID      uuid.UUID `json:"case_id"`
	SectionType string    `json:"section_type"`
	Title       string    `json:"title"`
	AIContent   *string   `json:"ai_content,omitempty"`
	UserContent *string   `json:"user_content,omitempty"`
	State       string    `json:"state"`
	Version     int       `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GenerateSection generates (or regenerates) the AI content of one
// section. Existing user content is preserved untouched.
func (s *SectionService) GenerateSection(ctx context.Context, caseID uuid.UUID, sectionType memo.SectionType, actor memo.Actor, financialContext string) (*SectionResponse, error) {
	if !sectionType.IsValid() {
		return nil, shared.NewValidationError("section_type", "Unknown section type")
	}
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	pmCase, err := s.caseRepo.FindByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	comp, err := s.companyRepo.FindByID(ctx, pmCase.CompanyID)
	if err != nil {
		return nil, err
	}

	var response *SectionResponse
	err = s.locks.Do(sectionKey(caseID, sectionType), func() error {
		content, trace, err := s.generator.GenerateSection(ctx, analysis.SectionRequest{
			SectionType:         string(sectionType),
			CompanyName:         comp.Name,
			IndustryCode:        comp.IndustryCode,
			BusinessDescription: comp.BusinessDescription,
			CaseTitle:           pmCase.Title,
			FinancialContext:    financialContext,
		})
		if err != nil {
			return err
		}

		section, err := s.sectionRepo.FindByCaseAndType(ctx, caseID, sectionType)
		if err != nil {
			return err
		}
		if section == nil {
			section, err = memo.NewPMSection(caseID, sectionType, content)
			if err != nil {
				return err
			}
		} else {
			section.ApplyGenerated(content)
		}
		if err := s.sectionRepo.Save(ctx, section); err != nil {
			return err
		}

		if err := s.appendAudit(ctx, section, memo.ActionGenerate, actor, &memo.GenerationTrace{
			Prompt:       trace.Prompt,
			Response:     trace.Response,
			ModelVersion: trace.ModelVersion,
		}); err != nil {
			return err
		}
		response = toSectionResponse(section)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// UpdateSection records a human edit of the section content
func (s *SectionService) UpdateSection(ctx context.Context, caseID uuid.UUID, sectionType memo.SectionType, content string, actor memo.Actor) (*SectionResponse, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	var response *SectionResponse
	err := s.locks.Do(sectionKey(caseID, sectionType), func() error {
		section, err := s.sectionRepo.FindByCaseAndType(ctx, caseID, sectionType)
		if err != nil {
			return err
		}
		if section == nil {
			return shared.ErrNotFound
		}
		if err := section.ApplyUserEdit(content); err != nil {
			return err
		}
		if err := s.sectionRepo.Save(ctx, section); err != nil {
			return err
		}
		if err := s.appendAudit(ctx, section, memo.ActionUpdate, actor, nil); err != nil {
			return err
		}
		response = toSectionResponse(section)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// RevertSection sets the user content back to the current AI content.
// It is a content-affecting write: the version still increments.
func (s *SectionService) RevertSection(ctx context.Context, caseID uuid.UUID, sectionType memo.SectionType, actor memo.Actor) (*SectionResponse, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	var response *SectionResponse
	err := s.locks.Do(sectionKey(caseID, sectionType), func() error {
		section, err := s.sectionRepo.FindByCaseAndType(ctx, caseID, sectionType)
		if err != nil {
			return err
		}
		if section == nil {
			return shared.ErrNotFound
		}
		if err := section.RevertToAI(); err != nil {
			return err
		}
		if err := s.sectionRepo.Save(ctx, section); err != nil {
			return err
		}
		if err := s.appendAudit(ctx, section, memo.ActionRevert, actor, nil); err != nil {
			return err
		}
		response = toSectionResponse(section)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// GenerateCompleteMemo generates every section of the case in memo
// order. Sections that fail are reported and skipped; the rest proceed.
func (s *SectionService) GenerateCompleteMemo(ctx context.Context, caseID uuid.UUID, actor memo.Actor, financialContext string) ([]SectionResponse, map[string]string, error) {
	if _, err := s.caseRepo.FindByID(ctx, caseID); err != nil {
		return nil, nil, err
	}
	var sections []SectionResponse
	failures := make(map[string]string)
	for _, st := range memo.AllSectionTypes() {
		resp, err := s.GenerateSection(ctx, caseID, st, actor, financialContext)
		if err != nil {
			s.logger.Warn("memo section generation failed",
				zap.String("case_id", caseID.String()),
				zap.String("section_type", string(st)),
				zap.Error(err))
			failures[string(st)] = err.Error()
			continue
		}
		sections = append(sections, *resp)
	}
	return sections, failures, nil
}

// GetSection returns one section of a case
func (s *SectionService) GetSection(ctx context.Context, caseID uuid.UUID, sectionType memo.SectionType) (*SectionResponse, error) {
	section, err := s.sectionRepo.FindByCaseAndType(ctx, caseID, sectionType)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return nil, shared.ErrNotFound
	}
	return toSectionResponse(section), nil
}

// ListSections returns the case's sections
func (s *SectionService) ListSections(ctx context.Context, caseID uuid.UUID) ([]SectionResponse, error) {
	sections, err := s.sectionRepo.FindByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	out := make([]SectionResponse, len(sections))
	for i := range sections {
		out[i] = *toSectionResponse(&sections[i])
	}
	return out, nil
}

// SectionHistory returns the audit trail of one section, oldest first
func (s *SectionService) SectionHistory(ctx context.Context, caseID uuid.UUID, sectionType memo.SectionType) ([]memo.AuditLogEntry, error) {
	return s.auditRepo.FindBySection(ctx, caseID, sectionType)
}

// CaseAuditTrail returns every audit entry of a case across all
// sections, oldest first.
func (s *SectionService) CaseAuditTrail(ctx context.Context, caseID uuid.UUID) ([]memo.AuditLogEntry, error) {
	return s.auditRepo.FindByCase(ctx, caseID)
}

func (s *SectionService) appendAudit(ctx context.Context, section *memo.PMSection, action memo.AuditAction, actor memo.Actor, trace *memo.GenerationTrace) error {
	entry, err := memo.NewAuditLogEntry(section.CaseID, section.SectionType, action, actor, section.Version, trace)
	if err != nil {
		return err
	}
	return s.auditRepo.Append(ctx, entry)
}

func sectionKey(caseID uuid.UUID, sectionType memo.SectionType) string {
	return fmt.Sprintf("section:%s:%s", caseID, sectionType)
}

func toSectionResponse(section *memo.PMSection) *SectionResponse {
	return &SectionResponse{
		ID:          section.ID,
		CaseID:      section.CaseID,
		SectionType: string(section.SectionType),
		Title:       section.Title,
		AIContent:   section.AIContent,
		UserContent: section.UserContent,
		State:       string(section.State()),
		Version:     section.Version,
		UpdatedAt:   section.UpdatedAt,
	}
}
