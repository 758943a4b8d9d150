package memo

import (
	"time"

	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditAction is the kind of content-affecting write being recorded
type AuditAction string

const (
	// Section ledger writes, scoped to a case.
	ActionGenerate AuditAction = "generate"
	ActionUpdate   AuditAction = "update"
	ActionRevert   AuditAction = "revert"

	// Pipeline writes, scoped to a company.
	ActionAnalysisGenerated AuditAction = "analysis_generated"
	ActionFinancialUploaded AuditAction = "financial_uploaded"
)

// IsValid checks whether the action is a known value
func (a AuditAction) IsValid() bool {
	switch a {
	case ActionGenerate, ActionUpdate, ActionRevert,
		ActionAnalysisGenerated, ActionFinancialUploaded:
		return true
	}
	return false
}

// AuditLogEntry is one immutable record of a content-affecting write.
// Entries are appended only, never updated or deleted. Section writes
// carry CaseID and SectionType; company-scoped pipeline writes (uploads,
// analysis generations) carry CompanyID instead. Prompt, Response and
// ModelVersion are set for AI-sourced transitions and empty for human
// edits.
type AuditLogEntry struct {
	ID           uuid.UUID   `json:"id"`
	CaseID       *uuid.UUID  `json:"case_id,omitempty"`
	CompanyID    *uuid.UUID  `json:"company_id,omitempty"`
	SectionType  SectionType `json:"section_type,omitempty"`
	Action       AuditAction `json:"action"`
	ActorID      uuid.UUID   `json:"actor_id"`
	ActorName    string      `json:"actor_name"`
	ActorKind    ActorKind   `json:"actor_kind"`
	Version      int         `json:"version"`
	Details      *string     `json:"details,omitempty"`
	Prompt       *string     `json:"prompt,omitempty"`
	Response     *string     `json:"response,omitempty"`
	ModelVersion *string     `json:"model_version,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// GenerationTrace carries the prompt/response pair of an AI-sourced write
type GenerationTrace struct {
	Prompt       string
	Response     string
	ModelVersion string
}

// NewAuditLogEntry records one section ledger write by the given actor.
// version is the section version the write produced.
func NewAuditLogEntry(caseID uuid.UUID, sectionType SectionType, action AuditAction, actor Actor, version int, trace *GenerationTrace) (*AuditLogEntry, error) {
	if !action.IsValid() {
		return nil, shared.NewValidationError("action", "Unknown audit action")
	}
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	entry := &AuditLogEntry{
		ID:          uuid.New(),
		CaseID:      &caseID,
		SectionType: sectionType,
		Action:      action,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		ActorKind:   actor.Kind,
		Version:     version,
		CreatedAt:   time.Now().UTC(),
	}
	if trace != nil {
		entry.Prompt = &trace.Prompt
		entry.Response = &trace.Response
		entry.ModelVersion = &trace.ModelVersion
	}
	return entry, nil
}

// NewCompanyAuditEntry records one company-scoped pipeline write, such
// as a financial upload or an analysis generation. version carries the
// produced artifact version where one exists and is 0 otherwise.
func NewCompanyAuditEntry(companyID uuid.UUID, action AuditAction, actor Actor, version int, details string) (*AuditLogEntry, error) {
	if !action.IsValid() {
		return nil, shared.NewValidationError("action", "Unknown audit action")
	}
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	entry := &AuditLogEntry{
		ID:        uuid.New(),
		CompanyID: &companyID,
		Action:    action,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		ActorKind: actor.Kind,
		Version:   version,
		CreatedAt: time.Now().UTC(),
	}
	if details != "" {
		entry.Details = &details
	}
	return entry, nil
}
