package models

import (
	"time"

	"github.com/creditpm/backend/internal/domain/memo"
	"github.com/google/uuid"
)

// PMCaseModel is the persistence model for the PMCase entity.
type PMCaseModel struct {
	BaseModel
	CompanyID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title     string          `gorm:"type:varchar(200);not null"`
	Status    memo.CaseStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	CreatedBy uuid.UUID       `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (PMCaseModel) TableName() string {
	return "pm_cases"
}

// ToDomain converts the persistence model to a domain PMCase entity.
func (m *PMCaseModel) ToDomain() *memo.PMCase {
	return &memo.PMCase{
		BaseEntity: m.BaseModel.ToDomain(),
		CompanyID:  m.CompanyID,
		Title:      m.Title,
		Status:     m.Status,
		CreatedBy:  m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain PMCase entity.
func (m *PMCaseModel) FromDomain(c *memo.PMCase) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.CompanyID = c.CompanyID
	m.Title = c.Title
	m.Status = c.Status
	m.CreatedBy = c.CreatedBy
}

// CaseModelFromDomain creates a new persistence model from a domain PMCase.
func CaseModelFromDomain(c *memo.PMCase) *PMCaseModel {
	m := &PMCaseModel{}
	m.FromDomain(c)
	return m
}

// PMSectionModel is the persistence model for the PMSection entity.
// One row per (case, section type).
type PMSectionModel struct {
	BaseModel
	CaseID      uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_section_case_type,priority:1"`
	SectionType memo.SectionType `gorm:"type:varchar(30);not null;uniqueIndex:idx_section_case_type,priority:2"`
	Title       string           `gorm:"type:varchar(100);not null"`
	AIContent   *string          `gorm:"type:text"`
	UserContent *string          `gorm:"type:text"`
	Version     int              `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (PMSectionModel) TableName() string {
	return "pm_sections"
}

// ToDomain converts the persistence model to a domain PMSection entity.
func (m *PMSectionModel) ToDomain() *memo.PMSection {
	return &memo.PMSection{
		BaseEntity:  m.BaseModel.ToDomain(),
		CaseID:      m.CaseID,
		SectionType: m.SectionType,
		Title:       m.Title,
		AIContent:   m.AIContent,
		UserContent: m.UserContent,
		Version:     m.Version,
	}
}

// FromDomain populates the persistence model from a domain PMSection entity.
func (m *PMSectionModel) FromDomain(s *memo.PMSection) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.CaseID = s.CaseID
	m.SectionType = s.SectionType
	m.Title = s.Title
	m.AIContent = s.AIContent
	m.UserContent = s.UserContent
	m.Version = s.Version
}

// SectionModelFromDomain creates a new persistence model from a domain PMSection.
func SectionModelFromDomain(s *memo.PMSection) *PMSectionModel {
	m := &PMSectionModel{}
	m.FromDomain(s)
	return m
}

// AuditLogEntryModel is the persistence model for the AuditLogEntry record.
// Rows are append only; there is no update or delete path. Section
// writes carry case_id, company-scoped pipeline writes carry company_id.
type AuditLogEntryModel struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key"`
	CaseID       *uuid.UUID       `gorm:"type:uuid;index:idx_audit_case_section,priority:1"`
	CompanyID    *uuid.UUID       `gorm:"type:uuid;index"`
	SectionType  memo.SectionType `gorm:"type:varchar(30);not null;default:'';index:idx_audit_case_section,priority:2"`
	Action       memo.AuditAction `gorm:"type:varchar(30);not null"`
	ActorID      uuid.UUID        `gorm:"type:uuid;not null"`
	ActorName    string           `gorm:"type:varchar(200);not null"`
	ActorKind    memo.ActorKind   `gorm:"type:varchar(10);not null"`
	Version      int              `gorm:"not null"`
	Details      *string          `gorm:"type:text"`
	Prompt       *string          `gorm:"type:text"`
	Response     *string          `gorm:"type:text"`
	ModelVersion *string          `gorm:"type:varchar(100)"`
	CreatedAt    time.Time        `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogEntryModel) TableName() string {
	return "audit_log"
}

// ToDomain converts the persistence model to a domain AuditLogEntry record.
func (m *AuditLogEntryModel) ToDomain() *memo.AuditLogEntry {
	return &memo.AuditLogEntry{
		ID:           m.ID,
		CaseID:       m.CaseID,
		CompanyID:    m.CompanyID,
		SectionType:  m.SectionType,
		Action:       m.Action,
		ActorID:      m.ActorID,
		ActorName:    m.ActorName,
		ActorKind:    m.ActorKind,
		Version:      m.Version,
		Details:      m.Details,
		Prompt:       m.Prompt,
		Response:     m.Response,
		ModelVersion: m.ModelVersion,
		CreatedAt:    m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain AuditLogEntry record.
func (m *AuditLogEntryModel) FromDomain(e *memo.AuditLogEntry) {
	m.ID = e.ID
	m.CaseID = e.CaseID
	m.CompanyID = e.CompanyID
	m.SectionType = e.SectionType
	m.Action = e.Action
	m.ActorID = e.ActorID
	m.ActorName = e.ActorName
	m.ActorKind = e.ActorKind
	m.Version = e.Version
	m.Details = e.Details
	m.Prompt = e.Prompt
	m.Response = e.Response
	m.ModelVersion = e.ModelVersion
	m.CreatedAt = e.CreatedAt
}

// AuditLogModelFromDomain creates a new persistence model from a domain AuditLogEntry.
func AuditLogModelFromDomain(e *memo.AuditLogEntry) *AuditLogEntryModel {
	m := &AuditLogEntryModel{}
	m.FromDomain(e)
	return m
}
