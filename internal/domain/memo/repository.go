package memo

import (
	"context"

	"github.com/google/uuid"
)

// CaseRepository persists credit memo cases
type CaseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PMCase, error)
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]PMCase, error)
	Save(ctx context.Context, pmCase *PMCase) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SectionRepository persists memo sections
type SectionRepository interface {
	// FindByCaseAndType returns nil without error when absent.
	FindByCaseAndType(ctx context.Context, caseID uuid.UUID, sectionType SectionType) (*PMSection, error)
	FindByCase(ctx context.Context, caseID uuid.UUID) ([]PMSection, error)
	Save(ctx context.Context, section *PMSection) error
}

// AuditLogRepository appends and reads the immutable write log. There is
// deliberately no update or delete.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *AuditLogEntry) error
	FindByCase(ctx context.Context, caseID uuid.UUID) ([]AuditLogEntry, error)
	FindBySection(ctx context.Context, caseID uuid.UUID, sectionType SectionType) ([]AuditLogEntry, error)
	// FindByCompany returns the company-scoped pipeline entries in
	// write order.
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]AuditLogEntry, error)
}
