package financial

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatementRepository persists normalized financial statements
type StatementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*FinancialStatement, error)
	// FindByCompanyAndYear returns nil without error when absent.
	FindByCompanyAndYear(ctx context.Context, companyID uuid.UUID, year int) (*FinancialStatement, error)
	// FindByCompany returns statements ordered by year ascending.
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]FinancialStatement, error)
	Save(ctx context.Context, statement *FinancialStatement) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProjectionRepository persists projection runs
type ProjectionRepository interface {
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]FinancialProjection, error)
	// ReplaceForCompany atomically deletes the company's prior projection
	// set and inserts the new one.
	ReplaceForCompany(ctx context.Context, companyID uuid.UUID, projections []FinancialProjection) error
	DeleteByCompany(ctx context.Context, companyID uuid.UUID) error
}

// DocumentRepository persists uploaded financial documents
type DocumentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*FinancialDocument, error)
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]FinancialDocument, error)
	// FindStalledProcessing returns documents stuck in processing since
	// before the cutoff, for the recovery sweep.
	FindStalledProcessing(ctx context.Context, cutoff time.Time) ([]FinancialDocument, error)
	Save(ctx context.Context, document *FinancialDocument) error
	// SaveWithStatements persists the document and its extracted
	// statements in one transaction, so the terminal status never
	// commits apart from the statement rows.
	SaveWithStatements(ctx context.Context, document *FinancialDocument, statements []*FinancialStatement) error
}
