package analysis

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists financial analyses
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*FinancialAnalysis, error)
	// FindLatestByCompany returns nil without error when none exists.
	FindLatestByCompany(ctx context.Context, companyID uuid.UUID) (*FinancialAnalysis, error)
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]FinancialAnalysis, error)
	// NextVersion returns the version the next analysis for the company
	// should carry, starting at 1.
	NextVersion(ctx context.Context, companyID uuid.UUID) (int, error)
	Save(ctx context.Context, analysis *FinancialAnalysis) error
}
