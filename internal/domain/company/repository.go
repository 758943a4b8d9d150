package company

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for company persistence
type Repository interface {
	// FindByID finds a company by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)

	// FindByOrgNumber finds a company by organization number
	FindByOrgNumber(ctx context.Context, orgNumber string) (*Company, error)

	// FindAll lists all companies
	FindAll(ctx context.Context) ([]Company, error)

	// Save creates or updates a company
	Save(ctx context.Context, c *Company) error

	// Delete removes a company and cascades to all owned financial data
	Delete(ctx context.Context, id uuid.UUID) error
}
