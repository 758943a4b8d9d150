package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/creditpm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStatementRepository implements financial.StatementRepository using GORM
type GormStatementRepository struct {
	db *gorm.DB
}

// NewGormStatementRepository creates a new GormStatementRepository
func NewGormStatementRepository(db *gorm.DB) *GormStatementRepository {
	return &GormStatementRepository{db: db}
}

// FindByID finds a statement by its ID
func (r *GormStatementRepository) FindByID(ctx context.Context, id uuid.UUID) (*financial.FinancialStatement, error) {
	var model models.FinancialStatementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCompanyAndYear finds the statement for a company-year.
// Returns nil without error when absent.
func (r *GormStatementRepository) FindByCompanyAndYear(ctx context.Context, companyID uuid.UUID, year int) (*financial.FinancialStatement, error) {
	var model models.FinancialStatementModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND year = ?", companyID, year).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCompany returns all statements for a company ordered by year ascending
func (r *GormStatementRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]financial.FinancialStatement, error) {
	var statementModels []models.FinancialStatementModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("year asc").
		Find(&statementModels).Error; err != nil {
		return nil, err
	}

	statements := make([]financial.FinancialStatement, len(statementModels))
	for i, model := range statementModels {
		statements[i] = *model.ToDomain()
	}
	return statements, nil
}

// Save creates or updates a statement
func (r *GormStatementRepository) Save(ctx context.Context, statement *financial.FinancialStatement) error {
	model := models.StatementModelFromDomain(statement)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a statement
func (r *GormStatementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.FinancialStatementModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormProjectionRepository implements financial.ProjectionRepository using GORM
type GormProjectionRepository struct {
	db *gorm.DB
}

// NewGormProjectionRepository creates a new GormProjectionRepository
func NewGormProjectionRepository(db *gorm.DB) *GormProjectionRepository {
	return &GormProjectionRepository{db: db}
}

// FindByCompany returns the company's projections ordered by year ascending
func (r *GormProjectionRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]financial.FinancialProjection, error) {
	var projectionModels []models.FinancialProjectionModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("year asc").
		Find(&projectionModels).Error; err != nil {
		return nil, err
	}

	projections := make([]financial.FinancialProjection, len(projectionModels))
	for i, model := range projectionModels {
		projections[i] = *model.ToDomain()
	}
	return projections, nil
}

// ReplaceForCompany atomically swaps the company's projection set for the
// given one. A run always replaces all prior rows so partially applied
// runs never become visible.
func (r *GormProjectionRepository) ReplaceForCompany(ctx context.Context, companyID uuid.UUID, projections []financial.FinancialProjection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.FinancialProjectionModel{}, "company_id = ?", companyID).Error; err != nil {
			return err
		}
		if len(projections) == 0 {
			return nil
		}
		projectionModels := make([]*models.FinancialProjectionModel, len(projections))
		for i := range projections {
			projectionModels[i] = models.ProjectionModelFromDomain(&projections[i])
		}
		return tx.Create(projectionModels).Error
	})
}

// DeleteByCompany removes all projections for a company
func (r *GormProjectionRepository) DeleteByCompany(ctx context.Context, companyID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.FinancialProjectionModel{}, "company_id = ?", companyID).Error
}

// GormDocumentRepository implements financial.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document by its ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*financial.FinancialDocument, error) {
	var model models.FinancialDocumentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCompany returns all documents for a company, newest first
func (r *GormDocumentRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]financial.FinancialDocument, error) {
	var documentModels []models.FinancialDocumentModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at desc").
		Find(&documentModels).Error; err != nil {
		return nil, err
	}

	documents := make([]financial.FinancialDocument, len(documentModels))
	for i, model := range documentModels {
		documents[i] = *model.ToDomain()
	}
	return documents, nil
}

// FindStalledProcessing returns documents stuck in processing since
// before the cutoff, for the recovery sweep.
func (r *GormDocumentRepository) FindStalledProcessing(ctx context.Context, cutoff time.Time) ([]financial.FinancialDocument, error) {
	var documentModels []models.FinancialDocumentModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", financial.DocumentProcessing, cutoff).
		Find(&documentModels).Error; err != nil {
		return nil, err
	}

	documents := make([]financial.FinancialDocument, len(documentModels))
	for i, model := range documentModels {
		documents[i] = *model.ToDomain()
	}
	return documents, nil
}

// Save creates or updates a document
func (r *GormDocumentRepository) Save(ctx context.Context, document *financial.FinancialDocument) error {
	model := models.DocumentModelFromDomain(document)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithStatements commits the document and its extracted statements
// in one transaction
func (r *GormDocumentRepository) SaveWithStatements(ctx context.Context, document *financial.FinancialDocument, statements []*financial.FinancialStatement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range statements {
			if err := tx.Save(models.StatementModelFromDomain(stmt)).Error; err != nil {
				return err
			}
		}
		return tx.Save(models.DocumentModelFromDomain(document)).Error
	})
}
