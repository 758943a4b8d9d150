package persistence

import (
	"context"
	"errors"

	"github.com/creditpm/backend/internal/domain/analysis"
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/creditpm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAnalysisRepository implements analysis.Repository using GORM
type GormAnalysisRepository struct {
	db *gorm.DB
}

// NewGormAnalysisRepository creates a new GormAnalysisRepository
func NewGormAnalysisRepository(db *gorm.DB) *GormAnalysisRepository {
	return &GormAnalysisRepository{db: db}
}

// FindByID finds an analysis by its ID
func (r *GormAnalysisRepository) FindByID(ctx context.Context, id uuid.UUID) (*analysis.FinancialAnalysis, error) {
	var model models.FinancialAnalysisModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLatestByCompany returns the highest-version analysis for a company.
// Returns nil without error when none exists.
func (r *GormAnalysisRepository) FindLatestByCompany(ctx context.Context, companyID uuid.UUID) (*analysis.FinancialAnalysis, error) {
	var model models.FinancialAnalysisModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("version desc").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCompany returns all analysis versions for a company, newest first
func (r *GormAnalysisRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]analysis.FinancialAnalysis, error) {
	var analysisModels []models.FinancialAnalysisModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("version desc").
		Find(&analysisModels).Error; err != nil {
		return nil, err
	}

	analyses := make([]analysis.FinancialAnalysis, len(analysisModels))
	for i, model := range analysisModels {
		analyses[i] = *model.ToDomain()
	}
	return analyses, nil
}

// NextVersion returns the version the next analysis for the company
// should carry, starting at 1
func (r *GormAnalysisRepository) NextVersion(ctx context.Context, companyID uuid.UUID) (int, error) {
	var maxVersion int
	err := r.db.WithContext(ctx).
		Model(&models.FinancialAnalysisModel{}).
		Where("company_id = ?", companyID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error
	if err != nil {
		return 0, err
	}
	return maxVersion + 1, nil
}

// Save creates or updates an analysis
func (r *GormAnalysisRepository) Save(ctx context.Context, a *analysis.FinancialAnalysis) error {
	model := models.AnalysisModelFromDomain(a)
	return r.db.WithContext(ctx).Save(model).Error
}
