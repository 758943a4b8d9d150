package persistence

import (
	"context"
	"errors"

	"github.com/creditpm/backend/internal/domain/memo"
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/creditpm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCaseRepository implements memo.CaseRepository using GORM
type GormCaseRepository struct {
	db *gorm.DB
}

// NewGormCaseRepository creates a new GormCaseRepository
func NewGormCaseRepository(db *gorm.DB) *GormCaseRepository {
	return &GormCaseRepository{db: db}
}

// FindByID finds a case by its ID
func (r *GormCaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*memo.PMCase, error) {
	var model models.PMCaseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCompany returns all cases for a company, newest first
func (r *GormCaseRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]memo.PMCase, error) {
	var caseModels []models.PMCaseModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at desc").
		Find(&caseModels).Error; err != nil {
		return nil, err
	}

	cases := make([]memo.PMCase, len(caseModels))
	for i, model := range caseModels {
		cases[i] = *model.ToDomain()
	}
	return cases, nil
}

// Save creates or updates a case
func (r *GormCaseRepository) Save(ctx context.Context, pmCase *memo.PMCase) error {
	model := models.CaseModelFromDomain(pmCase)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a case. Sections and audit entries cascade at the
// database level.
func (r *GormCaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PMCaseModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormSectionRepository implements memo.SectionRepository using GORM
type GormSectionRepository struct {
	db *gorm.DB
}

// NewGormSectionRepository creates a new GormSectionRepository
func NewGormSectionRepository(db *gorm.DB) *GormSectionRepository {
	return &GormSectionRepository{db: db}
}

// FindByCaseAndType finds the section of a case by type.
// Returns nil without error when absent.
func (r *GormSectionRepository) FindByCaseAndType(ctx context.Context, caseID uuid.UUID, sectionType memo.SectionType) (*memo.PMSection, error) {
	var model models.PMSectionModel
	if err := r.db.WithContext(ctx).
		Where("case_id = ? AND section_type = ?", caseID, sectionType).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCase returns all sections of a case
func (r *GormSectionRepository) FindByCase(ctx context.Context, caseID uuid.UUID) ([]memo.PMSection, error) {
	var sectionModels []models.PMSectionModel
	if err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Find(&sectionModels).Error; err != nil {
		return nil, err
	}

	sections := make([]memo.PMSection, len(sectionModels))
	for i, model := range sectionModels {
		sections[i] = *model.ToDomain()
	}
	return sections, nil
}

// Save creates or updates a section
func (r *GormSectionRepository) Save(ctx context.Context, section *memo.PMSection) error {
	model := models.SectionModelFromDomain(section)
	return r.db.WithContext(ctx).Save(model).Error
}

// GormAuditLogRepository implements memo.AuditLogRepository using GORM.
// The log is append only; this type exposes no update or delete.
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append inserts a new audit entry
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *memo.AuditLogEntry) error {
	model := models.AuditLogModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByCase returns all audit entries for a case in write order
func (r *GormAuditLogRepository) FindByCase(ctx context.Context, caseID uuid.UUID) ([]memo.AuditLogEntry, error) {
	var entryModels []models.AuditLogEntryModel
	if err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at asc").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]memo.AuditLogEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// FindByCompany returns the company-scoped pipeline entries in write order
func (r *GormAuditLogRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]memo.AuditLogEntry, error) {
	var entryModels []models.AuditLogEntryModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at asc").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]memo.AuditLogEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// FindBySection returns the audit entries of one section in write order
func (r *GormAuditLogRepository) FindBySection(ctx context.Context, caseID uuid.UUID, sectionType memo.SectionType) ([]memo.AuditLogEntry, error) {
	var entryModels []models.AuditLogEntryModel
	if err := r.db.WithContext(ctx).
		Where("case_id = ? AND section_type = ?", caseID, sectionType).
		Order("created_at asc").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]memo.AuditLogEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}
