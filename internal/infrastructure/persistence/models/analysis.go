package models

import (
	"github.com/creditpm/backend/internal/domain/analysis"
	"github.com/google/uuid"
)

// FinancialAnalysisModel is the persistence model for the FinancialAnalysis entity.
// Versions are append only per company.
type FinancialAnalysisModel struct {
	BaseModel
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_analysis_company_version,priority:1"`
	CaseID    *uuid.UUID `gorm:"type:uuid;index"`
	Version   int        `gorm:"not null;uniqueIndex:idx_analysis_company_version,priority:2"`

	Summary         string                  `gorm:"type:text;not null"`
	KeyMetrics      analysis.KeyMetrics     `gorm:"type:jsonb;default:'{}'"`
	RiskAssessment  analysis.RiskAssessment `gorm:"type:jsonb;default:'{}'"`
	Strengths       analysis.StringList     `gorm:"type:jsonb;default:'[]'"`
	Weaknesses      analysis.StringList     `gorm:"type:jsonb;default:'[]'"`
	Recommendations analysis.StringList     `gorm:"type:jsonb;default:'[]'"`

	GenerationIncomplete bool   `gorm:"not null;default:false"`
	ModelVersion         string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (FinancialAnalysisModel) TableName() string {
	return "financial_analyses"
}

// ToDomain converts the persistence model to a domain FinancialAnalysis entity.
func (m *FinancialAnalysisModel) ToDomain() *analysis.FinancialAnalysis {
	return &analysis.FinancialAnalysis{
		BaseEntity: m.BaseModel.ToDomain(),
		CompanyID:  m.CompanyID,
		CaseID:     m.CaseID,
		Version:    m.Version,

		Summary:         m.Summary,
		KeyMetrics:      m.KeyMetrics,
		RiskAssessment:  m.RiskAssessment,
		Strengths:       m.Strengths,
		Weaknesses:      m.Weaknesses,
		Recommendations: m.Recommendations,

		GenerationIncomplete: m.GenerationIncomplete,
		ModelVersion:         m.ModelVersion,
	}
}

// FromDomain populates the persistence model from a domain FinancialAnalysis entity.
func (m *FinancialAnalysisModel) FromDomain(a *analysis.FinancialAnalysis) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.CompanyID = a.CompanyID
	m.CaseID = a.CaseID
	m.Version = a.Version

	m.Summary = a.Summary
	m.KeyMetrics = a.KeyMetrics
	m.RiskAssessment = a.RiskAssessment
	m.Strengths = a.Strengths
	m.Weaknesses = a.Weaknesses
	m.Recommendations = a.Recommendations

	m.GenerationIncomplete = a.GenerationIncomplete
	m.ModelVersion = a.ModelVersion
}

// AnalysisModelFromDomain creates a new persistence model from a domain FinancialAnalysis.
func AnalysisModelFromDomain(a *analysis.FinancialAnalysis) *FinancialAnalysisModel {
	m := &FinancialAnalysisModel{}
	m.FromDomain(a)
	return m
}
