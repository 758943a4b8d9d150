package models

import (
	"time"

	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinancialStatementModel is the persistence model for the FinancialStatement entity.
// One row per (company, year); merged submissions update the row in place.
type FinancialStatementModel struct {
	BaseModel
	CompanyID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_statement_company_year,priority:1"`
	Year        int        `gorm:"not null;uniqueIndex:idx_statement_company_year,priority:2"`
	PeriodStart *time.Time
	PeriodEnd   *time.Time

	Revenue           *decimal.Decimal `gorm:"type:decimal(18,4)"`
	CostOfGoodsSold   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	GrossProfit       *decimal.Decimal `gorm:"type:decimal(18,4)"`
	OperatingExpenses *decimal.Decimal `gorm:"type:decimal(18,4)"`
	EBITDA            *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Depreciation      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	EBIT              *decimal.Decimal `gorm:"type:decimal(18,4)"`
	FinancialIncome   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	FinancialExpenses *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ProfitBeforeTax   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	TaxExpense        *decimal.Decimal `gorm:"type:decimal(18,4)"`
	NetProfit         *decimal.Decimal `gorm:"type:decimal(18,4)"`

	CurrentAssets       *decimal.Decimal `gorm:"type:decimal(18,4)"`
	FixedAssets         *decimal.Decimal `gorm:"type:decimal(18,4)"`
	TotalAssets         *decimal.Decimal `gorm:"type:decimal(18,4)"`
	CurrentLiabilities  *decimal.Decimal `gorm:"type:decimal(18,4)"`
	LongTermLiabilities *decimal.Decimal `gorm:"type:decimal(18,4)"`
	TotalLiabilities    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Equity              *decimal.Decimal `gorm:"type:decimal(18,4)"`

	OperatingCashFlow *decimal.Decimal `gorm:"type:decimal(18,4)"`
	InvestingCashFlow *decimal.Decimal `gorm:"type:decimal(18,4)"`
	FinancingCashFlow *decimal.Decimal `gorm:"type:decimal(18,4)"`
	NetCashFlow       *decimal.Decimal `gorm:"type:decimal(18,4)"`
	CashBeginning     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	CashEnding        *decimal.Decimal `gorm:"type:decimal(18,4)"`

	Employees       *int
	Currency        string                    `gorm:"type:varchar(3);not null;default:'SEK'"`
	IsConsolidated  bool                      `gorm:"not null;default:false"`
	Source          financial.StatementSource `gorm:"type:varchar(20);not null"`
	FieldSources    financial.FieldSourceMap  `gorm:"type:jsonb;default:'{}'"`
	Inconsistencies financial.StringList      `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (FinancialStatementModel) TableName() string {
	return "financial_statements"
}

// ToDomain converts the persistence model to a domain FinancialStatement entity.
func (m *FinancialStatementModel) ToDomain() *financial.FinancialStatement {
	return &financial.FinancialStatement{
		BaseEntity:  m.BaseModel.ToDomain(),
		CompanyID:   m.CompanyID,
		Year:        m.Year,
		PeriodStart: m.PeriodStart,
		PeriodEnd:   m.PeriodEnd,

		Revenue:           m.Revenue,
		CostOfGoodsSold:   m.CostOfGoodsSold,
		GrossProfit:       m.GrossProfit,
		OperatingExpenses: m.OperatingExpenses,
		EBITDA:            m.EBITDA,
		Depreciation:      m.Depreciation,
		EBIT:              m.EBIT,
		FinancialIncome:   m.FinancialIncome,
		FinancialExpenses: m.FinancialExpenses,
		ProfitBeforeTax:   m.ProfitBeforeTax,
		TaxExpense:        m.TaxExpense,
		NetProfit:         m.NetProfit,

		CurrentAssets:       m.CurrentAssets,
		FixedAssets:         m.FixedAssets,
		TotalAssets:         m.TotalAssets,
		CurrentLiabilities:  m.CurrentLiabilities,
		LongTermLiabilities: m.LongTermLiabilities,
		TotalLiabilities:    m.TotalLiabilities,
		Equity:              m.Equity,

		OperatingCashFlow: m.OperatingCashFlow,
		InvestingCashFlow: m.InvestingCashFlow,
		FinancingCashFlow: m.FinancingCashFlow,
		NetCashFlow:       m.NetCashFlow,
		CashBeginning:     m.CashBeginning,
		CashEnding:        m.CashEnding,

		Employees:       m.Employees,
		Currency:        m.Currency,
		IsConsolidated:  m.IsConsolidated,
		Source:          m.Source,
		FieldSources:    m.FieldSources,
		Inconsistencies: m.Inconsistencies,
	}
}

// FromDomain populates the persistence model from a domain FinancialStatement entity.
func (m *FinancialStatementModel) FromDomain(s *financial.FinancialStatement) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.CompanyID = s.CompanyID
	m.Year = s.Year
	m.PeriodStart = s.PeriodStart
	m.PeriodEnd = s.PeriodEnd

	m.Revenue = s.Revenue
	m.CostOfGoodsSold = s.CostOfGoodsSold
	m.GrossProfit = s.GrossProfit
	m.OperatingExpenses = s.OperatingExpenses
	m.EBITDA = s.EBITDA
	m.Depreciation = s.Depreciation
	m.EBIT = s.EBIT
	m.FinancialIncome = s.FinancialIncome
	m.FinancialExpenses = s.FinancialExpenses
	m.ProfitBeforeTax = s.ProfitBeforeTax
	m.TaxExpense = s.TaxExpense
	m.NetProfit = s.NetProfit

	m.CurrentAssets = s.CurrentAssets
	m.FixedAssets = s.FixedAssets
	m.TotalAssets = s.TotalAssets
	m.CurrentLiabilities = s.CurrentLiabilities
	m.LongTermLiabilities = s.LongTermLiabilities
	m.TotalLiabilities = s.TotalLiabilities
	m.Equity = s.Equity

	m.OperatingCashFlow = s.OperatingCashFlow
	m.InvestingCashFlow = s.InvestingCashFlow
	m.FinancingCashFlow = s.FinancingCashFlow
	m.NetCashFlow = s.NetCashFlow
	m.CashBeginning = s.CashBeginning
	m.CashEnding = s.CashEnding

	m.Employees = s.Employees
	m.Currency = s.Currency
	m.IsConsolidated = s.IsConsolidated
	m.Source = s.Source
	m.FieldSources = s.FieldSources
	m.Inconsistencies = s.Inconsistencies
}

// StatementModelFromDomain creates a new persistence model from a domain FinancialStatement.
func StatementModelFromDomain(s *financial.FinancialStatement) *FinancialStatementModel {
	m := &FinancialStatementModel{}
	m.FromDomain(s)
	return m
}

// FinancialProjectionModel is the persistence model for the FinancialProjection entity.
// Projection runs replace a company's rows as a whole.
type FinancialProjectionModel struct {
	BaseModel
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_projection_company_year,priority:1"`
	Year      int       `gorm:"not null;uniqueIndex:idx_projection_company_year,priority:2"`

	ProjectedRevenue           *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ProjectedEBITDA            *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ProjectedNetProfit         *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ProjectedTotalAssets       *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ProjectedEquity            *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ProjectedOperatingCashFlow *decimal.Decimal `gorm:"type:decimal(18,4)"`

	RevenueGrowth   decimal.Decimal           `gorm:"type:decimal(12,6);not null"`
	ConfidenceLevel financial.ConfidenceLevel `gorm:"type:varchar(10);not null"`
	Methodology     financial.Methodology     `gorm:"type:varchar(30);not null"`
	Assumptions     financial.Assumptions     `gorm:"type:jsonb;default:'{}'"`
}

// TableName returns the table name for GORM
func (FinancialProjectionModel) TableName() string {
	return "financial_projections"
}

// ToDomain converts the persistence model to a domain FinancialProjection entity.
func (m *FinancialProjectionModel) ToDomain() *financial.FinancialProjection {
	return &financial.FinancialProjection{
		BaseEntity: m.BaseModel.ToDomain(),
		CompanyID:  m.CompanyID,
		Year:       m.Year,

		ProjectedRevenue:           m.ProjectedRevenue,
		ProjectedEBITDA:            m.ProjectedEBITDA,
		ProjectedNetProfit:         m.ProjectedNetProfit,
		ProjectedTotalAssets:       m.ProjectedTotalAssets,
		ProjectedEquity:            m.ProjectedEquity,
		ProjectedOperatingCashFlow: m.ProjectedOperatingCashFlow,

		RevenueGrowth:   m.RevenueGrowth,
		ConfidenceLevel: m.ConfidenceLevel,
		Methodology:     m.Methodology,
		Assumptions:     m.Assumptions,
	}
}

// FromDomain populates the persistence model from a domain FinancialProjection entity.
func (m *FinancialProjectionModel) FromDomain(p *financial.FinancialProjection) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.CompanyID = p.CompanyID
	m.Year = p.Year

	m.ProjectedRevenue = p.ProjectedRevenue
	m.ProjectedEBITDA = p.ProjectedEBITDA
	m.ProjectedNetProfit = p.ProjectedNetProfit
	m.ProjectedTotalAssets = p.ProjectedTotalAssets
	m.ProjectedEquity = p.ProjectedEquity
	m.ProjectedOperatingCashFlow = p.ProjectedOperatingCashFlow

	m.RevenueGrowth = p.RevenueGrowth
	m.ConfidenceLevel = p.ConfidenceLevel
	m.Methodology = p.Methodology
	m.Assumptions = p.Assumptions
}

// ProjectionModelFromDomain creates a new persistence model from a domain FinancialProjection.
func ProjectionModelFromDomain(p *financial.FinancialProjection) *FinancialProjectionModel {
	m := &FinancialProjectionModel{}
	m.FromDomain(p)
	return m
}

// FinancialDocumentModel is the persistence model for the FinancialDocument entity.
type FinancialDocumentModel struct {
	BaseModel
	CompanyID      uuid.UUID                 `gorm:"type:uuid;not null;index"`
	FileName       string                    `gorm:"type:varchar(255);not null"`
	ContentType    string                    `gorm:"type:varchar(100)"`
	SizeBytes      int64                     `gorm:"not null"`
	Status         financial.DocumentStatus  `gorm:"type:varchar(20);not null;default:'pending';index"`
	ErrorMessage   *string                   `gorm:"type:text"`
	RawPayload     financial.DocumentPayload `gorm:"type:jsonb;not null;default:'[]'"`
	ExtractedYears IntList                   `gorm:"type:jsonb;default:'[]'"`
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// TableName returns the table name for GORM
func (FinancialDocumentModel) TableName() string {
	return "financial_documents"
}

// ToDomain converts the persistence model to a domain FinancialDocument entity.
func (m *FinancialDocumentModel) ToDomain() *financial.FinancialDocument {
	return &financial.FinancialDocument{
		BaseEntity:     m.BaseModel.ToDomain(),
		CompanyID:      m.CompanyID,
		FileName:       m.FileName,
		ContentType:    m.ContentType,
		SizeBytes:      m.SizeBytes,
		Status:         m.Status,
		ErrorMessage:   m.ErrorMessage,
		RawPayload:     m.RawPayload,
		ExtractedYears: m.ExtractedYears,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain FinancialDocument entity.
func (m *FinancialDocumentModel) FromDomain(d *financial.FinancialDocument) {
	m.FromDomainBaseEntity(d.BaseEntity)
	m.CompanyID = d.CompanyID
	m.FileName = d.FileName
	m.ContentType = d.ContentType
	m.SizeBytes = d.SizeBytes
	m.Status = d.Status
	m.ErrorMessage = d.ErrorMessage
	m.RawPayload = d.RawPayload
	m.ExtractedYears = d.ExtractedYears
	m.StartedAt = d.StartedAt
	m.CompletedAt = d.CompletedAt
}

// DocumentModelFromDomain creates a new persistence model from a domain FinancialDocument.
func DocumentModelFromDomain(d *financial.FinancialDocument) *FinancialDocumentModel {
	m := &FinancialDocumentModel{}
	m.FromDomain(d)
	return m
}
