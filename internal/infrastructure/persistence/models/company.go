package models

import (
	"github.com/creditpm/backend/internal/domain/company"
)

// CompanyModel is the persistence model for the Company entity.
type CompanyModel struct {
	BaseModel
	OrganizationNumber  string `gorm:"type:varchar(11);not null;uniqueIndex"`
	Name                string `gorm:"type:varchar(200);not null"`
	IndustryCode        string `gorm:"type:varchar(20)"`
	BusinessDescription string `gorm:"type:text"`
	Currency            string `gorm:"type:varchar(3);not null;default:'SEK'"`
	Employees           *int
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company entity.
func (m *CompanyModel) ToDomain() *company.Company {
	return &company.Company{
		BaseEntity:          m.BaseModel.ToDomain(),
		OrganizationNumber:  m.OrganizationNumber,
		Name:                m.Name,
		IndustryCode:        m.IndustryCode,
		BusinessDescription: m.BusinessDescription,
		Currency:            m.Currency,
		Employees:           m.Employees,
	}
}

// FromDomain populates the persistence model from a domain Company entity.
func (m *CompanyModel) FromDomain(c *company.Company) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.OrganizationNumber = c.OrganizationNumber
	m.Name = c.Name
	m.IndustryCode = c.IndustryCode
	m.BusinessDescription = c.BusinessDescription
	m.Currency = c.Currency
	m.Employees = c.Employees
}

// CompanyModelFromDomain creates a new persistence model from a domain Company.
func CompanyModelFromDomain(c *company.Company) *CompanyModel {
	m := &CompanyModel{}
	m.FromDomain(c)
	return m
}
