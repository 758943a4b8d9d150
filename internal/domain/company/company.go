package company

import (
	"regexp"

	"github.com/creditpm/backend/internal/domain/shared"
)

// DefaultCurrency is assigned to companies created without an explicit
// base currency. All statement amounts for a company are stored in its
// base currency.
const DefaultCurrency = "SEK"

var orgNumberPattern = regexp.MustCompile(`^\d{6}-?\d{4}$`)

// Company is the ownership root for all financial data. Statements,
// projections, documents and analyses cascade on delete.
type Company struct {
	shared.BaseEntity
	OrganizationNumber  string `json:"organization_number"`
	Name                string `json:"name"`
	IndustryCode        string `json:"industry_code"`
	BusinessDescription string `json:"business_description"`
	Currency            string `json:"currency"`
	Employees           *int   `json:"employees,omitempty"`
}

// NewCompany creates a new company
func NewCompany(orgNumber, name, industryCode string) (*Company, error) {
	if name == "" {
		return nil, shared.NewValidationError("name", "Company name cannot be empty")
	}
	if orgNumber == "" {
		return nil, shared.NewValidationError("organization_number", "Organization number cannot be empty")
	}
	if !orgNumberPattern.MatchString(orgNumber) {
		return nil, shared.NewValidationError("organization_number", "Organization number must be on the form NNNNNN-NNNN")
	}

	return &Company{
		BaseEntity:         shared.NewBaseEntity(),
		OrganizationNumber: orgNumber,
		Name:               name,
		IndustryCode:       industryCode,
		Currency:           DefaultCurrency,
	}, nil
}

// SetCurrency establishes the company's base currency. The currency is
// fixed once statements exist; callers enforce that through the
// normalizer's currency validation.
func (c *Company) SetCurrency(currency string) error {
	if len(currency) != 3 {
		return shared.NewValidationError("currency", "Currency must be a three-letter code")
	}
	c.Currency = currency
	c.Touch()
	return nil
}

// UpdateDetails updates the descriptive fields
func (c *Company) UpdateDetails(name, industryCode, businessDescription string) error {
	if name == "" {
		return shared.NewValidationError("name", "Company name cannot be empty")
	}
	c.Name = name
	c.IndustryCode = industryCode
	c.BusinessDescription = businessDescription
	c.Touch()
	return nil
}
