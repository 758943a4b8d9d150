package financial

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field names the canonical statement line items. Raw records from any
// source address fields by these names.
type Field string

const (
	// Income statement
	FieldRevenue           Field = "revenue"
	FieldCostOfGoodsSold   Field = "cost_of_goods_sold"
	FieldGrossProfit       Field = "gross_profit"
	FieldOperatingExpenses Field = "operating_expenses"
	FieldEBITDA            Field = "ebitda"
	FieldDepreciation      Field = "depreciation"
	FieldEBIT              Field = "ebit"
	FieldFinancialIncome   Field = "financial_income"
	FieldFinancialExpenses Field = "financial_expenses"
	FieldProfitBeforeTax   Field = "profit_before_tax"
	FieldTaxExpense        Field = "tax_expense"
	FieldNetProfit         Field = "net_profit"

	// Balance sheet
	FieldCurrentAssets       Field = "current_assets"
	FieldFixedAssets         Field = "fixed_assets"
	FieldTotalAssets         Field = "total_assets"
	FieldCurrentLiabilities  Field = "current_liabilities"
	FieldLongTermLiabilities Field = "long_term_liabilities"
	FieldTotalLiabilities    Field = "total_liabilities"
	FieldEquity              Field = "equity"

	// Cash flow
	FieldOperatingCashFlow Field = "operating_cash_flow"
	FieldInvestingCashFlow Field = "investing_cash_flow"
	FieldFinancingCashFlow Field = "financing_cash_flow"
	FieldNetCashFlow       Field = "net_cash_flow"
	FieldCashBeginning     Field = "cash_beginning"
	FieldCashEnding        Field = "cash_ending"
)

// AllFields returns every canonical field in statement order
func AllFields() []Field {
	return []Field{
		FieldRevenue, FieldCostOfGoodsSold, FieldGrossProfit, FieldOperatingExpenses,
		FieldEBITDA, FieldDepreciation, FieldEBIT, FieldFinancialIncome,
		FieldFinancialExpenses, FieldProfitBeforeTax, FieldTaxExpense, FieldNetProfit,
		FieldCurrentAssets, FieldFixedAssets, FieldTotalAssets, FieldCurrentLiabilities,
		FieldLongTermLiabilities, FieldTotalLiabilities, FieldEquity,
		FieldOperatingCashFlow, FieldInvestingCashFlow, FieldFinancingCashFlow,
		FieldNetCashFlow, FieldCashBeginning, FieldCashEnding,
	}
}

// IsValid checks if the field is a canonical field name
func (f Field) IsValid() bool {
	_, ok := fieldAccessors[f]
	return ok
}

// FieldSourceMap records which source last contributed each field value.
// Stored as JSONB alongside the statement.
type FieldSourceMap map[Field]StatementSource

// Value implements driver.Valuer for JSONB storage
func (m FieldSourceMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB retrieval
func (m *FieldSourceMap) Scan(value interface{}) error {
	if value == nil {
		*m = FieldSourceMap{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into FieldSourceMap", value)
	}
	return json.Unmarshal(b, m)
}

// StringList is a JSONB-persisted string slice
type StringList []string

// Value implements driver.Valuer for JSONB storage
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB retrieval
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	return json.Unmarshal(b, l)
}

// FinancialStatement is the canonical reconciled statement for one
// company-year. At most one exists per (company, year); conflicting
// submissions are merged by the Normalizer under source precedence.
type FinancialStatement struct {
	shared.BaseEntity
	CompanyID   uuid.UUID  `json:"company_id"`
	Year        int        `json:"year"`
	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`

	Revenue           *decimal.Decimal `json:"revenue,omitempty"`
	CostOfGoodsSold   *decimal.Decimal `json:"cost_of_goods_sold,omitempty"`
	GrossProfit       *decimal.Decimal `json:"gross_profit,omitempty"`
	OperatingExpenses *decimal.Decimal `json:"operating_expenses,omitempty"`
	EBITDA            *decimal.Decimal `json:"ebitda,omitempty"`
	Depreciation      *decimal.Decimal `json:"depreciation,omitempty"`
	EBIT              *decimal.Decimal `json:"ebit,omitempty"`
	FinancialIncome   *decimal.Decimal `json:"financial_income,omitempty"`
	FinancialExpenses *decimal.Decimal `json:"financial_expenses,omitempty"`
	ProfitBeforeTax   *decimal.Decimal `json:"profit_before_tax,omitempty"`
	TaxExpense        *decimal.Decimal `json:"tax_expense,omitempty"`
	NetProfit         *decimal.Decimal `json:"net_profit,omitempty"`

	CurrentAssets       *decimal.Decimal `json:"current_assets,omitempty"`
	FixedAssets         *decimal.Decimal `json:"fixed_assets,omitempty"`
	TotalAssets         *decimal.Decimal `json:"total_assets,omitempty"`
	CurrentLiabilities  *decimal.Decimal `json:"current_liabilities,omitempty"`
	LongTermLiabilities *decimal.Decimal `json:"long_term_liabilities,omitempty"`
	TotalLiabilities    *decimal.Decimal `json:"total_liabilities,omitempty"`
	Equity              *decimal.Decimal `json:"equity,omitempty"`

	OperatingCashFlow *decimal.Decimal `json:"operating_cash_flow,omitempty"`
	InvestingCashFlow *decimal.Decimal `json:"investing_cash_flow,omitempty"`
	FinancingCashFlow *decimal.Decimal `json:"financing_cash_flow,omitempty"`
	NetCashFlow       *decimal.Decimal `json:"net_cash_flow,omitempty"`
	CashBeginning     *decimal.Decimal `json:"cash_beginning,omitempty"`
	CashEnding        *decimal.Decimal `json:"cash_ending,omitempty"`

	Employees       *int            `json:"employees,omitempty"`
	Currency        string          `json:"currency"`
	IsConsolidated  bool            `json:"is_consolidated"`
	Source          StatementSource `json:"source"`
	FieldSources    FieldSourceMap  `json:"field_sources"`
	Inconsistencies StringList      `json:"inconsistencies,omitempty"`
}

type fieldAccessor struct {
	get func(*FinancialStatement) *decimal.Decimal
	set func(*FinancialStatement, *decimal.Decimal)
}

var fieldAccessors = map[Field]fieldAccessor{
	FieldRevenue:             {func(s *FinancialStatement) *decimal.Decimal { return s.Revenue }, func(s *FinancialStatement, v *decimal.Decimal) { s.Revenue = v }},
	FieldCostOfGoodsSold:     {func(s *FinancialStatement) *decimal.Decimal { return s.CostOfGoodsSold }, func(s *FinancialStatement, v *decimal.Decimal) { s.CostOfGoodsSold = v }},
	FieldGrossProfit:         {func(s *FinancialStatement) *decimal.Decimal { return s.GrossProfit }, func(s *FinancialStatement, v *decimal.Decimal) { s.GrossProfit = v }},
	FieldOperatingExpenses:   {func(s *FinancialStatement) *decimal.Decimal { return s.OperatingExpenses }, func(s *FinancialStatement, v *decimal.Decimal) { s.OperatingExpenses = v }},
	FieldEBITDA:              {func(s *FinancialStatement) *decimal.Decimal { return s.EBITDA }, func(s *FinancialStatement, v *decimal.Decimal) { s.EBITDA = v }},
	FieldDepreciation:        {func(s *FinancialStatement) *decimal.Decimal { return s.Depreciation }, func(s *FinancialStatement, v *decimal.Decimal) { s.Depreciation = v }},
	FieldEBIT:                {func(s *FinancialStatement) *decimal.Decimal { return s.EBIT }, func(s *FinancialStatement, v *decimal.Decimal) { s.EBIT = v }},
	FieldFinancialIncome:     {func(s *FinancialStatement) *decimal.Decimal { return s.FinancialIncome }, func(s *FinancialStatement, v *decimal.Decimal) { s.FinancialIncome = v }},
	FieldFinancialExpenses:   {func(s *FinancialStatement) *decimal.Decimal { return s.FinancialExpenses }, func(s *FinancialStatement, v *decimal.Decimal) { s.FinancialExpenses = v }},
	FieldProfitBeforeTax:     {func(s *FinancialStatement) *decimal.Decimal { return s.ProfitBeforeTax }, func(s *FinancialStatement, v *decimal.Decimal) { s.ProfitBeforeTax = v }},
	FieldTaxExpense:          {func(s *FinancialStatement) *decimal.Decimal { return s.TaxExpense }, func(s *FinancialStatement, v *decimal.Decimal) { s.TaxExpense = v }},
	FieldNetProfit:           {func(s *FinancialStatement) *decimal.Decimal { return s.NetProfit }, func(s *FinancialStatement, v *decimal.Decimal) { s.NetProfit = v }},
	FieldCurrentAssets:       {func(s *FinancialStatement) *decimal.Decimal { return s.CurrentAssets }, func(s *FinancialStatement, v *decimal.Decimal) { s.CurrentAssets = v }},
	FieldFixedAssets:         {func(s *FinancialStatement) *decimal.Decimal { return s.FixedAssets }, func(s *FinancialStatement, v *decimal.Decimal) { s.FixedAssets = v }},
	FieldTotalAssets:         {func(s *FinancialStatement) *decimal.Decimal { return s.TotalAssets }, func(s *FinancialStatement, v *decimal.Decimal) { s.TotalAssets = v }},
	FieldCurrentLiabilities:  {func(s *FinancialStatement) *decimal.Decimal { return s.CurrentLiabilities }, func(s *FinancialStatement, v *decimal.Decimal) { s.CurrentLiabilities = v }},
	FieldLongTermLiabilities: {func(s *FinancialStatement) *decimal.Decimal { return s.LongTermLiabilities }, func(s *FinancialStatement, v *decimal.Decimal) { s.LongTermLiabilities = v }},
	FieldTotalLiabilities:    {func(s *FinancialStatement) *decimal.Decimal { return s.TotalLiabilities }, func(s *FinancialStatement, v *decimal.Decimal) { s.TotalLiabilities = v }},
	FieldEquity:              {func(s *FinancialStatement) *decimal.Decimal { return s.Equity }, func(s *FinancialStatement, v *decimal.Decimal) { s.Equity = v }},
	FieldOperatingCashFlow:   {func(s *FinancialStatement) *decimal.Decimal { return s.OperatingCashFlow }, func(s *FinancialStatement, v *decimal.Decimal) { s.OperatingCashFlow = v }},
	FieldInvestingCashFlow:   {func(s *FinancialStatement) *decimal.Decimal { return s.InvestingCashFlow }, func(s *FinancialStatement, v *decimal.Decimal) { s.InvestingCashFlow = v }},
	FieldFinancingCashFlow:   {func(s *FinancialStatement) *decimal.Decimal { return s.FinancingCashFlow }, func(s *FinancialStatement, v *decimal.Decimal) { s.FinancingCashFlow = v }},
	FieldNetCashFlow:         {func(s *FinancialStatement) *decimal.Decimal { return s.NetCashFlow }, func(s *FinancialStatement, v *decimal.Decimal) { s.NetCashFlow = v }},
	FieldCashBeginning:       {func(s *FinancialStatement) *decimal.Decimal { return s.CashBeginning }, func(s *FinancialStatement, v *decimal.Decimal) { s.CashBeginning = v }},
	FieldCashEnding:          {func(s *FinancialStatement) *decimal.Decimal { return s.CashEnding }, func(s *FinancialStatement, v *decimal.Decimal) { s.CashEnding = v }},
}

// Get returns the value of the named field, or nil if absent
func (s *FinancialStatement) Get(f Field) *decimal.Decimal {
	acc, ok := fieldAccessors[f]
	if !ok {
		return nil
	}
	return acc.get(s)
}

// Has reports whether the named field holds a value
func (s *FinancialStatement) Has(f Field) bool {
	return s.Get(f) != nil
}

// Set stores a field value and records its contributing source
func (s *FinancialStatement) Set(f Field, v decimal.Decimal, src StatementSource) {
	acc, ok := fieldAccessors[f]
	if !ok {
		return
	}
	val := v
	acc.set(s, &val)
	if s.FieldSources == nil {
		s.FieldSources = FieldSourceMap{}
	}
	s.FieldSources[f] = src
}

// Unset clears a field value and its source record
func (s *FinancialStatement) Unset(f Field) {
	acc, ok := fieldAccessors[f]
	if !ok {
		return
	}
	acc.set(s, nil)
	delete(s.FieldSources, f)
}

// SourceOf returns the source that contributed the named field
func (s *FinancialStatement) SourceOf(f Field) (StatementSource, bool) {
	src, ok := s.FieldSources[f]
	return src, ok
}

// SetFields returns the fields currently holding a value, in canonical order
func (s *FinancialStatement) SetFields() []Field {
	var out []Field
	for _, f := range AllFields() {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// AddInconsistency flags a supplied value that disagrees with its
// derivable counterpart beyond tolerance. Flagged, never corrected.
func (s *FinancialStatement) AddInconsistency(msg string) {
	s.Inconsistencies = append(s.Inconsistencies, msg)
}
