package financial

import (
	"fmt"
	"math"
	"time"

	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// derivedTolerance is the relative tolerance applied when an explicitly
// supplied total disagrees with the sum of its parts. Disagreement beyond
// tolerance is flagged on the statement, never corrected.
var derivedTolerance = decimal.NewFromFloat(0.005)

// RawStatementRecord is a partial statement tagged with its source, as
// delivered by manual entry, the scraper, or the PDF extraction pipeline.
type RawStatementRecord struct {
	Source         StatementSource           `json:"source"`
	Year           int                       `json:"year"`
	PeriodStart    *time.Time                `json:"period_start,omitempty"`
	PeriodEnd      *time.Time                `json:"period_end,omitempty"`
	Currency       string                    `json:"currency,omitempty"`
	ConversionRate *decimal.Decimal          `json:"conversion_rate,omitempty"`
	IsConsolidated bool                      `json:"is_consolidated,omitempty"`
	Employees      *int                      `json:"employees,omitempty"`
	Fields         map[Field]decimal.Decimal `json:"fields"`
}

// FieldsFromFloats converts a raw field/value payload (e.g. from PDF
// extraction) into decimal fields, rejecting non-finite values and
// unknown field names.
func FieldsFromFloats(raw map[string]float64) (map[Field]decimal.Decimal, error) {
	fields := make(map[Field]decimal.Decimal, len(raw))
	for name, v := range raw {
		f := Field(name)
		if !f.IsValid() {
			return nil, shared.NewValidationError(name, "Unknown statement field")
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, shared.NewValidationError(name, "Field value must be finite")
		}
		fields[f] = decimal.NewFromFloat(v)
	}
	return fields, nil
}

// FieldOverwrite records a merge decision that replaced an existing field
// value. Overwrites are surfaced to the caller and audited, never dropped.
type FieldOverwrite struct {
	Field          Field           `json:"field"`
	PreviousValue  decimal.Decimal `json:"previous_value"`
	PreviousSource StatementSource `json:"previous_source"`
	NewValue       decimal.Decimal `json:"new_value"`
	NewSource      StatementSource `json:"new_source"`
}

// Normalizer canonicalizes raw statement records into the single
// per-company-per-year statement, filling derivable fields and resolving
// multi-source conflicts under explicit precedence.
type Normalizer struct{}

// NewNormalizer creates a new Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize turns a raw record into a canonical statement for the given
// company. baseCurrency is the company's established currency; a record
// in another currency must carry a conversion rate.
func (n *Normalizer) Normalize(companyID uuid.UUID, baseCurrency string, rec RawStatementRecord) (*FinancialStatement, error) {
	if err := n.validate(rec, baseCurrency); err != nil {
		return nil, err
	}

	stmt := &FinancialStatement{
		BaseEntity:     shared.NewBaseEntity(),
		CompanyID:      companyID,
		Year:           rec.Year,
		PeriodStart:    rec.PeriodStart,
		PeriodEnd:      rec.PeriodEnd,
		Currency:       baseCurrency,
		IsConsolidated: rec.IsConsolidated,
		Source:         rec.Source,
		Employees:      rec.Employees,
		FieldSources:   FieldSourceMap{},
	}

	rate := decimal.NewFromInt(1)
	if rec.Currency != "" && rec.Currency != baseCurrency {
		rate = *rec.ConversionRate
	}
	for f, v := range rec.Fields {
		stmt.Set(f, v.Mul(rate), rec.Source)
	}

	n.derive(stmt, rec.Source)
	return stmt, nil
}

// Merge applies a new record's canonical statement onto the existing
// canonical statement for the same (company, year). Field-level merge with
// source precedence manual > pdf_extracted > scraped; a re-submission from
// the same source replaces that source's prior contribution entirely.
// Returns the list of recorded overwrites.
func (n *Normalizer) Merge(existing, incoming *FinancialStatement) ([]FieldOverwrite, error) {
	if existing.Year != incoming.Year || existing.CompanyID != incoming.CompanyID {
		return nil, shared.NewValidationError("year", "Merge requires statements for the same company and year")
	}
	if existing.Currency != incoming.Currency {
		return nil, shared.NewValidationError("currency", "Merge requires statements in the same currency")
	}

	src := incoming.Source

	// Same-source resubmission: drop every field that source previously
	// contributed before applying the new record, so stale values from a
	// corrected upload do not linger.
	for _, f := range existing.SetFields() {
		if prev, ok := existing.SourceOf(f); ok && prev == src {
			existing.Unset(f)
		}
	}

	var overwrites []FieldOverwrite
	for _, f := range incoming.SetFields() {
		// Only merge what the incoming source itself supplied or derived.
		if inSrc, ok := incoming.SourceOf(f); !ok || inSrc != src {
			continue
		}
		newVal := *incoming.Get(f)
		prevVal := existing.Get(f)
		if prevVal == nil {
			existing.Set(f, newVal, src)
			continue
		}
		prevSrc, _ := existing.SourceOf(f)
		if prevSrc.Precedence() > src.Precedence() {
			// Higher-precedence value wins; the incoming value is dropped.
			continue
		}
		if !prevVal.Equal(newVal) {
			overwrites = append(overwrites, FieldOverwrite{
				Field:          f,
				PreviousValue:  *prevVal,
				PreviousSource: prevSrc,
				NewValue:       newVal,
				NewSource:      src,
			})
		}
		existing.Set(f, newVal, src)
	}

	if incoming.PeriodStart != nil && existing.PeriodStart == nil {
		existing.PeriodStart = incoming.PeriodStart
	}
	if incoming.PeriodEnd != nil && existing.PeriodEnd == nil {
		existing.PeriodEnd = incoming.PeriodEnd
	}
	if incoming.Employees != nil {
		existing.Employees = incoming.Employees
	}
	existing.Source = src
	existing.Inconsistencies = nil
	n.derive(existing, src)
	existing.Touch()

	return overwrites, nil
}

func (n *Normalizer) validate(rec RawStatementRecord, baseCurrency string) error {
	if !rec.Source.IsValid() {
		return shared.NewValidationError("source", "Unknown statement source")
	}
	if rec.Year == 0 {
		if rec.PeriodStart == nil && rec.PeriodEnd == nil {
			return shared.NewValidationError("year", "Record must carry a year or period bounds")
		}
		return shared.NewValidationError("year", "Record year is missing")
	}
	if rec.Year < 1900 || rec.Year > 2200 {
		return shared.NewValidationError("year", fmt.Sprintf("Year %d is out of range", rec.Year))
	}
	if rec.Currency != "" && rec.Currency != baseCurrency && rec.ConversionRate == nil {
		return shared.NewValidationError("currency",
			fmt.Sprintf("Record currency %s differs from company currency %s and no conversion rate was supplied", rec.Currency, baseCurrency))
	}
	if rec.ConversionRate != nil && rec.ConversionRate.Sign() <= 0 {
		return shared.NewValidationError("conversion_rate", "Conversion rate must be positive")
	}
	for f := range rec.Fields {
		if !f.IsValid() {
			return shared.NewValidationError(string(f), "Unknown statement field")
		}
	}
	return nil
}

// derivation expresses a total as a sum of parts. Totals are filled from
// parts, never the reverse; explicitly supplied totals are checked against
// the part sum and flagged when they disagree beyond tolerance.
type derivation struct {
	target Field
	parts  []Field
	signs  []int
}

var derivations = []derivation{
	{FieldGrossProfit, []Field{FieldRevenue, FieldCostOfGoodsSold}, []int{1, -1}},
	{FieldEBIT, []Field{FieldEBITDA, FieldDepreciation}, []int{1, -1}},
	{FieldNetCashFlow, []Field{FieldOperatingCashFlow, FieldInvestingCashFlow, FieldFinancingCashFlow}, []int{1, 1, 1}},
	{FieldTotalAssets, []Field{FieldCurrentAssets, FieldFixedAssets}, []int{1, 1}},
	{FieldTotalLiabilities, []Field{FieldCurrentLiabilities, FieldLongTermLiabilities}, []int{1, 1}},
}

func (n *Normalizer) derive(stmt *FinancialStatement, src StatementSource) {
	for _, d := range derivations {
		sum, ok := d.sum(stmt)
		if !ok {
			continue
		}
		existing := stmt.Get(d.target)
		if existing == nil {
			// Derivation never overwrites an explicitly supplied value.
			stmt.Set(d.target, sum, src)
			continue
		}
		if !withinTolerance(*existing, sum) {
			stmt.AddInconsistency(fmt.Sprintf(
				"%s %s disagrees with derived %s from %v", d.target, existing.String(), sum.String(), d.parts))
		}
	}
}

func (d derivation) sum(stmt *FinancialStatement) (decimal.Decimal, bool) {
	total := decimal.Zero
	for i, p := range d.parts {
		v := stmt.Get(p)
		if v == nil {
			return decimal.Zero, false
		}
		if d.signs[i] < 0 {
			total = total.Sub(*v)
		} else {
			total = total.Add(*v)
		}
	}
	return total, true
}

func withinTolerance(a, b decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	if diff.IsZero() {
		return true
	}
	scale := decimal.Max(a.Abs(), b.Abs())
	if scale.IsZero() {
		return false
	}
	return diff.Div(scale).LessThanOrEqual(derivedTolerance)
}
