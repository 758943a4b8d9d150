package financial

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Ratio is a single computed ratio. A zero, missing, or invalid
// denominator yields the explicit undefined marker, never a zero value
// and never an error.
type Ratio struct {
	Value   decimal.Decimal
	Defined bool
}

// DefinedRatio creates a defined ratio
func DefinedRatio(v decimal.Decimal) Ratio {
	return Ratio{Value: v, Defined: true}
}

// UndefinedRatio is the explicit marker for an uncomputable ratio
func UndefinedRatio() Ratio {
	return Ratio{}
}

// MarshalJSON renders undefined ratios as null
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts null as the undefined marker
func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Ratio{}
		return nil
	}
	if err := json.Unmarshal(b, &r.Value); err != nil {
		return err
	}
	r.Defined = true
	return nil
}

// RatioSet holds the per-year ratios for one statement
type RatioSet struct {
	Year           int   `json:"year"`
	GrossMargin    Ratio `json:"gross_margin"`
	EBITDAMargin   Ratio `json:"ebitda_margin"`
	NetMargin      Ratio `json:"net_margin"`
	CurrentRatio   Ratio `json:"current_ratio"`
	EquityRatio    Ratio `json:"equity_ratio"`
	DebtToEquity   Ratio `json:"debt_to_equity"`
	ReturnOnAssets Ratio `json:"roa"`
	ReturnOnEquity Ratio `json:"roe"`
	RevenueGrowth  Ratio `json:"revenue_growth"`
}

// TrendStats summarizes growth behaviour across a statement history.
// GeometricGrowth is computed only over consecutive years with non-null
// revenue; a single usable year yields the insufficient-history marker
// instead of a fabricated rate.
type TrendStats struct {
	GeometricGrowth     Ratio `json:"geometric_growth"`
	GrowthVolatility    Ratio `json:"growth_volatility"`
	UsableYears         int   `json:"usable_years"`
	InsufficientHistory bool  `json:"insufficient_history"`
}

// CalculateRatios computes per-year ratio sets over an ordered-by-year
// statement history. Pure: no persistence, no side effects.
func CalculateRatios(history []FinancialStatement) []RatioSet {
	sorted := sortedByYear(history)
	out := make([]RatioSet, 0, len(sorted))
	for i, stmt := range sorted {
		rs := RatioSet{Year: stmt.Year}
		rs.GrossMargin = safeDiv(stmt.GrossProfit, positiveOnly(stmt.Revenue))
		rs.EBITDAMargin = safeDiv(stmt.EBITDA, positiveOnly(stmt.Revenue))
		rs.NetMargin = safeDiv(stmt.NetProfit, positiveOnly(stmt.Revenue))
		rs.CurrentRatio = safeDiv(stmt.CurrentAssets, positiveOnly(stmt.CurrentLiabilities))
		rs.EquityRatio = safeDiv(stmt.Equity, positiveOnly(stmt.TotalAssets))
		rs.DebtToEquity = safeDiv(stmt.TotalLiabilities, positiveOnly(stmt.Equity))
		rs.ReturnOnAssets = safeDiv(stmt.NetProfit, positiveOnly(stmt.TotalAssets))
		rs.ReturnOnEquity = safeDiv(stmt.NetProfit, positiveOnly(stmt.Equity))

		if i > 0 && sorted[i-1].Year == stmt.Year-1 {
			prev := sorted[i-1]
			if stmt.Revenue != nil && prev.Revenue != nil && prev.Revenue.Sign() > 0 {
				growth := stmt.Revenue.Sub(*prev.Revenue).Div(*prev.Revenue)
				rs.RevenueGrowth = DefinedRatio(growth)
			}
		}
		out = append(out, rs)
	}
	return out
}

// CalculateTrend computes trend statistics over the longest run of
// consecutive years, ending at the latest statement, whose revenue is
// non-null and positive.
func CalculateTrend(history []FinancialStatement) TrendStats {
	factors := growthFactors(history)
	if len(factors) == 0 {
		return TrendStats{
			GeometricGrowth:     UndefinedRatio(),
			GrowthVolatility:    UndefinedRatio(),
			UsableYears:         usableYears(history),
			InsufficientHistory: true,
		}
	}

	// Geometric mean of growth factors, expressed as a rate.
	product := 1.0
	for _, f := range factors {
		product *= f
	}
	mean := math.Pow(product, 1.0/float64(len(factors)))
	stats := TrendStats{
		GeometricGrowth: DefinedRatio(roundedFromFloat(mean - 1.0)),
		UsableYears:     len(factors) + 1,
	}

	if len(factors) >= 2 {
		rates := make([]float64, len(factors))
		var sum float64
		for i, f := range factors {
			rates[i] = f - 1.0
			sum += rates[i]
		}
		avg := sum / float64(len(rates))
		var variance float64
		for _, r := range rates {
			variance += (r - avg) * (r - avg)
		}
		variance /= float64(len(rates))
		stats.GrowthVolatility = DefinedRatio(roundedFromFloat(math.Sqrt(variance)))
	} else {
		stats.GrowthVolatility = UndefinedRatio()
	}
	return stats
}

// growthFactors returns year-over-year revenue growth factors for pairs of
// numerically consecutive years with positive revenue, taken from the
// latest such run in the history.
func growthFactors(history []FinancialStatement) []float64 {
	sorted := sortedByYear(history)
	var factors []float64
	for i := len(sorted) - 1; i > 0; i-- {
		cur, prev := sorted[i], sorted[i-1]
		if prev.Year != cur.Year-1 ||
			cur.Revenue == nil || prev.Revenue == nil ||
			cur.Revenue.Sign() <= 0 || prev.Revenue.Sign() <= 0 {
			if len(factors) > 0 {
				break
			}
			continue
		}
		f, _ := cur.Revenue.Div(*prev.Revenue).Float64()
		factors = append([]float64{f}, factors...)
	}
	return factors
}

func usableYears(history []FinancialStatement) int {
	n := 0
	for _, s := range history {
		if s.Revenue != nil && s.Revenue.Sign() > 0 {
			n++
		}
	}
	return n
}

func sortedByYear(history []FinancialStatement) []FinancialStatement {
	sorted := make([]FinancialStatement, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })
	return sorted
}

// safeDiv divides num by den, yielding the undefined marker when either
// side is absent or the denominator is invalid.
func safeDiv(num, den *decimal.Decimal) Ratio {
	if num == nil || den == nil || den.IsZero() {
		return UndefinedRatio()
	}
	return DefinedRatio(num.Div(*den).Round(6))
}

// positiveOnly treats zero or negative denominators (e.g. negative equity
// for ROE) as invalid.
func positiveOnly(v *decimal.Decimal) *decimal.Decimal {
	if v == nil || v.Sign() <= 0 {
		return nil
	}
	return v
}

// roundedFromFloat fixes float-derived rates at six decimal places so that
// identical inputs always produce identical stored values.
func roundedFromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(6)
}
