package financial

import (
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EngineConfig holds the configured fallbacks of the projection engine.
// All values are explicit so two engines with the same config produce
// bit-identical output for identical input.
type EngineConfig struct {
	// DefaultGrowthRate is applied flat when fewer than two historical
	// years exist.
	DefaultGrowthRate decimal.Decimal
	// OCFFallbackFraction of projected EBITDA is used as operating cash
	// flow when no historical OCF/EBITDA ratio is derivable.
	OCFFallbackFraction decimal.Decimal
	// HighConfidenceMaxVolatility is the growth volatility ceiling for a
	// high-confidence projection.
	HighConfidenceMaxVolatility decimal.Decimal
}

// DefaultEngineConfig returns the standard engine configuration
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultGrowthRate:           decimal.NewFromFloat(0.05),
		OCFFallbackFraction:         decimal.NewFromFloat(0.8),
		HighConfidenceMaxVolatility: decimal.NewFromFloat(0.15),
	}
}

// Overrides supplies explicit per-field assumption overrides. An override
// always takes precedence over the historically derived value. The
// per-year paths, when present, take precedence over the flat overrides
// for the years they name.
type Overrides struct {
	RevenueGrowth    *decimal.Decimal
	EBITDAMargin     *decimal.Decimal
	NetMargin        *decimal.Decimal
	EBITDAMarginPath map[int]decimal.Decimal
	NetMarginPath    map[int]decimal.Decimal
}

// ProjectionEngine extrapolates a statement history into future years.
// Pure and deterministic: no randomness, no clock reads, no hidden state.
type ProjectionEngine struct {
	cfg EngineConfig
}

// NewProjectionEngine creates a projection engine with the given config
func NewProjectionEngine(cfg EngineConfig) *ProjectionEngine {
	return &ProjectionEngine{cfg: cfg}
}

// Project produces one FinancialProjection per horizon year from the
// ordered statement history. Fails with the insufficient-history error
// when the history is empty, and with a validation error when the latest
// statement carries no revenue to extrapolate from.
func (e *ProjectionEngine) Project(history []FinancialStatement, horizon int, overrides Overrides) ([]FinancialProjection, error) {
	if len(history) == 0 {
		return nil, shared.ErrInsufficientHistory
	}
	if horizon < 1 {
		return nil, shared.NewValidationError("horizon", "Projection horizon must be at least one year")
	}

	sorted := sortedByYear(history)
	base := sorted[len(sorted)-1]
	if base.Revenue == nil || base.Revenue.Sign() <= 0 {
		return nil, shared.NewValidationError("revenue", "Latest historical statement carries no revenue to extrapolate from")
	}

	trend := CalculateTrend(sorted)
	growth, growthSource, methodology := e.resolveGrowth(trend, overrides)
	ebitdaMargin := resolveMargin(base, FieldEBITDA, overrides.EBITDAMargin)
	netMargin := resolveMargin(base, FieldNetProfit, overrides.NetMargin)
	ocfRatio, ocfSource := e.resolveOCFRatio(base)
	confidence := e.confidence(sorted, trend)

	assumptions := Assumptions{
		BaseYear:     base.Year,
		HistoryYears: len(sorted),
		GrowthRate:   growth,
		GrowthSource: growthSource,
		EBITDAMargin: ebitdaMargin,
		NetMargin:    netMargin,
		OCFToEBITDA:  &ocfRatio,
		OCFSource:    ocfSource,
	}

	growthFactor := decimal.NewFromInt(1).Add(growth)
	revenue := *base.Revenue
	priorEquity := base.Equity
	totalAssets := base.TotalAssets

	projections := make([]FinancialProjection, 0, horizon)
	for k := 1; k <= horizon; k++ {
		year := base.Year + k
		revenue = revenue.Mul(growthFactor).Round(4)

		p := FinancialProjection{
			BaseEntity:       shared.NewBaseEntity(),
			CompanyID:        base.CompanyID,
			Year:             year,
			RevenueGrowth:    growth,
			ConfidenceLevel:  confidence,
			Methodology:      methodology,
			Assumptions:      assumptions,
			ProjectedRevenue: decimalPtr(revenue),
		}

		if m := marginForYear(year, ebitdaMargin, overrides.EBITDAMarginPath); m != nil {
			p.ProjectedEBITDA = decimalPtr(revenue.Mul(*m).Round(4))
		}
		if m := marginForYear(year, netMargin, overrides.NetMarginPath); m != nil {
			p.ProjectedNetProfit = decimalPtr(revenue.Mul(*m).Round(4))
		}

		// Balance-sheet items scale with projected revenue growth, except
		// equity, which rolls forward as prior equity plus projected net
		// profit (retained earnings, no dividend assumption).
		if totalAssets != nil {
			scaled := totalAssets.Mul(growthFactor).Round(4)
			totalAssets = &scaled
			p.ProjectedTotalAssets = decimalPtr(scaled)
		}
		if priorEquity != nil && p.ProjectedNetProfit != nil {
			rolled := priorEquity.Add(*p.ProjectedNetProfit).Round(4)
			priorEquity = &rolled
			p.ProjectedEquity = decimalPtr(rolled)
		}
		if p.ProjectedEBITDA != nil {
			p.ProjectedOperatingCashFlow = decimalPtr(p.ProjectedEBITDA.Mul(ocfRatio).Round(4))
		}

		projections = append(projections, p)
	}
	return projections, nil
}

func (e *ProjectionEngine) resolveGrowth(trend TrendStats, overrides Overrides) (decimal.Decimal, string, Methodology) {
	if overrides.RevenueGrowth != nil {
		return *overrides.RevenueGrowth, "override", MethodologyManualOverride
	}
	if trend.GeometricGrowth.Defined {
		return trend.GeometricGrowth.Value, "trend_extrapolation", MethodologyTrendExtrapolation
	}
	return e.cfg.DefaultGrowthRate, "flat_default", MethodologyFlatDefault
}

func (e *ProjectionEngine) resolveOCFRatio(base FinancialStatement) (decimal.Decimal, string) {
	if base.OperatingCashFlow != nil && base.EBITDA != nil && base.EBITDA.Sign() > 0 {
		return base.OperatingCashFlow.Div(*base.EBITDA).Round(6), "historical_ratio"
	}
	return e.cfg.OCFFallbackFraction, "fallback_fraction"
}

// confidence is low with under two historical years or two-plus
// consecutive loss years, high with four-plus years of positive
// low-variance growth, medium otherwise.
func (e *ProjectionEngine) confidence(sorted []FinancialStatement, trend TrendStats) ConfidenceLevel {
	if len(sorted) < 2 || hasConsecutiveLossYears(sorted, 2) {
		return ConfidenceLow
	}
	if len(sorted) >= 4 &&
		trend.GeometricGrowth.Defined && trend.GeometricGrowth.Value.Sign() > 0 &&
		trend.GrowthVolatility.Defined &&
		trend.GrowthVolatility.Value.LessThan(e.cfg.HighConfidenceMaxVolatility) {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

func hasConsecutiveLossYears(sorted []FinancialStatement, n int) bool {
	run := 0
	for _, s := range sorted {
		if s.NetProfit != nil && s.NetProfit.Sign() < 0 {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

func resolveMargin(base FinancialStatement, f Field, override *decimal.Decimal) *decimal.Decimal {
	if override != nil {
		return override
	}
	v := base.Get(f)
	if v == nil || base.Revenue == nil || base.Revenue.Sign() <= 0 {
		return nil
	}
	m := v.Div(*base.Revenue).Round(6)
	return &m
}

func marginForYear(year int, flat *decimal.Decimal, path map[int]decimal.Decimal) *decimal.Decimal {
	if m, ok := path[year]; ok {
		return &m
	}
	return flat
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
