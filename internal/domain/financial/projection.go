package financial

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfidenceLevel is the qualitative reliability tag attached to a
// projection, derived from history length and variance.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// IsValid checks if the confidence level is valid
func (c ConfidenceLevel) IsValid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// String returns the string representation of ConfidenceLevel
func (c ConfidenceLevel) String() string {
	return string(c)
}

// Methodology names the projection technique, recorded for auditability.
type Methodology string

const (
	MethodologyTrendExtrapolation Methodology = "trend_extrapolation"
	MethodologyFlatDefault        Methodology = "flat_default"
	MethodologyManualOverride     Methodology = "manual_override"
)

// Assumptions captures the exact values a projection run used. Persisted
// with every projection so any run is independently reproducible. The
// well-known inputs are typed; Extra is an open extension map for
// forward compatibility.
type Assumptions struct {
	BaseYear            int               `json:"base_year"`
	HistoryYears        int               `json:"history_years"`
	GrowthRate          decimal.Decimal   `json:"growth_rate"`
	GrowthSource        string            `json:"growth_source"` // trend_extrapolation | flat_default | override
	EBITDAMargin        *decimal.Decimal  `json:"ebitda_margin,omitempty"`
	NetMargin           *decimal.Decimal  `json:"net_margin,omitempty"`
	OCFToEBITDA         *decimal.Decimal  `json:"ocf_to_ebitda,omitempty"`
	OCFSource           string            `json:"ocf_source,omitempty"` // historical_ratio | fallback_fraction
	Extra               map[string]string `json:"extra,omitempty"`
}

// Value implements driver.Valuer for JSONB storage
func (a Assumptions) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB retrieval
func (a *Assumptions) Scan(value interface{}) error {
	if value == nil {
		*a = Assumptions{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Assumptions", value)
	}
	return json.Unmarshal(b, a)
}

// FinancialProjection is one projected future year for a company. At most
// one exists per (company, year); runs replace the company's projection
// set as a whole.
type FinancialProjection struct {
	shared.BaseEntity
	CompanyID uuid.UUID `json:"company_id"`
	Year      int       `json:"year"`

	ProjectedRevenue           *decimal.Decimal `json:"projected_revenue,omitempty"`
	ProjectedEBITDA            *decimal.Decimal `json:"projected_ebitda,omitempty"`
	ProjectedNetProfit         *decimal.Decimal `json:"projected_net_profit,omitempty"`
	ProjectedTotalAssets       *decimal.Decimal `json:"projected_total_assets,omitempty"`
	ProjectedEquity            *decimal.Decimal `json:"projected_equity,omitempty"`
	ProjectedOperatingCashFlow *decimal.Decimal `json:"projected_operating_cash_flow,omitempty"`

	RevenueGrowth   decimal.Decimal `json:"revenue_growth"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	Methodology     Methodology     `json:"methodology"`
	Assumptions     Assumptions     `json:"assumptions"`
}
