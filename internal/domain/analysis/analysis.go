package analysis

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskLevel is the qualitative risk grade of an analysis
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// IsValid checks whether the risk level is a known value
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// RiskAssessment is the structured risk verdict of an analysis. Score is
// 0 to 100, higher meaning riskier.
type RiskAssessment struct {
	OverallRisk RiskLevel `json:"overall_risk"`
	RiskFactors []string  `json:"risk_factors,omitempty"`
	Score       int       `json:"score"`
}

// Validate checks internal consistency of the assessment
func (r RiskAssessment) Validate() error {
	if !r.OverallRisk.IsValid() {
		return shared.NewValidationError("overall_risk", "Overall risk must be low, medium or high")
	}
	if r.Score < 0 || r.Score > 100 {
		return shared.NewValidationError("score", "Risk score must be between 0 and 100")
	}
	return nil
}

// Value implements driver.Valuer for JSONB storage
func (r RiskAssessment) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB retrieval
func (r *RiskAssessment) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// KeyMetrics carries the headline figures the narrative cites. The
// well-known metrics are typed; Extra holds anything else the generator
// chose to surface.
type KeyMetrics struct {
	LatestRevenue   *decimal.Decimal  `json:"latest_revenue,omitempty"`
	RevenueGrowth   *decimal.Decimal  `json:"revenue_growth,omitempty"`
	EBITDAMargin    *decimal.Decimal  `json:"ebitda_margin,omitempty"`
	EquityRatio     *decimal.Decimal  `json:"equity_ratio,omitempty"`
	CurrentRatio    *decimal.Decimal  `json:"current_ratio,omitempty"`
	ReturnOnEquity  *decimal.Decimal  `json:"return_on_equity,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// Value implements driver.Valuer for JSONB storage
func (m KeyMetrics) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB retrieval
func (m *KeyMetrics) Scan(value interface{}) error {
	return scanJSON(value, m)
}

// StringList is a JSONB-stored list of free-text items
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
	return scanJSON(value, l)
}

// FinancialAnalysis is one generated narrative analysis for a company,
// optionally tied to a memo case. Versioned per company: a regeneration
// produces the next version rather than replacing the prior one.
type FinancialAnalysis struct {
	shared.BaseEntity
	CompanyID uuid.UUID  `json:"company_id"`
	CaseID    *uuid.UUID `json:"case_id,omitempty"`
	Version   int        `json:"version"`

	Summary         string         `json:"summary"`
	KeyMetrics      KeyMetrics     `json:"key_metrics"`
	RiskAssessment  RiskAssessment `json:"risk_assessment"`
	Strengths       StringList     `json:"strengths,omitempty"`
	Weaknesses      StringList     `json:"weaknesses,omitempty"`
	Recommendations StringList     `json:"recommendations,omitempty"`

	// GenerationIncomplete marks a degraded result persisted after the
	// generator failed validation twice. The valid fields are kept; the
	// flag tells readers the narrative is partial.
	GenerationIncomplete bool   `json:"generation_incomplete"`
	ModelVersion         string `json:"model_version"`
}

func scanJSON(value interface{}, target interface{}) error {
	if value == nil {
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T", value)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, target)
}
