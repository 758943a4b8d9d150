package analysis

import (
	"context"

	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/google/uuid"
)

// NarrativeRequest is the bounded context handed to the narrative
// generator: the company's recent statement history, derived ratios and
// latest projections, plus generation instructions. The collaborator is
// pure request/response; it holds no state between calls.
type NarrativeRequest struct {
	CompanyID           uuid.UUID
	CompanyName         string
	IndustryCode        string
	BusinessDescription string
	Currency            string

	Statements  []financial.FinancialStatement
	Ratios      []financial.RatioSet
	Trend       financial.TrendStats
	Projections []financial.FinancialProjection

	// Strict tightens the instruction after a first response failed
	// validation.
	Strict bool
}

// NarrativeResponse is the structured generator output. Fields may be
// missing or malformed; the composer validates before persisting.
type NarrativeResponse struct {
	Summary         string          `json:"summary"`
	KeyMetrics      KeyMetrics      `json:"key_metrics"`
	RiskAssessment  *RiskAssessment `json:"risk_assessment"`
	Strengths       []string        `json:"strengths"`
	Weaknesses      []string        `json:"weaknesses"`
	Recommendations []string        `json:"recommendations"`

	// Trace fields for the audit log.
	Prompt       string `json:"-"`
	RawResponse  string `json:"-"`
	ModelVersion string `json:"-"`
}

// Problems lists what keeps the response from being a complete analysis.
// An empty list means the response is valid.
func (r *NarrativeResponse) Problems() []string {
	var problems []string
	if r.Summary == "" {
		problems = append(problems, "summary is empty")
	}
	if r.RiskAssessment == nil {
		problems = append(problems, "risk_assessment is missing")
	} else if err := r.RiskAssessment.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(r.Recommendations) == 0 {
		problems = append(problems, "recommendations list is empty")
	}
	return problems
}

// NarrativeGenerator produces the narrative fields of an analysis.
// Implementations translate transport failures into generation errors.
type NarrativeGenerator interface {
	Generate(ctx context.Context, req NarrativeRequest) (*NarrativeResponse, error)
	// ModelVersion identifies the underlying model for audit entries.
	ModelVersion() string
}

// SectionGenerator produces free-text content for one memo section from
// company and case context.
type SectionGenerator interface {
	GenerateSection(ctx context.Context, req SectionRequest) (string, SectionTrace, error)
}

// SectionRequest is the context for one memo section generation
type SectionRequest struct {
	SectionType         string
	CompanyName         string
	IndustryCode        string
	BusinessDescription string
	CaseTitle           string
	FinancialContext    string
}

// SectionTrace carries the prompt/response pair for the audit log
type SectionTrace struct {
	Prompt       string
	Response     string
	ModelVersion string
}
