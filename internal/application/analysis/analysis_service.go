package analysis

import (
	"context"
	"fmt"

	"github.com/creditpm/backend/internal/domain/analysis"
	"github.com/creditpm/backend/internal/domain/company"
	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/creditpm/backend/internal/domain/memo"
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalysisService composes financial analyses: it assembles a bounded
// context from the company's canonical data, calls the narrative
// generator, validates the response, and persists the result. A response
// failing validation is retried once with a stricter instruction; a
// second failure is persisted degraded rather than discarded. Every
// persisted version appends an analysis_generated audit entry carrying
// the generating model's identifier.
type AnalysisService struct {
	companyRepo    company.Repository
	statementRepo  financial.StatementRepository
	projectionRepo financial.ProjectionRepository
	analysisRepo   analysis.Repository
	auditRepo      memo.AuditLogRepository
	generator      analysis.NarrativeGenerator
	logger         *zap.Logger

	// contextYears bounds how much statement history goes into a prompt.
	contextYears int
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(
	companyRepo company.Repository,
	statementRepo financial.StatementRepository,
	projectionRepo financial.ProjectionRepository,
	analysisRepo analysis.Repository,
	auditRepo memo.AuditLogRepository,
	generator analysis.NarrativeGenerator,
	logger *zap.Logger,
	contextYears int,
) *AnalysisService {
	if contextYears < 1 {
		contextYears = 5
	}
	return &AnalysisService{
		companyRepo:    companyRepo,
		statementRepo:  statementRepo,
		projectionRepo: projectionRepo,
		analysisRepo:   analysisRepo,
		auditRepo:      auditRepo,
		generator:      generator,
		logger:         logger,
		contextYears:   contextYears,
	}
}

// AnalysisResponse represents a financial analysis in API responses
type AnalysisResponse struct {
	ID                   uuid.UUID               `json:"id"`
	CompanyID            uuid.UUID               `json:"company_id"`
	CaseID               *uuid.UUID              `json:"case_id,omitempty"`
	Version              int                     `json:"version"`
	Summary              string                  `json:"summary"`
	KeyMetrics           analysis.KeyMetrics     `json:"key_metrics"`
	RiskAssessment       analysis.RiskAssessment `json:"risk_assessment"`
	Strengths            []string                `json:"strengths,omitempty"`
	Weaknesses           []string                `json:"weaknesses,omitempty"`
	Recommendations      []string                `json:"recommendations,omitempty"`
	GenerationIncomplete bool                    `json:"generation_incomplete"`
	ModelVersion         string                  `json:"model_version"`
}

// Generate composes and persists a new analysis version for the company
func (s *AnalysisService) Generate(ctx context.Context, companyID uuid.UUID, caseID *uuid.UUID) (*AnalysisResponse, error) {
	comp, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	history, err := s.statementRepo.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, shared.ErrInsufficientHistory
	}
	if len(history) > s.contextYears {
		history = history[len(history)-s.contextYears:]
	}
	projections, err := s.projectionRepo.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	req := analysis.NarrativeRequest{
		CompanyID:           comp.ID,
		CompanyName:         comp.Name,
		IndustryCode:        comp.IndustryCode,
		BusinessDescription: comp.BusinessDescription,
		Currency:            comp.Currency,
		Statements:          history,
		Ratios:              financial.CalculateRatios(history),
		Trend:               financial.CalculateTrend(history),
		Projections:         projections,
	}

	resp, incomplete, err := s.generateValidated(ctx, req)
	if err != nil {
		return nil, err
	}

	version, err := s.analysisRepo.NextVersion(ctx, companyID)
	if err != nil {
		return nil, err
	}

	result := &analysis.FinancialAnalysis{
		BaseEntity:           shared.NewBaseEntity(),
		CompanyID:            companyID,
		CaseID:               caseID,
		Version:              version,
		Summary:              resp.Summary,
		KeyMetrics:           resp.KeyMetrics,
		Strengths:            resp.Strengths,
		Weaknesses:           resp.Weaknesses,
		Recommendations:      resp.Recommendations,
		GenerationIncomplete: incomplete,
		ModelVersion:         resp.ModelVersion,
	}
	if resp.RiskAssessment != nil {
		result.RiskAssessment = *resp.RiskAssessment
	}
	if result.ModelVersion == "" {
		result.ModelVersion = s.generator.ModelVersion()
	}

	if err := s.analysisRepo.Save(ctx, result); err != nil {
		return nil, err
	}
	s.appendGenerationAudit(ctx, result)
	s.logger.Info("financial analysis persisted",
		zap.String("company_id", companyID.String()),
		zap.Int("version", version),
		zap.Bool("generation_incomplete", incomplete),
		zap.String("model_version", result.ModelVersion))
	return toAnalysisResponse(result), nil
}

// appendGenerationAudit records a persisted analysis version in the
// audit trail. The analysis is already durable; a failed append leaves a
// gap that is logged, not a rolled-back generation.
func (s *AnalysisService) appendGenerationAudit(ctx context.Context, result *analysis.FinancialAnalysis) {
	details := fmt.Sprintf("analysis version %d", result.Version)
	if result.GenerationIncomplete {
		details += " (generation incomplete)"
	}
	entry, err := memo.NewCompanyAuditEntry(result.CompanyID,
		memo.ActionAnalysisGenerated,
		memo.SystemActor(result.ModelVersion),
		result.Version,
		details)
	if err == nil {
		entry.CaseID = result.CaseID
		entry.ModelVersion = &result.ModelVersion
		err = s.auditRepo.Append(ctx, entry)
	}
	if err != nil {
		s.logger.Warn("audit append for analysis generation failed",
			zap.String("company_id", result.CompanyID.String()),
			zap.Int("version", result.Version),
			zap.Error(err))
	}
}

// GetLatest returns the company's latest analysis
func (s *AnalysisService) GetLatest(ctx context.Context, companyID uuid.UUID) (*AnalysisResponse, error) {
	a, err := s.analysisRepo.FindLatestByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, shared.ErrNotFound
	}
	return toAnalysisResponse(a), nil
}

// ListVersions returns every analysis version for the company
func (s *AnalysisService) ListVersions(ctx context.Context, companyID uuid.UUID) ([]AnalysisResponse, error) {
	all, err := s.analysisRepo.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]AnalysisResponse, len(all))
	for i := range all {
		out[i] = *toAnalysisResponse(&all[i])
	}
	return out, nil
}

// generateValidated calls the generator, validating the response and
// retrying once in strict mode. The second response is returned even
// when still invalid; the incomplete flag tells the caller.
func (s *AnalysisService) generateValidated(ctx context.Context, req analysis.NarrativeRequest) (*analysis.NarrativeResponse, bool, error) {
	resp, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, false, err
	}
	problems := resp.Problems()
	if len(problems) == 0 {
		return resp, false, nil
	}

	s.logger.Warn("narrative response failed validation, retrying strict",
		zap.String("company_id", req.CompanyID.String()),
		zap.Strings("problems", problems))
	req.Strict = true
	retry, err := s.generator.Generate(ctx, req)
	if err != nil {
		// The first response, degraded, beats losing the attempt.
		return resp, true, nil
	}
	if len(retry.Problems()) == 0 {
		return retry, false, nil
	}
	return retry, true, nil
}

func toAnalysisResponse(a *analysis.FinancialAnalysis) *AnalysisResponse {
	return &AnalysisResponse{
		ID:                   a.ID,
		CompanyID:            a.CompanyID,
		CaseID:               a.CaseID,
		Version:              a.Version,
		Summary:              a.Summary,
		KeyMetrics:           a.KeyMetrics,
		RiskAssessment:       a.RiskAssessment,
		Strengths:            a.Strengths,
		Weaknesses:           a.Weaknesses,
		Recommendations:      a.Recommendations,
		GenerationIncomplete: a.GenerationIncomplete,
		ModelVersion:         a.ModelVersion,
	}
}
