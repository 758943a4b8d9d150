package financial

import (
	"context"
	"time"

	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectionService runs the projection engine over persisted statement
// history and stores the resulting series.
type ProjectionService struct {
	statementRepo  financial.StatementRepository
	projectionRepo financial.ProjectionRepository
	engine         *financial.ProjectionEngine
	defaultHorizon int
}

// NewProjectionService creates a new ProjectionService
func NewProjectionService(
	statementRepo financial.StatementRepository,
	projectionRepo financial.ProjectionRepository,
	engine *financial.ProjectionEngine,
	defaultHorizon int,
) *ProjectionService {
	if defaultHorizon < 1 {
		defaultHorizon = 3
	}
	return &ProjectionService{
		statementRepo:  statementRepo,
		projectionRepo: projectionRepo,
		engine:         engine,
		defaultHorizon: defaultHorizon,
	}
}

// GenerateProjectionsRequest configures one projection run
type GenerateProjectionsRequest struct {
	Horizon          int                     `json:"horizon"`
	RevenueGrowth    *decimal.Decimal        `json:"revenue_growth"`
	EBITDAMargin     *decimal.Decimal        `json:"ebitda_margin"`
	NetMargin        *decimal.Decimal        `json:"net_margin"`
	EBITDAMarginPath map[int]decimal.Decimal `json:"ebitda_margin_path"`
	NetMarginPath    map[int]decimal.Decimal `json:"net_margin_path"`
}

// ProjectionResponse represents one projected year in API responses
type ProjectionResponse struct {
	ID                uuid.UUID             `json:"id"`
	CompanyID         uuid.UUID             `json:"company_id"`
	Year              int                   `json:"year"`
	Revenue           *decimal.Decimal      `json:"revenue,omitempty"`
	EBITDA            *decimal.Decimal      `json:"ebitda,omitempty"`
	NetProfit         *decimal.Decimal      `json:"net_profit,omitempty"`
	TotalAssets       *decimal.Decimal      `json:"total_assets,omitempty"`
	Equity            *decimal.Decimal      `json:"equity,omitempty"`
	OperatingCashFlow *decimal.Decimal      `json:"operating_cash_flow,omitempty"`
	RevenueGrowth     decimal.Decimal       `json:"revenue_growth"`
	ConfidenceLevel   string                `json:"confidence_level"`
	Methodology       string                `json:"methodology"`
	Assumptions       financial.Assumptions `json:"assumptions"`
	CreatedAt         time.Time             `json:"created_at"`
}

// GenerateProjections runs the engine and replaces the company's stored
// projection set with the result.
func (s *ProjectionService) GenerateProjections(ctx context.Context, companyID uuid.UUID, req GenerateProjectionsRequest) ([]ProjectionResponse, error) {
	history, err := s.statementRepo.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, shared.ErrInsufficientHistory
	}

	horizon := req.Horizon
	if horizon == 0 {
		horizon = s.defaultHorizon
	}

	projections, err := s.engine.Project(history, horizon, financial.Overrides{
		RevenueGrowth:    req.RevenueGrowth,
		EBITDAMargin:     req.EBITDAMargin,
		NetMargin:        req.NetMargin,
		EBITDAMarginPath: req.EBITDAMarginPath,
		NetMarginPath:    req.NetMarginPath,
	})
	if err != nil {
		return nil, err
	}

	if err := s.projectionRepo.ReplaceForCompany(ctx, companyID, projections); err != nil {
		return nil, err
	}
	return toProjectionResponses(projections), nil
}

// GetProjections returns the company's stored projection series
func (s *ProjectionService) GetProjections(ctx context.Context, companyID uuid.UUID) ([]ProjectionResponse, error) {
	projections, err := s.projectionRepo.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return toProjectionResponses(projections), nil
}

func toProjectionResponses(projections []financial.FinancialProjection) []ProjectionResponse {
	out := make([]ProjectionResponse, len(projections))
	for i, p := range projections {
		out[i] = ProjectionResponse{
			ID:                p.ID,
			CompanyID:         p.CompanyID,
			Year:              p.Year,
			Revenue:           p.ProjectedRevenue,
			EBITDA:            p.ProjectedEBITDA,
			NetProfit:         p.ProjectedNetProfit,
			TotalAssets:       p.ProjectedTotalAssets,
			Equity:            p.ProjectedEquity,
			OperatingCashFlow: p.ProjectedOperatingCashFlow,
			RevenueGrowth:     p.RevenueGrowth,
			ConfidenceLevel:   string(p.ConfidenceLevel),
			Methodology:       string(p.Methodology),
			Assumptions:       p.Assumptions,
			CreatedAt:         p.CreatedAt,
		}
	}
	return out
}
