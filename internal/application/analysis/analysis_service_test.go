package analysis

import (
	"context"
	"testing"

	"github.com/creditpm/backend/internal/domain/analysis"
	"github.com/creditpm/backend/internal/domain/company"
	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/creditpm/backend/internal/domain/memo"
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuditRepo struct {
	entries []memo.AuditLogEntry
}

func (r *fakeAuditRepo) Append(_ context.Context, e *memo.AuditLogEntry) error {
	r.entries = append(r.entries, *e)
	return nil
}
func (r *fakeAuditRepo) FindByCase(_ context.Context, _ uuid.UUID) ([]memo.AuditLogEntry, error) {
	return nil, nil
}
func (r *fakeAuditRepo) FindBySection(_ context.Context, _ uuid.UUID, _ memo.SectionType) ([]memo.AuditLogEntry, error) {
	return nil, nil
}
func (r *fakeAuditRepo) FindByCompany(_ context.Context, _ uuid.UUID) ([]memo.AuditLogEntry, error) {
	return r.entries, nil
}

type fakeCompanyRepo struct {
	comp *company.Company
}

func (r *fakeCompanyRepo) FindByID(_ context.Context, id uuid.UUID) (*company.Company, error) {
	if r.comp != nil && r.comp.ID == id {
		return r.comp, nil
	}
	return nil, shared.ErrNotFound
}
func (r *fakeCompanyRepo) FindByOrgNumber(_ context.Context, _ string) (*company.Company, error) {
	return nil, shared.ErrNotFound
}
func (r *fakeCompanyRepo) FindAll(_ context.Context) ([]company.Company, error) { return nil, nil }
func (r *fakeCompanyRepo) Save(_ context.Context, c *company.Company) error {
	r.comp = c
	return nil
}
func (r *fakeCompanyRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

type fakeStatementRepo struct {
	statements []financial.FinancialStatement
}

func (r *fakeStatementRepo) FindByID(_ context.Context, _ uuid.UUID) (*financial.FinancialStatement, error) {
	return nil, shared.ErrNotFound
}
func (r *fakeStatementRepo) FindByCompanyAndYear(_ context.Context, _ uuid.UUID, _ int) (*financial.FinancialStatement, error) {
	return nil, nil
}
func (r *fakeStatementRepo) FindByCompany(_ context.Context, _ uuid.UUID) ([]financial.FinancialStatement, error) {
	return r.statements, nil
}
func (r *fakeStatementRepo) Save(_ context.Context, _ *financial.FinancialStatement) error {
	return nil
}
func (r *fakeStatementRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

type fakeProjectionRepo struct {
	projections []financial.FinancialProjection
}

func (r *fakeProjectionRepo) FindByCompany(_ context.Context, _ uuid.UUID) ([]financial.FinancialProjection, error) {
	return r.projections, nil
}
func (r *fakeProjectionRepo) ReplaceForCompany(_ context.Context, _ uuid.UUID, p []financial.FinancialProjection) error {
	r.projections = p
	return nil
}
func (r *fakeProjectionRepo) DeleteByCompany(_ context.Context, _ uuid.UUID) error { return nil }

type fakeAnalysisRepo struct {
	saved []analysis.FinancialAnalysis
}

func (r *fakeAnalysisRepo) FindByID(_ context.Context, _ uuid.UUID) (*analysis.FinancialAnalysis, error) {
	return nil, shared.ErrNotFound
}
func (r *fakeAnalysisRepo) FindLatestByCompany(_ context.Context, _ uuid.UUID) (*analysis.FinancialAnalysis, error) {
	if len(r.saved) == 0 {
		return nil, nil
	}
	return &r.saved[len(r.saved)-1], nil
}
func (r *fakeAnalysisRepo) FindByCompany(_ context.Context, _ uuid.UUID) ([]analysis.FinancialAnalysis, error) {
	return r.saved, nil
}
func (r *fakeAnalysisRepo) NextVersion(_ context.Context, _ uuid.UUID) (int, error) {
	return len(r.saved) + 1, nil
}
func (r *fakeAnalysisRepo) Save(_ context.Context, a *analysis.FinancialAnalysis) error {
	r.saved = append(r.saved, *a)
	return nil
}

// scriptedGenerator returns pre-built responses in order
type scriptedGenerator struct {
	responses []*analysis.NarrativeResponse
	requests  []analysis.NarrativeRequest
}

func (g *scriptedGenerator) Generate(_ context.Context, req analysis.NarrativeRequest) (*analysis.NarrativeResponse, error) {
	g.requests = append(g.requests, req)
	if len(g.responses) == 0 {
		return nil, shared.NewGenerationError("no scripted response")
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

func (g *scriptedGenerator) ModelVersion() string { return "gpt-4o" }

func validResponse() *analysis.NarrativeResponse {
	return &analysis.NarrativeResponse{
		Summary:         "Solid revenue base with stable margins.",
		RiskAssessment:  &analysis.RiskAssessment{OverallRisk: analysis.RiskMedium, Score: 45},
		Recommendations: []string{"Approve the facility with quarterly covenant reporting."},
		ModelVersion:    "gpt-4o",
	}
}

func historyStatement(companyID uuid.UUID, year int, revenue int64) financial.FinancialStatement {
	stmt := financial.FinancialStatement{
		BaseEntity:   shared.NewBaseEntity(),
		CompanyID:    companyID,
		Year:         year,
		Currency:     "SEK",
		Source:       financial.SourceManual,
		FieldSources: financial.FieldSourceMap{},
	}
	stmt.Set(financial.FieldRevenue, decimal.NewFromInt(revenue), financial.SourceManual)
	return stmt
}

func newTestAnalysisService(t *testing.T, gen *scriptedGenerator, years int) (*AnalysisService, *fakeAnalysisRepo, *fakeAuditRepo, uuid.UUID) {
	t.Helper()
	comp, err := company.NewCompany("556677-8899", "Acme AB", "62010")
	require.NoError(t, err)

	statements := make([]financial.FinancialStatement, 0, years)
	for i := 0; i < years; i++ {
		statements = append(statements, historyStatement(comp.ID, 2020+i, int64(100+10*i)))
	}

	analysisRepo := &fakeAnalysisRepo{}
	auditRepo := &fakeAuditRepo{}
	svc := NewAnalysisService(
		&fakeCompanyRepo{comp: comp},
		&fakeStatementRepo{statements: statements},
		&fakeProjectionRepo{},
		analysisRepo,
		auditRepo,
		gen,
		zap.NewNop(),
		5,
	)
	return svc, analysisRepo, auditRepo, comp.ID
}

func TestAnalysisService_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid first response persists complete", func(t *testing.T) {
		gen := &scriptedGenerator{responses: []*analysis.NarrativeResponse{validResponse()}}
		svc, repo, _, companyID := newTestAnalysisService(t, gen, 3)

		resp, err := svc.Generate(ctx, companyID, nil)
		require.NoError(t, err)
		assert.False(t, resp.GenerationIncomplete)
		assert.Equal(t, 1, resp.Version)
		assert.Equal(t, "gpt-4o", resp.ModelVersion)
		require.Len(t, repo.saved, 1)
		require.Len(t, gen.requests, 1)
		assert.False(t, gen.requests[0].Strict)
		assert.Len(t, gen.requests[0].Statements, 3)
	})

	t.Run("every persisted version is audited with the model id", func(t *testing.T) {
		degraded := validResponse()
		degraded.Recommendations = nil
		gen := &scriptedGenerator{responses: []*analysis.NarrativeResponse{validResponse(), degraded, degraded}}
		svc, _, auditRepo, companyID := newTestAnalysisService(t, gen, 3)

		_, err := svc.Generate(ctx, companyID, nil)
		require.NoError(t, err)
		_, err = svc.Generate(ctx, companyID, nil)
		require.NoError(t, err)

		require.Len(t, auditRepo.entries, 2)
		first := auditRepo.entries[0]
		assert.Equal(t, memo.ActionAnalysisGenerated, first.Action)
		require.NotNil(t, first.CompanyID)
		assert.Equal(t, companyID, *first.CompanyID)
		assert.Equal(t, 1, first.Version)
		require.NotNil(t, first.ModelVersion)
		assert.Equal(t, "gpt-4o", *first.ModelVersion)
		assert.Equal(t, memo.ActorSystem, first.ActorKind)

		second := auditRepo.entries[1]
		assert.Equal(t, 2, second.Version)
		require.NotNil(t, second.Details)
		assert.Contains(t, *second.Details, "generation incomplete")
	})

	t.Run("invalid response retries once in strict mode", func(t *testing.T) {
		invalid := validResponse()
		invalid.Recommendations = nil
		gen := &scriptedGenerator{responses: []*analysis.NarrativeResponse{invalid, validResponse()}}
		svc, _, _, companyID := newTestAnalysisService(t, gen, 3)

		resp, err := svc.Generate(ctx, companyID, nil)
		require.NoError(t, err)
		assert.False(t, resp.GenerationIncomplete)
		require.Len(t, gen.requests, 2)
		assert.True(t, gen.requests[1].Strict)
	})

	t.Run("second invalid response persists degraded", func(t *testing.T) {
		first := validResponse()
		first.Recommendations = nil
		second := validResponse()
		second.Recommendations = nil
		gen := &scriptedGenerator{responses: []*analysis.NarrativeResponse{first, second}}
		svc, repo, _, companyID := newTestAnalysisService(t, gen, 3)

		resp, err := svc.Generate(ctx, companyID, nil)
		require.NoError(t, err)
		assert.True(t, resp.GenerationIncomplete)
		assert.Equal(t, "Solid revenue base with stable margins.", resp.Summary, "valid fields are kept")
		require.Len(t, repo.saved, 1)
		assert.True(t, repo.saved[0].GenerationIncomplete)
	})

	t.Run("regeneration gets the next version", func(t *testing.T) {
		gen := &scriptedGenerator{responses: []*analysis.NarrativeResponse{validResponse(), validResponse()}}
		svc, _, _, companyID := newTestAnalysisService(t, gen, 3)

		first, err := svc.Generate(ctx, companyID, nil)
		require.NoError(t, err)
		second, err := svc.Generate(ctx, companyID, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, first.Version)
		assert.Equal(t, 2, second.Version)
	})

	t.Run("no history is insufficient", func(t *testing.T) {
		gen := &scriptedGenerator{}
		svc, _, _, companyID := newTestAnalysisService(t, gen, 0)

		_, err := svc.Generate(ctx, companyID, nil)
		assert.ErrorIs(t, err, shared.ErrInsufficientHistory)
	})

	t.Run("context is bounded to the configured years", func(t *testing.T) {
		gen := &scriptedGenerator{responses: []*analysis.NarrativeResponse{validResponse()}}
		svc, _, _, companyID := newTestAnalysisService(t, gen, 8)

		_, err := svc.Generate(ctx, companyID, nil)
		require.NoError(t, err)
		require.Len(t, gen.requests, 1)
		assert.Len(t, gen.requests[0].Statements, 5, "only the last five years go into the prompt")
	})
}
