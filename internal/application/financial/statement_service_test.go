package financial

import (
	"context"
	"testing"

	"github.com/creditpm/backend/internal/domain/company"
	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/creditpm/backend/internal/domain/memo"
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/creditpm/backend/internal/infrastructure/keylock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingAuditRepo collects appended entries for assertions
type recordingAuditRepo struct {
	entries []memo.AuditLogEntry
}

func (r *recordingAuditRepo) Append(_ context.Context, e *memo.AuditLogEntry) error {
	r.entries = append(r.entries, *e)
	return nil
}
func (r *recordingAuditRepo) FindByCase(_ context.Context, _ uuid.UUID) ([]memo.AuditLogEntry, error) {
	return nil, nil
}
func (r *recordingAuditRepo) FindBySection(_ context.Context, _ uuid.UUID, _ memo.SectionType) ([]memo.AuditLogEntry, error) {
	return nil, nil
}
func (r *recordingAuditRepo) FindByCompany(_ context.Context, companyID uuid.UUID) ([]memo.AuditLogEntry, error) {
	var out []memo.AuditLogEntry
	for _, e := range r.entries {
		if e.CompanyID != nil && *e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out, nil
}

// MockCompanyRepository is a mock for company.Repository
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindByOrgNumber(ctx context.Context, orgNumber string) (*company.Company, error) {
	args := m.Called(ctx, orgNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindAll(ctx context.Context) ([]company.Company, error) {
	args := m.Called(ctx)
	return args.Get(0).([]company.Company), args.Error(1)
}

func (m *MockCompanyRepository) Save(ctx context.Context, c *company.Company) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCompanyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockStatementRepository is a mock for financial.StatementRepository
type MockStatementRepository struct {
	mock.Mock
}

func (m *MockStatementRepository) FindByID(ctx context.Context, id uuid.UUID) (*financial.FinancialStatement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financial.FinancialStatement), args.Error(1)
}

func (m *MockStatementRepository) FindByCompanyAndYear(ctx context.Context, companyID uuid.UUID, year int) (*financial.FinancialStatement, error) {
	args := m.Called(ctx, companyID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financial.FinancialStatement), args.Error(1)
}

func (m *MockStatementRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]financial.FinancialStatement, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]financial.FinancialStatement), args.Error(1)
}

func (m *MockStatementRepository) Save(ctx context.Context, stmt *financial.FinancialStatement) error {
	args := m.Called(ctx, stmt)
	return args.Error(0)
}

func (m *MockStatementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func testCompany(t *testing.T) *company.Company {
	t.Helper()
	comp, err := company.NewCompany("556677-8899", "Acme AB", "62010")
	require.NoError(t, err)
	return comp
}

func TestStatementService_SubmitStatement(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a first submission", func(t *testing.T) {
		comp := testCompany(t)
		companyRepo := new(MockCompanyRepository)
		statementRepo := new(MockStatementRepository)
		auditRepo := &recordingAuditRepo{}
		svc := NewStatementService(companyRepo, statementRepo, auditRepo, keylock.New(), zap.NewNop())

		companyRepo.On("FindByID", ctx, comp.ID).Return(comp, nil)
		statementRepo.On("FindByCompanyAndYear", ctx, comp.ID, 2023).Return(nil, nil)
		statementRepo.On("Save", ctx, mock.AnythingOfType("*financial.FinancialStatement")).Return(nil)

		result, err := svc.SubmitStatement(ctx, comp.ID, SubmitStatementRequest{
			Source: "manual",
			Year:   2023,
			Fields: map[string]float64{"revenue": 1000, "cost_of_goods_sold": 400},
		})
		require.NoError(t, err)
		assert.False(t, result.Merged)
		assert.Equal(t, 2023, result.Statement.Year)
		assert.Equal(t, "600", result.Statement.Fields["gross_profit"].String())
		statementRepo.AssertExpectations(t)

		require.Len(t, auditRepo.entries, 1)
		entry := auditRepo.entries[0]
		assert.Equal(t, memo.ActionFinancialUploaded, entry.Action)
		require.NotNil(t, entry.CompanyID)
		assert.Equal(t, comp.ID, *entry.CompanyID)
		require.NotNil(t, entry.Details)
		assert.Equal(t, "year 2023 from manual", *entry.Details)
	})

	t.Run("duplicate year without merge intent is a conflict", func(t *testing.T) {
		comp := testCompany(t)
		companyRepo := new(MockCompanyRepository)
		statementRepo := new(MockStatementRepository)
		auditRepo := &recordingAuditRepo{}
		svc := NewStatementService(companyRepo, statementRepo, auditRepo, keylock.New(), zap.NewNop())

		existing, err := financial.NewNormalizer().Normalize(comp.ID, comp.Currency, financial.RawStatementRecord{
			Source: financial.SourceScraped,
			Year:   2023,
			Fields: map[financial.Field]decimal.Decimal{financial.FieldRevenue: decimal.NewFromInt(900)},
		})
		require.NoError(t, err)

		companyRepo.On("FindByID", ctx, comp.ID).Return(comp, nil)
		statementRepo.On("FindByCompanyAndYear", ctx, comp.ID, 2023).Return(existing, nil)

		_, err = svc.SubmitStatement(ctx, comp.ID, SubmitStatementRequest{
			Source: "manual",
			Year:   2023,
			Fields: map[string]float64{"revenue": 1000},
		})
		require.Error(t, err)
		assert.True(t, shared.IsConflict(err))
		statementRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, auditRepo.entries, "rejected submissions leave no trail")
	})

	t.Run("merge intent combines sources under precedence", func(t *testing.T) {
		comp := testCompany(t)
		companyRepo := new(MockCompanyRepository)
		statementRepo := new(MockStatementRepository)
		auditRepo := &recordingAuditRepo{}
		svc := NewStatementService(companyRepo, statementRepo, auditRepo, keylock.New(), zap.NewNop())

		existing, err := financial.NewNormalizer().Normalize(comp.ID, comp.Currency, financial.RawStatementRecord{
			Source: financial.SourceScraped,
			Year:   2023,
			Fields: map[financial.Field]decimal.Decimal{
				financial.FieldRevenue: decimal.NewFromInt(900),
				financial.FieldEBITDA:  decimal.NewFromInt(180),
			},
		})
		require.NoError(t, err)

		companyRepo.On("FindByID", ctx, comp.ID).Return(comp, nil)
		statementRepo.On("FindByCompanyAndYear", ctx, comp.ID, 2023).Return(existing, nil)
		statementRepo.On("Save", ctx, existing).Return(nil)

		result, err := svc.SubmitStatement(ctx, comp.ID, SubmitStatementRequest{
			Source: "manual",
			Year:   2023,
			Fields: map[string]float64{"revenue": 1000},
			Merge:  true,
		})
		require.NoError(t, err)
		assert.True(t, result.Merged)
		assert.Equal(t, "1000", result.Statement.Fields["revenue"].String())
		assert.Equal(t, "manual", result.Statement.FieldSources["revenue"])
		assert.Equal(t, "180", result.Statement.Fields["ebitda"].String(), "scraped field without manual value survives")
		require.Len(t, result.Overwrites, 1)
		assert.Equal(t, financial.SourceScraped, result.Overwrites[0].PreviousSource)

		require.Len(t, auditRepo.entries, 1, "merge appends one financial_uploaded entry")
		entry := auditRepo.entries[0]
		assert.Equal(t, memo.ActionFinancialUploaded, entry.Action)
		assert.Equal(t, "manual", entry.ActorName)
		require.NotNil(t, entry.Details)
		assert.Equal(t, "year 2023 from manual; overwrote revenue=900 (scraped)", *entry.Details)
	})

	t.Run("rejects unknown source", func(t *testing.T) {
		comp := testCompany(t)
		companyRepo := new(MockCompanyRepository)
		statementRepo := new(MockStatementRepository)
		auditRepo := &recordingAuditRepo{}
		svc := NewStatementService(companyRepo, statementRepo, auditRepo, keylock.New(), zap.NewNop())

		companyRepo.On("FindByID", ctx, comp.ID).Return(comp, nil)

		_, err := svc.SubmitStatement(ctx, comp.ID, SubmitStatementRequest{
			Source: "fax",
			Year:   2023,
			Fields: map[string]float64{"revenue": 1000},
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestStatementService_GetStatement(t *testing.T) {
	ctx := context.Background()

	t.Run("missing year is not found", func(t *testing.T) {
		companyRepo := new(MockCompanyRepository)
		statementRepo := new(MockStatementRepository)
		auditRepo := &recordingAuditRepo{}
		svc := NewStatementService(companyRepo, statementRepo, auditRepo, keylock.New(), zap.NewNop())

		companyID := uuid.New()
		statementRepo.On("FindByCompanyAndYear", ctx, companyID, 2019).Return(nil, nil)

		_, err := svc.GetStatement(ctx, companyID, 2019)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
