package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/creditpm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupFinancialTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.FinancialStatementModel{},
		&models.FinancialProjectionModel{},
		&models.FinancialDocumentModel{},
	)
	require.NoError(t, err)

	return db
}

func newStatement(t *testing.T, companyID uuid.UUID, year int, revenue float64) *financial.FinancialStatement {
	t.Helper()
	stmt := &financial.FinancialStatement{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		Year:       year,
		Currency:   "SEK",
		Source:     financial.SourceManual,
	}
	stmt.Set(financial.FieldRevenue, decimal.NewFromFloat(revenue), financial.SourceManual)
	return stmt
}

func TestGormStatementRepository_SaveAndFind(t *testing.T) {
	db := setupFinancialTestDB(t)
	repo := NewGormStatementRepository(db)
	ctx := context.Background()

	t.Run("saves and retrieves a statement with field sources", func(t *testing.T) {
		companyID := uuid.New()
		stmt := newStatement(t, companyID, 2023, 1000)
		stmt.Set(financial.FieldEBITDA, decimal.NewFromInt(200), financial.SourceScraped)

		require.NoError(t, repo.Save(ctx, stmt))

		found, err := repo.FindByID(ctx, stmt.ID)
		require.NoError(t, err)
		assert.Equal(t, 2023, found.Year)
		assert.True(t, found.Revenue.Equal(decimal.NewFromInt(1000)))

		src, ok := found.SourceOf(financial.FieldEBITDA)
		require.True(t, ok)
		assert.Equal(t, financial.SourceScraped, src)
	})

	t.Run("FindByCompanyAndYear returns nil when absent", func(t *testing.T) {
		found, err := repo.FindByCompanyAndYear(ctx, uuid.New(), 2020)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("FindByCompany orders by year ascending", func(t *testing.T) {
		companyID := uuid.New()
		for _, year := range []int{2023, 2021, 2022} {
			require.NoError(t, repo.Save(ctx, newStatement(t, companyID, year, 100)))
		}

		statements, err := repo.FindByCompany(ctx, companyID)
		require.NoError(t, err)
		require.Len(t, statements, 3)
		assert.Equal(t, 2021, statements[0].Year)
		assert.Equal(t, 2022, statements[1].Year)
		assert.Equal(t, 2023, statements[2].Year)
	})

	t.Run("FindByID returns ErrNotFound for missing statement", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("Delete removes the statement", func(t *testing.T) {
		stmt := newStatement(t, uuid.New(), 2023, 500)
		require.NoError(t, repo.Save(ctx, stmt))

		require.NoError(t, repo.Delete(ctx, stmt.ID))

		_, err := repo.FindByID(ctx, stmt.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProjectionRepository_ReplaceForCompany(t *testing.T) {
	db := setupFinancialTestDB(t)
	repo := NewGormProjectionRepository(db)
	ctx := context.Background()

	newProjection := func(companyID uuid.UUID, year int) financial.FinancialProjection {
		revenue := decimal.NewFromInt(int64(year * 100))
		return financial.FinancialProjection{
			BaseEntity:       shared.NewBaseEntity(),
			CompanyID:        companyID,
			Year:             year,
			ProjectedRevenue: &revenue,
			RevenueGrowth:    decimal.NewFromFloat(0.05),
			ConfidenceLevel:  financial.ConfidenceMedium,
			Methodology:      financial.MethodologyTrendExtrapolation,
			Assumptions: financial.Assumptions{
				BaseYear:     year - 1,
				HistoryYears: 3,
				GrowthRate:   decimal.NewFromFloat(0.05),
				GrowthSource: "trend_extrapolation",
			},
		}
	}

	t.Run("replaces the prior projection set as a whole", func(t *testing.T) {
		companyID := uuid.New()

		first := []financial.FinancialProjection{
			newProjection(companyID, 2024),
			newProjection(companyID, 2025),
			newProjection(companyID, 2026),
		}
		require.NoError(t, repo.ReplaceForCompany(ctx, companyID, first))

		second := []financial.FinancialProjection{
			newProjection(companyID, 2024),
			newProjection(companyID, 2025),
		}
		require.NoError(t, repo.ReplaceForCompany(ctx, companyID, second))

		found, err := repo.FindByCompany(ctx, companyID)
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, 2024, found[0].Year)
		assert.Equal(t, 2025, found[1].Year)
	})

	t.Run("persists assumptions with the projection", func(t *testing.T) {
		companyID := uuid.New()
		require.NoError(t, repo.ReplaceForCompany(ctx, companyID, []financial.FinancialProjection{newProjection(companyID, 2024)}))

		found, err := repo.FindByCompany(ctx, companyID)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, 2023, found[0].Assumptions.BaseYear)
		assert.Equal(t, "trend_extrapolation", found[0].Assumptions.GrowthSource)
		assert.True(t, found[0].Assumptions.GrowthRate.Equal(decimal.NewFromFloat(0.05)))
	})

	t.Run("does not touch other companies", func(t *testing.T) {
		companyA := uuid.New()
		companyB := uuid.New()
		require.NoError(t, repo.ReplaceForCompany(ctx, companyA, []financial.FinancialProjection{newProjection(companyA, 2024)}))
		require.NoError(t, repo.ReplaceForCompany(ctx, companyB, []financial.FinancialProjection{newProjection(companyB, 2024)}))

		require.NoError(t, repo.DeleteByCompany(ctx, companyA))

		found, err := repo.FindByCompany(ctx, companyB)
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})
}

func TestGormDocumentRepository_FindStalledProcessing(t *testing.T) {
	db := setupFinancialTestDB(t)
	repo := NewGormDocumentRepository(db)
	ctx := context.Background()

	companyID := uuid.New()

	payload := financial.DocumentPayload{
		{Source: financial.SourcePDFExtracted, Year: 2023, Fields: map[financial.Field]decimal.Decimal{financial.FieldRevenue: decimal.NewFromInt(1000)}},
	}

	newDoc := func(name string) *financial.FinancialDocument {
		doc, err := financial.NewFinancialDocument(companyID, name, "application/pdf", 1024, payload)
		require.NoError(t, err)
		return doc
	}

	t.Run("returns only documents processing since before the cutoff", func(t *testing.T) {
		stalled := newDoc("stalled.pdf")
		require.NoError(t, stalled.StartProcessing(time.Now().Add(-30*time.Minute)))
		require.NoError(t, repo.Save(ctx, stalled))

		fresh := newDoc("fresh.pdf")
		require.NoError(t, fresh.StartProcessing(time.Now()))
		require.NoError(t, repo.Save(ctx, fresh))

		pending := newDoc("pending.pdf")
		require.NoError(t, repo.Save(ctx, pending))

		found, err := repo.FindStalledProcessing(ctx, time.Now().Add(-10*time.Minute))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, stalled.ID, found[0].ID)
	})

	t.Run("round trips extracted years", func(t *testing.T) {
		doc := newDoc("report.pdf")
		require.NoError(t, doc.StartProcessing(time.Now()))
		require.NoError(t, doc.Complete(time.Now(), []int{2021, 2022, 2023}))
		require.NoError(t, repo.Save(ctx, doc))

		found, err := repo.FindByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{2021, 2022, 2023}, found.ExtractedYears)
		assert.Equal(t, financial.DocumentCompleted, found.Status)
	})

	t.Run("SaveWithStatements commits the document and statements together", func(t *testing.T) {
		statementRepo := NewGormStatementRepository(db)

		doc := newDoc("commit.pdf")
		require.NoError(t, doc.StartProcessing(time.Now()))
		require.NoError(t, doc.Complete(time.Now(), []int{2023}))

		stmt := newStatement(t, companyID, 2023, 1000)
		require.NoError(t, repo.SaveWithStatements(ctx, doc, []*financial.FinancialStatement{stmt}))

		found, err := repo.FindByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, financial.DocumentCompleted, found.Status)
		require.Len(t, found.RawPayload, 1)
		assert.Equal(t, 2023, found.RawPayload[0].Year)

		saved, err := statementRepo.FindByCompanyAndYear(ctx, companyID, 2023)
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.True(t, saved.Revenue.Equal(decimal.NewFromInt(1000)))
	})
}
