package persistence

import (
	"context"
	"testing"

	"github.com/creditpm/backend/internal/domain/analysis"
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/creditpm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAnalysisTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.FinancialAnalysisModel{})
	require.NoError(t, err)

	return db
}

func newAnalysis(companyID uuid.UUID, version int) *analysis.FinancialAnalysis {
	revenue := decimal.NewFromInt(1000)
	return &analysis.FinancialAnalysis{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		Version:    version,
		Summary:    "Stable revenue with moderate leverage.",
		KeyMetrics: analysis.KeyMetrics{LatestRevenue: &revenue},
		RiskAssessment: analysis.RiskAssessment{
			OverallRisk: analysis.RiskMedium,
			RiskFactors: []string{"customer concentration"},
			Score:       55,
		},
		Recommendations: analysis.StringList{"Approve with covenants"},
		ModelVersion:    "gpt-4o",
	}
}

func TestGormAnalysisRepository(t *testing.T) {
	db := setupAnalysisTestDB(t)
	repo := NewGormAnalysisRepository(db)
	ctx := context.Background()

	t.Run("NextVersion starts at 1 and increments", func(t *testing.T) {
		companyID := uuid.New()

		v, err := repo.NextVersion(ctx, companyID)
		require.NoError(t, err)
		assert.Equal(t, 1, v)

		require.NoError(t, repo.Save(ctx, newAnalysis(companyID, 1)))

		v, err = repo.NextVersion(ctx, companyID)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	t.Run("FindLatestByCompany returns the highest version", func(t *testing.T) {
		companyID := uuid.New()
		require.NoError(t, repo.Save(ctx, newAnalysis(companyID, 1)))
		require.NoError(t, repo.Save(ctx, newAnalysis(companyID, 2)))

		latest, err := repo.FindLatestByCompany(ctx, companyID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, 2, latest.Version)
	})

	t.Run("FindLatestByCompany returns nil when none exists", func(t *testing.T) {
		latest, err := repo.FindLatestByCompany(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("round trips risk assessment and key metrics", func(t *testing.T) {
		companyID := uuid.New()
		require.NoError(t, repo.Save(ctx, newAnalysis(companyID, 1)))

		found, err := repo.FindLatestByCompany(ctx, companyID)
		require.NoError(t, err)
		assert.Equal(t, analysis.RiskMedium, found.RiskAssessment.OverallRisk)
		assert.Equal(t, 55, found.RiskAssessment.Score)
		require.NotNil(t, found.KeyMetrics.LatestRevenue)
		assert.True(t, found.KeyMetrics.LatestRevenue.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, analysis.StringList{"Approve with covenants"}, found.Recommendations)
	})

	t.Run("FindByID returns ErrNotFound for missing analysis", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
