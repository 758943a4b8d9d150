package financial

import (
	"testing"

	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func dp(v float64) *decimal.Decimal {
	x := decimal.NewFromFloat(v)
	return &x
}

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer()
	companyID := uuid.New()

	t.Run("derives totals from parts", func(t *testing.T) {
		stmt, err := n.Normalize(companyID, "SEK", RawStatementRecord{
			Source: SourceManual,
			Year:   2023,
			Fields: map[Field]decimal.Decimal{
				FieldRevenue:            d(1000),
				FieldCostOfGoodsSold:    d(400),
				FieldCurrentAssets:      d(300),
				FieldFixedAssets:        d(700),
				FieldOperatingCashFlow:  d(120),
				FieldInvestingCashFlow:  d(-50),
				FieldFinancingCashFlow:  d(-20),
			},
		})
		require.NoError(t, err)
		require.NotNil(t, stmt.GrossProfit)
		assert.True(t, stmt.GrossProfit.Equal(d(600)))
		require.NotNil(t, stmt.TotalAssets)
		assert.True(t, stmt.TotalAssets.Equal(d(1000)))
		require.NotNil(t, stmt.NetCashFlow)
		assert.True(t, stmt.NetCashFlow.Equal(d(50)))
		assert.Empty(t, stmt.Inconsistencies)

		src, ok := stmt.SourceOf(FieldGrossProfit)
		require.True(t, ok)
		assert.Equal(t, SourceManual, src)
	})

	t.Run("keeps explicit total and flags disagreement beyond tolerance", func(t *testing.T) {
		stmt, err := n.Normalize(companyID, "SEK", RawStatementRecord{
			Source: SourcePDFExtracted,
			Year:   2023,
			Fields: map[Field]decimal.Decimal{
				FieldCurrentAssets: d(300),
				FieldFixedAssets:   d(700),
				FieldTotalAssets:   d(1100),
			},
		})
		require.NoError(t, err)
		assert.True(t, stmt.TotalAssets.Equal(d(1100)), "explicit value must not be corrected")
		assert.Len(t, stmt.Inconsistencies, 1)
	})

	t.Run("accepts explicit total within tolerance", func(t *testing.T) {
		stmt, err := n.Normalize(companyID, "SEK", RawStatementRecord{
			Source: SourcePDFExtracted,
			Year:   2023,
			Fields: map[Field]decimal.Decimal{
				FieldCurrentAssets: d(300),
				FieldFixedAssets:   d(700),
				FieldTotalAssets:   d(1003),
			},
		})
		require.NoError(t, err)
		assert.True(t, stmt.TotalAssets.Equal(d(1003)))
		assert.Empty(t, stmt.Inconsistencies)
	})

	t.Run("applies conversion rate to foreign currency records", func(t *testing.T) {
		stmt, err := n.Normalize(companyID, "SEK", RawStatementRecord{
			Source:         SourceManual,
			Year:           2023,
			Currency:       "EUR",
			ConversionRate: dp(11.5),
			Fields:         map[Field]decimal.Decimal{FieldRevenue: d(100)},
		})
		require.NoError(t, err)
		assert.Equal(t, "SEK", stmt.Currency)
		assert.True(t, stmt.Revenue.Equal(d(1150)))
	})

	t.Run("rejects foreign currency without conversion rate", func(t *testing.T) {
		_, err := n.Normalize(companyID, "SEK", RawStatementRecord{
			Source:   SourceManual,
			Year:     2023,
			Currency: "EUR",
			Fields:   map[Field]decimal.Decimal{FieldRevenue: d(100)},
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects missing year", func(t *testing.T) {
		_, err := n.Normalize(companyID, "SEK", RawStatementRecord{
			Source: SourceManual,
			Fields: map[Field]decimal.Decimal{FieldRevenue: d(100)},
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects out of range year", func(t *testing.T) {
		_, err := n.Normalize(companyID, "SEK", RawStatementRecord{
			Source: SourceManual,
			Year:   1850,
			Fields: map[Field]decimal.Decimal{FieldRevenue: d(100)},
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestNormalizer_Merge(t *testing.T) {
	n := NewNormalizer()
	companyID := uuid.New()

	normalize := func(t *testing.T, src StatementSource, fields map[Field]decimal.Decimal) *FinancialStatement {
		t.Helper()
		stmt, err := n.Normalize(companyID, "SEK", RawStatementRecord{Source: src, Year: 2023, Fields: fields})
		require.NoError(t, err)
		return stmt
	}

	t.Run("higher precedence source overwrites and records the change", func(t *testing.T) {
		existing := normalize(t, SourceScraped, map[Field]decimal.Decimal{
			FieldRevenue: d(100),
			FieldEBITDA:  d(20),
		})
		incoming := normalize(t, SourceManual, map[Field]decimal.Decimal{FieldRevenue: d(110)})

		overwrites, err := n.Merge(existing, incoming)
		require.NoError(t, err)

		assert.True(t, existing.Revenue.Equal(d(110)))
		src, _ := existing.SourceOf(FieldRevenue)
		assert.Equal(t, SourceManual, src)
		assert.True(t, existing.EBITDA.Equal(d(20)), "untouched scraped field survives")

		require.Len(t, overwrites, 1)
		assert.Equal(t, FieldRevenue, overwrites[0].Field)
		assert.True(t, overwrites[0].PreviousValue.Equal(d(100)))
		assert.Equal(t, SourceScraped, overwrites[0].PreviousSource)
		assert.Equal(t, SourceManual, overwrites[0].NewSource)
	})

	t.Run("lower precedence source never overwrites", func(t *testing.T) {
		existing := normalize(t, SourceManual, map[Field]decimal.Decimal{FieldRevenue: d(110)})
		incoming := normalize(t, SourceScraped, map[Field]decimal.Decimal{
			FieldRevenue: d(90),
			FieldEBITDA:  d(15),
		})

		overwrites, err := n.Merge(existing, incoming)
		require.NoError(t, err)

		assert.True(t, existing.Revenue.Equal(d(110)), "manual value wins over scraped")
		assert.True(t, existing.EBITDA.Equal(d(15)), "scraped fills fields manual left empty")
		assert.Empty(t, overwrites)
	})

	t.Run("same source resubmission replaces its prior contribution entirely", func(t *testing.T) {
		existing := normalize(t, SourceScraped, map[Field]decimal.Decimal{
			FieldRevenue: d(100),
			FieldEBITDA:  d(20),
		})
		incoming := normalize(t, SourceScraped, map[Field]decimal.Decimal{FieldRevenue: d(105)})

		_, err := n.Merge(existing, incoming)
		require.NoError(t, err)

		assert.True(t, existing.Revenue.Equal(d(105)))
		assert.Nil(t, existing.EBITDA, "stale field from the prior scrape is dropped")
	})

	t.Run("re-derives totals after merge", func(t *testing.T) {
		existing := normalize(t, SourceScraped, map[Field]decimal.Decimal{
			FieldRevenue:         d(100),
			FieldCostOfGoodsSold: d(40),
		})
		require.True(t, existing.GrossProfit.Equal(d(60)))

		incoming := normalize(t, SourceManual, map[Field]decimal.Decimal{FieldCostOfGoodsSold: d(30)})
		_, err := n.Merge(existing, incoming)
		require.NoError(t, err)
		assert.True(t, existing.GrossProfit.Equal(d(70)))
	})

	t.Run("rejects mismatched year", func(t *testing.T) {
		existing := normalize(t, SourceScraped, map[Field]decimal.Decimal{FieldRevenue: d(100)})
		incoming, err := n.Normalize(companyID, "SEK", RawStatementRecord{
			Source: SourceManual,
			Year:   2022,
			Fields: map[Field]decimal.Decimal{FieldRevenue: d(90)},
		})
		require.NoError(t, err)

		_, err = n.Merge(existing, incoming)
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestFieldsFromFloats(t *testing.T) {
	t.Run("converts known fields", func(t *testing.T) {
		fields, err := FieldsFromFloats(map[string]float64{"revenue": 1234.5, "ebitda": -10})
		require.NoError(t, err)
		assert.True(t, fields[FieldRevenue].Equal(d(1234.5)))
		assert.True(t, fields[FieldEBITDA].Equal(d(-10)))
	})

	t.Run("rejects unknown field names", func(t *testing.T) {
		_, err := FieldsFromFloats(map[string]float64{"turnover": 1})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects non-finite values", func(t *testing.T) {
		_, err := FieldsFromFloats(map[string]float64{"revenue": nan()})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

func nan() float64 {
	var zero float64
	return zero / zero
}
