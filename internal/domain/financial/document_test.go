package financial

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinancialDocument_Lifecycle(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	payload := DocumentPayload{
		{Source: SourcePDFExtracted, Year: 2023, Fields: map[Field]decimal.Decimal{FieldRevenue: decimal.NewFromInt(1000)}},
	}

	newDoc := func(t *testing.T) *FinancialDocument {
		t.Helper()
		doc, err := NewFinancialDocument(uuid.New(), "arsredovisning-2023.pdf", "application/pdf", 1024, payload)
		require.NoError(t, err)
		return doc
	}

	t.Run("new document starts pending", func(t *testing.T) {
		doc := newDoc(t)
		assert.Equal(t, DocumentPending, doc.Status)
		assert.Nil(t, doc.StartedAt)
		assert.Len(t, doc.RawPayload, 1)
	})

	t.Run("requires a file name and positive size", func(t *testing.T) {
		_, err := NewFinancialDocument(uuid.New(), "", "application/pdf", 1024, payload)
		assert.Error(t, err)
		_, err = NewFinancialDocument(uuid.New(), "report.pdf", "application/pdf", 0, payload)
		assert.Error(t, err)
	})

	t.Run("requires at least one statement record", func(t *testing.T) {
		_, err := NewFinancialDocument(uuid.New(), "report.pdf", "application/pdf", 1024, nil)
		assert.Error(t, err)
	})

	t.Run("rejects duplicate years in the payload", func(t *testing.T) {
		dup := DocumentPayload{
			{Source: SourcePDFExtracted, Year: 2023, Fields: map[Field]decimal.Decimal{FieldRevenue: decimal.NewFromInt(1000)}},
			{Source: SourcePDFExtracted, Year: 2023, Fields: map[Field]decimal.Decimal{FieldRevenue: decimal.NewFromInt(1100)}},
		}
		_, err := NewFinancialDocument(uuid.New(), "report.pdf", "application/pdf", 1024, dup)
		assert.Error(t, err)
	})

	t.Run("pending to processing to completed", func(t *testing.T) {
		doc := newDoc(t)
		require.NoError(t, doc.StartProcessing(now))
		assert.Equal(t, DocumentProcessing, doc.Status)
		require.NotNil(t, doc.StartedAt)

		require.NoError(t, doc.Complete(now.Add(time.Minute), []int{2022, 2023}))
		assert.Equal(t, DocumentCompleted, doc.Status)
		assert.Equal(t, []int{2022, 2023}, doc.ExtractedYears)
		require.NotNil(t, doc.CompletedAt)
	})

	t.Run("pending to processing to failed", func(t *testing.T) {
		doc := newDoc(t)
		require.NoError(t, doc.StartProcessing(now))
		require.NoError(t, doc.Fail(now.Add(time.Minute), "no statement tables found"))
		assert.Equal(t, DocumentFailed, doc.Status)
		require.NotNil(t, doc.ErrorMessage)
		assert.Equal(t, "no statement tables found", *doc.ErrorMessage)
	})

	t.Run("terminal states reject further transitions", func(t *testing.T) {
		doc := newDoc(t)
		require.NoError(t, doc.StartProcessing(now))
		require.NoError(t, doc.Complete(now, nil))

		assert.Error(t, doc.StartProcessing(now))
		assert.Error(t, doc.Fail(now, "late failure"))
		assert.Error(t, doc.Reset(), "completed documents cannot be reprocessed")
	})

	t.Run("cannot complete or fail without processing first", func(t *testing.T) {
		doc := newDoc(t)
		assert.Error(t, doc.Complete(now, nil))
		assert.Error(t, doc.Fail(now, "boom"))
	})

	t.Run("reset returns a failed document to pending", func(t *testing.T) {
		doc := newDoc(t)
		require.NoError(t, doc.StartProcessing(now))
		require.NoError(t, doc.Fail(now, "transient"))

		require.NoError(t, doc.Reset())
		assert.Equal(t, DocumentPending, doc.Status)
		assert.Nil(t, doc.StartedAt)
		assert.Nil(t, doc.ErrorMessage)
		assert.Len(t, doc.RawPayload, 1, "the payload survives a reset so the document can be recommitted")

		require.NoError(t, doc.StartProcessing(now))
		assert.Equal(t, DocumentProcessing, doc.Status)
	})

	t.Run("reset recovers a stalled processing document", func(t *testing.T) {
		doc := newDoc(t)
		require.NoError(t, doc.StartProcessing(now))
		require.NoError(t, doc.Reset())
		assert.Equal(t, DocumentPending, doc.Status)
	})
}
