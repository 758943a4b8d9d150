package financial

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentStatus is the processing state of an uploaded financial document
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
)

// IsValid checks whether the status is a known value
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentPending, DocumentProcessing, DocumentCompleted, DocumentFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentCompleted || s == DocumentFailed
}

// DocumentPayload holds the raw extracted field/value records of a
// document, kept on the document row so a requeued or completed document
// retains exactly what was submitted.
type DocumentPayload []RawStatementRecord

// Value implements driver.Valuer for JSONB storage
func (p DocumentPayload) Value() (driver.Value, error) {
	if p == nil {
		p = DocumentPayload{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB retrieval
func (p *DocumentPayload) Scan(value interface{}) error {
	if value == nil {
		*p = DocumentPayload{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into DocumentPayload", value)
	}
	return json.Unmarshal(b, p)
}

// FinancialDocument tracks one uploaded source document (typically an
// annual report PDF) through extraction. Transitions are strictly
// pending -> processing -> completed or failed; completed and failed are
// terminal. Reprocessing requires a Reset back to pending first.
type FinancialDocument struct {
	shared.BaseEntity
	CompanyID    uuid.UUID
	FileName     string
	ContentType  string
	SizeBytes    int64
	Status       DocumentStatus
	ErrorMessage *string
	// RawPayload is the extracted record set the document was submitted
	// with. It survives Reset so a requeued document can be recommitted.
	RawPayload DocumentPayload
	// ExtractedYears lists the statement years committed from this
	// document, set on completion.
	ExtractedYears []int
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// NewFinancialDocument registers an uploaded document in pending state
// together with its extracted payload
func NewFinancialDocument(companyID uuid.UUID, fileName, contentType string, sizeBytes int64, payload DocumentPayload) (*FinancialDocument, error) {
	if fileName == "" {
		return nil, shared.NewValidationError("file_name", "File name is required")
	}
	if sizeBytes <= 0 {
		return nil, shared.NewValidationError("size_bytes", "Document size must be positive")
	}
	if len(payload) == 0 {
		return nil, shared.NewValidationError("records", "Document payload carries no statement records")
	}
	seen := make(map[int]bool, len(payload))
	for _, rec := range payload {
		if seen[rec.Year] {
			return nil, shared.NewValidationError("records", fmt.Sprintf("Duplicate year %d in document payload", rec.Year))
		}
		seen[rec.Year] = true
	}
	return &FinancialDocument{
		BaseEntity:  shared.NewBaseEntity(),
		CompanyID:   companyID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		Status:      DocumentPending,
		RawPayload:  payload,
	}, nil
}

// StartProcessing moves a pending document into processing
func (d *FinancialDocument) StartProcessing(now time.Time) error {
	if d.Status != DocumentPending {
		return shared.NewInvalidStateError("document", string(d.Status), string(DocumentProcessing))
	}
	d.Status = DocumentProcessing
	d.StartedAt = &now
	d.ErrorMessage = nil
	d.Touch()
	return nil
}

// Complete marks a processing document as successfully extracted
func (d *FinancialDocument) Complete(now time.Time, extractedYears []int) error {
	if d.Status != DocumentProcessing {
		return shared.NewInvalidStateError("document", string(d.Status), string(DocumentCompleted))
	}
	d.Status = DocumentCompleted
	d.ExtractedYears = extractedYears
	d.CompletedAt = &now
	d.Touch()
	return nil
}

// Fail marks a processing document as failed with a diagnostic message
func (d *FinancialDocument) Fail(now time.Time, reason string) error {
	if d.Status != DocumentProcessing {
		return shared.NewInvalidStateError("document", string(d.Status), string(DocumentFailed))
	}
	d.Status = DocumentFailed
	d.ErrorMessage = &reason
	d.CompletedAt = &now
	d.Touch()
	return nil
}

// Reset returns a failed or stalled-processing document to pending so it
// can be picked up again. The raw payload is retained for the retry.
// Completed documents cannot be reset.
func (d *FinancialDocument) Reset() error {
	if d.Status != DocumentFailed && d.Status != DocumentProcessing {
		return shared.NewInvalidStateError("document", string(d.Status), string(DocumentPending))
	}
	d.Status = DocumentPending
	d.StartedAt = nil
	d.CompletedAt = nil
	d.ErrorMessage = nil
	d.ExtractedYears = nil
	d.Touch()
	return nil
}
