package financial

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/creditpm/backend/internal/application/validation"
	"github.com/creditpm/backend/internal/domain/company"
	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentService tracks uploaded financial documents through extraction
// and commits the extracted statements. Status transitions and extracted
// payloads are committed together so a crash never leaves a completed
// payload behind a stale status.
type DocumentService struct {
	documentRepo      financial.DocumentRepository
	statementService  *StatementService
	logger            *zap.Logger
	processingTimeout time.Duration
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	documentRepo financial.DocumentRepository,
	statementService *StatementService,
	logger *zap.Logger,
	processingTimeout time.Duration,
) *DocumentService {
	if processingTimeout <= 0 {
		processingTimeout = 10 * time.Minute
	}
	return &DocumentService{
		documentRepo:      documentRepo,
		statementService:  statementService,
		logger:            logger,
		processingTimeout: processingTimeout,
	}
}

// ParsedRecord is one extracted statement year from a document
type ParsedRecord struct {
	Year           int                `json:"year" validate:"required"`
	Currency       string             `json:"currency"`
	IsConsolidated bool               `json:"is_consolidated"`
	Employees      *int               `json:"employees"`
	Fields         map[string]float64 `json:"fields" validate:"required"`
}

// SubmitParsedDocumentRequest submits a parsed-document payload
type SubmitParsedDocumentRequest struct {
	FileName    string         `json:"file_name" validate:"required"`
	ContentType string         `json:"content_type"`
	SizeBytes   int64          `json:"size_bytes" validate:"required"`
	Records     []ParsedRecord `json:"records" validate:"required"`
}

// DocumentResponse represents a document's parsing status
type DocumentResponse struct {
	ID             uuid.UUID  `json:"id"`
	CompanyID      uuid.UUID  `json:"company_id"`
	FileName       string     `json:"file_name"`
	Status         string     `json:"status"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	ExtractedYears []int      `json:"extracted_years,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SubmitParsedDocument registers the document with its raw payload and
// commits the extracted records as pdf_extracted statements. The
// statements and the terminal document status are committed in one
// transaction; a failed run persists no statements at all.
func (s *DocumentService) SubmitParsedDocument(ctx context.Context, companyID uuid.UUID, req SubmitParsedDocumentRequest) (*DocumentResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	payload := make(financial.DocumentPayload, 0, len(req.Records))
	for _, rec := range req.Records {
		raw, err := s.statementService.toRecord(SubmitStatementRequest{
			Source:         string(financial.SourcePDFExtracted),
			Year:           rec.Year,
			Currency:       rec.Currency,
			IsConsolidated: rec.IsConsolidated,
			Employees:      rec.Employees,
			Fields:         rec.Fields,
		})
		if err != nil {
			return nil, err
		}
		payload = append(payload, *raw)
	}
	doc, err := financial.NewFinancialDocument(companyID, req.FileName, req.ContentType, req.SizeBytes, payload)
	if err != nil {
		return nil, err
	}
	comp, err := s.statementService.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := s.documentRepo.Save(ctx, doc); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := doc.StartProcessing(now); err != nil {
		return nil, err
	}
	if err := s.documentRepo.Save(ctx, doc); err != nil {
		return nil, err
	}

	return s.commitPayload(ctx, comp, doc)
}

// commitPayload stages every payload record under its year lock and
// commits the statements together with the terminal document status.
func (s *DocumentService) commitPayload(ctx context.Context, comp *company.Company, doc *financial.FinancialDocument) (*DocumentResponse, error) {
	keys := make([]string, 0, len(doc.RawPayload))
	for _, rec := range doc.RawPayload {
		keys = append(keys, statementKey(comp.ID, rec.Year))
	}
	// Locks are taken in sorted order so concurrent commits over
	// overlapping years cannot deadlock.
	sort.Strings(keys)
	for _, k := range keys {
		s.statementService.locks.Lock(k)
	}
	defer func() {
		for i := len(keys) - 1; i >= 0; i-- {
			s.statementService.locks.Unlock(keys[i])
		}
	}()

	staged := make([]*stagedStatement, 0, len(doc.RawPayload))
	years := make([]int, 0, len(doc.RawPayload))
	var stageErr error
	for _, rec := range doc.RawPayload {
		st, err := s.statementService.stage(ctx, comp, rec, true)
		if err != nil {
			stageErr = fmt.Errorf("year %d: %w", rec.Year, err)
			break
		}
		staged = append(staged, st)
		years = append(years, rec.Year)
	}

	finished := time.Now().UTC()
	if stageErr != nil {
		s.logger.Warn("document extraction failed",
			zap.String("document_id", doc.ID.String()),
			zap.String("file_name", doc.FileName),
			zap.Error(stageErr))
		if ferr := doc.Fail(finished, stageErr.Error()); ferr != nil {
			return nil, ferr
		}
		if err := s.documentRepo.Save(ctx, doc); err != nil {
			return nil, err
		}
		return toDocumentResponse(doc), nil
	}

	if err := doc.Complete(finished, years); err != nil {
		return nil, err
	}
	statements := make([]*financial.FinancialStatement, len(staged))
	for i, st := range staged {
		statements[i] = st.statement
	}
	if err := s.documentRepo.SaveWithStatements(ctx, doc, statements); err != nil {
		return nil, err
	}
	for i, st := range staged {
		s.statementService.appendUploadAudit(ctx, comp.ID, financial.SourcePDFExtracted, years[i], st.overwrites)
	}
	s.logger.Info("document extraction completed",
		zap.String("document_id", doc.ID.String()),
		zap.Ints("years", years))
	return toDocumentResponse(doc), nil
}

// GetDocument returns the parsing status of one document
func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.documentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// ListDocuments returns the company's documents
func (s *DocumentService) ListDocuments(ctx context.Context, companyID uuid.UUID) ([]DocumentResponse, error) {
	docs, err := s.documentRepo.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = *toDocumentResponse(&docs[i])
	}
	return out, nil
}

// RequeueStalled resets documents whose processing state outlived the
// timeout and recommits their retained payloads, so a crash
// mid-extraction never wedges a document forever. Returns the number of
// documents requeued.
func (s *DocumentService) RequeueStalled(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.processingTimeout)
	stalled, err := s.documentRepo.FindStalledProcessing(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	requeued := 0
	for i := range stalled {
		doc := &stalled[i]
		if err := doc.Reset(); err != nil {
			continue
		}
		if err := s.documentRepo.Save(ctx, doc); err != nil {
			return requeued, err
		}
		s.logger.Warn("requeued stalled document",
			zap.String("document_id", doc.ID.String()),
			zap.String("file_name", doc.FileName))
		requeued++
		if err := s.recommit(ctx, doc); err != nil {
			s.logger.Warn("recommit of requeued document failed",
				zap.String("document_id", doc.ID.String()),
				zap.Error(err))
		}
	}
	return requeued, nil
}

// recommit runs a requeued document through extraction again using its
// retained payload
func (s *DocumentService) recommit(ctx context.Context, doc *financial.FinancialDocument) error {
	comp, err := s.statementService.companyRepo.FindByID(ctx, doc.CompanyID)
	if err != nil {
		return err
	}
	if err := doc.StartProcessing(time.Now().UTC()); err != nil {
		return err
	}
	if err := s.documentRepo.Save(ctx, doc); err != nil {
		return err
	}
	_, err = s.commitPayload(ctx, comp, doc)
	return err
}

func toDocumentResponse(doc *financial.FinancialDocument) *DocumentResponse {
	return &DocumentResponse{
		ID:             doc.ID,
		CompanyID:      doc.CompanyID,
		FileName:       doc.FileName,
		Status:         string(doc.Status),
		ErrorMessage:   doc.ErrorMessage,
		ExtractedYears: doc.ExtractedYears,
		StartedAt:      doc.StartedAt,
		CompletedAt:    doc.CompletedAt,
		CreatedAt:      doc.CreatedAt,
	}
}
