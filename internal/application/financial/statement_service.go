package financial

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/creditpm/backend/internal/application/validation"
	"github.com/creditpm/backend/internal/domain/company"
	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/creditpm/backend/internal/domain/memo"
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/creditpm/backend/internal/infrastructure/keylock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatementService provides application-level statement submission and
// retrieval. Writes to one (company, year) are serialized; merge across
// sources follows the normalizer's precedence policy. Every persisted
// submission appends a financial_uploaded entry, recording any field
// overwrites the merge performed.
type StatementService struct {
	companyRepo   company.Repository
	statementRepo financial.StatementRepository
	auditRepo     memo.AuditLogRepository
	normalizer    *financial.Normalizer
	locks         *keylock.KeyLock
	logger        *zap.Logger
}

// NewStatementService creates a new StatementService
func NewStatementService(
	companyRepo company.Repository,
	statementRepo financial.StatementRepository,
	auditRepo memo.AuditLogRepository,
	locks *keylock.KeyLock,
	logger *zap.Logger,
) *StatementService {
	return &StatementService{
		companyRepo:   companyRepo,
		statementRepo: statementRepo,
		auditRepo:     auditRepo,
		normalizer:    financial.NewNormalizer(),
		locks:         locks,
		logger:        logger,
	}
}

// SubmitStatementRequest represents one raw statement submission
type SubmitStatementRequest struct {
	Source         string             `json:"source" validate:"required"`
	Year           int                `json:"year" validate:"required"`
	PeriodStart    *time.Time         `json:"period_start"`
	PeriodEnd      *time.Time         `json:"period_end"`
	Currency       string             `json:"currency"`
	ConversionRate *decimal.Decimal   `json:"conversion_rate"`
	IsConsolidated bool               `json:"is_consolidated"`
	Employees      *int               `json:"employees"`
	Fields         map[string]float64 `json:"fields" validate:"required"`
	// Merge authorizes combining with an existing statement for the same
	// year. Without it a duplicate-year submission is a conflict.
	Merge bool `json:"merge"`
}

// BulkSubmitRequest submits several years in one call, all tagged with
// the same source
type BulkSubmitRequest struct {
	Source  string                   `json:"source" validate:"required"`
	Records []SubmitStatementRequest `json:"records" validate:"required"`
	Merge   bool                     `json:"merge"`
}

// StatementResponse represents a canonical statement in API responses
type StatementResponse struct {
	ID              uuid.UUID                  `json:"id"`
	CompanyID       uuid.UUID                  `json:"company_id"`
	Year            int                        `json:"year"`
	Currency        string                     `json:"currency"`
	IsConsolidated  bool                       `json:"is_consolidated"`
	Source          string                     `json:"source"`
	Employees       *int                       `json:"employees,omitempty"`
	Fields          map[string]decimal.Decimal `json:"fields"`
	FieldSources    map[string]string          `json:"field_sources"`
	Inconsistencies []string                   `json:"inconsistencies,omitempty"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

// SubmitResult is the outcome of one submission, including any field
// overwrites the merge performed
type SubmitResult struct {
	Statement  *StatementResponse        `json:"statement"`
	Merged     bool                      `json:"merged"`
	Overwrites []financial.FieldOverwrite `json:"overwrites,omitempty"`
}

// SubmitStatement normalizes and stores one raw statement record.
// A submission for a year that already has a canonical statement is a
// conflict unless the request carries merge intent.
func (s *StatementService) SubmitStatement(ctx context.Context, companyID uuid.UUID, req SubmitStatementRequest) (*SubmitResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	comp, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	rec, err := s.toRecord(req)
	if err != nil {
		return nil, err
	}

	var result *SubmitResult
	key := statementKey(companyID, req.Year)
	err = s.locks.Do(key, func() error {
		staged, err := s.stage(ctx, comp, *rec, req.Merge)
		if err != nil {
			return err
		}
		if err := s.statementRepo.Save(ctx, staged.statement); err != nil {
			return err
		}
		s.appendUploadAudit(ctx, companyID, rec.Source, rec.Year, staged.overwrites)
		result = &SubmitResult{
			Statement:  toStatementResponse(staged.statement),
			Merged:     staged.merged,
			Overwrites: staged.overwrites,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// stagedStatement is a normalized submission ready to persist
type stagedStatement struct {
	statement  *financial.FinancialStatement
	merged     bool
	overwrites []financial.FieldOverwrite
}

// stage normalizes the record and merges it against the stored year
// without persisting anything. Callers must hold the (company, year)
// lock.
func (s *StatementService) stage(ctx context.Context, comp *company.Company, rec financial.RawStatementRecord, merge bool) (*stagedStatement, error) {
	incoming, err := s.normalizer.Normalize(comp.ID, comp.Currency, rec)
	if err != nil {
		return nil, err
	}

	existing, err := s.statementRepo.FindByCompanyAndYear(ctx, comp.ID, rec.Year)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return &stagedStatement{statement: incoming}, nil
	}

	if !merge {
		return nil, shared.NewConflictError(fmt.Sprintf(
			"A statement for year %d already exists; resubmit with merge intent to combine sources", rec.Year))
	}
	overwrites, err := s.normalizer.Merge(existing, incoming)
	if err != nil {
		return nil, err
	}
	return &stagedStatement{statement: existing, merged: true, overwrites: overwrites}, nil
}

// appendUploadAudit records a persisted submission in the audit trail.
// The statement is already durable at this point; a failed append leaves
// a gap that is logged, not a rolled-back upload.
func (s *StatementService) appendUploadAudit(ctx context.Context, companyID uuid.UUID, source financial.StatementSource, year int, overwrites []financial.FieldOverwrite) {
	entry, err := memo.NewCompanyAuditEntry(companyID,
		memo.ActionFinancialUploaded,
		memo.SystemActor(string(source)),
		0,
		uploadDetails(source, year, overwrites))
	if err == nil {
		err = s.auditRepo.Append(ctx, entry)
	}
	if err != nil {
		s.logger.Warn("audit append for statement upload failed",
			zap.String("company_id", companyID.String()),
			zap.Int("year", year),
			zap.Error(err))
	}
}

// uploadDetails renders the submission and its overwrites for the audit
// trail, e.g. "year 2022 from manual; overwrote revenue=100 (scraped)".
func uploadDetails(source financial.StatementSource, year int, overwrites []financial.FieldOverwrite) string {
	var b strings.Builder
	fmt.Fprintf(&b, "year %d from %s", year, source)
	for i, ow := range overwrites {
		if i == 0 {
			b.WriteString("; overwrote ")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s (%s)", ow.Field, ow.PreviousValue, ow.PreviousSource)
	}
	return b.String()
}

// SubmitBulk submits several records, stopping at the first invalid one.
// Results are returned in record order.
func (s *StatementService) SubmitBulk(ctx context.Context, companyID uuid.UUID, req BulkSubmitRequest) ([]SubmitResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	results := make([]SubmitResult, 0, len(req.Records))
	for i, rec := range req.Records {
		rec.Source = req.Source
		if req.Merge {
			rec.Merge = true
		}
		r, err := s.SubmitStatement(ctx, companyID, rec)
		if err != nil {
			return results, fmt.Errorf("record %d (year %d): %w", i, rec.Year, err)
		}
		results = append(results, *r)
	}
	return results, nil
}

// GetStatement returns the canonical statement for one year
func (s *StatementService) GetStatement(ctx context.Context, companyID uuid.UUID, year int) (*StatementResponse, error) {
	stmt, err := s.statementRepo.FindByCompanyAndYear(ctx, companyID, year)
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return nil, shared.ErrNotFound
	}
	return toStatementResponse(stmt), nil
}

// ListStatements returns the company's statement history, oldest first
func (s *StatementService) ListStatements(ctx context.Context, companyID uuid.UUID) ([]StatementResponse, error) {
	stmts, err := s.statementRepo.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]StatementResponse, len(stmts))
	for i := range stmts {
		out[i] = *toStatementResponse(&stmts[i])
	}
	return out, nil
}

// GetRatios computes per-year ratio sets over the company's history
func (s *StatementService) GetRatios(ctx context.Context, companyID uuid.UUID) ([]financial.RatioSet, error) {
	stmts, err := s.statementRepo.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return financial.CalculateRatios(stmts), nil
}

// GetTrend computes trend statistics over the company's history
func (s *StatementService) GetTrend(ctx context.Context, companyID uuid.UUID) (financial.TrendStats, error) {
	stmts, err := s.statementRepo.FindByCompany(ctx, companyID)
	if err != nil {
		return financial.TrendStats{}, err
	}
	return financial.CalculateTrend(stmts), nil
}

func (s *StatementService) toRecord(req SubmitStatementRequest) (*financial.RawStatementRecord, error) {
	src := financial.StatementSource(req.Source)
	if !src.IsValid() {
		return nil, shared.NewValidationError("source", "Unknown statement source")
	}
	fields, err := financial.FieldsFromFloats(req.Fields)
	if err != nil {
		return nil, err
	}
	return &financial.RawStatementRecord{
		Source:         src,
		Year:           req.Year,
		PeriodStart:    req.PeriodStart,
		PeriodEnd:      req.PeriodEnd,
		Currency:       req.Currency,
		ConversionRate: req.ConversionRate,
		IsConsolidated: req.IsConsolidated,
		Employees:      req.Employees,
		Fields:         fields,
	}, nil
}

func statementKey(companyID uuid.UUID, year int) string {
	return fmt.Sprintf("statement:%s:%d", companyID, year)
}

func toStatementResponse(stmt *financial.FinancialStatement) *StatementResponse {
	fields := make(map[string]decimal.Decimal)
	sources := make(map[string]string)
	for _, f := range stmt.SetFields() {
		fields[string(f)] = *stmt.Get(f)
		if src, ok := stmt.SourceOf(f); ok {
			sources[string(f)] = string(src)
		}
	}
	return &StatementResponse{
		ID:              stmt.ID,
		CompanyID:       stmt.CompanyID,
		Year:            stmt.Year,
		Currency:        stmt.Currency,
		IsConsolidated:  stmt.IsConsolidated,
		Source:          string(stmt.Source),
		Employees:       stmt.Employees,
		Fields:          fields,
		FieldSources:    sources,
		Inconsistencies: stmt.Inconsistencies,
		CreatedAt:       stmt.CreatedAt,
		UpdatedAt:       stmt.UpdatedAt,
	}
}
