package financial

import (
	"context"
	"time"

	"github.com/creditpm/backend/internal/domain/company"
	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScrapeService refreshes a company's statement history from the
// external registry. Upstream calls run with a bounded timeout and
// exponential backoff; fetched years merge in as scraped-source records
// so they never displace manual or PDF-extracted values.
type ScrapeService struct {
	companyRepo      company.Repository
	registry         financial.UpstreamRegistry
	statementService *StatementService
	logger           *zap.Logger

	attempts       int
	initialBackoff time.Duration
	fetchTimeout   time.Duration
}

// NewScrapeService creates a new ScrapeService
func NewScrapeService(
	companyRepo company.Repository,
	registry financial.UpstreamRegistry,
	statementService *StatementService,
	logger *zap.Logger,
	attempts int,
	initialBackoff, fetchTimeout time.Duration,
) *ScrapeService {
	if attempts < 1 {
		attempts = 3
	}
	if initialBackoff <= 0 {
		initialBackoff = time.Second
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &ScrapeService{
		companyRepo:      companyRepo,
		registry:         registry,
		statementService: statementService,
		logger:           logger,
		attempts:         attempts,
		initialBackoff:   initialBackoff,
		fetchTimeout:     fetchTimeout,
	}
}

// RefreshResult summarizes one registry refresh
type RefreshResult struct {
	CompanyID      uuid.UUID `json:"company_id"`
	YearsFetched   []int     `json:"years_fetched"`
	YearsCommitted []int     `json:"years_committed"`
}

// RefreshCompany fetches the company's published statements and merges
// them into the canonical history.
func (s *ScrapeService) RefreshCompany(ctx context.Context, companyID uuid.UUID) (*RefreshResult, error) {
	comp, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	records, err := s.fetchWithRetry(ctx, comp.OrganizationNumber)
	if err != nil {
		return nil, err
	}

	result := &RefreshResult{CompanyID: companyID}
	for _, rec := range records {
		result.YearsFetched = append(result.YearsFetched, rec.Year)
		fields := make(map[string]float64, len(rec.Fields))
		for f, v := range rec.Fields {
			fv, _ := v.Float64()
			fields[string(f)] = fv
		}
		_, err := s.statementService.SubmitStatement(ctx, companyID, SubmitStatementRequest{
			Source:         string(financial.SourceScraped),
			Year:           rec.Year,
			Currency:       rec.Currency,
			ConversionRate: rec.ConversionRate,
			IsConsolidated: rec.IsConsolidated,
			Employees:      rec.Employees,
			Fields:         fields,
			Merge:          true,
		})
		if err != nil {
			s.logger.Warn("skipping scraped year",
				zap.String("org_number", comp.OrganizationNumber),
				zap.Int("year", rec.Year),
				zap.Error(err))
			continue
		}
		result.YearsCommitted = append(result.YearsCommitted, rec.Year)
	}
	s.logger.Info("registry refresh finished",
		zap.String("org_number", comp.OrganizationNumber),
		zap.Ints("years_committed", result.YearsCommitted))
	return result, nil
}

// FetchProfile retrieves registry master data with the retry policy
func (s *ScrapeService) FetchProfile(ctx context.Context, orgNumber string) (*financial.CompanyProfile, error) {
	var profile *financial.CompanyProfile
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		profile, err = s.registry.FetchProfile(ctx, orgNumber)
		return err
	})
	return profile, err
}

func (s *ScrapeService) fetchWithRetry(ctx context.Context, orgNumber string) ([]financial.RawStatementRecord, error) {
	var records []financial.RawStatementRecord
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		records, err = s.registry.FetchStatements(ctx, orgNumber)
		return err
	})
	return records, err
}

// withRetry retries transient upstream failures with doubling backoff.
// Validation failures and context cancellation are surfaced immediately.
func (s *ScrapeService) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := s.initialBackoff
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !shared.IsUpstream(err) || attempt == s.attempts {
			break
		}
		s.logger.Warn("upstream fetch failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return lastErr
}
