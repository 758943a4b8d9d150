package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	analysisapp "github.com/creditpm/backend/internal/application/analysis"
	companyapp "github.com/creditpm/backend/internal/application/company"
	financialapp "github.com/creditpm/backend/internal/application/financial"
	memoapp "github.com/creditpm/backend/internal/application/memo"
	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/creditpm/backend/internal/infrastructure/ai/openrouter"
	"github.com/creditpm/backend/internal/infrastructure/config"
	"github.com/creditpm/backend/internal/infrastructure/keylock"
	"github.com/creditpm/backend/internal/infrastructure/logger"
	"github.com/creditpm/backend/internal/infrastructure/persistence"
	"github.com/creditpm/backend/internal/infrastructure/upstream/allabolag"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// services is the composition root. Transports (CLI tooling, future
// API surfaces) pick the services they need from here; the daemon
// itself only drives the document recovery sweep.
type services struct {
	Company    *companyapp.CompanyService
	Statement  *financialapp.StatementService
	Scrape     *financialapp.ScrapeService
	Document   *financialapp.DocumentService
	Projection *financialapp.ProjectionService
	Analysis   *analysisapp.AnalysisService
	Case       *memoapp.CaseService
	Section    *memoapp.SectionService
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting credit PM backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	svc := buildServices(cfg, db, log)
	log.Info("Services initialized")

	// Start the stalled-document sweep loop
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		runStalledDocumentSweep(sweepCtx, svc.Document, cfg.Documents.SweepInterval, log)
	}()
	log.Info("Stalled document sweep started",
		zap.Duration("interval", cfg.Documents.SweepInterval),
		zap.Duration("processing_timeout", cfg.Documents.ProcessingTimeout),
	)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	cancelSweep()
	select {
	case <-sweepDone:
	case <-time.After(30 * time.Second):
		log.Warn("Sweep loop did not stop in time")
	}

	log.Info("Exited gracefully")
}

// buildServices wires repositories, upstream clients, and application
// services onto the shared database connection.
func buildServices(cfg *config.Config, db *persistence.Database, log *zap.Logger) *services {
	// Repositories
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	statementRepo := persistence.NewGormStatementRepository(db.DB)
	projectionRepo := persistence.NewGormProjectionRepository(db.DB)
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	caseRepo := persistence.NewGormCaseRepository(db.DB)
	sectionRepo := persistence.NewGormSectionRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)
	analysisRepo := persistence.NewGormAnalysisRepository(db.DB)

	// Upstream registry and narrative model clients
	registry := allabolag.NewClient(allabolag.Config{
		BaseURL:   cfg.Scraper.BaseURL,
		UserAgent: cfg.Scraper.UserAgent,
		Timeout:   cfg.Scraper.FetchTimeout,
	})
	modelClient := openrouter.NewClient(openrouter.Config{
		APIKey:      cfg.Analysis.APIKey,
		BaseURL:     cfg.Analysis.BaseURL,
		Model:       cfg.Analysis.Model,
		Temperature: cfg.Analysis.Temperature,
	})
	log.Info("Narrative model configured", zap.String("model", modelClient.ModelVersion()))

	// Per-company serialization for statement writes and per-section
	// serialization for memo updates share one keyed mutex.
	locks := keylock.New()

	statementService := financialapp.NewStatementService(companyRepo, statementRepo, auditRepo, locks, log)
	engine := financial.NewProjectionEngine(financial.EngineConfig{
		DefaultGrowthRate:           decimal.NewFromFloat(cfg.Projection.DefaultGrowthRate),
		OCFFallbackFraction:         decimal.NewFromFloat(cfg.Projection.OCFFallbackFraction),
		HighConfidenceMaxVolatility: decimal.NewFromFloat(cfg.Projection.HighConfMaxVolatility),
	})

	return &services{
		Company:   companyapp.NewCompanyService(companyRepo, registry),
		Statement: statementService,
		Scrape: financialapp.NewScrapeService(
			companyRepo, registry, statementService, log,
			cfg.Scraper.Attempts, cfg.Scraper.InitialBackoff, cfg.Scraper.FetchTimeout,
		),
		Document: financialapp.NewDocumentService(
			documentRepo, statementService, log, cfg.Documents.ProcessingTimeout,
		),
		Projection: financialapp.NewProjectionService(
			statementRepo, projectionRepo, engine, cfg.Projection.DefaultHorizon,
		),
		Analysis: analysisapp.NewAnalysisService(
			companyRepo, statementRepo, projectionRepo, analysisRepo, auditRepo,
			modelClient, log, cfg.Analysis.ContextYears,
		),
		Case: memoapp.NewCaseService(caseRepo, companyRepo),
		Section: memoapp.NewSectionService(
			caseRepo, sectionRepo, auditRepo, companyRepo, modelClient, locks, log,
		),
	}
}

// runStalledDocumentSweep periodically requeues documents stuck in
// processing past the configured timeout. It returns when the context
// is cancelled.
func runStalledDocumentSweep(ctx context.Context, docs *financialapp.DocumentService, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			requeued, err := docs.RequeueStalled(ctx)
			if err != nil {
				log.Error("Stalled document sweep failed", zap.Error(err))
				continue
			}
			if requeued > 0 {
				log.Info("Requeued stalled documents", zap.Int("count", requeued))
			}
		}
	}
}
