package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Log        LogConfig
	Projection ProjectionConfig
	Analysis   AnalysisConfig
	Scraper    ScraperConfig
	Documents  DocumentsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// ProjectionConfig holds projection engine settings
type ProjectionConfig struct {
	DefaultHorizon        int
	DefaultGrowthRate     float64
	OCFFallbackFraction   float64
	HighConfMaxVolatility float64
}

// AnalysisConfig holds narrative generation settings
type AnalysisConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float64
	ContextYears int
	Timeout      time.Duration
}

// ScraperConfig holds upstream registry settings
type ScraperConfig struct {
	BaseURL        string
	UserAgent      string
	Attempts       int
	InitialBackoff time.Duration
	FetchTimeout   time.Duration
}

// DocumentsConfig holds document processing settings
type DocumentsConfig struct {
	ProcessingTimeout time.Duration
	SweepInterval     time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CREDITPM_ prefix (e.g., CREDITPM_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("CREDITPM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Projection: ProjectionConfig{
			DefaultHorizon:        v.GetInt("projection.default_horizon"),
			DefaultGrowthRate:     v.GetFloat64("projection.default_growth_rate"),
			OCFFallbackFraction:   v.GetFloat64("projection.ocf_fallback_fraction"),
			HighConfMaxVolatility: v.GetFloat64("projection.high_confidence_max_volatility"),
		},
		Analysis: AnalysisConfig{
			APIKey:       v.GetString("analysis.api_key"),
			BaseURL:      v.GetString("analysis.base_url"),
			Model:        v.GetString("analysis.model"),
			Temperature:  v.GetFloat64("analysis.temperature"),
			ContextYears: v.GetInt("analysis.context_years"),
			Timeout:      v.GetDuration("analysis.timeout"),
		},
		Scraper: ScraperConfig{
			BaseURL:        v.GetString("scraper.base_url"),
			UserAgent:      v.GetString("scraper.user_agent"),
			Attempts:       v.GetInt("scraper.attempts"),
			InitialBackoff: v.GetDuration("scraper.initial_backoff"),
			FetchTimeout:   v.GetDuration("scraper.fetch_timeout"),
		},
		Documents: DocumentsConfig{
			ProcessingTimeout: v.GetDuration("documents.processing_timeout"),
			SweepInterval:     v.GetDuration("documents.sweep_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "creditpm-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "creditpm"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Projection.DefaultHorizon == 0 {
		cfg.Projection.DefaultHorizon = 3
	}
	if cfg.Projection.DefaultGrowthRate == 0 {
		cfg.Projection.DefaultGrowthRate = 0.05
	}
	if cfg.Projection.OCFFallbackFraction == 0 {
		cfg.Projection.OCFFallbackFraction = 0.8
	}
	if cfg.Projection.HighConfMaxVolatility == 0 {
		cfg.Projection.HighConfMaxVolatility = 0.15
	}
	if cfg.Analysis.BaseURL == "" {
		cfg.Analysis.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Analysis.Model == "" {
		cfg.Analysis.Model = "openai/gpt-4o"
	}
	if cfg.Analysis.Temperature == 0 {
		cfg.Analysis.Temperature = 0.3
	}
	if cfg.Analysis.ContextYears == 0 {
		cfg.Analysis.ContextYears = 5
	}
	if cfg.Analysis.Timeout == 0 {
		cfg.Analysis.Timeout = 60 * time.Second
	}
	if cfg.Scraper.BaseURL == "" {
		cfg.Scraper.BaseURL = "https://www.allabolag.se"
	}
	if cfg.Scraper.UserAgent == "" {
		cfg.Scraper.UserAgent = "creditpm-backend/1.0"
	}
	if cfg.Scraper.Attempts == 0 {
		cfg.Scraper.Attempts = 3
	}
	if cfg.Scraper.InitialBackoff == 0 {
		cfg.Scraper.InitialBackoff = time.Second
	}
	if cfg.Scraper.FetchTimeout == 0 {
		cfg.Scraper.FetchTimeout = 30 * time.Second
	}
	if cfg.Documents.ProcessingTimeout == 0 {
		cfg.Documents.ProcessingTimeout = 10 * time.Minute
	}
	if cfg.Documents.SweepInterval == 0 {
		cfg.Documents.SweepInterval = time.Minute
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Projection.DefaultHorizon < 1 || c.Projection.DefaultHorizon > 10 {
		return fmt.Errorf("projection.default_horizon must be between 1 and 10, got %d", c.Projection.DefaultHorizon)
	}
	if c.Projection.OCFFallbackFraction <= 0 || c.Projection.OCFFallbackFraction > 1 {
		return fmt.Errorf("projection.ocf_fallback_fraction must be in (0, 1], got %f", c.Projection.OCFFallbackFraction)
	}
	if c.Analysis.ContextYears < 1 {
		return fmt.Errorf("analysis.context_years must be positive")
	}
	if c.Scraper.Attempts < 1 {
		return fmt.Errorf("scraper.attempts must be positive")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Analysis.APIKey == "" {
			return fmt.Errorf("analysis.api_key is required in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
