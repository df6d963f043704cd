// Package config loads and validates all runtime configuration from the
// environment (optionally seeded from a .env file). Fail-fast: invalid
// values abort startup.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config aggregates every policy group consumed by the pipeline.
type Config struct {
	App        AppConfig
	Store      StoreConfig
	Transport  TransportConfig
	Collector  CollectorConfig
	Scorer     ScorerConfig
	Applicator ApplicatorConfig
	Server     ServerConfig
	Auto       AutoConfig
}

type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Headless bool   `envconfig:"HEADLESS" default:"true"`
}

type StoreConfig struct {
	// Path of the SQLite backing file holding job_records and run_records.
	Path string `envconfig:"STORE_PATH" default:"jobpilot.db"`
	// BusyTimeout bounds how long a writer waits for the file lock before
	// the run aborts.
	BusyTimeout time.Duration `envconfig:"STORE_BUSY_TIMEOUT" default:"5s"`
}

type TransportConfig struct {
	Timeout           time.Duration `envconfig:"HTTP_TIMEOUT" default:"8s"`
	Retries           int           `envconfig:"RETRIES" default:"3"`
	BackoffBase       time.Duration `envconfig:"BACKOFF_BASE" default:"700ms"`
	BackoffCap        time.Duration `envconfig:"BACKOFF_CAP" default:"4500ms"`
	JitterFrac        float64       `envconfig:"BACKOFF_JITTER_FRAC" default:"0"`
	RetryStatuses     []int         `envconfig:"RETRY_STATUSES" default:"429,500,502,503,504"`
	RateLimitEnabled  bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitInterval time.Duration `envconfig:"RATE_LIMIT_INTERVAL" default:"2s"`
	UserAgent         string        `envconfig:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	Proxy             string        `envconfig:"PROXY" default:""`
}

type CollectorConfig struct {
	SourceURLs        []string `envconfig:"SOURCE_URLS" default:""`
	MaxScrolls        int      `envconfig:"MAX_SCROLLS" default:"40"`
	MaxJobsCollected  int      `envconfig:"MAX_JOBS_COLLECTED" default:"500"`
	FetchDescriptions bool     `envconfig:"FETCH_DESCRIPTIONS" default:"true"`
	FilterByLanguage  bool     `envconfig:"FILTER_BY_LANGUAGE" default:"true"`
	AllowedLangs      []string `envconfig:"ALLOWED_LANGS" default:"en"`
	KeepUnknownLang   bool     `envconfig:"KEEP_UNKNOWN_LANG" default:"true"`
	CardSelector      string   `envconfig:"CARD_SELECTOR" default:"article[data-testid='job-search-result']"`
}

type ApplicatorConfig struct {
	MaxActionsPerRun int           `envconfig:"MAX_ACTIONS_PER_RUN" default:"1"`
	ActionInterval   time.Duration `envconfig:"ACTION_INTERVAL" default:"20s"`
	DryRun           bool          `envconfig:"DRY_RUN" default:"false"`
	// ConfirmApply must be set explicitly for irreversible submissions;
	// when false, a real submission is a deliberate no-op.
	ConfirmApply  bool   `envconfig:"CONFIRM_APPLY" default:"false"`
	ApplySelector string `envconfig:"APPLY_SELECTOR" default:"button[data-testid*='apply']"`
	// SuccessSelector, when set, must become visible after the click for
	// the attempt to count as APPLIED.
	SuccessSelector string        `envconfig:"SUCCESS_SELECTOR" default:""`
	ControlTimeout  time.Duration `envconfig:"CONTROL_TIMEOUT" default:"6s"`
}

type ServerConfig struct {
	Port            string        `envconfig:"SERVER_PORT" default:":8080"`
	RateLimitMax    int           `envconfig:"SERVER_RATE_LIMIT_MAX" default:"50"`
	RateLimitWindow time.Duration `envconfig:"SERVER_RATE_LIMIT_WINDOW" default:"1m"`
}

type AutoConfig struct {
	IntervalHours int `envconfig:"AUTO_INTERVAL_HOURS" default:"4"`
}

// Load reads the optional .env file and the JOBPILOT_* environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	cfg := new(Config)
	if err := envconfig.Process("jobpilot", cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Transport.Retries < 1 {
		return fmt.Errorf("JOBPILOT_RETRIES must be >= 1, got %d", c.Transport.Retries)
	}
	if c.Transport.BackoffBase < 0 || c.Transport.BackoffCap < 0 {
		return fmt.Errorf("backoff base/cap must not be negative")
	}
	if c.Transport.JitterFrac < 0 || c.Transport.JitterFrac > 1 {
		return fmt.Errorf("JOBPILOT_BACKOFF_JITTER_FRAC must be in [0,1], got %g", c.Transport.JitterFrac)
	}
	if c.Applicator.MaxActionsPerRun < 0 {
		return fmt.Errorf("JOBPILOT_MAX_ACTIONS_PER_RUN must not be negative")
	}
	if c.Scorer.MinScore < 0 || c.Scorer.MinScore > 10 {
		return fmt.Errorf("JOBPILOT_RELEVANCE_THRESHOLD must be in [0,10], got %g", c.Scorer.MinScore)
	}
	return nil
}
