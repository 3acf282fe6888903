package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Duration decodes TOML duration strings ("2s", "500ms", "1h") into config
// fields. go-toml only decodes strings into types implementing
// encoding.TextUnmarshaler, so a bare time.Duration field would reject every
// duration key.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the wrapped value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Sync        SyncConfig      `toml:"sync"`
	Failover    FailoverConfig  `toml:"failover"`
	Outbound    OutboundConfig  `toml:"outbound"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// SchedulerConfig holds the cron schedules for the proactive sync cycles and
// the heartbeat failover monitor. Each schedule is independently configurable;
// an invalid expression disables that job only, never the whole process.
type SchedulerConfig struct {
	Enabled            bool   `toml:"enabled"`
	EngagementSchedule string `toml:"engagement_schedule"`
	UGCSchedule        string `toml:"ugc_schedule"`
	InsightsSchedule   string `toml:"insights_schedule"`
	HeartbeatSchedule  string `toml:"heartbeat_schedule"`
}

// SyncConfig bounds the per-cycle work against the upstream graph API.
type SyncConfig struct {
	ItemDelay            Duration `toml:"item_delay"`    // Delay between upstream calls within one account, e.g. "2s"
	AccountDelay         Duration `toml:"account_delay"` // Delay between accounts within one cycle, e.g. "5s"
	MaxRecentMedia       int      `toml:"max_recent_media" validate:"min=1"`
	MaxOpenConversations int      `toml:"max_open_conversations" validate:"min=1"`
	MaxHashtags          int      `toml:"max_hashtags" validate:"min=1"`
	MaxInsightsMedia     int      `toml:"max_insights_media" validate:"min=1"`
}

// FailoverConfig controls heartbeat staleness detection. StaleMinutes serves
// both the agent-down threshold and the scheduled-post failover threshold.
type FailoverConfig struct {
	StaleMinutes     int `toml:"stale_minutes" validate:"min=1"`
	MissedBeatsAlert int `toml:"missed_beats_alert" validate:"min=1"`
}

// OutboundConfig controls the delivery worker and its retry backoff.
type OutboundConfig struct {
	PollInterval Duration `toml:"poll_interval"` // e.g. "5s"
	BackoffBase  Duration `toml:"backoff_base"`  // e.g. "1m"
	BackoffCap   Duration `toml:"backoff_cap"`   // e.g. "1h"
	MaxRetries   int      `toml:"max_retries" validate:"min=1"`
	BatchSize    int      `toml:"batch_size" validate:"min=1"` // Max due rows claimed per poll
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Scheduler: SchedulerConfig{
			Enabled:            true,
			EngagementSchedule: "*/10 * * * *", // Every 10 minutes
			UGCSchedule:        "*/30 * * * *", // Every 30 minutes
			InsightsSchedule:   "0 */6 * * *",  // Every 6 hours
			HeartbeatSchedule:  "*/5 * * * *",  // Every 5 minutes
		},
		Sync: SyncConfig{
			ItemDelay:            Duration(2 * time.Second),
			AccountDelay:         Duration(5 * time.Second),
			MaxRecentMedia:       10,
			MaxOpenConversations: 20,
			MaxHashtags:          5,
			MaxInsightsMedia:     25,
		},
		Failover: FailoverConfig{
			StaleMinutes:     15,
			MissedBeatsAlert: 3,
		},
		Outbound: OutboundConfig{
			PollInterval: Duration(5 * time.Second),
			BackoffBase:  Duration(1 * time.Minute),
			BackoffCap:   Duration(1 * time.Hour),
			MaxRetries:   5,
			BatchSize:    20,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files. Later files override
// earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints on the loaded configuration. Cron
// expressions are deliberately not validated here; a bad expression must only
// prevent that one job from registering.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PULSE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Storage configuration
	if badgerPath := os.Getenv("PULSE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("PULSE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("PULSE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	// Scheduler configuration
	if enabled := os.Getenv("PULSE_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("PULSE_ENGAGEMENT_SCHEDULE"); schedule != "" {
		config.Scheduler.EngagementSchedule = schedule
	}
	if schedule := os.Getenv("PULSE_UGC_SCHEDULE"); schedule != "" {
		config.Scheduler.UGCSchedule = schedule
	}
	if schedule := os.Getenv("PULSE_INSIGHTS_SCHEDULE"); schedule != "" {
		config.Scheduler.InsightsSchedule = schedule
	}
	if schedule := os.Getenv("PULSE_HEARTBEAT_SCHEDULE"); schedule != "" {
		config.Scheduler.HeartbeatSchedule = schedule
	}

	// Sync configuration
	if itemDelay := os.Getenv("PULSE_SYNC_ITEM_DELAY"); itemDelay != "" {
		if d, err := time.ParseDuration(itemDelay); err == nil {
			config.Sync.ItemDelay = Duration(d)
		}
	}
	if accountDelay := os.Getenv("PULSE_SYNC_ACCOUNT_DELAY"); accountDelay != "" {
		if d, err := time.ParseDuration(accountDelay); err == nil {
			config.Sync.AccountDelay = Duration(d)
		}
	}

	// Failover configuration
	if staleMinutes := os.Getenv("PULSE_FAILOVER_STALE_MINUTES"); staleMinutes != "" {
		if m, err := strconv.Atoi(staleMinutes); err == nil && m > 0 {
			config.Failover.StaleMinutes = m
		}
	}

	// Outbound configuration
	if pollInterval := os.Getenv("PULSE_OUTBOUND_POLL_INTERVAL"); pollInterval != "" {
		if d, err := time.ParseDuration(pollInterval); err == nil {
			config.Outbound.PollInterval = Duration(d)
		}
	}
	if maxRetries := os.Getenv("PULSE_OUTBOUND_MAX_RETRIES"); maxRetries != "" {
		if mr, err := strconv.Atoi(maxRetries); err == nil && mr > 0 {
			config.Outbound.MaxRetries = mr
		}
	}
}

// ValidateJobSchedule validates a standard 5-field cron schedule expression.
func ValidateJobSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
