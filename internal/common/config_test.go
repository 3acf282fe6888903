package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.True(t, config.Scheduler.Enabled)
	assert.Equal(t, "*/10 * * * *", config.Scheduler.EngagementSchedule)
	assert.Equal(t, 2*time.Second, config.Sync.ItemDelay.Std())
	assert.Equal(t, 15, config.Failover.StaleMinutes)
	assert.Equal(t, 5, config.Outbound.MaxRetries)
	assert.Equal(t, time.Hour, config.Outbound.BackoffCap.Std())

	require.NoError(t, config.Validate())
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.toml")
	content := `
environment = "production"

[scheduler]
enabled = false
engagement_schedule = "*/15 * * * *"

[sync]
max_hashtags = 3

[outbound]
max_retries = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.True(t, config.IsProduction())
	assert.False(t, config.Scheduler.Enabled)
	assert.Equal(t, "*/15 * * * *", config.Scheduler.EngagementSchedule)
	assert.Equal(t, 3, config.Sync.MaxHashtags)
	assert.Equal(t, 2, config.Outbound.MaxRetries)

	// Untouched keys keep their defaults
	assert.Equal(t, "*/30 * * * *", config.Scheduler.UGCSchedule)
	assert.Equal(t, 5*time.Second, config.Sync.AccountDelay.Std())
}

func TestLoadFromFileParsesDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.toml")
	content := `
[sync]
item_delay = "750ms"
account_delay = "10s"

[outbound]
poll_interval = "2s"
backoff_base = "30s"
backoff_cap = "30m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, config.Sync.ItemDelay.Std())
	assert.Equal(t, 10*time.Second, config.Sync.AccountDelay.Std())
	assert.Equal(t, 2*time.Second, config.Outbound.PollInterval.Std())
	assert.Equal(t, 30*time.Second, config.Outbound.BackoffBase.Std())
	assert.Equal(t, 30*time.Minute, config.Outbound.BackoffCap.Std())
}

func TestLoadFromFileRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.toml")
	content := `
[outbound]
backoff_cap = "an hour"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PULSE_LOG_LEVEL", "debug")
	t.Setenv("PULSE_SCHEDULER_ENABLED", "false")
	t.Setenv("PULSE_SYNC_ITEM_DELAY", "500ms")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Logging.Level)
	assert.False(t, config.Scheduler.Enabled)
	assert.Equal(t, 500*time.Millisecond, config.Sync.ItemDelay.Std())
}

func TestValidateJobSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"every ten minutes", "*/10 * * * *", false},
		{"every six hours", "0 */6 * * *", false},
		{"specific time", "30 4 * * 1", false},
		{"empty", "", true},
		{"garbage", "not a schedule", true},
		{"six fields", "0 0 * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJobSchedule(tt.schedule)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
