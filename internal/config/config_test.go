package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "tally.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "bleshi-points-data", cfg.DocumentKey)
	assert.Equal(t, "00:00", cfg.RolloverTime)
	assert.Equal(t, 10, cfg.ImportRateLimit)
	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, 30, cfg.Backup.RetentionDays)
	assert.Equal(t, "us-east-1", cfg.Backup.S3Region)
	assert.Equal(t, ":8080", cfg.Addr())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TALLY_PORT", "9090")
	t.Setenv("TALLY_DB_PATH", "/data/tally.db")
	t.Setenv("TALLY_TIMEZONE", "UTC")
	t.Setenv("TALLY_ROLLOVER_TIME", "04:30")
	t.Setenv("TALLY_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TALLY_BACKUP_ENABLED", "true")
	t.Setenv("TALLY_BACKUP_PASSPHRASE", "s3cret")
	t.Setenv("TALLY_BACKUP_S3_BUCKET", "tally")
	t.Setenv("TALLY_BACKUP_S3_ACCESS_KEY", "ak")
	t.Setenv("TALLY_BACKUP_S3_SECRET_KEY", "sk")
	t.Setenv("TALLY_BACKUP_RETENTION_DAYS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/data/tally.db", cfg.DBPath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Backup.Enabled)
	assert.Equal(t, "tally", cfg.Backup.S3Bucket)
	assert.Equal(t, 7, cfg.Backup.RetentionDays)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("TALLY_PORT", "not-a-port")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	t.Setenv("TALLY_TIMEZONE", "Mars/Olympus")
	t.Setenv("TALLY_ROLLOVER_TIME", "25:00")
	t.Setenv("TALLY_BACKUP_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "TALLY_TIMEZONE")
	assert.Contains(t, msg, "TALLY_ROLLOVER_TIME")
	assert.Contains(t, msg, "TALLY_BACKUP_PASSPHRASE")
	assert.Contains(t, msg, "TALLY_BACKUP_S3_BUCKET")
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("07:05")
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 5, m)

	for _, bad := range []string{"", "7", "24:00", "12:60", "noon"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestPushConfig(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Push.Enabled())
	assert.Equal(t, "18:00", cfg.Push.ReminderTime)

	t.Setenv("TALLY_PUSH_VAPID_PUBLIC_KEY", "pub")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be set together")

	t.Setenv("TALLY_PUSH_VAPID_PRIVATE_KEY", "priv")
	t.Setenv("TALLY_PUSH_REMINDER_TIME", "19:30")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.Push.Enabled())
	assert.Equal(t, "19:30", cfg.Push.ReminderTime)
}
