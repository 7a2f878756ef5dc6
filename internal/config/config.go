package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name below.
const EnvPrefix = "TALLY_"

type Config struct {
	Port            int      `env:"PORT" envDefault:"8080"`
	DBPath          string   `env:"DB_PATH" envDefault:"tally.db"`
	LogLevel        string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string   `env:"LOG_FORMAT" envDefault:"text"`
	DocumentKey     string   `env:"DOCUMENT_KEY" envDefault:"bleshi-points-data"`
	Timezone        string   `env:"TIMEZONE" envDefault:"Local"`
	RolloverTime    string   `env:"ROLLOVER_TIME" envDefault:"00:00"`
	AllowedOrigins  []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	ImportRateLimit int      `env:"IMPORT_RATE_LIMIT" envDefault:"10"`

	Backup BackupConfig `envPrefix:"BACKUP_"`
	Push   PushConfig   `envPrefix:"PUSH_"`
}

type BackupConfig struct {
	Enabled       bool   `env:"ENABLED" envDefault:"false"`
	Time          string `env:"TIME" envDefault:"03:00"`
	Passphrase    string `env:"PASSPHRASE"`
	RetentionDays int    `env:"RETENTION_DAYS" envDefault:"30"`
	S3Endpoint    string `env:"S3_ENDPOINT"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3Region      string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKey   string `env:"S3_ACCESS_KEY"`
	S3SecretKey   string `env:"S3_SECRET_KEY"`
}

// PushConfig enables task reminders when both VAPID keys are set.
type PushConfig struct {
	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	Subject         string `env:"SUBJECT" envDefault:"mailto:noreply@localhost"`
	ReminderTime    string `env:"REMINDER_TIME" envDefault:"18:00"`
}

func (p PushConfig) Enabled() bool {
	return p.VAPIDPublicKey != "" && p.VAPIDPrivateKey != ""
}

// Load reads the configuration from TALLY_* environment variables and
// validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%sPORT %d out of range", EnvPrefix, c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, fmt.Errorf("%sDB_PATH is empty", EnvPrefix))
	}
	if c.DocumentKey == "" {
		errs = append(errs, fmt.Errorf("%sDOCUMENT_KEY is empty", EnvPrefix))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, _, err := ParseClock(c.RolloverTime); err != nil {
		errs = append(errs, fmt.Errorf("%sROLLOVER_TIME: %w", EnvPrefix, err))
	}
	if c.Backup.Enabled {
		if _, _, err := ParseClock(c.Backup.Time); err != nil {
			errs = append(errs, fmt.Errorf("%sBACKUP_TIME: %w", EnvPrefix, err))
		}
		if c.Backup.Passphrase == "" {
			errs = append(errs, fmt.Errorf("%sBACKUP_PASSPHRASE is required when backups are enabled", EnvPrefix))
		}
		if c.Backup.S3Bucket == "" || c.Backup.S3AccessKey == "" || c.Backup.S3SecretKey == "" {
			errs = append(errs, fmt.Errorf("%sBACKUP_S3_BUCKET, _ACCESS_KEY and _SECRET_KEY are required when backups are enabled", EnvPrefix))
		}
	}
	if (c.Push.VAPIDPublicKey == "") != (c.Push.VAPIDPrivateKey == "") {
		errs = append(errs, fmt.Errorf("%sPUSH_VAPID_PUBLIC_KEY and %sPUSH_VAPID_PRIVATE_KEY must be set together", EnvPrefix, EnvPrefix))
	}
	if c.Push.Enabled() {
		if _, _, err := ParseClock(c.Push.ReminderTime); err != nil {
			errs = append(errs, fmt.Errorf("%sPUSH_REMINDER_TIME: %w", EnvPrefix, err))
		}
	}
	return errors.Join(errs...)
}

// Location resolves Timezone. "" and "Local" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%sTIMEZONE: %w", EnvPrefix, err)
	}
	return loc, nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ParseClock parses a 24-hour "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}
