package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the job runner.
type Config struct {
	DatabaseURL string `yaml:"database_url"`
	// CronSecret guards the trigger endpoints. Empty leaves them open.
	CronSecret string `yaml:"cron_secret"`
	HTTPAddr   string `yaml:"http_addr"`
	// Timezone decides what "today" means for the recurrence job.
	Timezone string `yaml:"timezone"`
	// RecurringTasksAt is the HH:MM time the recurrence job runs each day.
	RecurringTasksAt string        `yaml:"recurring_tasks_at"`
	ReminderInterval time.Duration `yaml:"-"`
	ReminderWindow   time.Duration `yaml:"-"`
	TelegramToken    string        `yaml:"telegram_token"`
	LogLevel         string        `yaml:"log_level"`
	LogPretty        bool          `yaml:"log_pretty"`

	ReminderIntervalMinutes int `yaml:"reminder_interval_minutes"`
	ReminderWindowMinutes   int `yaml:"reminder_window_minutes"`

	logPrettyErr error
}

// Load reads an optional YAML file and then environment variables, which win.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.CronSecret, "CRON_SECRET")
	overrideString(&cfg.HTTPAddr, "HTTP_ADDR")
	overrideString(&cfg.Timezone, "TIMEZONE")
	overrideString(&cfg.RecurringTasksAt, "RECURRING_TASKS_AT")
	overrideString(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")
	if raw := strings.TrimSpace(os.Getenv("LOG_PRETTY")); raw != "" {
		pretty, err := strconv.ParseBool(raw)
		if err != nil {
			cfg.logPrettyErr = fmt.Errorf("LOG_PRETTY %q: %w", raw, err)
		} else {
			cfg.LogPretty = pretty
		}
	}
	cfg.ReminderIntervalMinutes = overrideInt(cfg.ReminderIntervalMinutes, "REMINDER_INTERVAL_MINUTES")
	cfg.ReminderWindowMinutes = overrideInt(cfg.ReminderWindowMinutes, "REMINDER_WINDOW_MINUTES")

	applyDefaults(&cfg)
	return cfg, cfg.Validate()
}

func applyDefaults(cfg *Config) {
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "chronicle.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.RecurringTasksAt == "" {
		cfg.RecurringTasksAt = "00:05"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.ReminderIntervalMinutes <= 0 {
		cfg.ReminderIntervalMinutes = 5
	}
	if cfg.ReminderWindowMinutes <= 0 {
		cfg.ReminderWindowMinutes = cfg.ReminderIntervalMinutes
	}
	cfg.ReminderInterval = time.Duration(cfg.ReminderIntervalMinutes) * time.Minute
	cfg.ReminderWindow = time.Duration(cfg.ReminderWindowMinutes) * time.Minute
}

// Validate checks values that would otherwise fail late inside a job.
func (c Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if _, _, err := ParseClock(c.RecurringTasksAt); err != nil {
		errs = append(errs, fmt.Errorf("recurring_tasks_at: %w", err))
	}
	// Reminder ticks land on interval boundaries: a wider window sends twice,
	// a narrower one skips reminder times that fall between ticks.
	if c.ReminderWindow != c.ReminderInterval {
		errs = append(errs, fmt.Errorf("reminder window %s must equal interval %s", c.ReminderWindow, c.ReminderInterval))
	}
	if c.logPrettyErr != nil {
		errs = append(errs, c.logPrettyErr)
	}
	return errors.Join(errs...)
}

// Location returns the configured timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseClock parses an HH:MM string.
func ParseClock(raw string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour, minute, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func overrideInt(current int, key string) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return current
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return current
	}
	return n
}
