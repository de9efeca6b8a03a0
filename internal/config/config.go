package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

var (
	// ErrMissing is returned when a required setting is absent.
	ErrMissing = errors.New("required setting is not set")
	// ErrInvalid is returned when an environment setting cannot be parsed.
	ErrInvalid = errors.New("invalid setting")
)

// Config holds application configuration.
type Config struct {
	Domain                 string   `toml:"domain"`
	AccountEmail           string   `toml:"account_email"`
	AccountPassword        string   `toml:"account_password"`
	SweepInterval          duration `toml:"sweep_interval"`
	Schedule               string   `toml:"schedule"`
	NavigationTimeout      duration `toml:"navigation_timeout"`
	MaxConsecutiveFailures int      `toml:"max_consecutive_failures"`
	Headless               bool     `toml:"headless"`
	StatusAddr             string   `toml:"status_addr"`
	SessionDB              string   `toml:"session_db"`
	LogLevel               string   `toml:"log_level"`
	LogFormat              string   `toml:"log_format"`
}

// duration lets TOML files use strings like "30m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// DefaultSessionDB returns the default session database path using XDG_CACHE_HOME.
func DefaultSessionDB() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "morgue", "session.db")
}

// DefaultConfigFile returns the config file path, honouring MORGUE_CONFIG
// and XDG_CONFIG_HOME.
func DefaultConfigFile() string {
	if path := os.Getenv("MORGUE_CONFIG"); path != "" {
		return path
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "morgue", "config.toml")
}

// Defaults returns a Config with every optional setting filled in.
func Defaults() *Config {
	return &Config{
		SweepInterval:          duration{30 * time.Minute},
		NavigationTimeout:      duration{30 * time.Second},
		MaxConsecutiveFailures: 3,
		Headless:               true,
		StatusAddr:             ":8080",
		SessionDB:              DefaultSessionDB(),
		LogLevel:               "info",
		LogFormat:              "text",
	}
}

// Load builds Config from defaults, the optional config file, a .env file
// in the working directory and the environment, in that order.
func Load() (*Config, error) {
	cfg := Defaults()

	if err := cfg.loadFile(DefaultConfigFile()); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DOMAIN"); v != "" {
		c.Domain = v
	}
	if v := os.Getenv("ACCOUNT_EMAIL"); v != "" {
		c.AccountEmail = v
	}
	if v := os.Getenv("ACCOUNT_PASSWORD"); v != "" {
		c.AccountPassword = v
	}
	if v := os.Getenv("MORGUE_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return invalid("MORGUE_SWEEP_INTERVAL", v, err)
		}
		c.SweepInterval.Duration = d
	}
	if v := os.Getenv("MORGUE_SCHEDULE"); v != "" {
		c.Schedule = v
	}
	if v := os.Getenv("MORGUE_NAVIGATION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return invalid("MORGUE_NAVIGATION_TIMEOUT", v, err)
		}
		c.NavigationTimeout.Duration = d
	}
	if v := os.Getenv("MORGUE_MAX_FAILURES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return invalid("MORGUE_MAX_FAILURES", v, err)
		}
		c.MaxConsecutiveFailures = n
	}
	if v := os.Getenv("MORGUE_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return invalid("MORGUE_HEADLESS", v, err)
		}
		c.Headless = b
	}
	if v, ok := os.LookupEnv("MORGUE_STATUS_ADDR"); ok {
		c.StatusAddr = v
	}
	if v := os.Getenv("MORGUE_SESSION_DB"); v != "" {
		c.SessionDB = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	return nil
}

func invalid(key, value string, err error) error {
	return fmt.Errorf("%s=%q: %w: %v", key, value, ErrInvalid, err)
}

// Validate checks that the console host and credentials are present.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"DOMAIN", c.Domain},
		{"ACCOUNT_EMAIL", c.AccountEmail},
		{"ACCOUNT_PASSWORD", c.AccountPassword},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s: %w", r.name, ErrMissing)
		}
	}
	if c.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("max_consecutive_failures must not be negative, got %d", c.MaxConsecutiveFailures)
	}
	if _, err := c.SweepSchedule(); err != nil {
		return err
	}
	return nil
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// SweepSchedule returns when sweeps run. A cron expression in Schedule
// wins over SweepInterval; otherwise sweeps are SweepInterval apart.
func (c *Config) SweepSchedule() (cron.Schedule, error) {
	if c.Schedule != "" {
		sched, err := scheduleParser.Parse(c.Schedule)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
		}
		return sched, nil
	}
	if c.Interval() <= 0 {
		return nil, fmt.Errorf("sweep_interval must be positive, got %s", c.Interval())
	}
	return cron.Every(c.Interval()), nil
}

// Interval returns the pause between sweeps.
func (c *Config) Interval() time.Duration { return c.SweepInterval.Duration }

// Timeout returns the navigation timeout.
func (c *Config) Timeout() time.Duration { return c.NavigationTimeout.Duration }
