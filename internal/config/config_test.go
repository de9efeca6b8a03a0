package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

// isolate points every lookup at an empty temp dir and clears the
// environment variables Load reads.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MORGUE_CONFIG", filepath.Join(dir, "missing.toml"))
	t.Setenv("XDG_CACHE_HOME", dir)
	for _, key := range []string{
		"DOMAIN", "ACCOUNT_EMAIL", "ACCOUNT_PASSWORD",
		"MORGUE_SWEEP_INTERVAL", "MORGUE_SCHEDULE", "MORGUE_NAVIGATION_TIMEOUT", "MORGUE_MAX_FAILURES",
		"MORGUE_HEADLESS", "MORGUE_SESSION_DB", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
	return dir
}

// setCredentials sets the settings Load requires.
func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("DOMAIN", "social.example")
	t.Setenv("ACCOUNT_EMAIL", "admin@social.example")
	t.Setenv("ACCOUNT_PASSWORD", "hunter2")
}

func TestDefaultSessionDB(t *testing.T) {
	t.Run("with XDG_CACHE_HOME", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "/custom/cache")

		path := DefaultSessionDB()
		if path != "/custom/cache/morgue/session.db" {
			t.Errorf("DefaultSessionDB() = %q, want %q", path, "/custom/cache/morgue/session.db")
		}
	})

	t.Run("without XDG_CACHE_HOME", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")

		path := DefaultSessionDB()
		if !strings.HasSuffix(path, filepath.Join(".cache", "morgue", "session.db")) {
			t.Errorf("DefaultSessionDB() = %q, want suffix .cache/morgue/session.db", path)
		}
	})
}

func TestDefaultConfigFile(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		t.Setenv("MORGUE_CONFIG", "/etc/morgue.toml")
		if got := DefaultConfigFile(); got != "/etc/morgue.toml" {
			t.Errorf("DefaultConfigFile() = %q, want %q", got, "/etc/morgue.toml")
		}
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("MORGUE_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got := DefaultConfigFile(); got != "/custom/config/morgue/config.toml" {
			t.Errorf("DefaultConfigFile() = %q, want %q", got, "/custom/config/morgue/config.toml")
		}
	})
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Interval() != 30*time.Minute {
		t.Errorf("Interval() = %v, want 30m", cfg.Interval())
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %v, want 30s", cfg.Timeout())
	}
	if cfg.MaxConsecutiveFailures != 3 {
		t.Errorf("MaxConsecutiveFailures = %d, want 3", cfg.MaxConsecutiveFailures)
	}
	if !cfg.Headless {
		t.Error("Headless = false, want true")
	}
	if cfg.StatusAddr != ":8080" {
		t.Errorf("StatusAddr = %q, want %q", cfg.StatusAddr, ":8080")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		missing string
	}{
		{"nothing set", nil, "DOMAIN"},
		{"no email", map[string]string{"DOMAIN": "social.example"}, "ACCOUNT_EMAIL"},
		{"no password", map[string]string{"DOMAIN": "social.example", "ACCOUNT_EMAIL": "admin@social.example"}, "ACCOUNT_PASSWORD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if !errors.Is(err, ErrMissing) {
				t.Fatalf("Load() error = %v, want ErrMissing", err)
			}
			if !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("Load() error = %q, want it to name %s", err, tt.missing)
			}
		})
	}
}

func TestLoad_FromEnv(t *testing.T) {
	isolate(t)
	setCredentials(t)
	t.Setenv("MORGUE_SWEEP_INTERVAL", "5m")
	t.Setenv("MORGUE_HEADLESS", "false")
	t.Setenv("MORGUE_STATUS_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Domain != "social.example" {
		t.Errorf("Domain = %q, want %q", cfg.Domain, "social.example")
	}
	if cfg.Interval() != 5*time.Minute {
		t.Errorf("Interval() = %v, want 5m", cfg.Interval())
	}
	if cfg.Headless {
		t.Error("Headless = true, want false")
	}
	if cfg.StatusAddr != "" {
		t.Errorf("StatusAddr = %q, want empty", cfg.StatusAddr)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"MORGUE_SWEEP_INTERVAL", "half an hour"},
		{"MORGUE_NAVIGATION_TIMEOUT", "30"},
		{"MORGUE_MAX_FAILURES", "three"},
		{"MORGUE_HEADLESS", "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			isolate(t)
			setCredentials(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Load() = %+v, %v, want ErrInvalid", cfg, err)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("Load() error = %q, want it to name %s", err, tt.key)
			}
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	content := `
domain = "file.example"
account_email = "file@file.example"
account_password = "from-file"
sweep_interval = "10m"
navigation_timeout = "45s"
max_consecutive_failures = 5
session_db = "/var/lib/morgue/session.db"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MORGUE_CONFIG", path)
	t.Setenv("DOMAIN", "env.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Domain != "env.example" {
		t.Errorf("Domain = %q, want %q", cfg.Domain, "env.example")
	}
	if cfg.AccountEmail != "file@file.example" {
		t.Errorf("AccountEmail = %q, want %q", cfg.AccountEmail, "file@file.example")
	}
	if cfg.Interval() != 10*time.Minute {
		t.Errorf("Interval() = %v, want 10m", cfg.Interval())
	}
	if cfg.Timeout() != 45*time.Second {
		t.Errorf("Timeout() = %v, want 45s", cfg.Timeout())
	}
	if cfg.MaxConsecutiveFailures != 5 {
		t.Errorf("MaxConsecutiveFailures = %d, want 5", cfg.MaxConsecutiveFailures)
	}
	if cfg.SessionDB != "/var/lib/morgue/session.db" {
		t.Errorf("SessionDB = %q, want %q", cfg.SessionDB, "/var/lib/morgue/session.db")
	}
}

func TestLoad_BadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`sweep_interval = "soon"`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MORGUE_CONFIG", path)

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Errorf("Load() error = %v, want read config error", err)
	}
}

func TestValidate_NegativeFailures(t *testing.T) {
	cfg := Defaults()
	cfg.Domain = "social.example"
	cfg.AccountEmail = "admin@social.example"
	cfg.AccountPassword = "hunter2"
	cfg.MaxConsecutiveFailures = -1

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error")
	}
}

func TestSweepSchedule(t *testing.T) {
	base := time.Date(2026, 10, 19, 12, 7, 0, 0, time.UTC)

	tests := []struct {
		name     string
		schedule string
		interval time.Duration
		want     time.Time
		wantErr  bool
	}{
		{"interval", "", 30 * time.Minute, time.Date(2026, 10, 19, 12, 37, 0, 0, time.UTC), false},
		{"cron expression wins", "*/15 * * * *", 30 * time.Minute, time.Date(2026, 10, 19, 12, 15, 0, 0, time.UTC), false},
		{"descriptor", "@hourly", 30 * time.Minute, time.Date(2026, 10, 19, 13, 0, 0, 0, time.UTC), false},
		{"invalid expression", "every now and then", 30 * time.Minute, time.Time{}, true},
		{"zero interval", "", 0, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Schedule = tt.schedule
			cfg.SweepInterval.Duration = tt.interval

			sched, err := cfg.SweepSchedule()
			if tt.wantErr {
				if err == nil {
					t.Error("SweepSchedule() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("SweepSchedule() error = %v", err)
			}
			if got := sched.Next(base); !got.Equal(tt.want) {
				t.Errorf("Next(%v) = %v, want %v", base, got, tt.want)
			}
		})
	}

	cfg := Defaults()
	if sched, _ := cfg.SweepSchedule(); sched != cron.Every(30*time.Minute) {
		t.Errorf("default schedule = %#v, want constant 30m delay", sched)
	}
}
