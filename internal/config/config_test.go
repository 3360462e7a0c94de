package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.StoreURL != "glucotrack.db" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.PollInterval != time.Minute || cfg.CopyTimeout != 10*time.Second {
		t.Errorf("durations = %s, %s", cfg.PollInterval, cfg.CopyTimeout)
	}
	if cfg.SnoozeMinutes != 15 || cfg.MonthlyReportDay != 1 || cfg.MonthlyDedup != "ever" {
		t.Errorf("engine defaults = %+v", cfg)
	}
	if d, _ := cfg.WeeklyDay(); d != time.Sunday {
		t.Errorf("WeeklyDay = %s", d)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := "http_addr: \":9090\"\nstore_url: \"memory://\"\ntimezone: \"Asia/Jakarta\"\npoll_interval: 30s\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GLUCO_HTTP_ADDR", ":7070")
	t.Setenv("GLUCO_CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://app.example.com")
	t.Setenv("GLUCO_MONTHLY_DEDUP", "month")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Errorf("HTTPAddr = %q, env should win", cfg.HTTPAddr)
	}
	if cfg.StoreURL != "memory://" || cfg.PollInterval != 30*time.Second {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if loc, err := cfg.Location(); err != nil || loc.String() != "Asia/Jakarta" {
		t.Errorf("Location = %v, %v", loc, err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://app.example.com" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.MonthlyDedup != "month" {
		t.Errorf("MonthlyDedup = %q", cfg.MonthlyDedup)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		StoreURL:         "memory://",
		PollInterval:     time.Minute,
		Timezone:         "UTC",
		WeeklyReviewDay:  "Sunday",
		MonthlyReportDay: 1,
		MonthlyDedup:     "ever",
		SnoozeMinutes:    15,
		LogFormat:        "json",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty store", func(c *Config) { c.StoreURL = " " }, "store_url"},
		{"fast poll", func(c *Config) { c.PollInterval = time.Millisecond }, "poll_interval"},
		{"bad zone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"bad weekday", func(c *Config) { c.WeeklyReviewDay = "someday" }, "weekly_review_day"},
		{"bad month day", func(c *Config) { c.MonthlyReportDay = 31 }, "monthly_report_day"},
		{"bad dedup", func(c *Config) { c.MonthlyDedup = "weekly" }, "monthly_dedup"},
		{"bad snooze", func(c *Config) { c.SnoozeMinutes = 0 }, "snooze_minutes"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}
