package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr             string   `mapstructure:"http_addr"`
	StoreURL             string   `mapstructure:"store_url"`
	CORSAllowedOrigins   []string `mapstructure:"-"`
	CORSAllowCredentials bool     `mapstructure:"cors_allow_credentials"`

	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timezone     string        `mapstructure:"timezone"`

	GeminiAPIKey string        `mapstructure:"gemini_api_key"`
	GeminiModel  string        `mapstructure:"gemini_model"`
	CopyTimeout  time.Duration `mapstructure:"copy_timeout"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	DebugRoutes      bool   `mapstructure:"debug_routes"`
	WeeklyReviewDay  string `mapstructure:"weekly_review_day"`
	MonthlyReportDay int    `mapstructure:"monthly_report_day"`
	MonthlyDedup     string `mapstructure:"monthly_dedup"`
	SnoozeMinutes    int    `mapstructure:"snooze_minutes"`
}

var defaults = map[string]any{
	"http_addr":              ":8080",
	"store_url":              "glucotrack.db",
	"cors_allowed_origins":   "",
	"cors_allow_credentials": false,
	"poll_interval":          "60s",
	"timezone":               "Local",
	"gemini_api_key":         "",
	"gemini_model":           "gemini-2.5-flash",
	"copy_timeout":           "10s",
	"log_level":              "info",
	"log_format":             "json",
	"log_file":               "",
	"debug_routes":           false,
	"weekly_review_day":      "sunday",
	"monthly_report_day":     1,
	"monthly_dedup":          "ever",
	"snooze_minutes":         15,
}

// Load reads .env, then layers defaults, an optional config file and
// GLUCO_* environment variables, in rising priority. An empty path looks
// for config.yaml in the working directory.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("GLUCO")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSAllowedOrigins = splitList(v.GetString("cors_allowed_origins"))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.StoreURL) == "" {
		return errors.New("config: store_url must not be empty")
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("config: poll_interval %s is below 1s", c.PollInterval)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	if _, err := c.WeeklyDay(); err != nil {
		return err
	}
	if c.MonthlyReportDay < 1 || c.MonthlyReportDay > 28 {
		return fmt.Errorf("config: monthly_report_day must be between 1 and 28, got %d", c.MonthlyReportDay)
	}
	switch c.MonthlyDedup {
	case "ever", "month":
	default:
		return fmt.Errorf("config: monthly_dedup must be ever or month, got %q", c.MonthlyDedup)
	}
	if c.SnoozeMinutes <= 0 {
		return fmt.Errorf("config: snooze_minutes must be positive, got %d", c.SnoozeMinutes)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("config: log_format must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// Location resolves Timezone. "Local" and "" mean the process zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c Config) WeeklyDay() (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(c.WeeklyReviewDay))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("config: unknown weekly_review_day %q", c.WeeklyReviewDay)
}

func splitList(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
