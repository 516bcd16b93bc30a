// Package config provides unified configuration loading for etpflow.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for etpflow.
type Config struct {
	Telegram      TelegramConfig      `yaml:"telegram"`
	Browser       BrowserConfig       `yaml:"browser"`
	Lookup        LookupConfig        `yaml:"lookup"`
	Portal        PortalConfig        `yaml:"portal"`
	Output        OutputConfig        `yaml:"output"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// TelegramConfig holds chat-transport settings.
type TelegramConfig struct {
	Token       string `yaml:"token"`
	PollTimeout int    `yaml:"poll_timeout"`
}

// BrowserConfig holds headless browser settings.
type BrowserConfig struct {
	Headless   bool          `yaml:"headless"`
	NavTimeout time.Duration `yaml:"nav_timeout"`
}

// LookupConfig holds permit lookup page settings.
type LookupConfig struct {
	// BaseURL is the per-identifier lookup endpoint; the identifier is
	// appended as the eId query value.
	BaseURL   string `yaml:"base_url"`
	MPBaseURL string `yaml:"mp_base_url"`
}

// PortalConfig holds credentials for the issuing portal login.
type PortalConfig struct {
	LoginURL string `yaml:"login_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// OutputConfig holds generated-document storage settings.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	ClearOnStart bool   `yaml:"clear_on_start"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment
// overrides. A .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeout: 60,
		},
		Browser: BrowserConfig{
			Headless:   true,
			NavTimeout: 20 * time.Second,
		},
		Lookup: LookupConfig{
			BaseURL:   "https://upmines.upsdc.gov.in/Registration/PrintRegistrationFormVehicleCheckValidOrNot.aspx?eId=",
			MPBaseURL: "https://eparimahan.mp.gov.in/Registration/PrintRegistrationFormVehicleCheckValidOrNot.aspx?eId=",
		},
		Portal: PortalConfig{
			LoginURL: "https://upmines.upsdc.gov.in/Registration/login.aspx",
		},
		Output: OutputConfig{
			Dir:          "pdf",
			ClearOnStart: true,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Lookup.BaseURL == "" {
		return fmt.Errorf("lookup base_url is required")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output dir is required")
	}

	if c.Browser.NavTimeout <= 0 {
		return fmt.Errorf("browser nav_timeout must be positive")
	}

	if c.Telegram.PollTimeout < 0 {
		return fmt.Errorf("telegram poll_timeout must not be negative")
	}

	return nil
}

// LookupURL returns the canonical lookup URL for one identifier.
func (c *Config) LookupURL(identifier string) string {
	return c.Lookup.BaseURL + identifier
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}

	if v := os.Getenv("ETPFLOW_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}

	if v := os.Getenv("ETPFLOW_LOOKUP_URL"); v != "" {
		cfg.Lookup.BaseURL = v
	}

	if v := os.Getenv("PORTAL_USERNAME"); v != "" {
		cfg.Portal.Username = v
	}

	if v := os.Getenv("PORTAL_PASSWORD"); v != "" {
		cfg.Portal.Password = v
	}

	if v := os.Getenv("ETPFLOW_HEADLESS"); v != "" {
		if headless, err := strconv.ParseBool(v); err == nil {
			cfg.Browser.Headless = headless
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
