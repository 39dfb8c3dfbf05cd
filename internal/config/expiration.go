package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// EnvDryRun enables dry run when set to "true" (case-insensitive).
	// Any other non-empty value disables it.
	EnvDryRun = "DRY_RUN"

	EnvExpirationInterval     = "WARDEN_EXPIRATION_INTERVAL"
	EnvExpirationRunTimeout   = "WARDEN_EXPIRATION_RUN_TIMEOUT"
	EnvExpirationReportPrefix = "WARDEN_EXPIRATION_REPORT_PREFIX"
)

// ExpirationConfig controls the expiration reconciliation run.
type ExpirationConfig struct {
	DryRun       bool   `toml:"dry_run"`
	Interval     string `toml:"interval"`
	RunTimeout   string `toml:"run_timeout"`
	ReportPrefix string `toml:"report_prefix"`
}

// IntervalDuration returns Interval as a time.Duration.
func (c *ExpirationConfig) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

// RunTimeoutDuration returns RunTimeout as a time.Duration.
func (c *ExpirationConfig) RunTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RunTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ExpirationConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites fields from overlay. DryRun always applies.
func (c *ExpirationConfig) Merge(overlay *ExpirationConfig) {
	c.DryRun = overlay.DryRun
	if overlay.Interval != "" {
		c.Interval = overlay.Interval
	}
	if overlay.RunTimeout != "" {
		c.RunTimeout = overlay.RunTimeout
	}
	if overlay.ReportPrefix != "" {
		c.ReportPrefix = overlay.ReportPrefix
	}
}

func (c *ExpirationConfig) loadDefaults() {
	if c.Interval == "" {
		c.Interval = "1s"
	}
	if c.RunTimeout == "" {
		c.RunTimeout = "30m"
	}
	if c.ReportPrefix == "" {
		c.ReportPrefix = "reports"
	}
}

func (c *ExpirationConfig) loadEnv() {
	if v := os.Getenv(EnvDryRun); v != "" {
		c.DryRun = strings.EqualFold(v, "true")
	}
	if v := os.Getenv(EnvExpirationInterval); v != "" {
		c.Interval = v
	}
	if v := os.Getenv(EnvExpirationRunTimeout); v != "" {
		c.RunTimeout = v
	}
	if v := os.Getenv(EnvExpirationReportPrefix); v != "" {
		c.ReportPrefix = v
	}
}

func (c *ExpirationConfig) validate() error {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("interval must not be negative")
	}
	d, err = time.ParseDuration(c.RunTimeout)
	if err != nil {
		return fmt.Errorf("invalid run_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("run_timeout must be positive")
	}
	c.ReportPrefix = strings.Trim(c.ReportPrefix, "/")
	if c.ReportPrefix == "" {
		return fmt.Errorf("report_prefix must not be empty")
	}
	return nil
}
