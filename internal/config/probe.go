package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"

	"github.com/JaimeStill/warden/pkg/formatting"
)

const (
	EnvProbeURLTemplate = "WARDEN_PROBE_URL_TEMPLATE"
	EnvProbeUserAgent   = "WARDEN_PROBE_USER_AGENT"
	EnvProbeSelector    = "WARDEN_PROBE_SELECTOR"
	EnvProbeTimeout     = "WARDEN_PROBE_TIMEOUT"
	EnvProbeMaxBodySize = "WARDEN_PROBE_MAX_BODY_SIZE"

	// CodePlaceholder is replaced with the path-escaped code in URLTemplate.
	CodePlaceholder = "{code}"
)

// ProbeConfig describes the third-party redemption check page.
type ProbeConfig struct {
	URLTemplate string `toml:"url_template"`
	UserAgent   string `toml:"user_agent"`
	Selector    string `toml:"selector"`
	Timeout     string `toml:"timeout"`
	MaxBodySize string `toml:"max_body_size"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ProbeConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// MaxBodySizeBytes returns MaxBodySize in bytes.
func (c *ProbeConfig) MaxBodySizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil {
		return 2 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ProbeConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ProbeConfig) Merge(overlay *ProbeConfig) {
	if overlay.URLTemplate != "" {
		c.URLTemplate = overlay.URLTemplate
	}
	if overlay.UserAgent != "" {
		c.UserAgent = overlay.UserAgent
	}
	if overlay.Selector != "" {
		c.Selector = overlay.Selector
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}
}

func (c *ProbeConfig) loadDefaults() {
	if c.URLTemplate == "" {
		c.URLTemplate = "http://withhive.me/313/{code}"
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 9_1 like Mac OS X) AppleWebKit/601.1.46 (KHTML, like Gecko) Version/9.0 Mobile/13B137 Safari/601.1"
	}
	if c.Selector == "" {
		c.Selector = "h1.pop_tit"
	}
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "2MB"
	}
}

func (c *ProbeConfig) loadEnv() {
	if v := os.Getenv(EnvProbeURLTemplate); v != "" {
		c.URLTemplate = v
	}
	if v := os.Getenv(EnvProbeUserAgent); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv(EnvProbeSelector); v != "" {
		c.Selector = v
	}
	if v := os.Getenv(EnvProbeTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvProbeMaxBodySize); v != "" {
		c.MaxBodySize = v
	}
}

func (c *ProbeConfig) validate() error {
	if !strings.Contains(c.URLTemplate, CodePlaceholder) {
		return fmt.Errorf("url_template must contain %s", CodePlaceholder)
	}
	if _, err := cascadia.Compile(c.Selector); err != nil {
		return fmt.Errorf("invalid selector %q: %w", c.Selector, err)
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if _, err := formatting.ParseBytes(c.MaxBodySize); err != nil {
		return fmt.Errorf("invalid max_body_size: %w", err)
	}
	return nil
}
