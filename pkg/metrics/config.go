package metrics

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Config holds Prometheus exposition and push settings.
type Config struct {
	Enabled     bool   `toml:"enabled"`
	Namespace   string `toml:"namespace"`
	Path        string `toml:"path"`
	PushGateway string `toml:"push_gateway"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled     string
	Namespace   string
	Path        string
	PushGateway string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Enabled always applies.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled
	if overlay.Namespace != "" {
		c.Namespace = overlay.Namespace
	}
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.PushGateway != "" {
		c.PushGateway = overlay.PushGateway
	}
}

func (c *Config) loadDefaults() {
	if c.Namespace == "" {
		c.Namespace = "warden"
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = enabled
			}
		}
	}
	if env.Namespace != "" {
		if v := os.Getenv(env.Namespace); v != "" {
			c.Namespace = v
		}
	}
	if env.Path != "" {
		if v := os.Getenv(env.Path); v != "" {
			c.Path = v
		}
	}
	if env.PushGateway != "" {
		if v := os.Getenv(env.PushGateway); v != "" {
			c.PushGateway = v
		}
	}
}

func (c *Config) validate() error {
	if c.PushGateway != "" {
		u, err := url.Parse(c.PushGateway)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid push_gateway %q", c.PushGateway)
		}
	}
	return nil
}
