package pagination

import (
	"fmt"
	"os"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Config bounds the page sizes a client may request.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

// Env names the environment variables that override Config.
type Env struct {
	DefaultPageSize string
	MaxPageSize     string
}

// Finalize fills unset sizes, applies env overrides, and checks that the
// default fits under the maximum.
func (c *Config) Finalize(env *Env) error {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = defaultPageSize
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = maxPageSize
	}

	if env != nil {
		overrides := []struct {
			name string
			dst  *int
		}{
			{env.DefaultPageSize, &c.DefaultPageSize},
			{env.MaxPageSize, &c.MaxPageSize},
		}
		for _, o := range overrides {
			if o.name == "" {
				continue
			}
			if n, err := strconv.Atoi(os.Getenv(o.name)); err == nil {
				*o.dst = n
			}
		}
	}

	switch {
	case c.DefaultPageSize < 1:
		return fmt.Errorf("default_page_size must be positive, got %d", c.DefaultPageSize)
	case c.MaxPageSize < 1:
		return fmt.Errorf("max_page_size must be positive, got %d", c.MaxPageSize)
	case c.DefaultPageSize > c.MaxPageSize:
		return fmt.Errorf("default_page_size %d exceeds max_page_size %d", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}

// Merge takes the positive sizes from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize > 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize > 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
}

// Clamp moves req onto a valid page: page 1 or later, and a size between 1
// and MaxPageSize, with DefaultPageSize for unset sizes.
func (c Config) Clamp(req Request) Request {
	req.Page = max(req.Page, 1)
	if req.PageSize < 1 {
		req.PageSize = c.DefaultPageSize
	}
	req.PageSize = min(req.PageSize, c.MaxPageSize)
	return req
}
