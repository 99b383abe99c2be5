package billing

import (
	"errors"
	"time"
)

// Config holds configuration for the billing backend HTTP API
type Config struct {
	// BaseURL is the billing backend base URL, without trailing slash
	BaseURL string
	// APIKey authenticates this service against the billing backend
	APIKey string
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
}

// Errors for billing gateway configuration
var (
	ErrConfigMissingBaseURL = errors.New("billing: base URL is required")
)

// DefaultTimeout is used when no timeout is configured
const DefaultTimeout = 10 * time.Second

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}
