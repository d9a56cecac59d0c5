package tdjobs

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds settings for the TDJobs client.
type Config struct {
	// BaseURL is the TDJobs service root, e.g. http://localhost:3000
	BaseURL string `yaml:"base_url" json:"base_url"`
	// ApplicationSecret is sent on every request in the Application-Secret header
	ApplicationSecret string `yaml:"application_secret" json:"application_secret"`
	// Timeout is the per-request timeout
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:3000",
		Timeout: 30 * time.Second,
	}
}

// Validate checks that the base URL is absolute.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("tdjobs: base_url is required")
	}
	u, err := url.ParseRequestURI(c.BaseURL)
	if err != nil {
		return fmt.Errorf("tdjobs: invalid base_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("tdjobs: base_url must be absolute, got %q", c.BaseURL)
	}
	return nil
}
