package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

// Config is shared by the tdjobs CLI and the sandbox server. Client is what
// the CLI connects with; the server accepts requests carrying the same
// application secret.
type Config struct {
	Client       tdjobs.Config `yaml:"client"`
	Addr         string        `yaml:"addr"`
	APITimeout   time.Duration `yaml:"timeout"`
	DatabasePath string        `yaml:"database_path"`
	LogLevel     string        `yaml:"log_level"`
}

// LoadConfig builds the configuration from TDJOBS_* environment variables
// and then applies the YAML file at path, if any.
func LoadConfig(path string) (*Config, error) {
	client := tdjobs.DefaultConfig()
	client.BaseURL = getEnv("TDJOBS_BASE_URL", client.BaseURL)
	client.ApplicationSecret = getEnv("TDJOBS_APPLICATION_SECRET", "")

	cfg := &Config{
		Client:       client,
		Addr:         getEnv("TDJOBS_ADDR", ":3000"),
		APITimeout:   15 * time.Second,
		DatabasePath: getEnv("TDJOBS_DATABASE_PATH", ":memory:"),
		LogLevel:     getEnv("TDJOBS_LOG_LEVEL", "info"),
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate fills zero values with defaults and checks the rest.
func (c *Config) Validate() error {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.APITimeout <= 0 {
		c.APITimeout = 15 * time.Second
	}
	if c.DatabasePath == "" {
		c.DatabasePath = ":memory:"
	}
	if c.Client.Timeout <= 0 {
		c.Client.Timeout = tdjobs.DefaultConfig().Timeout
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	return nil
}

// Level parses LogLevel; an empty value means info.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(c.LogLevel) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return l, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
