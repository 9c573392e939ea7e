// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

const configFileName = "config.yaml"

type Config struct {
	API     API     `yaml:"api"`
	Storage Storage `yaml:"storage"`
	Logger  Logger  `yaml:"logger"`
}

type API struct {
	BaseURL    string        `yaml:"baseURL"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"maxRetries"`
	RetryDelay time.Duration `yaml:"retryDelay"`
}

type Storage struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

type Logger struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config.yaml from the first of the given directories that
// has one, falling back to /etc/backoffice, $HOME/.backoffice and the
// working directory. A missing file is not an error; the defaults and
// the BACKOFFICE_* environment variables are enough to run.
func Load(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		paths = []string{"/etc/backoffice", "$HOME/.backoffice", "."}
	}

	cfg := &Config{}

	for _, dir := range paths {
		data, err := os.ReadFile(filepath.Join(os.ExpandEnv(dir), configFileName))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("reading configuration: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing configuration: %w", err)
		}

		break
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.Timeout <= 0 {
		c.API.Timeout = 15 * time.Second
	}

	if c.API.MaxRetries <= 0 {
		c.API.MaxRetries = 2
	}

	if c.API.RetryDelay <= 0 {
		c.API.RetryDelay = 500 * time.Millisecond
	}

	if c.Storage.Dir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			c.Storage.Dir = filepath.Join(home, ".backoffice")
		}
	}

	if c.Storage.Prefix == "" {
		c.Storage.Prefix = "backoffice"
	}

	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}

	if c.Logger.Format == "" {
		c.Logger.Format = "text"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BACKOFFICE_API_URL"); v != "" {
		c.API.BaseURL = v
	}

	if v := os.Getenv("BACKOFFICE_STATE_DIR"); v != "" {
		c.Storage.Dir = v
	}

	if v := os.Getenv("BACKOFFICE_LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.baseURL is required (or set BACKOFFICE_API_URL)")
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.baseURL %q is not an absolute URL", c.API.BaseURL)
	}

	if c.Storage.Dir == "" {
		return errors.New("storage.dir is required (or set BACKOFFICE_STATE_DIR)")
	}

	return nil
}
