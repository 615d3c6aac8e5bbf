// Package config resolves prreview's runtime configuration once at startup.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingToken is returned when no GitHub credential is configured.
var ErrMissingToken = errors.New("github token is required (set GITHUB_TOKEN or PRREVIEW_GITHUB_TOKEN)")

// Defaults.
const (
	DefaultGitHubBaseURL   = "https://api.github.com/"
	DefaultGitHubTimeout   = 30 * time.Second
	DefaultStoreURI        = "mongodb://localhost:27017/"
	DefaultStoreDatabase   = "pr_analysis_db"
	DefaultStoreCollection = "pr_analysis_collection"
	DefaultStoreTimeout    = 10 * time.Second
	DefaultLogLevel        = "info"
)

// Config is the resolved configuration passed down to every component.
type Config struct {
	GitHub GitHubConfig `mapstructure:"github"`
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
}

type GitHubConfig struct {
	Token   string        `mapstructure:"token"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	URI        string        `mapstructure:"uri"`
	Database   string        `mapstructure:"database"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SetDefaults registers default values and env bindings on v. The bare
// GITHUB_TOKEN and MONGO_URI names are accepted next to the prefixed ones.
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix("PRREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("github.token", "")
	v.SetDefault("github.base_url", DefaultGitHubBaseURL)
	v.SetDefault("github.timeout", DefaultGitHubTimeout)
	v.SetDefault("store.uri", DefaultStoreURI)
	v.SetDefault("store.database", DefaultStoreDatabase)
	v.SetDefault("store.collection", DefaultStoreCollection)
	v.SetDefault("store.timeout", DefaultStoreTimeout)
	v.SetDefault("log.level", DefaultLogLevel)

	_ = v.BindEnv("github.token", "PRREVIEW_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("store.uri", "PRREVIEW_STORE_URI", "MONGO_URI")
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Load resolves a Config from v. It does not validate; call Validate or
// ValidateGitHub depending on what the command needs.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks everything the MCP server needs to start.
func (c *Config) Validate() error {
	if err := c.ValidateGitHub(); err != nil {
		return err
	}
	return c.ValidateStore()
}

// ValidateGitHub checks the settings used by the pull request client.
func (c *Config) ValidateGitHub() error {
	if strings.TrimSpace(c.GitHub.Token) == "" {
		return ErrMissingToken
	}
	if _, err := url.Parse(c.GitHub.BaseURL); err != nil || c.GitHub.BaseURL == "" {
		return fmt.Errorf("invalid github.base_url %q", c.GitHub.BaseURL)
	}
	if c.GitHub.Timeout <= 0 {
		return fmt.Errorf("github.timeout must be positive, got %s", c.GitHub.Timeout)
	}
	return nil
}

// ValidateStore checks the settings used by the document store.
func (c *Config) ValidateStore() error {
	if c.Store.URI == "" {
		return errors.New("store.uri must not be empty")
	}
	if c.Store.Database == "" || c.Store.Collection == "" {
		return errors.New("store.database and store.collection must not be empty")
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store.timeout must be positive, got %s", c.Store.Timeout)
	}
	return nil
}
