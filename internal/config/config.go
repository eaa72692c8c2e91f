// Package config loads application configuration. Tunables come from a
// TOML file, secrets from the environment (optionally seeded from a .env
// file during development).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/onboardhq/syncgate/internal/core/domain"
)

// Defaults applied when the config file is absent or leaves a field unset.
const (
	DefaultListenAddr   = ":8080"
	DefaultMetricsAddr  = ":9090"
	DefaultTimezone     = "America/Sao_Paulo"
	DefaultSyncSpec     = "0 * * * *"
	DefaultReminderSpec = "0 8 * * *"
	DefaultSyncHorizon  = 30 * 24 * time.Hour
)

// Environment variable names for the secrets. Secrets never live in the
// TOML file.
const (
	EnvTokenKey       = "SYNCGATE_TOKEN_KEY"
	EnvClientID       = "GOOGLE_CLIENT_ID"
	EnvClientSecret   = "GOOGLE_CLIENT_SECRET"
	EnvRedirectURI    = "GOOGLE_REDIRECT_URI"
	EnvFrontendOrigin = "SYNCGATE_FRONTEND_ORIGIN"
)

// Config is the assembled application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Google    GoogleConfig    `toml:"-"`

	// TokenKey is the master secret the token cipher derives its key from.
	TokenKey string `toml:"-"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr  string `toml:"listen_addr"`
	MetricsAddr string `toml:"metrics_addr"`

	// FrontendOrigin is where the OAuth callback redirects browsers back
	// to. Overridable via SYNCGATE_FRONTEND_ORIGIN.
	FrontendOrigin string `toml:"frontend_origin"`
}

// StorageConfig holds the database settings.
type StorageConfig struct {
	// DataDir is where the SQLite database lives. Empty means the
	// per-user default under the home directory.
	DataDir string `toml:"data_dir"`
}

// SchedulerConfig holds the job schedules. Cron specs are evaluated in
// Timezone, not in the host's local time.
type SchedulerConfig struct {
	Timezone     string `toml:"timezone"`
	SyncSpec     string `toml:"sync_spec"`
	ReminderSpec string `toml:"reminder_spec"`

	// SyncHorizonDays bounds how far ahead the sync job looks.
	SyncHorizonDays int `toml:"sync_horizon_days"`
}

// GoogleConfig holds the OAuth application credentials, sourced from the
// environment only.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Load reads configuration from the given TOML path and the environment.
// A missing file is fine; a malformed one is not. Path may be empty, in
// which case only defaults and the environment apply.
func Load(path string) (*Config, error) {
	// Best effort: a .env in the working directory seeds the environment
	// during development. Absence is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			ListenAddr:  DefaultListenAddr,
			MetricsAddr: DefaultMetricsAddr,
		},
		Scheduler: SchedulerConfig{
			Timezone:     DefaultTimezone,
			SyncSpec:     DefaultSyncSpec,
			ReminderSpec: DefaultReminderSpec,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
			}
		}
	}

	cfg.TokenKey = os.Getenv(EnvTokenKey)
	cfg.Google = GoogleConfig{
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
		RedirectURI:  os.Getenv(EnvRedirectURI),
	}
	if origin := os.Getenv(EnvFrontendOrigin); origin != "" {
		cfg.Server.FrontendOrigin = origin
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = DefaultMetricsAddr
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = DefaultTimezone
	}
	if c.Scheduler.SyncSpec == "" {
		c.Scheduler.SyncSpec = DefaultSyncSpec
	}
	if c.Scheduler.ReminderSpec == "" {
		c.Scheduler.ReminderSpec = DefaultReminderSpec
	}
}

// Validate checks that the secrets required to run the full service are
// present. Callers that only need storage access can skip it.
func (c *Config) Validate() error {
	if c.TokenKey == "" {
		return fmt.Errorf("%w: %s is not set", domain.ErrNotConfigured, EnvTokenKey)
	}
	if c.Google.ClientID == "" || c.Google.ClientSecret == "" || c.Google.RedirectURI == "" {
		return fmt.Errorf("%w: %s, %s and %s must all be set",
			domain.ErrNotConfigured, EnvClientID, EnvClientSecret, EnvRedirectURI)
	}
	return nil
}

// Location resolves the scheduler timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timezone %q", domain.ErrNotConfigured, c.Scheduler.Timezone)
	}
	return loc, nil
}

// SyncHorizon resolves the forward window of the sync job.
func (c *Config) SyncHorizon() time.Duration {
	if c.Scheduler.SyncHorizonDays <= 0 {
		return DefaultSyncHorizon
	}
	return time.Duration(c.Scheduler.SyncHorizonDays) * 24 * time.Hour
}
