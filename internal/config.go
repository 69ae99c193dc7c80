package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Conflict policies for unattended runs.
const (
	PolicySkip       = "skip"
	PolicyKeepLocal  = "keep-local"
	PolicyKeepRemote = "keep-remote"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	Remote  RemoteConfig      `yaml:"remote"`
	Sync    SyncConfig        `yaml:"sync"`
	Journal JournalConfig     `yaml:"journal"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration for serve mode.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RemoteConfig holds the remote document service connection.
type RemoteConfig struct {
	BaseURL      string `yaml:"base_url"`
	Token        string `yaml:"token"`
	CollectionID string `yaml:"collection_id"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Token, validation.Required),
		validation.Field(&c.CollectionID, validation.Required),
	)
}

// SyncConfig tunes the sync engine.
//
// ConflictPolicy selects the unattended conflict decision:
//   - "skip" (default): leave both sides untouched.
//   - "keep-local": the local version wins, remote is overwritten.
//   - "keep-remote": the remote version wins, local is overwritten.
//
// Interval is the period between unattended passes in serve mode; zero
// disables the timer and leaves only watcher-driven passes.
type SyncConfig struct {
	BatchSize      int           `yaml:"batch_size"`
	Pacing         time.Duration `yaml:"pacing"`
	Debounce       time.Duration `yaml:"debounce"`
	Interval       time.Duration `yaml:"interval"`
	ConflictPolicy string        `yaml:"conflict_policy"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	if c.ConflictPolicy == "" {
		c.ConflictPolicy = PolicySkip
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.BatchSize, validation.Min(0)),
		validation.Field(&c.ConflictPolicy,
			validation.Required, validation.In(PolicySkip, PolicyKeepLocal, PolicyKeepRemote)),
	)
}

// JournalConfig holds the sync run history database. An empty path disables
// run history.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds control API authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		Sync: SyncConfig{
			BatchSize:      5,
			Pacing:         time.Second,
			Debounce:       2 * time.Second,
			Interval:       5 * time.Minute,
			ConflictPolicy: PolicySkip,
		},
		Journal: JournalConfig{
			Path: "./raido.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
