package internal

import (
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	API     APIConfig         `yaml:"api"`
	Session SessionConfig     `yaml:"session"`
	Staging StagingConfig     `yaml:"staging"`
	Cache   CacheConfig       `yaml:"cache"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if err := c.Staging.Validate(); err != nil {
		return err
	}
	return c.Cache.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// APIConfig holds the backend endpoint configuration.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// StoragePrefix is the known path prefix under which the backend
	// stores uploaded files; stored-file deletion strips it to recover
	// the filename.
	StoragePrefix string `yaml:"storage_prefix"`
}

// Timeout returns the request timeout as a duration.
func (c *APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate validates the API configuration.
func (c *APIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1), validation.Max(600)),
	)
}

// SessionConfig holds the session token file location.
type SessionConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// StagingConfig holds file staging configuration. DropDir, when set, is
// watched so files dropped into it are staged automatically.
type StagingConfig struct {
	DropDir     string `yaml:"drop_dir"`
	PreviewDir  string `yaml:"preview_dir"`
	PreviewSize int    `yaml:"preview_size"`
}

// Validate validates the staging configuration.
func (c *StagingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PreviewDir, validation.Required),
		validation.Field(&c.PreviewSize, validation.Required, validation.Min(32), validation.Max(1024)),
	)
}

// CacheConfig holds the offline cache database location. An empty path
// disables the offline cache.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		API: APIConfig{
			BaseURL:        "https://api.leaflora.dpdns.org/api",
			TimeoutSeconds: 30,
			StoragePrefix:  "/uploads/",
		},
		Session: SessionConfig{
			Path: "./memoria/session.token",
		},
		Staging: StagingConfig{
			PreviewDir:  "./memoria/previews",
			PreviewSize: 200,
		},
		Cache: CacheConfig{
			Path: "./memoria/cache.db",
		},
	}
}
