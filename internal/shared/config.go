package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/genrestats/internal/models"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	// EnvClientID and EnvClientSecret override the configured Spotify credentials.
	EnvClientID     = "CLIENT_ID"
	EnvClientSecret = "CLIENT_SECRET"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	API         APIConfig         `toml:"api"`
	Pipeline    PipelineConfig    `toml:"pipeline"`
	Database    DatabaseConfig    `toml:"database"`
	Storage     StorageConfig     `toml:"storage"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify client credentials and the token endpoint.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	GrantType    string `toml:"grant_type"`
	TokenURL     string `toml:"token_url"`
}

// Credential converts the configured values into a [models.Credential].
func (s SpotifyConfig) Credential() models.Credential {
	cred := models.NewCredential(s.ClientID, s.ClientSecret)
	if s.GrantType != "" {
		cred.GrantType = s.GrantType
	}
	return cred
}

// APIConfig contains catalog API transport settings.
type APIConfig struct {
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	PageSize          int     `toml:"page_size"`
}

// Timeout returns the per-request timeout as a [time.Duration].
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// PipelineConfig contains the category list, limits and artifact destinations.
type PipelineConfig struct {
	Categories        []string `toml:"categories"`
	Limit             int      `toml:"limit"`
	AllowedCategories []string `toml:"allowed_categories"`
	Output            string   `toml:"output"`
	Report            string   `toml:"report"`
}

// DatabaseConfig contains run ledger connection settings.
type DatabaseConfig struct {
	Enabled      bool   `toml:"enabled"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// StorageConfig contains artifact publishing targets.
type StorageConfig struct {
	Minio MinioConfig `toml:"minio"`
}

// MinioConfig contains S3-compatible object storage settings.
type MinioConfig struct {
	Enabled   bool   `toml:"enabled"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`
}

// LogConfig contains log level and optional rotating file settings.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads KEY=value pairs from a .env file into the process environment.
//
// Variables already set are never overridden and a missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides credentials with CLIENT_ID and CLIENT_SECRET when lookup finds them.
//
// A nil lookup uses [os.LookupEnv].
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvClientID); ok && v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v, ok := lookup(EnvClientSecret); ok && v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
}

// Validate checks the configuration can drive a pipeline run.
func (c *Config) Validate() error {
	sp := c.Credentials.Spotify
	if strings.TrimSpace(sp.ClientID) == "" || strings.TrimSpace(sp.ClientSecret) == "" {
		return fmt.Errorf("%w: set %s and %s or credentials.spotify in config", ErrMissingCredentials, EnvClientID, EnvClientSecret)
	}
	if sp.TokenURL == "" {
		return fmt.Errorf("%w: credentials.spotify.token_url is empty", ErrInvalidConfig)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is empty", ErrInvalidConfig)
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("%w: api.page_size must be positive", ErrInvalidConfig)
	}
	if len(c.Pipeline.Categories) == 0 {
		return fmt.Errorf("%w: pipeline.categories is empty", ErrInvalidConfig)
	}
	for _, cat := range c.Pipeline.Categories {
		if strings.TrimSpace(cat) == "" {
			return fmt.Errorf("%w: pipeline.categories contains an empty name", ErrInvalidConfig)
		}
	}
	if c.Pipeline.Limit <= 0 {
		return fmt.Errorf("%w: pipeline.limit must be positive", ErrInvalidConfig)
	}
	if c.Pipeline.Output == "" {
		return fmt.Errorf("%w: pipeline.output is empty", ErrInvalidConfig)
	}
	if c.Database.Enabled && c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	}
	if m := c.Storage.Minio; m.Enabled && (m.Endpoint == "" || m.Bucket == "") {
		return fmt.Errorf("%w: storage.minio requires endpoint and bucket", ErrInvalidConfig)
	}
	return nil
}
