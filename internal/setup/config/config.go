package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrInvalidConfig         = errors.New("invalid config")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.3.0"

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentAPIVersion    = 1
)

// configFiles lists the files every service loads.
var configFiles = []string{"common", "api"} //nolint:gochecknoglobals // -

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig `koanf:"common"`
	API    APIConfig    `koanf:"api"`
}

// CommonConfig contains configuration shared by every command.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Telemetry  Telemetry  `koanf:"telemetry"`
	Loki       Loki       `koanf:"loki"`
}

// APIConfig contains REST API specific configuration.
type APIConfig struct {
	// Version of the api config.
	Version    int        `koanf:"version"`
	Server     Server     `koanf:"server"`
	Auth       Auth       `koanf:"auth"`
	RateLimit  RateLimit  `koanf:"rate_limit"`
	Pagination Pagination `koanf:"pagination"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Telemetry contains tracing configuration.
type Telemetry struct {
	// Uptrace DSN. Tracing is disabled when empty.
	DSN string `koanf:"dsn"`
	// Service name reported with every span.
	ServiceName string `koanf:"service_name"`
	// Deployment environment reported with every span and error event.
	Environment string `koanf:"environment"`
	// Sentry DSN for error reporting. Reporting is disabled when empty.
	SentryDSN string `koanf:"sentry_dsn"`
}

// Loki contains Grafana Loki log shipping configuration.
type Loki struct {
	// Enable Loki integration.
	Enabled bool `koanf:"enabled"`
	// Loki server URL without the /loki/api/v1/push suffix.
	URL string `koanf:"url"`
	// Maximum number of log entries per batch.
	BatchMaxSize int `koanf:"batch_max_size"`
	// Maximum time to wait before sending a batch in milliseconds.
	BatchMaxWaitMS int `koanf:"batch_max_wait_ms"`
	// Labels added to every log stream.
	Labels map[string]string `koanf:"labels"`
	// Basic authentication username (optional).
	Username string `koanf:"username"`
	// Basic authentication password (optional).
	Password string `koanf:"password"`
}

// Server contains HTTP listener configuration.
type Server struct {
	// Host to bind to.
	Host string `koanf:"host"`
	// Port to listen on.
	Port int `koanf:"port"`
	// Read timeout in seconds.
	ReadTimeout int `koanf:"read_timeout"`
	// Write timeout in seconds.
	WriteTimeout int `koanf:"write_timeout"`
	// Graceful shutdown timeout in seconds.
	ShutdownTimeout int `koanf:"shutdown_timeout"`
}

// Auth contains bearer token configuration.
type Auth struct {
	// HMAC secret used to sign and verify tokens.
	Secret string `koanf:"secret"`
	// Issuer claim of minted and accepted tokens.
	Issuer string `koanf:"issuer"`
	// Lifetime of minted tokens in minutes.
	TokenTTL int `koanf:"token_ttl"`
}

// RateLimit contains limits applied to reaction writes.
type RateLimit struct {
	// Whether write rate limiting is enabled.
	Enabled bool `koanf:"enabled"`
	// Length of the fixed window in seconds.
	Window int `koanf:"window"`
	// Maximum reaction writes per user per window.
	MaxRequests int64 `koanf:"max_requests"`
}

// Pagination contains listing page sizes.
type Pagination struct {
	// Reviews per page.
	ReviewsPerPage int `koanf:"reviews_per_page"`
	// Posts per page.
	PostsPerPage int `koanf:"posts_per_page"`
}

// LoadConfig loads the configuration from the first search path holding each file.
// Returns the config and the directory the first file was loaded from.
func LoadConfig() (*Config, string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configPaths := []string{
		".mythril",
		homeDir + "/.mythril/config",
		"/etc/mythril/config",
		"/app/config",
		"config",
		".",
	}

	return load(configPaths)
}

// LoadConfigFrom loads the configuration from a single directory.
func LoadConfigFrom(dir string) (*Config, error) {
	cfg, _, err := load([]string{dir})
	return cfg, err
}

func load(configPaths []string) (*Config, string, error) {
	k := koanf.New(".")

	var usedConfigPath string

	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := filepath.Join(path, configName+".toml")
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				configLoaded = true

				if usedConfigPath == "" {
					usedConfigPath = path
				}

				break
			}
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("api", config.API.Version, CurrentAPIVersion); err != nil {
		return nil, "", err
	}

	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// applyDefaults fills optional values left empty in the files.
func (c *Config) applyDefaults() {
	if c.Common.Debug.LogLevel == "" {
		c.Common.Debug.LogLevel = "info"
	}
	if c.Common.Debug.MaxLogsToKeep <= 0 {
		c.Common.Debug.MaxLogsToKeep = 10
	}
	if c.Common.Debug.MaxLogLines <= 0 {
		c.Common.Debug.MaxLogLines = 10000
	}
	if c.Common.Telemetry.ServiceName == "" {
		c.Common.Telemetry.ServiceName = "mythril"
	}
	if c.Common.Loki.BatchMaxSize <= 0 {
		c.Common.Loki.BatchMaxSize = 100
	}
	if c.Common.Loki.BatchMaxWaitMS <= 0 {
		c.Common.Loki.BatchMaxWaitMS = 1000
	}
	if c.API.Server.Port == 0 {
		c.API.Server.Port = 8080
	}
	if c.API.Server.ShutdownTimeout <= 0 {
		c.API.Server.ShutdownTimeout = 10
	}
	if c.API.Auth.TokenTTL <= 0 {
		c.API.Auth.TokenTTL = 60
	}
	if c.API.Pagination.ReviewsPerPage <= 0 {
		c.API.Pagination.ReviewsPerPage = 8
	}
	if c.API.Pagination.PostsPerPage <= 0 {
		c.API.Pagination.PostsPerPage = 20
	}
}

// validate rejects settings the services cannot start with.
func (c *Config) validate() error {
	if c.Common.Loki.Enabled && c.Common.Loki.URL == "" {
		return fmt.Errorf("%w: common.loki.url must be set when loki is enabled", ErrInvalidConfig)
	}
	if c.API.Auth.Secret == "" {
		return fmt.Errorf("%w: api.auth.secret must be set", ErrInvalidConfig)
	}
	if c.API.RateLimit.Enabled && (c.API.RateLimit.Window <= 0 || c.API.RateLimit.MaxRequests <= 0) {
		return fmt.Errorf("%w: api.rate_limit window and max_requests must be positive", ErrInvalidConfig)
	}
	return nil
}

func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/mythril-io/mythril/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
