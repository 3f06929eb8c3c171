// Package config loads process configuration from defaults, an optional YAML
// file, an optional .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the full process configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Vault     VaultConfig     `yaml:"vault"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST"`
	Port            int           `yaml:"port" env:"HTTP_PORT"`
	PathPrefix      string        `yaml:"path_prefix" env:"HTTP_PATH_PREFIX"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT"`
	// CORSAllowedOrigins is a comma separated origin list; "*" allows any.
	CORSAllowedOrigins string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// AuditLogPath, when set, receives every audit entry as a JSON line.
	AuditLogPath string `yaml:"audit_log_path" env:"AUDIT_LOG_PATH"`
	// TrustProxyHeaders derives the client address from X-Forwarded-For and
	// X-Real-IP. Leave off unless a reverse proxy rewrites those headers.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers" env:"HTTP_TRUST_PROXY_HEADERS"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig configures the persistence pool.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"DB_DRIVER"`
	Host            string        `yaml:"host" env:"DB_HOST"`
	Port            int           `yaml:"port" env:"DB_PORT"`
	Name            string        `yaml:"name" env:"DB_NAME"`
	User            string        `yaml:"user" env:"DB_USER"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	SSLMode         string        `yaml:"ssl_mode" env:"DB_SSL_MODE"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME"`
	QueryTimeout    time.Duration `yaml:"query_timeout" env:"DB_QUERY_TIMEOUT"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
}

// AuthConfig configures token issuance and verification.
type AuthConfig struct {
	SecretKey                string `yaml:"secret_key" env:"SECRET_KEY"`
	Algorithm                string `yaml:"algorithm" env:"ALGORITHM"`
	AccessTokenExpireMinutes int    `yaml:"access_token_expire_minutes" env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
}

// TTL returns the token lifetime.
func (c AuthConfig) TTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// VaultConfig points at the secret holding database credentials. When URL is
// empty the credentials in DatabaseConfig are used as-is.
type VaultConfig struct {
	URL        string        `yaml:"url" env:"VAULT_URL"`
	SecretName string        `yaml:"secret_name" env:"VAULT_SECRET_NAME"`
	Timeout    time.Duration `yaml:"timeout" env:"VAULT_TIMEOUT"`
}

// Enabled reports whether credentials should be fetched from the vault.
func (c VaultConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// RateLimitConfig configures per-caller rate limiting. Zero RPS disables it.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second" env:"RATE_LIMIT_RPS"`
	Burst             int `yaml:"burst" env:"RATE_LIMIT_BURST"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8000,
			PathPrefix:         "/api",
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       15 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			CORSAllowedOrigins: "*",
		},
		Database: DatabaseConfig{
			Driver:          DriverMySQL,
			Host:            "db-fastfood",
			Port:            3306,
			Name:            "fastfood",
			User:            "fastfood_user",
			SSLMode:         "disable",
			MaxOpenConns:    15,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 10 * time.Minute,
			QueryTimeout:    30 * time.Second,
			AutoMigrate:     true,
		},
		Auth: AuthConfig{
			SecretKey:                "token",
			Algorithm:                "HS256",
			AccessTokenExpireMinutes: 60,
		},
		Vault: VaultConfig{
			Timeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. path may name a YAML file and envFile a
// dotenv file; either may be empty. A missing envFile is ignored.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the process cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid http port %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Auth.SecretKey) == "" {
		return errors.New("config: SECRET_KEY must not be empty")
	}
	if c.Auth.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("config: invalid token lifetime %d minutes", c.Auth.AccessTokenExpireMinutes)
	}
	if c.Vault.Enabled() && strings.TrimSpace(c.Vault.SecretName) == "" {
		return errors.New("config: VAULT_SECRET_NAME is required when VAULT_URL is set")
	}
	return nil
}

// AllowedOrigins splits CORSAllowedOrigins into a list.
func (c ServerConfig) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
