package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, 15, cfg.Database.MaxOpenConns)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, time.Hour, cfg.Auth.TTL())
	assert.Equal(t, "/api", cfg.Server.PathPrefix)
	assert.False(t, cfg.Vault.Enabled())
}

func TestLoadYAMLThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
database:
  driver: postgres
  port: 5432
auth:
  access_token_expire_minutes: 30
`), 0o600))

	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("DB_QUERY_TIMEOUT", "5s")
	t.Setenv("SECRET_KEY", "from-env")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "from-env", cfg.Auth.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TTL())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadIgnoresMissingEnvFile(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"driver":   func(c *Config) { c.Database.Driver = "oracle" },
		"port":     func(c *Config) { c.Server.Port = 0 },
		"secret":   func(c *Config) { c.Auth.SecretKey = " " },
		"lifetime": func(c *Config) { c.Auth.AccessTokenExpireMinutes = 0 },
		"vault":    func(c *Config) { c.Vault.URL = "https://kv.vault.azure.net" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := ServerConfig{CORSAllowedOrigins: "http://a.test, ,http://b.test"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
}
