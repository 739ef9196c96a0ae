package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("LAREK_API_KEY", "secret-key")

	path := writeConfig(t, `
api:
  base_url: https://larek.example.com/api
  api_key: ${LAREK_API_KEY}
  cache_ttl_seconds: 60
http:
  listen_address: ":9000"
redis:
  address: localhost:6379
audit:
  enabled: true
monitoring:
  prometheus_enabled: true
  prometheus_port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://larek.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, "secret-key", cfg.API.APIKey, "env placeholders expand")
	assert.Equal(t, ":9000", cfg.HTTP.ListenAddress)
	assert.Equal(t, "data/larek_journal.db", cfg.Audit.Path, "audit path defaults when enabled")
	assert.Equal(t, 8090, cfg.Monitoring.HealthCheckPort)
	assert.Equal(t, 10.0, cfg.API.RateLimitPerSec)
	assert.Equal(t, 20, cfg.API.RateLimitBurst)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://larek.example.com/api
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.ListenAddress)
	assert.False(t, cfg.Audit.Enabled)
	assert.Empty(t, cfg.Audit.Path, "no audit path default when disabled")
}
