package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mythril-io/mythril/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commonTOML = `
[common]
version = 1

[common.debug]
log_level = "debug"

[common.postgresql]
host = "db"
port = 5433
db_name = "mythril_test"

[common.redis]
host = "cache"
port = 6380

[common.telemetry]
sentry_dsn = "https://public@sentry.example.com/1"

[common.loki]
enabled = true
url = "http://loki:3100"

[common.loki.labels]
env = "test"
`

const apiTOML = `
[api]
version = 1

[api.auth]
secret = "test-secret"
issuer = "mythril-test"

[api.rate_limit]
enabled = true
window = 30
max_requests = 5
`

func writeConfig(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestLoadConfigFrom(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, map[string]string{
		"common.toml": commonTOML,
		"api.toml":    apiTOML,
	})

	cfg, err := config.LoadConfigFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Common.Debug.LogLevel)
	assert.Equal(t, "db", cfg.Common.PostgreSQL.Host)
	assert.Equal(t, 5433, cfg.Common.PostgreSQL.Port)
	assert.Equal(t, "cache", cfg.Common.Redis.Host)
	assert.Equal(t, "test-secret", cfg.API.Auth.Secret)
	assert.Equal(t, int64(5), cfg.API.RateLimit.MaxRequests)
	assert.Equal(t, "https://public@sentry.example.com/1", cfg.Common.Telemetry.SentryDSN)
	assert.True(t, cfg.Common.Loki.Enabled)
	assert.Equal(t, "http://loki:3100", cfg.Common.Loki.URL)
	assert.Equal(t, map[string]string{"env": "test"}, cfg.Common.Loki.Labels)

	// Defaults
	assert.Equal(t, 8, cfg.API.Pagination.ReviewsPerPage)
	assert.Equal(t, 8080, cfg.API.Server.Port)
	assert.Equal(t, "mythril", cfg.Common.Telemetry.ServiceName)
	assert.Equal(t, 60, cfg.API.Auth.TokenTTL)
	assert.Equal(t, 100, cfg.Common.Loki.BatchMaxSize)
	assert.Equal(t, 1000, cfg.Common.Loki.BatchMaxWaitMS)
}

func TestLoadConfigFromErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
	}{
		{
			name:    "missing api file",
			files:   map[string]string{"common.toml": commonTOML},
			wantErr: config.ErrConfigFileNotFound,
		},
		{
			name: "missing version",
			files: map[string]string{
				"common.toml": "[common.debug]\nlog_level = \"info\"\n",
				"api.toml":    apiTOML,
			},
			wantErr: config.ErrConfigVersionMissing,
		},
		{
			name: "version mismatch",
			files: map[string]string{
				"common.toml": commonTOML,
				"api.toml":    "[api]\nversion = 99\n",
			},
			wantErr: config.ErrConfigVersionMismatch,
		},
		{
			name: "loki without url",
			files: map[string]string{
				"common.toml": "[common]\nversion = 1\n\n[common.loki]\nenabled = true\n",
				"api.toml":    apiTOML,
			},
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "missing secret",
			files: map[string]string{
				"common.toml": commonTOML,
				"api.toml":    "[api]\nversion = 1\n",
			},
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfigFrom(writeConfig(t, tt.files))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
