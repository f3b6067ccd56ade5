package telemetry_test

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mythril-io/mythril/internal/setup/config"
	"github.com/mythril-io/mythril/internal/setup/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerShipsLogsToLoki(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(gz)

		mu.Lock()
		bodies = append(bodies, string(body))
		mu.Unlock()

		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	logDir := t.TempDir()
	manager := telemetry.NewManager(context.Background(), telemetry.ServiceAPI, logDir,
		&config.Debug{LogLevel: "info", MaxLogsToKeep: 2, MaxLogLines: 100},
		&config.Loki{
			Enabled:        true,
			URL:            srv.URL,
			BatchMaxSize:   10,
			BatchMaxWaitMS: 60000,
			Labels:         map[string]string{"app": "mythril"},
		},
		false,
	)

	logger, _, err := manager.GetLoggers()
	require.NoError(t, err)

	logger.Info("Application initialized")
	manager.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, bodies)
	joined := strings.Join(bodies, "\n")
	assert.Contains(t, joined, `"component":"api"`)
	assert.Contains(t, joined, `"app":"mythril"`)
	assert.Contains(t, joined, manager.GetInstanceID())
	assert.Contains(t, joined, "Application initialized")

	// The session file is still written alongside shipping.
	content, err := os.ReadFile(filepath.Join(manager.GetCurrentSessionDir(), "api.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Application initialized")
}

func TestManagerWithoutLoki(t *testing.T) {
	t.Parallel()

	manager := telemetry.NewManager(context.Background(), telemetry.ServiceDB, t.TempDir(),
		&config.Debug{LogLevel: "debug", MaxLogsToKeep: 1, MaxLogLines: 10}, &config.Loki{}, false)

	logger, dbLogger, err := manager.GetLoggers()
	require.NoError(t, err)
	logger.Debug("Started")
	dbLogger.Debug("Query")

	assert.NotPanics(t, manager.Stop)
}
