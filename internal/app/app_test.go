package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/nhl-actions/internal/config"
	"github.com/riskibarqy/nhl-actions/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		HTTPAddr:                  ":0",
		ReadTimeout:               time.Second,
		WriteTimeout:              time.Second,
		CORSAllowedOrigins:        []string{"*"},
		NHLEBaseURL:               "http://127.0.0.1:1",
		NHLETimeout:               time.Second,
		NHLECircuitFailureCount:   5,
		NHLECircuitOpenTimeout:    time.Second,
		NHLECircuitHalfOpenMaxReq: 1,
		DataDir:                   t.TempDir(),
		TeamDirectoryStore:        config.StoreMemory,
		RosterSyncWorkers:         2,
		PlayerFetchWorkers:        2,
		MetricsEnabled:            true,
	}
}

func TestNew_WiresRouter(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_MetricsDisabledHidesEndpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsEnabled = false

	a, err := New(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_RejectsInvalidRefreshCron(t *testing.T) {
	cfg := testConfig(t)
	cfg.TeamDirectoryRefreshCron = "every now and then"

	_, err := New(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestNew_StartsAndStopsScheduler(t *testing.T) {
	cfg := testConfig(t)
	cfg.TeamDirectoryStore = config.StoreFile
	cfg.TeamDirectoryRefreshCron = "@every 1h"

	a, err := New(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	require.NotNil(t, a.scheduler)
	assert.Equal(t, 1, a.scheduler.Len())

	a.StartBackground()
	assert.NoError(t, a.Close())
}

func TestNew_RejectsUnknownStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.TeamDirectoryStore = "cassandra"

	_, err := New(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTPAddr = ""

	_, err := New(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}
