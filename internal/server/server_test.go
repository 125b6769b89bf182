package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/user-accounts/internal/config"
	"github.com/sakif/user-accounts/internal/middleware"
)

func testConfig(dbPath string) *config.Config {
	return &config.Config{
		Port:       0,
		DBDriver:   config.DriverSQLite,
		DBPath:     dbPath,
		LogLevel:   "error",
		LogFormat:  config.LogFormatText,
		BcryptCost: 4,
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(testConfig(":memory:"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}

// Both prefixes are served by the same handler and the same store.
func TestRoutesMountedUnderBothPrefixes(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/users", "application/json",
		strings.NewReader(`{"username":"u1","password":"pw1","confirmPassword":"pw1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/users/u1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "u1", body["username"])
	assert.Equal(t, "ACTIVATE", body["status"])
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNew_CreatesDatabaseDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "users.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(testConfig(dbPath), logger)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.FileExists(t, dbPath)
}

func TestNew_RejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(":memory:")
	cfg.DBDriver = "oracle"

	_, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Error(t, err)
}

func TestNew_RejectsBadBcryptCost(t *testing.T) {
	cfg := testConfig(":memory:")
	cfg.BcryptCost = 99

	_, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Error(t, err)
}
