package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-viability/internal/config"
)

// loadTestConfig loads defaults plus SOLAR_* overrides into cfg.
func loadTestConfig(t *testing.T) {
	t.Helper()
	prev := cfg
	c, err := config.Load()
	require.NoError(t, err)
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestResolvePort(t *testing.T) {
	t.Setenv("SOLAR_SERVER_PORT", "9090")
	loadTestConfig(t)

	prev := servePort
	t.Cleanup(func() { servePort = prev })

	servePort = 0
	assert.Equal(t, 9090, resolvePort())

	servePort = 7000
	assert.Equal(t, 7000, resolvePort())
}

func TestNewHandler_WithoutStore(t *testing.T) {
	newSGSServer(t)
	loadTestConfig(t)

	env, err := initApp(context.Background())
	require.NoError(t, err)
	defer env.Close()
	assert.Nil(t, env.Store)
	assert.Nil(t, env.Proposals)

	h := newHandler(env)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/solar/tariffs",
		strings.NewReader(`{"uf":"MG","grupo":"B1","modalidade":"horaria_branca"}`)))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"rate":0.8245`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/solar/proposals", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewHandler_WithStore(t *testing.T) {
	newSGSServer(t)
	t.Setenv("SOLAR_STORE_DRIVER", "sqlite")
	t.Setenv("SOLAR_STORE_DATABASE_URL", filepath.Join(t.TempDir(), "solar.db"))
	loadTestConfig(t)

	env, err := initApp(context.Background())
	require.NoError(t, err)
	defer env.Close()
	require.NotNil(t, env.Proposals)

	rec := httptest.NewRecorder()
	newHandler(env).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/solar/proposals", nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"proposals":[]`)
}

func TestNewTariffResolver_StoreRequiresStore(t *testing.T) {
	loadTestConfig(t)
	cfg.Tariff.Source = "store"

	_, err := newTariffResolver(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a store")
}

func TestRequireStore_Unconfigured(t *testing.T) {
	loadTestConfig(t)

	_, err := requireStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver is not configured")
}
