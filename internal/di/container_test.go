package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forsage-shop/pos/internal/platform/config"
	"github.com/forsage-shop/pos/internal/repositories/memory"
)

func loadConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	cfg, err := config.Load(context.Background(), config.WithEnvFile(""), config.WithoutSystemEnv(), config.WithEnvMap(env))
	require.NoError(t, err)
	return cfg
}

func TestNewContainerWiresRoutes(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"POS_STORAGE_DRIVER": "memory"})
	store := memory.NewStore()

	c, err := NewContainer(context.Background(), cfg, nil, WithStore(store), WithVersion("test"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close(context.Background())) })

	require.NotNil(t, c.Services.Orders)
	require.NotNil(t, c.Services.Catalog)
	require.NotNil(t, c.Services.Customers)
	require.NotNil(t, c.Services.Statistics)

	rr := httptest.NewRecorder()
	c.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"version":"test"`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"name":"Filter","code":"F-1","buyPrice":100,"sellPrice":"150"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	c.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Contains(t, store.Keys(), cfg.Storage.KeyPrefix+"products")

	rr = httptest.NewRecorder()
	c.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestNewContainerOpensConfiguredStore(t *testing.T) {
	dir := t.TempDir()
	cfg := loadConfig(t, map[string]string{
		"POS_STORAGE_DRIVER":    "file",
		"POS_STORAGE_FILE_PATH": dir + "/pos.json",
	})
	c, err := NewContainer(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NoError(t, c.Close(context.Background()))

	cfg = loadConfig(t, map[string]string{
		"POS_STORAGE_DRIVER":      "sqlite",
		"POS_STORAGE_SQLITE_PATH": dir + "/pos.db",
	})
	c, err = NewContainer(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NoError(t, c.Close(context.Background()))
}
