package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/codetesla51/gatez/gate"
	"github.com/codetesla51/gatez/store"
)

func newTestRouter(t *testing.T, cfg gate.Config) http.Handler {
	t.Helper()

	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })

	limiter, err := gate.NewKeyed(cfg, s)
	require.NoError(t, err)

	guardStore := store.NewMemoryStore()
	t.Cleanup(func() { guardStore.Close() })

	guard, err := gate.NewKeyed(gate.Config{MaxAttempts: 1000, Window: time.Minute, Cooldown: time.Minute}, guardStore)
	require.NoError(t, err)

	a := &api{limiter: limiter, store: s, logger: zaptest.NewLogger(t)}
	return newRouter(a, guard)
}

func doJSON(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, resultPayload) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

	var p resultPayload
	if rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	}
	return rec, p
}

func TestCheckEndpoint(t *testing.T) {
	h := newTestRouter(t, gate.Config{MaxAttempts: 2, Window: time.Minute, Cooldown: 30 * time.Second})

	rec, p := doJSON(t, h, http.MethodPost, "/v1/gates/user123/check")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, p.Allowed)
	require.Equal(t, 1, p.Remaining)

	_, p = doJSON(t, h, http.MethodPost, "/v1/gates/user123/check")
	require.True(t, p.Allowed)
	require.Equal(t, 0, p.Remaining)

	// The verdict travels in the body; the call itself still succeeds
	rec, p = doJSON(t, h, http.MethodPost, "/v1/gates/user123/check")
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, p.Allowed)
	require.Equal(t, 30, p.RetryAfterSeconds)
}

func TestStatusEndpoint(t *testing.T) {
	h := newTestRouter(t, gate.Config{MaxAttempts: 3, Window: time.Minute, Cooldown: time.Minute})

	// Unknown keys report a full window
	rec, p := doJSON(t, h, http.MethodGet, "/v1/gates/nobody")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, p.Allowed)
	require.Equal(t, 3, p.Remaining)

	doJSON(t, h, http.MethodPost, "/v1/gates/user123/check")

	_, p = doJSON(t, h, http.MethodGet, "/v1/gates/user123")
	require.Equal(t, 2, p.Remaining)

	// Polling status does not consume attempts
	_, p = doJSON(t, h, http.MethodGet, "/v1/gates/user123")
	require.Equal(t, 2, p.Remaining)
}

func TestResetEndpoint(t *testing.T) {
	h := newTestRouter(t, gate.Config{MaxAttempts: 1, Window: time.Minute, Cooldown: time.Minute})

	// Resetting an unknown gate is a 404
	rec, _ := doJSON(t, h, http.MethodDelete, "/v1/gates/user123")
	require.Equal(t, http.StatusNotFound, rec.Code)

	doJSON(t, h, http.MethodPost, "/v1/gates/user123/check")
	_, p := doJSON(t, h, http.MethodPost, "/v1/gates/user123/check")
	require.False(t, p.Allowed)

	rec, _ = doJSON(t, h, http.MethodDelete, "/v1/gates/user123")
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, p = doJSON(t, h, http.MethodPost, "/v1/gates/user123/check")
	require.True(t, p.Allowed, "reset should clear the lockout")
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestRouter(t, gate.DefaultConfig())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestRouter(t, gate.DefaultConfig())

	// Generated when absent
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// Echoed when present
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestGuardLimitsClients(t *testing.T) {
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })

	limiter, err := gate.NewKeyed(gate.DefaultConfig(), s)
	require.NoError(t, err)

	guardStore := store.NewMemoryStore()
	t.Cleanup(func() { guardStore.Close() })

	guard, err := gate.NewKeyed(gate.Config{MaxAttempts: 2, Window: time.Minute, Cooldown: time.Minute}, guardStore)
	require.NoError(t, err)

	a := &api{limiter: limiter, store: s, logger: zaptest.NewLogger(t)}
	h := newRouter(a, guard)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/gates/a", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/gates/a", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// healthz bypasses the guard
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNewStoreBackends(t *testing.T) {
	s, err := newStore(StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	require.IsType(t, &store.MemoryStore{}, s)
	s.Close()

	// An empty backend falls back to memory
	s, err = newStore(StoreConfig{})
	require.NoError(t, err)
	require.IsType(t, &store.MemoryStore{}, s)
	s.Close()

	_, err = newStore(StoreConfig{Backend: "etcd"})
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("nonexistent")
	require.NoError(t, err)

	require.Equal(t, ":8090", cfg.Server.Address)
	require.Equal(t, 5, cfg.Gate.MaxAttempts)
	require.Equal(t, time.Minute, cfg.Gate.Window)
	require.Equal(t, 30*time.Second, cfg.Gate.Cooldown)
	require.Equal(t, "memory", cfg.Store.Backend)
	require.Equal(t, 100, cfg.Guard.MaxAttempts)
}
