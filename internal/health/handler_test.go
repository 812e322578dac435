// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthy() Checker {
	return pingFunc(func(context.Context) error { return nil })
}

func failing() Checker {
	return pingFunc(func(context.Context) error {
		return errors.New("dial tcp 10.0.0.5:3306: connection refused")
	})
}

func serve(t *testing.T, h *Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeReadiness(t *testing.T, rec *httptest.ResponseRecorder) ReadinessResponse {
	t.Helper()

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestLiveness(t *testing.T) {
	h := NewHandler(failing())

	rec := serve(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(t, h, "/livez")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessAllHealthy(t *testing.T) {
	h := NewHandler(healthy(), Dependency{Name: "redis", Checker: healthy()})

	rec := serve(t, h, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeReadiness(t, rec)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Checks, 2)
	assert.Equal(t, "database", resp.Checks[0].Name)
	assert.Equal(t, "redis", resp.Checks[1].Name)
}

func TestReadinessDegradedHidesDriverError(t *testing.T) {
	h := NewHandler(failing(), Dependency{Name: "redis", Checker: healthy()})

	rec := serve(t, h, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	resp := decodeReadiness(t, rec)
	assert.Equal(t, "degraded", resp.Status)
	assert.False(t, resp.Checks[0].Healthy)
	assert.Equal(t, "ping failed", resp.Checks[0].Message)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestReadinessSkipsUnconfiguredDependency(t *testing.T) {
	h := NewHandler(healthy(), Dependency{Name: "redis"})

	rec := serve(t, h, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeReadiness(t, rec)
	require.Len(t, resp.Checks, 1)
	assert.Equal(t, "database", resp.Checks[0].Name)
}

func TestReadinessNotReady(t *testing.T) {
	h := NewHandler(healthy())
	h.SetReady(false)

	rec := serve(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready"}`, rec.Body.String())
}

func TestShutdownFailsProbes(t *testing.T) {
	h := NewHandler(healthy())
	h.SetShutdown(true)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := serve(t, h, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.JSONEq(t, `{"status":"shutting_down"}`, rec.Body.String(), path)
	}
}

func TestTestDatabase(t *testing.T) {
	rec := serve(t, NewHandler(healthy()), "/api/test-db")
	require.Equal(t, http.StatusOK, rec.Code)

	var ok DatabaseTestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.True(t, ok.Success)
	assert.True(t, ok.Check.Healthy)

	rec = serve(t, NewHandler(failing()), "/api/test-db")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var bad DatabaseTestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bad))
	assert.False(t, bad.Success)
	assert.Equal(t, "ping failed", bad.Check.Message)
}
