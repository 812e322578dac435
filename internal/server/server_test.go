// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/storefront-auth/internal/config"
)

type recordingNotifier struct {
	ready    bool
	shutdown bool
}

func (n *recordingNotifier) SetReady(ready bool)       { n.ready = ready }
func (n *recordingNotifier) SetShutdown(shutdown bool) { n.shutdown = shutdown }

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		ShutdownTimeout: time.Second,
	}
}

func TestRouterRecoversPanics(t *testing.T) {
	srv := New(Config{ServerConfig: testServerConfig()})
	srv.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestShutdownFlipsHealthBeforeStopping(t *testing.T) {
	notifier := &recordingNotifier{ready: true}
	srv := New(Config{ServerConfig: testServerConfig(), HealthHandler: notifier})

	require.NoError(t, srv.Shutdown(context.Background(), 0))
	assert.False(t, notifier.ready)
	assert.True(t, notifier.shutdown)
}

func TestShutdownHonoursCancelledDrain(t *testing.T) {
	srv := New(Config{ServerConfig: testServerConfig()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := srv.Shutdown(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}
