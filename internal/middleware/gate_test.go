// AngelaMos | 2026
// gate_test.go

package middleware_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/storefront-auth/internal/auth"
	"github.com/carterperez-dev/templates/storefront-auth/internal/config"
	"github.com/carterperez-dev/templates/storefront-auth/internal/middleware"
)

const gateSecret = "gate-test-secret-with-at-least-32-bytes"

type seenRequest struct {
	called   bool
	identity *middleware.Identity
	header   http.Header
}

type gateFixture struct {
	tokens *auth.TokenManager
	seen   *seenRequest
	gate   http.Handler
}

type stubRevocations struct {
	revoked map[string]bool
	err     error
	calls   int
}

func (s *stubRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[tokenID], nil
}

func newGateFixture(t *testing.T, revocations middleware.RevocationChecker) *gateFixture {
	t.Helper()

	tokens, err := auth.NewTokenManager(config.JWTConfig{Secret: gateSecret, Issuer: "neoshop"})
	require.NoError(t, err)

	seen := &seenRequest{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.called = true
		seen.identity = middleware.GetIdentity(r.Context())
		seen.header = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	})

	cfg := middleware.GateConfig{
		CookieName:  "auth_token",
		LoginPath:   "/auth/login",
		DefaultPath: "/",
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if revocations != nil {
		cfg.Revocations = revocations
	}

	return &gateFixture{
		tokens: tokens,
		seen:   seen,
		gate:   middleware.SessionGate(tokens, cfg)(next),
	}
}

func (f *gateFixture) token(t *testing.T, role string) string {
	t.Helper()
	token, _, err := f.tokens.Issue(auth.SessionClaims{
		UserID: 42,
		Email:  "shopper@x.com",
		Role:   role,
		Name:   "Shopper",
	})
	require.NoError(t, err)
	return token
}

func (f *gateFixture) do(path, token string, extra ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	}
	for _, fn := range extra {
		fn(req)
	}
	rec := httptest.NewRecorder()
	f.gate.ServeHTTP(rec, req)
	return rec
}

func TestGateAdminWithoutCookieRedirectsToLogin(t *testing.T) {
	f := newGateFixture(t, nil)

	rec := f.do("/admin/anything", "")

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	assert.False(t, f.seen.called)
}

func TestGateAdminWithUserRoleRedirectsToDefault(t *testing.T) {
	f := newGateFixture(t, nil)

	rec := f.do("/admin/anything", f.token(t, "user"))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.False(t, f.seen.called)
}

func TestGateRoleGatingDistinguishesAnonymousFromUnauthorized(t *testing.T) {
	f := newGateFixture(t, nil)

	anonymous := f.do("/admin", "")
	shopper := f.do("/admin", f.token(t, "vip_user"))

	assert.Equal(t, "/auth/login", anonymous.Header().Get("Location"))
	assert.Equal(t, "/", shopper.Header().Get("Location"))
	assert.NotEqual(t,
		anonymous.Header().Get("Location"),
		shopper.Header().Get("Location"),
	)
}

func TestGateAdmitsAdminWithIdentity(t *testing.T) {
	f := newGateFixture(t, nil)

	rec := f.do("/admin/stats", f.token(t, "admin"))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, f.seen.called)
	require.NotNil(t, f.seen.identity)
	assert.Equal(t, int64(42), f.seen.identity.ID)
	assert.Equal(t, "admin", f.seen.identity.Role)
	assert.Equal(t, "42", f.seen.header.Get(middleware.HeaderUserID))
	assert.Equal(t, "shopper@x.com", f.seen.header.Get(middleware.HeaderUserEmail))
	assert.Equal(t, "admin", f.seen.header.Get(middleware.HeaderUserRole))
	assert.Equal(t, "Shopper", f.seen.header.Get(middleware.HeaderUserName))
}

func TestGateProtectedRoutes(t *testing.T) {
	f := newGateFixture(t, nil)

	rec := f.do("/cart", "")
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))

	rec = f.do("/cart", f.token(t, "user"))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.seen.identity)
	assert.Equal(t, "user", f.seen.identity.Role)
}

func TestGateInvalidCookieIsClearedAndRedirected(t *testing.T) {
	f := newGateFixture(t, nil)

	rec := f.do("/cart", "tampered.token.value")

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "auth_token=;")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
	assert.False(t, f.seen.called)
}

func TestGatePublicRoutesSkipVerification(t *testing.T) {
	f := newGateFixture(t, nil)

	for _, path := range []string{"/", "/auth/login", "/api/auth/login", "/healthz", "/logo.png"} {
		f.seen.called = false
		rec := f.do(path, "garbage")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.True(t, f.seen.called, path)
		assert.Nil(t, f.seen.identity, path)
		assert.Empty(t, rec.Header().Get("Set-Cookie"), path)
	}
}

func TestGateAPIRoutesPassThroughAnonymously(t *testing.T) {
	f := newGateFixture(t, nil)

	rec := f.do("/api/user/profile", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.seen.called)
	assert.Nil(t, f.seen.identity)

	rec = f.do("/api/user/profile", "garbage")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, f.seen.identity)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")

	rec = f.do("/api/user/profile", f.token(t, "user"))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.seen.identity)
	assert.Equal(t, int64(42), f.seen.identity.ID)
}

func TestGateStripsSpoofedIdentityHeaders(t *testing.T) {
	f := newGateFixture(t, nil)

	spoof := func(r *http.Request) {
		r.Header.Set(middleware.HeaderUserID, "1")
		r.Header.Set(middleware.HeaderUserRole, "admin")
	}

	f.do("/api/user/profile", "", spoof)
	require.True(t, f.seen.called)
	assert.Empty(t, f.seen.header.Get(middleware.HeaderUserID))
	assert.Empty(t, f.seen.header.Get(middleware.HeaderUserRole))

	f.do("/cart", f.token(t, "user"), spoof)
	assert.Equal(t, "42", f.seen.header.Get(middleware.HeaderUserID))
	assert.Equal(t, "user", f.seen.header.Get(middleware.HeaderUserRole))
}

func TestGateRejectsRevokedToken(t *testing.T) {
	revocations := &stubRevocations{revoked: map[string]bool{}}
	f := newGateFixture(t, revocations)

	token := f.token(t, "user")
	identity, err := f.tokens.Verify(context.Background(), token)
	require.NoError(t, err)
	revocations.revoked[identity.TokenID] = true

	rec := f.do("/cart", token)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	assert.Equal(t, 1, revocations.calls)
}

func TestGateRevocationBackendFailureFailsOpen(t *testing.T) {
	revocations := &stubRevocations{err: errors.New("redis down")}
	f := newGateFixture(t, revocations)

	rec := f.do("/cart", f.token(t, "user"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.seen.called)
}

func TestGateExpiredTokenRedirects(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	old, err := auth.NewTokenManager(
		config.JWTConfig{Secret: gateSecret, Issuer: "neoshop"},
		auth.WithClock(func() time.Time { return past }),
	)
	require.NoError(t, err)
	token, _, err := old.Issue(auth.SessionClaims{UserID: 42, Email: "shopper@x.com", Role: "user"})
	require.NoError(t, err)

	f := newGateFixture(t, nil)
	rec := f.do("/cart", token)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}
