// AngelaMos | 2026
// gate.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/carterperez-dev/templates/storefront-auth/internal/core"
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Outcome string

const (
	OutcomePublic            Outcome = "public"
	OutcomeAdmitted          Outcome = "admitted"
	OutcomeAnonymous         Outcome = "anonymous"
	OutcomeRedirectToLogin   Outcome = "redirected-to-login"
	OutcomeRedirectToDefault Outcome = "redirected-to-default"
)

type GateConfig struct {
	CookieName   string
	LoginPath    string
	DefaultPath  string
	SecureCookie bool
	Routes       *RouteTable
	Revocations  RevocationChecker
	Logger       *slog.Logger
}

func (c *GateConfig) applyDefaults() {
	if c.CookieName == "" {
		c.CookieName = "auth_token"
	}
	if c.LoginPath == "" {
		c.LoginPath = "/auth/login"
	}
	if c.DefaultPath == "" {
		c.DefaultPath = "/"
	}
	if c.Routes == nil {
		c.Routes = NewRouteTable(DefaultRouteRules())
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// SessionGate runs ahead of every route. It never writes an error body:
// each request ends admitted or redirected.
func SessionGate(
	verifier TokenVerifier,
	cfg GateConfig,
) func(http.Handler) http.Handler {
	cfg.applyDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			stripIdentityHeaders(r)

			class, rule := cfg.Routes.Classify(r.URL.Path)
			log := cfg.Logger.With(
				"path", r.URL.Path,
				"route_class", class.String(),
				"route_rule", rule,
			)

			if class == ClassPublic {
				log.Debug("session gate", "outcome", OutcomePublic)
				next.ServeHTTP(w, r)
				return
			}

			token := ExtractSessionToken(r, cfg.CookieName)
			if token == "" {
				if class == ClassAPI {
					log.Debug("session gate", "outcome", OutcomeAnonymous)
					next.ServeHTTP(w, r)
					return
				}
				log.Debug("session gate",
					"outcome", OutcomeRedirectToLogin,
					"reason", "missing token",
				)
				http.Redirect(w, r, cfg.LoginPath, http.StatusTemporaryRedirect)
				return
			}

			identity, err := cfg.verify(r.Context(), verifier, token)
			if err != nil {
				http.SetCookie(w, ExpiredSessionCookie(cfg.CookieName, cfg.SecureCookie))
				if class == ClassAPI {
					log.Debug("session gate",
						"outcome", OutcomeAnonymous,
						"reason", verificationReason(err),
					)
					next.ServeHTTP(w, r)
					return
				}
				log.Debug("session gate",
					"outcome", OutcomeRedirectToLogin,
					"reason", verificationReason(err),
				)
				http.Redirect(w, r, cfg.LoginPath, http.StatusTemporaryRedirect)
				return
			}

			if class == ClassAdmin && !identity.IsAdmin() {
				log.Debug("session gate",
					"outcome", OutcomeRedirectToDefault,
					"user_id", identity.ID,
					"role", identity.Role,
				)
				http.Redirect(w, r, cfg.DefaultPath, http.StatusTemporaryRedirect)
				return
			}

			log.Debug("session gate",
				"outcome", OutcomeAdmitted,
				"user_id", identity.ID,
			)
			next.ServeHTTP(w, admit(r, identity))
		})
	}
}

func (c *GateConfig) verify(
	ctx context.Context,
	verifier TokenVerifier,
	token string,
) (*Identity, error) {
	identity, err := verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	if c.Revocations == nil || identity.TokenID == "" {
		return identity, nil
	}

	revoked, err := c.Revocations.IsRevoked(ctx, identity.TokenID)
	if err != nil {
		c.Logger.Warn("revocation check failed, admitting token",
			"error", err,
			"user_id", identity.ID,
		)
		return identity, nil
	}
	if revoked {
		return nil, core.ErrTokenRevoked
	}

	return identity, nil
}

func admit(r *http.Request, identity *Identity) *http.Request {
	r = r.Clone(WithIdentity(r.Context(), identity))
	r.Header.Set(HeaderUserID, strconv.FormatInt(identity.ID, 10))
	r.Header.Set(HeaderUserEmail, identity.Email)
	r.Header.Set(HeaderUserRole, identity.Role)
	r.Header.Set(HeaderUserName, identity.Name)
	return r
}

func stripIdentityHeaders(r *http.Request) {
	r.Header.Del(HeaderUserID)
	r.Header.Del(HeaderUserEmail)
	r.Header.Del(HeaderUserRole)
	r.Header.Del(HeaderUserName)
}

func ExtractSessionToken(r *http.Request, cookieName string) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}

func verificationReason(err error) string {
	switch {
	case errors.Is(err, core.ErrTokenExpired):
		return "expired"
	case errors.Is(err, core.ErrTokenRevoked):
		return "revoked"
	default:
		return "invalid"
	}
}
