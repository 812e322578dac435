// AngelaMos | 2026
// token.go

package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/templates/storefront-auth/internal/config"
	"github.com/carterperez-dev/templates/storefront-auth/internal/core"
	"github.com/carterperez-dev/templates/storefront-auth/internal/middleware"
)

// TokenLifetime is fixed; it is not a configuration knob.
const TokenLifetime = 24 * time.Hour

type SessionClaims struct {
	UserID int64
	Email  string
	Role   string
	Name   string
}

type TokenManager struct {
	key    jwk.Key
	issuer string
	now    func() time.Time
}

type TokenOption func(*TokenManager)

func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

func NewTokenManager(
	cfg config.JWTConfig,
	opts ...TokenOption,
) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("create token manager: empty signing secret")
	}

	key, err := jwk.Import([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("import signing secret: %w", err)
	}

	if setErr := key.Set(jwk.AlgorithmKey, jwa.HS256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	m := &TokenManager{
		key:    key,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func (m *TokenManager) Issue(claims SessionClaims) (string, time.Time, error) {
	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(TokenLifetime)

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.issuer).
		Subject(strconv.FormatInt(claims.UserID, 10)).
		IssuedAt(now).
		Expiration(expiresAt).
		Claim("id", claims.UserID).
		Claim("email", claims.Email).
		Claim("role", claims.Role).
		Claim("name", claims.Name).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), m.key))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return string(signed), expiresAt, nil
}

// Verify checks signature, structure and lifetime in one pass. Every failure
// wraps core.ErrTokenInvalid or core.ErrTokenExpired.
func (m *TokenManager) Verify(
	_ context.Context,
	tokenString string,
) (*middleware.Identity, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), m.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.issuer),
		jwt.WithClock(jwt.ClockFunc(m.now)),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	var idFloat float64
	if err := token.Get("id", &idFloat); err != nil || idFloat <= 0 {
		return nil, fmt.Errorf(
			"verify token: missing id claim: %w",
			core.ErrTokenInvalid,
		)
	}

	var email string
	if err := token.Get("email", &email); err != nil || email == "" {
		return nil, fmt.Errorf(
			"verify token: missing email claim: %w",
			core.ErrTokenInvalid,
		)
	}

	var role string
	if err := token.Get("role", &role); err != nil || role == "" {
		return nil, fmt.Errorf(
			"verify token: missing role claim: %w",
			core.ErrTokenInvalid,
		)
	}

	var name string
	//nolint:errcheck // name is optional, an absent claim leaves it empty
	_ = token.Get("name", &name)

	identity := &middleware.Identity{
		ID:    int64(idFloat),
		Email: email,
		Role:  role,
		Name:  name,
	}
	if jti, ok := token.JwtID(); ok {
		identity.TokenID = jti
	}
	if iat, ok := token.IssuedAt(); ok {
		identity.IssuedAt = iat
	}
	if exp, ok := token.Expiration(); ok {
		identity.ExpiresAt = exp
	}

	return identity, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, `"exp" not satisfied`) ||
		strings.Contains(errStr, "token is expired")
}
