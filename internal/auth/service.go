// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/storefront-auth/internal/core"
	"github.com/carterperez-dev/templates/storefront-auth/internal/middleware"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountDisabled      = errors.New("account disabled")
	ErrEmailExists          = errors.New("email already exists")
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
)

const (
	StatusActive = "active"
	RoleUser     = "user"

	backgroundTimeout = 5 * time.Second
)

// UserInfo is what the directory hands to the login flow. PasswordHash never
// leaves this package.
type UserInfo struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Status       string
}

type Directory interface {
	FindByEmail(ctx context.Context, email string) (*UserInfo, error)
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	Create(
		ctx context.Context,
		name, email, passwordHash string,
	) (*UserInfo, error)
}

type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type ServiceConfig struct {
	DefaultPath string
	AdminPath   string
	Revoker     Revoker
	Logger      *slog.Logger
	Now         func() time.Time
}

type Service struct {
	directory   Directory
	tokens      *TokenManager
	revoker     Revoker
	logger      *slog.Logger
	now         func() time.Time
	defaultPath string
	adminPath   string

	mu         sync.Mutex
	draining   bool
	background sync.WaitGroup
}

func NewService(
	directory Directory,
	tokens *TokenManager,
	cfg ServiceConfig,
) *Service {
	if cfg.DefaultPath == "" {
		cfg.DefaultPath = "/"
	}
	if cfg.AdminPath == "" {
		cfg.AdminPath = "/admin"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		directory:   directory,
		tokens:      tokens,
		revoker:     cfg.Revoker,
		logger:      cfg.Logger,
		now:         cfg.Now,
		defaultPath: cfg.DefaultPath,
		adminPath:   cfg.AdminPath,
	}
}

type LoginResult struct {
	User       UserResponse
	Token      string
	ExpiresAt  time.Time
	RedirectTo string
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*LoginResult, error) {
	ctx, span := core.StartSpan(ctx, "auth.Login")
	defer span.End()

	user, err := s.directory.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			s.logger.Info("login rejected", "reason", "unknown email")
			core.AddSpanEvent(ctx, "login.rejected", attribute.String("reason", "unknown email"))
			return nil, ErrInvalidCredentials
		}
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("find user: %w: %w", ErrDirectoryUnavailable, err)
	}

	if user.Status != StatusActive {
		s.logger.Info("login rejected",
			"reason", "account disabled",
			"user_id", user.ID,
		)
		core.AddSpanEvent(ctx, "login.rejected", attribute.String("reason", "account disabled"))
		return nil, ErrAccountDisabled
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		s.logger.Warn("stored password digest unreadable",
			"user_id", user.ID,
			"error", err,
		)
		return nil, ErrInvalidCredentials
	}
	if !valid {
		s.logger.Info("login rejected",
			"reason", "wrong password",
			"user_id", user.ID,
		)
		core.AddSpanEvent(ctx, "login.rejected", attribute.String("reason", "wrong password"))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Name:   user.Name,
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.afterLogin(ctx, user.ID, newHash)

	s.logger.Info("login succeeded",
		"user_id", user.ID,
		"role", user.Role,
	)
	core.AddSpanEvent(ctx, "login.succeeded", attribute.Int64("user_id", user.ID))

	return &LoginResult{
		User:       toUserResponse(user),
		Token:      token,
		ExpiresAt:  expiresAt,
		RedirectTo: s.RedirectFor(user.Role),
	}, nil
}

// afterLogin records the login time and upgrades a legacy digest without
// holding up the response. Failures are logged and otherwise ignored.
func (s *Service) afterLogin(ctx context.Context, userID int64, newHash string) {
	at := s.now()
	detached := context.WithoutCancel(ctx)

	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		s.logger.Warn("skipping post-login writes during shutdown", "user_id", userID)
		return
	}
	s.background.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.background.Done()

		bgCtx, cancel := context.WithTimeout(detached, backgroundTimeout)
		defer cancel()

		if err := s.directory.TouchLastLogin(bgCtx, userID, at); err != nil {
			s.logger.Warn("record last login failed",
				"user_id", userID,
				"error", err,
			)
		}

		if newHash == "" {
			return
		}
		if err := s.directory.UpdatePassword(bgCtx, userID, newHash); err != nil {
			s.logger.Warn("password rehash failed",
				"user_id", userID,
				"error", err,
			)
			return
		}
		s.logger.Info("password digest upgraded", "user_id", userID)
	}()
}

// Wait blocks until every post-login write has finished. Logins that
// complete after Wait is called skip their background writes.
func (s *Service) Wait() {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	s.background.Wait()
}

func (s *Service) RedirectFor(role string) string {
	if role == middleware.RoleAdmin {
		return s.adminPath
	}
	return s.defaultPath
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*UserResponse, error) {
	ctx, span := core.StartSpan(ctx, "auth.Register")
	defer span.End()

	email := strings.TrimSpace(req.Email)

	_, err := s.directory.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailExists
	case !errors.Is(err, core.ErrNotFound):
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("find user: %w: %w", ErrDirectoryUnavailable, err)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.directory.Create(
		ctx,
		strings.TrimSpace(req.Name),
		email,
		passwordHash,
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)

	resp := toUserResponse(user)
	return &resp, nil
}

// Logout revokes the token's jti when a deny-list is configured. A token
// that does not verify has nothing left to revoke.
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" || s.revoker == nil {
		return
	}

	identity, err := s.tokens.Verify(ctx, token)
	if err != nil || identity.TokenID == "" {
		return
	}

	if err := s.revoker.Revoke(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
		s.logger.Warn("revoke session failed",
			"user_id", identity.ID,
			"error", err,
		)
		return
	}

	s.logger.Info("session revoked", "user_id", identity.ID)
}

// Inspect verifies a token for diagnostics without touching the directory.
func (s *Service) Inspect(
	ctx context.Context,
	token string,
) (*middleware.Identity, error) {
	return s.tokens.Verify(ctx, token)
}

func toUserResponse(user *UserInfo) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}
