// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/storefront-auth/internal/core"
	"github.com/carterperez-dev/templates/storefront-auth/internal/middleware"
)

const (
	maxBodyBytes = 1 << 20

	msgInvalidCredentials = "invalid email or password"
	msgAccountDisabled    = "this account has been disabled"
	msgLoggedOut          = "logged out successfully"
	msgRegistered         = "account created"
)

type HandlerConfig struct {
	CookieName   string
	SecureCookie bool
}

type Handler struct {
	service      *Service
	validator    *validator.Validate
	cookieName   string
	secureCookie bool
}

func NewHandler(service *Service, cfg HandlerConfig) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "auth_token"
	}

	return &Handler{
		service:      service,
		validator:    validator.New(validator.WithRequiredStructEnabled()),
		cookieName:   cfg.CookieName,
		secureCookie: cfg.SecureCookie,
	}
}

// RegisterRoutes mounts the credential endpoints. limiter wraps the ones that
// accept a password.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	limiter func(http.Handler) http.Handler,
) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter)
			}
			r.Post("/login", h.Login)
			r.Post("/register", h.Register)
		})
		r.Post("/logout", h.Logout)
	})
}

// RegisterDiagnostics mounts /api/test-auth. Callers skip it in production.
func (h *Handler) RegisterDiagnostics(r chi.Router) {
	r.Get("/api/test-auth", h.TestAuth)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			core.JSONError(w, core.UnauthorizedError(msgInvalidCredentials))
		case errors.Is(err, ErrAccountDisabled):
			core.JSONError(w, core.ForbiddenError(msgAccountDisabled))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	http.SetCookie(w, middleware.SessionCookie(h.cookieName, result.Token, h.secureCookie))

	core.OK(w, LoginResponse{
		Success:    true,
		Role:       result.User.Role,
		User:       result.User,
		RedirectTo: result.RedirectTo,
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			core.JSONError(w, core.DuplicateError("email"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, RegisterResponse{
		Success: true,
		Message: msgRegistered,
		User:    *user,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context(), middleware.ExtractSessionToken(r, h.cookieName))

	http.SetCookie(w, middleware.ExpiredSessionCookie(h.cookieName, h.secureCookie))
	core.OK(w, core.SuccessResponse{Success: true, Message: msgLoggedOut})
}

func (h *Handler) TestAuth(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractSessionToken(r, h.cookieName)
	if token == "" {
		core.OK(w, SessionCheckResponse{Reason: "no session cookie"})
		return
	}

	identity, err := h.service.Inspect(r.Context(), token)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, core.ErrTokenExpired) {
			reason = "expired"
		}
		core.OK(w, SessionCheckResponse{CookiePresent: true, Reason: reason})
		return
	}

	core.OK(w, SessionCheckResponse{
		CookiePresent: true,
		Valid:         true,
		Claims: &SessionClaim{
			ID:        identity.ID,
			Email:     identity.Email,
			Role:      identity.Role,
			Name:      identity.Name,
			IssuedAt:  identity.IssuedAt.Unix(),
			ExpiresAt: identity.ExpiresAt.Unix(),
		},
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
