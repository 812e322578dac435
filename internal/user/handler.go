// AngelaMos | 2026
// handler.go

package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/storefront-auth/internal/core"
	"github.com/carterperez-dev/templates/storefront-auth/internal/middleware"
)

const (
	msgUnauthorized   = "authentication required"
	msgProfileFailure = "failed to load profile"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/user/profile", h.GetProfile)
}

// GetProfile answers for the identity the session gate attached. A token
// whose user has since disappeared is treated the same as no token.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		core.ErrorMessage(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	user, err := h.service.Profile(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrUnauthorized) {
			core.ErrorMessage(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		slog.Error("load profile",
			"user_id", identity.ID,
			"error", err,
		)
		core.ErrorMessage(w, http.StatusInternalServerError, msgProfileFailure)
		return
	}

	core.OK(w, ProfileResponse{User: ToProfileUser(user)})
}
