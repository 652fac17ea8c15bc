package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/rollcall-hq/rollcall/internal/authz"
	"github.com/rollcall-hq/rollcall/internal/platform/httpx"
	"github.com/rollcall-hq/rollcall/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	sessions  *shared.SessionStore
	resolver  *authz.Resolver
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionStore, resolver *authz.Resolver) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		sessions:  sessions,
		resolver:  resolver,
		validator: validator.New(),
	}
}

// Login gets a much tighter rate budget than the global limiter: the lockout
// counter caps attempts per username, this caps attempts per client IP.
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(httprate.Limit(loginRateLimit, loginRateWindow, httprate.WithKeyFuncs(httprate.KeyByIP))).
		Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
	r.Put("/me", h.handleUpdateMe)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Outcome           string `json:"outcome"`
	RemainingAttempts *int   `json:"remaining_attempts,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "username and password are required")
		return
	}

	result, err := h.service.AttemptLogin(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			h.logger.Error("session missing during login")
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		sess.SetActor(result.Actor.ID)
		httpx.JSON(w, http.StatusOK, loginResponse{Outcome: "success"})
	case errors.Is(err, shared.ErrInvalidCredentials):
		remaining := result.RemainingAttempts
		httpx.JSON(w, http.StatusUnauthorized, loginResponse{
			Outcome:           "invalid_credentials",
			RemainingAttempts: &remaining,
		})
	case errors.Is(err, shared.ErrAccountBlocked), errors.Is(err, shared.ErrTooManyAttempts):
		// Same body for a persisted block and session-scoped suppression:
		// the caller learns nothing about whether the account exists.
		httpx.Problem(w, http.StatusLocked, "Account Blocked", "too many failed attempts or account blocked")
	default:
		h.logger.Error("attempt login", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.sessions.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

type profileResponse struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Role        string   `json:"role"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Permissions []string `json:"permissions"`
}

// handleMe serves the actor's own profile. Gated through the resolver like
// everything else, though the own-profile permission is always granted.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if !h.resolver.IsAllowed(actor.Info(), authz.PermPageOwnProfile) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	perms := make([]string, 0, len(actor.Permissions))
	for _, p := range actor.Permissions {
		perms = append(perms, string(p))
	}
	httpx.JSON(w, http.StatusOK, profileResponse{
		ID:          actor.ID,
		Username:    actor.Username,
		DisplayName: actor.DisplayName,
		Role:        string(actor.Role),
		AvatarURL:   actor.AvatarURL,
		Permissions: perms,
	})
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"max=120"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url"`
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req updateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid profile fields")
		return
	}
	updated, err := h.service.UpdateProfile(r.Context(), actor, req.DisplayName, req.AvatarURL)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	perms := make([]string, 0, len(updated.Permissions))
	for _, p := range updated.Permissions {
		perms = append(perms, string(p))
	}
	httpx.JSON(w, http.StatusOK, profileResponse{
		ID:          updated.ID,
		Username:    updated.Username,
		DisplayName: updated.DisplayName,
		Role:        string(updated.Role),
		AvatarURL:   updated.AvatarURL,
		Permissions: perms,
	})
}
