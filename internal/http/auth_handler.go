package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"xolvetech/internal/auth"
)

// AuthHandler serves the session endpoints used outside the wizard: direct
// sign-in, sign-out, and the current-identity lookup.
type AuthHandler struct {
	authService  *auth.Service
	logger       *slog.Logger
	secureCookie bool
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *auth.Service, env string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		logger:       logger,
		secureCookie: !strings.EqualFold(env, "development"),
	}
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	user, token, err := h.authService.SignInWithPassword(r.Context(), payload.Email, payload.Password, r.UserAgent(), clientIPFromRequest(r))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("sign in failed", "error", err)
		writeError(w, http.StatusInternalServerError, "unexpected error")
		return
	}

	http.SetCookie(w, h.sessionCookie(token, sessionCookieTTL))
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// SignOut handles POST /api/auth/signout. The cookie is cleared even when
// the backend could not delete the session.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)

	var signOutErr error
	if token != "" {
		signOutErr = h.authService.SignOut(r.Context(), token)
	}

	clearCookie := h.sessionCookie("", 0)
	clearCookie.MaxAge = -1
	clearCookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, clearCookie)

	if signOutErr != nil {
		h.logger.Error("sign out failed", "error", signOutErr)
		writeError(w, http.StatusInternalServerError, "session cleared locally but sign-out failed upstream")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me. It requires the auth middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	profile, err := h.authService.GetProfile(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("load profile", "error", err)
		writeError(w, http.StatusInternalServerError, "unexpected error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":    user,
		"profile": profile,
	})
}

// UpdateProfile handles PUT /api/auth/me/profile with a partial update.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	var payload auth.ProfileUpdate
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	profile, err := h.authService.UpdateProfile(r.Context(), user.ID, payload)
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		h.logger.Error("update profile", "error", err)
		writeError(w, http.StatusInternalServerError, "unexpected error")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *AuthHandler) sessionCookie(token string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookie,
		MaxAge:   int(ttl.Seconds()),
	}
}
