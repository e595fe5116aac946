package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"xolvetech/internal/auth"
	"xolvetech/internal/signup"
)

const (
	sessionCookieName = "xolvetech_session"
	sessionCookieTTL  = 12 * time.Hour
)

// SignupHandler exposes the sign-up wizard over HTTP. Each client drives its
// own flow, addressed by the flow ID minted on start.
type SignupHandler struct {
	manager      *signup.Manager
	logger       *slog.Logger
	secureCookie bool
}

// NewSignupHandler creates a SignupHandler.
func NewSignupHandler(manager *signup.Manager, env string, logger *slog.Logger) *SignupHandler {
	return &SignupHandler{
		manager:      manager,
		logger:       logger,
		secureCookie: !strings.EqualFold(env, "development"),
	}
}

// Create handles POST /api/auth/signup and mints a new flow. The flow's
// auth store is initialized from any session the client already carries, so
// a signed-in user opening the wizard is recognized as such.
func (h *SignupHandler) Create(w http.ResponseWriter, r *http.Request) {
	flow := h.manager.Create()
	if err := flow.Store().Initialize(r.Context(), sessionToken(r)); err != nil {
		h.logger.Warn("failed to load existing session into signup flow", "flow_id", flow.ID(), "error", err)
	}
	writeJSON(w, http.StatusCreated, flow.State())
}

// State handles GET /api/auth/signup/{flowID}.
func (h *SignupHandler) State(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, flow.State())
}

// Start handles POST /api/auth/signup/{flowID}/start, choosing the sign-in
// or sign-up branch from the landing screen.
func (h *SignupHandler) Start(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}

	var payload struct {
		Mode string `json:"mode"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	var err error
	switch payload.Mode {
	case "signin":
		err = flow.StartSignIn()
	case "signup":
		err = flow.StartSignUp()
	default:
		writeError(w, http.StatusBadRequest, "mode must be signin or signup")
		return
	}
	if err != nil {
		h.handleFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.State())
}

// SignIn handles POST /api/auth/signup/{flowID}/signin.
func (h *SignupHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	if err := flow.SubmitSignIn(r.Context(), payload.Email, payload.Password); err != nil {
		h.handleFlowError(w, err)
		return
	}

	h.setSessionCookie(w, flow.Store().Token())
	writeJSON(w, http.StatusOK, flow.State())
}

// Email handles POST /api/auth/signup/{flowID}/email.
func (h *SignupHandler) Email(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	if err := flow.SubmitEmail(payload.Email); err != nil {
		h.handleFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.State())
}

// Password handles POST /api/auth/signup/{flowID}/password. The response
// carries the strength score alongside the flow state.
func (h *SignupHandler) Password(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}

	var payload struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	if err := flow.SubmitPassword(r.Context(), payload.Password, payload.ConfirmPassword); err != nil {
		h.handleFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":    flow.State(),
		"strength": signup.PasswordStrength(payload.Password),
	})
}

// Strength handles POST /api/auth/signup/{flowID}/password/strength: live
// feedback while the user types, with no flow mutation.
func (h *SignupHandler) Strength(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.flowFromRequest(w, r); !ok {
		return
	}

	var payload struct {
		Password string `json:"password"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"strength": signup.PasswordStrength(payload.Password),
	})
}

// OTP handles POST /api/auth/signup/{flowID}/otp.
func (h *SignupHandler) OTP(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	if err := flow.SubmitOTP(payload.Code); err != nil {
		h.handleFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.State())
}

// ResendOTP handles POST /api/auth/signup/{flowID}/otp/resend.
func (h *SignupHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}

	if err := flow.ResendOTP(r.Context()); err != nil {
		h.handleFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.State())
}

// Profile handles POST /api/auth/signup/{flowID}/profile, the final step.
// Completing it signs the new user in, so the session cookie is issued here.
func (h *SignupHandler) Profile(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}

	var payload struct {
		FullName    string   `json:"fullName"`
		DateOfBirth string   `json:"dateOfBirth"`
		PhoneNumber string   `json:"phoneNumber"`
		Grade       string   `json:"grade"`
		Interests   []string `json:"interests"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	input := signup.ProfileInput{
		FullName:    payload.FullName,
		PhoneNumber: payload.PhoneNumber,
		Grade:       payload.Grade,
		Interests:   payload.Interests,
	}
	if payload.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", payload.DateOfBirth)
		if err != nil {
			writeError(w, http.StatusBadRequest, "dateOfBirth must be YYYY-MM-DD")
			return
		}
		input.DateOfBirth = dob
	}

	if err := flow.SubmitProfile(r.Context(), input); err != nil {
		h.handleFlowError(w, err)
		return
	}

	h.setSessionCookie(w, flow.Store().Token())
	writeJSON(w, http.StatusOK, flow.State())
}

// Back handles POST /api/auth/signup/{flowID}/back.
func (h *SignupHandler) Back(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}

	if err := flow.Back(); err != nil {
		h.handleFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.State())
}

// Cancel handles DELETE /api/auth/signup/{flowID}, abandoning the wizard.
func (h *SignupHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "flowID")
	if !ok {
		return
	}
	h.manager.Destroy(id)
	w.WriteHeader(http.StatusNoContent)
}

// Google handles POST /api/auth/signup/{flowID}/google. It arms the flow for
// an OAuth completion and returns the provider consent URL; the CSRF state
// cookie mirrors the state embedded in that URL.
func (h *SignupHandler) Google(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flowFromRequest(w, r)
	if !ok {
		return
	}

	state, err := auth.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate state", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/api/auth",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthStateCookieTTL.Seconds()),
	})

	stateJSON, _ := json.Marshal(oauthStatePayload{State: state, FlowID: flow.ID().String()})
	fullState := base64.RawURLEncoding.EncodeToString(stateJSON)

	url, err := flow.StartOAuth(fullState)
	if err != nil {
		h.handleFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"authUrl": url})
}

func (h *SignupHandler) flowFromRequest(w http.ResponseWriter, r *http.Request) (*signup.Flow, bool) {
	id, ok := parseUUIDParam(w, r, "flowID")
	if !ok {
		return nil, false
	}

	flow, err := h.manager.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "signup flow not found")
		return nil, false
	}
	return flow, true
}

func (h *SignupHandler) setSessionCookie(w http.ResponseWriter, token string) {
	if token == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionCookieTTL.Seconds()),
	})
}

func (h *SignupHandler) handleFlowError(w http.ResponseWriter, err error) {
	var verr *signup.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr)
	case errors.Is(err, signup.ErrInvalidStep):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, signup.ErrCodeMismatch):
		writeError(w, http.StatusBadRequest, "verification code does not match")
	case errors.Is(err, signup.ErrCodeExpired):
		writeError(w, http.StatusBadRequest, "verification code expired; request a new one")
	case errors.Is(err, signup.ErrTooManyAttempts):
		writeError(w, http.StatusBadRequest, "too many attempts; request a new code")
	case errors.Is(err, signup.ErrNoCode):
		writeError(w, http.StatusBadRequest, "no verification code outstanding; request a new one")
	case errors.Is(err, signup.ErrResendNotReady):
		writeError(w, http.StatusTooManyRequests, "resend not available yet")
	case errors.Is(err, signup.ErrResendLimited):
		writeError(w, http.StatusTooManyRequests, "resend limit reached")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, "an account with this email already exists")
	case errors.Is(err, auth.ErrProfileCreation):
		h.logger.Error("profile creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "account created but profile setup failed")
	default:
		h.logger.Error("signup flow error", "error", err)
		writeError(w, http.StatusInternalServerError, "unexpected error")
	}
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	value := chi.URLParam(r, key)
	id, err := uuid.Parse(value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
