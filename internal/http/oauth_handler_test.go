package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"xolvetech/internal/auth"
	"xolvetech/internal/signup"
)

type stubGoogle struct {
	claims      *auth.GoogleClaims
	exchangeErr error
}

func (s *stubGoogle) AuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (s *stubGoogle) Exchange(_ context.Context, code string) (*auth.GoogleClaims, error) {
	if s.exchangeErr != nil {
		return nil, s.exchangeErr
	}
	return s.claims, nil
}

const testFrontendURL = "http://localhost:5173"

func newOAuthHandler(t *testing.T, google googleAuthenticator) (*OAuthHandler, *auth.Service) {
	t.Helper()
	svc := newAuthService(t)
	return NewOAuthHandler(google, svc, nil, testFrontendURL, "development", discardLogger()), svc
}

func encodeStatePayload(t *testing.T, payload oauthStatePayload) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal state: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

func TestInitiateGoogleRedirectsWithStateCookie(t *testing.T) {
	handler, _ := newOAuthHandler(t, &stubGoogle{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google?redirectTo=/kits", nil)
	rec := httptest.NewRecorder()
	handler.InitiateGoogle(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", rec.Code)
	}

	var stateCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == oauthStateCookieName {
			stateCookie = c
		}
	}
	if stateCookie == nil || stateCookie.Value == "" {
		t.Fatal("state cookie was not set")
	}

	location := rec.Header().Get("Location")
	_, encoded, found := strings.Cut(location, "state=")
	if !found {
		t.Fatalf("redirect URL missing state: %s", location)
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("state is not base64: %v", err)
	}
	var payload oauthStatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("state is not JSON: %v", err)
	}
	if payload.State != stateCookie.Value {
		t.Fatal("state in URL does not match cookie")
	}
	if payload.RedirectTo != "/kits" {
		t.Fatalf("redirectTo not preserved: %q", payload.RedirectTo)
	}
}

func TestCallbackGoogleMissingStateCookie(t *testing.T) {
	handler, _ := newOAuthHandler(t, &stubGoogle{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=abc&state=xyz", nil)
	rec := httptest.NewRecorder()
	handler.CallbackGoogle(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, testFrontendURL+"/login?error=invalid_request") {
		t.Fatalf("expected error redirect, got %s", location)
	}
}

func TestCallbackGoogleStateMismatch(t *testing.T) {
	handler, _ := newOAuthHandler(t, &stubGoogle{})

	state := encodeStatePayload(t, oauthStatePayload{State: "attacker-state"})
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=abc&state="+state, nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "victim-state"})
	rec := httptest.NewRecorder()
	handler.CallbackGoogle(rec, req)

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "error=invalid_request") {
		t.Fatalf("expected state mismatch rejection, got %s", location)
	}
}

func TestCallbackGoogleUnverifiedEmail(t *testing.T) {
	handler, _ := newOAuthHandler(t, &stubGoogle{claims: &auth.GoogleClaims{
		Sub:           "google-sub",
		Email:         "ada@example.com",
		EmailVerified: false,
	}})

	state := encodeStatePayload(t, oauthStatePayload{State: "state-1"})
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=abc&state="+state, nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "state-1"})
	rec := httptest.NewRecorder()
	handler.CallbackGoogle(rec, req)

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "error=email_not_verified") {
		t.Fatalf("expected unverified email rejection, got %s", location)
	}
}

func TestCallbackGoogleExchangeFailure(t *testing.T) {
	handler, _ := newOAuthHandler(t, &stubGoogle{exchangeErr: errors.New("provider down")})

	state := encodeStatePayload(t, oauthStatePayload{State: "state-1"})
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=abc&state="+state, nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "state-1"})
	rec := httptest.NewRecorder()
	handler.CallbackGoogle(rec, req)

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "error=exchange_error") {
		t.Fatalf("expected exchange failure redirect, got %s", location)
	}
}

func TestCallbackGoogleFirstTimerRoutedToProfileStep(t *testing.T) {
	handler, svc := newOAuthHandler(t, &stubGoogle{claims: &auth.GoogleClaims{
		Sub:           "google-sub",
		Email:         "ada@example.com",
		EmailVerified: true,
		Name:          "Ada Lovelace",
	}})

	state := encodeStatePayload(t, oauthStatePayload{State: "state-1"})
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=abc&state="+state, nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "state-1"})
	rec := httptest.NewRecorder()
	handler.CallbackGoogle(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d: %s", rec.Code, rec.Body.String())
	}

	location := rec.Header().Get("Location")
	if location != testFrontendURL+"/signup/profile" {
		t.Fatalf("first-time signer should land on the profile step, got %s", location)
	}

	cookie := sessionCookieFrom(t, rec.Result().Cookies())
	user, err := svc.ValidateSession(context.Background(), cookie.Value)
	if err != nil || user == nil {
		t.Fatalf("session cookie does not validate: user=%v err=%v", user, err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("unexpected user: %q", user.Email)
	}
}

func TestCallbackGoogleReturningUserRedirectsHome(t *testing.T) {
	claims := &auth.GoogleClaims{
		Sub:           "google-sub",
		Email:         "ada@example.com",
		EmailVerified: true,
		Name:          "Ada Lovelace",
	}
	handler, svc := newOAuthHandler(t, &stubGoogle{claims: claims})

	// A prior OAuth completion makes the next sign-in a returning one.
	if _, _, err := svc.CompleteOAuth(context.Background(), claims, "agent", "127.0.0.1"); err != nil {
		t.Fatalf("failed to pre-register user: %v", err)
	}

	state := encodeStatePayload(t, oauthStatePayload{State: "state-2"})
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=abc&state="+state, nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "state-2"})
	rec := httptest.NewRecorder()
	handler.CallbackGoogle(rec, req)

	location := rec.Header().Get("Location")
	if location != testFrontendURL+"/" {
		t.Fatalf("returning user should land on the home page, got %s", location)
	}
}

func TestCallbackGoogleCompletesOnlyTheInitiatingFlow(t *testing.T) {
	svc := newAuthService(t)
	google := &stubGoogle{claims: &auth.GoogleClaims{
		Sub:           "google-sub",
		Email:         "ada@example.com",
		EmailVerified: true,
		Name:          "Ada Lovelace",
	}}
	manager := signup.NewManager(func() *auth.Store {
		return auth.NewStore(svc, auth.WithGoogle(google))
	}, &captureSender{}, 30*time.Minute)
	handler := NewOAuthHandler(google, svc, manager, testFrontendURL, "development", discardLogger())

	initiator := manager.Create()
	bystander := manager.Create()
	if _, err := initiator.StartOAuth("provider-state"); err != nil {
		t.Fatalf("StartOAuth returned error: %v", err)
	}

	state := encodeStatePayload(t, oauthStatePayload{State: "state-1", FlowID: initiator.ID().String()})
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=abc&state="+state, nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "state-1"})
	rec := httptest.NewRecorder()
	handler.CallbackGoogle(rec, req)

	if location := rec.Header().Get("Location"); location != testFrontendURL+"/signup/profile" {
		t.Fatalf("expected profile-step redirect, got %s", location)
	}

	if initiator.Step() != signup.StepProfile {
		t.Fatalf("expected initiating flow on profile step, got %s", initiator.Step())
	}
	token := initiator.Store().Token()
	if token == "" {
		t.Fatal("expected the session delivered to the initiating flow")
	}
	if user, err := svc.ValidateSession(context.Background(), token); err != nil || user == nil {
		t.Fatalf("delivered session does not validate: user=%v err=%v", user, err)
	}

	// The other live flow saw nothing of it.
	if bystander.Step() != signup.StepLanding {
		t.Fatalf("expected the other flow untouched, got %s", bystander.Step())
	}
	if bystander.Store().Token() != "" {
		t.Fatal("another client's session leaked into an unrelated flow")
	}
}

func TestIsValidRedirectPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/kits", true},
		{"/signup/profile", true},
		{"", false},
		{"//evil.com", false},
		{"https://evil.com", false},
		{"/%2f%2fevil.com", false},
		{"relative/path", false},
	}

	for _, tc := range tests {
		if got := isValidRedirectPath(tc.path); got != tc.want {
			t.Errorf("isValidRedirectPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
