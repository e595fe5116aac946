package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"xolvetech/internal/auth"
)

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	return auth.NewService(auth.NewInMemoryRepository(), time.Hour)
}

func seedAccount(t *testing.T, svc *auth.Service) auth.User {
	t.Helper()
	user, err := svc.SignUpWithPassword(context.Background(), "ada@example.com", "Abcdef12")
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	if _, err := svc.CreateProfile(context.Background(), user.ID, user.Email, "Ada Lovelace"); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return user
}

func TestAuthSignInSetsSessionCookie(t *testing.T) {
	svc := newAuthService(t)
	seedAccount(t, svc)
	handler := NewAuthHandler(svc, "development", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", strings.NewReader(`{"email":"ada@example.com","password":"Abcdef12"}`))
	rec := httptest.NewRecorder()
	handler.SignIn(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookieFrom(t, rec.Result().Cookies())
	if cookie.Value == "" || !cookie.HttpOnly {
		t.Fatalf("unexpected session cookie: %+v", cookie)
	}

	user, err := svc.ValidateSession(context.Background(), cookie.Value)
	if err != nil || user == nil {
		t.Fatalf("cookie token does not validate: user=%v err=%v", user, err)
	}
}

func TestAuthSignInRejectsBadPassword(t *testing.T) {
	svc := newAuthService(t)
	seedAccount(t, svc)
	handler := NewAuthHandler(svc, "development", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", strings.NewReader(`{"email":"ada@example.com","password":"nope"}`))
	rec := httptest.NewRecorder()
	handler.SignIn(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("no cookie should be set on failed sign-in")
	}
}

func TestAuthSignOutClearsCookie(t *testing.T) {
	svc := newAuthService(t)
	user := seedAccount(t, svc)
	token, err := svc.CreateSession(context.Background(), user.ID, "test-agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	handler := NewAuthHandler(svc, "development", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.SignOut(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookieFrom(t, rec.Result().Cookies())
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", cookie)
	}

	remaining, err := svc.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("validate after signout: %v", err)
	}
	if remaining != nil {
		t.Fatal("session should be deleted after sign-out")
	}
}

func TestAuthSignOutWithoutSessionStillClearsCookie(t *testing.T) {
	svc := newAuthService(t)
	handler := NewAuthHandler(svc, "development", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
	rec := httptest.NewRecorder()
	handler.SignOut(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	cookie := sessionCookieFrom(t, rec.Result().Cookies())
	if cookie.MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got MaxAge %d", cookie.MaxAge)
	}
}

func TestAuthMeReturnsUserAndProfile(t *testing.T) {
	svc := newAuthService(t)
	user := seedAccount(t, svc)
	handler := NewAuthHandler(svc, "development", discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(context.WithValue(req.Context(), userContextKey, &user))
	rec := httptest.NewRecorder()
	handler.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	profile, ok := resp["profile"].(map[string]any)
	if !ok {
		t.Fatalf("expected profile object, got %T", resp["profile"])
	}
	if profile["fullName"] != "Ada Lovelace" {
		t.Fatalf("unexpected profile name: %v", profile["fullName"])
	}
}

func TestAuthUpdateProfileMergesFields(t *testing.T) {
	svc := newAuthService(t)
	user := seedAccount(t, svc)
	handler := NewAuthHandler(svc, "development", discardLogger())

	body := strings.NewReader(`{"bio":"Building robots","points":150}`)
	req := httptest.NewRequest(http.MethodPut, "/api/auth/me/profile", body)
	req = req.WithContext(context.WithValue(req.Context(), userContextKey, &user))
	rec := httptest.NewRecorder()
	handler.UpdateProfile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var profile map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if profile["bio"] != "Building robots" {
		t.Fatalf("bio not updated: %v", profile["bio"])
	}
	if profile["points"] != float64(150) {
		t.Fatalf("points not updated: %v", profile["points"])
	}
	if profile["fullName"] != "Ada Lovelace" {
		t.Fatalf("untouched field changed: %v", profile["fullName"])
	}
}
