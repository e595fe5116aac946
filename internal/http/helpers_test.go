package http

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"xolvetech/internal/auth"
	"xolvetech/internal/signup"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureSender records verification codes instead of delivering them.
type captureSender struct {
	mu    sync.Mutex
	codes []string
}

func (s *captureSender) Send(_ context.Context, _, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = append(s.codes, code)
	return nil
}

func (s *captureSender) last(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		t.Fatal("no verification code was sent")
	}
	return s.codes[len(s.codes)-1]
}

// signupEnv bundles the pieces a signup handler test needs.
type signupEnv struct {
	router  chi.Router
	manager *signup.Manager
	sender  *captureSender
	authSvc *auth.Service
}

func newSignupEnv(t *testing.T) *signupEnv {
	t.Helper()

	authSvc := auth.NewService(auth.NewInMemoryRepository(), time.Hour)
	sender := &captureSender{}
	manager := signup.NewManager(func() *auth.Store {
		return auth.NewStore(authSvc)
	}, sender, 30*time.Minute)

	handler := NewSignupHandler(manager, "development", discardLogger())

	r := chi.NewRouter()
	r.Route("/api/auth/signup", func(r chi.Router) {
		r.Post("/", handler.Create)
		r.Route("/{flowID}", func(r chi.Router) {
			r.Get("/", handler.State)
			r.Delete("/", handler.Cancel)
			r.Post("/start", handler.Start)
			r.Post("/signin", handler.SignIn)
			r.Post("/email", handler.Email)
			r.Post("/password", handler.Password)
			r.Post("/password/strength", handler.Strength)
			r.Post("/otp", handler.OTP)
			r.Post("/otp/resend", handler.ResendOTP)
			r.Post("/profile", handler.Profile)
			r.Post("/back", handler.Back)
			r.Post("/google", handler.Google)
		})
	})

	return &signupEnv{router: r, manager: manager, sender: sender, authSvc: authSvc}
}

// injectUser fakes the auth middleware for handlers that read the user from
// the request context.
func injectUser(user *auth.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionCookieFrom(t *testing.T, cookies []*http.Cookie) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie was not set")
	return nil
}
