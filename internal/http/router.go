package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"xolvetech/internal/auth"
	"xolvetech/internal/cart"
	"xolvetech/internal/config"
	"xolvetech/internal/exporter"
	"xolvetech/internal/importer"
	"xolvetech/internal/kits"
	"xolvetech/internal/signup"
)

// RouterDeps carries the services the router wires into handlers.
type RouterDeps struct {
	AuthService   *auth.Service
	Google        *auth.GoogleAuthenticator
	SignupManager *signup.Manager
	KitService    *kits.Service
	CartService   *cart.Service
	Importer      *importer.CSVImporter
	Exporter      *exporter.CSVExporter
}

// NewRouter wires application routes and middleware using chi.
func NewRouter(cfg config.Config, deps RouterDeps, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSlogMiddleware(logger))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})

	signupHandler := NewSignupHandler(deps.SignupManager, cfg.Environment, logger)
	authHandler := NewAuthHandler(deps.AuthService, cfg.Environment, logger)
	kitHandler := NewKitHandler(deps.KitService, deps.Importer, deps.Exporter, logger)
	cartHandler := NewCartHandler(deps.CartService, logger)

	requireAuth := newAuthMiddleware(deps.AuthService, logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signin", authHandler.SignIn)
			r.Post("/signout", authHandler.SignOut)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Put("/me/profile", authHandler.UpdateProfile)
			})

			if deps.Google != nil {
				oauthHandler := NewOAuthHandler(deps.Google, deps.AuthService, deps.SignupManager, cfg.FrontendURL, cfg.Environment, logger)
				r.Get("/google", oauthHandler.InitiateGoogle)
				r.Get("/google/callback", oauthHandler.CallbackGoogle)
			}

			r.Route("/signup", func(r chi.Router) {
				r.Post("/", signupHandler.Create)
				r.Route("/{flowID}", func(r chi.Router) {
					r.Get("/", signupHandler.State)
					r.Delete("/", signupHandler.Cancel)
					r.Post("/start", signupHandler.Start)
					r.Post("/signin", signupHandler.SignIn)
					r.Post("/email", signupHandler.Email)
					r.Post("/password", signupHandler.Password)
					r.Post("/password/strength", signupHandler.Strength)
					r.Post("/otp", signupHandler.OTP)
					r.Post("/otp/resend", signupHandler.ResendOTP)
					r.Post("/profile", signupHandler.Profile)
					r.Post("/back", signupHandler.Back)
					r.Post("/google", signupHandler.Google)
				})
			})
		})

		r.Route("/kits", func(r chi.Router) {
			r.Get("/", kitHandler.List)
			r.Get("/export", kitHandler.ExportCSV)
			r.Get("/{id}", kitHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", kitHandler.Create)
				r.Post("/import", kitHandler.ImportCSV)
				r.Put("/{id}", kitHandler.Update)
				r.Delete("/{id}", kitHandler.Delete)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", cartHandler.Get)
			r.Delete("/", cartHandler.Clear)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{kitID}", cartHandler.SetQuantity)
			r.Delete("/items/{kitID}", cartHandler.RemoveItem)
		})
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
