package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"xolvetech/internal/auth"
	"xolvetech/internal/cart"
	"xolvetech/internal/config"
	"xolvetech/internal/exporter"
	transporthttp "xolvetech/internal/http"
	"xolvetech/internal/importer"
	"xolvetech/internal/kits"
	"xolvetech/internal/platform/database"
	"xolvetech/internal/platform/logging"
	"xolvetech/internal/platform/migrate"
	"xolvetech/internal/signup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)

	authRepo, kitRepo, cartRepo, cleanup, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	authSvc := auth.NewService(authRepo, cfg.SessionTTL)
	kitSvc := kits.NewService(kitRepo)
	cartSvc := cart.NewService(cartRepo, kitSvc)
	csvImporter := importer.NewCSVImporter(kitSvc)
	csvExporter := exporter.NewCSVExporter()

	var google *auth.GoogleAuthenticator
	if cfg.OAuthEnabled() {
		google, err = auth.NewGoogleAuthenticator(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		if err != nil {
			logger.Error("failed to initialize google sign-in", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("google sign-in disabled, no client credentials configured")
	}

	storeFactory := func() *auth.Store {
		if google != nil {
			return auth.NewStore(authSvc, auth.WithGoogle(google))
		}
		return auth.NewStore(authSvc)
	}

	// Verification codes go to the application log until an email provider
	// is wired up.
	sender := signup.LogSender{Logger: logger}
	signupManager := signup.NewManager(storeFactory, sender, cfg.SignupFlowTTL)

	go runMaintenance(ctx, authSvc, signupManager, logger)

	router := transporthttp.NewRouter(cfg, transporthttp.RouterDeps{
		AuthService:   authSvc,
		Google:        google,
		SignupManager: signupManager,
		KitService:    kitSvc,
		CartService:   cartSvc,
		Importer:      csvImporter,
		Exporter:      csvExporter,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("XolveTech API listening", "addr", srv.Addr, "store", cfg.DataStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *slog.Logger) (auth.Repository, kits.Repository, cart.Repository, func(), error) {
	if cfg.UseInMemoryStore() {
		logger.Info("using in-memory repositories")
		kitRepo := kits.NewInMemoryRepository(seedLocalKits())
		return auth.NewInMemoryRepository(), kitRepo, cart.NewInMemoryRepository(), nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	cleanup := func() {
		_ = db.Close()
	}

	if err := migrate.Apply(ctx, db, logger); err != nil {
		cleanup()
		return nil, nil, nil, nil, err
	}

	logger.Info("connected to postgres")
	return auth.NewPostgresRepository(db), kits.NewPostgresRepository(db), cart.NewPostgresRepository(db), cleanup, nil
}

// runMaintenance periodically evicts idle signup flows and expired sessions.
func runMaintenance(ctx context.Context, authSvc *auth.Service, manager *signup.Manager, logger *slog.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := manager.Sweep(); evicted > 0 {
				logger.Info("swept idle signup flows", "count", evicted)
			}
			deleted, err := authSvc.CleanupExpiredSessions(ctx)
			if err != nil {
				logger.Warn("session cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("removed expired sessions", "count", deleted)
			}
		}
	}
}
