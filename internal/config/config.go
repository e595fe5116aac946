package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the XolveTech services.
type Config struct {
	Environment        string
	HTTPPort           int
	DatabaseURL        string
	DataStore          string
	LogLevel           string
	AllowedOrigins     []string
	FrontendURL        string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	SessionTTL         time.Duration
	SignupFlowTTL      time.Duration
}

// Load reads configuration from environment variables with sensible defaults for local development.
func Load() (Config, error) {
	databaseURL, err := getEnvOrFile("DATABASE_URL", "/run/secrets/xolvetech_database_url")
	if err != nil {
		return Config{}, err
	}

	googleClientSecret, err := getEnvOrFile("AUTH_GOOGLE_CLIENT_SECRET", "/run/secrets/xolvetech_google_client_secret")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:        getEnv("APP_ENV", "development"),
		DatabaseURL:        databaseURL,
		DataStore:          strings.ToLower(getEnv("DATA_STORE", "memory")),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins:     parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080")),
		FrontendURL:        strings.TrimSuffix(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		GoogleClientID:     strings.TrimSpace(os.Getenv("AUTH_GOOGLE_CLIENT_ID")),
		GoogleClientSecret: strings.TrimSpace(googleClientSecret),
		GoogleRedirectURL:  getEnv("AUTH_GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),
	}

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "8080"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	sessionTTL, err := parseDuration("SESSION_TTL", 12*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionTTL = sessionTTL

	flowTTL, err := parseDuration("SIGNUP_FLOW_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.SignupFlowTTL = flowTTL

	if cfg.DataStore == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATA_STORE is postgres but DATABASE_URL is not set")
	}

	if !cfg.IsDevelopment() {
		if cfg.GoogleClientID == "" {
			return Config{}, fmt.Errorf("AUTH_GOOGLE_CLIENT_ID is required outside development")
		}
		if cfg.GoogleClientSecret == "" {
			return Config{}, fmt.Errorf("AUTH_GOOGLE_CLIENT_SECRET is required outside development")
		}
		if len(cfg.AllowedOrigins) == 0 {
			return Config{}, fmt.Errorf("ALLOWED_ORIGINS must define at least one origin outside development")
		}
		for _, origin := range cfg.AllowedOrigins {
			if strings.Contains(origin, "*") {
				return Config{}, fmt.Errorf("ALLOWED_ORIGINS cannot contain wildcard origins outside development")
			}
		}
	}

	return cfg, nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UseInMemoryStore returns true if the in-memory repositories should be used.
func (c Config) UseInMemoryStore() bool {
	return c.DataStore == "memory"
}

// IsDevelopment reports whether the app runs in development mode.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// OAuthEnabled reports whether Google sign-in can be wired up.
func (c Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, nil
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
