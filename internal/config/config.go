// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backends accepted in BACKEND.
const (
	BackendPostgres  = "postgres"
	BackendSurrealDB = "surrealdb"
	BackendMemory    = "memory"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// Backend selects the remote document store. Defaults to "postgres".
	Backend string

	// DatabaseURL is the Postgres connection string. Required for the postgres backend.
	DatabaseURL string

	// SurrealDB connection. URL is required for the surrealdb backend.
	SurrealURL       string
	SurrealNamespace string
	SurrealDatabase  string
	SurrealUser      string
	SurrealPass      string

	// KVPath is the SQLite file holding the local session. Defaults to "tripsync.db".
	KVPath string

	// Locale picks the notification language. Defaults to "en".
	Locale string

	// SearchQuietPeriod is the debounce window for place search. Defaults to 200ms.
	SearchQuietPeriod time.Duration

	// ConnectivityPollInterval is how often network interfaces are rescanned.
	ConnectivityPollInterval time.Duration

	// JWTSecret verifies bearer tokens. Empty disables authentication.
	JWTSecret string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// LoadDotEnv reads path into the environment when it exists. Variables that
// are already set win over the file.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config.LoadDotEnv: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or
// naming the first malformed value.
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		Backend:          strings.ToLower(getEnv("BACKEND", BackendPostgres)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SurrealURL:       os.Getenv("SURREALDB_URL"),
		SurrealNamespace: getEnv("SURREALDB_NS", "tripsync"),
		SurrealDatabase:  getEnv("SURREALDB_DB", "tripsync"),
		SurrealUser:      getEnv("SURREALDB_USER", "root"),
		SurrealPass:      getEnv("SURREALDB_PASS", "root"),
		KVPath:           getEnv("KV_PATH", "tripsync.db"),
		Locale:           getEnv("LOCALE", "en"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		MaxBodyBytes:     1 << 20,
	}

	var err error
	if cfg.SearchQuietPeriod, err = getDuration("SEARCH_QUIET_PERIOD", 200*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.ConnectivityPollInterval, err = getDuration("CONNECTIVITY_POLL_INTERVAL", 5*time.Second); err != nil {
		return Config{}, err
	}

	var missing []string
	switch cfg.Backend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case BackendSurrealDB:
		if cfg.SurrealURL == "" {
			missing = append(missing, "SURREALDB_URL")
		}
	case BackendMemory:
	default:
		return Config{}, fmt.Errorf("BACKEND must be one of %s, %s, %s: got %q",
			BackendPostgres, BackendSurrealDB, BackendMemory, cfg.Backend)
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration: got %q", key, v)
	}
	return d, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
