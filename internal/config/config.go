// Package config reads the budget engine's process configuration from the
// environment, following the teacher's os.LookupEnv-with-defaults style.
package config

import "os"

// Config is the engine's process-wide configuration.
type Config struct {
	// DatabasePath is the SQLite DSN (file path, or ":memory:" for tests).
	DatabasePath string
	// Currency is the single currency new periods and allocations are zeroed in.
	Currency string
	// Port is the HTTP listen address for the demonstration API facade.
	Port string
	// LogFormat is "human" for a console writer, anything else for JSON.
	LogFormat string
	// Debug raises the global log level to Debug.
	Debug bool
}

// Load builds a Config from the environment, applying the same defaults the
// teacher's main.go applies for the port and log format.
func Load() Config {
	cfg := Config{
		DatabasePath: envOr("DATABASE_PATH", "data/budgetengine.db?_pragma=foreign_keys(1)"),
		Currency:     envOr("BUDGET_CURRENCY", "USD"),
		Port:         envOr("PORT", ":8080"),
		LogFormat:    envOr("LOG_FORMAT", ""),
		Debug:        os.Getenv("DEBUG") == "true",
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
