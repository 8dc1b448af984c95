/*
Package configs is responsible for loading and parsing the application's configuration settings.

It reads server parameters from environment variables (optionally sourced from
a .env file), including the running environment, port, CORS allowed origins,
the static asset directory, and the pre-seeded user set.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"presenced/internal/app/user"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string

	// StaticDir is the directory of static assets served at the site root.
	StaticDir string

	// SeedUsers are the identities pre-provisioned at process start,
	// all initialized offline with zero connections.
	SeedUsers []user.Seed
}

// defaultSeedUsers is the demo identity set applied when SEED_USERS is unset.
var defaultSeedUsers = []user.Seed{
	{ID: "1", Name: "John Doe"},
	{ID: "2", Name: "Jane Smith"},
	{ID: "3", Name: "Alice Brown"},
	{ID: "4", Name: "Bob Green"},
}

// LoadConfig reads and parses the application configuration from environment variables.
// A .env file in the working directory is loaded first when present.
// It provides default values for each configuration item and performs necessary
// type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	// --- General Server Settings ---
	// Environment
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Port
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "3000"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Security Settings ---
	// AllowedOrigins
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// --- Static Assets ---
	cfg.StaticDir = os.Getenv("STATIC_DIR")
	if cfg.StaticDir == "" {
		cfg.StaticDir = "public"
	}

	// --- Seed Users ---
	seeds, err := ParseSeedUsers(os.Getenv("SEED_USERS"))
	if err != nil {
		return nil, err
	}
	cfg.SeedUsers = seeds

	return cfg, nil
}

// ParseSeedUsers parses a comma-separated list of "id:name" pairs into the
// pre-seeded user set. An empty input yields the default demo set; a pair
// without a name gets an empty name, and an empty id is rejected.
func ParseSeedUsers(raw string) ([]user.Seed, error) {
	if strings.TrimSpace(raw) == "" {
		return defaultSeedUsers, nil
	}

	var seeds []user.Seed
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, name, _ := strings.Cut(entry, ":")
		id = strings.TrimSpace(id)
		name = strings.TrimSpace(name)

		if id == "" {
			return nil, fmt.Errorf("invalid SEED_USERS entry %q: missing user id", entry)
		}

		seeds = append(seeds, user.Seed{ID: id, Name: name})
	}

	return seeds, nil
}
