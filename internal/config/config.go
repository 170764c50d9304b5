package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters; no other package
// reads the environment.
type Config struct {
	Port     string
	Env      string
	AdminKey string

	// Branches is the fixed set of allowed branch identifiers, raw as
	// configured. The registry normalizes them at startup.
	Branches []string

	Storage StorageConfig
	Worker  WorkerConfig
}

// StorageConfig contains filesystem layout and catalog backend parameters.
type StorageConfig struct {
	DataDir    string
	UploadsDir string
	PublicDir  string
	Backend    string // "file" or "bolt"
	BoltPath   string
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	OrphanSweepInterval time.Duration // 0 disables the sweeper
	OrphanMinAge        time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.AdminKey = getEnv("ADMIN_KEY", "")

	// Branches
	cfg.Branches = splitList(getEnv("BRANCHES", "central,norte"))

	// Storage
	cfg.Storage = StorageConfig{
		DataDir:    getEnv("DATA_DIR", "data"),
		UploadsDir: getEnv("UPLOADS_DIR", "uploads"),
		PublicDir:  getEnv("PUBLIC_DIR", "public"),
		Backend:    getEnv("CATALOG_BACKEND", "file"),
	}
	cfg.Storage.BoltPath = getEnv("BOLT_PATH", filepath.Join(cfg.Storage.DataDir, "catalog.db"))

	// Workers (durations)
	var err error
	if cfg.Worker.OrphanSweepInterval, err = parseDurationEnv("ORPHAN_SWEEP_INTERVAL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid ORPHAN_SWEEP_INTERVAL: %w", err)
	}
	if cfg.Worker.OrphanMinAge, err = parseDurationEnv("ORPHAN_MIN_AGE", "24h"); err != nil {
		return nil, fmt.Errorf("invalid ORPHAN_MIN_AGE: %w", err)
	}

	if cfg.AdminKey == "" {
		return nil, errors.New("ADMIN_KEY must be set to authorize catalog mutations")
	}
	if len(cfg.Branches) == 0 {
		return nil, errors.New("BRANCHES must name at least one branch")
	}
	if cfg.Storage.Backend != "file" && cfg.Storage.Backend != "bolt" {
		return nil, fmt.Errorf("CATALOG_BACKEND must be \"file\" or \"bolt\", got %q", cfg.Storage.Backend)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

// splitList parses a comma-separated value, trimming blanks and dropping
// empty entries.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
