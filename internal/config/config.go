// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds the configuration for the tracker server and CLI.
type Config struct {
	DBPath     string // path to the SQLite tracker database
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// AnVIL API access.
	AnVILBaseURL         string  // Terra API base URL (default "https://api.firecloud.org")
	AnVILCredentialsFile string  // path to the service account JSON key
	ServiceAccountEmail  string  // the app's own identity on AnVIL
	AnVILRateLimitRPS    float64 // sustained outbound requests per second (default 10)
	AnVILRateLimitBurst  int     // outbound burst capacity (default 20)

	// AuditSchedule is a cron expression for periodic audit runs.
	// Empty disables scheduling; audits then run only on demand.
	AuditSchedule string

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate checks the settings needed for outbound AnVIL calls.
// The server can start without them, but audits will fail.
func (c *Config) Validate() error {
	if c.ServiceAccountEmail == "" {
		return fmt.Errorf("ANVIL_SERVICE_ACCOUNT_EMAIL must be set")
	}
	if c.AnVILCredentialsFile == "" {
		return fmt.Errorf("ANVIL_CREDENTIALS_FILE must be set")
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:               os.Getenv("DB_PATH"),
		ListenAddr:           os.Getenv("LISTEN_ADDR"),
		LogLevel:             os.Getenv("LOG_LEVEL"),
		Env:                  os.Getenv("ENV"),
		AnVILBaseURL:         os.Getenv("ANVIL_API_BASE_URL"),
		AnVILCredentialsFile: os.Getenv("ANVIL_CREDENTIALS_FILE"),
		ServiceAccountEmail:  os.Getenv("ANVIL_SERVICE_ACCOUNT_EMAIL"),
		AuditSchedule:        os.Getenv("AUDIT_SCHEDULE"),
	}

	if v := os.Getenv("ANVIL_RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid ANVIL_RATE_LIMIT_RPS %q", v))
		} else {
			cfg.AnVILRateLimitRPS = f
		}
	}
	if v := os.Getenv("ANVIL_RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid ANVIL_RATE_LIMIT_BURST %q", v))
		} else {
			cfg.AnVILRateLimitBurst = n
		}
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "anviltrack.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.AnVILBaseURL == "" {
		cfg.AnVILBaseURL = "https://api.firecloud.org"
	}
	if cfg.AnVILRateLimitRPS <= 0 {
		cfg.AnVILRateLimitRPS = 10
	}
	if cfg.AnVILRateLimitBurst <= 0 {
		cfg.AnVILRateLimitBurst = 20
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.IsProduction() && cfg.ServiceAccountEmail == "" {
		cfg.Warnings = append(cfg.Warnings, "ANVIL_SERVICE_ACCOUNT_EMAIL is not set; audits will fail until it is")
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already present
// in the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Env vars already set take precedence over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
