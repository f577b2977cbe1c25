// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Local cache database (durable profile cache + pending registrations).
	// SQLite file by default; a Postgres DSN switches the driver for
	// deployments that share the cache between replicas.
	CacheDBDriver string `mapstructure:"CACHE_DB_DRIVER"`
	CacheDBPath   string `mapstructure:"CACHE_DB_PATH"`
	CacheDBDSN    string `mapstructure:"CACHE_DB_DSN"`

	// Redis (session snapshot cache)
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	SessionSnapshotTTL time.Duration `mapstructure:"SESSION_SNAPSHOT_TTL_MINUTES"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseWebAPIKey             string `mapstructure:"FIREBASE_WEB_API_KEY"`

	// Profile API tier (server-mediated upsert path)
	ProfileAPIBaseURL string        `mapstructure:"PROFILE_API_BASE_URL"`
	ProfileAPITimeout time.Duration `mapstructure:"PROFILE_API_TIMEOUT_SECONDS"`

	// Privileged allowlist: emails that always resolve to the admin role,
	// independent of any store lookup.
	AdminAllowlistEmails []string `mapstructure:"-"`

	// Network monitor
	NetworkProbeSchedule string        `mapstructure:"NETWORK_PROBE_SCHEDULE"`
	NetworkProbeTimeout  time.Duration `mapstructure:"NETWORK_PROBE_TIMEOUT_SECONDS"`

	// Verification links and mail delivery
	VerifyLinkBaseURL string        `mapstructure:"VERIFY_LINK_BASE_URL"`
	FallbackTokenTTL  time.Duration `mapstructure:"FALLBACK_TOKEN_TTL_HOURS"`
	MailerAPIURL      string        `mapstructure:"MAILER_API_URL"`
	MailerAPIToken    string        `mapstructure:"MAILER_API_TOKEN"`
	MailerFromAddress string        `mapstructure:"MAILER_FROM_ADDRESS"`
}

// Load attempts to load configuration from a .env file (if present) and
// environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("CACHE_DB_DRIVER", "sqlite")
	v.SetDefault("CACHE_DB_PATH", "neurohealthhub_cache.db")
	v.SetDefault("CACHE_DB_DSN", "")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("SESSION_SNAPSHOT_TTL_MINUTES", 60)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	v.SetDefault("FIREBASE_WEB_API_KEY", "")

	v.SetDefault("PROFILE_API_BASE_URL", "")
	v.SetDefault("PROFILE_API_TIMEOUT_SECONDS", 10)

	v.SetDefault("ADMIN_ALLOWLIST_EMAILS", "")

	v.SetDefault("NETWORK_PROBE_SCHEDULE", "@every 30s")
	v.SetDefault("NETWORK_PROBE_TIMEOUT_SECONDS", 5)

	v.SetDefault("VERIFY_LINK_BASE_URL", "http://localhost:8080/api/v1/verify-email")
	v.SetDefault("FALLBACK_TOKEN_TTL_HOURS", 24)
	v.SetDefault("MAILER_API_URL", "")
	v.SetDefault("MAILER_API_TOKEN", "")
	v.SetDefault("MAILER_FROM_ADDRESS", "no-reply@neurohealthhub.example")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.SessionSnapshotTTL = time.Duration(v.GetInt("SESSION_SNAPSHOT_TTL_MINUTES")) * time.Minute
	cfg.ProfileAPITimeout = time.Duration(v.GetInt("PROFILE_API_TIMEOUT_SECONDS")) * time.Second
	cfg.NetworkProbeTimeout = time.Duration(v.GetInt("NETWORK_PROBE_TIMEOUT_SECONDS")) * time.Second
	cfg.FallbackTokenTTL = time.Duration(v.GetInt("FALLBACK_TOKEN_TTL_HOURS")) * time.Hour

	// The allowlist is a comma-separated list; normalized to lowercase once
	// here so every downstream comparison is byte-equal.
	for _, e := range strings.Split(v.GetString("ADMIN_ALLOWLIST_EMAILS"), ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			cfg.AdminAllowlistEmails = append(cfg.AdminAllowlistEmails, e)
		}
	}

	// Basic validation for critical configs
	if strings.TrimSpace(cfg.FirebaseServiceAccountKeyPath) == "" {
		return nil, fmt.Errorf("FATAL: FIREBASE_SERVICE_ACCOUNT_KEY_PATH is not set. This is required for Firebase Admin SDK initialization")
	}
	if _, err := os.Stat(cfg.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", cfg.FirebaseServiceAccountKeyPath)
	}
	if cfg.CacheDBDriver != "sqlite" && cfg.CacheDBDriver != "postgres" {
		return nil, fmt.Errorf("unsupported CACHE_DB_DRIVER %q (want sqlite or postgres)", cfg.CacheDBDriver)
	}
	if cfg.CacheDBDriver == "postgres" && strings.TrimSpace(cfg.CacheDBDSN) == "" {
		return nil, fmt.Errorf("CACHE_DB_DSN is required when CACHE_DB_DRIVER=postgres")
	}

	return &cfg, nil
}
