package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	Port              string
	IsProduction      bool
	EnableDBCheck     bool
	MigrationsEnabled bool
	StorageDriver     string

	AuthEnabled bool
	JWTSecret   string
	CORSOrigins []string
	RateLimit   string

	// Bill generation
	BillingWorkers         int
	BillingConflictRetries int

	// Statement delivery
	NotificationTimeout time.Duration
	EmailAPIKey         string
	EmailAPIURL         string
	SenderEmail         string
	BusinessName        string
	CurrencySymbol      string

	PosthogAPIKey string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("MIGRATIONS_ENABLED", true)
	viper.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	viper.SetDefault("AUTH_ENABLED", false)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("BILLING_WORKERS", 4)
	viper.SetDefault("BILLING_CONFLICT_RETRIES", 3)
	viper.SetDefault("NOTIFICATION_TIMEOUT", "15s")
	viper.SetDefault("EMAIL_API_KEY", "")
	viper.SetDefault("EMAIL_API_URL", "https://api.resend.com/")
	viper.SetDefault("SENDER_EMAIL", "billing@example.com")
	viper.SetDefault("BUSINESS_NAME", "Dairy Store")
	viper.SetDefault("CURRENCY_SYMBOL", "₹")
	viper.SetDefault("POSTHOG_API_KEY", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(viper.GetString("STORAGE_DRIVER")))
	switch cfg.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		log.Printf("Warning: unknown STORAGE_DRIVER %q. Defaulting to %s.\n", cfg.StorageDriver, StorageDriverPostgres)
		cfg.StorageDriver = StorageDriverPostgres
	}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" && cfg.StorageDriver == StorageDriverPostgres {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.MigrationsEnabled = viper.GetBool("MIGRATIONS_ENABLED")

	cfg.AuthEnabled = viper.GetBool("AUTH_ENABLED")
	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.AuthEnabled && cfg.JWTSecret == "" {
		log.Println("Warning: AUTH_ENABLED is set but JWT_SECRET is empty. Disabling authentication.")
		cfg.AuthEnabled = false
	}

	cfg.CORSOrigins = splitList(viper.GetString("CORS_ORIGINS"))
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.BillingWorkers = viper.GetInt("BILLING_WORKERS")
	if cfg.BillingWorkers < 1 {
		log.Printf("Warning: invalid BILLING_WORKERS (%d). Defaulting to 1.\n", cfg.BillingWorkers)
		cfg.BillingWorkers = 1
	}
	cfg.BillingConflictRetries = viper.GetInt("BILLING_CONFLICT_RETRIES")
	if cfg.BillingConflictRetries < 0 {
		cfg.BillingConflictRetries = 0
	}

	timeoutStr := viper.GetString("NOTIFICATION_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		timeout = 15 * time.Second
		log.Printf("Warning: Invalid value for NOTIFICATION_TIMEOUT ('%s'). Defaulting to %s.\n", timeoutStr, timeout)
	}
	cfg.NotificationTimeout = timeout

	cfg.EmailAPIKey = viper.GetString("EMAIL_API_KEY")
	if cfg.EmailAPIKey == "" {
		log.Println("Warning: EMAIL_API_KEY not set. Statements will be logged instead of emailed.")
	}
	cfg.EmailAPIURL = viper.GetString("EMAIL_API_URL")
	cfg.SenderEmail = viper.GetString("SENDER_EMAIL")
	cfg.BusinessName = viper.GetString("BUSINESS_NAME")
	cfg.CurrencySymbol = viper.GetString("CURRENCY_SYMBOL")
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")

	return cfg, nil
}

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
