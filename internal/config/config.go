package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Processor ProcessorConfig
	Secrets   SecretsConfig
	Logger    LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
	// IntentRateLimit bounds intent-creation requests per second per client IP
	IntentRateLimit float64
	IntentRateBurst int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// ProcessorConfig holds payment processor configuration.
// SecretKey and WebhookSecret may be populated directly from the
// environment or resolved at startup through the configured secrets
// provider using the *Path fields.
type ProcessorConfig struct {
	SecretKey         string // Processor API secret key
	WebhookSecret     string // Webhook signing secret
	SecretKeyPath     string // Secret-manager path for the API key
	WebhookSecretPath string // Secret-manager path for the signing secret
	Timeout           int    // Request timeout in seconds (default: 30)
}

// SecretsConfig selects the secret-manager backend used to resolve
// processor credentials at startup
type SecretsConfig struct {
	Provider  string // env, local, aws
	Region    string // AWS region (aws provider)
	Profile   string // AWS profile (aws provider, local development)
	Endpoint  string // Custom endpoint (LocalStack testing)
	LocalPath string // Base directory (local provider)
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort:     getEnvAsInt("METRICS_PORT", 9090),
			IntentRateLimit: getEnvAsFloat("INTENT_RATE_LIMIT", 5),
			IntentRateBurst: getEnvAsInt("INTENT_RATE_BURST", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "deal_payments"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Processor: ProcessorConfig{
			SecretKey:         getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:     getEnv("STRIPE_WEBHOOK_SECRET", ""),
			SecretKeyPath:     getEnv("STRIPE_SECRET_KEY_PATH", "payment-service/processor/secret_key"),
			WebhookSecretPath: getEnv("STRIPE_WEBHOOK_SECRET_PATH", "payment-service/processor/webhook_secret"),
			Timeout:           getEnvAsInt("STRIPE_TIMEOUT", 30),
		},
		Secrets: SecretsConfig{
			Provider:  getEnv("SECRETS_PROVIDER", "env"),
			Region:    getEnv("AWS_REGION", "us-east-1"),
			Profile:   getEnv("AWS_PROFILE", ""),
			Endpoint:  getEnv("AWS_SECRETS_ENDPOINT", ""),
			LocalPath: getEnv("SECRETS_LOCAL_PATH", "./secrets"),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	// Validate required fields
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	switch cfg.Secrets.Provider {
	case "env":
		if cfg.Processor.SecretKey == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY is required with SECRETS_PROVIDER=env")
		}
		if cfg.Processor.WebhookSecret == "" {
			return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required with SECRETS_PROVIDER=env")
		}
	case "local", "aws":
		// Secrets are resolved at startup through the secret manager
	default:
		return nil, fmt.Errorf("unknown SECRETS_PROVIDER: %s", cfg.Secrets.Provider)
	}

	return cfg, nil
}

// LoadDatabaseFromEnv loads only the database section. Used by tooling
// (migrations) that has no business requiring processor credentials.
func LoadDatabaseFromEnv() (*DatabaseConfig, error) {
	cfg := &DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Database: getEnv("DB_NAME", "deal_payments"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
		MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	return cfg, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
