package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "test-password")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test_123")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "deal_payments", cfg.Database.Database)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, "env", cfg.Secrets.Provider)
	assert.Equal(t, "sk_test_123", cfg.Processor.SecretKey)
	assert.Equal(t, float64(5), cfg.Server.IntentRateLimit)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DB_MAX_CONNS", "50")
	t.Setenv("INTENT_RATE_LIMIT", "2.5")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, int32(50), cfg.Database.MaxConns)
	assert.Equal(t, 2.5, cfg.Server.IntentRateLimit)
	assert.True(t, cfg.Logger.Development)
}

func TestLoadFromEnv_MissingDBPassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test_123")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestLoadFromEnv_EnvProviderRequiresProcessorSecrets(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test-password")
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_SECRET_KEY")
}

func TestLoadFromEnv_SecretManagerProviderSkipsProcessorSecrets(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test-password")
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	t.Setenv("SECRETS_PROVIDER", "aws")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "aws", cfg.Secrets.Provider)
	assert.Empty(t, cfg.Processor.SecretKey)
}

func TestLoadFromEnv_UnknownProviderRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SECRETS_PROVIDER", "vault")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRETS_PROVIDER")
}

func TestConnectionString(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "svc",
		Password: "pw",
		Database: "payments",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=svc password=pw dbname=payments sslmode=require",
		cfg.ConnectionString())
}

func TestLoadDatabaseFromEnv(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test-password")
	t.Setenv("DB_NAME", "payments_test")

	cfg, err := LoadDatabaseFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "payments_test", cfg.Database)

	t.Setenv("DB_PASSWORD", "")
	_, err = LoadDatabaseFromEnv()
	require.Error(t, err)
}
