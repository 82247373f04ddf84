package main

import (
	"context"
	"fmt"
	"time"

	adapterports "github.com/dealpay/payment-service/internal/adapters/ports"
	"github.com/dealpay/payment-service/internal/adapters/secrets"
	"github.com/dealpay/payment-service/internal/config"
	"go.uber.org/zap"
)

// resolveProcessorSecrets fills in the processor API key and webhook signing
// secret from the configured secrets backend. The env provider expects both
// values already present in the configuration.
func resolveProcessorSecrets(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var manager adapterports.SecretManagerAdapter

	switch cfg.Secrets.Provider {
	case "env":
		// Already loaded and validated from environment variables
		return nil
	case "local":
		manager = secrets.NewLocalSecretManager(cfg.Secrets.LocalPath, logger)
	case "aws":
		var err error
		manager, err = secrets.NewAWSSecretsManagerAdapter(ctx, &secrets.AWSSecretsManagerConfig{
			Region:      cfg.Secrets.Region,
			Profile:     cfg.Secrets.Profile,
			Endpoint:    cfg.Secrets.Endpoint,
			CacheTTL:    5 * time.Minute,
			EnableCache: true,
		}, logger)
		if err != nil {
			return fmt.Errorf("aws secrets manager: %w", err)
		}
	default:
		return fmt.Errorf("unknown secrets provider: %s", cfg.Secrets.Provider)
	}

	secretKey, err := manager.GetSecret(ctx, cfg.Processor.SecretKeyPath)
	if err != nil {
		return fmt.Errorf("resolve processor secret key: %w", err)
	}
	webhookSecret, err := manager.GetSecret(ctx, cfg.Processor.WebhookSecretPath)
	if err != nil {
		return fmt.Errorf("resolve webhook signing secret: %w", err)
	}

	cfg.Processor.SecretKey = secretKey.Value
	cfg.Processor.WebhookSecret = webhookSecret.Value

	logger.Info("Processor secrets resolved",
		zap.String("provider", cfg.Secrets.Provider),
	)
	return nil
}
