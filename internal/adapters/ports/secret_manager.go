package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., processor API key)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter defines the port for retrieving secrets from a
// secret management service. Implementations are responsible for
// authentication with the backend and for caching secrets with a TTL.
//
// Path format depends on implementation:
//   - AWS: "payment-service/processor/secret_key"
//   - Local: a file path relative to the configured base directory
type SecretManagerAdapter interface {
	// GetSecret retrieves a secret by its path/name.
	// Returns an error if the secret does not exist, permissions are
	// insufficient, or the backend is unreachable.
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
