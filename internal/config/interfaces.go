package config

import "context"

// SecretProvider abstracts the retrieval of secrets to support both
// AWS SSM Parameter Store (production) and environment variables (local
// development). The loader uses it to resolve _SSM_PARAM pointer variables,
// most importantly the Slack webhook URL, before envconfig runs. The
// interface also enables dependency injection for testing.
type SecretProvider interface {
	// GetParametersBatch retrieves multiple secret values in batches to
	// avoid throttling. The keys slice contains the SSM parameter paths
	// (or equivalent identifiers) to resolve. Returns a map of key ->
	// plaintext value for all successfully resolved parameters.
	//
	// Implementations should handle batching internally to cope with API
	// rate limits during Lambda cold starts.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
