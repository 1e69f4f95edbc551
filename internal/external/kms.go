// Package external provides the anti-corruption layer between the relay and
// AWS vendor APIs. Its only client today is the KMS-backed Decrypter used to
// resolve encrypted webhook URLs.
package external

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"slackrelay/internal/types"
)

// DecryptAPI defines the subset of the KMS client used by Decrypter.
// Extracted for testability — tests can provide a mock implementation.
type DecryptAPI interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// DecrypterConfig holds the configuration for creating a Decrypter.
type DecrypterConfig struct {
	// Logger for KMS operations.
	Logger *slog.Logger
}

// Decrypter resolves KMS-encrypted secrets, specifically the webhook URL
// ciphertext the relay is deployed with. It is constructed once per process
// lifetime (Lambda cold start) and reused across invocations. The AWS SDK
// provides built-in retry logic, so no extra resilience wrapper is needed.
type Decrypter struct {
	api    DecryptAPI
	logger *slog.Logger
}

// NewDecrypter creates a Decrypter from an AWS config.
func NewDecrypter(awsCfg aws.Config, cfg DecrypterConfig) *Decrypter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Decrypter{
		api:    kms.NewFromConfig(awsCfg),
		logger: logger,
	}
}

// NewDecrypterWithAPI creates a Decrypter with a pre-configured DecryptAPI.
// Useful for testing with a mock KMS interface.
func NewDecrypterWithAPI(api DecryptAPI, cfg DecrypterConfig) *Decrypter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Decrypter{
		api:    api,
		logger: logger,
	}
}

// DecryptString base64-decodes the ciphertext and decrypts the blob with
// KMS, returning the plaintext. Both failure modes surface as
// ErrCodeDecryptFailed; callers decide whether that aborts anything.
func (d *Decrypter) DecryptString(ctx context.Context, ciphertext string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", types.NewAppError(
			types.ErrCodeDecryptFailed,
			"ciphertext is not valid base64",
			err,
		)
	}

	out, err := d.api.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: blob})
	if err != nil {
		return "", types.NewAppError(
			types.ErrCodeDecryptFailed,
			"KMS decrypt call failed",
			err,
		)
	}

	return string(out.Plaintext), nil
}
