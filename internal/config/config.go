// Package config defines the configuration structure for the notification relay.
// Configuration is loaded once at process initialization (Lambda cold start) and is
// immutable thereafter. It follows 12-Factor App principles by strictly separating
// code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// Any missing required value or invalid format causes the application to fail
// immediately on startup (fail fast).
package config

import (
	"time"

	"slackrelay/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type used
// throughout configuration to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the relay.
// It is populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"prod" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Slack         SlackConfig
	AWS           AWSConfig
	Webhook       WebhookConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// SlackConfig holds the destination identity stamped onto every outbound
// message, plus the webhook endpoint itself.
type SlackConfig struct {
	Channel  string `envconfig:"SLACK_CHANNEL" validate:"required"`
	Username string `envconfig:"SLACK_USERNAME" validate:"required"`
	Emoji    string `envconfig:"SLACK_EMOJI" validate:"required"`

	// WebhookURL is either a plain https:// endpoint or base64-encoded KMS
	// ciphertext. Anything that does not start with "http" is treated as
	// ciphertext and decrypted at delivery time.
	WebhookURL SecretString `envconfig:"SLACK_WEBHOOK_URL" validate:"required"`

	// LogEvents enables echoing every inbound event to the log. The upstream
	// Terraform module sets the literal string "True", which parses as a bool.
	LogEvents bool `envconfig:"LOG_EVENTS" default:"false"`
}

// AWSConfig holds regional configuration for SDK clients and console links.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// WebhookConfig holds settings for outbound webhook delivery.
type WebhookConfig struct {
	UserAgent      string        `envconfig:"WEBHOOK_USER_AGENT" default:"slackrelay/1.0"`
	DefaultTimeout time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
}

// ObservabilityConfig holds telemetry settings. An empty MetricNamespace
// disables metric emission entirely.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
