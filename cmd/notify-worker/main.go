// Package main is the entrypoint for the Notify Worker Lambda function.
//
// The Notify Worker receives SNS delivery envelopes (or bare S3 object event
// payloads), classifies each record's message into one of the known
// notification shapes, renders a Slack attachment for it, and POSTs the
// payload to the configured Slack incoming webhook.
//
// Cold Start (main):
//  1. Initialize structured logger.
//  2. Load and validate relay configuration, resolving any _SSM_PARAM
//     pointers via Parameter Store (fail fast on missing Slack vars).
//  3. Load AWS SDK configuration.
//  4. Initialize the KMS decrypter for encrypted webhook URLs.
//  5. Initialize the Slack channel, message builder, and CloudWatch metrics.
//  6. Register handler and call lambda.Start.
//
// Handler flow per invocation:
//
//	For each record in the envelope, strictly in order:
//	  1. Flatten the record into (subject, message, region).
//	  2. Classify and format the Slack payload. A formatting failure aborts
//	     the whole invocation.
//	  3. POST to the webhook. A transport failure is logged and the loop
//	     continues with the next record; an HTTP error status is a captured
//	     result, not a failure.
//	  4. Record delivery metrics.
//
// The invocation returns the LAST record's delivery result serialized as
// {"code":int,"info":string}. A non-200 final code is logged as an error but
// does not fail the invocation.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"slackrelay/internal/config"
	"slackrelay/internal/event"
	"slackrelay/internal/external"
	"slackrelay/internal/slack"
	"slackrelay/internal/telemetry"
	"slackrelay/internal/types"
)

// slogAdapter wraps *slog.Logger to implement the types.Logger interface.
// The types.Logger interface requires Info, Error, Warn, and With methods.
// slog.Logger satisfies the first three but With returns *slog.Logger, not
// types.Logger, so an adapter is necessary.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}

// Handler holds the dependencies for the notify worker Lambda handler.
type Handler struct {
	builder   *slack.MessageBuilder
	channel   *slack.Channel
	metrics   telemetry.Metrics
	logger    types.Logger
	logEvents bool
}

// Handle processes one Lambda event: an envelope of notification records.
// Records are processed strictly in order. Formatting errors abort the
// invocation; delivery errors are logged and the loop moves on. The returned
// string is the last record's delivery result as JSON.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (string, error) {
	// Propagate the Lambda request ID so the delivery channel can stamp it
	// onto the outbound X-B3-TraceId header.
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		ctx = types.WithRequestID(ctx, lc.AwsRequestID)
	}

	if h.logEvents {
		h.logger.Info("event received", "event", string(raw))
	}

	env, err := event.Parse(raw)
	if err != nil {
		h.logger.Error("failed to parse event", "error", err.Error())
		return "", err
	}

	var last slack.Result

	for i := range env.Records {
		n := env.Records[i].Notification()

		logger := h.logger.With(
			"record_index", i,
			"subject", n.Subject,
			"region", n.Region,
		)

		payload, err := h.builder.Build(n.Message, n.Region, n.Subject)
		if err != nil {
			logger.Error("failed to build slack payload", "error", err.Error())
			return "", err
		}

		start := time.Now()
		result, sendErr := h.channel.Send(ctx, payload)
		h.metrics.RecordDelivery(ctx, result.Code)
		h.metrics.RecordLatency(ctx, time.Since(start))
		if sendErr != nil {
			logger.Error("delivery failed", "error", sendErr.Error())
		}

		last = result
	}

	if last.Code != http.StatusOK {
		h.logger.Error("last delivery did not return 200",
			"code", last.Code,
			"info", last.Info,
		)
	}

	body, err := json.Marshal(last)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode delivery result", err)
	}

	return string(body), nil
}

func main() {
	// Initialize structured logger at startup (Cold Start).
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("Notify Worker Lambda initializing (cold start)")

	// Resolve _SSM_PARAM pointer variables (e.g. SLACK_WEBHOOK_URL_SSM_PARAM)
	// via Parameter Store. The provider is only invoked for non-local
	// environments that carry pointer variables.
	cfg, err := config.LoadConfig(config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Wrap slog.Logger to satisfy types.Logger interface.
	typedLogger := &slogAdapter{logger: logger}

	// Load AWS SDK configuration.
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWS.Region),
	)
	if err != nil {
		logger.Error("Failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}

	// Initialize the KMS decrypter. It is only exercised when the configured
	// webhook value is ciphertext rather than a plain URL.
	decrypter := external.NewDecrypter(awsCfg, external.DecrypterConfig{Logger: logger})

	// Initialize the delivery channel and message builder.
	channel, err := slack.NewChannel(cfg.Slack, cfg.Webhook, decrypter, typedLogger)
	if err != nil {
		logger.Error("Failed to create slack channel", "error", err)
		os.Exit(1)
	}
	builder := slack.NewMessageBuilder(cfg.Slack, typedLogger)

	// Initialize CloudWatch metrics. An empty namespace disables emission.
	var metrics telemetry.Metrics = telemetry.NoopMetrics{}
	if cfg.Observability.MetricNamespace != "" {
		cwClient := cloudwatch.NewFromConfig(awsCfg)
		metrics = telemetry.NewCloudWatchMetrics(cwClient, cfg.Observability.MetricNamespace, typedLogger)
	}

	handler := &Handler{
		builder:   builder,
		channel:   channel,
		metrics:   metrics,
		logger:    typedLogger,
		logEvents: cfg.Slack.LogEvents,
	}

	logger.Info("Notify Worker Lambda initialized",
		"slack_channel", cfg.Slack.Channel,
		"slack_username", cfg.Slack.Username,
		"user_agent", cfg.Webhook.UserAgent,
		"timeout", cfg.Webhook.DefaultTimeout.String(),
		"metric_namespace", cfg.Observability.MetricNamespace,
		"log_events", cfg.Slack.LogEvents,
		"version", cfg.Build.Version,
	)

	lambda.Start(handler.Handle)
}

// Compile-time assertions that the wiring satisfies the interfaces it claims.
var (
	_ types.Logger    = (*slogAdapter)(nil)
	_ slack.Decrypter = (*external.Decrypter)(nil)
)
