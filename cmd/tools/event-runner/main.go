// Package main implements the event-runner CLI tool for replaying a captured
// Lambda event file through the notification pipeline, bypassing AWS Lambda.
//
// This tool is intended for local development and formatter debugging. It
// parses the event envelope exactly as the notify worker does, classifies and
// formats every record, and either prints the resulting Slack payloads
// (--dry-run) or delivers them to the configured webhook.
//
// Usage:
//
//	go run ./cmd/tools/event-runner --event testdata/alarm.json --dry-run --pretty
//	go run ./cmd/tools/event-runner --event event.json
//
// Configuration is read from environment variables (or a .env file) exactly
// as in the Lambda runtime: SLACK_CHANNEL, SLACK_USERNAME, SLACK_EMOJI and
// SLACK_WEBHOOK_URL are required in both modes. In --dry-run mode the webhook
// is never contacted and no AWS credentials are needed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/google/uuid"

	"slackrelay/internal/config"
	"slackrelay/internal/event"
	"slackrelay/internal/external"
	"slackrelay/internal/slack"
	"slackrelay/internal/types"
)

// slogAdapter wraps *slog.Logger to implement the types.Logger interface.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}

func main() {
	// Parse command-line flags.
	eventFlag := flag.String("event", "", "Path to a JSON event file (SNS envelope or bare S3 event)")
	dryRunFlag := flag.Bool("dry-run", false, "Print the formatted Slack payloads without delivering")
	prettyFlag := flag.Bool("pretty", false, "Indent JSON output instead of one line per record")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: event-runner [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Replay a captured Lambda event through the notification pipeline.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nUse --dry-run to inspect payloads without contacting the webhook.\n")
	}

	flag.Parse()

	// Validate --event is provided.
	if *eventFlag == "" {
		fmt.Fprintf(os.Stderr, "error: --event is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	raw, err := os.ReadFile(*eventFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reading event file: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Load configuration the same way the Lambda runtime does (.env and SSM
	// pointer resolution included).
	cfg, err := config.LoadConfig(config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	typedLogger := &slogAdapter{logger: logger}

	env, err := event.Parse(raw)
	if err != nil {
		logger.Error("failed to parse event file", "file", *eventFlag, "error", err)
		os.Exit(1)
	}

	builder := slack.NewMessageBuilder(cfg.Slack, typedLogger)

	// If dry-run, print the formatted payloads and exit.
	if *dryRunFlag {
		if err := printPayloads(env, builder, *prettyFlag); err != nil {
			logger.Error("failed to format event", "error", err)
			os.Exit(1)
		}
		return
	}

	// Set up cancellation context with signal handling.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Tag every outbound request of this run with a unique trace id.
	runID := fmt.Sprintf("event-runner-%s", uuid.New().String()[:8])
	ctx = types.WithRequestID(ctx, runID)

	channel, err := buildChannel(ctx, cfg, logger, typedLogger)
	if err != nil {
		logger.Error("failed to create slack channel", "error", err)
		os.Exit(1)
	}

	logger.Info("replaying event",
		"file", *eventFlag,
		"records", len(env.Records),
		"run_id", runID,
	)

	last, err := deliver(ctx, env, builder, channel, typedLogger, *prettyFlag)
	if err != nil {
		logger.Error("replay failed", "error", err)
		os.Exit(1)
	}

	if last.Code != http.StatusOK {
		logger.Error("last delivery did not return 200", "code", last.Code)
		os.Exit(1)
	}
}

// printPayloads renders every record's Slack payload as JSON on stdout
// without contacting the webhook.
func printPayloads(env *event.Envelope, builder *slack.MessageBuilder, pretty bool) error {
	for i := range env.Records {
		n := env.Records[i].Notification()

		payload, err := builder.Build(n.Message, n.Region, n.Subject)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}

		data, err := renderJSON(payload, pretty)
		if err != nil {
			return fmt.Errorf("record %d: marshaling payload: %w", i, err)
		}
		fmt.Println(string(data))
	}

	return nil
}

// renderJSON marshals v compactly, or indented when pretty is set.
func renderJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// buildChannel wires the delivery channel, constructing the KMS decrypter
// only when the configured webhook value is ciphertext. A plain URL never
// touches AWS credentials.
func buildChannel(ctx context.Context, cfg *config.Config, logger *slog.Logger, typedLogger types.Logger) (*slack.Channel, error) {
	var decrypter slack.Decrypter
	if !strings.HasPrefix(cfg.Slack.WebhookURL.Unmask(), "http") {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWS.Region),
		)
		if err != nil {
			return nil, fmt.Errorf("loading AWS SDK config: %w", err)
		}
		decrypter = external.NewDecrypter(awsCfg, external.DecrypterConfig{Logger: logger})
	}

	return slack.NewChannel(cfg.Slack, cfg.Webhook, decrypter, typedLogger)
}

// deliver mirrors the notify worker's record loop: formatting errors abort
// the replay, delivery errors are logged and the loop moves on. The loop is
// duplicated here because cmd/notify-worker is a main package and cannot be
// imported. Each record's result is printed as JSON on stdout.
func deliver(ctx context.Context, env *event.Envelope, builder *slack.MessageBuilder, channel *slack.Channel, logger types.Logger, pretty bool) (slack.Result, error) {
	var last slack.Result

	for i := range env.Records {
		n := env.Records[i].Notification()

		payload, err := builder.Build(n.Message, n.Region, n.Subject)
		if err != nil {
			return slack.Result{}, fmt.Errorf("record %d: %w", i, err)
		}

		result, sendErr := channel.Send(ctx, payload)
		if sendErr != nil {
			logger.Error("delivery failed", "record_index", i, "error", sendErr.Error())
		}

		line, err := renderJSON(result, pretty)
		if err != nil {
			return slack.Result{}, fmt.Errorf("record %d: marshaling result: %w", i, err)
		}
		fmt.Println(string(line))

		last = result
	}

	return last, nil
}

// Compile-time assertion that slogAdapter implements types.Logger.
var _ types.Logger = (*slogAdapter)(nil)
