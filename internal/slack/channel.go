// Package slack turns inbound AWS notification events into Slack webhook
// messages. It classifies each message by its structural signature, renders a
// family-specific attachment (CloudWatch alarms, GuardDuty findings, Health
// events, Backup notices, S3 object events, or a generic fallback), and
// delivers the assembled payload with a single form-encoded POST.
package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"slackrelay/internal/config"
	"slackrelay/internal/types"
)

// maxResponseBodyRead limits how much of a webhook response body we read for
// logging.
const maxResponseBodyRead = 4096

// Decrypter resolves KMS ciphertext into plaintext. Satisfied by
// external.Decrypter; defined here so the channel depends only on the
// capability it needs.
type Decrypter interface {
	DecryptString(ctx context.Context, ciphertext string) (string, error)
}

// Channel delivers assembled payloads to a Slack incoming webhook. The
// configured webhook URL may be either a plain https:// endpoint or KMS
// ciphertext; ciphertext is resolved on every send.
type Channel struct {
	webhook    types.SecretString
	decrypter  Decrypter
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	userAgent  string
	logger     types.Logger
	clock      types.Clock
}

// NewChannel creates a Channel from configuration. This is the factory used
// by the Lambda entrypoint. The decrypter may be nil when the webhook URL is
// known to be plaintext.
func NewChannel(
	slackCfg config.SlackConfig,
	webhookCfg config.WebhookConfig,
	decrypter Decrypter,
	logger types.Logger,
) (*Channel, error) {
	if logger == nil {
		return nil, fmt.Errorf("slack channel: logger is nil")
	}

	httpClient := &http.Client{Timeout: webhookCfg.DefaultTimeout}

	return &Channel{
		webhook:    slackCfg.WebhookURL,
		decrypter:  decrypter,
		httpClient: httpClient,
		breaker:    newWebhookBreaker(),
		userAgent:  webhookCfg.UserAgent,
		logger:     logger,
		clock:      types.RealClock{},
	}, nil
}

// NewChannelWithClient creates a Channel with a caller-supplied HTTP client.
// This constructor exists for testing, allowing injection of an httptest
// server client.
func NewChannelWithClient(
	slackCfg config.SlackConfig,
	webhookCfg config.WebhookConfig,
	decrypter Decrypter,
	httpClient *http.Client,
	logger types.Logger,
) *Channel {
	return &Channel{
		webhook:    slackCfg.WebhookURL,
		decrypter:  decrypter,
		httpClient: httpClient,
		breaker:    newWebhookBreaker(),
		userAgent:  webhookCfg.UserAgent,
		logger:     logger,
		clock:      types.RealClock{},
	}
}

// SetClock overrides the clock for testing.
func (c *Channel) SetClock(clock types.Clock) {
	c.clock = clock
}

// newWebhookBreaker builds the circuit breaker guarding the webhook endpoint.
// Only transport-level failures count toward tripping it; a reachable
// endpoint returning an error status is still a functioning endpoint.
func newWebhookBreaker() *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "slack-webhook",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})
}

// Send serializes the payload and POSTs it to the webhook as a form-encoded
// body with a single "payload" field. The returned Result carries the remote
// status code and rendered response headers; a non-2xx status is a captured
// outcome, not an error. Only transport-level failures return a non-nil
// error, with a zero status code in the Result.
func (c *Channel) Send(ctx context.Context, payload map[string]any) (Result, error) {
	destination := c.resolveDestination(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to serialize webhook payload", err)
	}
	form := url.Values{"payload": []string{string(body)}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, strings.NewReader(form))
	if err != nil {
		c.logger.Warn("webhook request could not be built", "error", err.Error())
		return Result{Code: 0, Info: err.Error()},
			types.NewAppError(types.ErrCodeDeliveryFailed, "failed to build webhook request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)
	if traceID := types.GetRequestID(ctx); traceID != "" {
		req.Header.Set("X-B3-TraceId", traceID)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		c.logger.Warn("webhook delivery failed in transport",
			"error", err.Error(),
			"payload_size", len(body),
		)
		return Result{Code: 0, Info: err.Error()},
			types.NewAppError(types.ErrCodeDeliveryFailed, "webhook request failed", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))
	result := Result{Code: resp.StatusCode, Info: renderHeaders(resp.Header)}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Info("webhook delivered",
			"status", resp.StatusCode,
			"delivery_ref", c.syntheticDeliveryRef(resp.StatusCode),
		)
	} else {
		c.logger.Warn("webhook remote error",
			"status", resp.StatusCode,
			"body", truncateBody(respBody),
		)
	}

	return result, nil
}

// resolveDestination returns the plaintext webhook URL. A configured value
// that does not start with "http" is treated as KMS ciphertext. Decryption
// failure yields an empty destination on purpose: the POST then fails
// downstream as a captured delivery result instead of aborting the batch.
func (c *Channel) resolveDestination(ctx context.Context) string {
	raw := c.webhook.Unmask()
	if strings.HasPrefix(raw, "http") {
		return raw
	}

	if c.decrypter == nil {
		c.logger.Warn("webhook URL looks encrypted but no decrypter is configured")
		return ""
	}

	plaintext, err := c.decrypter.DecryptString(ctx, raw)
	if err != nil {
		c.logger.Warn("webhook URL decryption failed", "error", err.Error())
		return ""
	}
	return plaintext
}

// renderHeaders flattens response headers into "Key: value" lines, sorted by
// key so the output is stable.
func renderHeaders(h http.Header) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range h[k] {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
	}
	return b.String()
}

// syntheticDeliveryRef creates a traceable reference for a delivery; Slack
// webhooks do not return a message ID.
//
// Format: slack-{status}-{timestamp}-{uuid_short}
func (c *Channel) syntheticDeliveryRef(statusCode int) string {
	return fmt.Sprintf("slack-%d-%d-%s",
		statusCode,
		c.clock.Now().Unix(),
		uuid.New().String()[:8],
	)
}

// truncateBody shortens a response body for log output.
func truncateBody(body []byte) string {
	const max = 256
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
