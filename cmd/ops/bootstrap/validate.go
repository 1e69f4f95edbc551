package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// ValidationResult holds the outcome of a validation check. It provides
// both a boolean pass/fail signal and a human-readable message suitable
// for display in the bootstrap CLI.
type ValidationResult struct {
	// Valid is true if the input passed all validation checks.
	Valid bool

	// Message is a human-readable description of the result.
	// On success, it describes what was validated (e.g., "Slack webhook verified").
	// On failure, it describes why validation failed.
	Message string
}

// HTTPClient is the interface used by validators that make outbound HTTP calls.
// It enables injecting mock HTTP transports for testing without making real
// network calls.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Validator encapsulates the dependencies needed by input validation functions.
// It is constructed during bootstrap initialization and threaded through
// the inventory steps.
type Validator struct {
	httpClient HTTPClient
}

// NewValidator creates a Validator with production dependencies: a real
// HTTP client with a 10-second timeout.
func NewValidator() *Validator {
	return &Validator{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewValidatorWithDeps creates a Validator with an injected HTTP client
// for testing.
func NewValidatorWithDeps(httpClient HTTPClient) *Validator {
	return &Validator{
		httpClient: httpClient,
	}
}

// validateTimeout is the per-probe timeout for active validation calls.
// This is separate from the HTTP client timeout to serve as an outer bound
// that also covers DNS resolution, TLS handshake, etc.
const validateTimeout = 15 * time.Second

// ---------------------------------------------------------------------------
// ValidateWebhookURL
// ---------------------------------------------------------------------------

// webhookURLRegex validates the shape of a Slack incoming webhook URL:
// https://hooks.slack.com/services/{team}/{bot}/{token}. The capture
// groups expose the team and bot IDs for operator feedback.
var webhookURLRegex = regexp.MustCompile(`^https://hooks\.slack\.com/services/(T[A-Z0-9]+)/(B[A-Z0-9]+)/[A-Za-z0-9]+$`)

// ValidateWebhookURL validates a Slack incoming webhook URL by:
//  1. Checking the URL matches https://hooks.slack.com/services/T.../B.../...
//  2. POSTing an empty probe to the endpoint to verify it is live.
//
// A live webhook rejects the empty probe with HTTP 400 "invalid_payload"
// WITHOUT posting anything to the channel, which makes it a side-effect-free
// liveness check. A revoked or never-created webhook answers 404 "no_service",
// and an archived target channel answers 410 "channel_is_archived".
func (v *Validator) ValidateWebhookURL(ctx context.Context, rawURL string) ValidationResult {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ValidationResult{Valid: false, Message: "Slack webhook URL must not be empty"}
	}

	match := webhookURLRegex.FindStringSubmatch(rawURL)
	if match == nil {
		return ValidationResult{
			Valid:   false,
			Message: "Slack webhook URL must match https://hooks.slack.com/services/T.../B.../...",
		}
	}
	teamID := match[1]

	// Active probe: POST with no payload.
	probeCtx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodPost, rawURL, nil)
	if err != nil {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "SlackRelay-Bootstrap/1.0")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("Slack webhook probe failed: %v", err),
		}
	}
	defer resp.Body.Close()

	// Read and discard the body to allow connection reuse.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch resp.StatusCode {
	case http.StatusOK:
		// Slack normally rejects the empty probe, but an OK is still a
		// live endpoint.
		return ValidationResult{
			Valid:   true,
			Message: fmt.Sprintf("Slack webhook verified (team: %s)", teamID),
		}

	case http.StatusBadRequest:
		text := string(body)
		if strings.Contains(text, "invalid_payload") || strings.Contains(text, "missing_payload") || strings.Contains(text, "no_text") {
			return ValidationResult{
				Valid:   true,
				Message: fmt.Sprintf("Slack webhook verified (team: %s, endpoint is live)", teamID),
			}
		}
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("Slack webhook rejected the probe: %s", truncateBody(body, 200)),
		}

	case http.StatusForbidden:
		return ValidationResult{
			Valid:   false,
			Message: "Slack returned 403: posting through this webhook is prohibited",
		}

	case http.StatusNotFound:
		return ValidationResult{
			Valid:   false,
			Message: "Slack returned 404 (no_service): the webhook was revoked or never existed",
		}

	case http.StatusGone:
		return ValidationResult{
			Valid:   false,
			Message: "Slack returned 410 (channel_is_archived): the target channel is archived",
		}

	default:
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("Slack webhook probe returned HTTP %d: %s", resp.StatusCode, truncateBody(body, 200)),
		}
	}
}

// ---------------------------------------------------------------------------
// ValidateChannel
// ---------------------------------------------------------------------------

// channelRegex validates a Slack destination: a '#'-prefixed channel name
// or an '@'-prefixed username, with no embedded whitespace.
var channelRegex = regexp.MustCompile(`^[#@][^\s]+$`)

// ValidateChannel validates the Slack channel (or direct-message target)
// the relay posts to. Format check only; whether the webhook is actually
// allowed to post there is Slack's call at delivery time.
func (v *Validator) ValidateChannel(_ context.Context, channel string) ValidationResult {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return ValidationResult{Valid: false, Message: "Slack channel must not be empty"}
	}

	if !channelRegex.MatchString(channel) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("Slack channel must start with '#' (channel) or '@' (user) and contain no spaces (got %q)", channel),
		}
	}

	return ValidationResult{
		Valid:   true,
		Message: fmt.Sprintf("Slack channel format validated (%s)", channel),
	}
}

// ---------------------------------------------------------------------------
// ValidateEmoji
// ---------------------------------------------------------------------------

// emojiRegex validates a colon-wrapped Slack emoji short code, e.g.
// ":aws:" or ":rotating_light:".
var emojiRegex = regexp.MustCompile(`^:[a-z0-9_+-]+:$`)

// ValidateEmoji validates the icon emoji stamped onto relay messages.
func (v *Validator) ValidateEmoji(_ context.Context, emoji string) ValidationResult {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return ValidationResult{Valid: false, Message: "Slack emoji must not be empty"}
	}

	if !emojiRegex.MatchString(emoji) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("Slack emoji must be a colon-wrapped short code like :aws: (got %q)", emoji),
		}
	}

	return ValidationResult{
		Valid:   true,
		Message: fmt.Sprintf("Slack emoji format validated (%s)", emoji),
	}
}

// ---------------------------------------------------------------------------
// ValidateRegex
// ---------------------------------------------------------------------------

// ValidateRegex is a generic validator that checks whether the input matches
// the given regular expression pattern. It is used for inputs that cannot be
// actively probed, such as the relay username or the metric namespace.
func (v *Validator) ValidateRegex(_ context.Context, input, pattern, fieldName string) ValidationResult {
	input = strings.TrimSpace(input)
	if input == "" {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("%s must not be empty", fieldName),
		}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid regex pattern %q: %v", pattern, err),
		}
	}

	if !re.MatchString(input) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("%s does not match expected format (pattern: %s)", fieldName, pattern),
		}
	}

	return ValidationResult{
		Valid:   true,
		Message: fmt.Sprintf("%s format validated", fieldName),
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// truncateBody returns the first n bytes of body as a string, appending
// "..." if truncation occurred. This is used for including partial API
// response bodies in error messages without overwhelming the user.
func truncateBody(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
