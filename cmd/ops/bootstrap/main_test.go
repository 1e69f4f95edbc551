package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestValidEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"dev", true},
		{"staging", true},
		{"prod", true},
		{"local", false},
		{"production", false},
		{"", false},
		{"DEV", false}, // case-sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if validEnvironments[tt.env] != tt.valid {
				t.Errorf("validEnvironments[%q] = %v, want %v", tt.env, validEnvironments[tt.env], tt.valid)
			}
		})
	}
}

func TestConfirmProductionNormalization(t *testing.T) {
	// confirmProduction reads from os.Stdin directly, so we exercise its
	// response normalization here: trim whitespace, case-insensitive "yes".
	tests := []struct {
		input     string
		confirmed bool
	}{
		{"yes", true},
		{"YES", true},
		{"Yes", true},
		{"  yes  ", true},
		{"no", false},
		{"", false},
		{"maybe", false},
		{"y", false},
		{"yess", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("input=%q", tt.input), func(t *testing.T) {
			response := strings.TrimSpace(tt.input)
			got := strings.EqualFold(response, "yes")
			if got != tt.confirmed {
				t.Errorf("confirmation for %q = %v, want %v", tt.input, got, tt.confirmed)
			}
		})
	}
}

// captureStderr redirects os.Stderr for the duration of fn and returns
// everything written to it.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stderr = w

	fn()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("reading captured stderr: %v", err)
	}
	return buf.String()
}

func TestPrintBanner(t *testing.T) {
	bctx := &BootstrapContext{
		Environment: "dev",
		AWSProfile:  "slackrelay-dev",
		AWSRegion:   "us-east-1",
		AccountID:   "123456789012",
		CallerARN:   "arn:aws:iam::123456789012:user/ops",
	}

	output := captureStderr(t, func() {
		printBanner(bctx)
	})

	for _, want := range []string{
		"SlackRelay Bootstrap",
		"dev",
		"123456789012",
		"us-east-1",
		"arn:aws:iam::123456789012:user/ops",
		"slackrelay-dev",
		"/dev/slackrelay/",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("banner missing %q, got:\n%s", want, output)
		}
	}
}

func TestPrintBannerWithoutProfile(t *testing.T) {
	bctx := &BootstrapContext{
		Environment: "staging",
		AWSRegion:   "eu-west-1",
		AccountID:   "210987654321",
		CallerARN:   "arn:aws:sts::210987654321:assumed-role/admin/session",
	}

	output := captureStderr(t, func() {
		printBanner(bctx)
	})

	if strings.Contains(output, "Profile:") {
		t.Error("banner should omit the Profile line when no profile is set")
	}
	if !strings.Contains(output, "/staging/slackrelay/") {
		t.Errorf("banner missing staging SSM prefix, got:\n%s", output)
	}
}

func TestBootstrapContextConstruction(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	bctx := &BootstrapContext{
		Environment: "prod",
		AWSProfile:  "slackrelay-prod",
		AWSRegion:   "us-east-1",
		AccountID:   "123456789012",
		CallerARN:   "arn:aws:iam::123456789012:user/deploy",
		Logger:      logger,
	}

	if bctx.Environment != "prod" {
		t.Errorf("Environment = %q, want prod", bctx.Environment)
	}
	if bctx.AWSProfile != "slackrelay-prod" {
		t.Errorf("AWSProfile = %q, want slackrelay-prod", bctx.AWSProfile)
	}
	if bctx.Logger == nil {
		t.Error("Logger should not be nil")
	}
}

func TestSSMPrefixConstruction(t *testing.T) {
	// The banner prefix and SSMManager.SSMPath must agree on the hierarchy.
	for _, env := range []string{"dev", "staging", "prod"} {
		prefix := fmt.Sprintf("/%s/slackrelay/", env)
		mgr := newTestSSMManager(&mockSSMClient{}, env)
		path := mgr.SSMPath("slack/webhook_url")
		if !strings.HasPrefix(path, prefix) {
			t.Errorf("SSMPath for env %q = %q, want prefix %q", env, path, prefix)
		}
	}
}
