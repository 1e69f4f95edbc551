package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ssmToEnvMapping translates bootstrap SSM category/keys into the
// environment variable names the relay's config loader consumes. Every
// inventory step has an entry here so --export-env can round-trip the
// whole parameter set into a dotenv file.
var ssmToEnvMapping = map[string]string{
	"slack/webhook_url":              "SLACK_WEBHOOK_URL",
	"slack/channel":                  "SLACK_CHANNEL",
	"slack/username":                 "SLACK_USERNAME",
	"slack/emoji":                    "SLACK_EMOJI",
	"observability/metric_namespace": "METRIC_NAMESPACE",
	"relay/log_events":               "LOG_EVENTS",
}

// localDevDefaults are environment variables a local replay session needs
// that are never stored in SSM: the local environment marker, verbose
// logging, and the LocalStack endpoint for KMS/CloudWatch calls. They are
// appended to the exported file when IncludeLocalDefaults is set, and never
// shadow an SSM-sourced value.
var localDevDefaults = map[string]string{
	"APP_ENV":            "local",
	"LOG_LEVEL":          "debug",
	"AWS_REGION":         "us-east-1",
	"AWS_ENDPOINT_URL":   "http://localhost:4566",
	"WEBHOOK_TIMEOUT":    "10s",
	"WEBHOOK_USER_AGENT": "slackrelay/1.0",
}

// ExportEnvConfig carries the inputs for ExportEnvFile.
type ExportEnvConfig struct {
	// OutputPath is where the dotenv file is written. Parent directories
	// are created as needed.
	OutputPath string

	// Environment is the bootstrap target environment (dev/staging/prod),
	// recorded in the file header.
	Environment string

	// SSM reads the parameters back from Parameter Store.
	SSM *SSMManager

	// Stderr receives progress output.
	Stderr io.Writer

	// IncludeLocalDefaults appends the local-development section
	// (APP_ENV=local etc.) after the SSM-sourced values.
	IncludeLocalDefaults bool
}

// ExportEnvFile reads the bootstrap parameters back from SSM and writes them
// to a dotenv file for local development. SecureString values are decrypted.
//
// Parameters that cannot be read (e.g. a skipped optional metric namespace)
// are omitted with a note on stderr, so a partially bootstrapped environment
// still yields a usable file. The export fails only when nothing at all
// could be read.
//
// The file is written with 0600 permissions since it contains decrypted
// secrets.
func ExportEnvFile(ctx context.Context, cfg ExportEnvConfig) error {
	values := make(map[string]string)
	for ssmKey, envVar := range ssmToEnvMapping {
		path := cfg.SSM.SSMPath(ssmKey)

		value, err := cfg.SSM.GetParameterValue(ctx, path, true)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("export cancelled: %w", ctx.Err())
			}
			fmt.Fprintf(cfg.Stderr, "  Omitting %s: %s is not readable\n", envVar, path)
			continue
		}
		values[envVar] = value
	}

	if len(values) == 0 {
		return fmt.Errorf("no parameters could be read under %q", cfg.SSM.SSMPath(""))
	}

	var b strings.Builder
	b.WriteString("# Auto-generated by bootstrap --export-env\n")
	fmt.Fprintf(&b, "# Environment: %s\n", cfg.Environment)
	fmt.Fprintf(&b, "# Generated:   %s\n", time.Now().UTC().Format(time.RFC3339))
	b.WriteString("#\n")
	b.WriteString("# SECURITY WARNING: this file contains decrypted secrets.\n")
	b.WriteString("# Keep it out of version control.\n")
	b.WriteString("\n")

	envVars := make([]string, 0, len(values))
	for envVar := range values {
		envVars = append(envVars, envVar)
	}
	sort.Strings(envVars)

	for _, envVar := range envVars {
		b.WriteString(formatEnvLine(envVar, values[envVar]))
		b.WriteString("\n")
	}

	if cfg.IncludeLocalDefaults {
		b.WriteString("\n# Local Development Defaults\n")

		defaults := make([]string, 0, len(localDevDefaults))
		for key := range localDevDefaults {
			if _, fromSSM := values[key]; fromSSM {
				continue
			}
			defaults = append(defaults, key)
		}
		sort.Strings(defaults)

		for _, key := range defaults {
			b.WriteString(formatEnvLine(key, localDevDefaults[key]))
			b.WriteString("\n")
		}
	}

	// --export-env-path may point into a directory that does not exist yet.
	if dir := filepath.Dir(cfg.OutputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", cfg.OutputPath, err)
		}
	}

	if err := os.WriteFile(cfg.OutputPath, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.OutputPath, err)
	}

	fmt.Fprintf(cfg.Stderr, "\n")
	fmt.Fprintf(cfg.Stderr, "  Environment file exported: %s\n", cfg.OutputPath)
	fmt.Fprintf(cfg.Stderr, "  Parameters written: %d\n", len(values))
	fmt.Fprintf(cfg.Stderr, "  Permissions: 0600 (owner read/write only)\n")
	fmt.Fprintf(cfg.Stderr, "\n")

	return nil
}

// formatEnvLine renders a KEY=value line for the dotenv file. Values
// containing characters that dotenv parsers treat specially (whitespace,
// quotes, '#', '$', braces, backslashes, newlines) are double-quoted with
// backslash escapes. Empty values render as KEY="".
func formatEnvLine(key, value string) string {
	if value == "" {
		return key + `=""`
	}

	if !strings.ContainsAny(value, " \t\"'#${}\\\n") {
		return key + "=" + value
	}

	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	return key + `="` + escaped + `"`
}
