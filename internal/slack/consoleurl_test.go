package slack

import (
	"errors"
	"testing"

	"slackrelay/internal/types"
)

func TestConsoleURL_StandardPartition(t *testing.T) {
	got, err := consoleURL("us-east-1", serviceCloudWatch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://console.aws.amazon.com/cloudwatch/home?region=us-east-1"
	if got != want {
		t.Errorf("consoleURL = %q, want %q", got, want)
	}
}

func TestConsoleURL_GovCloudPartition(t *testing.T) {
	got, err := consoleURL("us-gov-west-1", serviceGuardDuty)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://console.amazonaws-us-gov.com/guardduty/home?region=us-gov-west-1"
	if got != want {
		t.Errorf("consoleURL = %q, want %q", got, want)
	}
}

func TestConsoleURL_UnsupportedService(t *testing.T) {
	_, err := consoleURL("us-east-1", "dynamodb")
	if err == nil {
		t.Fatal("expected error for unsupported service")
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeConsoleUnsupported {
		t.Errorf("expected code %q, got %q", types.ErrCodeConsoleUnsupported, appErr.Code)
	}
}
