package slack

import (
	"errors"
	"testing"

	"slackrelay/internal/types"
)

func assertUnknownKey(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeEnumUnknownKey {
		t.Errorf("expected code %q, got %q", types.ErrCodeEnumUnknownKey, appErr.Code)
	}
}

func TestAlarmStateColor(t *testing.T) {
	cases := []struct {
		state string
		want  string
	}{
		{"OK", "good"},
		{"INSUFFICIENT_DATA", "warning"},
		{"ALARM", "danger"},
	}
	for _, tc := range cases {
		got, err := AlarmStateColor(tc.state)
		if err != nil {
			t.Fatalf("AlarmStateColor(%q): unexpected error: %v", tc.state, err)
		}
		if got != tc.want {
			t.Errorf("AlarmStateColor(%q) = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestAlarmStateColor_UnknownState(t *testing.T) {
	_, err := AlarmStateColor("PENDING")
	assertUnknownKey(t, err)
}

func TestSeverityTier_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0, "Low"},
		{3.9, "Low"},
		{4.0, "Medium"},
		{6.9, "Medium"},
		{7.0, "High"},
		{8.5, "High"},
		{10, "High"},
	}
	for _, tc := range cases {
		if got := SeverityTier(tc.score); got != tc.want {
			t.Errorf("SeverityTier(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestFindingSeverityColor(t *testing.T) {
	cases := []struct {
		tier string
		want string
	}{
		{"Low", "#777777"},
		{"Medium", "warning"},
		{"High", "danger"},
	}
	for _, tc := range cases {
		got, err := FindingSeverityColor(tc.tier)
		if err != nil {
			t.Fatalf("FindingSeverityColor(%q): unexpected error: %v", tc.tier, err)
		}
		if got != tc.want {
			t.Errorf("FindingSeverityColor(%q) = %q, want %q", tc.tier, got, tc.want)
		}
	}

	_, err := FindingSeverityColor("Critical")
	assertUnknownKey(t, err)
}

func TestHealthCategoryColor(t *testing.T) {
	cases := []struct {
		category string
		want     string
	}{
		{"accountNotification", "#777777"},
		{"scheduledChange", "warning"},
		{"issue", "danger"},
	}
	for _, tc := range cases {
		got, err := HealthCategoryColor(tc.category)
		if err != nil {
			t.Fatalf("HealthCategoryColor(%q): unexpected error: %v", tc.category, err)
		}
		if got != tc.want {
			t.Errorf("HealthCategoryColor(%q) = %q, want %q", tc.category, got, tc.want)
		}
	}

	_, err := HealthCategoryColor("investigation")
	assertUnknownKey(t, err)
}

func TestStorageEventColor(t *testing.T) {
	// Event names arrive with colons; the lookup key uses underscores.
	cases := []struct {
		event string
		want  string
	}{
		{"ObjectCreated:Put", "good"},
		{"ObjectCreated:CompleteMultipartUpload", "good"},
		{"ObjectRemoved:Delete", "danger"},
		{"ObjectRestore:Completed", "good"},
		{"Replication:OperationReplicatedAfterThreshold", "warning"},
		{"LifecycleTransition", "warning"},
		{"ObjectTagging:Delete", "warning"},
		{"TestEvent", "good"},
	}
	for _, tc := range cases {
		got, err := StorageEventColor(tc.event)
		if err != nil {
			t.Fatalf("StorageEventColor(%q): unexpected error: %v", tc.event, err)
		}
		if got != tc.want {
			t.Errorf("StorageEventColor(%q) = %q, want %q", tc.event, got, tc.want)
		}
	}

	_, err := StorageEventColor("ObjectCreated:Teleport")
	assertUnknownKey(t, err)
}
