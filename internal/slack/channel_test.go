package slack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"slackrelay/internal/config"
	"slackrelay/internal/types"
)

// --- Test Helpers ---

// mockDecrypter is a test double for the KMS-backed decrypter.
type mockDecrypter struct {
	plaintext string
	err       error
	calls     int
	lastInput string
}

func (m *mockDecrypter) DecryptString(_ context.Context, ciphertext string) (string, error) {
	m.calls++
	m.lastInput = ciphertext
	if m.err != nil {
		return "", m.err
	}
	return m.plaintext, nil
}

func testWebhookConfig() config.WebhookConfig {
	return config.WebhookConfig{
		UserAgent:      "slackrelay-test/1.0",
		DefaultTimeout: 5 * time.Second,
	}
}

func newTestChannel(webhook string, decrypter Decrypter, client *http.Client) *Channel {
	return NewChannelWithClient(
		config.SlackConfig{WebhookURL: types.SecretString(webhook)},
		testWebhookConfig(),
		decrypter,
		client,
		nopLogger{},
	)
}

func testPayload() map[string]any {
	return map[string]any{
		"channel":    "#alerts",
		"username":   "relay-bot",
		"icon_emoji": ":rotating_light:",
		"text":       "hello",
	}
}

// --- Constructor ---

func TestNewChannel_NilLogger(t *testing.T) {
	_, err := NewChannel(config.SlackConfig{}, testWebhookConfig(), nil, nil)
	if err == nil {
		t.Fatal("expected error for nil logger")
	}
}

func TestNewChannel_Success(t *testing.T) {
	ch, err := NewChannel(
		config.SlackConfig{WebhookURL: "https://hooks.slack.com/services/T/B/X"},
		testWebhookConfig(),
		nil,
		nopLogger{},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch == nil {
		t.Fatal("expected non-nil channel")
	}
}

// --- Send ---

func TestSend_Success(t *testing.T) {
	var gotMethod, gotContentType, gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("X-Marker", "present")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ch := newTestChannel(server.URL, nil, server.Client())
	result, err := ch.Send(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Code != http.StatusOK {
		t.Errorf("expected code 200, got %d", result.Code)
	}
	if !strings.Contains(result.Info, "X-Marker: present\n") {
		t.Errorf("expected rendered headers in info, got %q", result.Info)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("unexpected content type %q", gotContentType)
	}
	if gotUserAgent != "slackrelay-test/1.0" {
		t.Errorf("unexpected user agent %q", gotUserAgent)
	}
}

func TestSend_FormEncodesPayload(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ch := newTestChannel(server.URL, nil, server.Client())
	if _, err := ch.Send(context.Background(), testPayload()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	values, err := url.ParseQuery(string(gotBody))
	if err != nil {
		t.Fatalf("body is not form-encoded: %v", err)
	}
	encoded := values.Get("payload")
	if encoded == "" {
		t.Fatalf("missing payload form field in %q", gotBody)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
		t.Fatalf("payload field is not JSON: %v", err)
	}
	if decoded["channel"] != "#alerts" {
		t.Errorf("expected channel #alerts, got %v", decoded["channel"])
	}
	if decoded["text"] != "hello" {
		t.Errorf("expected text hello, got %v", decoded["text"])
	}
}

func TestSend_RemoteErrorIsCapturedNotRaised(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no_service", http.StatusInternalServerError)
	}))
	defer server.Close()

	ch := newTestChannel(server.URL, nil, server.Client())
	result, err := ch.Send(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("non-2xx must not be an error, got: %v", err)
	}
	if result.Code != http.StatusInternalServerError {
		t.Errorf("expected code 500, got %d", result.Code)
	}
	if result.Info == "" {
		t.Error("expected rendered headers in info")
	}
}

func TestSend_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := server.Client()
	server.Close()

	ch := newTestChannel(server.URL, nil, client)
	result, err := ch.Send(context.Background(), testPayload())
	if err == nil {
		t.Fatal("expected transport error")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeDeliveryFailed {
		t.Errorf("expected code %q, got %q", types.ErrCodeDeliveryFailed, appErr.Code)
	}
	if result.Code != 0 {
		t.Errorf("expected zero status for transport failure, got %d", result.Code)
	}
	if result.Info == "" {
		t.Error("expected error text in info")
	}
}

func TestSend_DecryptsCiphertextWebhook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	decrypter := &mockDecrypter{plaintext: server.URL}
	ch := newTestChannel("AQICAHencryptedblob==", decrypter, server.Client())

	result, err := ch.Send(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Code != http.StatusOK {
		t.Errorf("expected code 200, got %d", result.Code)
	}
	if decrypter.calls != 1 {
		t.Errorf("expected 1 decrypt call, got %d", decrypter.calls)
	}
	if decrypter.lastInput != "AQICAHencryptedblob==" {
		t.Errorf("decrypter received %q", decrypter.lastInput)
	}
}

func TestSend_PlaintextWebhookSkipsDecrypter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	decrypter := &mockDecrypter{plaintext: "https://should-not-be-used.example.com"}
	ch := newTestChannel(server.URL, decrypter, server.Client())

	if _, err := ch.Send(context.Background(), testPayload()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decrypter.calls != 0 {
		t.Errorf("decrypter must not run for plaintext URLs, got %d calls", decrypter.calls)
	}
}

func TestSend_DecryptFailureFailsDownstream(t *testing.T) {
	decrypter := &mockDecrypter{err: errors.New("kms unavailable")}
	ch := newTestChannel("AQICAHencryptedblob==", decrypter, http.DefaultClient)

	result, err := ch.Send(context.Background(), testPayload())
	if err == nil {
		t.Fatal("expected downstream delivery failure")
	}

	// The decrypt failure itself is swallowed; the empty destination then
	// fails in transport.
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeDeliveryFailed {
		t.Errorf("expected code %q, got %q", types.ErrCodeDeliveryFailed, appErr.Code)
	}
	if result.Code != 0 {
		t.Errorf("expected zero status, got %d", result.Code)
	}
	if decrypter.calls != 1 {
		t.Errorf("expected 1 decrypt call, got %d", decrypter.calls)
	}
}

func TestSend_PropagatesTraceID(t *testing.T) {
	var gotTraceID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTraceID = r.Header.Get("X-B3-TraceId")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ch := newTestChannel(server.URL, nil, server.Client())
	ctx := types.WithRequestID(context.Background(), "req-42")
	if _, err := ch.Send(ctx, testPayload()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTraceID != "req-42" {
		t.Errorf("expected trace id req-42, got %q", gotTraceID)
	}
}

// --- syntheticDeliveryRef ---

// fixedClock returns a constant time for deterministic reference assertions.
type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func TestSyntheticDeliveryRef_Format(t *testing.T) {
	ch := newTestChannel("https://hooks.slack.com/services/T/B/X", nil, http.DefaultClient)
	ch.SetClock(fixedClock{t: time.Unix(1700000000, 0)})

	ref := ch.syntheticDeliveryRef(http.StatusOK)
	if !strings.HasPrefix(ref, "slack-200-1700000000-") {
		t.Errorf("ref = %q, want prefix slack-200-1700000000-", ref)
	}

	parts := strings.Split(ref, "-")
	if len(parts) != 4 {
		t.Fatalf("ref = %q, want 4 dash-separated parts", ref)
	}
	if len(parts[3]) != 8 {
		t.Errorf("uuid suffix = %q, want 8 chars", parts[3])
	}
}

// --- renderHeaders ---

func TestRenderHeaders_SortedAndStable(t *testing.T) {
	h := http.Header{}
	h.Set("Zebra", "z")
	h.Set("Alpha", "a")
	h.Add("Mid", "1")
	h.Add("Mid", "2")

	got := renderHeaders(h)
	want := "Alpha: a\nMid: 1\nMid: 2\nZebra: z\n"
	if got != want {
		t.Errorf("renderHeaders = %q, want %q", got, want)
	}
}
