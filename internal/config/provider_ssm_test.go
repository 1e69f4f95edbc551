package config

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// mockSSMAPI implements ssmClient for testing. It records each GetParameters
// call and returns configurable responses/errors.
type mockSSMAPI struct {
	// getParametersFn, if set, is called for GetParameters requests.
	getParametersFn func(ctx context.Context, input *ssm.GetParametersInput) (*ssm.GetParametersOutput, error)

	// calls records all GetParameters invocations for assertion.
	calls []*ssm.GetParametersInput
}

func (m *mockSSMAPI) GetParameters(ctx context.Context, params *ssm.GetParametersInput, _ ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	m.calls = append(m.calls, params)
	if m.getParametersFn != nil {
		return m.getParametersFn(ctx, params)
	}
	return &ssm.GetParametersOutput{}, nil
}

// echoParameters builds a GetParametersOutput that resolves every requested
// name to "<name>-value".
func echoParameters(_ context.Context, input *ssm.GetParametersInput) (*ssm.GetParametersOutput, error) {
	out := &ssm.GetParametersOutput{}
	for _, name := range input.Names {
		out.Parameters = append(out.Parameters, ssmtypes.Parameter{
			Name:  aws.String(name),
			Value: aws.String(name + "-value"),
		})
	}
	return out, nil
}

// TestSSMProviderSatisfiesSecretProvider verifies that SSMProvider
// implements the SecretProvider interface at compile time.
func TestSSMProviderSatisfiesSecretProvider(t *testing.T) {
	var _ SecretProvider = (*SSMProvider)(nil)
	var _ SecretProvider = NewSSMProvider("us-east-1")
}

// TestNewSSMProviderStoresRegion verifies that the constructor correctly
// stores the provided region.
func TestNewSSMProviderStoresRegion(t *testing.T) {
	provider := NewSSMProvider("eu-west-1")
	if provider.region != "eu-west-1" {
		t.Errorf("provider.region = %q, want %q", provider.region, "eu-west-1")
	}
}

// TestSSMProviderEmptyKeysReturnsEmptyMap verifies that calling
// GetParametersBatch with an empty keys slice returns an empty map without
// error and without touching the SSM API.
func TestSSMProviderEmptyKeysReturnsEmptyMap(t *testing.T) {
	mock := &mockSSMAPI{}
	provider := newSSMProviderWithClient("us-east-1", mock)

	result, err := provider.GetParametersBatch(context.Background(), []string{})
	if err != nil {
		t.Fatalf("GetParametersBatch with empty keys returned unexpected error: %v", err)
	}
	if result == nil {
		t.Error("expected non-nil map, got nil")
	}
	if len(result) != 0 {
		t.Errorf("expected empty result for empty keys, got %v", result)
	}
	if len(mock.calls) != 0 {
		t.Errorf("expected no SSM calls for empty keys, got %d", len(mock.calls))
	}
}

// TestSSMProviderNilKeysReturnsEmptyMap verifies that calling
// GetParametersBatch with nil keys returns an empty map without error.
func TestSSMProviderNilKeysReturnsEmptyMap(t *testing.T) {
	mock := &mockSSMAPI{}
	provider := newSSMProviderWithClient("us-east-1", mock)

	result, err := provider.GetParametersBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetParametersBatch with nil keys returned unexpected error: %v", err)
	}
	if result == nil {
		t.Error("expected non-nil map, got nil")
	}
	if len(result) != 0 {
		t.Errorf("expected empty result for nil keys, got %v", result)
	}
	if len(mock.calls) != 0 {
		t.Errorf("expected no SSM calls for nil keys, got %d", len(mock.calls))
	}
}

// TestSSMProviderSingleBatch verifies a simple retrieval of fewer than ten
// parameters: one API call, decryption requested, all values returned.
func TestSSMProviderSingleBatch(t *testing.T) {
	mock := &mockSSMAPI{getParametersFn: echoParameters}
	provider := newSSMProviderWithClient("us-east-1", mock)

	keys := []string{
		"/prod/slackrelay/slack/webhook_url",
		"/prod/slackrelay/observability/metric_namespace",
	}

	result, err := provider.GetParametersBatch(context.Background(), keys)
	if err != nil {
		t.Fatalf("GetParametersBatch returned error: %v", err)
	}

	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 GetParameters call, got %d", len(mock.calls))
	}
	call := mock.calls[0]
	if len(call.Names) != 2 {
		t.Errorf("call.Names has %d entries, want 2", len(call.Names))
	}
	if !aws.ToBool(call.WithDecryption) {
		t.Error("expected WithDecryption=true for secret retrieval")
	}

	if len(result) != 2 {
		t.Fatalf("result has %d entries, want 2", len(result))
	}
	if result["/prod/slackrelay/slack/webhook_url"] != "/prod/slackrelay/slack/webhook_url-value" {
		t.Errorf("webhook_url = %q, want echoed value", result["/prod/slackrelay/slack/webhook_url"])
	}
}

// TestSSMProviderBatchSplitting verifies that more than ten keys are split
// into multiple GetParameters calls of at most ten names each.
func TestSSMProviderBatchSplitting(t *testing.T) {
	mock := &mockSSMAPI{getParametersFn: echoParameters}
	provider := newSSMProviderWithClient("us-east-1", mock)

	keys := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		keys = append(keys, fmt.Sprintf("/prod/slackrelay/test/param_%02d", i))
	}

	result, err := provider.GetParametersBatch(context.Background(), keys)
	if err != nil {
		t.Fatalf("GetParametersBatch returned error: %v", err)
	}

	if len(mock.calls) != 3 {
		t.Fatalf("expected 3 GetParameters calls for 25 keys, got %d", len(mock.calls))
	}
	wantSizes := []int{10, 10, 5}
	for i, call := range mock.calls {
		if len(call.Names) != wantSizes[i] {
			t.Errorf("batch %d has %d names, want %d", i, len(call.Names), wantSizes[i])
		}
		if !aws.ToBool(call.WithDecryption) {
			t.Errorf("batch %d missing WithDecryption=true", i)
		}
	}

	if len(result) != 25 {
		t.Errorf("result has %d entries, want 25", len(result))
	}
}

// TestSSMProviderInvalidParameters verifies that parameters SSM reports as
// invalid (not found) produce an error naming them.
func TestSSMProviderInvalidParameters(t *testing.T) {
	mock := &mockSSMAPI{
		getParametersFn: func(_ context.Context, input *ssm.GetParametersInput) (*ssm.GetParametersOutput, error) {
			return &ssm.GetParametersOutput{
				InvalidParameters: []string{input.Names[0]},
			}, nil
		},
	}
	provider := newSSMProviderWithClient("us-east-1", mock)

	_, err := provider.GetParametersBatch(context.Background(), []string{"/prod/slackrelay/slack/webhook_url"})
	if err == nil {
		t.Fatal("expected error for invalid parameters, got nil")
	}
	if !strings.Contains(err.Error(), "/prod/slackrelay/slack/webhook_url") {
		t.Errorf("error should name the invalid parameter, got: %v", err)
	}
}

// TestSSMProviderAPIError verifies that an SSM API failure is wrapped with
// batch position information.
func TestSSMProviderAPIError(t *testing.T) {
	mock := &mockSSMAPI{
		getParametersFn: func(_ context.Context, _ *ssm.GetParametersInput) (*ssm.GetParametersOutput, error) {
			return nil, fmt.Errorf("throttling exception")
		},
	}
	provider := newSSMProviderWithClient("us-east-1", mock)

	_, err := provider.GetParametersBatch(context.Background(), []string{"/prod/slackrelay/slack/webhook_url"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "SSM GetParameters failed") {
		t.Errorf("error = %v, want GetParameters failure context", err)
	}
	if !strings.Contains(err.Error(), "throttling exception") {
		t.Errorf("error should wrap the underlying cause, got: %v", err)
	}
}

// TestSSMProviderContextCancelled verifies that a cancelled context aborts
// retrieval before any further API calls are made.
func TestSSMProviderContextCancelled(t *testing.T) {
	mock := &mockSSMAPI{getParametersFn: echoParameters}
	provider := newSSMProviderWithClient("us-east-1", mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := provider.GetParametersBatch(ctx, []string{"/prod/slackrelay/slack/webhook_url"})
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
	if len(mock.calls) != 0 {
		t.Errorf("expected no SSM calls after cancellation, got %d", len(mock.calls))
	}
}

// TestSSMProviderCancelledBetweenBatches verifies that cancellation between
// batches stops the remaining batches.
func TestSSMProviderCancelledBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &mockSSMAPI{
		getParametersFn: func(c context.Context, input *ssm.GetParametersInput) (*ssm.GetParametersOutput, error) {
			cancel() // First batch succeeds but cancels the rest.
			return echoParameters(c, input)
		},
	}
	provider := newSSMProviderWithClient("us-east-1", mock)

	keys := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		keys = append(keys, fmt.Sprintf("/prod/slackrelay/test/param_%02d", i))
	}

	_, err := provider.GetParametersBatch(ctx, keys)
	if err == nil {
		t.Fatal("expected error when context is cancelled mid-retrieval, got nil")
	}
	if len(mock.calls) != 1 {
		t.Errorf("expected 1 SSM call before cancellation, got %d", len(mock.calls))
	}
}

// TestSSMProviderSkipsNilEntries verifies that response parameters without a
// name or value are ignored rather than dereferenced.
func TestSSMProviderSkipsNilEntries(t *testing.T) {
	mock := &mockSSMAPI{
		getParametersFn: func(_ context.Context, _ *ssm.GetParametersInput) (*ssm.GetParametersOutput, error) {
			return &ssm.GetParametersOutput{
				Parameters: []ssmtypes.Parameter{
					{Name: aws.String("/prod/slackrelay/slack/webhook_url"), Value: aws.String("https://hooks.slack.com/services/T0/B0/x")},
					{Name: nil, Value: aws.String("orphan")},
					{Name: aws.String("/prod/slackrelay/slack/channel"), Value: nil},
				},
			}, nil
		},
	}
	provider := newSSMProviderWithClient("us-east-1", mock)

	result, err := provider.GetParametersBatch(context.Background(), []string{"/prod/slackrelay/slack/webhook_url"})
	if err != nil {
		t.Fatalf("GetParametersBatch returned error: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("result has %d entries, want 1 (nil entries skipped)", len(result))
	}
	if result["/prod/slackrelay/slack/webhook_url"] != "https://hooks.slack.com/services/T0/B0/x" {
		t.Errorf("unexpected resolved value: %v", result)
	}
}
