// Package telemetry emits delivery metrics to CloudWatch. Metric failures are
// logged and swallowed: observability must never break a delivery.
package telemetry

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"slackrelay/internal/types"
)

// MetricResult is the value of the Result dimension on delivery metrics.
type MetricResult string

const (
	ResultSuccess MetricResult = "success"
	ResultFailed  MetricResult = "failed"
)

// Metrics records delivery outcomes. Implementations must be safe to call on
// every record without affecting the delivery path.
type Metrics interface {
	// RecordDelivery emits one DeliveryAttempt data point; a 2xx status code
	// counts as success, everything else (including transport failures
	// reported as status 0) as failed.
	RecordDelivery(ctx context.Context, statusCode int)

	// RecordLatency emits the wall-clock time one delivery attempt took.
	RecordLatency(ctx context.Context, duration time.Duration)
}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Compile-time assertions.
var (
	_ Metrics = (*CloudWatchMetrics)(nil)
	_ Metrics = NoopMetrics{}
)

// CloudWatchMetrics implements Metrics by publishing to a CloudWatch
// namespace.
//
// Metrics emitted:
//   - DeliveryAttempt: Dims {Result} -- on every delivery outcome
//   - DeliveryLatency: No dims -- time taken for the delivery attempt
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics publishing to the given
// namespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordDelivery emits a DeliveryAttempt metric with the Result dimension.
func (m *CloudWatchMetrics) RecordDelivery(ctx context.Context, statusCode int) {
	result := ResultFailed
	if statusCode >= 200 && statusCode < 300 {
		result = ResultSuccess
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(types.MetricDeliveryAttempt),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(types.DimResult),
						Value: aws.String(string(result)),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record delivery metric",
			"error", err.Error(),
			"status", statusCode,
			"result", string(result),
		)
	}
}

// RecordLatency emits a DeliveryLatency metric. Duration is recorded in
// milliseconds for CloudWatch precision.
func (m *CloudWatchMetrics) RecordLatency(ctx context.Context, duration time.Duration) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(types.MetricDeliveryLatency),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record latency metric",
			"error", err.Error(),
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// NoopMetrics discards all metrics. Used when no metric namespace is
// configured.
type NoopMetrics struct{}

func (NoopMetrics) RecordDelivery(context.Context, int) {}

func (NoopMetrics) RecordLatency(context.Context, time.Duration) {}
