package metrics

import (
	"context"
	"fmt"

	"github.com/atmosdata/metsync/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// cloudWatchAPI is the minimal CloudWatch interface needed by
// CloudWatchSink, allowing injection of a mock client in tests.
type cloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchSink records metrics to AWS CloudWatch. Delivery is
// fire-and-forget: errors are logged and swallowed.
type CloudWatchSink struct {
	client cloudWatchAPI
}

// NewCloudWatchSink builds a CloudWatchSink using the default AWS
// credential chain for the given region.
func NewCloudWatchSink(ctx context.Context, region string) (*CloudWatchSink, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed loading aws config: %w", err)
	}
	return &CloudWatchSink{client: cloudwatch.NewFromConfig(cfg)}, nil
}

// NewCloudWatchSinkWithClient builds a CloudWatchSink with a custom
// client (for testing).
func NewCloudWatchSinkWithClient(client cloudWatchAPI) *CloudWatchSink {
	return &CloudWatchSink{client: client}
}

// Put publishes the metrics under the given namespace. Failures never
// propagate to the caller.
func (s *CloudWatchSink) Put(ctx context.Context, namespace string, ms []Metric) {
	if len(ms) == 0 {
		return
	}

	data := make([]types.MetricDatum, 0, len(ms))
	for _, m := range ms {
		datum := types.MetricDatum{
			MetricName: aws.String(m.Name),
			Value:      aws.Float64(m.Value),
			Unit:       types.StandardUnit(m.Unit),
		}
		for name, value := range m.Dimensions {
			datum.Dimensions = append(datum.Dimensions, types.Dimension{
				Name:  aws.String(name),
				Value: aws.String(value),
			})
		}
		data = append(data, datum)
	}

	_, err := s.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(namespace),
		MetricData: data,
	})
	if err != nil {
		logger.Log.Warn().Err(err).Str("namespace", namespace).
			Int("metrics", len(ms)).Msg("failed to publish metrics")
	}
}

var _ Sink = (*CloudWatchSink)(nil)
