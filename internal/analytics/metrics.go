package analytics

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-storefront-checkout/internal/aws"
)

var metricNames = map[string]string{
	EventAddToCart:      "AddToCart",
	EventRemoveFromCart: "RemoveFromCart",
}

// MetricRecorder turns cart events into CloudWatch metrics. Each event adds
// its quantity to a count metric and its line value to a revenue metric.
type MetricRecorder struct {
	client    aws.CloudWatchAPI
	namespace string
}

// KnownType reports whether t is an event type the recorder has metrics for.
func KnownType(t string) bool {
	_, ok := metricNames[t]
	return ok
}

// NewMetricRecorder returns a recorder writing into namespace.
func NewMetricRecorder(client aws.CloudWatchAPI, namespace string) *MetricRecorder {
	return &MetricRecorder{client: client, namespace: namespace}
}

// Record writes the metrics for a batch of events in one call.
// Unknown event types are rejected so they land in the DLQ.
func (r *MetricRecorder) Record(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	data := make([]cwtypes.MetricDatum, 0, 2*len(events))
	for _, ev := range events {
		name, ok := metricNames[ev.Type]
		if !ok {
			return fmt.Errorf("unknown event type %q", ev.Type)
		}
		category := ev.Category
		if category == "" {
			category = "uncategorized"
		}
		dims := []cwtypes.Dimension{{Name: strPtr("Category"), Value: strPtr(category)}}
		ts := ev.OccurredAt
		value, _ := ev.Price.Mul(decimal.NewFromInt(int64(ev.Quantity))).Float64()

		data = append(data,
			cwtypes.MetricDatum{
				MetricName: strPtr(name),
				Dimensions: dims,
				Timestamp:  &ts,
				Unit:       cwtypes.StandardUnitCount,
				Value:      float64Ptr(float64(ev.Quantity)),
			},
			cwtypes.MetricDatum{
				MetricName: strPtr(name + "Value"),
				Dimensions: dims,
				Timestamp:  &ts,
				Unit:       cwtypes.StandardUnitNone,
				Value:      float64Ptr(value),
			},
		)
	}

	_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &r.namespace,
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func strPtr(s string) *string       { return &s }
func float64Ptr(f float64) *float64 { return &f }
