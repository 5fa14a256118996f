package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/analytics"
)

// Recorder is satisfied by analytics.MetricRecorder.
type Recorder interface {
	Record(ctx context.Context, events []analytics.Event) error
}

// Processor turns a batch of queued cart events into metrics.
type Processor struct {
	recorder Recorder
	log      *zap.Logger
}

// NewProcessor creates a new worker processor.
func NewProcessor(recorder Recorder, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{recorder: recorder, log: logger}
}

// Handle decodes every record and records the valid ones in a single call.
// Undecodable records and, when the metrics write fails, every decoded
// record are reported back as batch item failures so SQS redelivers only
// those (and eventually moves them to the DLQ).
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	batch := make([]analytics.Event, 0, len(ev.Records))
	ids := make([]string, 0, len(ev.Records))

	for _, rec := range ev.Records {
		e, err := decode(rec)
		if err != nil {
			p.log.Warn("dropping undecodable analytics message", zap.String("message_id", rec.MessageId), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
			continue
		}
		batch = append(batch, e)
		ids = append(ids, rec.MessageId)
	}

	if err := p.recorder.Record(ctx, batch); err != nil {
		p.log.Error("failed to record metrics", zap.Int("events", len(batch)), zap.Error(err))
		for _, id := range ids {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: id})
		}
		return resp, nil
	}

	p.log.Info("recorded analytics batch", zap.Int("events", len(batch)), zap.Int("failures", len(resp.BatchItemFailures)))
	return resp, nil
}

func decode(rec events.SQSMessage) (analytics.Event, error) {
	var e analytics.Event
	if err := json.Unmarshal([]byte(rec.Body), &e); err != nil {
		return e, fmt.Errorf("invalid message body: %w", err)
	}
	if e.Type == "" || e.CartID == "" {
		return e, fmt.Errorf("message missing type or cart_id")
	}
	if !analytics.KnownType(e.Type) {
		return e, fmt.Errorf("unknown event type %q", e.Type)
	}
	return e, nil
}
