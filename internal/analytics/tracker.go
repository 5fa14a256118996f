// Package analytics carries cart events from the API to the metrics worker.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
)

// Sender is satisfied by aws.Publisher.
type Sender interface {
	Send(ctx context.Context, messageBody string, attributes map[string]string) error
}

// QueueTracker publishes cart events to a queue.
type QueueTracker struct {
	sender Sender
}

// NewQueueTracker returns a tracker publishing through sender.
func NewQueueTracker(sender Sender) *QueueTracker {
	return &QueueTracker{sender: sender}
}

// Track publishes ev as JSON with its type and cart id as message attributes.
func (q *QueueTracker) Track(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	attrs := map[string]string{
		"event_type": ev.Type,
		"cart_id":    ev.CartID,
	}
	if err := q.sender.Send(ctx, string(body), attrs); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Nop drops every event. Used when no analytics queue is configured.
type Nop struct{}

func (Nop) Track(context.Context, Event) error { return nil }
