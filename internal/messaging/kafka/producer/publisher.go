package producer

import (
	"context"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

// Keyed by aggregate id so all events for one payroll period land on the
// same partition and replay in order.
func publishEvent(ctx context.Context, writer *kafkago.Writer, event kafka.OutboxEvent) error {
	return writer.WriteMessages(ctx, kafkago.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
			{Key: "outbox_id", Value: []byte(event.ID)},
		},
	})
}
