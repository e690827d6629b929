package kafka

import (
	"context"
	"strconv"
	"time"

	"github.com/ariefcatur/go-store-engine/internal/orders"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"
)

// Publisher is the part of Producer that OrderPublisher needs.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

// OrderPublisher turns committed orders into OrderPlaced envelopes.
type OrderPublisher struct {
	P       Publisher
	Service string
}

const orderPlacedVersion = 1

func (op *OrderPublisher) OrderPlaced(ctx context.Context, o orders.Order, source string) error {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  orderPlacedVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      op.Service,
		CorrelationID: o.ID,
		Payload:       MustMarshal(orders.OrderPlacedPayload{Order: o, Source: source}),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		ev.TraceID = sc.TraceID().String()
	}
	return op.P.Publish(ctx, orders.PartitionKey(o.ID), MustMarshal(ev),
		kafka.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(orderPlacedVersion))},
	)
}
