package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ariefcatur/go-store-engine/internal/engine"

type instruments struct {
	tracer   trace.Tracer
	placed   metric.Int64Counter
	failures metric.Int64Counter
	replays  metric.Int64Counter
	lockWait metric.Float64Histogram
}

func newInstruments(tp trace.TracerProvider, mp metric.MeterProvider) *instruments {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	in := &instruments{tracer: tp.Tracer(instrumentationName)}
	// Instrument constructors only fail on invalid names; the returned
	// instrument is still usable (a no-op) in that case.
	in.placed, _ = meter.Int64Counter("store.orders.placed",
		metric.WithDescription("Orders committed"))
	in.failures, _ = meter.Int64Counter("store.txn.failures",
		metric.WithDescription("Mutating operations rejected, by error kind"))
	in.replays, _ = meter.Int64Counter("store.idempotency.replays",
		metric.WithDescription("Requests answered from the idempotency cache"))
	in.lockWait, _ = meter.Float64Histogram("store.lock.wait",
		metric.WithDescription("Time spent waiting for resource locks"),
		metric.WithUnit("ms"))
	return in
}

func (in *instruments) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return in.tracer.Start(ctx, "engine."+op, trace.WithAttributes(attrs...))
}

// finish records the outcome of op on span and the counters, then ends span.
func (in *instruments) finish(ctx context.Context, span trace.Span, op string, replayed bool, err error) {
	opAttr := attribute.String("op", op)
	switch {
	case err != nil:
		kind := KindOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		in.failures.Add(ctx, 1, metric.WithAttributes(opAttr, attribute.String("kind", string(kind))))
	case replayed:
		span.SetAttributes(attribute.Bool("idempotency.replayed", true))
		in.replays.Add(ctx, 1, metric.WithAttributes(opAttr))
	default:
		in.placed.Add(ctx, 1, metric.WithAttributes(opAttr))
	}
	span.End()
}

func (in *instruments) waited(ctx context.Context, op string, since time.Time) {
	in.lockWait.Record(ctx, float64(time.Since(since).Microseconds())/1000,
		metric.WithAttributes(attribute.String("op", op)))
}

// end closes a span for operations that do not place orders.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
	}
	span.End()
}
