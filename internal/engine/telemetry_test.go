package engine

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-store-engine/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTelemetry(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	e := New(store.New(), Options{TracerProvider: tp, MeterProvider: mp})
	ctx := context.Background()

	p := mustProduct(t, e, "Tst", 100, 1)
	mustTopUp(t, e, "alice", 1000)
	req := BuyRequest{UserEmail: "alice", ProductID: p.ID, Quantity: 1, IdempotencyKey: "k1"}
	_, err := e.Buy(ctx, req)
	require.NoError(t, err)
	_, err = e.Buy(ctx, req)
	require.NoError(t, err)
	_, err = e.Buy(ctx, BuyRequest{UserEmail: "alice", ProductID: p.ID, Quantity: 1, IdempotencyKey: "k2"})
	require.ErrorIs(t, err, ErrInsufficientStock)

	var buys []sdktrace.ReadOnlySpan
	for _, s := range spans.Ended() {
		if s.Name() == "engine.buy" {
			buys = append(buys, s)
		}
	}
	require.Len(t, buys, 3)
	assert.Equal(t, codes.Unset, buys[0].Status().Code)
	assert.Contains(t, buys[1].Attributes(), attribute.Bool("idempotency.replayed", true))
	assert.Equal(t, codes.Error, buys[2].Status().Code)
	assert.Equal(t, string(KindInsufficientStock), buys[2].Status().Description)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	assert.Equal(t, int64(1), counterTotal(rm, "store.orders.placed"))
	assert.Equal(t, int64(1), counterTotal(rm, "store.idempotency.replays"))
	assert.Equal(t, int64(1), counterTotal(rm, "store.txn.failures"))
	assert.True(t, hasMetric(rm, "store.lock.wait"))
}

func counterTotal(rm metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasMetric(rm metricdata.ResourceMetrics, name string) bool {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return true
			}
		}
	}
	return false
}
