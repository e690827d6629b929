package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) snapshot() ([]kafka.Message, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...), w.closed
}

func waitClosed(t *testing.T, p *Producer) {
	t.Helper()
	done := make(chan struct{})
	go func() { p.WaitClosed(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("producer did not shut down")
	}
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8)
	p.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Publish(context.Background(), []byte("k"), []byte{byte('0' + i)}))
	}
	p.Close()
	p.Close()
	waitClosed(t, p)

	msgs, closed := w.snapshot()
	assert.True(t, closed)
	require.Len(t, msgs, 5)
	assert.Equal(t, []byte("0"), msgs[0].Value)
	assert.Equal(t, []byte("4"), msgs[4].Value)

	assert.ErrorIs(t, p.Publish(context.Background(), nil, nil), ErrProducerClosed)
}

func TestProducerStopsOnContextCancel(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	require.NoError(t, p.Publish(context.Background(), []byte("k"), []byte("v")))
	cancel()
	waitClosed(t, p)

	msgs, closed := w.snapshot()
	assert.True(t, closed)
	assert.Len(t, msgs, 1)
	// Close after the loop has already shut down is harmless.
	p.Close()
}

func TestPublishGivesUpWhenInboxFull(t *testing.T) {
	p := newProducer(&fakeWriter{}, 1)
	require.NoError(t, p.Publish(context.Background(), nil, []byte("a")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Publish(ctx, nil, []byte("b")), context.DeadlineExceeded)
}
