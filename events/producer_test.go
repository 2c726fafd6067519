package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (m *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *memWriter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &memWriter{}
	p := newProducer(w, "teashop-api", 8)
	p.Start()

	require.NoError(t, p.Publish(context.Background(), EventOrderPaid, "order-1", OrderPayload{OrderID: "order-1", TotalCents: 7000}))
	require.NoError(t, p.Publish(context.Background(), EventOrderCancelled, "order-1", OrderPayload{OrderID: "order-1"}))
	p.Close()

	require.Len(t, w.msgs, 2)
	assert.True(t, w.closed)
	assert.Equal(t, "order-1", string(w.msgs[0].Key))

	var env Envelope
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &env))
	assert.Equal(t, EventOrderPaid, env.EventType)
	assert.Equal(t, "teashop-api", env.Producer)
	assert.NotEmpty(t, env.EventID)

	payload, err := UnwrapPayload[OrderPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), payload.TotalCents)
}

func TestProducerDropsWhenBufferFull(t *testing.T) {
	w := &memWriter{}
	p := newProducer(w, "teashop-api", 1)

	require.NoError(t, p.Publish(context.Background(), EventOrderPaid, "a", OrderPayload{}))
	require.NoError(t, p.Publish(context.Background(), EventOrderPaid, "b", OrderPayload{}))

	p.Start()
	p.Close()
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "a", string(w.msgs[0].Key))
}

func TestProducerDropsAfterClose(t *testing.T) {
	w := &memWriter{}
	p := newProducer(w, "teashop-api", 4)
	p.Start()
	p.Close()

	assert.NotPanics(t, func() {
		assert.NoError(t, p.Publish(context.Background(), EventRefundFailed, "late", OrderPayload{}))
	})
	assert.Empty(t, w.msgs)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), EventOrderPaid, "x", nil))
}
