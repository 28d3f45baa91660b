package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
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

func TestOrderEventProducer_FlushesOnShutdown(t *testing.T) {
	w := &fakeWriter{}
	p := newOrderEventProducer(w, 10)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	paidAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"o1", "o2", "o3"} {
		require.NoError(t, p.PublishOrderPlaced(context.Background(), OrderPlaced{
			OrderID:     id,
			OrderNumber: "#" + id,
			TotalAmount: decimal.RequireFromString("480.00"),
			PaidAt:      paidAt,
		}))
	}
	cancel()
	p.WaitClosed()

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.True(t, w.closed)
	require.Len(t, w.msgs, 3)
	assert.Equal(t, "o1", string(w.msgs[0].Key))
	assert.Equal(t, "order.placed", string(w.msgs[0].Headers[0].Value))

	var event OrderPlaced
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, "#o1", event.OrderNumber)
	assert.True(t, event.TotalAmount.Equal(decimal.NewFromInt(480)))
}

func TestOrderEventProducer_PublishRespectsContext(t *testing.T) {
	p := newOrderEventProducer(&fakeWriter{}, 1)
	require.NoError(t, p.PublishOrderPlaced(context.Background(), OrderPlaced{OrderID: "o1"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.PublishOrderPlaced(ctx, OrderPlaced{OrderID: "o2"}), context.Canceled)
}

func TestOrderEventProducer_NoBrokers(t *testing.T) {
	p := NewOrderEventProducer(nil, "order.placed", 10)
	p.Start(context.Background())

	assert.NoError(t, p.PublishOrderPlaced(context.Background(), OrderPlaced{OrderID: "o1"}))
	p.WaitClosed()
}
