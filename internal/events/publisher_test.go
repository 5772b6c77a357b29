package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikhaykhunmong/strapi-nextts/internal/broadcast"
)

type mockWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func eventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOrderSubmitted_PublishesTokenAndTotal(t *testing.T) {
	mock := &mockWriter{}
	sut := &Publisher{writer: mock, log: testLogger()}

	err := sut.OrderSubmitted(context.Background(), "order-token-1", 200)
	require.NoError(t, err)

	require.Len(t, mock.messages, 1)
	msg := mock.messages[0]
	assert.Equal(t, "order-submitted", eventType(msg))
	assert.NotEmpty(t, msg.Key)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "order-token-1", payload["token"])
	assert.Equal(t, float64(200), payload["total_price"])
}

func TestOrderSubmitted_WriterError(t *testing.T) {
	mock := &mockWriter{err: errors.New("broker unreachable")}
	sut := &Publisher{writer: mock, log: testLogger()}

	err := sut.OrderSubmitted(context.Background(), "order-token-1", 200)
	assert.Error(t, err)
}

func TestMirrorCartChanges_ForwardsSignals(t *testing.T) {
	mock := &mockWriter{}
	sut := &Publisher{writer: mock, log: testLogger()}

	bcast := broadcast.New()
	sub := bcast.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		sut.MirrorCartChanges(ctx, sub)
	}()

	bcast.Notify()
	require.Eventually(t, func() bool {
		return mock.count() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "cart-changed", eventType(mock.messages[0]))

	// Cancelling the subscription ends the mirror loop.
	sub.Cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mirror loop did not stop after cancel")
	}
}

func TestMirrorCartChanges_StopsOnContext(t *testing.T) {
	sut := &Publisher{writer: &mockWriter{}, log: testLogger()}

	bcast := broadcast.New()
	sub := bcast.Subscribe()
	defer sub.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sut.MirrorCartChanges(ctx, sub)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mirror loop did not stop after context cancellation")
	}
}
