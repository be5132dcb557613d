package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{64, 30 * time.Second}, // no overflow
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"closed connection", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"amqp closed", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isConnectionError(tt.err))
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	t.Run("initial state is closed", func(t *testing.T) {
		assert.False(t, client.isCircuitOpen(), "circuit breaker should be closed initially")
	})

	t.Run("record success resets state", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 3)
		atomic.StoreInt32(&client.state, StateOpen)

		client.recordSuccess()

		assert.Zero(t, atomic.LoadInt64(&client.failureCount))
		assert.Equal(t, StateClosed, atomic.LoadInt32(&client.state))
	})

	t.Run("multiple failures open circuit", func(t *testing.T) {
		client.recordSuccess()
		for i := 0; i < maxFailures; i++ {
			client.recordFailure()
		}
		assert.True(t, client.isCircuitOpen(), "circuit breaker should be open after max failures")
	})

	t.Run("circuit transitions to half-open after timeout", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)

		assert.False(t, client.isCircuitOpen(), "circuit should transition to half-open after timeout")
		assert.Equal(t, StateHalfOpen, atomic.LoadInt32(&client.state))
	})

	t.Run("failure while half-open reopens", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateHalfOpen)
		atomic.StoreInt64(&client.failureCount, 0)

		client.recordFailure()

		assert.Equal(t, StateOpen, atomic.LoadInt32(&client.state), "a half-open failure should reopen the circuit")
	})
}

func TestClient_PublishChange_Guards(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}
	msg := NewChangeMessage("expenses", "doc-1", OpCreate)

	t.Run("publish fails when circuit is open", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()

		err := client.PublishChange(context.Background(), msg)
		assert.ErrorIs(t, err, ErrCircuitOpen)
	})

	t.Run("publish respects context cancellation", func(t *testing.T) {
		client.recordSuccess()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Equal(t, context.Canceled, client.PublishChange(ctx, msg))
	})
}

func TestNewChangeMessage(t *testing.T) {
	msg := NewChangeMessage("incomes", "abc", OpUpdate)

	assert.NotEmpty(t, msg.MessageID)
	assert.Equal(t, "incomes", msg.Collection)
	assert.Equal(t, "abc", msg.DocumentID)
	assert.Equal(t, OpUpdate, msg.Op)
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)
	assert.NotEqual(t, msg.MessageID, NewChangeMessage("incomes", "abc", OpUpdate).MessageID, "message ids should be unique")
}

func TestChangeMessage_JSON(t *testing.T) {
	msg := &ChangeMessage{
		MessageID:  "m-1",
		Collection: "categories",
		DocumentID: "c-1",
		Op:         OpDelete,
		Timestamp:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"id":"c-1"`, "document id should be serialised as id")

	parsed, err := ChangeMessageFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, msg.MessageID, parsed.MessageID)
	assert.Equal(t, msg.Collection, parsed.Collection)
	assert.Equal(t, msg.DocumentID, parsed.DocumentID)
	assert.Equal(t, msg.Op, parsed.Op)
	assert.True(t, parsed.Timestamp.Equal(msg.Timestamp), "parsed timestamp = %v", parsed.Timestamp)
}

func TestChangeMessageFromJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"wrong type", `{"messageId": 1}`},
		{"missing id", `{"messageId":"m","collection":"incomes","op":"create"}`},
		{"unknown op", `{"messageId":"m","collection":"incomes","id":"x","op":"upsert"}`},
		{"missing message id", `{"collection":"incomes","id":"x","op":"create"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ChangeMessageFromJSON([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}
