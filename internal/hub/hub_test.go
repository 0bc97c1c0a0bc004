package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
	"github.com/S342D32/Mini-Perplexity/internal/logger"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := New(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func TestHubDeliversToSessionSubscribers(t *testing.T) {
	h := startHub(t)

	subscriber := h.NewConnection(nil, "s1")
	other := h.NewConnection(nil, "s2")
	h.Register(subscriber)
	h.Register(other)
	require.Eventually(t, func() bool { return h.ConnectionCount() == 2 }, time.Second, 10*time.Millisecond)
	assert.True(t, h.HasSubscribers("s1"))

	h.Publish(domain.SessionEvent{Type: domain.EventSessionRenamed, SessionID: "s1", Payload: map[string]string{"title": "Go"}})

	select {
	case data := <-subscriber.Send:
		var evt domain.SessionEvent
		require.NoError(t, json.Unmarshal(data, &evt))
		assert.Equal(t, domain.EventSessionRenamed, evt.Type)
		assert.NotZero(t, evt.Timestamp)
	case <-time.After(time.Second):
		t.Fatalf("event not delivered")
	}

	select {
	case <-other.Send:
		t.Fatalf("event leaked to another session")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := startHub(t)

	conn := h.NewConnection(nil, "s1")
	h.Register(conn)
	h.Unregister(conn)

	select {
	case _, ok := <-conn.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatalf("send channel not closed")
	}
	assert.False(t, h.HasSubscribers("s1"))
}

func TestHubPublishWithoutRunDoesNotBlock(t *testing.T) {
	h := New(logger.Discard())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			h.Publish(domain.SessionEvent{Type: domain.EventMessageAppended, SessionID: "s1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish blocked")
	}
}
