package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"folder-explorer/internal/model"
)

func newTestClient() *Client {
	return &Client{send: make(chan []byte, 8)}
}

func recvFrame(t *testing.T, c *Client) statusFrame {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var frame statusFrame
		require.NoError(t, json.Unmarshal(raw, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return statusFrame{}
	}
}

func requireNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected frame: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcast(t *testing.T) {
	t.Parallel()

	t.Run("every client gets the global frame, subscribers an extra room frame", func(t *testing.T) {
		hub := NewHub()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go hub.Run(ctx)

		subscriber := newTestClient()
		bystander := newTestClient()
		hub.register <- subscriber
		hub.register <- bystander
		hub.subscribe <- subscription{client: subscriber, eventID: "e1"}

		hub.Broadcast(model.EventStatusUpdate{EventID: "e1", Status: model.EventStatusCompleted})

		first := recvFrame(t, subscriber)
		require.Equal(t, "event.status", first.Type)
		require.Empty(t, first.Room)
		require.Equal(t, model.EventStatusCompleted, first.Data.Status)

		scoped := recvFrame(t, subscriber)
		require.Equal(t, "event:e1", scoped.Room)
		require.Equal(t, "e1", scoped.Data.EventID)

		global := recvFrame(t, bystander)
		require.Empty(t, global.Room)
		requireNoFrame(t, bystander)
	})

	t.Run("unsubscribe stops room frames but not global ones", func(t *testing.T) {
		hub := NewHub()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go hub.Run(ctx)

		client := newTestClient()
		hub.register <- client
		hub.subscribe <- subscription{client: client, eventID: "e1"}
		hub.unsubscribe <- subscription{client: client, eventID: "e1"}

		hub.Broadcast(model.EventStatusUpdate{EventID: "e1", Status: model.EventStatusFailed})

		frame := recvFrame(t, client)
		require.Empty(t, frame.Room)
		requireNoFrame(t, client)
	})

	t.Run("slow consumer is dropped instead of blocking the hub", func(t *testing.T) {
		hub := NewHub()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go hub.Run(ctx)

		slow := &Client{send: make(chan []byte)}
		healthy := newTestClient()
		hub.register <- slow
		hub.register <- healthy

		hub.Broadcast(model.EventStatusUpdate{EventID: "e1", Status: model.EventStatusPending})

		recvFrame(t, healthy)

		select {
		case _, ok := <-slow.send:
			require.False(t, ok, "slow client's channel should be closed")
		case <-time.After(time.Second):
			t.Fatal("slow client was not dropped")
		}
	})

	t.Run("subscribe from a dropped client is ignored", func(t *testing.T) {
		hub := NewHub()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go hub.Run(ctx)

		slow := &Client{send: make(chan []byte)}
		healthy := newTestClient()
		hub.register <- slow
		hub.register <- healthy

		// First broadcast drops the slow client and closes its channel.
		hub.Broadcast(model.EventStatusUpdate{EventID: "e1", Status: model.EventStatusPending})
		recvFrame(t, healthy)
		select {
		case _, ok := <-slow.send:
			require.False(t, ok, "slow client's channel should be closed")
		case <-time.After(time.Second):
			t.Fatal("slow client was not dropped")
		}

		// Its readPump may still deliver a late subscribe; joining the room
		// would make the next delivery send on the closed channel.
		hub.subscribe <- subscription{client: slow, eventID: "e1"}
		hub.Broadcast(model.EventStatusUpdate{EventID: "e1", Status: model.EventStatusCompleted})

		frame := recvFrame(t, healthy)
		require.Equal(t, model.EventStatusCompleted, frame.Data.Status)
	})

	t.Run("shutdown closes every client", func(t *testing.T) {
		hub := NewHub()
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			hub.Run(ctx)
			close(done)
		}()

		client := newTestClient()
		hub.register <- client
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("hub did not stop")
		}

		_, ok := <-client.send
		require.False(t, ok)
	})
}
