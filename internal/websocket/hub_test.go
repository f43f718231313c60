package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/player-progress/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(hub *Hub) *Client {
	return &Client{
		id:     "test-client",
		hub:    hub,
		send:   make(chan []byte, 4),
		logger: hub.logger,
	}
}

func TestHubBroadcastsRecords(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()
	defer hub.Stop()

	client := newTestClient(hub)
	hub.register <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastRecord(3, domain.RankingEntry{PlayerName: "ana", BestTime: 9.5})

	select {
	case data := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageTypeRecordUpdate, msg.Type)
		require.NotNil(t, msg.Level)
		assert.Equal(t, 3, *msg.Level)
		entry := msg.Data.(map[string]interface{})
		assert.Equal(t, "ana", entry["playerName"])
		assert.Equal(t, 9.5, entry["bestTime"])
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}

	hub.unregister <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

// A read pump winding down after the hub has stopped must not hang on
// the unregister channel nobody drains anymore.
func TestDropAfterStopReturns(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		hub.drop(newTestClient(hub))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drop blocked after hub stop")
	}
}
