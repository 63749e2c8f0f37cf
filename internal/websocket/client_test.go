package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/shared/testutil"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/events"
)

func TestNewClientWithConnection(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	conn := NewMockConnection()

	client := NewClientWithConnection(hub, conn, logger)

	_, err := uuid.Parse(client.ID())
	assert.NoError(t, err, "client ID should be a UUID")
	assert.Equal(t, "127.0.0.1:8080", client.remoteAddr)
	assert.Equal(t, 256, cap(client.send))
	assert.WithinDuration(t, time.Now(), client.connectedAt, 5*time.Second)
}

func TestClientReadPumpUnregistersOnError(t *testing.T) {
	hub := newTestHub(t)
	client, conn := registerTestClient(t, hub)
	receiveEnvelope(t, client)

	// The mock has no queued messages, so the first read fails and the
	// pump shuts down.
	go client.ReadPump()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0 && conn.IsClosed()
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, int64(maxMessageSize), conn.ReadLimit)
	assert.NotNil(t, conn.PongHandler)
}

func TestClientReadPumpHeartbeat(t *testing.T) {
	hub := newTestHub(t)
	client, conn := registerTestClient(t, hub)
	receiveEnvelope(t, client)

	conn.AddReadMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`), nil)

	go client.ReadPump()

	require.Eventually(t, func() bool {
		return conn.IsClosed()
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, int64(1), client.messagesReceived)
}

func TestClientWritePumpWritesTextFrames(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	conn := NewMockConnection()
	client := NewClientWithConnection(hub, conn, logger)

	go client.WritePump()

	client.send <- []byte(`{"type":"snapshot:loaded"}`)

	require.Eventually(t, func() bool {
		return len(conn.GetWrittenMessages()) == 1
	}, time.Second, 10*time.Millisecond)

	written := conn.GetWrittenMessages()
	assert.Equal(t, websocket.TextMessage, written[0].Type)
	assert.Equal(t, `{"type":"snapshot:loaded"}`, string(written[0].Data))

	// Closing the channel makes the pump send a close frame and stop.
	close(client.send)

	require.Eventually(t, func() bool {
		messages := conn.GetWrittenMessages()
		return len(messages) == 2 && messages[1].Type == websocket.CloseMessage
	}, time.Second, 10*time.Millisecond)
}

func TestClientWritePumpStopsOnWriteError(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	conn := NewMockConnection()
	conn.WriteMessageFunc = func(int, []byte) error {
		return errors.New("broken pipe")
	}
	client := NewClientWithConnection(hub, conn, logger)

	go client.WritePump()

	client.send <- []byte("payload")

	require.Eventually(t, func() bool {
		return conn.IsClosed()
	}, time.Second, 10*time.Millisecond)
}

func TestServeWSEndToEnd(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	hub.SetSnapshotIDProvider(func() string { return "snap-9" })
	hub.Start()
	t.Cleanup(hub.Stop)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ServeWS(hub, conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope events.Envelope
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, events.MessageTypeConnect, envelope.Type)

	payload, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "snap-9", payload["snapshot_id"])

	hub.Broadcast(string(events.MessageTypeSnapshotLoaded), events.SnapshotLoaded{SnapshotID: "snap-10"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, events.MessageTypeSnapshotLoaded, envelope.Type)
}
