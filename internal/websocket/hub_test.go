package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/shared/testutil"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/events"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func registerTestClient(t *testing.T, hub *Hub) (*Client, *MockConnection) {
	t.Helper()

	before := hub.ClientCount()
	conn := NewMockConnection()
	logger, _ := testutil.NewTestLogger(t)
	client := NewClientWithConnection(hub, conn, logger)
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.ClientCount() == before+1
	}, time.Second, 10*time.Millisecond, "client was not registered")
	return client, conn
}

func receiveEnvelope(t *testing.T, client *Client) events.Envelope {
	t.Helper()

	select {
	case data := <-client.send:
		var envelope events.Envelope
		require.NoError(t, json.Unmarshal(data, &envelope))
		return envelope
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a message")
		return events.Envelope{}
	}
}

func TestNewHub(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)

	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubRegisterSendsConnect(t *testing.T) {
	hub := newTestHub(t)
	client, _ := registerTestClient(t, hub)

	envelope := receiveEnvelope(t, client)

	assert.Equal(t, events.MessageTypeConnect, envelope.Type)
	_, err := uuid.Parse(envelope.ID)
	assert.NoError(t, err, "envelope ID should be a UUID")
	assert.WithinDuration(t, time.Now().UTC(), envelope.Timestamp, 5*time.Second)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok, "connect payload should be an object")
	assert.Equal(t, client.ID(), data["client_id"])
	_, hasSnapshot := data["snapshot_id"]
	assert.False(t, hasSnapshot, "no snapshot provider wired, field should be omitted")
}

func TestHubConnectCarriesSnapshotID(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	hub.SetSnapshotIDProvider(func() string { return "snap-42" })
	hub.Start()
	t.Cleanup(hub.Stop)

	client, _ := registerTestClient(t, hub)
	envelope := receiveEnvelope(t, client)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "snap-42", data["snapshot_id"])
}

func TestHubBroadcastWrapsEnvelope(t *testing.T) {
	hub := newTestHub(t)
	client, _ := registerTestClient(t, hub)
	receiveEnvelope(t, client) // drain the connect message

	loadedAt := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	hub.Broadcast(string(events.MessageTypeSnapshotLoaded), events.SnapshotLoaded{
		SnapshotID:  "snap-1",
		Source:      "data/metrics.xlsx",
		RecordCount: 24,
		EntryCount:  8,
		LoadedAt:    loadedAt,
	})

	envelope := receiveEnvelope(t, client)
	assert.Equal(t, events.MessageTypeSnapshotLoaded, envelope.Type)
	assert.NotEmpty(t, envelope.ID)
	assert.Empty(t, envelope.TraceID)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "snap-1", data["snapshot_id"])
	assert.Equal(t, "data/metrics.xlsx", data["source"])
	assert.Equal(t, float64(24), data["record_count"])
	assert.Equal(t, float64(8), data["entry_count"])
}

func TestHubBroadcastWithTrace(t *testing.T) {
	hub := newTestHub(t)
	client, _ := registerTestClient(t, hub)
	receiveEnvelope(t, client)

	hub.BroadcastWithTrace(string(events.MessageTypeReloadFailed), events.ReloadFailed{
		Code:    "SCHEMA_MISMATCH",
		Message: "non-numeric value",
		Key:     map[string]string{"sheet": "Metrics", "row": "3"},
	}, "trace-123")

	envelope := receiveEnvelope(t, client)
	assert.Equal(t, events.MessageTypeReloadFailed, envelope.Type)
	assert.Equal(t, "trace-123", envelope.TraceID)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "SCHEMA_MISMATCH", data["code"])
	key, ok := data["key"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Metrics", key["sheet"])
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := newTestHub(t)
	first, _ := registerTestClient(t, hub)
	second, _ := registerTestClient(t, hub)
	receiveEnvelope(t, first)
	receiveEnvelope(t, second)

	hub.Broadcast(string(events.MessageTypeSnapshotLoaded), events.SnapshotLoaded{SnapshotID: "snap-2"})

	firstEnvelope := receiveEnvelope(t, first)
	secondEnvelope := receiveEnvelope(t, second)
	assert.Equal(t, firstEnvelope.ID, secondEnvelope.ID, "both clients should see the same envelope")
}

func TestHubBroadcastDisconnectsSlowClient(t *testing.T) {
	hub := newTestHub(t)
	client, _ := registerTestClient(t, hub)
	receiveEnvelope(t, client)

	// Nothing drains the send channel, so filling it simulates a stalled
	// client.
	for i := 0; i < cap(client.send); i++ {
		client.send <- []byte("backlog")
	}

	hub.Broadcast(string(events.MessageTypeSnapshotLoaded), events.SnapshotLoaded{SnapshotID: "snap-3"})

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond, "stalled client should be dropped")
}

func TestHubStopClosesClients(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	hub.Start()

	client, _ := registerTestClient(t, hub)
	receiveEnvelope(t, client)

	hub.Stop()

	assert.Equal(t, 0, hub.ClientCount())
	_, open := <-client.send
	assert.False(t, open, "client send channel should be closed")

	// Stop is idempotent
	hub.Stop()
}

func TestHubStartIdempotent(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	hub.Start()
	hub.Start()
	hub.Stop()
}

func TestHubUnregister(t *testing.T) {
	hub := newTestHub(t)
	client, _ := registerTestClient(t, hub)
	receiveEnvelope(t, client)

	hub.unregister <- client

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)

	metrics := hub.HubMetrics()
	assert.Equal(t, 0, metrics["active_clients"])
	assert.Equal(t, int64(1), metrics["total_connections"])
}
