package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/infrastructure"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/events"
)

// Hub maintains the set of active clients and broadcasts snapshot
// lifecycle events to them. Queries go through HTTP; the hub only pushes
// notifications that tell clients when to refetch.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Marshaled envelopes waiting for fan-out
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger instance
	logger *slog.Logger

	// Business metrics, nil when telemetry is disabled
	metrics *infrastructure.BusinessMetrics

	// snapshotID reports the current snapshot so freshly connected
	// clients know whether data is already available
	snapshotID func() string

	// Counters
	totalConnections int64
	messagesSent     int64

	// Control
	quit        chan struct{}
	running     bool
	metricsQuit chan struct{}
}

// NewHub creates a new Hub instance with dependency injection.
func NewHub(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	return &Hub{
		broadcast:   make(chan []byte),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		logger:      logger,
		metrics:     metrics,
		quit:        make(chan struct{}),
		metricsQuit: make(chan struct{}),
	}
}

// SetSnapshotIDProvider wires the function used to stamp the current
// snapshot ID onto connect messages. Must be called before Start.
func (h *Hub) SetSnapshotIDProvider(provider func() string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshotID = provider
}

// Start starts the hub's goroutines.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
	go h.reportMetrics()
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			provider := h.snapshotID
			h.mu.Unlock()

			ctx := context.Background()
			if client.traceID != "" {
				ctx = infrastructure.WithTraceID(ctx, client.traceID)
			}

			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			infrastructure.RecordActiveClientChange(ctx, h.metrics, 1)

			// Greet the new client so it knows its ID and whether a
			// snapshot is already loaded.
			connected := events.Connected{ClientID: client.id}
			if provider != nil {
				connected.SnapshotID = provider()
			}
			envelope := newEnvelope(events.MessageTypeConnect, connected, client.traceID)

			jsonData, err := json.Marshal(envelope)
			if err == nil {
				select {
				case client.send <- jsonData:
					h.logger.DebugContext(ctx, "Sent connect message to client",
						slog.String("client_id", client.id))
				default:
					h.logger.WarnContext(ctx, "Failed to send connect message - client buffer full",
						slog.String("client_id", client.id))
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				ctx := context.Background()
				if client.traceID != "" {
					ctx = infrastructure.WithTraceID(ctx, client.traceID)
				}

				h.logger.InfoContext(ctx, "Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))

				infrastructure.RecordActiveClientChange(ctx, h.metrics, -1)
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			// Copy the client set so the lock is not held while sending
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			h.logger.Debug("Broadcasting message to clients",
				slog.Int("client_count", len(clients)),
				slog.Int("message_size", len(message)))

			successCount := 0
			failCount := 0

			for _, client := range clients {
				select {
				case client.send <- message:
					successCount++
				default:
					failCount++
					// Client's send channel is full, drop the client
					h.mu.Lock()
					close(client.send)
					delete(h.clients, client)
					h.mu.Unlock()

					ctx := context.Background()
					if client.traceID != "" {
						ctx = infrastructure.WithTraceID(ctx, client.traceID)
					}
					h.logger.WarnContext(ctx, "Client send buffer full, disconnecting",
						slog.String("client_id", client.id))

					infrastructure.RecordActiveClientChange(ctx, h.metrics, -1)
				}
			}

			h.mu.Lock()
			h.messagesSent += int64(successCount)
			h.mu.Unlock()

			if h.metrics != nil && successCount > 0 {
				h.metrics.WSMessagesSent.Add(context.Background(), int64(successCount))
			}

			if failCount > 0 {
				h.logger.Warn("Some clients failed to receive broadcast",
					slog.Int("success_count", successCount),
					slog.Int("fail_count", failCount))
			}
		}
	}
}

// Broadcast wraps data in an event envelope and queues it for every
// connected client. It implements the Broadcaster interface used by the
// dashboard service.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	h.BroadcastWithTrace(messageType, data, "")
}

// BroadcastWithTrace is Broadcast with a trace ID stamped on the envelope
// so clients can correlate a push with the server-side load cycle.
func (h *Hub) BroadcastWithTrace(messageType string, data interface{}, traceID string) {
	envelope := newEnvelope(events.MessageType(messageType), data, traceID)

	jsonData, err := json.Marshal(envelope)
	if err != nil {
		ctx := context.Background()
		if traceID != "" {
			ctx = infrastructure.WithTraceID(ctx, traceID)
		}
		h.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", messageType))
		return
	}

	h.broadcast <- jsonData
}

// newEnvelope builds the wire frame shared by every outbound message.
func newEnvelope(messageType events.MessageType, data interface{}, traceID string) events.Envelope {
	return events.Envelope{
		ID:        uuid.New().String(),
		Type:      messageType,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
		Data:      data,
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop gracefully stops the hub.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	close(h.metricsQuit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// reportMetrics periodically logs hub activity.
func (h *Hub) reportMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.metricsQuit:
			h.logger.Info("Metrics reporting shutting down")
			return

		case <-ticker.C:
			h.mu.RLock()
			activeClients := len(h.clients)
			totalConnections := h.totalConnections
			messagesSent := h.messagesSent
			h.mu.RUnlock()

			h.logger.Info("WebSocket hub metrics",
				slog.Int("active_clients", activeClients),
				slog.Int64("total_connections", totalConnections),
				slog.Int64("messages_sent", messagesSent),
				slog.Int("broadcast_queue", len(h.broadcast)),
			)
		}
	}
}

// HubMetrics returns current hub counters for diagnostics.
func (h *Hub) HubMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
	}
}
