// Package events contains the WebSocket event contracts for the TFC rounds
// dashboard. The hub broadcasts one envelope type; the payload depends on
// the message type.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message.
type MessageType string

const (
	// Dataset lifecycle messages.
	MessageTypeSnapshotLoaded MessageType = "snapshot:loaded"
	MessageTypeReloadFailed   MessageType = "snapshot:reload_failed"

	// Connection messages.
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// Envelope is the wire frame for every WebSocket message.
type Envelope struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// SnapshotLoaded announces that a load cycle completed and a new snapshot
// replaced the current one. Clients refetch their views on receipt.
type SnapshotLoaded struct {
	SnapshotID  string    `json:"snapshot_id"`
	Source      string    `json:"source"`
	RecordCount int       `json:"record_count"`
	EntryCount  int       `json:"entry_count"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// ReloadFailed announces that a reload aborted and the previous snapshot is
// still in effect. Key carries the offending (function, kpi, round) parts
// when the failure is tied to a specific record.
type ReloadFailed struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Key     map[string]string `json:"key,omitempty"`
}

// Connected is sent to a client right after registration.
type Connected struct {
	ClientID   string `json:"client_id"`
	SnapshotID string `json:"snapshot_id,omitempty"`
}
