package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/dataset"
)

// ClientCounter reports how many WebSocket clients are connected.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	buildID   string
	store     *dataset.Store
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SnapshotStatus summarizes the currently served snapshot.
type SnapshotStatus struct {
	Loaded      bool      `json:"loaded"`
	SnapshotID  string    `json:"snapshot_id,omitempty"`
	Source      string    `json:"source,omitempty"`
	RecordCount int       `json:"record_count,omitempty"`
	EntryCount  int       `json:"entry_count,omitempty"`
	LoadedAt    time.Time `json:"loaded_at,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	WebSocketClients int     `json:"websocket_clients"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a new health service with injected dependencies and default logger
func NewHealthService(version string, store *dataset.Store, hub ClientCounter, logger *slog.Logger) *HealthService {
	return NewHealthServiceWithBuildInfo(version, "", "", store, hub, logger)
}

// NewHealthServiceWithBuildInfo creates a new health service with build information
func NewHealthServiceWithBuildInfo(version, buildTime, buildID string, store *dataset.Store, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		buildID:   buildID,
		store:     store,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.Debug("HealthCheck: performing health check",
		slog.String("version", hs.version),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status. The dashboard is ready once a
// snapshot is loaded; before the first successful load cycle it reports
// not_ready.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["snapshot"] = hs.checkSnapshotHealth()
	status.Services["websocket"] = hs.checkWebSocketHealth()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}

// SnapshotStatus returns information about the current snapshot.
func (hs *HealthService) SnapshotStatus(ctx context.Context) SnapshotStatus {
	snapshot := hs.store.Current()
	if snapshot == nil {
		return SnapshotStatus{Loaded: false}
	}

	return SnapshotStatus{
		Loaded:      true,
		SnapshotID:  snapshot.ID,
		Source:      snapshot.Source,
		RecordCount: snapshot.RecordCount,
		EntryCount:  snapshot.EntryCount(),
		LoadedAt:    snapshot.LoadedAt,
	}
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	clients := 0
	if hs.hub != nil {
		clients = hs.hub.ClientCount()
	}

	return SystemStats{
		UptimeSeconds:    time.Since(hs.startTime).Seconds(),
		WebSocketClients: clients,
		GoVersion:        runtime.Version(),
		OS:               runtime.GOOS,
		Arch:             runtime.GOARCH,
	}
}

// checkSnapshotHealth checks whether a snapshot has been loaded
func (hs *HealthService) checkSnapshotHealth() ServiceHealth {
	snapshot := hs.store.Current()
	if snapshot == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "no snapshot loaded yet",
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("snapshot %s with %d records", snapshot.ID, snapshot.RecordCount),
	}
}

// checkWebSocketHealth checks WebSocket service health
func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "websocket hub not initialized",
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"snapshot":  hs.SnapshotStatus(ctx),
		"stats":     hs.SystemStats(ctx),
	}
}
