package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/config"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/dataset"
	apperrors "github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/errors"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/exporter"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/infrastructure"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/kpi"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/events"
)

// Load cycle triggers, used as a metric label.
const (
	TriggerStartup = "startup"
	TriggerReload  = "reload"
)

// RecordSource produces the metric records a load cycle consumes.
type RecordSource interface {
	Load(ctx context.Context) ([]domain.MetricRecord, error)
	Source() string
}

// SourceFactory builds a record source for an overridden path, so an
// explicit reload can point the dashboard at a different file without a
// restart.
type SourceFactory func(path string) RecordSource

// Broadcaster pushes snapshot lifecycle events to connected clients.
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// DashboardService runs the load pipeline and answers view queries
// against the current snapshot.
type DashboardService struct {
	// mu serializes load cycles and guards source. Queries never take
	// it; they read whatever snapshot the store currently holds.
	mu        sync.Mutex
	source    RecordSource
	newSource SourceFactory

	store   *dataset.Store
	builder *kpi.Builder
	pins    map[domain.Function]string
	hub     Broadcaster
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewDashboardService creates a dashboard service. The hub and metrics
// may be nil; events and measurements are then skipped.
func NewDashboardService(source RecordSource, store *dataset.Store, kpiCfg config.KPIConfig, hub Broadcaster, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*DashboardService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	directions, err := kpiCfg.DirectionMap()
	if err != nil {
		return nil, fmt.Errorf("failed to parse KPI directions: %w", err)
	}
	pins, err := kpiCfg.OverviewPins()
	if err != nil {
		return nil, fmt.Errorf("failed to parse overview pins: %w", err)
	}

	logger.Info("DashboardService initialized",
		slog.String("source", source.Source()),
		slog.Int("directions", len(directions)))

	return &DashboardService{
		source:  source,
		store:   store,
		builder: kpi.NewBuilder(kpi.NewAggregator(directions)),
		pins:    pins,
		hub:     hub,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// SetSourceFactory installs the factory used to honor reload requests
// that override the source path.
func (s *DashboardService) SetSourceFactory(factory SourceFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newSource = factory
}

// Load runs the initial load cycle.
func (s *DashboardService) Load(ctx context.Context) (*domain.Snapshot, error) {
	return s.run(ctx, TriggerStartup, "")
}

// Reload re-runs the load cycle. A non-empty overridePath repoints the
// service at that file for this and subsequent cycles. On failure the
// previous snapshot stays in effect.
func (s *DashboardService) Reload(ctx context.Context, overridePath string) (*domain.Snapshot, error) {
	return s.run(ctx, TriggerReload, overridePath)
}

// run executes one load cycle: source, normalize, build views, swap.
// Cycles serialize on s.mu; a failed cycle never touches the store.
func (s *DashboardService) run(ctx context.Context, trigger, overridePath string) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if overridePath != "" {
		if s.newSource == nil {
			return nil, apperrors.NewConfigError("source path override is not supported by this deployment", nil)
		}
		s.source = s.newSource(overridePath)
	}

	start := time.Now()

	records, err := s.source.Load(ctx)
	if err != nil {
		return nil, s.failCycle(ctx, trigger, time.Since(start), err)
	}

	series, err := kpi.Normalize(records)
	if err != nil {
		return nil, s.failCycle(ctx, trigger, time.Since(start), err)
	}

	views, err := s.builder.BuildViews(series)
	if err != nil {
		return nil, s.failCycle(ctx, trigger, time.Since(start), err)
	}

	snapshot := &domain.Snapshot{
		ID:          uuid.New().String(),
		Source:      s.source.Source(),
		LoadedAt:    time.Now().UTC(),
		RecordCount: len(records),
		Functions:   views,
	}
	s.store.Swap(snapshot)

	duration := time.Since(start)
	infrastructure.RecordLoadMetrics(ctx, s.metrics, snapshot.Source, trigger, duration, snapshot.RecordCount, nil)

	s.logger.InfoContext(ctx, "snapshot loaded",
		slog.String("snapshot_id", snapshot.ID),
		slog.String("source", snapshot.Source),
		slog.String("trigger", trigger),
		slog.Int("records", snapshot.RecordCount),
		slog.Int("entries", snapshot.EntryCount()),
		slog.Duration("duration", duration))

	if s.hub != nil {
		s.hub.Broadcast(string(events.MessageTypeSnapshotLoaded), events.SnapshotLoaded{
			SnapshotID:  snapshot.ID,
			Source:      snapshot.Source,
			RecordCount: snapshot.RecordCount,
			EntryCount:  snapshot.EntryCount(),
			LoadedAt:    snapshot.LoadedAt,
		})
	}

	return snapshot, nil
}

// failCycle records and announces a failed load cycle and returns the
// error unchanged for the caller to surface.
func (s *DashboardService) failCycle(ctx context.Context, trigger string, duration time.Duration, err error) error {
	infrastructure.RecordLoadMetrics(ctx, s.metrics, s.source.Source(), trigger, duration, 0, err)

	s.logger.ErrorContext(ctx, "load cycle failed",
		slog.String("source", s.source.Source()),
		slog.String("trigger", trigger),
		slog.String("error", err.Error()))

	if s.hub != nil {
		failed := events.ReloadFailed{Code: "INTERNAL_ERROR", Message: err.Error()}

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			failed.Code = string(appErr.Type)
			failed.Message = appErr.Message
			failed.Key = appErr.Key()
		}

		s.hub.Broadcast(string(events.MessageTypeReloadFailed), failed)
	}

	return err
}

// Dashboard returns the current snapshot.
func (s *DashboardService) Dashboard(ctx context.Context) (*domain.Snapshot, error) {
	snapshot := s.store.Current()
	if snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return snapshot, nil
}

// Functions returns the functions present in the current snapshot, in
// presentation order.
func (s *DashboardService) Functions(ctx context.Context) ([]domain.Function, error) {
	snapshot := s.store.Current()
	if snapshot == nil {
		return nil, ErrNoSnapshot
	}

	functions := make([]domain.Function, 0, len(snapshot.Functions))
	for _, view := range snapshot.Functions {
		functions = append(functions, view.Function)
	}
	return functions, nil
}

// FunctionView returns the view for one function.
func (s *DashboardService) FunctionView(ctx context.Context, f domain.Function) (domain.FunctionView, error) {
	snapshot := s.store.Current()
	if snapshot == nil {
		return domain.FunctionView{}, ErrNoSnapshot
	}

	view, ok := snapshot.FunctionView(f)
	if !ok {
		return domain.FunctionView{}, ErrFunctionNotFound
	}
	return view, nil
}

// Overview returns the pinned headline KPI per function. Pins absent
// from the snapshot are skipped with a warning; the overview is
// best-effort presentation, not validation.
func (s *DashboardService) Overview(ctx context.Context) ([]domain.OverviewEntry, error) {
	snapshot := s.store.Current()
	if snapshot == nil {
		return nil, ErrNoSnapshot
	}

	for _, f := range domain.FunctionOrder() {
		pin, ok := s.pins[f]
		if !ok {
			continue
		}
		if _, ok := snapshot.Entry(f, pin); !ok {
			s.logger.WarnContext(ctx, "pinned KPI missing from snapshot",
				slog.String("function", string(f)),
				slog.String("kpi", pin))
		}
	}

	return kpi.BuildOverview(snapshot.Functions, s.pins), nil
}

// Chart returns the chart series for one KPI of one function.
func (s *DashboardService) Chart(ctx context.Context, f domain.Function, kpiName string) (domain.ChartSeries, error) {
	snapshot := s.store.Current()
	if snapshot == nil {
		return domain.ChartSeries{}, ErrNoSnapshot
	}

	view, ok := snapshot.FunctionView(f)
	if !ok {
		return domain.ChartSeries{}, ErrFunctionNotFound
	}
	entry, ok := view.Entry(kpiName)
	if !ok {
		return domain.ChartSeries{}, ErrKPINotFound
	}
	return entry.Chart, nil
}

// Cards returns the metric cards for one round, across every function
// or filtered to one when f is non-empty.
func (s *DashboardService) Cards(ctx context.Context, round domain.Round, f domain.Function) ([]domain.MetricCard, error) {
	snapshot := s.store.Current()
	if snapshot == nil {
		return nil, ErrNoSnapshot
	}

	views := snapshot.Functions
	if f != "" {
		view, ok := snapshot.FunctionView(f)
		if !ok {
			return nil, ErrFunctionNotFound
		}
		views = []domain.FunctionView{view}
	}

	return kpi.BuildCards(views, round), nil
}

// ExportRows returns the CSV header and rows for one function's table.
func (s *DashboardService) ExportRows(ctx context.Context, f domain.Function) ([]string, [][]string, error) {
	view, err := s.FunctionView(ctx, f)
	if err != nil {
		return nil, nil, err
	}

	headers, rows := exporter.FunctionTable(view)
	return headers, rows, nil
}
