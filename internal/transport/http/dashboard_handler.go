package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/errors"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/exporter"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/infrastructure"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/middleware"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/services"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

// DashboardHandler handles dashboard HTTP requests with RFC 7807 compliance
type DashboardHandler struct {
	service      DashboardServiceInterface
	csv          *exporter.CSVWriter
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validation   *middleware.ValidationMiddleware
	metrics      *infrastructure.BusinessMetrics
}

// NewDashboardHandler creates a new dashboard handler with RFC 7807 error handling
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		csv:          exporter.NewCSVWriter(),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		validation:   middleware.NewValidationMiddleware(logger, errorHandler),
	}
}

// SetMetrics sets the business metrics for the handler
func (h *DashboardHandler) SetMetrics(metrics *infrastructure.BusinessMetrics) {
	h.metrics = metrics
}

// Routes returns the dashboard routes with proper Chi patterns
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Use render for consistent JSON responses
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", h.GetDashboard)
		r.Get("/overview", h.GetOverview)
	})

	r.Route("/functions", func(r chi.Router) {
		r.Get("/", h.ListFunctions)
		r.Route("/{function}", func(r chi.Router) {
			r.Use(h.FunctionCtx) // Parse function into context
			r.Get("/", h.GetFunction)
			r.Get("/kpis/{kpi}/chart", h.GetChart)
		})
	})

	r.Route("/rounds/{round}", func(r chi.Router) {
		r.Use(h.RoundCtx) // Parse round into context
		r.Get("/cards", h.GetCards)
	})

	// Reload is the one mutating endpoint: audit it and validate bodies
	r.Route("/reload", func(r chi.Router) {
		r.Use(middleware.AuditLog(h.logger))
		r.Use(h.validation.ValidateRequest)
		r.Use(middleware.ContentTypeValidator("application/json"))
		r.Post("/", h.Reload)
	})

	// CSV download route
	r.Get("/export/{function}.csv", h.ExportCSV)

	return r
}

type functionCtxKey struct{}
type roundCtxKey struct{}

// FunctionCtx middleware parses and validates the {function} URL parameter
func (h *DashboardHandler) FunctionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		label := chi.URLParam(r, "function")
		function, ok := domain.ParseFunction(label)
		if !ok {
			h.errorHandler.HandleError(w, r, apierrors.FunctionNotFoundError(label))
			return
		}

		ctx := context.WithValue(r.Context(), functionCtxKey{}, function)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RoundCtx middleware parses and validates the {round} URL parameter
func (h *DashboardHandler) RoundCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		label := chi.URLParam(r, "round")
		round, ok := domain.ParseRound(label)
		if !ok {
			h.errorHandler.HandleError(w, r, apierrors.RoundNotFoundError(label))
			return
		}

		ctx := context.WithValue(r.Context(), roundCtxKey{}, round)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func functionFrom(ctx context.Context) domain.Function {
	function, _ := ctx.Value(functionCtxKey{}).(domain.Function)
	return function
}

func roundFrom(ctx context.Context) domain.Round {
	round, _ := ctx.Value(roundCtxKey{}).(domain.Round)
	return round
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	h.logger.DebugContext(ctx, "fetching dashboard", slog.String("request_id", reqID))

	snapshot, err := h.service.Dashboard(ctx)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   snapshot,
		"count":  len(snapshot.Functions),
	})
}

// GetOverview handles GET /api/dashboard/overview
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	h.logger.DebugContext(ctx, "fetching overview", slog.String("request_id", reqID))

	entries, err := h.service.Overview(ctx)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   entries,
		"count":  len(entries),
	})
}

// ListFunctions handles GET /api/functions
func (h *DashboardHandler) ListFunctions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	functions, err := h.service.Functions(ctx)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   functions,
		"count":  len(functions),
	})
}

// GetFunction handles GET /api/functions/{function}
func (h *DashboardHandler) GetFunction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	function := functionFrom(ctx)

	h.logger.DebugContext(ctx, "fetching function view",
		slog.String("request_id", reqID),
		slog.String("function", function.String()))

	view, err := h.service.FunctionView(ctx, function)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
		"count":  len(view.Entries),
	})
}

// GetChart handles GET /api/functions/{function}/kpis/{kpi}/chart
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	function := functionFrom(ctx)

	// KPI names carry spaces and percent signs; chi hands the raw segment
	// through when the client escapes more than the minimum.
	kpiName := chi.URLParam(r, "kpi")
	if unescaped, err := url.PathUnescape(kpiName); err == nil {
		kpiName = unescaped
	}

	h.logger.DebugContext(ctx, "fetching chart",
		slog.String("request_id", reqID),
		slog.String("function", function.String()),
		slog.String("kpi", kpiName))

	chart, err := h.service.Chart(ctx, function, kpiName)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   chart,
		"count":  len(chart.Points),
	})
}

// GetCards handles GET /api/rounds/{round}/cards
func (h *DashboardHandler) GetCards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	round := roundFrom(ctx)

	var function domain.Function
	if label := r.URL.Query().Get("function"); label != "" {
		parsed, ok := domain.ParseFunction(label)
		if !ok {
			h.errorHandler.HandleError(w, r, apierrors.FunctionNotFoundError(label))
			return
		}
		function = parsed
	}

	h.logger.DebugContext(ctx, "fetching round cards",
		slog.String("request_id", reqID),
		slog.String("round", round.String()),
		slog.String("function", function.String()))

	cards, err := h.service.Cards(ctx, round, function)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   cards,
		"count":  len(cards),
	})
}

// ReloadRequest is the optional body of POST /api/reload. An empty body
// re-runs the load cycle against the configured source.
type ReloadRequest struct {
	SourcePath string `json:"source_path" validate:"omitempty,filepath_safe,max=255"`
}

// Reload handles POST /api/reload
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	data := &ReloadRequest{}
	if r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, data); err != nil {
			h.logger.WarnContext(ctx, "failed to decode reload request",
				slog.String("request_id", reqID),
				slog.String("error", err.Error()))
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
		if err := h.validation.ValidateStruct(data); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
	}

	h.logger.InfoContext(ctx, "reload requested",
		slog.String("request_id", reqID),
		slog.String("trace_id", infrastructure.TraceIDFromContext(ctx)),
		slog.String("source_path", data.SourcePath))

	snapshot, err := h.service.Reload(ctx, data.SourcePath)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "reload completed",
		slog.String("request_id", reqID),
		slog.String("snapshot_id", snapshot.ID),
		slog.Int("records", snapshot.RecordCount))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"snapshot_id":  snapshot.ID,
			"source":       snapshot.Source,
			"record_count": snapshot.RecordCount,
			"entry_count":  snapshot.EntryCount(),
			"loaded_at":    snapshot.LoadedAt,
		},
	})
}

// ExportCSV handles GET /api/export/{function}.csv
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	label := chi.URLParam(r, "function")

	function, ok := domain.ParseFunction(label)
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.FunctionNotFoundError(label))
		return
	}

	h.logger.InfoContext(ctx, "exporting function table",
		slog.String("request_id", reqID),
		slog.String("function", function.String()))

	headers, rows, err := h.service.ExportRows(ctx, function)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.FileName(function)))

	if err := h.csv.Write(w, exporter.WriteOptions{Headers: headers, Records: rows, BOMPrefix: true}); err != nil {
		h.logger.ErrorContext(ctx, "failed to stream csv export",
			slog.String("request_id", reqID),
			slog.String("function", function.String()),
			slog.String("error", err.Error()))

		// Only handle error if response not yet written
		if !isResponseWritten(w) {
			h.errorHandler.HandleError(w, r, err)
		}
		return
	}

	infrastructure.RecordExport(ctx, h.metrics, function.String(), "http")
}

// handleServiceError maps service sentinels onto API errors; pipeline
// errors and anything unrecognized go straight to the RFC 7807 handler.
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoSnapshot):
		h.errorHandler.HandleError(w, r, apierrors.ErrSnapshotUnavailable)

	case errors.Is(err, services.ErrFunctionNotFound):
		label := chi.URLParam(r, "function")
		if label == "" {
			label = r.URL.Query().Get("function")
		}
		h.errorHandler.HandleError(w, r, apierrors.FunctionNotFoundError(label))

	case errors.Is(err, services.ErrKPINotFound):
		h.errorHandler.HandleError(w, r, apierrors.KPINotFoundError(
			chi.URLParam(r, "function"), chi.URLParam(r, "kpi")))

	case errors.Is(err, services.ErrRoundNotFound):
		h.errorHandler.HandleError(w, r, apierrors.RoundNotFoundError(chi.URLParam(r, "round")))

	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

func isResponseWritten(w http.ResponseWriter) bool {
	// Check if writer is a wrapped response writer with status
	if ww, ok := w.(interface{ Status() int }); ok {
		return ww.Status() != 0
	}
	return false
}
