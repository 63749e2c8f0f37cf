package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/config"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/dataset"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/errors"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/infrastructure"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/loader"
	customMiddleware "github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/middleware"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/services"
	handlers "github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/transport/http"
	ws "github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
)

const (
	Version = "1.2.0"
	AppName = "TFC Rounds Dashboard"
)

var (
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(Version))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Hub              *ws.Hub
	Store            *dataset.Store
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	BusinessMetrics  *infrastructure.BusinessMetrics
	WebFS            fs.FS // Embedded dashboard page and assets
}

// NewApplication creates a new application instance with dependency injection
func NewApplication(webFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("source", cfg.SourcePath()))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Observability), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	businessMetrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:          cfg,
		Logger:          logger,
		OTelProviders:   otelProviders,
		BusinessMetrics: businessMetrics,
		WebFS:           webFS,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	// WebSocket hub first so the dashboard service can broadcast load events
	hub := ws.NewHub(a.Logger, a.BusinessMetrics)
	a.Hub = hub

	store := dataset.NewStore()
	a.Store = store

	hub.SetSnapshotIDProvider(func() string {
		if snapshot := store.Current(); snapshot != nil {
			return snapshot.ID
		}
		return ""
	})
	hub.Start()

	source := loader.New(a.Config.Source, a.Logger)

	dashboardService, err := services.NewDashboardService(source, store, a.Config.KPI, hub, a.BusinessMetrics, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dashboard service: %w", err)
	}

	// Reload requests may override the source path; build a fresh loader
	// against the same format and layout settings.
	dashboardService.SetSourceFactory(func(path string) services.RecordSource {
		sourceCfg := a.Config.Source
		sourceCfg.Path = path
		return loader.New(sourceCfg, a.Logger)
	})
	a.DashboardService = dashboardService

	a.HealthService = services.NewHealthServiceWithBuildInfo(
		Version,
		BuildTime,
		BuildID,
		store,
		hub,
		a.Logger,
	)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that won't interfere with WebSocket upgrades;
	// these do not wrap the ResponseWriter
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// WebSocket route with minimal middleware and tracing.
	// Must be registered after minimal middleware but before the group.
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).HandleFunc("/ws", a.handleWebSocket)

	// Static assets outside the middleware group
	if a.WebFS != nil {
		a.setupStaticAssets(r)
	}

	// Everything else gets the full middleware stack
	r.Group(func(r chi.Router) {
		otelMiddleware := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.BusinessMetrics)
		r.Use(otelMiddleware.Handler)

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.getCORSConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
		a.setupPageRoutes(r)
	})

	// Prometheus metrics endpoint outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		// Health handler
		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/health/snapshot", healthHandler.Snapshot)
		r.Get("/version", healthHandler.Version)

		errorHandler := errors.NewErrorHandler(a.Logger, false)

		// Dashboard handler owns the remaining /api surface
		dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, a.Logger, errorHandler)
		dashboardHandler.SetMetrics(a.BusinessMetrics)
		r.Mount("/", dashboardHandler.Routes())
	})
}

// setupStaticAssets serves the embedded assets without the API middleware
func (a *Application) setupStaticAssets(r chi.Router) {
	r.Route("/static", func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Handle("/*", handlers.ServeStaticAssets(a.WebFS, a.Logger))
	})
}

// setupPageRoutes configures the dashboard page route
func (a *Application) setupPageRoutes(r chi.Router) {
	if a.WebFS == nil {
		a.Logger.Warn("Web filesystem not available, dashboard page disabled")
		return
	}
	r.Get("/", handlers.ServeIndexPage(a.WebFS, a.Logger))
}

// getCORSConfig returns CORS configuration based on environment
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	corsConfig := customMiddleware.CORSConfig{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}

	corsConfig.AllowedOrigins = []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}

	if a.isDevelopmentMode() {
		// Allow a frontend dev server next to the Go server
		corsConfig.AllowedOrigins = append(corsConfig.AllowedOrigins,
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		)
	}

	if a.Config.Security.EnableCORS && len(a.Config.Security.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = append(corsConfig.AllowedOrigins, a.Config.Security.AllowedOrigins...)
	}

	return corsConfig
}

// isDevelopmentMode detects if we're running in development mode
func (a *Application) isDevelopmentMode() bool {
	if a.Config.Logging.Development {
		return true
	}
	return os.Getenv("GO_ENV") == "development"
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start performs the startup load cycle and starts the HTTP server. A
// pipeline error in the startup load is returned to the caller; serving a
// dashboard without a snapshot is not useful.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.String("source", a.Config.SourcePath()))

	snapshot, err := a.DashboardService.Load(ctx)
	if err != nil {
		return fmt.Errorf("startup load failed: %w", err)
	}

	a.Logger.InfoContext(ctx, "Startup snapshot loaded",
		slog.String("snapshot_id", snapshot.ID),
		slog.Int("records", snapshot.RecordCount),
		slog.Int("entries", snapshot.EntryCount()))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	// Open the browser once the server answers health checks
	go a.openBrowserWhenReady(ctx)

	return nil
}

// openBrowserWhenReady polls the liveness endpoint and opens the default
// browser once the server responds.
func (a *Application) openBrowserWhenReady(ctx context.Context) {
	url := fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)
	healthURL := fmt.Sprintf("%s/api/health/live", url)

	const maxRetries = 10
	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		resp, err := http.Get(healthURL)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()

			if err := openBrowser(url); err != nil {
				a.Logger.Warn("Failed to open browser",
					slog.String("error", err.Error()),
					slog.String("url", url))
				fmt.Printf("\n%s is running. Open your browser at:\n  %s\n\n", AppName, url)
			}
			return
		}
		if resp != nil {
			resp.Body.Close()
		}

		time.Sleep(500 * time.Millisecond)
	}

	a.Logger.Warn("Server did not become ready for browser opening",
		slog.String("url", url))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Hub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Context cancelled")
	}

	return a.Stop(context.Background())
}

// handleWebSocket handles WebSocket connections
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = fmt.Sprintf("ws-%d", time.Now().UnixNano())
	}

	ctx := infrastructure.WithTraceID(r.Context(), reqID)
	a.Logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")),
		slog.String("host", r.Host))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// No origin means a local file or same-origin request
			if origin == "" {
				return true
			}

			if a.isDevelopmentMode() {
				return true
			}

			for _, allowed := range a.getCORSConfig().AllowedOrigins {
				if origin == allowed {
					return true
				}
			}

			a.Logger.WarnContext(ctx, "WebSocket origin not allowed",
				slog.String("origin", origin))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			a.Logger.ErrorContext(ctx, "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()))
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	client := ws.NewClientWithTrace(a.Hub, conn, reqID, a.Logger)
	a.Hub.Register(client)

	a.Logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", reqID))

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				a.Logger.ErrorContext(ctx, "WebSocket write pump panic",
					slog.Any("panic", rec),
					slog.String("request_id", reqID))
			}
		}()
		client.WritePump()
	}()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				a.Logger.ErrorContext(ctx, "WebSocket read pump panic",
					slog.Any("panic", rec),
					slog.String("request_id", reqID))
			}
		}()
		client.ReadPump()
	}()
}

// openBrowser opens the default browser to the specified URL
func openBrowser(url string) error {
	var methods []browserMethod
	switch runtime.GOOS {
	case "windows":
		methods = []browserMethod{
			{name: "start_command", cmd: "cmd", args: []string{"/c", "start", "", url}},
			{name: "rundll32", cmd: "rundll32", args: []string{"url.dll,FileProtocolHandler", url}},
		}
	case "darwin":
		methods = []browserMethod{
			{name: "open", cmd: "open", args: []string{url}},
		}
	default:
		methods = []browserMethod{
			{name: "xdg-open", cmd: "xdg-open", args: []string{url}},
			{name: "sensible-browser", cmd: "sensible-browser", args: []string{url}},
		}
	}

	var lastErr error
	for _, method := range methods {
		cmd := exec.Command(method.cmd, method.args...)
		if err := cmd.Start(); err != nil {
			lastErr = err
			continue
		}
		slog.Debug("Browser opened", slog.String("method", method.name), slog.String("url", url))
		return nil
	}

	return fmt.Errorf("failed to open browser: %w", lastErr)
}

// browserMethod represents a method to open the browser
type browserMethod struct {
	name string
	cmd  string
	args []string
}
