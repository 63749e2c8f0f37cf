package app

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/infrastructure"
)

// createMockWebFS creates a mock filesystem for the embedded dashboard page
func createMockWebFS() fs.FS {
	return fstest.MapFS{
		"static/index.html": &fstest.MapFile{
			Data: []byte(`<!DOCTYPE html><html><head><title>TFC Rounds Dashboard</title></head><body>Dashboard</body></html>`),
		},
		"static/app.js": &fstest.MapFile{
			Data: []byte(`console.log('dashboard');`),
		},
		"static/app.css": &fstest.MapFile{
			Data: []byte(`body { margin: 0; }`),
		},
	}
}

// writeMetricsCSV writes a minimal valid long-layout source file. Targets
// stay blank so no direction configuration is required.
func writeMetricsCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.csv")
	content := "Function,KPI,Round,Value,Target\n" +
		"Sales,ROI (%),R1,8.1,\n" +
		"Sales,ROI (%),R2,12.4,\n" +
		"SupplyChain,Availability components (%),R1,95.2,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// setupTestEnvironment sets up a clean test environment
func setupTestEnvironment(t *testing.T) func() {
	t.Helper()
	infrastructure.ResetLoggerForTesting()

	os.Setenv("TFC_SERVER_PORT", "8099")
	os.Setenv("TFC_LOGGING_LEVEL", "error")
	os.Setenv("TFC_SOURCE_FORMAT", "csv")
	os.Setenv("TFC_SOURCE_PATH", writeMetricsCSV(t))

	return func() {
		os.Unsetenv("TFC_SERVER_PORT")
		os.Unsetenv("TFC_LOGGING_LEVEL")
		os.Unsetenv("TFC_SOURCE_FORMAT")
		os.Unsetenv("TFC_SOURCE_PATH")
		infrastructure.ResetLoggerForTesting()
	}
}

func TestNewApplication(t *testing.T) {
	tests := []struct {
		name          string
		webFS         fs.FS
		setupEnv      func()
		wantErr       bool
		errorContains string
	}{
		{
			name:  "successful initialization with web filesystem",
			webFS: createMockWebFS(),
		},
		{
			name:  "successful initialization without web filesystem",
			webFS: nil,
		},
		{
			name:  "initialization with invalid config",
			webFS: createMockWebFS(),
			setupEnv: func() {
				os.Setenv("TFC_SERVER_PORT", "-1")
			},
			wantErr:       true,
			errorContains: "config validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestEnvironment(t)
			defer cleanup()

			if tt.setupEnv != nil {
				tt.setupEnv()
			}

			application, err := NewApplication(tt.webFS)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				assert.Nil(t, application)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, application)
			defer application.Hub.Stop()

			assert.NotNil(t, application.Config)
			assert.NotNil(t, application.Logger)
			assert.NotNil(t, application.Router)
			assert.NotNil(t, application.Server)
			assert.NotNil(t, application.Hub)
			assert.NotNil(t, application.Store)
			assert.NotNil(t, application.DashboardService)
			assert.NotNil(t, application.HealthService)
			assert.NotNil(t, application.OTelProviders)
			assert.NotNil(t, application.BusinessMetrics)
			assert.Equal(t, tt.webFS, application.WebFS)
		})
	}
}

func TestApplication_setupRouter(t *testing.T) {
	cleanup := setupTestEnvironment(t)
	defer cleanup()

	application, err := NewApplication(createMockWebFS())
	require.NoError(t, err)
	defer application.Hub.Stop()

	testServer := httptest.NewServer(application.Router)
	defer testServer.Close()

	t.Run("health endpoint", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("readiness reports not ready before first load", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/health/ready")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("dashboard unavailable before first load", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/dashboard")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("dashboard page served", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	})

	t.Run("static assets served with MIME types", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/static/app.js")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/javascript")
	})

	t.Run("websocket endpoint requires upgrade", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/ws")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("prometheus endpoint registered", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestApplication_handleWebSocket(t *testing.T) {
	cleanup := setupTestEnvironment(t)
	defer cleanup()

	application, err := NewApplication(createMockWebFS())
	require.NoError(t, err)
	defer application.Hub.Stop()

	testServer := httptest.NewServer(application.Router)
	defer testServer.Close()

	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	// The hub greets every new client
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(message), `"type":"connect"`)
}

func TestApplication_StartAndStop(t *testing.T) {
	cleanup := setupTestEnvironment(t)
	defer cleanup()

	t.Run("start loads a snapshot and serves", func(t *testing.T) {
		application, err := NewApplication(createMockWebFS())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		require.NoError(t, application.Start(ctx, cancel))

		// The startup load cycle ran before the server came up
		require.NotNil(t, application.Store.Current())
		assert.Equal(t, 3, application.Store.Current().RecordCount)

		// Wait for the listener to answer
		baseURL := fmt.Sprintf("http://localhost:%d", application.Config.Server.Port)
		var resp *http.Response
		for i := 0; i < 20; i++ {
			resp, err = http.Get(baseURL + "/api/health/live")
			if err == nil && resp.StatusCode == http.StatusOK {
				break
			}
			if resp != nil {
				resp.Body.Close()
			}
			time.Sleep(100 * time.Millisecond)
		}
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp, err = http.Get(baseURL + "/api/dashboard")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		assert.NoError(t, application.Stop(context.Background()))
	})

	t.Run("start fails when the source is missing", func(t *testing.T) {
		os.Setenv("TFC_SOURCE_PATH", filepath.Join(t.TempDir(), "missing.csv"))

		application, err := NewApplication(createMockWebFS())
		require.NoError(t, err)
		defer application.Hub.Stop()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		err = application.Start(ctx, cancel)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "startup load failed")
	})
}

func TestApplication_getCORSConfig(t *testing.T) {
	cleanup := setupTestEnvironment(t)
	defer cleanup()

	application, err := NewApplication(createMockWebFS())
	require.NoError(t, err)
	defer application.Hub.Stop()

	t.Run("defaults to same-origin", func(t *testing.T) {
		corsConfig := application.getCORSConfig()
		assert.Contains(t, corsConfig.AllowedOrigins, "http://localhost:8099")
		assert.NotContains(t, corsConfig.AllowedOrigins, "http://localhost:3000")
		assert.True(t, corsConfig.AllowCredentials)
		assert.Equal(t, 300, corsConfig.MaxAge)
	})

	t.Run("development adds the dev server origin", func(t *testing.T) {
		application.Config.Logging.Development = true
		defer func() { application.Config.Logging.Development = false }()

		corsConfig := application.getCORSConfig()
		assert.Contains(t, corsConfig.AllowedOrigins, "http://localhost:3000")
	})

	t.Run("configured origins are appended", func(t *testing.T) {
		application.Config.Security.EnableCORS = true
		application.Config.Security.AllowedOrigins = []string{"https://dashboard.example.com"}

		corsConfig := application.getCORSConfig()
		assert.Contains(t, corsConfig.AllowedOrigins, "https://dashboard.example.com")
	})
}

func TestApplication_isDevelopmentMode(t *testing.T) {
	cleanup := setupTestEnvironment(t)
	defer cleanup()

	application, err := NewApplication(createMockWebFS())
	require.NoError(t, err)
	defer application.Hub.Stop()

	t.Run("production by default", func(t *testing.T) {
		os.Unsetenv("GO_ENV")
		assert.False(t, application.isDevelopmentMode())
	})

	t.Run("config flag enables development", func(t *testing.T) {
		application.Config.Logging.Development = true
		defer func() { application.Config.Logging.Development = false }()
		assert.True(t, application.isDevelopmentMode())
	})

	t.Run("GO_ENV enables development", func(t *testing.T) {
		os.Setenv("GO_ENV", "development")
		defer os.Unsetenv("GO_ENV")
		assert.True(t, application.isDevelopmentMode())
	})
}

func TestApplication_createServer(t *testing.T) {
	cleanup := setupTestEnvironment(t)
	defer cleanup()

	application, err := NewApplication(createMockWebFS())
	require.NoError(t, err)
	defer application.Hub.Stop()

	assert.Equal(t, ":8099", application.Server.Addr)
	assert.Equal(t, application.Config.Server.ReadTimeout, application.Server.ReadTimeout)
	assert.Equal(t, application.Config.Server.WriteTimeout, application.Server.WriteTimeout)
	assert.Equal(t, application.Config.Server.IdleTimeout, application.Server.IdleTimeout)
	assert.Equal(t, application.Config.Server.MaxHeaderBytes, application.Server.MaxHeaderBytes)
}
