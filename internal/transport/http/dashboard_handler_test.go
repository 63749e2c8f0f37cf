package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apierrors "github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/errors"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/services"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Dashboard(ctx context.Context) (*domain.Snapshot, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func (m *MockDashboardService) Overview(ctx context.Context) ([]domain.OverviewEntry, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OverviewEntry), args.Error(1)
}

func (m *MockDashboardService) Functions(ctx context.Context) ([]domain.Function, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Function), args.Error(1)
}

func (m *MockDashboardService) FunctionView(ctx context.Context, f domain.Function) (domain.FunctionView, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return domain.FunctionView{}, args.Error(1)
	}
	return args.Get(0).(domain.FunctionView), args.Error(1)
}

func (m *MockDashboardService) Chart(ctx context.Context, f domain.Function, kpiName string) (domain.ChartSeries, error) {
	args := m.Called(f, kpiName)
	if args.Get(0) == nil {
		return domain.ChartSeries{}, args.Error(1)
	}
	return args.Get(0).(domain.ChartSeries), args.Error(1)
}

func (m *MockDashboardService) Cards(ctx context.Context, round domain.Round, f domain.Function) ([]domain.MetricCard, error) {
	args := m.Called(round, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MetricCard), args.Error(1)
}

func (m *MockDashboardService) ExportRows(ctx context.Context, f domain.Function) ([]string, [][]string, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]string), args.Get(1).([][]string), args.Error(2)
}

func (m *MockDashboardService) Reload(ctx context.Context, overridePath string) (*domain.Snapshot, error) {
	args := m.Called(overridePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func floatPtr(v float64) *float64 { return &v }

func testROIEntry() domain.ViewEntry {
	return domain.ViewEntry{
		Function: domain.FunctionSales,
		KPI:      "ROI (%)",
		Kind:     domain.ValueKindPercent,
		Series: domain.KPISeries{
			Function: domain.FunctionSales,
			KPI:      "ROI (%)",
			Records: []domain.MetricRecord{
				{Function: domain.FunctionSales, KPI: "ROI (%)", Round: domain.RoundR1, Value: floatPtr(8.1), Target: floatPtr(10)},
				{Function: domain.FunctionSales, KPI: "ROI (%)", Round: domain.RoundR2, Value: floatPtr(12.4), Target: floatPtr(10)},
			},
		},
		Statuses: []domain.AchievementStatus{domain.StatusNotAchieved, domain.StatusAchieved, domain.StatusUnknown},
		Deltas:   []*float64{floatPtr(4.3), nil},
		Chart: domain.ChartSeries{
			Label: "ROI (%)",
			Points: []domain.ChartPoint{
				{Round: domain.RoundR1, Value: floatPtr(8.1)},
				{Round: domain.RoundR2, Value: floatPtr(12.4)},
				{Round: domain.RoundR3, Value: nil},
			},
		},
	}
}

func testSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		ID:          "snap-test-1",
		Source:      "data/metrics.xlsx",
		LoadedAt:    time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		RecordCount: 2,
		Functions: []domain.FunctionView{
			{Function: domain.FunctionSales, Entries: []domain.ViewEntry{testROIEntry()}},
		},
	}
}

func newTestDashboardHandler(mockService *MockDashboardService) *DashboardHandler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	errorHandler := apierrors.NewErrorHandler(logger, false)
	return NewDashboardHandler(mockService, logger, errorHandler)
}

func newDashboardRouter(handler *DashboardHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Mount("/api", handler.Routes())
	return r
}

func TestDashboardHandler_GetDashboard(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "successful get dashboard",
			setupMock: func(m *MockDashboardService) {
				m.On("Dashboard").Return(testSnapshot(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"snap-test-1"`,
		},
		{
			name: "no snapshot loaded",
			setupMock: func(m *MockDashboardService) {
				m.On("Dashboard").Return(nil, services.ErrNoSnapshot)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `"SNAPSHOT_UNAVAILABLE"`,
		},
		{
			name: "internal error",
			setupMock: func(m *MockDashboardService) {
				m.On("Dashboard").Return(nil, errors.New("store corrupted"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"Internal Server Error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDashboardService)
			tt.setupMock(mockService)
			handler := newTestDashboardHandler(mockService)

			req := httptest.NewRequest("GET", "/api/dashboard", nil)
			rec := httptest.NewRecorder()

			handler.GetDashboard(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetOverview(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "successful overview",
			setupMock: func(m *MockDashboardService) {
				entries := []domain.OverviewEntry{
					{Function: domain.FunctionSales, KPI: "ROI (%)", Entry: testROIEntry()},
				}
				m.On("Overview").Return(entries, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"ROI (%)"`,
		},
		{
			name: "no snapshot loaded",
			setupMock: func(m *MockDashboardService) {
				m.On("Overview").Return(nil, services.ErrNoSnapshot)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `"SNAPSHOT_UNAVAILABLE"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDashboardService)
			tt.setupMock(mockService)
			handler := newTestDashboardHandler(mockService)

			req := httptest.NewRequest("GET", "/api/dashboard/overview", nil)
			rec := httptest.NewRecorder()

			handler.GetOverview(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_ListFunctions(t *testing.T) {
	mockService := new(MockDashboardService)
	mockService.On("Functions").Return(domain.FunctionOrder(), nil)
	handler := newTestDashboardHandler(mockService)

	req := httptest.NewRequest("GET", "/api/functions", nil)
	rec := httptest.NewRecorder()

	handler.ListFunctions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":4`)
	// Presentation order is fixed regardless of source order
	assert.Contains(t, rec.Body.String(), `["Sales","SupplyChain","Operations","Purchasing"]`)
	mockService.AssertExpectations(t)
}

func TestDashboardHandler_GetFunction(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "known function",
			target: "/api/functions/Sales",
			setupMock: func(m *MockDashboardService) {
				view := domain.FunctionView{Function: domain.FunctionSales, Entries: []domain.ViewEntry{testROIEntry()}}
				m.On("FunctionView", domain.FunctionSales).Return(view, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"function":"Sales"`,
		},
		{
			name:   "label parsing tolerates case and spaces",
			target: "/api/functions/supply%20chain",
			setupMock: func(m *MockDashboardService) {
				view := domain.FunctionView{Function: domain.FunctionSupplyChain}
				m.On("FunctionView", domain.FunctionSupplyChain).Return(view, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"SupplyChain"`,
		},
		{
			name:           "unknown label rejected before the service",
			target:         "/api/functions/Finance",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"FUNCTION_NOT_FOUND"`,
		},
		{
			name:   "function absent from snapshot",
			target: "/api/functions/Purchasing",
			setupMock: func(m *MockDashboardService) {
				m.On("FunctionView", domain.FunctionPurchasing).Return(nil, services.ErrFunctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"FUNCTION_NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDashboardService)
			tt.setupMock(mockService)
			router := newDashboardRouter(newTestDashboardHandler(mockService))

			req := httptest.NewRequest("GET", tt.target, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetChart(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "chart for escaped kpi name",
			target: "/api/functions/Sales/kpis/ROI%20(%25)/chart",
			setupMock: func(m *MockDashboardService) {
				m.On("Chart", domain.FunctionSales, "ROI (%)").Return(testROIEntry().Chart, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"points"`,
		},
		{
			name:   "kpi missing from snapshot",
			target: "/api/functions/Sales/kpis/Unknown/chart",
			setupMock: func(m *MockDashboardService) {
				m.On("Chart", domain.FunctionSales, "Unknown").Return(nil, services.ErrKPINotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"KPI_NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDashboardService)
			tt.setupMock(mockService)
			router := newDashboardRouter(newTestDashboardHandler(mockService))

			req := httptest.NewRequest("GET", tt.target, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetCards(t *testing.T) {
	cards := []domain.MetricCard{
		{
			Function:       domain.FunctionSales,
			KPI:            "ROI (%)",
			Round:          domain.RoundR2,
			Value:          floatPtr(12.4),
			Formatted:      "12.4%",
			Delta:          floatPtr(4.3),
			DeltaFormatted: "+4.3",
			Status:         domain.StatusAchieved,
		},
	}

	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "cards for a round",
			target: "/api/rounds/R2/cards",
			setupMock: func(m *MockDashboardService) {
				m.On("Cards", domain.RoundR2, domain.Function("")).Return(cards, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"count":1`,
		},
		{
			name:   "numeric round label",
			target: "/api/rounds/2/cards",
			setupMock: func(m *MockDashboardService) {
				m.On("Cards", domain.RoundR2, domain.Function("")).Return(cards, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"round":"R2"`,
		},
		{
			name:   "function filter",
			target: "/api/rounds/R2/cards?function=sales",
			setupMock: func(m *MockDashboardService) {
				m.On("Cards", domain.RoundR2, domain.FunctionSales).Return(cards, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"success"`,
		},
		{
			name:           "unknown round",
			target:         "/api/rounds/R9/cards",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"ROUND_NOT_FOUND"`,
		},
		{
			name:           "unknown filter function",
			target:         "/api/rounds/R2/cards?function=Finance",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"FUNCTION_NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDashboardService)
			tt.setupMock(mockService)
			router := newDashboardRouter(newTestDashboardHandler(mockService))

			req := httptest.NewRequest("GET", tt.target, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_Reload(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		contentType    string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "reload without body",
			setupMock: func(m *MockDashboardService) {
				m.On("Reload", "").Return(testSnapshot(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"snapshot_id":"snap-test-1"`,
		},
		{
			name:        "reload with override path",
			body:        `{"source_path":"data/alt.xlsx"}`,
			contentType: "application/json",
			setupMock: func(m *MockDashboardService) {
				m.On("Reload", "data/alt.xlsx").Return(testSnapshot(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"record_count":2`,
		},
		{
			name:           "malformed json rejected",
			body:           `{"source_path":`,
			contentType:    "application/json",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"INVALID_JSON"`,
		},
		{
			name:           "traversal path rejected",
			body:           `{"source_path":"../secrets.xlsx"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
		{
			name:           "missing content type",
			body:           `{"source_path":"data/alt.xlsx"}`,
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"MISSING_CONTENT_TYPE"`,
		},
		{
			name:        "source file missing",
			body:        `{"source_path":"data/gone.xlsx"}`,
			contentType: "application/json",
			setupMock: func(m *MockDashboardService) {
				m.On("Reload", "data/gone.xlsx").Return(nil,
					apierrors.NewSourceNotFoundError("data/gone.xlsx", os.ErrNotExist))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"SOURCE_NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDashboardService)
			tt.setupMock(mockService)
			router := newDashboardRouter(newTestDashboardHandler(mockService))

			var req *http.Request
			if tt.body == "" {
				req = httptest.NewRequest("POST", "/api/reload", nil)
			} else {
				req = httptest.NewRequest("POST", "/api/reload", strings.NewReader(tt.body))
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_ExportCSV(t *testing.T) {
	tests := []struct {
		name            string
		target          string
		setupMock       func(*MockDashboardService)
		expectedStatus  int
		expectedBody    string
		expectedHeaders map[string]string
	}{
		{
			name:   "csv download",
			target: "/api/export/Sales.csv",
			setupMock: func(m *MockDashboardService) {
				headers := []string{"KPI", "R1", "R2", "R3"}
				rows := [][]string{{"ROI (%)", "8.1%", "12.4%", "–"}}
				m.On("ExportRows", domain.FunctionSales).Return(headers, rows, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "KPI,R1,R2,R3",
			expectedHeaders: map[string]string{
				"Content-Type":        "text/csv; charset=utf-8",
				"Content-Disposition": `attachment; filename="sales_kpis.csv"`,
			},
		},
		{
			name:           "unknown function",
			target:         "/api/export/Finance.csv",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"FUNCTION_NOT_FOUND"`,
		},
		{
			name:   "no snapshot loaded",
			target: "/api/export/Sales.csv",
			setupMock: func(m *MockDashboardService) {
				m.On("ExportRows", domain.FunctionSales).Return(nil, nil, services.ErrNoSnapshot)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `"SNAPSHOT_UNAVAILABLE"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDashboardService)
			tt.setupMock(mockService)
			router := newDashboardRouter(newTestDashboardHandler(mockService))

			req := httptest.NewRequest("GET", tt.target, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			for key, value := range tt.expectedHeaders {
				assert.Equal(t, value, rec.Header().Get(key))
			}
			mockService.AssertExpectations(t)
		})
	}
}
