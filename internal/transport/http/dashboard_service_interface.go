package http

import (
	"context"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

// DashboardServiceInterface defines the interface for dashboard operations
type DashboardServiceInterface interface {
	Dashboard(ctx context.Context) (*domain.Snapshot, error)
	Overview(ctx context.Context) ([]domain.OverviewEntry, error)
	Functions(ctx context.Context) ([]domain.Function, error)
	FunctionView(ctx context.Context, f domain.Function) (domain.FunctionView, error)
	Chart(ctx context.Context, f domain.Function, kpiName string) (domain.ChartSeries, error)
	Cards(ctx context.Context, round domain.Round, f domain.Function) ([]domain.MetricCard, error)
	ExportRows(ctx context.Context, f domain.Function) ([]string, [][]string, error)
	Reload(ctx context.Context, overridePath string) (*domain.Snapshot, error)
}
