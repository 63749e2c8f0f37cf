package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/config"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/exporter"
)

func testConfig(t *testing.T, csvContent string) *config.Config {
	t.Helper()
	srcPath := filepath.Join(t.TempDir(), "metrics.csv")
	require.NoError(t, os.WriteFile(srcPath, []byte(csvContent), 0o644))

	cfg := config.Default()
	cfg.Source.Path = srcPath
	cfg.Source.Format = config.FormatCSV
	cfg.KPI.Directions = map[string]string{
		"ROI (%)":           "higher_is_better",
		"Cycle time (days)": "lower_is_better",
	}
	return cfg
}

func TestRunPipeline(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("builds a snapshot from the source", func(t *testing.T) {
		cfg := testConfig(t, "Function,KPI,Round,Value,Target\n"+
			"Sales,ROI (%),R1,8.1,10\n"+
			"Sales,ROI (%),R2,12.4,10\n"+
			"Operations,Cycle time (days),R1,9,7\n")

		snapshot, err := runPipeline(context.Background(), cfg, logger)
		require.NoError(t, err)
		require.NotNil(t, snapshot)

		assert.Equal(t, 3, snapshot.RecordCount)
		assert.Equal(t, 2, snapshot.EntryCount())
		assert.Len(t, snapshot.Functions, 2)
	})

	t.Run("fails when the source is missing", func(t *testing.T) {
		cfg := config.Default()
		cfg.Source.Path = filepath.Join(t.TempDir(), "missing.csv")
		cfg.Source.Format = config.FormatCSV

		_, err := runPipeline(context.Background(), cfg, logger)
		assert.Error(t, err)
	})

	t.Run("fails on an unconfigured direction", func(t *testing.T) {
		cfg := testConfig(t, "Function,KPI,Round,Value,Target\n"+
			"Purchasing,Unmapped KPI,R1,5,6\n")

		_, err := runPipeline(context.Background(), cfg, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unmapped KPI")
	})
}

func TestReportArtifacts(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t, "Function,KPI,Round,Value,Target\n"+
		"Sales,ROI (%),R1,8.1,10\n"+
		"Sales,ROI (%),R2,12.4,10\n")

	snapshot, err := runPipeline(context.Background(), cfg, logger)
	require.NoError(t, err)

	outDir := t.TempDir()
	paths, err := exporter.New(logger).ExportSnapshot(snapshot, outDir)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.FileExists(t, filepath.Join(outDir, "sales_kpis.csv"))

	summaryPath := filepath.Join(outDir, "dashboard.json")
	require.NoError(t, writeDashboardJSON(summaryPath, snapshot))

	data, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, snapshot.ID, decoded["id"])
	assert.Equal(t, float64(2), decoded["record_count"])
}

func TestPrintSummary(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t, "Function,KPI,Round,Value,Target\n"+
		"Sales,ROI (%),R1,8.1,10\n"+
		"Sales,ROI (%),R2,12.4,10\n")

	snapshot, err := runPipeline(context.Background(), cfg, logger)
	require.NoError(t, err)

	var buf bytes.Buffer
	printSummary(&buf, snapshot)

	out := buf.String()
	assert.Contains(t, out, "=== KPI REPORT")
	assert.Contains(t, out, "Sales")
	assert.Contains(t, out, "Achieved")
}
