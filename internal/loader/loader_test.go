package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/config"
	apperrors "github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/errors"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/shared/testutil"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

func TestLoadLongWorkbook(t *testing.T) {
	want := testutil.SampleRecords()
	path := testutil.WriteLongWorkbook(t, testutil.LongRows(want))

	l := New(config.SourceConfig{Path: path}, nil)
	records, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, records)
}

func TestLoadLongWorkbookNamedSheet(t *testing.T) {
	want := testutil.SampleRecords()[:3]
	path := testutil.WriteWorkbook(t,
		testutil.Sheet{Name: "Notes", Rows: [][]string{{"scratch"}}},
		testutil.Sheet{Name: "Metrics", Rows: testutil.LongRows(want)},
	)

	l := New(config.SourceConfig{Path: path, Layout: config.LayoutLong, Sheet: "Metrics"}, nil)
	records, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, records)
}

func TestLoadWorkbookNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.xlsx")

	l := New(config.SourceConfig{Path: path}, nil)
	_, err := l.Load(context.Background())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeSourceNotFound, appErr.Type)
	assert.Equal(t, path, appErr.Context["path"])
}

func TestLoadCSV(t *testing.T) {
	want := testutil.SampleRecords()
	path := testutil.WriteCSV(t, testutil.LongRows(want))

	l := New(config.SourceConfig{Path: path}, nil)
	records, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, records)
}

func TestLoadCSVStripsBOM(t *testing.T) {
	content := "\uFEFFFunction,KPI,Round,Value,Target\nSales,ROI (%),R1,8.2,10\n"
	path := filepath.Join(t.TempDir(), "metrics.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l := New(config.SourceConfig{Path: path}, nil)
	records, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.FunctionSales, records[0].Function)
	assert.Equal(t, "ROI (%)", records[0].KPI)
}

func TestLoadCSVNotFound(t *testing.T) {
	l := New(config.SourceConfig{Path: filepath.Join(t.TempDir(), "missing.csv")}, nil)
	_, err := l.Load(context.Background())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeSourceNotFound, appErr.Type)
}

func TestLoadGSheetsWithoutSpreadsheetID(t *testing.T) {
	l := New(config.SourceConfig{Format: config.FormatGSheets}, nil)
	_, err := l.Load(context.Background())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeConfig, appErr.Type)
}

func TestLoadLogsOutcome(t *testing.T) {
	logger, rec := testutil.NewTestLogger(t)
	path := testutil.WriteLongWorkbook(t, testutil.LongRows(testutil.SampleRecords()))

	l := New(config.SourceConfig{Path: path}, logger)
	records, err := l.Load(context.Background())
	require.NoError(t, err)

	assert.True(t, rec.HasMessage("metric source loaded"))
	assert.True(t, rec.HasAttr("records", int64(len(records))))
	testutil.AssertNoErrors(t, rec)
}

func TestFormatResolution(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SourceConfig
		want string
	}{
		{
			name: "explicit format wins over extension",
			cfg:  config.SourceConfig{Format: config.FormatCSV, Path: "data/metrics.xlsx"},
			want: config.FormatCSV,
		},
		{
			name: "spreadsheet id implies gsheets",
			cfg:  config.SourceConfig{Format: config.FormatAuto, SpreadsheetID: "1BxiMVs0XRA"},
			want: config.FormatGSheets,
		},
		{
			name: "csv extension",
			cfg:  config.SourceConfig{Path: "data/metrics.csv"},
			want: config.FormatCSV,
		},
		{
			name: "default workbook",
			cfg:  config.SourceConfig{Path: "data/metrics.xlsx"},
			want: config.FormatWorkbook,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.cfg, nil).format())
		})
	}
}

func TestSourceDescription(t *testing.T) {
	l := New(config.SourceConfig{Path: "data/metrics.xlsx"}, nil)
	assert.Equal(t, "data/metrics.xlsx", l.Source())

	l = New(config.SourceConfig{SpreadsheetID: "1BxiMVs0XRA"}, nil)
	assert.Equal(t, "gsheets:1BxiMVs0XRA", l.Source())
}

func TestParseLongRowsRoundVariants(t *testing.T) {
	rows := [][]string{
		testutil.LongHeader,
		{"Sales", "ROI (%)", "1", "8.2", ""},
		{"Sales", "ROI (%)", "Round 2", "10.4", ""},
		{"Sales", "ROI (%)", "r3", "12.1", ""},
	}

	records, err := parseLongRows(rows, "Metrics")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, domain.RoundR1, records[0].Round)
	assert.Equal(t, domain.RoundR2, records[1].Round)
	assert.Equal(t, domain.RoundR3, records[2].Round)
}

func TestParseLongRowsBlankValueIsNull(t *testing.T) {
	rows := [][]string{
		testutil.LongHeader,
		{"Sales", "ROI (%)", "R1", "", "10"},
	}

	records, err := parseLongRows(rows, "Metrics")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Value)
	require.NotNil(t, records[0].Target)
	assert.Equal(t, 10.0, *records[0].Target)
}

func TestParseLongRowsSkipsBlankRows(t *testing.T) {
	rows := [][]string{
		testutil.LongHeader,
		{"", "", "", "", ""},
		{"Sales", "ROI (%)", "R1", "8.2", ""},
		{},
	}

	records, err := parseLongRows(rows, "Metrics")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestParseLongRowsErrors(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		wantType apperrors.ErrorType
		wantCtx  map[string]interface{}
	}{
		{
			name:     "no rows",
			rows:     nil,
			wantType: apperrors.ErrTypeSchemaMismatch,
		},
		{
			name:     "missing value column",
			rows:     [][]string{{"Function", "KPI", "Round"}},
			wantType: apperrors.ErrTypeSchemaMismatch,
			wantCtx:  map[string]interface{}{"column": "Value"},
		},
		{
			name: "empty function cell",
			rows: [][]string{
				testutil.LongHeader,
				{"", "ROI (%)", "R1", "8.2", ""},
			},
			wantType: apperrors.ErrTypeSchemaMismatch,
			wantCtx:  map[string]interface{}{"row": 2},
		},
		{
			name: "unknown function label",
			rows: [][]string{
				testutil.LongHeader,
				{"Marketing", "ROI (%)", "R1", "8.2", ""},
			},
			wantType: apperrors.ErrTypeInvalidEnum,
			wantCtx:  map[string]interface{}{"field": "function", "label": "Marketing", "row": 2},
		},
		{
			name: "unknown round label",
			rows: [][]string{
				testutil.LongHeader,
				{"Sales", "ROI (%)", "R7", "8.2", ""},
			},
			wantType: apperrors.ErrTypeInvalidEnum,
			wantCtx:  map[string]interface{}{"field": "round", "label": "R7", "row": 2},
		},
		{
			name: "empty kpi cell",
			rows: [][]string{
				testutil.LongHeader,
				{"Sales", "", "R1", "8.2", ""},
			},
			wantType: apperrors.ErrTypeSchemaMismatch,
			wantCtx:  map[string]interface{}{"row": 2},
		},
		{
			name: "non-numeric value",
			rows: [][]string{
				testutil.LongHeader,
				{"Sales", "ROI (%)", "R1", "8.2", ""},
				{"Sales", "ROI (%)", "R2", "abc", ""},
			},
			wantType: apperrors.ErrTypeSchemaMismatch,
			wantCtx:  map[string]interface{}{"row": 3, "column": "Value"},
		},
		{
			name: "non-numeric target",
			rows: [][]string{
				testutil.LongHeader,
				{"Sales", "ROI (%)", "R1", "8.2", "high"},
			},
			wantType: apperrors.ErrTypeSchemaMismatch,
			wantCtx:  map[string]interface{}{"row": 2, "column": "Target"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLongRows(tt.rows, "Metrics")
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantType, appErr.Type)
			for k, v := range tt.wantCtx {
				assert.Equal(t, v, appErr.Context[k], "context[%s]", k)
			}
		})
	}
}
