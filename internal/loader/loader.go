package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/config"
	apperrors "github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/errors"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

// Loader reads metric records from the configured source.
type Loader struct {
	cfg    config.SourceConfig
	logger *slog.Logger
}

// New creates a loader for the given source configuration.
func New(cfg config.SourceConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{cfg: cfg, logger: logger}
}

// Source returns a short description of the configured source, used in
// snapshots and log lines.
func (l *Loader) Source() string {
	if l.format() == config.FormatGSheets {
		return "gsheets:" + l.cfg.SpreadsheetID
	}
	return l.cfg.Path
}

// Load reads the source and returns its flat metric records.
func (l *Loader) Load(ctx context.Context) ([]domain.MetricRecord, error) {
	format := l.format()

	l.logger.InfoContext(ctx, "loading metric source",
		"source", l.Source(),
		"format", format,
	)

	var (
		records []domain.MetricRecord
		err     error
	)
	switch format {
	case config.FormatWorkbook:
		records, err = l.loadWorkbook(ctx)
	case config.FormatCSV:
		records, err = l.loadCSV(ctx)
	case config.FormatGSheets:
		records, err = l.loadGoogleSheet(ctx)
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported source format %q", format), nil)
	}
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "metric source loaded",
		"source", l.Source(),
		"records", len(records),
	)

	return records, nil
}

// format resolves the effective source format, inferring it from the
// configuration when set to auto.
func (l *Loader) format() string {
	if l.cfg.Format != "" && l.cfg.Format != config.FormatAuto {
		return l.cfg.Format
	}
	if l.cfg.SpreadsheetID != "" {
		return config.FormatGSheets
	}
	if strings.EqualFold(filepath.Ext(l.cfg.Path), ".csv") {
		return config.FormatCSV
	}
	return config.FormatWorkbook
}

// longColumns holds the column positions of the long-layout table.
type longColumns struct {
	function int
	kpi      int
	round    int
	value    int
	target   int // -1 when the optional Target column is absent
}

// mapLongHeader locates the long-layout columns in a header row. The
// second result lists required columns that were not found.
func mapLongHeader(header []string) (longColumns, []string) {
	cols := longColumns{function: -1, kpi: -1, round: -1, value: -1, target: -1}

	for i, cell := range header {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "function":
			cols.function = i
		case "kpi", "kpi name", "metric":
			cols.kpi = i
		case "round":
			cols.round = i
		case "value":
			cols.value = i
		case "target", "norm":
			cols.target = i
		}
	}

	var missing []string
	if cols.function == -1 {
		missing = append(missing, "Function")
	}
	if cols.kpi == -1 {
		missing = append(missing, "KPI")
	}
	if cols.round == -1 {
		missing = append(missing, "Round")
	}
	if cols.value == -1 {
		missing = append(missing, "Value")
	}
	return cols, missing
}

// parseLongRows converts a long-layout table, header row first, into
// metric records. sheet names the originating sheet or file for error
// context. Fully blank rows are skipped; every other irregularity fails
// the load.
func parseLongRows(rows [][]string, sheet string) ([]domain.MetricRecord, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewSchemaMismatchError("source has no rows").
			WithContext("sheet", sheet)
	}

	cols, missing := mapLongHeader(rows[0])
	if len(missing) > 0 {
		return nil, apperrors.NewMissingColumnError(missing[0], sheet)
	}

	records := make([]domain.MetricRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, header is row 1

		if rowEmpty(row) {
			continue
		}

		functionLabel := cellAt(row, cols.function)
		if functionLabel == "" {
			return nil, apperrors.NewSchemaMismatchError("empty Function cell").
				WithContext("sheet", sheet).
				WithContext("row", rowNum)
		}
		function, ok := domain.ParseFunction(functionLabel)
		if !ok {
			return nil, apperrors.NewInvalidEnumError("function", functionLabel).
				WithContext("sheet", sheet).
				WithContext("row", rowNum)
		}

		roundLabel := cellAt(row, cols.round)
		if roundLabel == "" {
			return nil, apperrors.NewSchemaMismatchError("empty Round cell").
				WithContext("sheet", sheet).
				WithContext("row", rowNum)
		}
		round, ok := domain.ParseRound(roundLabel)
		if !ok {
			return nil, apperrors.NewInvalidEnumError("round", roundLabel).
				WithContext("sheet", sheet).
				WithContext("row", rowNum)
		}

		kpi := cellAt(row, cols.kpi)
		if kpi == "" {
			return nil, apperrors.NewSchemaMismatchError("empty KPI cell").
				WithContext("sheet", sheet).
				WithContext("row", rowNum)
		}

		value, ok := parseCell(cellAt(row, cols.value))
		if !ok {
			return nil, apperrors.NewSchemaMismatchError(
				fmt.Sprintf("non-numeric value %q", cellAt(row, cols.value))).
				WithContext("sheet", sheet).
				WithContext("row", rowNum).
				WithContext("column", "Value")
		}

		var target *float64
		if cols.target >= 0 {
			target, ok = parseCell(cellAt(row, cols.target))
			if !ok {
				return nil, apperrors.NewSchemaMismatchError(
					fmt.Sprintf("non-numeric target %q", cellAt(row, cols.target))).
					WithContext("sheet", sheet).
					WithContext("row", rowNum).
					WithContext("column", "Target")
			}
		}

		records = append(records, domain.MetricRecord{
			Function: function,
			KPI:      kpi,
			Round:    round,
			Value:    value,
			Target:   target,
		})
	}

	return records, nil
}

// cellAt returns the trimmed cell at index i, empty when the row is too
// short to have one.
func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// rowEmpty reports whether every cell of the row is blank.
func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
