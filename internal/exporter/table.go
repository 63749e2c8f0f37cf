package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/kpi"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

// FunctionTable flattens a function view into a CSV table: one row per
// KPI, value columns per round, then status columns and round-over-round
// delta columns. Rounds absent from a series render as the missing
// placeholder so every row has the full column set.
func FunctionTable(view domain.FunctionView) ([]string, [][]string) {
	rounds := domain.RoundOrder()

	headers := make([]string, 0, 3*len(rounds))
	headers = append(headers, "KPI")
	for _, r := range rounds {
		headers = append(headers, string(r))
	}
	for _, r := range rounds {
		headers = append(headers, string(r)+" Status")
	}
	for _, r := range rounds[1:] {
		headers = append(headers, string(r)+" Delta")
	}

	rows := make([][]string, 0, len(view.Entries))
	for _, entry := range view.Entries {
		row := make([]string, 0, len(headers))
		row = append(row, entry.KPI)

		for _, r := range rounds {
			if tr, ok := tableRow(entry, r); ok {
				row = append(row, tr.Formatted)
			} else {
				row = append(row, kpi.MissingValue)
			}
		}
		for _, r := range rounds {
			if tr, ok := tableRow(entry, r); ok {
				row = append(row, string(tr.Status))
			} else {
				row = append(row, kpi.MissingValue)
			}
		}
		for _, r := range rounds[1:] {
			var delta string
			if tr, ok := tableRow(entry, r); ok {
				delta = tr.DeltaFormatted
			}
			row = append(row, delta)
		}

		rows = append(rows, row)
	}

	return headers, rows
}

// tableRow finds the table row for a round, false when the round is
// absent from the series.
func tableRow(entry domain.ViewEntry, round domain.Round) (domain.TableRow, bool) {
	for _, tr := range entry.Table {
		if tr.Round == round {
			return tr, true
		}
	}
	return domain.TableRow{}, false
}

// FileName returns the export file name for a function's table.
func FileName(f domain.Function) string {
	return strings.ToLower(string(f)) + "_kpis.csv"
}

// Exporter writes a snapshot's function tables as CSV files.
type Exporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// New creates a snapshot exporter.
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		csv:    NewCSVWriter(),
		logger: logger,
	}
}

// ExportSnapshot writes one CSV file per function into outputDir and
// returns the written paths in function presentation order.
func (e *Exporter) ExportSnapshot(snapshot *domain.Snapshot, outputDir string) ([]string, error) {
	paths := make([]string, 0, len(snapshot.Functions))

	for _, view := range snapshot.Functions {
		headers, rows := FunctionTable(view)
		path := filepath.Join(outputDir, FileName(view.Function))

		err := e.csv.WriteFile(path, WriteOptions{
			Headers:   headers,
			Records:   rows,
			BOMPrefix: true,
			UseCRLF:   true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to export %s table: %w", view.Function, err)
		}

		e.logger.Info("exported function table",
			slog.String("function", string(view.Function)),
			slog.String("path", path),
			slog.Int("kpis", len(rows)))

		paths = append(paths, path)
	}

	return paths, nil
}
