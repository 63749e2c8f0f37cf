package loader

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/config"
	apperrors "github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/errors"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

// targetsSheetName is the reserved sheet holding per-KPI targets in the
// per-function workbook layout. Matched case-insensitively.
const targetsSheetName = "Targets"

func (l *Loader) loadWorkbook(ctx context.Context) ([]domain.MetricRecord, error) {
	path := l.cfg.Path
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewSourceNotFoundError(path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeSchemaMismatch, "cannot open workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	layout := l.cfg.Layout
	if layout == "" || layout == config.LayoutAuto {
		layout = detectWorkbookLayout(f, l.cfg.Sheet)
	}

	l.logger.DebugContext(ctx, "reading workbook",
		"path", path,
		"layout", layout,
	)

	switch layout {
	case config.LayoutLong:
		sheet := l.cfg.Sheet
		if sheet == "" {
			sheet = firstSheet(f)
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrTypeSchemaMismatch,
				fmt.Sprintf("cannot read sheet %q", sheet), err)
		}
		return parseLongRows(rows, sheet)
	case config.LayoutSheets:
		return parseFunctionSheets(f)
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported workbook layout %q", layout), nil)
	}
}

// detectWorkbookLayout decides between the long single-table layout and
// the per-function sheet layout. A sheet carrying the long-table header
// wins; anything else is treated as per-function.
func detectWorkbookLayout(f *excelize.File, sheet string) string {
	if sheet == "" {
		sheet = firstSheet(f)
	}
	rows, err := f.GetRows(sheet)
	if err != nil || len(rows) == 0 {
		return config.LayoutSheets
	}
	if _, missing := mapLongHeader(rows[0]); len(missing) == 0 {
		return config.LayoutLong
	}
	return config.LayoutSheets
}

func firstSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}

// targetKey identifies a per-KPI target row in the Targets sheet.
type targetKey struct {
	function domain.Function
	kpi      string
}

// parseFunctionSheets reads the per-function layout: one sheet per
// function with rounds down the Round column and one KPI per remaining
// column, plus an optional Targets sheet. Any sheet whose name is not a
// known function fails the load.
func parseFunctionSheets(f *excelize.File) ([]domain.MetricRecord, error) {
	targets, err := parseTargetsSheet(f)
	if err != nil {
		return nil, err
	}

	var records []domain.MetricRecord
	parsed := 0
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(name), targetsSheetName) {
			continue
		}
		function, ok := domain.ParseFunction(name)
		if !ok {
			return nil, apperrors.NewInvalidEnumError("function", name).
				WithContext("sheet", name)
		}
		sheetRecords, err := parseFunctionSheet(f, name, function, targets)
		if err != nil {
			return nil, err
		}
		records = append(records, sheetRecords...)
		parsed++
	}
	if parsed == 0 {
		return nil, apperrors.NewSchemaMismatchError("workbook has no function sheets")
	}

	return records, nil
}

func parseFunctionSheet(f *excelize.File, sheet string, function domain.Function, targets map[targetKey]float64) ([]domain.MetricRecord, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeSchemaMismatch,
			fmt.Sprintf("cannot read sheet %q", sheet), err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewSchemaMismatchError("sheet has no rows").
			WithContext("sheet", sheet)
	}

	header := rows[0]
	roundCol := -1
	for i, cell := range header {
		if strings.EqualFold(strings.TrimSpace(cell), "Round") {
			roundCol = i
			break
		}
	}
	if roundCol == -1 {
		return nil, apperrors.NewMissingColumnError("Round", sheet)
	}

	var records []domain.MetricRecord
	for i, row := range rows[1:] {
		rowNum := i + 2

		if rowEmpty(row) {
			continue
		}

		roundLabel := cellAt(row, roundCol)
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

		for col, kpiHeader := range header {
			kpi := strings.TrimSpace(kpiHeader)
			if col == roundCol || kpi == "" {
				continue
			}

			value, ok := parseCell(cellAt(row, col))
			if !ok {
				return nil, apperrors.NewSchemaMismatchError(
					fmt.Sprintf("non-numeric value %q", cellAt(row, col))).
					WithContext("sheet", sheet).
					WithContext("row", rowNum).
					WithContext("column", kpi)
			}

			record := domain.MetricRecord{
				Function: function,
				KPI:      kpi,
				Round:    round,
				Value:    value,
			}
			if t, ok := targets[targetKey{function: function, kpi: kpi}]; ok {
				target := t // fresh copy per record
				record.Target = &target
			}
			records = append(records, record)
		}
	}

	return records, nil
}

// parseTargetsSheet reads the optional Targets sheet mapping
// (function, kpi) to a target value. A workbook without one simply has
// no targets; a blank target cell leaves that KPI untargeted.
func parseTargetsSheet(f *excelize.File) (map[targetKey]float64, error) {
	targets := make(map[targetKey]float64)

	sheet := ""
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(name), targetsSheetName) {
			sheet = name
			break
		}
	}
	if sheet == "" {
		return targets, nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeSchemaMismatch,
			fmt.Sprintf("cannot read sheet %q", sheet), err)
	}
	if len(rows) == 0 {
		return targets, nil
	}

	functionCol, kpiCol, targetCol := -1, -1, -1
	for i, cell := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "function":
			functionCol = i
		case "kpi", "kpi name", "metric":
			kpiCol = i
		case "target", "norm":
			targetCol = i
		}
	}
	if functionCol == -1 {
		return nil, apperrors.NewMissingColumnError("Function", sheet)
	}
	if kpiCol == -1 {
		return nil, apperrors.NewMissingColumnError("KPI", sheet)
	}
	if targetCol == -1 {
		return nil, apperrors.NewMissingColumnError("Target", sheet)
	}

	seen := make(map[targetKey]struct{})
	for i, row := range rows[1:] {
		rowNum := i + 2

		if rowEmpty(row) {
			continue
		}

		functionLabel := cellAt(row, functionCol)
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

		kpi := cellAt(row, kpiCol)
		if kpi == "" {
			return nil, apperrors.NewSchemaMismatchError("empty KPI cell").
				WithContext("sheet", sheet).
				WithContext("row", rowNum)
		}

		key := targetKey{function: function, kpi: kpi}
		if _, dup := seen[key]; dup {
			return nil, apperrors.NewSchemaMismatchError(
				fmt.Sprintf("duplicate target for %s/%s", function, kpi)).
				WithContext("sheet", sheet).
				WithContext("row", rowNum)
		}
		seen[key] = struct{}{}

		target, ok := parseCell(cellAt(row, targetCol))
		if !ok {
			return nil, apperrors.NewSchemaMismatchError(
				fmt.Sprintf("non-numeric target %q", cellAt(row, targetCol))).
				WithContext("sheet", sheet).
				WithContext("row", rowNum).
				WithContext("column", "Target")
		}
		if target == nil {
			continue
		}
		targets[key] = *target
	}

	return targets, nil
}
