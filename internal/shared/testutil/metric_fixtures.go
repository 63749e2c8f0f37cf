package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

// LongHeader is the header row of the long-layout metric table.
var LongHeader = []string{"Function", "KPI", "Round", "Value", "Target"}

// Float returns a pointer to v, for building records with optional values.
func Float(v float64) *float64 { return &v }

// SampleRecords returns a small but realistic metric set: four functions,
// two KPIs each, three rounds. Gross margin has a blank second round and
// cube utilization carries no target, so fixtures exercise the missing
// cases too.
func SampleRecords() []domain.MetricRecord {
	return []domain.MetricRecord{
		rec(domain.FunctionSales, "ROI (%)", domain.RoundR1, Float(8.2), Float(10)),
		rec(domain.FunctionSales, "ROI (%)", domain.RoundR2, Float(10.4), Float(10)),
		rec(domain.FunctionSales, "ROI (%)", domain.RoundR3, Float(12.1), Float(10)),
		rec(domain.FunctionSales, "Gross margin", domain.RoundR1, Float(1200000), Float(1500000)),
		rec(domain.FunctionSales, "Gross margin", domain.RoundR2, nil, Float(1500000)),
		rec(domain.FunctionSales, "Gross margin", domain.RoundR3, Float(1650000), Float(1500000)),
		rec(domain.FunctionSupplyChain, "Availability components (%)", domain.RoundR1, Float(92.5), Float(97)),
		rec(domain.FunctionSupplyChain, "Availability components (%)", domain.RoundR2, Float(95.1), Float(97)),
		rec(domain.FunctionSupplyChain, "Availability components (%)", domain.RoundR3, Float(98.2), Float(97)),
		rec(domain.FunctionSupplyChain, "Supply chain costs (%)", domain.RoundR1, Float(34.2), Float(28)),
		rec(domain.FunctionSupplyChain, "Supply chain costs (%)", domain.RoundR2, Float(31), Float(28)),
		rec(domain.FunctionSupplyChain, "Supply chain costs (%)", domain.RoundR3, Float(27.5), Float(28)),
		rec(domain.FunctionOperations, "Production plan adherence (%)", domain.RoundR1, Float(81.3), Float(90)),
		rec(domain.FunctionOperations, "Production plan adherence (%)", domain.RoundR2, Float(88.7), Float(90)),
		rec(domain.FunctionOperations, "Production plan adherence (%)", domain.RoundR3, Float(93.5), Float(90)),
		rec(domain.FunctionOperations, "Cube utilization (%)", domain.RoundR1, Float(54), nil),
		rec(domain.FunctionOperations, "Cube utilization (%)", domain.RoundR2, Float(61.5), nil),
		rec(domain.FunctionOperations, "Cube utilization (%)", domain.RoundR3, Float(68.9), nil),
		rec(domain.FunctionPurchasing, "Delivery reliability suppliers (%)", domain.RoundR1, Float(88), Float(95)),
		rec(domain.FunctionPurchasing, "Delivery reliability suppliers (%)", domain.RoundR2, Float(94.2), Float(95)),
		rec(domain.FunctionPurchasing, "Delivery reliability suppliers (%)", domain.RoundR3, Float(96), Float(95)),
		rec(domain.FunctionPurchasing, "Rejection components (%)", domain.RoundR1, Float(4.8), Float(2)),
		rec(domain.FunctionPurchasing, "Rejection components (%)", domain.RoundR2, Float(3.1), Float(2)),
		rec(domain.FunctionPurchasing, "Rejection components (%)", domain.RoundR3, Float(1.7), Float(2)),
	}
}

// SampleDirections maps every sample KPI to its comparison direction.
func SampleDirections() map[string]domain.Direction {
	return map[string]domain.Direction{
		"ROI (%)":                            domain.DirectionHigherIsBetter,
		"Gross margin":                       domain.DirectionHigherIsBetter,
		"Availability components (%)":        domain.DirectionHigherIsBetter,
		"Supply chain costs (%)":             domain.DirectionLowerIsBetter,
		"Production plan adherence (%)":      domain.DirectionHigherIsBetter,
		"Cube utilization (%)":               domain.DirectionHigherIsBetter,
		"Delivery reliability suppliers (%)": domain.DirectionHigherIsBetter,
		"Rejection components (%)":           domain.DirectionLowerIsBetter,
	}
}

func rec(function domain.Function, kpi string, round domain.Round, value, target *float64) domain.MetricRecord {
	return domain.MetricRecord{Function: function, KPI: kpi, Round: round, Value: value, Target: target}
}

// LongRows renders records as long-layout rows, header first, the way a
// metrics export lays them out. Nil values become blank cells.
func LongRows(records []domain.MetricRecord) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, LongHeader)
	for _, r := range records {
		rows = append(rows, []string{
			string(r.Function),
			r.KPI,
			string(r.Round),
			cellString(r.Value),
			cellString(r.Target),
		})
	}
	return rows
}

func cellString(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Sheet is one named sheet of a workbook fixture.
type Sheet struct {
	Name string
	Rows [][]string
}

// WriteWorkbook writes the sheets to a workbook under a fresh temp dir
// and returns its path.
func WriteWorkbook(t *testing.T, sheets ...Sheet) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			f.SetSheetName(f.GetSheetName(0), sheet.Name)
		} else {
			f.NewSheet(sheet.Name)
		}
		for r, row := range sheet.Rows {
			for c, cell := range row {
				name, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatalf("cell name for (%d,%d): %v", c+1, r+1, err)
				}
				f.SetCellValue(sheet.Name, name, cell)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "metrics.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// WriteLongWorkbook writes rows to a single long-layout sheet and
// returns the workbook path.
func WriteLongWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	return WriteWorkbook(t, Sheet{Name: "Metrics", Rows: rows})
}

// WriteCSV writes rows as a CSV file under a fresh temp dir and returns
// its path.
func WriteCSV(t *testing.T, rows [][]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "metrics.csv")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create csv: %v", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}
