package domain

// ValueKind classifies how a KPI value is displayed. It is a presentation
// attribute only and never participates in achievement logic.
type ValueKind string

const (
	ValueKindPercent  ValueKind = "percent"
	ValueKindCurrency ValueKind = "currency"
	ValueKindPlain    ValueKind = "plain"
)

// TableRow is one rendered round of a KPI table: the raw value alongside its
// formatted form, achievement status and delta against the previous present
// round.
type TableRow struct {
	Round          Round             `json:"round"`
	Value          *float64          `json:"value"`
	Formatted      string            `json:"formatted"`
	Status         AchievementStatus `json:"status"`
	Delta          *float64          `json:"delta"`
	DeltaFormatted string            `json:"delta_formatted,omitempty"`
}

// ChartPoint is one (round, value) pair of a chart series. A nil value marks
// a gap the renderer should not interpolate across.
type ChartPoint struct {
	Round Round    `json:"round"`
	Value *float64 `json:"value"`
}

// ChartSeries is the renderable line series for one KPI, x = round,
// y = value.
type ChartSeries struct {
	Label  string       `json:"label"`
	Points []ChartPoint `json:"points"`
}

// ViewEntry is the render-ready projection of one KPI: its series, derived
// statuses and deltas, and the paired table and chart structures. Entries
// are rebuilt on every load cycle and never mutated in place.
type ViewEntry struct {
	Function Function            `json:"function"`
	KPI      string              `json:"kpi"`
	Kind     ValueKind           `json:"kind"`
	Series   KPISeries           `json:"series"`
	Statuses []AchievementStatus `json:"statuses"`
	// Deltas holds one entry per consecutive round pair (R1 to R2, R2 to R3):
	// the value difference when both sides are present, nil otherwise.
	Deltas []*float64  `json:"deltas"`
	Table  []TableRow  `json:"table"`
	Chart  ChartSeries `json:"chart"`
}

// FunctionView groups the view entries of one business function, KPIs in
// first-seen source order.
type FunctionView struct {
	Function Function    `json:"function"`
	Entries  []ViewEntry `json:"entries"`
}

// Entry returns the view entry for the given KPI name, if present.
func (v FunctionView) Entry(kpi string) (ViewEntry, bool) {
	for _, e := range v.Entries {
		if e.KPI == kpi {
			return e, true
		}
	}
	return ViewEntry{}, false
}

// MetricCard is the single-round presentation of a KPI: the value for the
// selected round with its delta against the previous round, both formatted
// for display.
type MetricCard struct {
	Function       Function          `json:"function"`
	KPI            string            `json:"kpi"`
	Round          Round             `json:"round"`
	Value          *float64          `json:"value"`
	Formatted      string            `json:"formatted"`
	Delta          *float64          `json:"delta"`
	DeltaFormatted string            `json:"delta_formatted,omitempty"`
	Status         AchievementStatus `json:"status"`
}

// OverviewEntry pins one headline KPI for a function on the overview pane.
type OverviewEntry struct {
	Function Function  `json:"function"`
	KPI      string    `json:"kpi"`
	Entry    ViewEntry `json:"entry"`
}
