package kpi

import (
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

// Builder projects normalized series into render-ready views.
type Builder struct {
	agg *Aggregator
}

// NewBuilder creates a view builder using the given aggregator for
// achievement statuses.
func NewBuilder(agg *Aggregator) *Builder {
	return &Builder{agg: agg}
}

// BuildEntry assembles the view entry for one series: classification,
// statuses, deltas, and the paired table and chart projections.
func (b *Builder) BuildEntry(series domain.KPISeries) (domain.ViewEntry, error) {
	statuses, err := b.agg.Statuses(series)
	if err != nil {
		return domain.ViewEntry{}, err
	}

	deltas := Deltas(series)
	kind := Classify(series.KPI)

	table := make([]domain.TableRow, 0, len(series.Records))
	for i, rec := range series.Records {
		delta := deltaEndingAt(deltas, rec.Round)
		table = append(table, domain.TableRow{
			Round:          rec.Round,
			Value:          rec.Value,
			Formatted:      FormatValue(kind, rec.Value),
			Status:         statuses[i],
			Delta:          delta,
			DeltaFormatted: FormatDelta(kind, delta),
		})
	}

	// The chart spans the full round axis; absent rounds become nil points
	// so renderers do not interpolate across them.
	points := make([]domain.ChartPoint, 0, len(domain.RoundOrder()))
	for _, round := range domain.RoundOrder() {
		points = append(points, domain.ChartPoint{Round: round, Value: series.Value(round)})
	}

	return domain.ViewEntry{
		Function: series.Function,
		KPI:      series.KPI,
		Kind:     kind,
		Series:   series,
		Statuses: statuses,
		Deltas:   deltas,
		Table:    table,
		Chart:    domain.ChartSeries{Label: series.KPI, Points: points},
	}, nil
}

// BuildViews assembles one view per business function, functions in
// presentation order, KPIs in the order they were first seen. Functions
// absent from the input are omitted rather than rendered empty.
func (b *Builder) BuildViews(series []domain.KPISeries) ([]domain.FunctionView, error) {
	byFunction := make(map[domain.Function][]domain.ViewEntry)

	for _, s := range series {
		entry, err := b.BuildEntry(s)
		if err != nil {
			return nil, err
		}
		byFunction[s.Function] = append(byFunction[s.Function], entry)
	}

	views := make([]domain.FunctionView, 0, len(byFunction))
	for _, f := range domain.FunctionOrder() {
		entries, ok := byFunction[f]
		if !ok {
			continue
		}
		views = append(views, domain.FunctionView{Function: f, Entries: entries})
	}

	return views, nil
}

// BuildOverview selects the pinned headline KPI for each function. Pins
// whose KPI is absent from the data are skipped, matching how the dashboard
// degrades when a workbook column is missing.
func BuildOverview(views []domain.FunctionView, pins map[domain.Function]string) []domain.OverviewEntry {
	overview := make([]domain.OverviewEntry, 0, len(pins))

	for _, view := range views {
		pin, ok := pins[view.Function]
		if !ok {
			continue
		}
		entry, ok := view.Entry(pin)
		if !ok {
			continue
		}
		overview = append(overview, domain.OverviewEntry{Function: view.Function, KPI: pin, Entry: entry})
	}

	return overview
}

// BuildCards projects a single round across every function for the cards
// pane: each KPI's value for that round with its delta against the previous
// round. KPIs without a record for the round are skipped.
func BuildCards(views []domain.FunctionView, round domain.Round) []domain.MetricCard {
	cards := make([]domain.MetricCard, 0)

	for _, view := range views {
		for _, entry := range view.Entries {
			for i, rec := range entry.Series.Records {
				if rec.Round != round {
					continue
				}
				delta := deltaEndingAt(entry.Deltas, round)
				cards = append(cards, domain.MetricCard{
					Function:       entry.Function,
					KPI:            entry.KPI,
					Round:          round,
					Value:          rec.Value,
					Formatted:      FormatValue(entry.Kind, rec.Value),
					Delta:          delta,
					DeltaFormatted: FormatDelta(entry.Kind, delta),
					Status:         entry.Statuses[i],
				})
				break
			}
		}
	}

	return cards
}

// deltaEndingAt returns the delta for the transition ending at the given
// round, nil for R1 which has no predecessor.
func deltaEndingAt(deltas []*float64, round domain.Round) *float64 {
	idx := round.Index()
	if idx < 1 || idx-1 >= len(deltas) {
		return nil
	}
	return deltas[idx-1]
}
