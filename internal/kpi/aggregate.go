package kpi

import (
	"strings"

	apperrors "github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/errors"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

// Aggregator derives achievement statuses and deltas from normalized
// series. Improvement directions are explicit per-KPI configuration; the
// aggregator never infers one from a KPI's name.
type Aggregator struct {
	directions map[string]domain.Direction
}

// NewAggregator creates an aggregator with the given per-KPI improvement
// directions. Direction keys match KPI names ignoring case and whitespace,
// so "Gross Margin" in the config file matches "Gross margin" in the sheet.
func NewAggregator(directions map[string]domain.Direction) *Aggregator {
	canonical := make(map[string]domain.Direction, len(directions))
	for kpi, dir := range directions {
		canonical[canonicalKPI(kpi)] = dir
	}
	return &Aggregator{directions: canonical}
}

// Direction returns the configured improvement direction for a KPI.
func (a *Aggregator) Direction(kpi string) (domain.Direction, bool) {
	dir, ok := a.directions[canonicalKPI(kpi)]
	return dir, ok
}

// Status classifies one record against its target. Meeting the target
// exactly counts as achieved in both directions. A missing value or a
// missing target yields Unknown without consulting the direction; only a
// comparison that is actually needed can fail on missing configuration.
func (a *Aggregator) Status(rec domain.MetricRecord) (domain.AchievementStatus, error) {
	if rec.Value == nil || rec.Target == nil {
		return domain.StatusUnknown, nil
	}

	dir, ok := a.Direction(rec.KPI)
	if !ok {
		return "", apperrors.NewMissingDirectionError(string(rec.Function), rec.KPI).
			WithContext("round", string(rec.Round))
	}

	achieved := false
	switch dir {
	case domain.DirectionHigherIsBetter:
		achieved = *rec.Value >= *rec.Target
	case domain.DirectionLowerIsBetter:
		achieved = *rec.Value <= *rec.Target
	default:
		return "", apperrors.NewInvalidEnumError("direction", string(dir)).
			WithContext("function", string(rec.Function)).
			WithContext("kpi", rec.KPI)
	}

	if achieved {
		return domain.StatusAchieved, nil
	}
	return domain.StatusNotAchieved, nil
}

// Statuses evaluates every record of the series in order. The result is
// aligned with series.Records.
func (a *Aggregator) Statuses(series domain.KPISeries) ([]domain.AchievementStatus, error) {
	statuses := make([]domain.AchievementStatus, len(series.Records))
	for i, rec := range series.Records {
		status, err := a.Status(rec)
		if err != nil {
			return nil, err
		}
		statuses[i] = status
	}
	return statuses, nil
}

// Deltas computes the round-over-round differences of a series: one entry
// per consecutive round pair (R1 to R2, R2 to R3), nil whenever either
// side's value is absent. A missing middle round therefore voids both of
// its adjacent deltas.
func Deltas(series domain.KPISeries) []*float64 {
	rounds := domain.RoundOrder()
	deltas := make([]*float64, len(rounds)-1)

	for i := 1; i < len(rounds); i++ {
		prev := series.Value(rounds[i-1])
		cur := series.Value(rounds[i])
		if prev == nil || cur == nil {
			continue
		}
		d := *cur - *prev
		deltas[i-1] = &d
	}

	return deltas
}

// canonicalKPI lowercases a KPI name and strips all whitespace for
// direction lookup.
func canonicalKPI(kpi string) string {
	return strings.ToLower(strings.Join(strings.Fields(kpi), ""))
}
