package kpi

import (
	"sort"
	"strings"

	apperrors "github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/errors"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

// Normalize groups flat metric records into per-KPI series. Series keep the
// order their KPIs were first seen in; records within a series are sorted
// R1 before R2 before R3.
//
// The whole input is validated before anything is returned: an unknown
// function or round label fails with an invalid-enum error, a repeated
// (function, KPI, round) key with a duplicate-key error. Bad records are
// never dropped.
func Normalize(records []domain.MetricRecord) ([]domain.KPISeries, error) {
	seen := make(map[domain.MetricKey]struct{}, len(records))
	index := make(map[domain.SeriesKey]int)
	series := make([]domain.KPISeries, 0)

	for _, rec := range records {
		if !rec.Function.IsValid() {
			return nil, apperrors.NewInvalidEnumError("function", string(rec.Function)).
				WithContext("kpi", rec.KPI)
		}
		if !rec.Round.IsValid() {
			return nil, apperrors.NewInvalidEnumError("round", string(rec.Round)).
				WithContext("function", string(rec.Function)).
				WithContext("kpi", rec.KPI)
		}
		if strings.TrimSpace(rec.KPI) == "" {
			return nil, apperrors.NewAppValidationError("metric record has empty KPI name").
				WithContext("function", string(rec.Function)).
				WithContext("round", string(rec.Round))
		}

		key := rec.Key()
		if _, dup := seen[key]; dup {
			return nil, apperrors.NewDuplicateKeyError(string(rec.Function), rec.KPI, string(rec.Round))
		}
		seen[key] = struct{}{}

		sk := domain.SeriesKey{Function: rec.Function, KPI: rec.KPI}
		i, ok := index[sk]
		if !ok {
			i = len(series)
			index[sk] = i
			series = append(series, domain.KPISeries{Function: rec.Function, KPI: rec.KPI})
		}
		series[i].Records = append(series[i].Records, rec)
	}

	for i := range series {
		recs := series[i].Records
		sort.Slice(recs, func(a, b int) bool {
			return recs[a].Round.Index() < recs[b].Round.Index()
		})
	}

	return series, nil
}
