// Package domain contains the shared domain types for the TFC rounds
// dashboard: business functions, simulation rounds, metric records and the
// per-KPI series derived from them. Types here are wire contracts shared by
// the loader, the aggregation pipeline and the HTTP/WebSocket layers.
package domain

import (
	"fmt"
	"strings"
)

// Function identifies one of the four business areas evaluated per round.
type Function string

const (
	FunctionSales       Function = "Sales"
	FunctionSupplyChain Function = "SupplyChain"
	FunctionOperations  Function = "Operations"
	FunctionPurchasing  Function = "Purchasing"
)

// FunctionOrder returns the functions in presentation order. Dashboards and
// exports group by this order, not by source order.
func FunctionOrder() []Function {
	return []Function{FunctionSales, FunctionSupplyChain, FunctionOperations, FunctionPurchasing}
}

// ParseFunction maps a source label to a Function. Matching is tolerant of
// case and internal whitespace ("Supply Chain" and "supplychain" both parse),
// since sheet names and column values drift between workbook exports.
func ParseFunction(label string) (Function, bool) {
	switch normalizeLabel(label) {
	case "sales":
		return FunctionSales, true
	case "supplychain":
		return FunctionSupplyChain, true
	case "operations":
		return FunctionOperations, true
	case "purchasing":
		return FunctionPurchasing, true
	}
	return "", false
}

// IsValid reports whether f is one of the four known functions.
func (f Function) IsValid() bool {
	switch f {
	case FunctionSales, FunctionSupplyChain, FunctionOperations, FunctionPurchasing:
		return true
	}
	return false
}

func (f Function) String() string {
	return string(f)
}

// Round identifies one of the three sequential simulation periods.
type Round string

const (
	RoundR1 Round = "R1"
	RoundR2 Round = "R2"
	RoundR3 Round = "R3"
)

// RoundOrder returns the rounds in chronological order R1, R2, R3.
func RoundOrder() []Round {
	return []Round{RoundR1, RoundR2, RoundR3}
}

// ParseRound maps a source label to a Round. The simulation workbook writes
// rounds as plain numbers ("1"), the long layout as "R1", and hand-edited
// files occasionally as "Round 1"; all three forms parse.
func ParseRound(label string) (Round, bool) {
	s := normalizeLabel(label)
	s = strings.TrimPrefix(s, "round")
	s = strings.TrimPrefix(s, "r")
	switch s {
	case "1":
		return RoundR1, true
	case "2":
		return RoundR2, true
	case "3":
		return RoundR3, true
	}
	return "", false
}

// IsValid reports whether r is one of the three known rounds.
func (r Round) IsValid() bool {
	switch r {
	case RoundR1, RoundR2, RoundR3:
		return true
	}
	return false
}

func (r Round) String() string {
	return string(r)
}

// Index returns the zero-based chronological position of the round, or -1
// for an unknown round.
func (r Round) Index() int {
	switch r {
	case RoundR1:
		return 0
	case RoundR2:
		return 1
	case RoundR3:
		return 2
	}
	return -1
}

// Previous returns the round immediately before r. The second return value
// is false for R1 and for unknown rounds.
func (r Round) Previous() (Round, bool) {
	switch r {
	case RoundR2:
		return RoundR1, true
	case RoundR3:
		return RoundR2, true
	}
	return "", false
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "")
}

// Direction states which way a KPI improves. It is explicit per-KPI
// configuration; it is never inferred from the KPI name.
type Direction string

const (
	DirectionHigherIsBetter Direction = "higher_is_better"
	DirectionLowerIsBetter  Direction = "lower_is_better"
)

// ParseDirection maps a configuration value to a Direction. Accepts the
// canonical snake_case forms plus the camelCase spellings used in older
// config files.
func ParseDirection(label string) (Direction, bool) {
	switch normalizeLabel(strings.ReplaceAll(label, "_", "")) {
	case "higherisbetter", "higher", "up":
		return DirectionHigherIsBetter, true
	case "lowerisbetter", "lower", "down":
		return DirectionLowerIsBetter, true
	}
	return "", false
}

// IsValid reports whether d is a known direction.
func (d Direction) IsValid() bool {
	return d == DirectionHigherIsBetter || d == DirectionLowerIsBetter
}

// AchievementStatus classifies whether a KPI value met its configured target
// for one round.
type AchievementStatus string

const (
	StatusAchieved    AchievementStatus = "achieved"
	StatusNotAchieved AchievementStatus = "not_achieved"
	// StatusUnknown is used whenever value or target is missing; no
	// comparison is attempted.
	StatusUnknown AchievementStatus = "unknown"
)

// MetricRecord is one KPI observation: a single (function, KPI, round) cell
// from the source, with its optional target. Records are created once at
// load time and are immutable thereafter.
type MetricRecord struct {
	Function Function `json:"function" validate:"required"`
	KPI      string   `json:"kpi" validate:"required"`
	Round    Round    `json:"round" validate:"required"`
	Value    *float64 `json:"value"`
	Target   *float64 `json:"target,omitempty"`
}

// Key returns the record's identity triple. The triple is unique within a
// valid dataset.
func (r MetricRecord) Key() MetricKey {
	return MetricKey{Function: r.Function, KPI: r.KPI, Round: r.Round}
}

// MetricKey is the (function, KPI, round) identity of a metric record.
type MetricKey struct {
	Function Function `json:"function"`
	KPI      string   `json:"kpi"`
	Round    Round    `json:"round"`
}

func (k MetricKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Function, k.KPI, k.Round)
}

// SeriesKey is the (function, KPI) identity of a KPI series.
type SeriesKey struct {
	Function Function `json:"function"`
	KPI      string   `json:"kpi"`
}

func (k SeriesKey) String() string {
	return fmt.Sprintf("%s/%s", k.Function, k.KPI)
}

// KPISeries is the ordered sequence of records for one (function, KPI)
// across rounds, R1 first. At most one record per round, at most three
// records total.
type KPISeries struct {
	Function Function       `json:"function"`
	KPI      string         `json:"kpi"`
	Records  []MetricRecord `json:"records"`
}

// Key returns the series identity.
func (s KPISeries) Key() SeriesKey {
	return SeriesKey{Function: s.Function, KPI: s.KPI}
}

// Rounds returns the rounds present in the series, in order.
func (s KPISeries) Rounds() []Round {
	rounds := make([]Round, 0, len(s.Records))
	for _, rec := range s.Records {
		rounds = append(rounds, rec.Round)
	}
	return rounds
}

// Record returns the record for the given round, if present.
func (s KPISeries) Record(round Round) (MetricRecord, bool) {
	for _, rec := range s.Records {
		if rec.Round == round {
			return rec, true
		}
	}
	return MetricRecord{}, false
}

// Value returns the value for the given round, nil when the round is absent
// or its value is blank.
func (s KPISeries) Value(round Round) *float64 {
	rec, ok := s.Record(round)
	if !ok {
		return nil
	}
	return rec.Value
}
