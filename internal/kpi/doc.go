// Package kpi implements the aggregation pipeline between loaded metric
// records and the render-ready dashboard views.
//
// The pipeline has three stages, run in order on every load cycle:
//
//   - Normalize groups flat MetricRecords into per-KPI series, validating
//     labels and rejecting duplicate (function, KPI, round) keys.
//   - Aggregator derives achievement statuses from configured per-KPI
//     improvement directions, and round-over-round deltas.
//   - Builder projects each series into a ViewEntry pairing a table with a
//     chart series, grouped by business function in presentation order.
//
// All stages are pure: they accept inputs and return freshly built values,
// so a snapshot assembled from their output can be published immutably.
// Any invalid input fails the cycle with a typed error carrying the
// offending key; records are never silently dropped or repaired.
package kpi
