// Package exporter writes dashboard tables as CSV.
//
// CSVWriter is the core writer: headers plus records, with an optional
// UTF-8 BOM for Excel compatibility, written to a file or to any
// io.Writer such as an HTTP response.
//
// FunctionTable flattens a function view into the downloadable table
// shape (KPI rows, round columns, status and delta columns), and
// Exporter writes one such table per function for report generation.
package exporter
