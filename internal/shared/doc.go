// Package shared holds cross-cutting helpers that belong to no single
// layer of the dashboard.
//
// Its only subpackage today is testutil: canned metric fixtures, workbook
// and CSV file builders, and an in-memory slog handler for asserting on
// log output. Production code must not import testutil.
package shared
