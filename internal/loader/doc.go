// Package loader reads metric records from the configured tabular source.
//
// Three source formats are supported: an Excel workbook, a CSV file and a
// Google Sheets spreadsheet. Workbooks come in two layouts, detected
// automatically unless configured: a single long table with
// Function/KPI/Round/Value[/Target] columns, or the simulation export's
// sheet-per-function layout where each sheet has a Round column and one
// column per KPI, optionally accompanied by a Targets sheet. CSV and
// Google Sheets sources always use the long layout.
//
// The loader owns boundary validation: a missing source fails with
// SOURCE_NOT_FOUND, structural problems (missing columns, non-numeric
// cells) with SCHEMA_MISMATCH carrying the offending row and column, and
// unknown function or round labels with INVALID_ENUM_VALUE. Blank cells
// become records with nil values; rows are never silently dropped.
package loader
