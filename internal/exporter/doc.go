// Package exporter writes the tabular artifacts of an analysis run.
//
// Three export surfaces live here:
//
// Writer: core CSV writing with headers and a UTF-8 BOM so the files
// open cleanly in Excel, plus the batch summary and per-day mean
// tables derived from the reductions.
//
// Sun workbooks: enriched copies of signal logs where every row gains
// the sunrise, sunset, and day/night flag of its local calendar day,
// written as fresh xlsx workbooks.
//
// Paths passed to a Writer resolve against its output directory;
// absolute paths are kept as given.
package exporter
