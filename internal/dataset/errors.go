package dataset

import "errors"

var (
	// ErrNoRows indicates a sheet or table held no data rows after
	// filtering.
	ErrNoRows = errors.New("no data rows")

	// ErrNoHeaderRow indicates no row in the scanned range looked like
	// a column header.
	ErrNoHeaderRow = errors.New("header row not found")

	// ErrMissingColumn indicates a required column was absent from the
	// header row. Wrapping errors name the column.
	ErrMissingColumn = errors.New("required column missing")

	// ErrUnparsableColumn indicates fewer than the minimum fraction of
	// a column's cells parsed under any known layout.
	ErrUnparsableColumn = errors.New("column values unparsable")

	// ErrSheetNotFound indicates the named sheet is absent from the
	// workbook.
	ErrSheetNotFound = errors.New("sheet not found")
)
