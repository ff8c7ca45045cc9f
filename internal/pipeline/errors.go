package pipeline

import (
	"errors"
	"fmt"
	"io/fs"

	"bearwave/internal/dataset"
	"bearwave/internal/spaceweather"
)

// Kind classifies an analysis failure for batch accounting.
type Kind string

const (
	// KindDataFormat marks inputs whose layout could not be understood:
	// missing columns, no header row, unparsable cells.
	KindDataFormat Kind = "data_format"
	// KindDataEmpty marks inputs that parsed but yielded no usable rows.
	KindDataEmpty Kind = "data_empty"
	// KindFileNotFound marks missing input workbooks.
	KindFileNotFound Kind = "file_not_found"
	// KindWriteFailure marks chart or table outputs that could not be
	// written.
	KindWriteFailure Kind = "write_failure"
	// KindNetwork marks the optional space weather fetch failing; the
	// batch degrades instead of failing.
	KindNetwork Kind = "network_unavailable"
	// KindExecution is the catch-all for cancellation and internal
	// faults.
	KindExecution Kind = "execution"
)

// Stage names used in failure records.
const (
	StageLoad    = "load"
	StageReduce  = "reduce"
	StageCompose = "compose"
	StageRender  = "render"
	StageExport  = "export"
	StageFetch   = "fetch"
)

// StageError carries the failure of one analysis stage.
type StageError struct {
	Kind     Kind                   `json:"kind"`
	Stage    string                 `json:"stage,omitempty"`
	Analysis string                 `json:"analysis,omitempty"`
	Message  string                 `json:"message"`
	Cause    error                  `json:"-"`
	Context  map[string]interface{} `json:"context,omitempty"`
	// Recoverable marks failures the batch absorbs without counting
	// the analysis as failed.
	Recoverable bool `json:"recoverable"`
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e == nil {
		return "unknown analysis error"
	}
	if e.Stage != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Stage, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Classify wraps err into a StageError, mapping the loader sentinels
// and filesystem misses onto the report error kinds. Errors from the
// render and export stages default to write failures.
func Classify(stage, analysis string, err error) *StageError {
	if err == nil {
		return nil
	}

	var se *StageError
	if errors.As(err, &se) {
		if se.Stage == "" {
			se.Stage = stage
		}
		if se.Analysis == "" {
			se.Analysis = analysis
		}
		return se
	}

	kind := KindExecution
	recoverable := false
	switch {
	case errors.Is(err, spaceweather.ErrUnavailable):
		kind = KindNetwork
		recoverable = true
	case errors.Is(err, fs.ErrNotExist):
		kind = KindFileNotFound
	case errors.Is(err, dataset.ErrNoRows):
		kind = KindDataEmpty
	case errors.Is(err, dataset.ErrNoHeaderRow),
		errors.Is(err, dataset.ErrMissingColumn),
		errors.Is(err, dataset.ErrUnparsableColumn),
		errors.Is(err, dataset.ErrSheetNotFound):
		kind = KindDataFormat
	case stage == StageRender || stage == StageExport:
		kind = KindWriteFailure
	}

	return &StageError{
		Kind:        kind,
		Stage:       stage,
		Analysis:    analysis,
		Message:     err.Error(),
		Cause:       err,
		Recoverable: recoverable,
	}
}

// KindOf returns the failure kind of an error, KindExecution for plain
// errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindExecution
}

// IsRecoverable reports whether the batch should absorb the error.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Recoverable
	}
	return false
}
