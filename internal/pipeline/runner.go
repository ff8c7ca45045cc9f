package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"bearwave/internal/exporter"
	"bearwave/internal/infrastructure"
)

// Executor runs one analysis. The runner depends on the interface so
// tests can substitute failures.
type Executor interface {
	Run(ctx context.Context, a Analysis) (*Outcome, error)
}

// BatchReport summarizes a full batch run.
type BatchReport struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Outcomes []*Outcome
	Failures []*StageError
	// Degraded lists batch-level conditions that were absorbed, such
	// as the space weather feed being unreachable.
	Degraded []string
}

// Succeeded returns the number of completed analyses.
func (r *BatchReport) Succeeded() int { return len(r.Outcomes) }

// Failed returns the number of failed analyses.
func (r *BatchReport) Failed() int { return len(r.Failures) }

// ExitCode maps the batch result onto the process exit code: 0 when
// every analysis succeeded, 2 when none did, 1 for a partial batch.
func (r *BatchReport) ExitCode() int {
	switch {
	case len(r.Failures) == 0:
		return 0
	case len(r.Outcomes) == 0:
		return 2
	default:
		return 1
	}
}

// SummaryRows collects the ionospheric summaries in batch order.
func (r *BatchReport) SummaryRows() []exporter.SummaryRow {
	rows := make([]exporter.SummaryRow, 0, len(r.Outcomes))
	for _, out := range r.Outcomes {
		if out.Summary != nil {
			rows = append(rows, *out.Summary)
		}
	}
	return rows
}

// Runner executes a batch of analyses sequentially and best effort: a
// failed analysis is recorded and the batch moves on.
type Runner struct {
	exec   Executor
	logger *slog.Logger
	clock  clockwork.Clock
}

// NewRunner creates a batch runner. A nil logger falls back to
// slog.Default and a nil clock to the wall clock.
func NewRunner(exec Executor, logger *slog.Logger, clock clockwork.Clock) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{exec: exec, logger: logger, clock: clock}
}

// RunAll executes every analysis in order. Only context cancellation
// stops the batch early; remaining entries are recorded as cancelled.
func (r *Runner) RunAll(ctx context.Context, analyses []Analysis) *BatchReport {
	ctx = infrastructure.EnsureRunID(ctx)
	logger := infrastructure.LoggerWithContext(ctx)

	report := &BatchReport{
		RunID:   infrastructure.GetRunID(ctx),
		Started: r.clock.Now(),
	}
	logger.Info("batch started", slog.Int("analyses", len(analyses)))

	for _, a := range analyses {
		if ctx.Err() != nil {
			report.Failures = append(report.Failures, &StageError{
				Kind:     KindExecution,
				Analysis: a.Name,
				Message:  "batch cancelled",
				Cause:    ctx.Err(),
			})
			continue
		}

		out, err := r.exec.Run(ctx, a)
		if err != nil {
			se := Classify("", a.Name, err)
			logger.Error("analysis failed",
				slog.String("analysis", a.Name),
				slog.String("kind", string(se.Kind)),
				slog.String("error", se.Error()))
			report.Failures = append(report.Failures, se)
			continue
		}
		report.Outcomes = append(report.Outcomes, out)
	}

	report.Duration = r.clock.Since(report.Started)
	logger.Info("batch finished",
		slog.Int("succeeded", report.Succeeded()),
		slog.Int("failed", report.Failed()),
		slog.Duration("duration", report.Duration))
	return report
}
