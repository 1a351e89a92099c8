package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/vesta"
)

// Runner is responsible for executing tasks against an account manager.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a new Runner with the given logger.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{
		logger: logger,
	}
}

// Run executes tasks one after another. A failing task does not stop the
// run; all failures are returned joined. Cancellation of ctx stops the run.
func (r *Runner) Run(ctx context.Context, m vesta.AccountManager, tasks ...Task) error {
	var errs []error
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		name := t.Name()
		r.logger.Info("Applying task", "task", name)
		if err := t.Execute(ctx, m); err != nil {
			r.logger.Error("Task failed", "task", name, "error", err)
			errs = append(errs, fmt.Errorf("task %q: %w", name, err))
			continue
		}
		r.logger.Info("Task applied successfully", "task", name)
	}

	return errors.Join(errs...)
}
