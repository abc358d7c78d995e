// Package probe runs the startup checks and reports them in one summary.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"swiftgo/pkg/model"
)

// DefaultTimeout bounds a single check.
const DefaultTimeout = 5 * time.Second

// CheckFunc returns nil if the check passes.
type CheckFunc func(ctx context.Context) error

// Probe is a single startup check.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool // a failure stops startup
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes the probes in order, each with its own timeout.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))
	for i, p := range probes {
		start := time.Now()
		checkCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
		err := p.Check(checkCtx)
		cancel()

		results[i] = Result{Probe: p, Error: err, Duration: time.Since(start)}
	}
	return results
}

// AnalyzeResults logs every result and joins the errors of failed critical
// probes.
func AnalyzeResults(results []Result) error {
	var criticalErrors []error

	slog.Info("Startup Checks Summary")
	for _, r := range results {
		status := "PASS"
		if r.Error != nil {
			status = "FAIL"
			if !r.Probe.Critical {
				status = "WARN"
			}
		}
		msg := fmt.Sprintf("[%s] %-20s (%v)", status, r.Probe.Name, r.Duration.Round(time.Millisecond))

		switch {
		case r.Error == nil:
			slog.Info(msg)
		case r.Probe.Critical:
			slog.Error(msg, "error", r.Error)
			criticalErrors = append(criticalErrors, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		default:
			slog.Warn(msg, "error", r.Error)
		}
	}
	return errors.Join(criticalErrors...)
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Database checks that the database answers.
func Database(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.PingContext(ctx)
	}
}

// ModelLister lists the imported model set.
type ModelLister interface {
	ListModels(ctx context.Context) ([]model.Model, error)
}

// Models fails when no model can be matched: the model set is empty and no
// default model is configured.
func Models(l ModelLister, defaultTitle string) CheckFunc {
	return func(ctx context.Context) error {
		models, err := l.ListModels(ctx)
		if err != nil {
			return err
		}
		if len(models) == 0 && defaultTitle == "" {
			return errors.New("model set is empty and no default model is set")
		}
		return nil
	}
}

// File checks that path exists and is a regular file. An empty path passes.
func File(path string) CheckFunc {
	return func(context.Context) error {
		if path == "" {
			return nil
		}
		fi, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !fi.Mode().IsRegular() {
			return fmt.Errorf("%s is not a regular file", path)
		}
		return nil
	}
}

// SimBackend fails when the requested backend could not be used and the
// mock took over.
func SimBackend(requested string, isMock bool) CheckFunc {
	return func(context.Context) error {
		if requested != "mock" && isMock {
			return fmt.Errorf("%s unavailable, running on the mock simulator", requested)
		}
		return nil
	}
}
