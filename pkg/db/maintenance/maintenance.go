package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"swiftgo/pkg/aircraft"
	"swiftgo/pkg/config"
	"swiftgo/pkg/db"
	"swiftgo/pkg/store"
)

// Store is what maintenance needs from the persistence layer.
type Store interface {
	store.ModelStore
	store.StateStore
}

// Options selects the maintenance tasks. Zero values skip a task.
type Options struct {
	ModelSet         string
	RetainElevations time.Duration
}

// Run executes all maintenance tasks: model set import and elevation pruning.
// Failures are logged, startup does not stop for them.
// It blocks until completion.
func Run(ctx context.Context, s Store, d *db.DB, opts Options) error {
	slog.Info("Starting database maintenance...")

	if err := ImportModelSet(ctx, s, opts.ModelSet); err != nil {
		slog.Error("Model set import failed", "path", opts.ModelSet, "error", err)
	}

	if opts.RetainElevations > 0 {
		n, err := d.PruneElevations(opts.RetainElevations)
		if err != nil {
			slog.Error("Elevation pruning failed", "error", err)
		} else if n > 0 {
			slog.Info("Pruned old elevations", "count", n)
		}
	}

	return nil
}

// ImportModelSet loads the model set file when its path, size or
// modification time changed since the last import.
func ImportModelSet(ctx context.Context, s Store, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat model set: %w", err)
	}

	stamp := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().Unix())
	if last, found := s.GetState(ctx, config.KeyLastModelSet); found && last == stamp {
		slog.Debug("Model set unchanged", "path", path)
		return nil
	}

	n, err := aircraft.ImportModelSet(ctx, s, path)
	if err != nil {
		return err
	}
	slog.Info("Imported model set", "path", path, "models", n)

	if err := s.SetState(ctx, config.KeyLastModelSet, stamp); err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}
	return nil
}
