package app

import (
	"context"
	"path/filepath"

	"importcycles/internal/core/errors"
	"importcycles/internal/core/watcher"
	"importcycles/internal/shared/util"
)

// Watch runs the analysis once and again, from scratch, whenever a source file
// changes in a directory of the last graph. Re-runs are limited to
// cfg.WatchRate per second. onResult receives every outcome, including failed
// runs. Watch returns when ctx is done.
func (a *App) Watch(ctx context.Context, roots []string, onResult func(*Result, error)) error {
	limiter := util.NewLimiter(a.cfg.WatchRate, 1)

	var w *watcher.Watcher
	rerun := func(changed []string) {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		a.logger.Info("change detected", "files", len(changed), "first", changed[0])
		result, err := a.Analyze(ctx, roots)
		if err == nil {
			if werr := w.Watch(watchDirs(result)); werr != nil {
				a.logger.Warn("failed to watch new directories", "error", werr)
			}
		}
		onResult(result, err)
	}

	w, err := watcher.New(watcher.Options{
		Debounce:   a.cfg.Debounce,
		Extensions: a.cfg.Extensions,
		Exclude:    a.exclude,
		Logger:     a.logger,
	}, rerun)
	if err != nil {
		return errors.Wrap(err, errors.CodeIO, "start watcher")
	}
	defer w.Close()

	dirs, err := rootDirs(roots)
	if err != nil {
		return err
	}
	result, err := a.Analyze(ctx, roots)
	if err == nil {
		dirs = append(dirs, watchDirs(result)...)
	}
	onResult(result, err)

	if err := w.Watch(dirs); err != nil {
		return errors.Wrap(err, errors.CodeIO, "watch directories")
	}
	a.logger.Info("watching for changes", "directories", len(w.Watched()))

	<-ctx.Done()
	return nil
}

// rootDirs keeps the roots' directories watched even when a run fails before
// the graph exists.
func rootDirs(roots []string) ([]string, error) {
	paths := make([]string, 0, len(roots))
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "cannot make path absolute"), errors.CtxPath, root)
		}
		paths = append(paths, abs)
	}
	return util.UniqueDirs(paths), nil
}
