package app

import (
	"context"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/ports"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/watcher"
)

// Watch re-reviews .rs files under paths whenever they change, calling fn
// once per batch. Files Discover would skip (review.exclude, .gitignore,
// hidden and target/ entries) are ignored. It blocks until ctx is done.
func (a *App) Watch(ctx context.Context, paths []string, opts ports.ReviewOptions, fn func([]ports.FileResult)) error {
	filter, err := NewSourceFilter(paths, a.Config.Review.Exclude)
	if err != nil {
		return err
	}
	svc := a.Service()
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, nil, baseNamePatterns(a.Config.Review.Exclude), func(changed []string) {
		allowed := changed[:0:0]
		for _, path := range changed {
			if filter.Allow(path) {
				allowed = append(allowed, path)
			}
		}
		if len(allowed) == 0 {
			return
		}
		results, err := svc.ReviewFiles(ctx, allowed, opts)
		if err != nil {
			a.logger.Warn("watch review interrupted", "error", err)
		}
		fn(results)
	})
	if err != nil {
		return err
	}
	w.SetLogger(a.logger)
	defer w.Close()

	if err := w.Watch(paths); err != nil {
		return err
	}
	a.logger.Info("watching for changes", "paths", paths, "debounce", a.Config.Watch.Debounce)
	<-ctx.Done()
	return nil
}
