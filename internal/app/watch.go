package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/nbflow/internal/ctxlog"
	"github.com/specialistvlad/nbflow/internal/notebook"
	"github.com/specialistvlad/nbflow/internal/report"
	"github.com/specialistvlad/nbflow/internal/watch"
	"golang.org/x/sync/errgroup"
)

// Watch keeps a session open on the notebook at path. Each time the file
// changes on disk the headless notebook is synced and every edited code cell
// is executed; every classification is printed. Watch returns when ctx is
// cancelled.
func (a *App) Watch(ctx context.Context, path string) error {
	logger := a.logger.With("notebook", path)
	ctx = ctxlog.WithLogger(ctx, logger)

	nb, err := loadNotebook(path)
	if err != nil {
		return err
	}

	a.startHealthCheckServer()
	defer func() {
		if err := a.closeHealthCheckServer(); err != nil {
			logger.Warn("Health check server did not stop cleanly", "error", err)
		}
	}()

	ext, applied := a.newExtension(nb)
	ext.Attach(ctx)
	defer func() {
		if err := ext.Detach(); err != nil {
			logger.Warn("Session did not close cleanly", "error", err)
		}
	}()

	nb.KernelReady()
	if err := connected(ext); err != nil {
		return err
	}
	w, err := watch.New(path)
	if err != nil {
		return err
	}
	logger.Info("👀 Watching notebook for changes")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-applied:
				report.Render(a.outW, nb)
			case changed, ok := <-w.Changes:
				if !ok {
					return nil
				}
				if err := a.reload(gctx, nb, changed); err != nil {
					logger.Warn("Ignoring unreadable notebook", "error", err)
				}
			}
		}
	})
	return g.Wait()
}

// reload syncs nb with the file at path and executes the cells that changed.
func (a *App) reload(ctx context.Context, nb *notebook.Memory, path string) error {
	logger := ctxlog.FromContext(ctx)

	specs, err := notebook.LoadIPYNB(path)
	if err != nil {
		return err
	}
	changed, err := nb.Sync(specs)
	if err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}

	logger.Info("Notebook changed on disk", "cells", nb.Len(), "executed", len(changed))
	for _, id := range changed {
		nb.Execute(id)
	}
	return nil
}
