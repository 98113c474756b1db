package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/nbflow/internal/ctxlog"
	"github.com/specialistvlad/nbflow/internal/notebook"
	"github.com/specialistvlad/nbflow/internal/report"
	"github.com/specialistvlad/nbflow/internal/session"
)

// ErrNoClassification is returned when the engine does not answer in time.
var ErrNoClassification = errors.New("no classification received")

// InspectOptions parameterize a one-shot inspection.
type InspectOptions struct {
	Path    string
	Timeout time.Duration
	// Select, when set, reports that cell as active after the first
	// classification.
	Select string
}

// Inspect loads a notebook, runs one session until the first classification
// arrives and prints the resulting tags.
func (a *App) Inspect(ctx context.Context, opts InspectOptions) error {
	logger := a.logger.With("notebook", opts.Path)
	ctx = ctxlog.WithLogger(ctx, logger)

	nb, err := loadNotebook(opts.Path)
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

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	select {
	case <-applied:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return fmt.Errorf("%w after %s", ErrNoClassification, timeout)
	}

	if opts.Select != "" {
		if !nb.Select(opts.Select) {
			return fmt.Errorf("cell %q not found in %s", opts.Select, opts.Path)
		}
		logger.Info("Active cell reported", "cell", opts.Select)
	}

	report.Render(a.outW, nb)
	return nil
}

func loadNotebook(path string) (*notebook.Memory, error) {
	specs, err := notebook.LoadIPYNB(path)
	if err != nil {
		return nil, err
	}
	nb, err := notebook.NewMemory(specs...)
	if err != nil {
		return nil, fmt.Errorf("failed to build notebook %s: %w", path, err)
	}
	return nb, nil
}

// connected reports whether the kernel-ready event produced a live session.
func connected(ext *session.Extension) error {
	c := ext.Current()
	if c == nil || c.State() == session.StateDisconnected {
		return errors.New("failed to connect to the analysis engine")
	}
	return nil
}
