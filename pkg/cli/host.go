package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/markcheck/markcheck/pkg/controller"
	"github.com/markcheck/markcheck/pkg/logger"
	"github.com/markcheck/markcheck/pkg/task"
)

// cliHost is the render surface of a single task loaded from a task file.
// There is nothing to paint on a terminal; the prepared task is kept instead
// and is what the commands run against.
type cliHost struct {
	raw  task.RawTask
	code task.Code

	mu       sync.Mutex
	prepared *task.PreparedTask
}

var _ controller.Base = &cliHost{}

func newCLIHost(cfg *task.TaskConfig) *cliHost {
	return &cliHost{raw: cfg.Spec.Task, code: cfg.Spec.Code}
}

func (h *cliHost) Render() {}

func (h *cliHost) SetPreparedTask(prepared *task.PreparedTask) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prepared = prepared
}

// Prepared returns the task last handed to the host, or nil.
func (h *cliHost) Prepared() *task.PreparedTask {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.prepared
}

func (h *cliHost) Task() task.RawTask {
	return h.raw
}

func (h *cliHost) Code() task.Code {
	return h.code
}

// renderTask loads a task file, renders it through a controller and waits
// until the task is prepared. It returns the task the host was handed. The
// caller closes the returned controller.
func renderTask(ctx context.Context, taskFile string) (*controller.Controller, *task.PreparedTask, error) {
	cfg, err := task.FromFile(taskFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load task: %w", err)
	}

	log := logger.FromContext(ctx).With("task", cfg.Metadata.Name)

	host := newCLIHost(cfg)
	ctrl := controller.New(host,
		controller.WithContext(ctx),
		controller.WithLogger(log),
		// the error is returned by Wait below
		controller.WithErrorHandler(func(seq uint64, err error) {
			log.Debug("preparation failed", "seq", seq, "err", err)
		}),
	)
	ctrl.Render()

	if _, err := ctrl.Wait(ctx); err != nil {
		_ = ctrl.Close()
		return nil, nil, err
	}

	// the host is handed the task before Wait settles
	prepared := host.Prepared()
	if prepared == nil {
		_ = ctrl.Close()
		return nil, nil, fmt.Errorf("task '%s' was not delivered to the host", cfg.Metadata.Name)
	}

	return ctrl, prepared, nil
}
