// Package controller threads task preparation into a host's render lifecycle.
//
// A Controller decorates the host's Base renderer: every Render call runs the
// base render synchronously and then prepares the host's current task in the
// background. When the most recent preparation finishes, its validator and
// transformer are installed together and the host is handed the prepared task
// through SetPreparedTask. Preparations superseded by a later Render are
// cancelled and their outcome is discarded.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/markcheck/markcheck/pkg/logger"
	"github.com/markcheck/markcheck/pkg/task"
)

var (
	ErrNotPrepared = errors.New("task has not been prepared")
	ErrClosed      = errors.New("controller is closed")
)

// Base is the render surface the host provides.
type Base interface {
	Render()
	SetPreparedTask(prepared *task.PreparedTask)
	Task() task.RawTask
	Code() task.Code
}

// ErrorHandler receives preparation failures of the most recent render.
type ErrorHandler func(seq uint64, err error)

type Option func(*Controller)

func WithPreparer(p task.Preparer) Option {
	return func(c *Controller) {
		if p != nil {
			c.preparer = p
		}
	}
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(c *Controller) {
		if h != nil {
			c.onError = h
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithContext sets the parent context of every preparation.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.parent = ctx
		}
	}
}

type Controller struct {
	base     Base
	preparer task.Preparer
	onError  ErrorHandler
	log      logger.Logger
	parent   context.Context

	// notifyMu orders hook installation and SetPreparedTask calls so the host
	// observes completions in issue order.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     State
	seq       uint64
	cancel    context.CancelFunc
	pending   *settlement
	prepared  *task.PreparedTask
	validate  task.Validator
	transform task.Transformer
	closed    bool

	wg sync.WaitGroup
}

type settlement struct {
	done     chan struct{}
	prepared *task.PreparedTask
	err      error
}

func newSettlement() *settlement {
	return &settlement{done: make(chan struct{})}
}

func (s *settlement) settled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *settlement) resolve(prepared *task.PreparedTask, err error) {
	if s.settled() {
		return
	}
	s.prepared, s.err = prepared, err
	close(s.done)
}

// New wraps base. Without options the controller prepares image-marking tasks
// and logs preparation failures.
func New(base Base, opts ...Option) *Controller {
	c := &Controller{
		base:     base,
		preparer: task.ImageMarkPreparer{},
		parent:   context.Background(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = logger.FromContext(c.parent)
	}
	if c.onError == nil {
		c.onError = c.logError
	}

	return c
}

func (c *Controller) logError(seq uint64, err error) {
	c.log.Error("task preparation failed", "seq", seq, "err", err)
}

// Render runs the base render, then starts preparing the host's current task
// and returns without waiting for it.
func (c *Controller) Render() {
	c.base.Render()

	raw, code := c.base.Task(), c.base.Code()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if c.cancel != nil {
		c.cancel()
	}

	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(c.parent)
	c.cancel = cancel
	c.state = StatePreparing
	if c.pending == nil || c.pending.settled() {
		c.pending = newSettlement()
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go c.prepare(ctx, cancel, seq, raw, code)
}

func (c *Controller) prepare(ctx context.Context, cancel context.CancelFunc, seq uint64, raw task.RawTask, code task.Code) {
	defer c.wg.Done()
	defer cancel()

	c.log.Debug("preparing task", "seq", seq)

	prepared, err := c.preparer.Prepare(ctx, raw, code)
	if err == nil && prepared == nil {
		err = errors.New("preparer returned no task")
	}

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		c.log.Debug("discarding superseded preparation", "seq", seq, "err", err)
		return
	}
	c.cancel = nil

	if err != nil {
		err = fmt.Errorf("failed to prepare task: %w", err)
		c.state = StateFailed
		c.pending.resolve(nil, err)
		c.mu.Unlock()

		c.onError(seq, err)
		return
	}

	c.validate = prepared.Validate
	c.transform = prepared.Transform
	c.prepared = prepared
	c.state = StateReady
	c.mu.Unlock()

	c.log.Debug("task prepared", "seq", seq, "marks", len(prepared.Marks))
	c.base.SetPreparedTask(prepared)

	c.mu.Lock()
	if seq == c.seq {
		c.pending.resolve(prepared, nil)
	}
	c.mu.Unlock()
}

// Wait blocks until the latest preparation issued so far settles and returns
// its outcome. It returns ErrNotPrepared when Render was never called.
func (c *Controller) Wait(ctx context.Context) (*task.PreparedTask, error) {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	if pending == nil {
		return nil, ErrNotPrepared
	}

	select {
	case <-pending.done:
		return pending.prepared, pending.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Validate runs the installed validator.
func (c *Controller) Validate(result task.Result) (task.Verdict, error) {
	c.mu.Lock()
	validate := c.validate
	c.mu.Unlock()

	if validate == nil {
		return task.Verdict{}, ErrNotPrepared
	}
	return validate(result), nil
}

// Transform runs the installed transformer.
func (c *Controller) Transform(result task.Result) (task.Result, error) {
	c.mu.Lock()
	transform := c.transform
	c.mu.Unlock()

	if transform == nil {
		return nil, ErrNotPrepared
	}
	return transform(result), nil
}

// Prepared returns the task whose hooks are currently installed, if any.
func (c *Controller) Prepared() (*task.PreparedTask, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prepared, c.prepared != nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Sequence returns the number of preparations issued.
func (c *Controller) Sequence() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Close cancels any in-flight preparation and waits for it to return. Pending
// Wait calls get ErrClosed. Close must not be called from SetPreparedTask.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.pending != nil {
		c.pending.resolve(nil, ErrClosed)
	}
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}
