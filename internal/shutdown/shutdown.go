// Package shutdown runs registered cleanup steps when the process is asked to stop.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/PentesterFlow/workshopgraph/internal/logger"
)

// Callback is a function called during shutdown.
type Callback func(ctx context.Context) error

// Stopper is a component that can be stopped gracefully, such as *http.Server.
type Stopper interface {
	Shutdown(ctx context.Context) error
}

// Config holds shutdown configuration.
type Config struct {
	Timeout time.Duration
	Signals []os.Signal
	Logger  *logger.Logger
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

type step struct {
	name string
	fn   Callback
}

// Handler manages graceful shutdown.
type Handler struct {
	mu    sync.Mutex
	steps []step

	shuttingDown atomic.Bool
	done         chan struct{}
	timeout      time.Duration
	result       Result

	ctx    context.Context
	cancel context.CancelFunc

	sigChan chan os.Signal
	log     *logger.Logger
}

// Result holds the outcome of a shutdown.
type Result struct {
	Elapsed time.Duration
	Errors  []error
}

// HasErrors returns whether any step failed.
func (r Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// New creates a shutdown handler listening for cfg.Signals.
func New(cfg Config) *Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.Signals) == 0 {
		cfg.Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	h := &Handler{
		done:    make(chan struct{}),
		timeout: cfg.Timeout,
		ctx:     ctx,
		cancel:  cancel,
		sigChan: make(chan os.Signal, 1),
		log:     cfg.Logger.WithComponent("shutdown"),
	}

	signal.Notify(h.sigChan, cfg.Signals...)

	return h
}

// Register adds a named callback. Callbacks run in reverse registration order.
func (h *Handler) Register(name string, fn Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.steps = append(h.steps, step{name: name, fn: fn})
}

// RegisterServer registers a Stopper.
func (h *Handler) RegisterServer(name string, s Stopper) {
	h.Register(name, s.Shutdown)
}

// Context is cancelled when shutdown begins.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// IsShuttingDown returns whether shutdown is in progress.
func (h *Handler) IsShuttingDown() bool {
	return h.shuttingDown.Load()
}

// Done is closed when shutdown completes.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until a signal arrives or ctx ends, then shuts down.
func (h *Handler) Wait(ctx context.Context) Result {
	select {
	case sig := <-h.sigChan:
		h.log.WithField("signal", sig.String()).Info("Received signal")
	case <-ctx.Done():
	case <-h.ctx.Done():
	}
	return h.Shutdown()
}

// Trigger simulates a termination signal.
func (h *Handler) Trigger() {
	select {
	case h.sigChan <- syscall.SIGTERM:
	default:
	}
}

// Shutdown runs every callback once. Later calls wait for the first to finish.
func (h *Handler) Shutdown() Result {
	if !h.shuttingDown.CompareAndSwap(false, true) {
		<-h.done
		return h.result
	}
	defer signal.Stop(h.sigChan)

	start := time.Now()
	h.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	steps := make([]step, len(h.steps))
	copy(steps, h.steps)
	h.mu.Unlock()

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		if err := h.run(ctx, steps[i]); err != nil {
			h.log.WithError(err).WithField("step", steps[i].name).Warn("Shutdown step failed")
			errs = append(errs, err)
		}
	}

	h.result = Result{Elapsed: time.Since(start), Errors: errs}
	h.log.WithField("elapsed", h.result.Elapsed.String()).Info("Shutdown complete")
	close(h.done)
	return h.result
}

func (h *Handler) run(ctx context.Context, s step) error {
	done := make(chan error, 1)
	go func() { done <- s.fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return &TimeoutError{Step: s.name}
	}
}

// TimeoutError is returned when a callback outlives the shutdown timeout.
type TimeoutError struct {
	Step string
}

func (e *TimeoutError) Error() string {
	return "shutdown step timed out: " + e.Step
}
