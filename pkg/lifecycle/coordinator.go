package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/marmos91/dittoapi/internal/logger"
	"github.com/marmos91/dittoapi/internal/telemetry"
	"github.com/marmos91/dittoapi/pkg/config"
	"github.com/marmos91/dittoapi/pkg/metrics"
	"github.com/marmos91/dittoapi/pkg/store"
)

// DefaultShutdownTimeout bounds the graceful listener drain when
// Options.ShutdownTimeout is zero.
const DefaultShutdownTimeout = 30 * time.Second

// Store is the persistent store handle owned by the coordinator.
type Store interface {
	Authenticate(ctx context.Context) error
	Sync(ctx context.Context, opts store.SyncOptions) error
	Close() error
}

// Listener is the network front end. Bind must reserve the socket
// synchronously; Serve blocks until Shutdown and then returns nil.
type Listener interface {
	Bind() error
	Serve() error
	Shutdown(ctx context.Context) error
	Port() int
}

// Service is an auxiliary server started once Listening is reached and
// stopped during graceful shutdown, before the store is closed.
type Service interface {
	Start() error
	Stop(ctx context.Context) error
}

// Observer is notified after every state change.
type Observer func(from, to State, ev Event)

// Options configures a Coordinator.
type Options struct {
	Store    Store
	Listener Listener
	Mode     config.Mode

	// Signals delivers termination requests (SIGINT, SIGTERM). A nil
	// channel never fires.
	Signals <-chan os.Signal

	// APIPrefix is only used for the startup banner.
	APIPrefix string

	// ShutdownTimeout bounds Listener.Shutdown and Service.Stop.
	ShutdownTimeout time.Duration

	Services []Service
	Metrics  metrics.LifecycleMetrics
	Observer Observer
}

// Coordinator drives the startup/shutdown protocol.
type Coordinator struct {
	opts   Options
	faults *Faults

	mu      sync.RWMutex
	state   State
	started atomic.Bool

	// panicked disables the Observer once a panic has escaped a step.
	panicked atomic.Bool

	bound        bool
	startedSvcs  []Service
	startupBegin time.Time
}

// New validates opts and returns a coordinator in the Initializing state.
func New(opts Options) (*Coordinator, error) {
	if opts.Store == nil {
		return nil, errors.New("lifecycle: store is required")
	}
	if opts.Listener == nil {
		return nil, errors.New("lifecycle: listener is required")
	}
	if opts.Mode == "" {
		opts.Mode = config.ModeProduction
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	c := &Coordinator{
		opts:   opts,
		faults: newFaults(),
		state:  Initializing,
	}
	metrics.SetState(opts.Metrics, Initializing.String())
	return c, nil
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Faults returns the sink for unhandled failures. Reporting a fault
// terminates the process with exit status 1.
func (c *Coordinator) Faults() *Faults {
	return c.faults
}

// interruption is an external request that preempts the normal flow.
type interruption struct {
	cause string // signal name, for the shutdown log line
	fault error
}

// Run executes startup and then blocks until a signal, a fault or ctx
// cancellation. It returns nil after a graceful shutdown (even if closing
// the store failed), *FatalError when a startup step fails and *FaultError
// when a fault is reported. A panic on the calling goroutine is handled
// as a fault.
func (c *Coordinator) Run(ctx context.Context) (err error) {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer func() {
		if r := recover(); r != nil {
			c.panicked.Store(true)
			err = c.fault(&PanicError{Value: r, Stack: debug.Stack()})
		}
	}()
	c.startupBegin = time.Now()

	if intr, err := c.startup(ctx); intr != nil || err != nil {
		if intr != nil {
			return c.interrupt(intr)
		}
		return err
	}

	select {
	case sig := <-c.opts.Signals:
		return c.shutdown(signalName(sig))
	case err := <-c.faults.C():
		return c.fault(err)
	case <-ctx.Done():
		return c.shutdown("context cancellation")
	}
}

// startup runs the ordered startup steps. A non-nil interruption means a
// signal or fault preempted a step.
func (c *Coordinator) startup(ctx context.Context) (*interruption, error) {
	if err := c.fire(VerifyStarted); err != nil {
		return nil, err
	}
	intr, err := c.runStep(ctx, "authenticate", c.opts.Store.Authenticate)
	if intr != nil {
		return intr, nil
	}
	if err != nil {
		return nil, c.fatal("authenticate", err)
	}
	logger.Info("Database connected successfully")

	if c.opts.Mode.IsDevelopment() {
		if err := c.fire(SyncStarted); err != nil {
			return nil, err
		}
		intr, err := c.runStep(ctx, "sync", func(ctx context.Context) error {
			return c.opts.Store.Sync(ctx, store.SyncOptions{Alter: true})
		})
		if intr != nil {
			return intr, nil
		}
		if err != nil {
			return nil, c.fatal("sync", err)
		}
		logger.Info("Database synchronized")
	}

	if intr := c.pending(ctx); intr != nil {
		return intr, nil
	}
	if err := c.opts.Listener.Bind(); err != nil {
		return &interruption{fault: fmt.Errorf("bind listener: %w", err)}, nil
	}
	c.bound = true
	if err := c.fire(ListenerBound); err != nil {
		return nil, err
	}
	metrics.ObserveStartup(c.opts.Metrics, time.Since(c.startupBegin))

	c.faults.Go(func() {
		if err := c.opts.Listener.Serve(); err != nil {
			c.faults.Report(fmt.Errorf("serve: %w", err))
		}
	})

	port := c.opts.Listener.Port()
	logger.Info(fmt.Sprintf("Server running on port %d in %s mode", port, c.opts.Mode),
		logger.KeyPort, port, logger.KeyMode, c.opts.Mode.String())
	logger.Info(fmt.Sprintf("Health check: http://localhost:%d/health", port))
	logger.Info(fmt.Sprintf("API base URL: http://localhost:%d%s", port, c.opts.APIPrefix))

	for _, svc := range c.opts.Services {
		if err := svc.Start(); err != nil {
			return &interruption{fault: fmt.Errorf("start auxiliary service: %w", err)}, nil
		}
		c.startedSvcs = append(c.startedSvcs, svc)
	}
	return nil, nil
}

// runStep runs fn while watching for signals, faults and cancellation.
// On a signal the step's context is cancelled and the step is given up to
// the shutdown timeout to return before the interruption is handed back.
func (c *Coordinator) runStep(ctx context.Context, name string, fn func(context.Context) error) (*interruption, error) {
	stepCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stepCtx, span := telemetry.StartLifecycleSpan(stepCtx, name, telemetry.Mode(c.opts.Mode.String()))
	defer span.End()

	done := make(chan error, 1)
	c.faults.Go(func() { done <- fn(stepCtx) })

	var intr *interruption
	select {
	case err := <-done:
		if err != nil {
			telemetry.RecordError(stepCtx, err)
		}
		return nil, err
	case sig := <-c.opts.Signals:
		intr = &interruption{cause: signalName(sig)}
	case err := <-c.faults.C():
		return &interruption{fault: err}, nil
	case <-ctx.Done():
		intr = &interruption{cause: "context cancellation"}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(c.opts.ShutdownTimeout):
		logger.Warn("Startup step did not stop in time", logger.KeyStep, name)
	}
	return intr, nil
}

// pending returns an interruption that is already queued, without blocking.
func (c *Coordinator) pending(ctx context.Context) *interruption {
	select {
	case sig := <-c.opts.Signals:
		return &interruption{cause: signalName(sig)}
	case err := <-c.faults.C():
		return &interruption{fault: err}
	case <-ctx.Done():
		return &interruption{cause: "context cancellation"}
	default:
		return nil
	}
}

func (c *Coordinator) interrupt(intr *interruption) error {
	if intr.fault != nil {
		return c.fault(intr.fault)
	}
	return c.shutdown(intr.cause)
}

// fatal terminates after a failed startup step.
func (c *Coordinator) fatal(step string, err error) error {
	logger.Error("Unable to start server", logger.KeyStep, step, logger.KeyError, err)
	if ferr := c.fire(StartupFailed); ferr != nil {
		return ferr
	}
	metrics.RecordShutdown(c.opts.Metrics, "startup_failure")
	return &FatalError{Step: step, Err: err}
}

// fault terminates immediately. The store is deliberately left open.
func (c *Coordinator) fault(err error) error {
	args := []any{logger.KeyError, err}
	var perr *PanicError
	if errors.As(err, &perr) {
		args = append(args, logger.KeyStack, string(perr.Stack))
	}
	logger.Error("Unhandled fault", args...)

	if ferr := c.fire(FaultReported); ferr != nil {
		return ferr
	}
	metrics.RecordShutdown(c.opts.Metrics, "fault")
	return &FaultError{Err: err}
}

// shutdown drains the listener, stops auxiliary services and closes the
// store exactly once. The result is nil regardless of the close outcome.
func (c *Coordinator) shutdown(cause string) error {
	logger.Info(fmt.Sprintf("%s received, shutting down gracefully", cause), logger.KeySignal, cause)
	if err := c.fire(SignalReceived); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.ShutdownTimeout)
	defer cancel()

	if c.bound {
		if err := c.opts.Listener.Shutdown(ctx); err != nil {
			logger.Warn("Listener shutdown incomplete", logger.KeyError, err)
		}
	}
	for i := len(c.startedSvcs) - 1; i >= 0; i-- {
		if err := c.startedSvcs[i].Stop(ctx); err != nil {
			logger.Warn("Auxiliary service shutdown failed", logger.KeyError, err)
		}
	}

	if err := c.opts.Store.Close(); err != nil {
		logger.Error("Store close failed", logger.KeyError, err)
	} else {
		logger.Info("Database connection closed")
	}

	if err := c.fire(CloseAttempted); err != nil {
		return err
	}
	metrics.RecordShutdown(c.opts.Metrics, "signal")
	return nil
}

// fire applies ev to the current state and notifies observers.
func (c *Coordinator) fire(ev Event) error {
	c.mu.Lock()
	from := c.state
	to, err := Transition(from, ev)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = to
	c.mu.Unlock()

	logger.Debug("Lifecycle transition",
		logger.KeyFromState, from.String(), logger.KeyState, to.String(), logger.KeyEvent, ev.String())
	metrics.SetState(c.opts.Metrics, to.String())
	if c.opts.Observer != nil && !c.panicked.Load() {
		c.opts.Observer(from, to, ev)
	}
	return nil
}

// signalName returns the conventional name (SIGINT, SIGTERM) for sig.
func signalName(sig os.Signal) string {
	switch sig {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	case nil:
		return "signal"
	default:
		return sig.String()
	}
}
