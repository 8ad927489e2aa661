package lifecycle

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittoapi/pkg/config"
	"github.com/marmos91/dittoapi/pkg/store"
)

// callLog records collaborator calls in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	l.calls = append(l.calls, call)
	l.mu.Unlock()
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeStore struct {
	log *callLog

	authErr  error
	syncErr  error
	closeErr error

	// authBlocks makes Authenticate wait for context cancellation.
	authBlocks bool

	authCalls  atomic.Int32
	syncCalls  atomic.Int32
	closeCalls atomic.Int32
	lastSync   store.SyncOptions
}

func (s *fakeStore) Authenticate(ctx context.Context) error {
	s.authCalls.Add(1)
	s.log.add("authenticate")
	if s.authBlocks {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.authErr
}

func (s *fakeStore) Sync(_ context.Context, opts store.SyncOptions) error {
	s.syncCalls.Add(1)
	s.lastSync = opts
	s.log.add("sync")
	return s.syncErr
}

func (s *fakeStore) Close() error {
	s.closeCalls.Add(1)
	s.log.add("close")
	return s.closeErr
}

type fakeListener struct {
	log *callLog

	port      int
	bindErr   error
	bindPanic any
	serveErr  chan error

	bindCalls     atomic.Int32
	shutdownCalls atomic.Int32
	stopped       chan struct{}
	stopOnce      sync.Once
}

func newFakeListener(log *callLog, port int) *fakeListener {
	return &fakeListener{log: log, port: port, serveErr: make(chan error, 1), stopped: make(chan struct{})}
}

func (l *fakeListener) Bind() error {
	l.bindCalls.Add(1)
	l.log.add("bind")
	if l.bindPanic != nil {
		panic(l.bindPanic)
	}
	return l.bindErr
}

func (l *fakeListener) Serve() error {
	select {
	case err := <-l.serveErr:
		return err
	case <-l.stopped:
		return nil
	}
}

func (l *fakeListener) Shutdown(context.Context) error {
	l.shutdownCalls.Add(1)
	l.log.add("shutdown")
	l.stopOnce.Do(func() { close(l.stopped) })
	return nil
}

func (l *fakeListener) Port() int { return l.port }

type fakeService struct {
	log      *callLog
	name     string
	startErr error
}

func (s *fakeService) Start() error {
	s.log.add("start " + s.name)
	return s.startErr
}

func (s *fakeService) Stop(context.Context) error {
	s.log.add("stop " + s.name)
	return nil
}

type harness struct {
	log      *callLog
	store    *fakeStore
	listener *fakeListener
	signals  chan os.Signal
	states   chan State
	coord    *Coordinator
}

func newHarness(t *testing.T, mode config.Mode, mutate ...func(*Options)) *harness {
	t.Helper()
	log := &callLog{}
	h := &harness{
		log:      log,
		store:    &fakeStore{log: log},
		listener: newFakeListener(log, 8080),
		signals:  make(chan os.Signal, 1),
		states:   make(chan State, 16),
	}
	opts := Options{
		Store:           h.store,
		Listener:        h.listener,
		Mode:            mode,
		Signals:         h.signals,
		APIPrefix:       "/api/v1",
		ShutdownTimeout: time.Second,
		Observer:        func(_, to State, _ Event) { h.states <- to },
	}
	for _, m := range mutate {
		m(&opts)
	}
	coord, err := New(opts)
	require.NoError(t, err)
	h.coord = coord
	return h
}

// start runs the coordinator in the background and returns its result channel.
func (h *harness) start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- h.coord.Run(ctx) }()
	return done
}

// waitFor blocks until the observer reports want.
func (h *harness) waitFor(t *testing.T, want State) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-h.states:
			if s == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s (current %s)", want, h.coord.State())
		}
	}
}

func waitResult(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for Run to return")
		return nil
	}
}

// visited drains the observer channel after Run returned.
func (h *harness) visited() []State {
	var out []State
	for {
		select {
		case s := <-h.states:
			out = append(out, s)
		default:
			return out
		}
	}
}

func TestRun_DevelopmentStartupThenSignal(t *testing.T) {
	h := newHarness(t, config.ModeDevelopment)
	done := h.start(context.Background())

	h.waitFor(t, Listening)
	assert.Equal(t, Listening, h.coord.State())
	h.signals <- syscall.SIGTERM

	err := waitResult(t, done)
	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))
	assert.Equal(t, Terminated, h.coord.State())

	assert.EqualValues(t, 1, h.store.authCalls.Load())
	assert.EqualValues(t, 1, h.store.syncCalls.Load())
	assert.True(t, h.store.lastSync.Alter, "development sync alters tables")
	assert.EqualValues(t, 1, h.store.closeCalls.Load())
	assert.Equal(t, []string{"authenticate", "sync", "bind", "shutdown", "close"}, h.log.list())
	assert.Equal(t, []State{ShuttingDown, Terminated}, h.visited())
}

func TestRun_VisitsStatesInOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []State
	h := newHarness(t, config.ModeDevelopment, func(o *Options) {
		prev := o.Observer
		o.Observer = func(from, to State, ev Event) {
			mu.Lock()
			seen = append(seen, to)
			mu.Unlock()
			prev(from, to, ev)
		}
	})
	done := h.start(context.Background())
	h.waitFor(t, Listening)
	h.signals <- syscall.SIGINT
	require.NoError(t, waitResult(t, done))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{Verifying, Syncing, Listening, ShuttingDown, Terminated}, seen)
}

func TestRun_ProductionSkipsSync(t *testing.T) {
	h := newHarness(t, config.ModeProduction)
	done := h.start(context.Background())

	h.waitFor(t, Listening)
	h.signals <- syscall.SIGINT
	require.NoError(t, waitResult(t, done))

	assert.Zero(t, h.store.syncCalls.Load())
	assert.Equal(t, []string{"authenticate", "bind", "shutdown", "close"}, h.log.list())
}

func TestRun_TestModeSkipsSync(t *testing.T) {
	h := newHarness(t, config.ModeTest)
	done := h.start(context.Background())

	h.waitFor(t, Listening)
	h.signals <- syscall.SIGTERM
	require.NoError(t, waitResult(t, done))
	assert.Zero(t, h.store.syncCalls.Load())
}

func TestRun_AuthenticateFailure(t *testing.T) {
	h := newHarness(t, config.ModeDevelopment)
	h.store.authErr = errors.New("password authentication failed")

	err := waitResult(t, h.start(context.Background()))

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "authenticate", fatal.Step)
	assert.ErrorIs(t, err, h.store.authErr)
	assert.Equal(t, 1, ExitCode(err))

	assert.Zero(t, h.store.syncCalls.Load())
	assert.Zero(t, h.listener.bindCalls.Load())
	assert.Zero(t, h.store.closeCalls.Load())
	assert.NotContains(t, h.visited(), Listening)
	assert.Equal(t, Terminated, h.coord.State())
}

func TestRun_SyncFailure(t *testing.T) {
	h := newHarness(t, config.ModeDevelopment)
	h.store.syncErr = errors.New("duplicate column")

	err := waitResult(t, h.start(context.Background()))

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "sync", fatal.Step)
	assert.Zero(t, h.listener.bindCalls.Load())
	assert.Zero(t, h.store.closeCalls.Load())
	assert.Equal(t, []State{Verifying, Syncing, Terminated}, h.visited())
}

func TestRun_CloseFailureStillExitsZero(t *testing.T) {
	h := newHarness(t, config.ModeProduction)
	h.store.closeErr = errors.New("connection already closed")
	done := h.start(context.Background())

	h.waitFor(t, Listening)
	h.signals <- syscall.SIGTERM

	err := waitResult(t, done)
	assert.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))
	assert.EqualValues(t, 1, h.store.closeCalls.Load())
	assert.Equal(t, Terminated, h.coord.State())
}

func TestRun_FaultAfterListening(t *testing.T) {
	h := newHarness(t, config.ModeProduction)
	done := h.start(context.Background())

	h.waitFor(t, Listening)
	cause := errors.New("unhandled rejection")
	h.coord.Faults().Report(cause)

	err := waitResult(t, done)
	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, ExitCode(err))
	assert.Zero(t, h.store.closeCalls.Load(), "faults never close the store")
	assert.Equal(t, []State{Terminated}, h.visited(), "faults skip ShuttingDown")
}

func TestRun_PanicInGuardedGoroutine(t *testing.T) {
	h := newHarness(t, config.ModeProduction)
	done := h.start(context.Background())

	h.waitFor(t, Listening)
	h.coord.Faults().Go(func() { panic("boom") })

	err := waitResult(t, done)
	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "boom", perr.Value)
	assert.Zero(t, h.store.closeCalls.Load())
}

func TestRun_ServeErrorIsFault(t *testing.T) {
	h := newHarness(t, config.ModeProduction)
	done := h.start(context.Background())

	h.waitFor(t, Listening)
	h.listener.serveErr <- errors.New("accept: too many open files")

	err := waitResult(t, done)
	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.Contains(t, err.Error(), "serve")
	assert.Zero(t, h.store.closeCalls.Load())
}

func TestRun_BindFailureIsFault(t *testing.T) {
	h := newHarness(t, config.ModeProduction)
	h.listener.bindErr = errors.New("address already in use")

	err := waitResult(t, h.start(context.Background()))

	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.ErrorIs(t, err, h.listener.bindErr)
	assert.Equal(t, 1, ExitCode(err))
	assert.Zero(t, h.store.closeCalls.Load())
	assert.NotContains(t, h.visited(), Listening)
}

func TestRun_PanicInBindIsFault(t *testing.T) {
	h := newHarness(t, config.ModeProduction)
	h.listener.bindPanic = "bind exploded"

	err := waitResult(t, h.start(context.Background()))

	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "bind exploded", perr.Value)
	assert.NotEmpty(t, perr.Stack)
	assert.Equal(t, 1, ExitCode(err))
	assert.Zero(t, h.store.closeCalls.Load())
	assert.Equal(t, Terminated, h.coord.State())
}

func TestRun_PanicInObserverIsFault(t *testing.T) {
	h := newHarness(t, config.ModeProduction, func(o *Options) {
		o.Observer = func(_, to State, _ Event) {
			if to == Listening {
				panic("observer exploded")
			}
		}
	})

	err := waitResult(t, h.start(context.Background()))

	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "observer exploded", perr.Value)
	assert.Equal(t, 1, ExitCode(err))
	assert.Zero(t, h.store.closeCalls.Load())
	assert.Equal(t, Terminated, h.coord.State())
}

func TestRun_SignalDuringAuthenticate(t *testing.T) {
	h := newHarness(t, config.ModeDevelopment)
	h.store.authBlocks = true
	done := h.start(context.Background())

	h.waitFor(t, Verifying)
	require.Eventually(t, func() bool { return h.store.authCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
	h.signals <- syscall.SIGTERM

	err := waitResult(t, done)
	assert.NoError(t, err)
	assert.Zero(t, h.store.syncCalls.Load(), "no sync after shutdown begins")
	assert.Zero(t, h.listener.bindCalls.Load(), "no bind after shutdown begins")
	assert.Zero(t, h.listener.shutdownCalls.Load(), "unbound listener is not shut down")
	assert.EqualValues(t, 1, h.store.closeCalls.Load())
	assert.Equal(t, []State{ShuttingDown, Terminated}, h.visited())
}

func TestRun_SignalQueuedBeforeBind(t *testing.T) {
	h := newHarness(t, config.ModeProduction)
	h.signals <- syscall.SIGINT

	err := waitResult(t, h.start(context.Background()))
	assert.NoError(t, err)
	assert.Zero(t, h.listener.bindCalls.Load())
	assert.EqualValues(t, 1, h.store.closeCalls.Load())
}

func TestRun_ContextCancellationShutsDownGracefully(t *testing.T) {
	h := newHarness(t, config.ModeProduction)
	ctx, cancel := context.WithCancel(context.Background())
	done := h.start(ctx)

	h.waitFor(t, Listening)
	cancel()

	require.NoError(t, waitResult(t, done))
	assert.EqualValues(t, 1, h.store.closeCalls.Load())
	assert.EqualValues(t, 1, h.listener.shutdownCalls.Load())
}

func TestRun_OnlyOnce(t *testing.T) {
	h := newHarness(t, config.ModeProduction)
	done := h.start(context.Background())
	h.waitFor(t, Listening)

	assert.ErrorIs(t, h.coord.Run(context.Background()), ErrAlreadyStarted)

	h.signals <- syscall.SIGTERM
	require.NoError(t, waitResult(t, done))
	assert.EqualValues(t, 1, h.store.closeCalls.Load())
}

func TestRun_SecondSignalDoesNotCloseTwice(t *testing.T) {
	h := newHarness(t, config.ModeProduction)
	done := h.start(context.Background())
	h.waitFor(t, Listening)

	h.signals <- syscall.SIGTERM
	require.NoError(t, waitResult(t, done))
	select {
	case h.signals <- syscall.SIGINT:
	default:
	}
	assert.EqualValues(t, 1, h.store.closeCalls.Load())
}

func TestRun_AuxiliaryServices(t *testing.T) {
	h := newHarness(t, config.ModeProduction, func(o *Options) {
		o.Services = []Service{&fakeService{log: o.Store.(*fakeStore).log, name: "metrics"}}
	})
	done := h.start(context.Background())
	h.waitFor(t, Listening)
	require.Eventually(t, func() bool {
		calls := h.log.list()
		return len(calls) > 0 && calls[len(calls)-1] == "start metrics"
	}, time.Second, 5*time.Millisecond)

	h.signals <- syscall.SIGTERM
	require.NoError(t, waitResult(t, done))
	assert.Equal(t, []string{"authenticate", "bind", "start metrics", "shutdown", "stop metrics", "close"}, h.log.list())
}

func TestRun_AuxiliaryServiceStartFailureIsFault(t *testing.T) {
	h := newHarness(t, config.ModeProduction, func(o *Options) {
		o.Services = []Service{&fakeService{log: o.Store.(*fakeStore).log, name: "metrics", startErr: errors.New("port in use")}}
	})

	err := waitResult(t, h.start(context.Background()))
	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.Zero(t, h.store.closeCalls.Load())
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Listener: newFakeListener(&callLog{}, 0)})
	assert.Error(t, err)

	_, err = New(Options{Store: &fakeStore{log: &callLog{}}})
	assert.Error(t, err)

	c, err := New(Options{Store: &fakeStore{log: &callLog{}}, Listener: newFakeListener(&callLog{}, 0)})
	require.NoError(t, err)
	assert.Equal(t, Initializing, c.State())
	assert.Equal(t, DefaultShutdownTimeout, c.opts.ShutdownTimeout)
	assert.Equal(t, config.ModeProduction, c.opts.Mode)
}

func TestSignalName(t *testing.T) {
	assert.Equal(t, "SIGTERM", signalName(syscall.SIGTERM))
	assert.Equal(t, "SIGINT", signalName(syscall.SIGINT))
	assert.Equal(t, "signal", signalName(nil))
}
