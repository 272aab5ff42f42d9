package reactor

import (
	"errors"
	"time"
)

// This file specifies the three reactor-facing collaborator contracts of
// spec.md §4.9 at their interface only: concrete OS glue (signalfd,
// fork/exec, a pthread-mutex-guarded worker pool) is out of scope per
// spec.md §1's Non-goals, but the reactor-side plumbing that drives a
// caller-supplied implementation of each is fully wired here.

// SignalRecord is one delivered OS signal.
type SignalRecord struct {
	Signum int
}

// SignalSource is implemented by a caller-supplied adapter (e.g. bridging
// signalfd or os/signal) that knows how to receive batches of OS signal
// records. ReceiveBatch is expected to suspend the calling fiber via the
// reactor's own cooperative primitives (not block the OS thread), so it
// takes the reactor it should cooperate with.
type SignalSource interface {
	ReceiveBatch(r *Reactor) ([]SignalRecord, error)
}

// SignalHandler processes one delivered signal number, running inside a
// critical section (spec.md §4.9).
type SignalHandler func(signum int)

// SignalDispatcher owns a SignalSource and runs one dedicated internal
// fiber per spec.md §4.9 "Signal-fd subsystem": it reads batches, looks up
// a per-signal handler, and invokes it inside a critical section,
// deduplicating repeat deliveries of the same signum within one batch
// (first record wins).
type SignalDispatcher struct {
	r        *Reactor
	src      SignalSource
	handlers map[int]SignalHandler
	fiber    FiberHandle
}

// NewSignalDispatcher spawns the dedicated dispatch fiber.
func NewSignalDispatcher(r *Reactor, src SignalSource) *SignalDispatcher {
	d := &SignalDispatcher{r: r, src: src, handlers: make(map[int]SignalHandler)}
	d.fiber = r.Spawn(func(FiberHandle) { d.run() })
	return d
}

// OnSignal registers (or replaces) the handler for signum.
func (d *SignalDispatcher) OnSignal(signum int, h SignalHandler) {
	d.handlers[signum] = h
}

func (d *SignalDispatcher) run() {
	for {
		batch, err := d.src.ReceiveBatch(d.r)
		if err != nil {
			return
		}
		func() {
			g := d.r.CriticalSection()
			defer g.Leave()
			seen := make(map[int]bool, len(batch))
			for _, rec := range batch {
				if seen[rec.Signum] {
					continue
				}
				seen[rec.Signum] = true
				if h, ok := d.handlers[rec.Signum]; ok {
					h(rec.Signum)
				}
			}
		}()
	}
}

// ProcessHandle identifies a running or exited child process.
type ProcessHandle struct{ Pid int }

// SubprocessRunner is implemented by a caller-supplied adapter providing
// fork/exec, stdio redirection, and SIGCHLD-driven reaping, per spec.md
// §4.9 "Subprocess manager". The reactor depends on it only through these
// methods; Wait and ReadStdout are expected to cooperate with the reactor
// (suspend the calling fiber) rather than block the OS thread.
type SubprocessRunner interface {
	// Start forks and execs argv with the given stdio fds, returning a
	// handle immediately.
	Start(argv []string, stdin, stdout, stderr int) (ProcessHandle, error)
	// Wait suspends the calling fiber until h has exited, returning its
	// exit code.
	Wait(r *Reactor, h ProcessHandle) (exitCode int, err error)
	// StdoutContext returns the registered IOContext for h's stdout, for
	// use with Reactor.Read.
	StdoutContext(h ProcessHandle) (*IOContext, error)
	// ReadStdout performs one non-blocking read attempt into buf.
	ReadStdout(h ProcessHandle, buf []byte) (int, error)
}

// OutputLifecycle names the four points spec.md §4.9 calls the output
// collector's callback at.
type OutputLifecycle int8

const (
	OutputPreRun OutputLifecycle = iota
	OutputPostRun
	OutputChunk
	OutputClose
)

// OutputCallback is invoked at each OutputLifecycle point; chunk is
// non-empty only for OutputChunk.
type OutputCallback func(phase OutputLifecycle, chunk []byte)

// CollectOutput spawns an internal fiber that reads h's stdout into a
// fixed buffer via runner, invoking cb at each of the four lifecycle
// points, per spec.md §4.9.
func CollectOutput(r *Reactor, runner SubprocessRunner, h ProcessHandle, cb OutputCallback) (FiberHandle, error) {
	ctx, err := runner.StdoutContext(h)
	if err != nil {
		return FiberHandle{}, err
	}
	return r.Spawn(func(FiberHandle) {
		cb(OutputPreRun, nil)
		buf := make([]byte, 4096)
		for {
			n, err := r.Read(ctx, Infinite, func() (int, error) { return runner.ReadStdout(h, buf) })
			if n > 0 {
				cb(OutputChunk, buf[:n])
			}
			if err != nil || n == 0 {
				break
			}
		}
		cb(OutputPostRun, nil)
		cb(OutputClose, nil)
	}), nil
}

// DeferredResult is the outcome of a task run on a DeferredThreadPool.
type DeferredResult struct {
	Value any
	Err   error
}

// DeferredCompletion pairs a submission token with its DeferredResult.
type DeferredCompletion struct {
	Token  uint64
	Result DeferredResult
}

// DeferredThreadPool is implemented by a caller-supplied fixed-size worker
// pool, per spec.md §4.9 "Deferred-to-thread pool". Submit and Poll are the
// only two operations the reactor depends on: Submit hands off a closure to
// run on some worker OS thread, and Poll (called from the reactor's own
// idle callback, never blocking) drains whichever submissions have
// finished since the last call.
type DeferredThreadPool interface {
	Submit(fn func() (any, error)) (token uint64, err error)
	Poll() []DeferredCompletion
}

// DeferredDispatcher bridges a DeferredThreadPool into the reactor's
// suspend/resume model: RunDeferred suspends the calling fiber (exactly
// like Sleep suspends on a timer, with no fiber-queue membership of its
// own) until the idle-callback-driven drain resumes it with a result.
type DeferredDispatcher struct {
	r       *Reactor
	pool    DeferredThreadPool
	pending map[uint64]FiberHandle
	results map[uint64]DeferredResult
}

// NewDeferredDispatcher registers pool's drain as a reactor idle callback.
func NewDeferredDispatcher(r *Reactor, pool DeferredThreadPool) *DeferredDispatcher {
	d := &DeferredDispatcher{r: r, pool: pool, pending: make(map[uint64]FiberHandle), results: make(map[uint64]DeferredResult)}
	r.RegisterIdleCallback(d.drain)
	return d
}

func (d *DeferredDispatcher) drain(time.Duration) bool {
	completions := d.pool.Poll()
	for _, c := range completions {
		d.results[c.Token] = c.Result
		if h, ok := d.pending[c.Token]; ok {
			delete(d.pending, c.Token)
			d.r.resumeFiber(h, false)
		}
	}
	return len(completions) == 0
}

// RunDeferred submits fn to the pool and suspends the current fiber until
// it completes, per spec.md §4.9.
func (d *DeferredDispatcher) RunDeferred(fn func() (any, error)) (any, error) {
	token, err := d.pool.Submit(fn)
	if err != nil {
		return nil, err
	}
	d.pending[token] = d.r.CurrentFiberHandle()

	if err := d.r.suspendCurrentFiber(); err != nil {
		delete(d.pending, token)
		return nil, err
	}

	res, ok := d.results[token]
	if !ok {
		return nil, errors.New("reactor: deferred task result missing after resume")
	}
	delete(d.results, token)
	return res.Value, res.Err
}
