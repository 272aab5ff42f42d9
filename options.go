package reactor

import "time"

// reactorOptions holds the configuration recognized by New, per
// spec.md §6 "Reactor configuration".
type reactorOptions struct {
	numFibers              int
	fiberStackSize         int // recorded only, see doc.go "Fiber model"
	gcInterval             time.Duration
	timerGranularity       time.Duration
	hoggerWarningThreshold time.Duration
	maxDesiredRunTime      time.Duration
	hangDetectorTimeout    time.Duration
	faultHandlersEnabled   bool
	numTimers              int
	numThreadsInPool       int
	threadStackSize        int
	threadDeferralEnabled  bool
	metricsEnabled         bool
	logger                 Logger
	utGCDisabled           bool
}

func defaultOptions() *reactorOptions {
	return &reactorOptions{
		numFibers:              256,
		fiberStackSize:         256 * 1024,
		timerGranularity:       time.Millisecond,
		hoggerWarningThreshold: 100 * time.Millisecond,
		maxDesiredRunTime:      20 * time.Millisecond,
		numTimers:              1024,
		logger:                 noopLogger{},
	}
}

// Option configures a Reactor at construction time, mirroring the
// functional-options shape of eventloop.LoopOption.
type Option func(*reactorOptions)

// WithNumFibers sets the total number of fiber slots, including the two
// special (main, idle) fibers. Spawning beyond this capacity is a fatal
// assertion (spec.md §4.2).
func WithNumFibers(n int) Option {
	return func(o *reactorOptions) { o.numFibers = n }
}

// WithFiberStackSize records the requested per-fiber stack size. Go manages
// goroutine stacks itself (see doc.go "Fiber model"), so this value is not
// used to allocate memory; it is retained purely so callers migrating
// configuration from a stack-based implementation have a recognized,
// non-erroring option name.
func WithFiberStackSize(bytes int) Option {
	return func(o *reactorOptions) { o.fiberStackSize = bytes }
}

// WithGCInterval arranges for a recurring timer to request a GC collection
// cycle (Reactor.RequestGCCollection) at the given period. Zero disables it.
func WithGCInterval(d time.Duration) Option {
	return func(o *reactorOptions) { o.gcInterval = d }
}

// WithTimerGranularity sets the base bin width of the cascading timer wheel.
func WithTimerGranularity(d time.Duration) Option {
	return func(o *reactorOptions) { o.timerGranularity = d }
}

// WithHoggerWarningThreshold sets the run-time threshold past which
// switchToNext logs a hogger warning for the fiber that just yielded.
func WithHoggerWarningThreshold(d time.Duration) Option {
	return func(o *reactorOptions) { o.hoggerWarningThreshold = d }
}

// WithMaxDesiredRunTime sets the tolerance consulted by ShouldYield /
// ConsiderYield.
func WithMaxDesiredRunTime(d time.Duration) Option {
	return func(o *reactorOptions) { o.maxDesiredRunTime = d }
}

// WithHangDetectorTimeout arms the hang detector; zero (the default)
// disables it.
func WithHangDetectorTimeout(d time.Duration) Option {
	return func(o *reactorOptions) { o.hangDetectorTimeout = d }
}

// WithFaultHandlersEnabled toggles the recover-based fault reporting wrapped
// around every fiber trampoline.
func WithFaultHandlersEnabled(enabled bool) Option {
	return func(o *reactorOptions) { o.faultHandlersEnabled = enabled }
}

// WithNumTimers records a timer-entry capacity. The timer wheel does not use
// it: entries are allocated individually and there is no fixed entry pool
// or limit on the number of pending timers.
func WithNumTimers(n int) Option {
	return func(o *reactorOptions) { o.numTimers = n }
}

// WithThreadPool records deferred-to-thread worker pool settings (spec.md
// §4.9). The values are recorded only; deferred work runs through a
// caller-supplied DeferredThreadPool (see external.go), which they do not
// configure.
func WithThreadPool(numThreads, threadStackSize int, deferralEnabled bool) Option {
	return func(o *reactorOptions) {
		o.numThreadsInPool = numThreads
		o.threadStackSize = threadStackSize
		o.threadDeferralEnabled = deferralEnabled
	}
}

// WithLogger installs a structured logger; see logging.go.
func WithLogger(l Logger) Option {
	return func(o *reactorOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics enables the run-time percentile, mean and max tracking exposed
// by Reactor.Metrics. Switch, hogger, GC and idle-time counters are kept
// either way. No per-state fiber histogram is kept.
func WithMetrics(enabled bool) Option {
	return func(o *reactorOptions) { o.metricsEnabled = enabled }
}

// withGCDisabledForTesting is test-only, mirroring spec.md's utGcDisabled.
func withGCDisabledForTesting() Option {
	return func(o *reactorOptions) { o.utGCDisabled = true }
}

func resolveOptions(opts []Option) *reactorOptions {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
