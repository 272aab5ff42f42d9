// Package reactor implements a single-threaded, cooperative micro-threading
// scheduler: a user-space reactor that multiplexes many lightweight fibers
// over one logical thread of control, providing timer scheduling, I/O
// readiness integration, cross-fiber synchronization primitives, and
// structured cancellation via cross-fiber exception injection.
//
// # Architecture
//
// A [Reactor] owns a fixed-capacity fiber table, a ready queue, a cascading
// timer wheel, and a readiness poller. Applications call [Reactor.Spawn] to
// create fibers and the primitives in this package ([Semaphore], [Lock],
// [SharedLock], [Barrier], [BoundedQueue], [Throttler], [Event], [Signal]) to
// suspend the current fiber. Exactly one fiber is ever running application
// code at a time; see the "Fiber model" section below.
//
// # Fiber model
//
// Go has no portable stackful-coroutine primitive, so a fiber here is a
// goroutine whose forward progress is gated by a one-slot channel: the
// reactor hands off a baton by signalling the target fiber's channel and
// then blocking on its own, so only the baton holder ever touches shared
// reactor state (the ready queue, the timer wheel, the fiber table). This
// reproduces single-threaded cooperative semantics without locks on that
// state, at the cost of one goroutine (and its runtime-managed stack) per
// fiber instead of a hand-rolled stack arena.
//
// # Cancellation
//
// Cross-fiber cancellation ([Reactor.ThrowInFiber], [FiberGroup]) is modeled
// with explicit error returns rather than panics: every suspension point
// returns an error, and a non-nil return means the fiber was resumed by
// cancellation rather than by the event it was waiting for.
//
// # Platform support
//
// Readiness polling uses epoll on Linux and kqueue on Darwin. On other
// platforms a fallback backend accepts registrations but never reports
// readiness, so a fiber in WaitForEvent wakes only on its timeout or on
// cancellation.
package reactor
