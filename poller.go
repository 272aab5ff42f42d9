package reactor

import (
	"time"
)

// Direction is a readiness direction: a registered fd has one independent
// waiter slot per direction, per spec.md §4.5.
type Direction int8

const (
	DirRead Direction = iota
	DirWrite
)

// pollerBackend is implemented per-platform (poller_linux.go's epoll,
// poller_darwin.go's kqueue, poller_other.go's unsupported stub). It wraps
// an OS edge-triggered readiness mechanism.
type pollerBackend interface {
	init() error
	close() error
	add(fd int, wantRead, wantWrite bool) error
	modify(fd int, wantRead, wantWrite bool) error
	remove(fd int) error
	// wait blocks up to timeoutMs (negative = forever, 0 = non-blocking),
	// invoking dispatch(fd, readable, writable, errored) once per ready fd.
	wait(timeoutMs int, dispatch func(fd int, readable, writable, errored bool)) error
	// supported reports whether this backend can actually detect fd
	// readiness (false only for poller_other.go's fallback).
	supported() bool
}

// IOContext is the per-fd registration handle returned by RegisterFD, per
// spec.md §4.5 register_fd. Each of the two directions has its own waiter
// slot: at most one fiber may wait on a given (fd, direction) at a time.
type IOContext struct {
	r          *Reactor
	fd         int
	waiters    [2]FiberHandle // indexed by Direction
	registered bool
}

// poller owns the platform backend and the fd -> IOContext table.
type poller struct {
	backend pollerBackend
	ctxs    map[int]*IOContext
	warned  bool
}

func newPoller() *poller {
	return &poller{backend: newPollerBackend(), ctxs: make(map[int]*IOContext)}
}

func (r *Reactor) ensurePoller() *poller {
	if r.poller == nil {
		r.poller = newPoller()
		r.RegisterIdleCallback(r.poller.idleCallback(r))
	}
	return r.poller
}

// RegisterFD registers fd with the reactor's readiness poller, per spec.md
// §4.5. Unless alreadyNonBlocking, it is set non-blocking first.
func (r *Reactor) RegisterFD(fd int, alreadyNonBlocking bool) (*IOContext, error) {
	p := r.ensurePoller()
	if !alreadyNonBlocking {
		if err := setNonblock(fd); err != nil {
			return nil, err
		}
	}
	if err := p.backend.init(); err != nil {
		return nil, err
	}
	if !p.backend.supported() && !p.warned {
		p.warned = true
		r.log(LevelWarning, "readiness poller unavailable on this platform; RegisterFD callers will only observe their own WaitForEvent timeouts", nil)
	}
	ctx := &IOContext{r: r, fd: fd}
	if err := p.backend.add(fd, true, true); err != nil {
		return nil, err
	}
	ctx.registered = true
	p.ctxs[fd] = ctx
	return ctx, nil
}

// UnregisterFD removes ctx's fd from the poller.
func (r *Reactor) UnregisterFD(ctx *IOContext) error {
	p := r.ensurePoller()
	if !ctx.registered {
		return nil
	}
	ctx.registered = false
	delete(p.ctxs, ctx.fd)
	return p.backend.remove(ctx.fd)
}

// WaitForEvent parks the current fiber on ctx's dir slot, per spec.md §4.5
// wait_for_event. It fails a fatal assertion if another fiber is already
// waiting on the same (fd, direction) pair.
func (r *Reactor) WaitForEvent(ctx *IOContext, dir Direction, timeout Timeout) error {
	assertf(!ctx.waiters[dir].IsSet(), "two fibers waiting on the same fd+direction")
	h := r.CurrentFiberHandle()
	ctx.waiters[dir] = h

	var entry *timerEntry
	timedOut := false
	if timeout.isFinite() {
		entry = r.timers.registerOneShot(r.now().Add(timeout.d), func() {
			if ctx.waiters[dir].FiberID() == h.FiberID() {
				ctx.waiters[dir] = FiberHandle{}
				timedOut = true
				r.forceResumeHandle(h)
			}
		})
	}

	err := r.suspendCurrentFiber()

	if entry != nil {
		entry.cancel()
	}
	ctx.waiters[dir] = FiberHandle{}
	if err == nil && timedOut {
		return ErrTimeoutExpired
	}
	return err
}

func (r *Reactor) forceResumeHandle(h FiberHandle) {
	s, ok := r.resolve(h)
	if !ok {
		return
	}
	r.forceResume(s)
}

// idleCallback integrates the poller with the idle fiber, per spec.md §4.5
// "Idle-callback integration": given a budget duration, it polls the
// underlying mechanism for up to that long and resumes every fiber whose
// awaited direction became ready. It reports true (counts toward idle time)
// only when no fiber was resumed.
func (p *poller) idleCallback(r *Reactor) IdleCallback {
	return func(budget time.Duration) bool {
		if len(p.ctxs) == 0 {
			return true
		}
		timeoutMs := 0
		if budget > 0 {
			timeoutMs = int(budget / time.Millisecond)
			if timeoutMs <= 0 {
				timeoutMs = 1
			}
		}
		resumedAny := false
		err := p.backend.wait(timeoutMs, func(fd int, readable, writable, errored bool) {
			ctx, ok := p.ctxs[fd]
			if !ok {
				return
			}
			if (readable || errored) && ctx.waiters[DirRead].IsSet() {
				resumedAny = true
				h := ctx.waiters[DirRead]
				ctx.waiters[DirRead] = FiberHandle{}
				r.forceResumeHandle(h)
			}
			if (writable || errored) && ctx.waiters[DirWrite].IsSet() {
				resumedAny = true
				h := ctx.waiters[DirWrite]
				ctx.waiters[DirWrite] = FiberHandle{}
				r.forceResumeHandle(h)
			}
		})
		if err != nil {
			r.log(LevelError, "poller wait failed", map[string]any{"error": err})
			return true
		}
		return !resumedAny
	}
}
