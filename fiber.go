package reactor

import (
	"fmt"
)

// Spawn creates a new fiber running fn, per spec.md §4.2/§4.3. fn receives
// the fiber's own handle, for self-reference (e.g. to register with a
// FiberGroup). Spawn is a fatal assertion if the fiber table is exhausted.
func (r *Reactor) Spawn(fn func(FiberHandle)) FiberHandle {
	r.noteReactorThread()

	idx := r.allocSlot()
	s := r.slots[idx]
	s.incarnation++
	s.state = FiberStarting
	handle := s.handle(r.idBits)

	s.closure = func() { fn(handle) }

	r.log(LevelDebug, "fiber spawned", map[string]any{"fiber": uint64(handle.id), "slot": idx})

	go r.runFiberGoroutine(idx, handle)

	r.ready.pushBack(idx)
	s.flags |= flagScheduled
	return handle
}

// runFiberGoroutine is the trampoline: it blocks until the first switch-in,
// then runs the entry closure, recovering from panics when fault handlers
// are enabled (spec.md §4.1's "entry function that returns or throws past
// the trampoline is a fatal programming error" becomes, in Go, a recovered
// panic reported and converted into fiber termination rather than a process
// abort, since a goroutine panicking uncontrolled would otherwise crash the
// whole process regardless of fault-handler configuration).
func (r *Reactor) runFiberGoroutine(idx int, handle FiberHandle) {
	s := r.slots[idx]
	<-s.resumeCh // wait for first switch-in

	var fiberErr error
	func() {
		if r.opts.faultHandlersEnabled {
			defer func() {
				if rec := recover(); rec != nil {
					fiberErr = fmt.Errorf("reactor: fiber panic: %v", rec)
					r.reportFault(idx, rec)
				}
			}()
		}
		s.closure()
	}()

	r.finishFiber(idx, handle, fiberErr)
}

// finishFiber runs on the fiber's own goroutine, immediately after its
// closure returns (normally, or having recovered a panic). It must hand
// control back to the scheduler exactly once, as the final switch_to_next
// call this fiber will ever make.
func (r *Reactor) finishFiber(idx int, handle FiberHandle, fiberErr error) {
	s := r.slots[idx]
	s.state = FiberDone
	if fiberErr != nil {
		r.log(LevelWarning, "fiber terminated with error", map[string]any{
			"fiber": uint64(handle.id), "error": fiberErr.Error(),
		})
	}
	if s.joinSignal != nil {
		s.joinSignal.joinErr = fiberErr
		s.joinSignal.Signal()
	}
	// switchToNext observes FiberDone and recycles the slot before handing
	// off; it never returns to this goroutine.
	_ = r.switchToNext()
}

// CurrentFiberId returns the identity of the fiber presently running.
func (r *Reactor) CurrentFiberId() FiberId {
	return r.current().handle(r.idBits).id
}

// CurrentFiberHandle returns the handle of the fiber presently running.
func (r *Reactor) CurrentFiberHandle() FiberHandle {
	return r.current().handle(r.idBits)
}

// GetFiberState reports the externally visible state of a fiber. A
// Sleeping slot with the SCHEDULED flag set reports Scheduled, per
// spec.md §4.2 "getFiberState".
func (r *Reactor) GetFiberState(h FiberHandle) FiberState {
	s, ok := r.resolve(h)
	if !ok {
		return FiberNone
	}
	if s.state == FiberSleeping && s.flags.has(flagScheduled) {
		return FiberScheduled
	}
	return s.state
}

// JoinFiber suspends the current fiber until h terminates, per spec.md's
// join_fiber. It returns nil once h has terminated (or at once if h no
// longer resolves), and the wait's error on timeout or cancellation. It
// only observes termination and carries no result; result-carrying joins
// are built by composing JoinFiber with a value channel in the fiber's own
// closure.
func (r *Reactor) JoinFiber(h FiberHandle, timeout Timeout) error {
	s, ok := r.resolve(h)
	if !ok {
		return nil
	}
	if s.joinSignal == nil {
		s.joinSignal = newSignal(r)
	}
	sig := s.joinSignal
	for {
		if s2, ok := r.resolve(h); !ok || s2.state == FiberDone || s2.state == FiberNone {
			break
		}
		if err := sig.Wait(timeout); err != nil {
			return err
		}
		break
	}
	return nil
}

// FiberLocal returns the value stored under key in the current fiber's
// local storage, and whether it was present.
func (r *Reactor) FiberLocal(key any) (any, bool) {
	s := r.current()
	if s.fls == nil {
		return nil, false
	}
	v, ok := s.fls[key]
	return v, ok
}

// SetFiberLocal stores a value under key in the current fiber's local
// storage.
func (r *Reactor) SetFiberLocal(key, value any) {
	s := r.current()
	if s.fls == nil {
		s.fls = make(map[any]any)
	}
	s.fls[key] = value
}

// BoostFiberPriority moves a scheduled fiber to the front of whatever queue
// currently holds it (the ready queue, most commonly), per spec.md §6.
func (r *Reactor) BoostFiberPriority(h FiberHandle) {
	s, ok := r.resolve(h)
	if !ok {
		return
	}
	s.flags |= flagPriority
	if s.owner != nil {
		s.owner.moveToFront(s.index)
	}
}
