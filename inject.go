package reactor

// inject.go implements spec.md §4.8 "Exception injection & fiber
// cancellation": delivering an error into a suspended fiber so it observes
// it as the return value of whatever reactor call currently holds it
// (Suspend, Sleep, JoinFiber, a semaphore/lock/barrier acquire, ...).

// ThrowInFiber stores err as h's pending exception and schedules it with
// priority, per spec.md §4.8. It fails (returns false) if h no longer
// resolves, already has a pending exception, or names a special fiber
// (main/idle) - special fibers are not subject to ordinary cancellation.
func (r *Reactor) ThrowInFiber(h FiberHandle, err error) bool {
	s, ok := r.resolve(h)
	if !ok || s.special {
		return false
	}
	return r.injectChecked(s, err)
}

func (r *Reactor) injectChecked(s *fiberSlot, err error) bool {
	if s.flags.has(flagHasException) {
		return false
	}
	r.injectUnchecked(s, err)
	return true
}

// injectUnchecked delivers err unconditionally, bypassing the
// already-pending and special-fiber checks ThrowInFiber applies. Used
// internally by Stop (shutdown unwind) and FiberGroup (group extinction),
// which must be able to cancel any member including one that already has a
// pending exception from an earlier, still-unresolved injection.
func (r *Reactor) injectUnchecked(s *fiberSlot, err error) {
	if _, ok := err.(*FiberInterruptError); !ok {
		err = &FiberInterruptError{Cause: err}
	}
	s.pendingErr = err
	s.flags |= flagHasException

	switch s.state {
	case FiberSleeping:
		r.forceResume(s)
	case FiberScheduled:
		// already on the ready queue; nothing further to do, the epilogue
		// will observe pendingErr when it next runs.
	}
}

// forceResume evicts s from whatever fiber queue currently holds it (if
// any) and places it at the front of the ready queue. Unlike resumeFiber,
// this does not assume the caller already detached the slot - it is used to
// cancel a fiber out of an arbitrary suspension point.
func (r *Reactor) forceResume(s *fiberSlot) {
	if s.owner != nil {
		s.owner.remove(s.index)
	}
	if s.timeoutEntry != nil {
		s.timeoutEntry.cancel()
		s.timeoutEntry = nil
	}
	s.flags &^= flagSleeping
	s.flags |= flagScheduled
	r.ready.pushFront(s.index)
}
