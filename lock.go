package reactor

// Lock is a fair mutex, per spec.md §4.7: Acquire fast-paths when
// unowned, otherwise queues FIFO; Release must be called by the current
// owner and wakes exactly one waiter.
type Lock struct {
	r     *Reactor
	owner FiberHandle
	queue *fiberQueue
}

// NewLock constructs an unheld Lock.
func NewLock(r *Reactor) *Lock {
	return &Lock{r: r, queue: newFiberQueue(r, false)}
}

// Acquire blocks until the lock is held by the current fiber. Re-entrant
// acquisition by the owning fiber is a fatal programming error (spec.md
// §4.7), since this scheduler has no recursive-lock support.
func (l *Lock) Acquire(timeout Timeout) error {
	cur := l.r.CurrentFiberHandle()
	assertf(!(l.owner.IsSet() && l.owner.FiberID() == cur.FiberID()), "Lock: re-entrant acquire by owning fiber")

	if !l.owner.IsSet() && l.queue.empty() {
		l.owner = cur
		return nil
	}
	if err := l.queue.Suspend(timeout); err != nil {
		return err
	}
	l.owner = cur
	return nil
}

// TryAcquire succeeds only if the lock is free and nobody is queued.
func (l *Lock) TryAcquire() bool {
	if l.owner.IsSet() || !l.queue.empty() {
		return false
	}
	l.owner = l.r.CurrentFiberHandle()
	return true
}

// Release gives up the lock, which must be called by the current owner, and
// wakes one waiter (transferring ownership to it) if any are queued.
func (l *Lock) Release() {
	cur := l.r.CurrentFiberHandle()
	assertf(l.owner.IsSet() && l.owner.FiberID() == cur.FiberID(), "Lock: release by non-owner")
	l.owner.Reset()
	if !l.queue.empty() {
		l.owner = l.queue.resumeOne(false)
	}
}

// IsHeld reports whether any fiber currently holds the lock.
func (l *Lock) IsHeld() bool { return l.owner.IsSet() }

// LockState enumerates SharedLock's externally visible state.
type LockState int8

const (
	Unlocked LockState = iota
	Shared
	SharedWithExclusivePending
	Exclusive
)

func (s LockState) String() string {
	switch s {
	case Unlocked:
		return "Unlocked"
	case Shared:
		return "Shared"
	case SharedWithExclusivePending:
		return "SharedWithExclusivePending"
	case Exclusive:
		return "Exclusive"
	default:
		return "Unknown"
	}
}

// SharedLock is a write-preferring reader/writer lock, per spec.md §4.7:
// composed of an inner Lock plus a Barrier counting active readers.
type SharedLock struct {
	r       *Reactor
	inner   *Lock
	readers *Barrier
	writing bool
}

// NewSharedLock constructs an unlocked SharedLock.
func NewSharedLock(r *Reactor) *SharedLock {
	return &SharedLock{r: r, inner: NewLock(r), readers: NewBarrier(r)}
}

// LockRead acquires the inner lock briefly to register as a reader, then
// releases it - multiple readers may hold the SharedLock concurrently.
func (sl *SharedLock) LockRead(timeout Timeout) error {
	if err := sl.inner.Acquire(timeout); err != nil {
		return err
	}
	sl.readers.AddWaiter()
	sl.inner.Release()
	return nil
}

// UnlockRead retires one reader.
func (sl *SharedLock) UnlockRead() { sl.readers.MarkDone() }

// LockWrite acquires the inner lock and waits for every active reader to
// finish, giving writers priority over any readers that arrive afterward
// (since further LockRead calls queue on the same inner lock).
func (sl *SharedLock) LockWrite(timeout Timeout) error {
	if err := sl.inner.Acquire(timeout); err != nil {
		return err
	}
	if err := sl.readers.WaitAll(timeout); err != nil {
		sl.inner.Release()
		return err
	}
	sl.writing = true
	return nil
}

// UnlockWrite releases the inner lock, admitting the next reader or writer.
func (sl *SharedLock) UnlockWrite() {
	sl.writing = false
	sl.inner.Release()
}

// LockState reports the externally visible state, per spec.md §4.7.
func (sl *SharedLock) LockState() LockState {
	switch {
	case sl.writing:
		return Exclusive
	case sl.inner.IsHeld() && sl.readers.Count() > 0:
		return SharedWithExclusivePending
	case sl.readers.Count() > 0:
		return Shared
	default:
		return Unlocked
	}
}

// UnfairSharedLock is a reader/writer lock built from a single counted
// Semaphore, per spec.md §4.7: the first reader acquires the one unit,
// further readers only bump a counter, and the last reader releases it.
type UnfairSharedLock struct {
	r           *Reactor
	sem         *Semaphore
	readerCount int
}

// NewUnfairSharedLock constructs an unlocked UnfairSharedLock.
func NewUnfairSharedLock(r *Reactor) *UnfairSharedLock {
	return &UnfairSharedLock{r: r, sem: NewSemaphore(r, 1)}
}

// LockRead increments the reader count, acquiring the single unit only for
// the first reader.
func (u *UnfairSharedLock) LockRead(timeout Timeout) error {
	if u.readerCount == 0 {
		if err := u.sem.Acquire(1, timeout); err != nil {
			return err
		}
	}
	u.readerCount++
	return nil
}

// UnlockRead decrements the reader count, releasing the unit once the last
// reader leaves.
func (u *UnfairSharedLock) UnlockRead() {
	u.readerCount--
	if u.readerCount == 0 {
		u.sem.Release(1)
	}
}

// LockWrite acquires the single unit exclusively.
func (u *UnfairSharedLock) LockWrite(timeout Timeout) error {
	return u.sem.Acquire(1, timeout)
}

// UnlockWrite releases the single unit.
func (u *UnfairSharedLock) UnlockWrite() { u.sem.Release(1) }
