package reactor

// Semaphore is a counting semaphore with strict FIFO fairness, per spec.md
// §4.7. available may go negative while a capacity reduction is still being
// absorbed by in-flight releases (see SetCapacity).
type Semaphore struct {
	r         *Reactor
	capacity  int
	available int
	queue     *fiberQueue
}

// NewSemaphore constructs a Semaphore with the given initial capacity,
// fully available.
func NewSemaphore(r *Reactor, capacity int) *Semaphore {
	return &Semaphore{r: r, capacity: capacity, available: capacity, queue: newFiberQueue(r, false)}
}

// Acquire reserves n units, suspending (FIFO) until they are available, per
// spec.md §4.7 "acquire". A fiber already queued behind others always waits
// its turn, even if resources happen to be free.
func (sem *Semaphore) Acquire(n int, timeout Timeout) error {
	if !sem.queue.empty() {
		if err := sem.queue.Suspend(timeout); err != nil {
			return err
		}
	}

	// We are now first in line: re-wait at the head of the queue so a
	// fiber that queued after us cannot cut in front while we loop
	// rechecking availability (spec.md §4.7 "primary waiter").
	for sem.available < n {
		if err := sem.queue.SuspendFront(timeout); err != nil {
			return err
		}
	}

	sem.available -= n
	if !sem.queue.empty() && sem.available > 0 {
		sem.queue.resumeOne(false)
	}
	return nil
}

// TryAcquire succeeds only if no fiber is already queued and resources
// suffice; it never suspends.
func (sem *Semaphore) TryAcquire(n int) bool {
	if !sem.queue.empty() || sem.available < n {
		return false
	}
	sem.available -= n
	return true
}

// Release returns n units and wakes one waiter if any are queued.
func (sem *Semaphore) Release(n int) {
	sem.available += n
	if !sem.queue.empty() {
		sem.queue.resumeOne(false)
	}
}

// SetCapacity changes the semaphore's capacity, per spec.md §4.7
// "setCapacity". If immediate, available is adjusted right away (which may
// make available negative, or may temporarily let total acquired exceed the
// new capacity - documented as allowed, not an error, see DESIGN.md). If
// not immediate, the caller instead blocks, effectively acquiring the
// difference, until the reduction can be absorbed safely.
func (sem *Semaphore) SetCapacity(newCap int, immediate bool) error {
	delta := newCap - sem.capacity
	sem.capacity = newCap
	if immediate || delta >= 0 {
		sem.available += delta
		if delta > 0 && !sem.queue.empty() {
			sem.queue.resumeOne(false)
		}
		return nil
	}
	return sem.Acquire(-delta, Infinite)
}

// Available returns the current available count (may be negative).
func (sem *Semaphore) Available() int { return sem.available }

// Capacity returns the configured capacity.
func (sem *Semaphore) Capacity() int { return sem.capacity }
