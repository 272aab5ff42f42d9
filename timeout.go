package reactor

import "time"

// Timeout models a bounded wait duration, per spec.md §5 "Timeouts": a
// special Infinite value never fires, and a special Elapsed value causes an
// immediate ErrTimeoutExpired without suspension.
type Timeout struct {
	d         time.Duration
	infinite  bool
	elapsed   bool
}

// Infinite never expires.
var Infinite = Timeout{infinite: true}

// Elapsed expires immediately, without suspending the caller.
var Elapsed = Timeout{elapsed: true}

// After returns a Timeout that expires after d.
func After(d time.Duration) Timeout {
	if d <= 0 {
		return Elapsed
	}
	return Timeout{d: d}
}

func (t Timeout) isFinite() bool { return !t.infinite && !t.elapsed }
func (t Timeout) isElapsed() bool { return t.elapsed }
