package reactor

import (
	"errors"
	"math"
	"time"
)

// ErrThrottleExceedsBurst is returned by Throttler.Withdraw (the
// non-overdraft variant) when n exceeds the configured burst size.
var ErrThrottleExceedsBurst = errors.New("reactor: withdrawal exceeds throttler burst size")

// Throttler is a token-bucket rate limiter, per spec.md §4.7. Token
// arithmetic uses wall-clock time.Duration rather than the spec's literal
// "TSC cycles / ticks per token", since Go has no portable cheap
// cycle-counter read; time.Now() plays the role of the cycle counter and
// ticksPerToken becomes "duration per token".
type Throttler struct {
	r             *Reactor
	balance       float64
	lastDeposit   time.Time
	ticksPerToken time.Duration
	burst         float64
	queue         *fiberQueue
	overdraft     bool
}

// NewThrottler constructs a Throttler issuing tokens at ratePerSecond, up to
// burst tokens banked.
func NewThrottler(r *Reactor, ratePerSecond, burst float64) *Throttler {
	return newThrottler(r, ratePerSecond, burst, false)
}

// NewThrottlerOverdraft constructs the overdraft variant: withdrawals of any
// size proceed so long as the balance is non-negative at the time of the
// check (the balance may then go negative, "borrowing" against future
// deposits).
func NewThrottlerOverdraft(r *Reactor, ratePerSecond, burst float64) *Throttler {
	return newThrottler(r, ratePerSecond, burst, true)
}

func newThrottler(r *Reactor, ratePerSecond, burst float64, overdraft bool) *Throttler {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &Throttler{
		r:             r,
		balance:       burst,
		lastDeposit:   r.now(),
		ticksPerToken: time.Duration(float64(time.Second) / ratePerSecond),
		burst:         burst,
		queue:         newFiberQueue(r, false),
		overdraft:     overdraft,
	}
}

// deposit credits whole tokens earned since the last deposit, clamped to
// burst, advancing lastDeposit by exactly that many whole ticksPerToken
// periods so fractional progress is never lost to rounding (spec.md §4.7
// "deposit").
func (t *Throttler) deposit() {
	now := t.r.now()
	elapsed := now.Sub(t.lastDeposit)
	if elapsed <= 0 || t.ticksPerToken <= 0 {
		return
	}
	whole := elapsed / t.ticksPerToken
	if whole <= 0 {
		return
	}
	t.balance = math.Min(t.balance+float64(whole), t.burst)
	t.lastDeposit = t.lastDeposit.Add(time.Duration(whole) * t.ticksPerToken)
}

// Withdraw withdraws n tokens, suspending until they are available, per
// spec.md §4.7. A caller that finds fibers queued waits behind them in FIFO
// order. The fiber currently sleeping for tokens is not on the queue, so a
// caller arriving during that sleep does not wait behind it.
func (t *Throttler) Withdraw(n int, timeout Timeout) error {
	if !t.overdraft && float64(n) > t.burst {
		return ErrThrottleExceedsBurst
	}

	if !t.queue.empty() {
		if err := t.queue.Suspend(timeout); err != nil {
			return err
		}
	}

	var deadline time.Time
	if timeout.isFinite() {
		deadline = t.r.now().Add(timeout.d)
	}

	for {
		t.deposit()

		if t.satisfied(n) {
			t.balance -= float64(n)
			if !t.queue.empty() {
				t.queue.resumeOne(false)
			}
			return nil
		}

		if timeout.isElapsed() {
			return ErrTimeoutExpired
		}

		needed := t.tokensNeeded(n)
		wait := time.Duration(math.Ceil(needed)) * t.ticksPerToken
		if wait <= 0 {
			wait = t.ticksPerToken
		}

		if timeout.isFinite() {
			remaining := deadline.Sub(t.r.now())
			if remaining <= 0 {
				return ErrTimeoutExpired
			}
			if wait > remaining {
				_ = t.r.Sleep(remaining)
				return ErrTimeoutExpired
			}
		}

		if err := t.r.Sleep(wait); err != nil {
			return err
		}
	}
}

func (t *Throttler) satisfied(n int) bool {
	if t.overdraft {
		return t.balance >= 0
	}
	return t.balance >= float64(n)
}

func (t *Throttler) tokensNeeded(n int) float64 {
	if t.overdraft {
		return -t.balance
	}
	return float64(n) - t.balance
}

// Balance returns the current token balance (possibly negative for the
// overdraft variant), depositing first to bring it up to date.
func (t *Throttler) Balance() float64 {
	t.deposit()
	return t.balance
}
