package reactor

// FiberState models the lifecycle of a fiber slot, per spec.md §3/§4.2.
//
// Valid transitions:
//
//	None      -> Starting   (Spawn)
//	Starting  -> Running    (first switch in)
//	Running   -> Sleeping   (suspend / blocking primitive)
//	Sleeping  -> Scheduled  (resume_fiber)
//	Scheduled -> Running    (switch_to_next dequeues it)
//	Running   -> Done       (entry function returns or throws uncaught)
//	Done      -> None       (scheduler recycles the slot)
type FiberState int8

const (
	// FiberNone indicates a free slot.
	FiberNone FiberState = iota
	// FiberStarting indicates a spawned fiber that has not yet run.
	FiberStarting
	// FiberScheduled indicates a fiber queued to run (conceptually; see
	// getFiberState, which derives this from Sleeping+SCHEDULED).
	FiberScheduled
	// FiberRunning indicates the single fiber currently executing.
	FiberRunning
	// FiberSleeping indicates a fiber parked on some fiber queue.
	FiberSleeping
	// FiberDone indicates a terminated fiber awaiting slot recycling.
	FiberDone
)

func (s FiberState) String() string {
	switch s {
	case FiberNone:
		return "None"
	case FiberStarting:
		return "Starting"
	case FiberScheduled:
		return "Scheduled"
	case FiberRunning:
		return "Running"
	case FiberSleeping:
		return "Sleeping"
	case FiberDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// slotFlags are the bit flags carried per spec.md §3.
type slotFlags uint32

const (
	flagCallbackSet slotFlags = 1 << iota
	flagSpecial
	flagScheduled
	flagSleeping
	flagHasException
	flagExceptionBT
	flagGCEnabled
	flagPriority
)

func (f slotFlags) has(bit slotFlags) bool { return f&bit != 0 }
