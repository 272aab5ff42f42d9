package reactor

// GroupState is a FiberGroup's lifecycle state, per spec.md §4.7.
type GroupState int8

const (
	GroupActive GroupState = iota
	GroupClosing
	GroupClosed
)

// FiberGroup tracks a set of member fibers via a second, independent set of
// intrusive links on each slot (groupPrev/groupNext in slot.go), separate
// from the scheduler's own ready-queue links, per spec.md §4.7.
type FiberGroup struct {
	r         *Reactor
	name      string
	state     GroupState
	head, tail int
	len       int
}

// NewFiberGroup constructs an Active FiberGroup.
func NewFiberGroup(r *Reactor, name string) *FiberGroup {
	return &FiberGroup{r: r, name: name, state: GroupActive, head: -1, tail: -1}
}

// State returns the group's current lifecycle state.
func (g *FiberGroup) State() GroupState { return g.state }

func (g *FiberGroup) link(idx int) {
	s := g.r.slots[idx]
	assertf(s.groupOwner == nil, "fiber %d already belongs to a group", idx)
	s.groupOwner = g
	s.groupPrev, s.groupNext = g.tail, -1
	if g.tail >= 0 {
		g.r.slots[g.tail].groupNext = idx
	} else {
		g.head = idx
	}
	g.tail = idx
	g.len++
}

func (g *FiberGroup) unlink(idx int) {
	s := g.r.slots[idx]
	assertf(s.groupOwner == g, "fiber %d is not a member of this group", idx)
	if s.groupPrev >= 0 {
		g.r.slots[s.groupPrev].groupNext = s.groupNext
	} else {
		g.head = s.groupNext
	}
	if s.groupNext >= 0 {
		g.r.slots[s.groupNext].groupPrev = s.groupPrev
	} else {
		g.tail = s.groupPrev
	}
	s.groupPrev, s.groupNext = -1, -1
	s.groupOwner = nil
	g.len--
}

// SpawnFiber spawns fn as a new fiber and adds it as a member. It fails
// (returning the zero handle) if the group is not Active, per spec.md §4.7
// "spawnFiber".
func (g *FiberGroup) SpawnFiber(fn func(FiberHandle)) FiberHandle {
	if g.state != GroupActive {
		return FiberHandle{}
	}
	h := g.r.Spawn(fn)
	s, ok := g.r.resolve(h)
	assertf(ok, "just-spawned fiber handle does not resolve")
	g.link(s.index)
	return h
}

// extinctionErr builds the error injected into group members on Close.
func (g *FiberGroup) extinctionErr() error {
	return &FiberGroupExtinctionError{Group: g.name}
}

// Close transitions the group to Closing and injects a group-specific
// cancellation into every member except the calling fiber. If waitForExit
// is true it then waits for every other member to terminate; if the calling
// fiber is itself a member, it leaves the group last and Close returns the
// group's *FiberGroupExtinctionError to it.
func (g *FiberGroup) Close(waitForExit bool) error {
	if g.state == GroupClosed {
		return nil
	}
	g.state = GroupClosing
	cur := g.r.CurrentFiberHandle()

	for idx := g.head; idx >= 0; {
		s := g.r.slots[idx]
		next := s.groupNext
		if s.handle(g.r.idBits).FiberID() != cur.FiberID() {
			g.r.injectUnchecked(s, g.extinctionErr())
		}
		idx = next
	}

	if !waitForExit {
		g.state = GroupClosed
		return nil
	}

	for g.len > 0 {
		idx := g.head
		s := g.r.slots[idx]
		if s.handle(g.r.idBits).FiberID() == cur.FiberID() {
			// Members other than the caller are processed first; if only
			// the caller remains, commit suicide by leaving the group and
			// returning the same exception to it.
			if g.len == 1 {
				g.unlink(idx)
				g.state = GroupClosed
				return g.extinctionErr()
			}
			s = g.r.slots[s.groupNext]
		}
		_ = g.r.JoinFiber(s.handle(g.r.idBits), Infinite)
	}
	g.state = GroupClosed
	return nil
}

// RunTracked temporarily adds the current fiber as a member for the
// duration of fn. If the group is closed while fn runs, the group
// exception unwinds fn and RunTracked reports completed=false instead of
// propagating; nested RunTracked calls only let the outermost frame catch
// the group exception (an inner call, finding the fiber already a member,
// neither adds nor removes membership and lets the error surface to its
// own caller, which is the outer RunTracked).
func (g *FiberGroup) RunTracked(fn func() error) (completed bool, err error) {
	h := g.r.CurrentFiberHandle()
	s, ok := g.r.resolve(h)
	assertf(ok, "RunTracked: current fiber handle does not resolve")

	alreadyMember := s.groupOwner == g
	if !alreadyMember {
		g.link(s.index)
		defer func() {
			if s.groupOwner == g {
				g.unlink(s.index)
			}
		}()
	}

	fnErr := fn()

	if !alreadyMember {
		if ge, ok := asGroupExtinction(fnErr); ok && ge.Group == g.name {
			return false, nil
		}
	}
	return true, fnErr
}

func asGroupExtinction(err error) (*FiberGroupExtinctionError, bool) {
	ge, ok := err.(*FiberGroupExtinctionError)
	if ok {
		return ge, true
	}
	if ie, ok := err.(*FiberInterruptError); ok {
		if ge, ok := ie.Cause.(*FiberGroupExtinctionError); ok {
			return ge, true
		}
	}
	return nil, false
}
