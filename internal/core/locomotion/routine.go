package locomotion

// Status is the result of advancing a routine by one tick.
type Status uint8

const (
	StatusRunning Status = iota
	StatusCompleted
)

func (s Status) String() string {
	if s == StatusCompleted {
		return "completed"
	}
	return "running"
}

// Routine is a resumable unit of timed behaviour. Advance is called once per
// tick with the elapsed time since the previous tick.
type Routine interface {
	Name() string
	Advance(dt float64) Status
}

// Canceler is implemented by routines that must restore shared state when
// they are stopped before completing.
type Canceler interface {
	Cancel()
}

// Handle identifies a started routine.
type Handle struct {
	routine Routine
	done    bool
}

func (h *Handle) Done() bool { return h == nil || h.done }

// Scheduler runs routines in start order. A routine started while the
// scheduler is stepping gets its first Advance(0) immediately and is stepped
// again from the next tick on.
type Scheduler struct {
	active []*Handle
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Start registers r and runs its first frame.
func (s *Scheduler) Start(r Routine) *Handle {
	h := &Handle{routine: r}
	s.active = append(s.active, h)
	if r.Advance(0) == StatusCompleted {
		h.done = true
	}
	return h
}

// Step advances every routine that was active when the tick began.
func (s *Scheduler) Step(dt float64) {
	snapshot := append([]*Handle(nil), s.active...)
	for _, h := range snapshot {
		if h.done {
			continue
		}
		if h.routine.Advance(dt) == StatusCompleted {
			h.done = true
		}
	}
	s.compact()
}

// Stop cancels one routine.
func (s *Scheduler) Stop(h *Handle) {
	if h == nil || h.done {
		return
	}
	h.done = true
	if c, ok := h.routine.(Canceler); ok {
		c.Cancel()
	}
	s.compact()
}

// StopAll cancels every active routine in start order.
func (s *Scheduler) StopAll() {
	stopped := s.active
	s.active = nil
	for _, h := range stopped {
		if h.done {
			continue
		}
		h.done = true
		if c, ok := h.routine.(Canceler); ok {
			c.Cancel()
		}
	}
}

// Active reports the number of routines still running.
func (s *Scheduler) Active() int {
	n := 0
	for _, h := range s.active {
		if !h.done {
			n++
		}
	}
	return n
}

// Names lists the running routines, mostly for logs and snapshots.
func (s *Scheduler) Names() []string {
	out := make([]string, 0, len(s.active))
	for _, h := range s.active {
		if !h.done {
			out = append(out, h.routine.Name())
		}
	}
	return out
}

func (s *Scheduler) compact() {
	kept := s.active[:0]
	for _, h := range s.active {
		if !h.done {
			kept = append(kept, h)
		}
	}
	for i := len(kept); i < len(s.active); i++ {
		s.active[i] = nil
	}
	s.active = kept
}
