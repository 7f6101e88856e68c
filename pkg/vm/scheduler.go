package vm

import (
	"fmt"
	"log/slog"
)

// Scheduler owns the live script threads and steps them cooperatively, one
// pass per tick in registration order.
type Scheduler struct {
	interp     *Interpreter
	log        *slog.Logger
	stackDepth int
	frameDepth int

	threads []*Thread
	nextID  int
	running bool
}

// NewScheduler creates a scheduler that executes threads with interp.
func NewScheduler(interp *Interpreter, opts ...Option) *Scheduler {
	o := buildOptions(opts)
	return &Scheduler{
		interp:     interp,
		log:        o.log,
		stackDepth: o.stackDepth,
		frameDepth: o.frameDepth,
		nextID:     1,
	}
}

// Spawn creates a thread at entry point entry of m and appends it to the run
// list. args are pushed bottom first. A thread spawned while Run is in
// progress is first stepped on the next tick.
func (s *Scheduler) Spawn(m *Module, moduleIndex, entry int, args []int32, owner ActorID) (*Thread, error) {
	pc, err := m.Entry(entry)
	if err != nil {
		return nil, err
	}
	t := NewThread(s.nextID, m, moduleIndex, pc, s.stackDepth, s.frameDepth)
	if err := t.Stack.Reset(args); err != nil {
		return nil, fmt.Errorf("spawn %s:%d: %w", m.Name, entry, err)
	}
	t.SetOwner(owner)
	s.nextID++
	s.threads = append(s.threads, t)
	s.log.Debug("thread spawned", "thread", t.ID, "module", m.Name, "entry", entry, "owner", owner)
	return t, nil
}

// Adopt appends an already built thread, for example one restored from a
// snapshot. Later spawns get ids above every adopted id.
func (s *Scheduler) Adopt(t *Thread) {
	if t.ID >= s.nextID {
		s.nextID = t.ID + 1
	}
	s.threads = append(s.threads, t)
}

// Run steps every thread that was registered when the pass began. Waiting
// and sleeping threads are skipped. Finished and aborted threads are removed
// after the pass. A fatal error stops the pass and is returned.
func (s *Scheduler) Run(tick int64) error {
	s.running = true
	defer func() {
		s.running = false
		s.compact()
	}()

	n := len(s.threads)
	for i := 0; i < n; i++ {
		t := s.threads[i]
		if t.done || (!t.IsAborted() && !t.Runnable()) {
			continue
		}
		res, err := s.interp.Run(t)
		if err != nil {
			return fmt.Errorf("tick %d: thread %d: %w", tick, t.ID, err)
		}
		switch res {
		case StepFinished:
			s.log.Debug("thread finished", "thread", t.ID, "tick", tick)
		case StepAborted:
			s.log.Debug("thread aborted", "thread", t.ID, "tick", tick)
		}
	}
	return nil
}

func (s *Scheduler) compact() {
	live := s.threads[:0]
	for _, t := range s.threads {
		if !t.done {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(s.threads); i++ {
		s.threads[i] = nil
	}
	s.threads = live
}

// Wake releases t if it waits on a condition matching c. It reports whether
// the thread was released; a thread is never released twice by one wait.
func (s *Scheduler) Wake(t *Thread, c WaitCondition) bool {
	if t == nil || t.done || !t.IsWaiting() || !t.wait.Matches(c) {
		return false
	}
	t.clearWait()
	return true
}

// WakeAll releases every thread waiting on a condition matching c and
// returns how many were released.
func (s *Scheduler) WakeAll(c WaitCondition) int {
	n := 0
	for _, t := range s.threads {
		if s.Wake(t, c) {
			n++
		}
	}
	if n > 0 {
		s.log.Debug("threads woken", "condition", c, "count", n)
	}
	return n
}

// KillThreadsOf aborts every thread owned by actor except caller. Killed
// threads stop before their next instruction and are removed on the next
// pass. It returns the number of threads newly aborted.
func (s *Scheduler) KillThreadsOf(actor ActorID, caller *Thread) int {
	if actor == NoActor {
		return 0
	}
	n := 0
	for _, t := range s.threads {
		if t == caller || t.done || t.IsAborted() || t.Owner() != actor {
			continue
		}
		t.abort()
		n++
	}
	if n > 0 {
		s.log.Debug("actor threads killed", "actor", actor, "count", n)
	}
	return n
}

// ReleaseTimers releases Delay waits due by the next tick and Frames waits
// whose target frame has been reached.
func (s *Scheduler) ReleaseTimers(tick, frame int64) int {
	n := 0
	for _, t := range s.threads {
		if t.done || !t.IsWaiting() {
			continue
		}
		switch w := t.wait; w.Kind {
		case WaitDelay:
			if w.Deadline <= tick+1 {
				t.clearWait()
				n++
			}
		case WaitFrames:
			if w.Deadline <= frame {
				t.clearWait()
				n++
			}
		}
	}
	return n
}

// Threads returns the registered threads in registration order.
func (s *Scheduler) Threads() []*Thread {
	out := make([]*Thread, len(s.threads))
	copy(out, s.threads)
	return out
}

// Find returns the live thread with the given id, or nil.
func (s *Scheduler) Find(id int) *Thread {
	for _, t := range s.threads {
		if t.ID == id && !t.done {
			return t
		}
	}
	return nil
}

// Len returns the number of registered threads, including ones awaiting
// removal.
func (s *Scheduler) Len() int {
	return len(s.threads)
}

// Idle reports whether no live thread remains.
func (s *Scheduler) Idle() bool {
	for _, t := range s.threads {
		if !t.done {
			return false
		}
	}
	return true
}

// Reset drops every thread. Thread ids keep increasing.
func (s *Scheduler) Reset() {
	if s.running {
		for _, t := range s.threads {
			t.abort()
		}
		return
	}
	clear(s.threads)
	s.threads = s.threads[:0]
}
