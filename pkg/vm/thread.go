package vm

// ActorID identifies an actor in the world. Zero means "no actor".
type ActorID int16

// NoActor is the zero actor id; it never owns threads.
const NoActor ActorID = 0

// DefaultFrameDepth is the default maximum subroutine nesting of a thread.
const DefaultFrameDepth = 64

// ThreadFlags is the state bitset of a thread.
type ThreadFlags uint8

const (
	FlagWaiting ThreadFlags = 1 << iota
	FlagAborted
	FlagSleeping
)

// Var indexes the per-thread variables set up when a script entry point is
// invoked on behalf of an actor or object.
type Var uint8

const (
	VarActor Var = iota
	VarAction
	VarTheObject
	VarWithObject
	NumVars
)

// Thread is one cooperative script execution context: a program counter,
// an operand stack, a wait condition and a few registers. A thread is owned
// by the scheduler and is never shared.
type Thread struct {
	ID          int
	Module      *Module
	ModuleIndex int
	PC          int
	Stack       *ValueStack
	ReturnValue int32
	Vars        [NumVars]int32

	frames    []int
	maxFrames int
	flags     ThreadFlags
	wait      WaitCondition
	done      bool

	// per-call bookkeeping for the native ABI
	popped  int
	reenter bool
}

// NewThread creates a thread positioned at entry in module.
func NewThread(id int, module *Module, moduleIndex, entry int, stackDepth, frameDepth int) *Thread {
	if frameDepth <= 0 {
		frameDepth = DefaultFrameDepth
	}
	return &Thread{
		ID:          id,
		Module:      module,
		ModuleIndex: moduleIndex,
		PC:          entry,
		Stack:       NewValueStack(stackDepth),
		maxFrames:   frameDepth,
	}
}

// Owner returns the actor this thread runs on behalf of.
func (t *Thread) Owner() ActorID {
	return ActorID(t.Vars[VarActor])
}

// SetOwner sets the owning actor.
func (t *Thread) SetOwner(a ActorID) {
	t.Vars[VarActor] = int32(a)
}

// Flags returns the raw flag set.
func (t *Thread) Flags() ThreadFlags {
	return t.flags
}

// IsWaiting reports whether the thread is blocked on a wait condition.
func (t *Thread) IsWaiting() bool {
	return t.flags&FlagWaiting != 0
}

// IsAborted reports whether the thread was killed.
func (t *Thread) IsAborted() bool {
	return t.flags&FlagAborted != 0
}

// IsSleeping reports whether the thread is parked outside the wait system.
func (t *Thread) IsSleeping() bool {
	return t.flags&FlagSleeping != 0
}

// IsDone reports whether the thread finished or was aborted and is due for
// removal.
func (t *Thread) IsDone() bool {
	return t.done
}

// Runnable reports whether the scheduler should step the thread.
func (t *Thread) Runnable() bool {
	return !t.done && t.flags&(FlagWaiting|FlagSleeping) == 0
}

// WaitCondition returns the current wait condition.
func (t *Thread) WaitCondition() WaitCondition {
	return t.wait
}

// Wait blocks the thread on c. If the thread already waits on something,
// the old condition is replaced and returned with replaced set so the caller
// can report it.
func (t *Thread) Wait(c WaitCondition) (prev WaitCondition, replaced bool) {
	prev, replaced = t.wait, t.IsWaiting()
	t.wait = c
	t.flags |= FlagWaiting
	return prev, replaced
}

// clearWait releases the thread.
func (t *Thread) clearWait() {
	t.flags &^= FlagWaiting
	t.wait = WaitCondition{}
}

// abort marks the thread as killed. Waiting is cleared so the scheduler
// reaches it and reaps it.
func (t *Thread) abort() {
	t.flags &^= FlagWaiting
	t.flags |= FlagAborted
	t.wait = WaitCondition{}
}

// SetSleeping parks or unparks the thread.
func (t *Thread) SetSleeping(sleeping bool) {
	if sleeping {
		t.flags |= FlagSleeping
	} else {
		t.flags &^= FlagSleeping
	}
}

// Push pushes a value onto the thread's stack.
func (t *Thread) Push(v int32) error {
	return t.Stack.Push(v)
}

// Pop pops a value and counts it against the current native call.
func (t *Thread) Pop() (int32, error) {
	v, err := t.Stack.Pop()
	if err == nil {
		t.popped++
	}
	return v, err
}

// Reenter asks the interpreter to run the current native call again once
// the thread's wait clears. The native must not have popped any argument.
func (t *Thread) Reenter() {
	t.reenter = true
}

// Frames returns a copy of the subroutine return addresses, outermost first.
func (t *Thread) Frames() []int {
	out := make([]int, len(t.frames))
	copy(out, t.frames)
	return out
}

func (t *Thread) pushFrame(ret int) error {
	if len(t.frames) >= t.maxFrames {
		return NewRuntimeError(ErrorFrameOverflow, "call depth exceeds maximum")
	}
	t.frames = append(t.frames, ret)
	return nil
}

func (t *Thread) popFrame() (int, bool) {
	n := len(t.frames)
	if n == 0 {
		return 0, false
	}
	ret := t.frames[n-1]
	t.frames = t.frames[:n-1]
	return ret, true
}

// Args is a cursor over a native call's arguments. It records the first
// error so natives can pop everything and check once.
type Args struct {
	t   *Thread
	err error
}

// Args returns an argument cursor for the current native call.
func (t *Thread) Args() *Args {
	return &Args{t: t}
}

// Int32 pops the next argument.
func (a *Args) Int32() int32 {
	if a.err != nil {
		return 0
	}
	v, err := a.t.Pop()
	if err != nil {
		a.err = err
	}
	return v
}

// Int16 pops the next argument as a signed 16-bit game value.
func (a *Args) Int16() int16 {
	return int16(a.Int32())
}

// Uint16 pops the next argument as an unsigned 16-bit game value.
func (a *Args) Uint16() uint16 {
	return uint16(a.Int32())
}

// Int pops the next argument as an int16-ranged int.
func (a *Args) Int() int {
	return int(a.Int16())
}

// Actor pops the next argument as an actor id.
func (a *Args) Actor() ActorID {
	return ActorID(a.Int16())
}

// Skip pops and discards n arguments.
func (a *Args) Skip(n int) {
	for range n {
		a.Int32()
	}
}

// Err returns the first error encountered.
func (a *Args) Err() error {
	return a.err
}
