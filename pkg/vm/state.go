package vm

import "fmt"

// ThreadState is the serialisable state of a thread.
type ThreadState struct {
	ID          int            `cbor:"1,keyasint"`
	ModuleIndex int            `cbor:"2,keyasint"`
	PC          int            `cbor:"3,keyasint"`
	Stack       []int32        `cbor:"4,keyasint,omitempty"`
	Frames      []int          `cbor:"5,keyasint,omitempty"`
	Flags       ThreadFlags    `cbor:"6,keyasint"`
	Wait        WaitCondition  `cbor:"7,keyasint"`
	ReturnValue int32          `cbor:"8,keyasint"`
	Vars        [NumVars]int32 `cbor:"9,keyasint"`
}

// State captures the thread's state.
func (t *Thread) State() ThreadState {
	return ThreadState{
		ID:          t.ID,
		ModuleIndex: t.ModuleIndex,
		PC:          t.PC,
		Stack:       t.Stack.Values(),
		Frames:      t.Frames(),
		Flags:       t.flags,
		Wait:        t.wait,
		ReturnValue: t.ReturnValue,
		Vars:        t.Vars,
	}
}

// RestoreThread rebuilds a thread from its captured state.
func RestoreThread(st ThreadState, m *Module, stackDepth, frameDepth int) (*Thread, error) {
	if m == nil {
		return nil, fmt.Errorf("vm: thread %d: module %d not loaded", st.ID, st.ModuleIndex)
	}
	if st.PC < 0 || st.PC >= len(m.Code) {
		return nil, fmt.Errorf("vm: thread %d: pc %d outside module %s", st.ID, st.PC, m.Name)
	}
	t := NewThread(st.ID, m, st.ModuleIndex, st.PC, stackDepth, frameDepth)
	if err := t.Stack.Reset(st.Stack); err != nil {
		return nil, fmt.Errorf("vm: thread %d: %w", st.ID, err)
	}
	if len(st.Frames) > t.maxFrames {
		return nil, fmt.Errorf("vm: thread %d: %d frames exceed depth %d", st.ID, len(st.Frames), t.maxFrames)
	}
	t.frames = append(t.frames, st.Frames...)
	t.flags = st.Flags
	t.wait = st.Wait
	t.ReturnValue = st.ReturnValue
	t.Vars = st.Vars
	return t, nil
}
