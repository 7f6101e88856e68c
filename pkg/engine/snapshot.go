package engine

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/grayfoxier/scummvm/pkg/display"
	"github.com/grayfoxier/scummvm/pkg/events"
	"github.com/grayfoxier/scummvm/pkg/opcode"
	"github.com/grayfoxier/scummvm/pkg/vm"
)

// snapshotVersion is bumped whenever the snapshot layout changes.
const snapshotVersion = 2

// ErrSnapshotMismatch is returned when a snapshot was taken from another
// title or layout.
var ErrSnapshotMismatch = errors.New("engine: snapshot does not match engine")

type snapshot struct {
	Version      int              `cbor:"1,keyasint"`
	Session      uuid.UUID        `cbor:"2,keyasint"`
	Title        opcode.Title     `cbor:"3,keyasint"`
	Tick         int64            `cbor:"4,keyasint"`
	Frame        int64            `cbor:"5,keyasint"`
	Globals      globals          `cbor:"6,keyasint"`
	Threads      []vm.ThreadState `cbor:"7,keyasint,omitempty"`
	Events       []events.Node    `cbor:"8,keyasint,omitempty"`
	PlacardText  int              `cbor:"9,keyasint"`
	PlacardPanel display.Panel    `cbor:"10,keyasint"`
	Replies      []Reply          `cbor:"11,keyasint,omitempty"`
}

var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("engine: failed to create CBOR enc mode: %v", err))
	}
	snapshotEncMode = em
}

// Snapshot captures the live threads, the pending events and the global
// script state. Event payloads in Record.Data are not captured. Snapshot
// must not be called during Tick.
func (e *Engine) Snapshot() ([]byte, error) {
	s := snapshot{
		Version:      snapshotVersion,
		Session:      e.session,
		Title:        e.title,
		Tick:         e.tick,
		Frame:        e.frame,
		Globals:      e.globals,
		Events:       e.events.Pending(),
		PlacardText:  e.placardText,
		Replies:      e.replies,
		PlacardPanel: e.placardPanel,
	}
	s.Globals.Conversing = 0
	if e.conversing != nil {
		s.Globals.Conversing = e.conversing.ID
	}
	for _, t := range e.sched.Threads() {
		if !t.IsDone() {
			s.Threads = append(s.Threads, t.State())
		}
	}
	b, err := snapshotEncMode.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("engine: encode snapshot: %w", err)
	}
	return b, nil
}

// Restore replaces the runtime state with a snapshot taken by Snapshot on an
// engine running the same title and modules. The session id is kept.
func (e *Engine) Restore(data []byte) error {
	var s snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("engine: decode snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrSnapshotMismatch, s.Version, snapshotVersion)
	}
	if s.Title != e.title {
		return fmt.Errorf("%w: title %s, want %s", ErrSnapshotMismatch, s.Title, e.title)
	}

	threads := make([]*vm.Thread, 0, len(s.Threads))
	for _, st := range s.Threads {
		if st.ModuleIndex < 0 || st.ModuleIndex >= len(e.modules) {
			return vm.NewResourceRangeError("module", st.ModuleIndex, len(e.modules))
		}
		t, err := vm.RestoreThread(st, e.modules[st.ModuleIndex], e.stackDepth, e.frameDepth)
		if err != nil {
			return err
		}
		threads = append(threads, t)
	}
	if err := e.events.Restore(s.Events); err != nil {
		return err
	}

	e.sched.Reset()
	e.conversing = nil
	for _, t := range threads {
		e.sched.Adopt(t)
		if s.Globals.Conversing != 0 && t.ID == s.Globals.Conversing {
			e.conversing = t
		}
	}
	e.clearReplies()
	for _, r := range s.Replies {
		e.addReply(r)
	}
	if t := e.conversing; t != nil && t.WaitCondition() == vm.Dialog() {
		for _, r := range e.replies {
			e.screen.ShowText(r.textID)
		}
	}
	e.tick = s.Tick
	e.frame = s.Frame
	e.globals = s.Globals
	e.placardText = s.PlacardText
	e.placardPanel = s.PlacardPanel
	e.terminated = false
	e.log.Info("snapshot restored", "from", s.Session.String(), "tick", s.Tick, "threads", len(threads))
	return nil
}
