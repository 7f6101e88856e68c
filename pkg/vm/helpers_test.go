package vm

import (
	"io"
	"log/slog"
	"testing"

	"github.com/grayfoxier/scummvm/pkg/opcode"
)

// Opcode numbers used by the tests, taken from the ITE layout.
const (
	opPutString = 0
	opWait      = 1
	opIsCarried = 3
	opGetNumber = 20
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// popAll is a native that pops every argument and does nothing else.
func popAll(t *Thread, argc int) error {
	a := t.Args()
	a.Skip(argc)
	return a.Err()
}

// newTestTable builds an ITE table with the given natives and popAll for
// every other kind.
func newTestTable(tb testing.TB, natives map[opcode.Kind]NativeFunc) *OpcodeTable {
	tb.Helper()
	table, err := NewOpcodeTable(opcode.ITE, natives, popAll)
	if err != nil {
		tb.Fatalf("NewOpcodeTable: %v", err)
	}
	return table
}

func newTestThread(code []byte) *Thread {
	m := &Module{Name: "test", Code: code, Entries: []uint16{0}}
	return NewThread(1, m, 0, 0, 0, 0)
}

// runUntilStop steps t until a step result other than StepContinue or an
// error, failing the test after limit steps.
func runUntilStop(tb testing.TB, in *Interpreter, t *Thread, limit int) (StepResult, error) {
	tb.Helper()
	for range limit {
		res, err := in.Step(t)
		if err != nil || res != StepContinue {
			return res, err
		}
	}
	tb.Fatalf("thread still running after %d steps", limit)
	return StepContinue, nil
}

func fatalType(err error) ErrorType {
	re, ok := err.(*RuntimeError)
	if !ok {
		return ""
	}
	return re.Type
}

// fakeDialog records conversation instructions. While busy, DialogBegin
// leaves the thread waiting for the open dialog.
type fakeDialog struct {
	busy    bool
	begun   int
	replies [][2]int
	ended   int
}

func (d *fakeDialog) DialogBegin(t *Thread) bool {
	if d.busy {
		t.Wait(Named(TagDialogBegin))
		return false
	}
	d.begun++
	return true
}

func (d *fakeDialog) Reply(t *Thread, id, str int) error {
	d.replies = append(d.replies, [2]int{id, str})
	return nil
}

func (d *fakeDialog) DialogEnd(t *Thread) error {
	d.ended++
	t.Wait(Dialog())
	return nil
}
