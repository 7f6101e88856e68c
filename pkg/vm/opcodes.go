package vm

import (
	"fmt"

	"github.com/grayfoxier/scummvm/pkg/opcode"
)

// MaxNativeArgs bounds the argument count of a single native call.
const MaxNativeArgs = 16

// NativeFunc implements a native script function. It pops exactly argc
// values from t through t.Pop or t.Args, unless it requests re-entry, in
// which case it pops nothing.
type NativeFunc func(t *Thread, argc int) error

// OpcodeEntry binds an opcode number to a native function.
type OpcodeEntry struct {
	Kind opcode.Kind
	Name string
	Args int // declared argument count, or opcode.Variadic
	Fn   NativeFunc
}

// OpcodeTable is the per-title dispatch table indexed by opcode number.
// It is built once and not modified afterwards.
type OpcodeTable struct {
	title   opcode.Title
	entries []OpcodeEntry
}

// NewOpcodeTable builds a table from a title layout. natives supplies an
// implementation per kind; kinds missing from natives are bound to fallback,
// which must not be nil.
func NewOpcodeTable(title opcode.Title, natives map[opcode.Kind]NativeFunc, fallback NativeFunc) (*OpcodeTable, error) {
	layout := opcode.Layout(title)
	if layout == nil {
		return nil, fmt.Errorf("vm: no opcode layout for title %q", title)
	}
	if fallback == nil {
		return nil, fmt.Errorf("vm: opcode table for %s needs a fallback native", title)
	}
	entries := make([]OpcodeEntry, len(layout))
	for i, k := range layout {
		fn := natives[k]
		if fn == nil {
			fn = fallback
		}
		entries[i] = OpcodeEntry{Kind: k, Name: k.String(), Args: k.Args(), Fn: fn}
	}
	return &OpcodeTable{title: title, entries: entries}, nil
}

// Title returns the title the table was built for.
func (tb *OpcodeTable) Title() opcode.Title {
	return tb.title
}

// Len returns the number of opcodes.
func (tb *OpcodeTable) Len() int {
	return len(tb.entries)
}

// Lookup returns the entry for an opcode number.
func (tb *OpcodeTable) Lookup(index int) (*OpcodeEntry, error) {
	if index < 0 || index >= len(tb.entries) {
		return nil, NewUnknownOpcodeError(index)
	}
	return &tb.entries[index], nil
}

// NativeName implements NativeNamer.
func (tb *OpcodeTable) NativeName(index int) string {
	if e, err := tb.Lookup(index); err == nil {
		return e.Name
	}
	return fmt.Sprintf("unknown_%d", index)
}
