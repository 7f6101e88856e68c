package vm

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Module is a unit of bytecode with its entry point table. Entry numbers
// used by scripts and events index Entries.
type Module struct {
	Name    string   `cbor:"1,keyasint"`
	Code    []byte   `cbor:"2,keyasint"`
	Entries []uint16 `cbor:"3,keyasint,omitempty"`
	// Voices maps string ids to voice sample resources; negative entries
	// mean "no voice".
	Voices []int16 `cbor:"4,keyasint,omitempty"`
}

// ErrNoEntry is returned when an entry point number is not in the module.
var ErrNoEntry = errors.New("no such entry point")

// Entry returns the code offset of entry point n.
func (m *Module) Entry(n int) (int, error) {
	if n < 0 || n >= len(m.Entries) {
		return 0, fmt.Errorf("%w: %s has %d entries, want %d", ErrNoEntry, m.Name, len(m.Entries), n)
	}
	return int(m.Entries[n]), nil
}

// Voice returns the voice sample for a string id, or -1.
func (m *Module) Voice(stringID int) int {
	if stringID < 0 || stringID >= len(m.Voices) {
		return -1
	}
	return int(m.Voices[stringID])
}

var moduleEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	moduleEncMode = em
}

// LoadModule decodes a CBOR module container.
func LoadModule(r io.Reader) (*Module, error) {
	var m Module
	if err := cbor.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("vm: decode module: %w", err)
	}
	for i, e := range m.Entries {
		if int(e) >= len(m.Code) {
			return nil, fmt.Errorf("vm: module %s entry %d at %d is outside code (%d bytes)", m.Name, i, e, len(m.Code))
		}
	}
	return &m, nil
}

// WriteModule encodes a module container.
func WriteModule(w io.Writer, m *Module) error {
	if err := moduleEncMode.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("vm: encode module: %w", err)
	}
	return nil
}
