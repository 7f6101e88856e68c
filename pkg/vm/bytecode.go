package vm

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Instruction definitions
// ---------------------------------------------------------------------------

// Instruction is a single bytecode instruction byte.
type Instruction byte

// Stack operations
const (
	InsNop    Instruction = 0x00 // no operation
	InsPush   Instruction = 0x01 // push signed 16-bit immediate
	InsPush32 Instruction = 0x02 // push signed 32-bit immediate
	InsDup    Instruction = 0x03 // duplicate top of stack
	InsDrop   Instruction = 0x04 // discard top of stack
	InsSwap   Instruction = 0x05 // swap the two top values
)

// Arithmetic and logic
const (
	InsAdd Instruction = 0x10
	InsSub Instruction = 0x11
	InsMul Instruction = 0x12
	InsDiv Instruction = 0x13
	InsMod Instruction = 0x14
	InsNeg Instruction = 0x15
	InsAnd Instruction = 0x16
	InsOr  Instruction = 0x17
	InsXor Instruction = 0x18
	InsNot Instruction = 0x19 // logical not
	InsEq  Instruction = 0x1A
	InsNe  Instruction = 0x1B
	InsLt  Instruction = 0x1C
	InsLe  Instruction = 0x1D
	InsGt  Instruction = 0x1E
	InsGe  Instruction = 0x1F
)

// Control flow. Jump and call targets are absolute 16-bit offsets.
const (
	InsJmp    Instruction = 0x20
	InsJz     Instruction = 0x21 // pop; jump if zero
	InsJnz    Instruction = 0x22 // pop; jump if non-zero
	InsCall   Instruction = 0x23 // subroutine call within the module
	InsReturn Instruction = 0x24 // return from subroutine, or finish the thread
	InsExit   Instruction = 0x25 // finish the thread regardless of frames
)

// Native calls and registers
const (
	InsCallNative Instruction = 0x30 // opcode u16, argc u8
	InsPushReturn Instruction = 0x31 // push the thread's return value register
	InsGetVar     Instruction = 0x32 // push thread variable u8
	InsSetVar     Instruction = 0x33 // pop into thread variable u8
)

// Conversation. A thread opens the reply menu with DIALOG_BEGIN, offers
// replies and blocks in DIALOG_END until one is chosen; the chosen reply id
// is then on top of its stack.
const (
	InsDialogBegin Instruction = 0x40 // become the conversing thread, or wait for the open dialog
	InsReply       Instruction = 0x41 // offer reply id u16 with text string u16
	InsDialogEnd   Instruction = 0x42 // show the replies and wait for a choice
)

// InstructionInfo describes an instruction's encoding.
type InstructionInfo struct {
	Name         string
	OperandBytes int
}

var instructionTable = map[Instruction]InstructionInfo{
	InsNop:    {"NOP", 0},
	InsPush:   {"PUSH", 2},
	InsPush32: {"PUSH32", 4},
	InsDup:    {"DUP", 0},
	InsDrop:   {"DROP", 0},
	InsSwap:   {"SWAP", 0},

	InsAdd: {"ADD", 0},
	InsSub: {"SUB", 0},
	InsMul: {"MUL", 0},
	InsDiv: {"DIV", 0},
	InsMod: {"MOD", 0},
	InsNeg: {"NEG", 0},
	InsAnd: {"AND", 0},
	InsOr:  {"OR", 0},
	InsXor: {"XOR", 0},
	InsNot: {"NOT", 0},
	InsEq:  {"EQ", 0},
	InsNe:  {"NE", 0},
	InsLt:  {"LT", 0},
	InsLe:  {"LE", 0},
	InsGt:  {"GT", 0},
	InsGe:  {"GE", 0},

	InsJmp:    {"JMP", 2},
	InsJz:     {"JZ", 2},
	InsJnz:    {"JNZ", 2},
	InsCall:   {"CALL", 2},
	InsReturn: {"RETURN", 0},
	InsExit:   {"EXIT", 0},

	InsCallNative: {"CALL_NATIVE", 3},
	InsPushReturn: {"PUSH_RETURN", 0},
	InsGetVar:     {"GET_VAR", 1},
	InsSetVar:     {"SET_VAR", 1},

	InsDialogBegin: {"DIALOG_BEGIN", 0},
	InsReply:       {"REPLY", 4},
	InsDialogEnd:   {"DIALOG_END", 0},
}

// Info returns the metadata for an instruction.
func (ins Instruction) Info() (InstructionInfo, bool) {
	info, ok := instructionTable[ins]
	return info, ok
}

// String implements the Stringer interface.
func (ins Instruction) String() string {
	if info, ok := instructionTable[ins]; ok {
		return info.Name
	}
	return fmt.Sprintf("UNKNOWN_%02X", byte(ins))
}

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

// Builder constructs bytecode for a module.
type Builder struct {
	bytes []byte
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{bytes: make([]byte, 0, 64)}
}

// Bytes returns the constructed bytecode.
func (b *Builder) Bytes() []byte {
	return b.bytes
}

// Len returns the current length, which is also the offset of the next
// instruction.
func (b *Builder) Len() int {
	return len(b.bytes)
}

// Emit appends an instruction with no operands.
func (b *Builder) Emit(ins Instruction) *Builder {
	b.bytes = append(b.bytes, byte(ins))
	return b
}

// Push appends a 16-bit immediate push.
func (b *Builder) Push(v int16) *Builder {
	b.bytes = append(b.bytes, byte(InsPush), byte(v), byte(uint16(v)>>8))
	return b
}

// Push32 appends a 32-bit immediate push.
func (b *Builder) Push32(v int32) *Builder {
	b.bytes = append(b.bytes, byte(InsPush32))
	b.bytes = binary.LittleEndian.AppendUint32(b.bytes, uint32(v))
	return b
}

// Jump appends a jump or call to an absolute target.
func (b *Builder) Jump(ins Instruction, target int) *Builder {
	b.bytes = append(b.bytes, byte(ins), byte(target), byte(target>>8))
	return b
}

// CallNative appends a native call.
func (b *Builder) CallNative(opcode uint16, argc uint8) *Builder {
	b.bytes = append(b.bytes, byte(InsCallNative), byte(opcode), byte(opcode>>8), argc)
	return b
}

// Var appends GET_VAR or SET_VAR.
func (b *Builder) Var(ins Instruction, v Var) *Builder {
	b.bytes = append(b.bytes, byte(ins), byte(v))
	return b
}

// Reply appends a REPLY offering id with the text of string str.
func (b *Builder) Reply(id, str uint16) *Builder {
	b.bytes = append(b.bytes, byte(InsReply), byte(id), byte(id>>8), byte(str), byte(str>>8))
	return b
}

// Label is a jump target that may be resolved after it is referenced.
type Label struct {
	resolved bool
	position int
	refs     []int
}

// NewLabel creates an unresolved label.
func (b *Builder) NewLabel() *Label {
	return &Label{refs: make([]int, 0, 2)}
}

// Mark resolves a label to the current position and patches references.
func (b *Builder) Mark(label *Label) {
	if label.resolved {
		panic("label already resolved")
	}
	label.resolved = true
	label.position = len(b.bytes)
	for _, ref := range label.refs {
		b.bytes[ref] = byte(label.position)
		b.bytes[ref+1] = byte(label.position >> 8)
	}
	label.refs = nil
}

// JumpTo appends a jump or call to a label.
func (b *Builder) JumpTo(ins Instruction, label *Label) *Builder {
	b.bytes = append(b.bytes, byte(ins))
	if label.resolved {
		b.bytes = append(b.bytes, byte(label.position), byte(label.position>>8))
	} else {
		label.refs = append(label.refs, len(b.bytes))
		b.bytes = append(b.bytes, 0, 0)
	}
	return b
}

// ---------------------------------------------------------------------------
// Reader
// ---------------------------------------------------------------------------

// Reader decodes bytecode. Reads past the end set a sticky error instead of
// panicking, so a truncated module is reported as a fatal runtime error.
type Reader struct {
	bytes []byte
	pos   int
	err   error
}

// NewReader creates a reader positioned at pos.
func NewReader(code []byte, pos int) *Reader {
	return &Reader{bytes: code, pos: pos}
}

// Position returns the read position.
func (r *Reader) Position() int {
	return r.pos
}

// HasMore reports whether unread bytes remain.
func (r *Reader) HasMore() bool {
	return r.pos < len(r.bytes)
}

// Err returns the first out-of-range read.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos < 0 || r.pos+n > len(r.bytes) {
		r.err = NewRuntimeError(ErrorPCRange, fmt.Sprintf("read of %d bytes at %d past end of code (%d)", n, r.pos, len(r.bytes)))
		return false
	}
	return true
}

// ReadInstruction reads an instruction byte.
func (r *Reader) ReadInstruction() Instruction {
	return Instruction(r.ReadUint8())
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() byte {
	if !r.need(1) {
		return 0
	}
	b := r.bytes[r.pos]
	r.pos++
	return b
}

// ReadUint16 reads a little-endian 16-bit value.
func (r *Reader) ReadUint16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.bytes[r.pos:])
	r.pos += 2
	return v
}

// ReadInt16 reads a little-endian signed 16-bit value.
func (r *Reader) ReadInt16() int16 {
	return int16(r.ReadUint16())
}

// ReadInt32 reads a little-endian signed 32-bit value.
func (r *Reader) ReadInt32() int32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.bytes[r.pos:])
	r.pos += 4
	return int32(v)
}

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// NativeNamer resolves native opcode numbers to names for disassembly.
type NativeNamer interface {
	NativeName(index int) string
}

// DisassembleInstruction disassembles the instruction at the reader's
// position and advances past it.
func DisassembleInstruction(r *Reader, names NativeNamer) string {
	pos := r.Position()
	ins := r.ReadInstruction()
	info, ok := ins.Info()
	if !ok {
		return fmt.Sprintf("%04d  %s", pos, ins)
	}

	switch ins {
	case InsPush:
		return fmt.Sprintf("%04d  %s %d", pos, info.Name, r.ReadInt16())
	case InsPush32:
		return fmt.Sprintf("%04d  %s %d", pos, info.Name, r.ReadInt32())
	case InsJmp, InsJz, InsJnz, InsCall:
		return fmt.Sprintf("%04d  %s %04d", pos, info.Name, r.ReadUint16())
	case InsCallNative:
		op := int(r.ReadUint16())
		argc := r.ReadUint8()
		name := fmt.Sprintf("#%d", op)
		if names != nil {
			name = fmt.Sprintf("%s (#%d)", names.NativeName(op), op)
		}
		return fmt.Sprintf("%04d  %s %s argc=%d", pos, info.Name, name, argc)
	case InsGetVar, InsSetVar:
		return fmt.Sprintf("%04d  %s %d", pos, info.Name, r.ReadUint8())
	case InsReply:
		id := r.ReadUint16()
		return fmt.Sprintf("%04d  %s %d str=%d", pos, info.Name, id, r.ReadUint16())
	default:
		return fmt.Sprintf("%04d  %s", pos, info.Name)
	}
}

// Disassemble returns a listing of code, one instruction per line.
func Disassemble(code []byte, names NativeNamer) string {
	r := NewReader(code, 0)
	var sb strings.Builder
	for r.HasMore() && r.Err() == nil {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(DisassembleInstruction(r, names))
	}
	if r.Err() != nil {
		sb.WriteString(" <truncated>")
	}
	return sb.String()
}
