package vm

import (
	"errors"
	"fmt"
	"log/slog"
)

// DefaultMaxStepsPerTick bounds how many instructions one thread may execute
// in a single tick.
const DefaultMaxStepsPerTick = 10000

// StepResult is the outcome of executing one instruction.
type StepResult int

const (
	StepContinue StepResult = iota // the thread can execute the next instruction
	StepBlocked                    // the thread is waiting; stop stepping it this tick
	StepFinished                   // the thread returned from its entry point
	StepAborted                    // the thread was killed
)

// String returns the result name.
func (r StepResult) String() string {
	switch r {
	case StepContinue:
		return "continue"
	case StepBlocked:
		return "blocked"
	case StepFinished:
		return "finished"
	case StepAborted:
		return "aborted"
	default:
		return fmt.Sprintf("StepResult(%d)", int(r))
	}
}

// Dialog runs the conversation instructions.
type Dialog interface {
	// DialogBegin makes t the conversing thread. It returns false when
	// another thread is conversing; t is then left waiting and repeats the
	// instruction once woken.
	DialogBegin(t *Thread) bool
	// Reply offers a reply to the player.
	Reply(t *Thread, id, str int) error
	// DialogEnd shows the offered replies and blocks t until one is chosen.
	DialogEnd(t *Thread) error
}

// Interpreter decodes and executes bytecode for one thread at a time.
// It holds no per-thread state.
type Interpreter struct {
	table    *OpcodeTable
	dialog   Dialog
	log      *slog.Logger
	maxSteps int
}

// Option configures an Interpreter or Scheduler.
type Option func(*options)

type options struct {
	log        *slog.Logger
	dialog     Dialog
	maxSteps   int
	stackDepth int
	frameDepth int
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithDialog sets the handler of the conversation instructions. Without
// one they fail with ErrorUnknownInstruction.
func WithDialog(d Dialog) Option {
	return func(o *options) {
		o.dialog = d
	}
}

// WithMaxStepsPerTick sets the per-thread instruction budget of one tick.
func WithMaxStepsPerTick(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// WithStackDepth sets the operand stack bound of spawned threads.
func WithStackDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.stackDepth = n
		}
	}
}

// WithFrameDepth sets the call-frame bound of spawned threads.
func WithFrameDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.frameDepth = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		log:        slog.Default(),
		maxSteps:   DefaultMaxStepsPerTick,
		stackDepth: DefaultStackDepth,
		frameDepth: DefaultFrameDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewInterpreter creates an interpreter dispatching natives through table.
func NewInterpreter(table *OpcodeTable, opts ...Option) *Interpreter {
	o := buildOptions(opts)
	return &Interpreter{table: table, dialog: o.dialog, log: o.log, maxSteps: o.maxSteps}
}

// Table returns the opcode table.
func (in *Interpreter) Table() *OpcodeTable {
	return in.table
}

// Run steps t until it blocks, finishes, fails or uses up the tick budget.
// Running out of budget is not an error; the thread resumes next tick.
func (in *Interpreter) Run(t *Thread) (StepResult, error) {
	for range in.maxSteps {
		res, err := in.Step(t)
		if err != nil || res != StepContinue {
			return res, err
		}
	}
	in.log.Warn("thread exceeded step budget, resuming next tick",
		"thread", t.ID, "pc", t.PC, "limit", in.maxSteps)
	return StepContinue, nil
}

// Step executes a single instruction of t.
func (in *Interpreter) Step(t *Thread) (StepResult, error) {
	if t.done {
		return StepFinished, nil
	}
	if t.IsAborted() {
		t.done = true
		return StepAborted, nil
	}

	pc := t.PC
	code := t.Module.Code
	if pc < 0 || pc >= len(code) {
		return in.fail(t, pc, NewRuntimeError(ErrorPCRange, fmt.Sprintf("pc %d outside code (%d bytes)", pc, len(code))))
	}

	r := NewReader(code, pc)
	ins := r.ReadInstruction()

	switch ins {
	case InsNop:
	case InsPush:
		v := r.ReadInt16()
		if r.Err() != nil {
			return in.fail(t, pc, r.Err())
		}
		if err := t.Stack.Push(int32(v)); err != nil {
			return in.fail(t, pc, err)
		}
	case InsPush32:
		v := r.ReadInt32()
		if r.Err() != nil {
			return in.fail(t, pc, r.Err())
		}
		if err := t.Stack.Push(v); err != nil {
			return in.fail(t, pc, err)
		}
	case InsDup:
		v, err := t.Stack.Peek()
		if err == nil {
			err = t.Stack.Push(v)
		}
		if err != nil {
			return in.fail(t, pc, err)
		}
	case InsDrop:
		if _, err := t.Stack.Pop(); err != nil {
			return in.fail(t, pc, err)
		}
	case InsSwap:
		b, err := t.Stack.Pop()
		if err != nil {
			return in.fail(t, pc, err)
		}
		a, err := t.Stack.Pop()
		if err != nil {
			return in.fail(t, pc, err)
		}
		if err := t.Stack.Push(b); err != nil {
			return in.fail(t, pc, err)
		}
		if err := t.Stack.Push(a); err != nil {
			return in.fail(t, pc, err)
		}

	case InsNeg, InsNot:
		v, err := t.Stack.Pop()
		if err != nil {
			return in.fail(t, pc, err)
		}
		if ins == InsNeg {
			v = -v
		} else {
			v = boolValue(v == 0)
		}
		if err := t.Stack.Push(v); err != nil {
			return in.fail(t, pc, err)
		}

	case InsAdd, InsSub, InsMul, InsDiv, InsMod, InsAnd, InsOr, InsXor,
		InsEq, InsNe, InsLt, InsLe, InsGt, InsGe:
		b, err := t.Stack.Pop()
		if err != nil {
			return in.fail(t, pc, err)
		}
		a, err := t.Stack.Pop()
		if err != nil {
			return in.fail(t, pc, err)
		}
		v, err := binaryOp(ins, a, b)
		if err == nil {
			err = t.Stack.Push(v)
		}
		if err != nil {
			return in.fail(t, pc, err)
		}

	case InsJmp, InsJz, InsJnz, InsCall:
		target := int(r.ReadUint16())
		if r.Err() != nil {
			return in.fail(t, pc, r.Err())
		}
		switch ins {
		case InsJmp:
			t.PC = target
			return StepContinue, nil
		case InsCall:
			if err := t.pushFrame(r.Position()); err != nil {
				return in.fail(t, pc, err)
			}
			t.PC = target
			return StepContinue, nil
		}
		v, err := t.Stack.Pop()
		if err != nil {
			return in.fail(t, pc, err)
		}
		if (ins == InsJz) == (v == 0) {
			t.PC = target
			return StepContinue, nil
		}

	case InsReturn:
		ret, ok := t.popFrame()
		if !ok {
			t.done = true
			return StepFinished, nil
		}
		t.PC = ret
		return StepContinue, nil
	case InsExit:
		t.done = true
		return StepFinished, nil

	case InsCallNative:
		return in.callNative(t, pc, r)

	case InsPushReturn:
		if err := t.Stack.Push(t.ReturnValue); err != nil {
			return in.fail(t, pc, err)
		}
	case InsGetVar, InsSetVar:
		idx := Var(r.ReadUint8())
		if r.Err() != nil {
			return in.fail(t, pc, r.Err())
		}
		if ins == InsGetVar {
			var v int32
			if idx < NumVars {
				v = t.Vars[idx]
			} else {
				in.log.Warn("invalid thread variable", "thread", t.ID, "pc", pc, "var", idx)
			}
			if err := t.Stack.Push(v); err != nil {
				return in.fail(t, pc, err)
			}
		} else {
			v, err := t.Stack.Pop()
			if err != nil {
				return in.fail(t, pc, err)
			}
			if idx < NumVars {
				t.Vars[idx] = v
			} else {
				in.log.Warn("invalid thread variable", "thread", t.ID, "pc", pc, "var", idx)
			}
		}

	case InsDialogBegin, InsReply, InsDialogEnd:
		return in.dialogStep(t, pc, ins, r)

	default:
		return in.fail(t, pc, NewRuntimeError(ErrorUnknownInstruction, fmt.Sprintf("unknown instruction 0x%02X", byte(ins))))
	}

	t.PC = r.Position()
	return StepContinue, nil
}

// callNative dispatches CALL_NATIVE and enforces the native stack contract.
func (in *Interpreter) callNative(t *Thread, pc int, r *Reader) (StepResult, error) {
	index := int(r.ReadUint16())
	argc := int(r.ReadUint8())
	if r.Err() != nil {
		return in.fail(t, pc, r.Err())
	}
	if in.table == nil {
		return in.fail(t, pc, NewUnknownOpcodeError(index))
	}
	entry, err := in.table.Lookup(index)
	if err != nil {
		return in.fail(t, pc, err)
	}
	if argc > MaxNativeArgs {
		return in.failNative(t, pc, entry, NewArgBoundError("native argument count", argc, MaxNativeArgs))
	}
	if have := t.Stack.Len(); have < argc {
		return in.failNative(t, pc, entry, NewStackUnderflowError(argc, have))
	}

	t.popped = 0
	t.reenter = false
	t.PC = r.Position()

	if err := entry.Fn(t, argc); err != nil {
		return in.failNative(t, pc, entry, err)
	}

	if t.reenter {
		t.reenter = false
		if t.popped != 0 {
			return in.failNative(t, pc, entry, NewRuntimeError(ErrorStackImbalance,
				fmt.Sprintf("re-entrant native popped %d arguments", t.popped)))
		}
		t.PC = pc
		return StepBlocked, nil
	}
	if t.popped != argc {
		return in.failNative(t, pc, entry, NewRuntimeError(ErrorStackImbalance,
			fmt.Sprintf("native popped %d of %d arguments", t.popped, argc)))
	}
	if t.IsAborted() {
		t.done = true
		return StepAborted, nil
	}
	if t.IsWaiting() || t.IsSleeping() {
		return StepBlocked, nil
	}
	return StepContinue, nil
}

func (in *Interpreter) dialogStep(t *Thread, pc int, ins Instruction, r *Reader) (StepResult, error) {
	if in.dialog == nil {
		return in.fail(t, pc, NewRuntimeError(ErrorUnknownInstruction, fmt.Sprintf("%s without a dialog handler", ins)))
	}
	switch ins {
	case InsDialogBegin:
		if !in.dialog.DialogBegin(t) {
			t.PC = pc
			return StepBlocked, nil
		}
	case InsReply:
		id := int(r.ReadUint16())
		str := int(r.ReadUint16())
		if r.Err() != nil {
			return in.fail(t, pc, r.Err())
		}
		if err := in.dialog.Reply(t, id, str); err != nil {
			return in.fail(t, pc, err)
		}
	case InsDialogEnd:
		if err := in.dialog.DialogEnd(t); err != nil {
			return in.fail(t, pc, err)
		}
	}
	t.PC = r.Position()
	if t.IsWaiting() {
		return StepBlocked, nil
	}
	return StepContinue, nil
}

func (in *Interpreter) failNative(t *Thread, pc int, entry *OpcodeEntry, err error) (StepResult, error) {
	var re *RuntimeError
	if errors.As(err, &re) && re.Opcode == "" {
		re.Opcode = entry.Name
	} else if re == nil {
		err = fmt.Errorf("%s: %w", entry.Name, err)
	}
	return in.fail(t, pc, err)
}

// fail attaches the thread location to runtime errors and ends the thread.
func (in *Interpreter) fail(t *Thread, pc int, err error) (StepResult, error) {
	var re *RuntimeError
	if errors.As(err, &re) {
		re.at(t, pc)
	}
	t.done = true
	return StepAborted, err
}

func binaryOp(ins Instruction, a, b int32) (int32, error) {
	switch ins {
	case InsAdd:
		return a + b, nil
	case InsSub:
		return a - b, nil
	case InsMul:
		return a * b, nil
	case InsDiv, InsMod:
		if b == 0 {
			return 0, NewRuntimeError(ErrorDivisionByZero, "division by zero")
		}
		if ins == InsDiv {
			return a / b, nil
		}
		return a % b, nil
	case InsAnd:
		return a & b, nil
	case InsOr:
		return a | b, nil
	case InsXor:
		return a ^ b, nil
	case InsEq:
		return boolValue(a == b), nil
	case InsNe:
		return boolValue(a != b), nil
	case InsLt:
		return boolValue(a < b), nil
	case InsLe:
		return boolValue(a <= b), nil
	case InsGt:
		return boolValue(a > b), nil
	case InsGe:
		return boolValue(a >= b), nil
	}
	return 0, NewRuntimeError(ErrorUnknownInstruction, fmt.Sprintf("not a binary operator: %s", ins))
}

func boolValue(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
