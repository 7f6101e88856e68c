package vm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/grayfoxier/scummvm/pkg/opcode"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestInterpreter_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		a, b int16
		ins  Instruction
		want int32
	}{
		{"add", 7, 3, InsAdd, 10},
		{"sub", 7, 3, InsSub, 4},
		{"mul", -7, 3, InsMul, -21},
		{"div truncates", -7, 2, InsDiv, -3},
		{"mod", 7, 3, InsMod, 1},
		{"and", 6, 3, InsAnd, 2},
		{"or", 6, 3, InsOr, 7},
		{"xor", 6, 3, InsXor, 5},
		{"eq", 3, 3, InsEq, 1},
		{"ne", 3, 3, InsNe, 0},
		{"lt", 2, 3, InsLt, 1},
		{"le", 3, 3, InsLe, 1},
		{"gt", 2, 3, InsGt, 0},
		{"ge", 2, 3, InsGe, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := NewBuilder().Push(tt.a).Push(tt.b).Emit(tt.ins).Emit(InsExit).Bytes()
			th := newTestThread(code)
			in := NewInterpreter(newTestTable(t, nil), WithLogger(quietLogger()))

			for range 3 {
				if _, err := in.Step(th); err != nil {
					t.Fatalf("Step: %v", err)
				}
			}
			got, err := th.Stack.Peek()
			if err != nil {
				t.Fatalf("Peek: %v", err)
			}
			if got != tt.want {
				t.Errorf("result = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInterpreter_UnaryAndStackOps(t *testing.T) {
	code := NewBuilder().
		Push(5).Emit(InsNeg). // -5
		Push(0).Emit(InsNot). // -5 1
		Emit(InsSwap).        // 1 -5
		Emit(InsDup).         // 1 -5 -5
		Emit(InsDrop).        // 1 -5
		Push32(100000).       // 1 -5 100000
		Emit(InsExit).
		Bytes()
	th := newTestThread(code)
	in := NewInterpreter(newTestTable(t, nil), WithLogger(quietLogger()))

	res, err := runUntilStop(t, in, th, 20)
	if err != nil || res != StepFinished {
		t.Fatalf("run = %v, %v; want finished", res, err)
	}
	if diff := cmp.Diff([]int32{1, -5, 100000}, th.Stack.Values()); diff != "" {
		t.Errorf("stack mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpreter_ControlFlow(t *testing.T) {
	// sum = 0; for i = 5; i != 0; i-- { sum += i }
	b := NewBuilder()
	loop, done := b.NewLabel(), b.NewLabel()
	b.Push(0).Var(InsSetVar, VarAction)
	b.Push(5).Var(InsSetVar, VarTheObject)
	b.Mark(loop)
	b.Var(InsGetVar, VarTheObject).JumpTo(InsJz, done)
	b.Var(InsGetVar, VarAction).Var(InsGetVar, VarTheObject).Emit(InsAdd).Var(InsSetVar, VarAction)
	b.Var(InsGetVar, VarTheObject).Push(1).Emit(InsSub).Var(InsSetVar, VarTheObject)
	b.JumpTo(InsJmp, loop)
	b.Mark(done)
	b.Emit(InsReturn)

	th := newTestThread(b.Bytes())
	in := NewInterpreter(newTestTable(t, nil), WithLogger(quietLogger()))
	res, err := runUntilStop(t, in, th, 500)
	if err != nil || res != StepFinished {
		t.Fatalf("run = %v, %v; want finished", res, err)
	}
	if th.Vars[VarAction] != 15 {
		t.Errorf("sum = %d, want 15", th.Vars[VarAction])
	}
	if !th.IsDone() {
		t.Error("thread should be done")
	}
}

func TestInterpreter_CallReturn(t *testing.T) {
	b := NewBuilder()
	sub := b.NewLabel()
	b.JumpTo(InsCall, sub).Push(2).Emit(InsExit)
	b.Mark(sub)
	b.Push(1).Emit(InsReturn)

	th := newTestThread(b.Bytes())
	in := NewInterpreter(newTestTable(t, nil), WithLogger(quietLogger()))
	res, err := runUntilStop(t, in, th, 20)
	if err != nil || res != StepFinished {
		t.Fatalf("run = %v, %v; want finished", res, err)
	}
	if diff := cmp.Diff([]int32{1, 2}, th.Stack.Values()); diff != "" {
		t.Errorf("stack mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpreter_FatalErrors(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want ErrorType
	}{
		{"unknown instruction", []byte{0xFF}, ErrorUnknownInstruction},
		{"unknown opcode", NewBuilder().CallNative(500, 0).Bytes(), ErrorUnknownOpcode},
		{"too many arguments", NewBuilder().CallNative(opPutString, MaxNativeArgs+1).Bytes(), ErrorArgBound},
		{"arguments missing", NewBuilder().Push(1).CallNative(opPutString, 2).Bytes(), ErrorStackUnderflow},
		{"pop on empty stack", NewBuilder().Emit(InsDrop).Bytes(), ErrorStackUnderflow},
		{"division by zero", NewBuilder().Push(1).Push(0).Emit(InsDiv).Bytes(), ErrorDivisionByZero},
		{"modulo by zero", NewBuilder().Push(1).Push(0).Emit(InsMod).Bytes(), ErrorDivisionByZero},
		{"jump outside code", NewBuilder().Jump(InsJmp, 999).Bytes(), ErrorPCRange},
		{"truncated operand", []byte{byte(InsPush), 0x01}, ErrorPCRange},
		{"fall off the end", NewBuilder().Emit(InsNop).Bytes(), ErrorPCRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := newTestThread(tt.code)
			in := NewInterpreter(newTestTable(t, nil), WithLogger(quietLogger()))
			res, err := runUntilStop(t, in, th, 10)
			if err == nil {
				t.Fatalf("expected error, got result %v", res)
			}
			var re *RuntimeError
			if !errors.As(err, &re) {
				t.Fatalf("error %v is not a RuntimeError", err)
			}
			if re.Type != tt.want {
				t.Errorf("Type = %s, want %s", re.Type, tt.want)
			}
			if !re.IsFatal() {
				t.Error("error should be fatal")
			}
			if re.Thread != th.ID {
				t.Errorf("Thread = %d, want %d", re.Thread, th.ID)
			}
		})
	}
}

func TestInterpreter_FrameOverflow(t *testing.T) {
	// A subroutine that calls itself forever.
	code := NewBuilder().Jump(InsCall, 0).Bytes()
	m := &Module{Name: "test", Code: code}
	th := NewThread(1, m, 0, 0, 0, 4)
	in := NewInterpreter(newTestTable(t, nil), WithLogger(quietLogger()))

	_, err := runUntilStop(t, in, th, 10)
	if got := fatalType(err); got != ErrorFrameOverflow {
		t.Errorf("error = %v, want FRAME_OVERFLOW", err)
	}
	if n := len(th.Frames()); n != 4 {
		t.Errorf("frames = %d, want 4", n)
	}
}

func TestInterpreter_NativeStackImbalance(t *testing.T) {
	popOne := func(t *Thread, argc int) error {
		_, err := t.Pop()
		return err
	}
	table := newTestTable(t, map[opcode.Kind]NativeFunc{opcode.Wait: popOne})
	in := NewInterpreter(table, WithLogger(quietLogger()))

	th := newTestThread(NewBuilder().Push(1).Push(2).CallNative(opWait, 2).Emit(InsExit).Bytes())
	_, err := runUntilStop(t, in, th, 10)
	var re *RuntimeError
	if !errors.As(err, &re) || re.Type != ErrorStackImbalance {
		t.Fatalf("error = %v, want STACK_IMBALANCE", err)
	}
	if re.Opcode != "sfWait" {
		t.Errorf("Opcode = %q, want sfWait", re.Opcode)
	}
}

func TestInterpreter_NativeErrorIsWrapped(t *testing.T) {
	boom := errors.New("collaborator failed")
	table := newTestTable(t, map[opcode.Kind]NativeFunc{
		opcode.PutString: func(t *Thread, argc int) error { return boom },
	})
	in := NewInterpreter(table, WithLogger(quietLogger()))

	th := newTestThread(NewBuilder().CallNative(opPutString, 0).Bytes())
	_, err := in.Step(th)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
}

func TestInterpreter_BlockingNative(t *testing.T) {
	wait := func(t *Thread, argc int) error {
		a := t.Args()
		n := a.Int32()
		if a.Err() != nil {
			return a.Err()
		}
		t.Wait(Delay(int64(n)))
		return nil
	}
	table := newTestTable(t, map[opcode.Kind]NativeFunc{opcode.Wait: wait})
	in := NewInterpreter(table, WithLogger(quietLogger()))

	code := NewBuilder().Push(5).CallNative(opWait, 1).Emit(InsExit).Bytes()
	th := newTestThread(code)

	res, err := runUntilStop(t, in, th, 10)
	if err != nil || res != StepBlocked {
		t.Fatalf("run = %v, %v; want blocked", res, err)
	}
	if th.PC != 7 {
		t.Errorf("PC = %d, want 7 (past the call)", th.PC)
	}
	if th.Stack.Len() != 0 {
		t.Errorf("stack depth = %d, want 0", th.Stack.Len())
	}
	if got := th.WaitCondition(); got != Delay(5) {
		t.Errorf("wait = %v, want %v", got, Delay(5))
	}
}

func TestInterpreter_ReentrantNative(t *testing.T) {
	ready := false
	calls := 0
	getNumber := func(t *Thread, argc int) error {
		calls++
		if !ready {
			t.Wait(Named(TagStatusTextInput))
			t.Reenter()
			return nil
		}
		a := t.Args()
		a.Skip(argc)
		t.ReturnValue = 42
		return a.Err()
	}
	table := newTestTable(t, map[opcode.Kind]NativeFunc{opcode.GetNumber: getNumber})
	in := NewInterpreter(table, WithLogger(quietLogger()))

	code := NewBuilder().Push(9).CallNative(opGetNumber, 1).Emit(InsPushReturn).Emit(InsExit).Bytes()
	th := newTestThread(code)

	res, err := runUntilStop(t, in, th, 10)
	if err != nil || res != StepBlocked {
		t.Fatalf("first pass = %v, %v; want blocked", res, err)
	}
	if th.PC != 3 {
		t.Errorf("PC = %d, want 3 (rewound to the call)", th.PC)
	}
	if th.Stack.Len() != 1 {
		t.Errorf("argument should stay on the stack, depth = %d", th.Stack.Len())
	}

	ready = true
	th.clearWait()
	res, err = runUntilStop(t, in, th, 10)
	if err != nil || res != StepFinished {
		t.Fatalf("second pass = %v, %v; want finished", res, err)
	}
	if calls != 2 {
		t.Errorf("native called %d times, want 2", calls)
	}
	if diff := cmp.Diff([]int32{42}, th.Stack.Values()); diff != "" {
		t.Errorf("stack mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpreter_ReentrantNativeMustNotPop(t *testing.T) {
	bad := func(t *Thread, argc int) error {
		t.Pop()
		t.Wait(Named(TagStatusTextInput))
		t.Reenter()
		return nil
	}
	table := newTestTable(t, map[opcode.Kind]NativeFunc{opcode.GetNumber: bad})
	in := NewInterpreter(table, WithLogger(quietLogger()))

	th := newTestThread(NewBuilder().Push(1).CallNative(opGetNumber, 1).Bytes())
	_, err := runUntilStop(t, in, th, 10)
	var re *RuntimeError
	if !errors.As(err, &re) || re.Type != ErrorStackImbalance {
		t.Fatalf("error = %v, want STACK_IMBALANCE", err)
	}
}

func TestInterpreter_AbortedBeforeInstruction(t *testing.T) {
	th := newTestThread(NewBuilder().Push(1).Emit(InsExit).Bytes())
	in := NewInterpreter(newTestTable(t, nil), WithLogger(quietLogger()))
	th.abort()

	res, err := in.Step(th)
	if err != nil || res != StepAborted {
		t.Fatalf("Step = %v, %v; want aborted", res, err)
	}
	if th.Stack.Len() != 0 || th.PC != 0 {
		t.Error("an aborted thread must not execute")
	}
}

func TestInterpreter_InvalidVariableIsRecoverable(t *testing.T) {
	code := NewBuilder().Var(InsGetVar, Var(9)).Push(3).Var(InsSetVar, Var(9)).Emit(InsExit).Bytes()
	th := newTestThread(code)
	in := NewInterpreter(newTestTable(t, nil), WithLogger(quietLogger()))

	res, err := runUntilStop(t, in, th, 10)
	if err != nil || res != StepFinished {
		t.Fatalf("run = %v, %v; want finished", res, err)
	}
	if diff := cmp.Diff([]int32{0}, th.Stack.Values()); diff != "" {
		t.Errorf("stack mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpreter_Dialog(t *testing.T) {
	code := NewBuilder().Emit(InsDialogBegin).Reply(1, 2).Reply(4, 5).Emit(InsDialogEnd).Emit(InsExit).Bytes()
	d := &fakeDialog{busy: true}
	in := NewInterpreter(newTestTable(t, nil), WithLogger(quietLogger()), WithDialog(d))
	th := newTestThread(code)

	res, err := in.Step(th)
	if err != nil || res != StepBlocked {
		t.Fatalf("Step = %v, %v; want blocked", res, err)
	}
	if th.PC != 0 || th.WaitCondition() != Named(TagDialogBegin) {
		t.Fatalf("pc %d wait %v, want DIALOG_BEGIN repeated after the open dialog", th.PC, th.WaitCondition())
	}

	d.busy = false
	th.clearWait()
	res, err = runUntilStop(t, in, th, 10)
	if err != nil || res != StepBlocked {
		t.Fatalf("run = %v, %v; want blocked in DIALOG_END", res, err)
	}
	if th.WaitCondition() != Dialog() {
		t.Errorf("wait = %v, want dialog", th.WaitCondition())
	}
	if th.PC != len(code)-1 {
		t.Errorf("pc = %d, want %d (after DIALOG_END)", th.PC, len(code)-1)
	}
	if diff := cmp.Diff([][2]int{{1, 2}, {4, 5}}, d.replies); diff != "" {
		t.Errorf("replies mismatch (-want +got):\n%s", diff)
	}
	if d.begun != 1 || d.ended != 1 {
		t.Errorf("begun %d ended %d, want 1 and 1", d.begun, d.ended)
	}
}

func TestInterpreter_DialogWithoutHandler(t *testing.T) {
	th := newTestThread(NewBuilder().Emit(InsDialogBegin).Bytes())
	in := NewInterpreter(newTestTable(t, nil), WithLogger(quietLogger()))
	res, err := in.Step(th)
	if res != StepAborted || fatalType(err) != ErrorUnknownInstruction {
		t.Errorf("Step = %v, %v; want aborted with %s", res, err, ErrorUnknownInstruction)
	}
}

func TestInterpreter_StepBudget(t *testing.T) {
	b := NewBuilder()
	top := b.NewLabel()
	b.Mark(top)
	b.JumpTo(InsJmp, top)

	th := newTestThread(b.Bytes())
	in := NewInterpreter(newTestTable(t, nil), WithLogger(quietLogger()), WithMaxStepsPerTick(50))
	res, err := in.Run(th)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res != StepContinue {
		t.Errorf("Run = %v, want continue", res)
	}
	if th.IsDone() {
		t.Error("a thread out of budget must stay alive")
	}
}

// Every native call that pops its declared arguments leaves the stack
// exactly argc values shallower.
func TestPropertyNativeStackBalance(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("a balanced native removes exactly argc values", prop.ForAll(
		func(base, argc int) bool {
			b := NewBuilder()
			for i := range base + argc {
				b.Push(int16(i))
			}
			b.CallNative(opIsCarried, uint8(argc)).Emit(InsExit)

			th := newTestThread(b.Bytes())
			in := NewInterpreter(newTestTable(t, nil), WithLogger(quietLogger()))
			for range base + argc {
				if _, err := in.Step(th); err != nil {
					return false
				}
			}
			res, err := in.Step(th)
			return err == nil && res == StepContinue && th.Stack.Len() == base
		},
		gen.IntRange(0, 20),
		gen.IntRange(0, MaxNativeArgs),
	))

	properties.Property("an unbalanced native is fatal", prop.ForAll(
		func(argc, popped int) bool {
			if popped == argc {
				popped = (popped + 1) % (MaxNativeArgs + 1)
			}
			native := func(t *Thread, _ int) error {
				t.Args().Skip(popped)
				return nil
			}
			b := NewBuilder()
			for i := range MaxNativeArgs {
				b.Push(int16(i))
			}
			b.CallNative(opIsCarried, uint8(argc))

			th := newTestThread(b.Bytes())
			table := newTestTable(t, map[opcode.Kind]NativeFunc{opcode.IsCarried: native})
			in := NewInterpreter(table, WithLogger(quietLogger()))
			_, err := runUntilStop(t, in, th, MaxNativeArgs+2)
			var re *RuntimeError
			return errors.As(err, &re) && re.Type == ErrorStackImbalance
		},
		gen.IntRange(0, MaxNativeArgs),
		gen.IntRange(0, MaxNativeArgs),
	))

	properties.TestingRun(t)
}
