// Package vm provides error handling for the script virtual machine.
package vm

import (
	"fmt"
)

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	// Fatal errors - the session must stop
	ErrorUnknownOpcode      ErrorType = "UNKNOWN_OPCODE"
	ErrorUnknownInstruction ErrorType = "UNKNOWN_INSTRUCTION"
	ErrorStackUnderflow     ErrorType = "STACK_UNDERFLOW"
	ErrorStackOverflow      ErrorType = "STACK_OVERFLOW"
	ErrorFrameOverflow      ErrorType = "FRAME_OVERFLOW"
	ErrorArgBound           ErrorType = "ARG_BOUND"
	ErrorPCRange            ErrorType = "PC_RANGE"
	ErrorStackImbalance     ErrorType = "STACK_IMBALANCE"
	ErrorDivisionByZero     ErrorType = "DIVISION_BY_ZERO"

	// Non-fatal errors - logged, execution continues
	ErrorInvalidID      ErrorType = "INVALID_ID"
	ErrorResourceRange  ErrorType = "RESOURCE_RANGE"
	ErrorFrameClamp     ErrorType = "FRAME_CLAMP"
	ErrorInvalidHandle  ErrorType = "INVALID_HANDLE"
	ErrorInvalidOperand ErrorType = "INVALID_OPERAND"
)

// RuntimeError represents a runtime error raised while a thread executes.
type RuntimeError struct {
	Type    ErrorType
	Message string
	Thread  int    // Thread ID if available, -1 otherwise
	PC      int    // Program counter if available, -1 otherwise
	Opcode  string // Native opcode name if the error came from a native call
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	switch {
	case e.Thread >= 0 && e.Opcode != "":
		return fmt.Sprintf("[%s] %s (thread %d, pc %04d, %s)", e.Type, e.Message, e.Thread, e.PC, e.Opcode)
	case e.Thread >= 0:
		return fmt.Sprintf("[%s] %s (thread %d, pc %04d)", e.Type, e.Message, e.Thread, e.PC)
	default:
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
}

// IsFatal returns true if the error indicates a corrupted program or a
// mismatched opcode table, in which case the whole session must end.
func (e *RuntimeError) IsFatal() bool {
	switch e.Type {
	case ErrorUnknownOpcode, ErrorUnknownInstruction, ErrorStackUnderflow,
		ErrorStackOverflow, ErrorFrameOverflow, ErrorArgBound, ErrorPCRange,
		ErrorStackImbalance, ErrorDivisionByZero:
		return true
	default:
		return false
	}
}

// NewRuntimeError creates a new RuntimeError without location information.
func NewRuntimeError(errType ErrorType, message string) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: message,
		Thread:  -1,
		PC:      -1,
	}
}

// at attaches the thread location to the error if it has none yet.
func (e *RuntimeError) at(t *Thread, pc int) *RuntimeError {
	if e.Thread < 0 && t != nil {
		e.Thread = t.ID
		e.PC = pc
	}
	return e
}

// NewStackOverflowError creates a stack overflow error.
func NewStackOverflowError(depth int) *RuntimeError {
	return NewRuntimeError(ErrorStackOverflow, fmt.Sprintf("stack overflow: depth %d exceeds maximum", depth))
}

// NewStackUnderflowError creates a stack underflow error.
func NewStackUnderflowError(want, have int) *RuntimeError {
	return NewRuntimeError(ErrorStackUnderflow, fmt.Sprintf("stack underflow: need %d values, have %d", want, have))
}

// NewUnknownOpcodeError creates an error for a native opcode index that has
// no table entry.
func NewUnknownOpcodeError(index int) *RuntimeError {
	return NewRuntimeError(ErrorUnknownOpcode, fmt.Sprintf("unknown native opcode %d", index))
}

// NewArgBoundError creates an error for an argument count above a fixed bound.
func NewArgBoundError(what string, count, max int) *RuntimeError {
	return NewRuntimeError(ErrorArgBound, fmt.Sprintf("%s: count %d exceeds maximum %d", what, count, max))
}

// NewInvalidIDError creates a recoverable error for an unknown actor, object
// or zone id.
func NewInvalidIDError(kind string, id int) *RuntimeError {
	return NewRuntimeError(ErrorInvalidID, fmt.Sprintf("invalid %s id %d", kind, id))
}

// NewResourceRangeError creates a recoverable error for a resource index
// outside its table.
func NewResourceRangeError(kind string, index, length int) *RuntimeError {
	return NewRuntimeError(ErrorResourceRange, fmt.Sprintf("%s %d out of range (length %d)", kind, index, length))
}
