package vm

import "errors"

var (
	ErrStackUnderflow       = errors.New("stack underflow")
	ErrInvalidMemoryAccess  = errors.New("invalid memory access")
	ErrInvalidStackFrame    = errors.New("invalid stack frame")
	ErrInvalidAddress       = errors.New("invalid address")
	ErrInvalidLabel         = errors.New("invalid label")
	ErrInvalidOffset        = errors.New("invalid offset")
	ErrInvalidFrame         = errors.New("invalid frame")
	ErrInvalidFrameSize     = errors.New("invalid frame size")
	ErrInvalidOperand       = errors.New("invalid operand")
	ErrInvalidCount         = errors.New("invalid count")
	ErrInvalidArgumentCount = errors.New("invalid argument count")
	ErrInvalidDelay         = errors.New("invalid delay")
	ErrDivisionByZero       = errors.New("division by zero")
	ErrInstruction          = errors.New("no instruction at program counter")
	ErrMaxStepsExceeded     = errors.New("maximum steps exceeded")

	// ErrHalt is the trap raised by the halt instruction. It marks
	// normal termination, not a fault.
	ErrHalt = errors.New("halt")
)
