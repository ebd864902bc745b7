// Package vm executes stack-machine programs against a pixel display.
package vm

import (
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"pixardis/pkg/isa"
	"pixardis/pkg/stack"
)

// State is the machine lifecycle. Delayed carries the timestamp the
// delay started and its cooldown, both in seconds; while it holds,
// step cycles are consumed without advancing the program counter.
type State int

const (
	StateStopped State = iota
	StateRunning
	StatePaused
	StateDelayed
)

// Machine is one virtual machine instance: frame memory, an operand
// stack, an address stack for call returns, and the display.
type Machine struct {
	memory    *Memory
	operands  *stack.Stack[Operand]
	addresses *stack.Stack[int]

	program isa.Program
	pc      int
	labels  map[string]int

	display *Display

	state     State
	delayedAt float64
	cooldown  float64

	out      io.Writer
	logger   *log.Logger
	rng      *rand.Rand
	clock    func() float64
	maxSteps int
	steps    int
}

type Option func(*Machine)

// WithWriter sets the output writer for print instructions
func WithWriter(w io.Writer) Option {
	return func(m *Machine) { m.out = w }
}

// WithLogger sets the logger used for execution faults
func WithLogger(logger *log.Logger) Option {
	return func(m *Machine) { m.logger = logger }
}

// WithSeed makes the random instruction deterministic
func WithSeed(seed int64) Option {
	return func(m *Machine) { m.rng = rand.New(rand.NewSource(seed)) }
}

// WithClock replaces the wall clock used by delay, for tests. The
// function returns elapsed seconds.
func WithClock(clock func() float64) Option {
	return func(m *Machine) { m.clock = clock }
}

// WithMaxSteps sets a maximum number of executed instructions before
// Run returns ErrMaxStepsExceeded (0 = unlimited)
func WithMaxSteps(n int) Option {
	return func(m *Machine) { m.maxSteps = n }
}

// NewMachine creates a new Machine instance with a display of the
// given dimensions.
func NewMachine(width, height int, opts ...Option) *Machine {
	m := &Machine{
		memory:    NewMemory(),
		operands:  stack.NewStack[Operand](),
		addresses: stack.NewStack[int](),
		labels:    make(map[string]int),
		display:   NewDisplay(width, height),
		state:     StateStopped,
		out:       nil,
	}

	for _, o := range opts {
		o(m)
	}

	if m.out == nil {
		m.out = os.Stdout
	}
	if m.logger == nil {
		m.logger = log.New(os.Stderr)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.clock == nil {
		start := time.Now()
		m.clock = func() float64 { return time.Since(start).Seconds() }
	}

	return m
}

// LoadProgram installs a program, indexes its labels and positions
// the program counter on the entry point label when present.
func (m *Machine) LoadProgram(program isa.Program) {
	m.program = program
	m.labels = program.Labels()
	m.pc = 0

	if entry, ok := m.labels["main"]; ok {
		m.pc = entry
	}
}

// LoadSource parses and installs a text-encoded program.
func (m *Machine) LoadSource(source string) {
	m.LoadProgram(isa.ParseProgram(source))
}

// LoadBinary decodes and installs a binary-encoded program.
func (m *Machine) LoadBinary(data []byte) error {
	program, err := isa.UnmarshalProgram(data)
	if err != nil {
		return err
	}

	m.LoadProgram(program)
	return nil
}

// State returns the machine lifecycle state.
func (m *Machine) State() State {
	return m.state
}

// PC returns the current program counter.
func (m *Machine) PC() int {
	return m.pc
}

// Display returns the machine's display.
func (m *Machine) Display() *Display {
	return m.display
}

// Memory returns the machine's frame memory.
func (m *Machine) Memory() *Memory {
	return m.memory
}

// OperandCount returns the operand stack depth.
func (m *Machine) OperandCount() int {
	return m.operands.Size()
}

func (m *Machine) pushOperand(operand Operand) {
	m.operands.Push(operand)
}

func (m *Machine) popOperand() (Operand, error) {
	operand, ok := m.operands.Pop()
	if !ok {
		return Operand{}, ErrStackUnderflow
	}

	return operand, nil
}

// popInteger pops an operand that must be an integer, failing with
// the caller's error when it is not.
func (m *Machine) popInteger(fail error) (int64, error) {
	operand, err := m.popOperand()
	if err != nil {
		return 0, err
	}
	if operand.Kind != KindInteger {
		return 0, fail
	}

	return operand.Integer, nil
}

// popCoordinate accepts an integer or real operand and truncates it
// to a pixel coordinate.
func (m *Machine) popCoordinate() (int, error) {
	operand, err := m.popOperand()
	if err != nil {
		return 0, err
	}

	switch operand.Kind {
	case KindInteger:
		return int(operand.Integer), nil
	case KindReal:
		return int(operand.Real), nil
	}

	return 0, ErrInvalidOperand
}

// popColour accepts an unsigned or integer operand as a colour value.
func (m *Machine) popColour() (uint64, error) {
	operand, err := m.popOperand()
	if err != nil {
		return 0, err
	}

	switch operand.Kind {
	case KindUnsigned:
		return operand.Unsigned, nil
	case KindInteger:
		return uint64(operand.Integer), nil
	}

	return 0, ErrInvalidOperand
}
