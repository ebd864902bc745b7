package vm_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"pixardis/internal/config"
	"pixardis/pkg/isa"
	"pixardis/pkg/vm"
)

// run executes a text program on a small machine and returns whatever
// print produced.
func run(t *testing.T, source string, opts ...vm.Option) (string, error) {
	t.Helper()

	var out bytes.Buffer
	opts = append([]vm.Option{
		vm.WithWriter(&out),
		vm.WithLogger(log.New(io.Discard)),
	}, opts...)

	machine := vm.NewMachine(8, 6, opts...)
	machine.LoadSource(source)
	err := machine.Run()

	return out.String(), err
}

func TestExecutePrograms(t *testing.T) {
	tests := []struct {
		source      string
		expected    string
		description string
	}{
		{"push 5\nprint\nhalt", "int :: 5\n", "print immediate"},
		{"push 3\npush 10\nsub\nprint\nhalt", "int :: 7\n", "subtraction order"},
		{"push 4\npush 6\nmul\nprint\nhalt", "int :: 24\n", "multiplication"},
		{"push 3\npush 10\nmod\nprint\nhalt", "int :: 1\n", "modulo"},
		{"push 2\npush 1.5\nadd\nprint\nhalt", "real :: 3.5\n", "int promotes to real"},
		{"push 2.5\npush 10\ndiv\nprint\nhalt", "real :: 4\n", "real division"},
		{"push #0000ff\npush #0000ff\nadd\nprint\nhalt", "unsigned :: 510\n", "unsigned arithmetic"},
		{"push 3\npush 2\nlt\nprint\nhalt", "int :: 1\n", "less than"},
		{"push 3\npush 2\nge\nprint\nhalt", "int :: 0\n", "greater or equal"},
		{"push 7\npush 7\neq\nprint\nhalt", "int :: 1\n", "equality"},
		{"push 5\ninc\nprint\nhalt", "int :: 6\n", "increment"},
		{"push 5\ndec\nprint\nhalt", "int :: 4\n", "decrement"},
		{"push 9\npush 4\nmax\nprint\nhalt", "int :: 9\n", "max"},
		{"push 9\npush 4\nmin\nprint\nhalt", "int :: 4\n", "min"},
		{"push 1\npush 2\ndrop\nprint\nhalt", "int :: 1\n", "drop"},
		{"push 3\ndup\nadd\nprint\nhalt", "int :: 6\n", "dup"},
		{"width\nprint\nheight\nprint\nhalt", "int :: 8\nint :: 6\n", "display dimensions"},
	}

	for _, test := range tests {
		got, err := run(t, test.source)
		if err != nil {
			t.Errorf("%s: execution failed: %v", test.description, err)
			continue
		}
		if got != test.expected {
			t.Errorf("%s: output %q, want %q", test.description, got, test.expected)
		}
	}
}

func TestDivisionByZero(t *testing.T) {
	sources := []string{
		"push 0\npush 1\ndiv\nhalt",
		"push 0.0\npush 1.0\ndiv\nhalt",
		"push 0\npush 1\nmod\nhalt",
	}

	for _, source := range sources {
		if _, err := run(t, source); !errors.Is(err, vm.ErrDivisionByZero) {
			t.Errorf("%q: err %v, want ErrDivisionByZero", source, err)
		}
	}
}

func TestUnsignedNeverMixes(t *testing.T) {
	_, err := run(t, "push 1\npush #ff0000\nadd\nhalt")
	if !errors.Is(err, vm.ErrInvalidOperand) {
		t.Errorf("mixed unsigned arithmetic: %v, want ErrInvalidOperand", err)
	}
}

func TestStackUnderflow(t *testing.T) {
	_, err := run(t, "add\nhalt")
	if !errors.Is(err, vm.ErrStackUnderflow) {
		t.Errorf("err %v, want ErrStackUnderflow", err)
	}
}

func TestCallProtocol(t *testing.T) {
	source := `
.main
push 4
jmp
halt
push 3
push 2
push 2
push .add
call
print
halt
.add
push [1:0]
push [0:0]
add
ret
`

	got, err := run(t, source)
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if got != "int :: 5\n" {
		t.Errorf("output %q, want \"int :: 5\\n\"", got)
	}
}

func TestArrayInstructions(t *testing.T) {
	source := `
push 3
oframe
push 30
push 20
push 10
push 3
push 0
push 0
sta
push 3
pusha [0:0]
push 3
printa
push 1
push +[0:0]
print
halt
`

	got, err := run(t, source)
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}

	want := "[int :: 10, int :: 20, int :: 30]\nint :: 20\n"
	if got != want {
		t.Errorf("output %q, want %q", got, want)
	}
}

func TestReturnArray(t *testing.T) {
	// The callee leaves two values; reta hands them back in their
	// original stack order.
	source := `
.main
push 4
jmp
halt
push 0
push .f
call
print
print
halt
.f
push 20
push 10
push 2
reta
`

	got, err := run(t, source)
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if got != "int :: 10\nint :: 20\n" {
		t.Errorf("output %q, want the callee's stack order back", got)
	}
}

func TestDupArray(t *testing.T) {
	got, err := run(t, "push 7\npush 2\ndupa\nprint\nprint\nprint\nhalt")
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if got != "int :: 7\nint :: 7\nint :: 7\n" {
		t.Errorf("output %q, want the top duplicated twice", got)
	}
}

func TestUntouchedFrameSlotIsInteger(t *testing.T) {
	got, err := run(t, "push 1\noframe\npush [0:0]\nprint\nhalt")
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if got != "int :: 0\n" {
		t.Errorf("untouched slot printed %q, want \"int :: 0\\n\"", got)
	}

	// An untouched slot also promotes against reals like any integer.
	got, err = run(t, "push 1\noframe\npush 1.5\npush [0:0]\nadd\nprint\nhalt")
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if got != "real :: 1.5\n" {
		t.Errorf("untouched slot plus real printed %q, want \"real :: 1.5\\n\"", got)
	}
}

// The VM CLI drives execution with the configured batch size instead
// of calling Run; the same loop terminates on the halt trap.
func TestStepBatchesRunToHalt(t *testing.T) {
	var out bytes.Buffer
	machine := vm.NewMachine(8, 6, vm.WithWriter(&out), vm.WithLogger(log.New(io.Discard)))
	machine.LoadSource("push 50\ndelay\npush 1\nprint\nhalt")

	batch := config.Default().Machine.CyclesPerStep
	for {
		err := machine.Step(batch)
		if err == nil {
			continue
		}
		if !errors.Is(err, vm.ErrHalt) {
			t.Fatalf("execution failed: %v", err)
		}
		break
	}

	if out.String() != "int :: 1\n" {
		t.Errorf("output %q, want \"int :: 1\\n\"", out.String())
	}
	if machine.State() != vm.StateStopped {
		t.Errorf("state %v after halt, want StateStopped", machine.State())
	}
}

func TestWriteInstruction(t *testing.T) {
	var out bytes.Buffer
	machine := vm.NewMachine(8, 6, vm.WithWriter(&out), vm.WithLogger(log.New(io.Discard)))
	machine.LoadSource("push #ff0000\npush 2\npush 1\nwrite\nhalt")

	if err := machine.Run(); err != nil {
		t.Fatalf("execution failed: %v", err)
	}

	got, err := machine.Display().ReadPixel(1, 2)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != 0xFF0000 {
		t.Errorf("pixel holds %#x, want #ff0000", got)
	}
}

func TestClearAndRead(t *testing.T) {
	got, err := run(t, "push #00ff00\nclear\npush 0\npush 0\nread\nprint\nhalt")
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if got != "unsigned :: 65280\n" {
		t.Errorf("output %q, want \"unsigned :: 65280\\n\"", got)
	}
}

func TestConditionalJump(t *testing.T) {
	// The taken branch skips the first print.
	source := `
push 1
push #PC+4
cjmp
push 111
print
push 222
print
halt
`

	got, err := run(t, source)
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if got != "int :: 222\n" {
		t.Errorf("output %q, want \"int :: 222\\n\"", got)
	}
}

func TestDelayConsumesCycles(t *testing.T) {
	calls := 0
	clock := func() float64 {
		calls++
		return float64(calls) * 0.01
	}

	var out bytes.Buffer
	machine := vm.NewMachine(8, 6,
		vm.WithWriter(&out),
		vm.WithLogger(log.New(io.Discard)),
		vm.WithClock(clock))

	machine.LoadSource("push 50\ndelay\npush 1\nprint\nhalt")

	if err := machine.Run(); err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if out.String() != "int :: 1\n" {
		t.Errorf("output %q, want \"int :: 1\\n\"", out.String())
	}

	// The delay held execution across several clock samples.
	if calls < 5 {
		t.Errorf("clock sampled %d times, want at least 5", calls)
	}
	if machine.State() != vm.StateStopped {
		t.Errorf("state %v after halt, want StateStopped", machine.State())
	}
}

func TestMaxSteps(t *testing.T) {
	_, err := run(t, ".loop\npush .loop\njmp", vm.WithMaxSteps(10))
	if !errors.Is(err, vm.ErrMaxStepsExceeded) {
		t.Errorf("err %v, want ErrMaxStepsExceeded", err)
	}
}

func TestSeededRandomIsDeterministic(t *testing.T) {
	source := "push 100\nirnd\nprint\nhalt"

	first, err := run(t, source, vm.WithSeed(42))
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	second, err := run(t, source, vm.WithSeed(42))
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}

	if first != second {
		t.Errorf("same seed produced %q and %q", first, second)
	}
}

func TestStepPauses(t *testing.T) {
	machine := vm.NewMachine(8, 6, vm.WithLogger(log.New(io.Discard)))
	machine.LoadSource("nop\nnop\nnop\nnop")

	if err := machine.Step(2); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	if machine.PC() != 2 {
		t.Errorf("pc %d after two cycles, want 2", machine.PC())
	}
	if machine.State() != vm.StatePaused {
		t.Errorf("state %v, want StatePaused", machine.State())
	}
}

func TestEntryLabel(t *testing.T) {
	// Execution starts at the main label, not at slot zero.
	got, err := run(t, "halt\n.main\npush 7\nprint\nhalt")
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if got != "int :: 7\n" {
		t.Errorf("output %q, want \"int :: 7\\n\"", got)
	}
}

func TestRunningOffTheProgramFaults(t *testing.T) {
	_, err := run(t, "nop")
	if !errors.Is(err, vm.ErrInstruction) {
		t.Errorf("err %v, want ErrInstruction", err)
	}
}

func TestLoadBinary(t *testing.T) {
	program := isa.ParseProgram("push 9\nprint\nhalt")
	data, err := isa.MarshalProgram(program)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out bytes.Buffer
	machine := vm.NewMachine(8, 6, vm.WithWriter(&out), vm.WithLogger(log.New(io.Discard)))
	if err := machine.LoadBinary(data); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := machine.Run(); err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if out.String() != "int :: 9\n" {
		t.Errorf("output %q, want \"int :: 9\\n\"", out.String())
	}

	if err := machine.LoadBinary([]byte("junk")); err == nil {
		t.Error("loading junk binary succeeded")
	}
}
