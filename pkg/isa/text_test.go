package isa_test

import (
	"testing"

	"pixardis/pkg/isa"
)

func TestParseInstructionRoundTrip(t *testing.T) {
	// Canonical text parses and serializes back to itself.
	canonical := []string{
		".main",
		"push 5",
		"push -3",
		"push 1.5",
		"push #ff0000",
		"push .main",
		"push #PC+4",
		"push #PC-2",
		"push [2:1]",
		"push +[0:3]",
		"pusha [4:0]",
		"st", "sta", "nop", "drop", "dup", "dupa", "not",
		"add", "sub", "mul", "div", "mod", "inc", "dec",
		"max", "min", "irnd",
		"lt", "le", "gt", "ge", "eq",
		"jmp", "cjmp", "call", "ret", "reta", "halt",
		"oframe", "cframe", "alloc",
		"delay", "write", "writebox", "writeline", "read", "clear",
		"width", "height", "print", "printa",
	}

	for _, line := range canonical {
		if got := isa.ParseInstruction(line).String(); got != line {
			t.Errorf("round trip of %q produced %q", line, got)
		}
	}
}

func TestParseAliases(t *testing.T) {
	aliases := map[string]string{
		"pop":    "drop",
		"cjmp2":  "cjmp",
		"pixel":  "write",
		"pixelr": "writebox",
		"pixell": "writeline",
	}

	for alias, canonical := range aliases {
		if got := isa.ParseInstruction(alias).String(); got != canonical {
			t.Errorf("alias %q parsed to %q, want %q", alias, got, canonical)
		}
	}
}

func TestParseInstructionFields(t *testing.T) {
	tests := []struct {
		line        string
		expected    isa.Instruction
		description string
	}{
		{"push 42", isa.PushImmediate("42"), "immediate"},
		{"push #00ff00", isa.PushImmediate("#00ff00"), "colour immediate"},
		{".loop", isa.Label("loop"), "label"},
		{"push .loop", isa.PushLabel("loop"), "label push"},
		{"push #PC+7", isa.PushOffset(7), "forward offset"},
		{"push #PC-16", isa.PushOffset(-16), "backward offset"},
		{"push [3:2]", isa.PushIndexed(3, 2), "indexed push"},
		{"push +[1:0]", isa.PushIndexedOffset(1, 0), "indexed offset push"},
		{"pusha [5:1]", isa.PushArray(5, 1), "array push"},
		{"add // comment", isa.Simple(isa.OpAdd), "trailing comment"},
		{"  halt  ", isa.Simple(isa.OpHalt), "surrounding whitespace"},
	}

	for _, test := range tests {
		if got := isa.ParseInstruction(test.line); got != test.expected {
			t.Errorf("%s: %q parsed to %+v, want %+v", test.description, test.line, got, test.expected)
		}
	}
}

func TestParseUnknownIsNop(t *testing.T) {
	unknown := []string{
		"bogus",
		"push",
		"push @x",
		"pusha 3",
		"push [x:y]",
		"one two three",
	}

	for _, line := range unknown {
		if got := isa.ParseInstruction(line); got.Op != isa.OpNop {
			t.Errorf("%q parsed to %+v, want nop", line, got)
		}
	}
}

func TestParseProgramSkipsBlankLines(t *testing.T) {
	source := `
// header comment
.main

push 1   // operand
print

halt
`

	program := isa.ParseProgram(source)
	if len(program) != 4 {
		t.Fatalf("got %d instructions, want 4:\n%s", len(program), isa.FormatProgram(program))
	}

	if program[0].Op != isa.OpLabel || program[0].Text != "main" {
		t.Errorf("first instruction %+v, want .main", program[0])
	}
	if program[3].Op != isa.OpHalt {
		t.Errorf("last instruction %+v, want halt", program[3])
	}
}

func TestLabelsFirstOccurrenceWins(t *testing.T) {
	program := isa.ParseProgram(".a\nnop\n.b\n.a\nhalt")

	labels := program.Labels()
	if labels["a"] != 0 {
		t.Errorf("label a at slot %d, want 0", labels["a"])
	}
	if labels["b"] != 2 {
		t.Errorf("label b at slot %d, want 2", labels["b"])
	}
}

func TestFormatProgram(t *testing.T) {
	program := isa.Program{
		isa.Label("main"),
		isa.PushImmediate("1"),
		isa.Simple(isa.OpHalt),
	}

	if got := isa.FormatProgram(program); got != ".main\npush 1\nhalt\n" {
		t.Errorf("formatted program %q", got)
	}
}
