package isa

import (
	"regexp"
	"strconv"
	"strings"
)

// Text encoding of a program: one instruction per line, comments start
// with "//", labels are written as ".name". A handful of historical
// alias mnemonics parse to the same opcodes as their canonical forms.

var (
	labelPattern   = regexp.MustCompile(`^\.([a-zA-Z][a-zA-Z0-9_]*)$`)
	numberPattern  = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
	colourPattern  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	pcPattern      = regexp.MustCompile(`^#PC([+-]\d+)$`)
	indexedPattern = regexp.MustCompile(`^\[(\d+):(\d+)\]$`)
	relPattern     = regexp.MustCompile(`^\+\[(\d+):(\d+)\]$`)
)

// aliases maps the alternate mnemonic spellings to canonical ones.
var aliases = map[string]string{
	"pop":    "drop",
	"cjmp2":  "cjmp",
	"pixel":  "write",
	"pixelr": "writebox",
	"pixell": "writeline",
}

var opcodeByMnemonic = func() map[string]Opcode {
	m := make(map[string]Opcode, len(mnemonics))
	for op, name := range mnemonics {
		m[name] = op
	}
	return m
}()

// ParseInstruction decodes one source line. Unrecognised lines decode
// as nop, matching how stray input has always been treated.
func ParseInstruction(line string) Instruction {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}

	fields := strings.Fields(strings.TrimSpace(line))

	switch len(fields) {
	case 1:
		word := fields[0]
		if canonical, ok := aliases[word]; ok {
			word = canonical
		}
		if op, ok := opcodeByMnemonic[word]; ok {
			return Simple(op)
		}
		if m := labelPattern.FindStringSubmatch(word); m != nil {
			return Label(m[1])
		}

	case 2:
		switch fields[0] {
		case "push":
			return parsePushOperand(fields[1])
		case "pusha":
			if m := indexedPattern.FindStringSubmatch(fields[1]); m != nil {
				index, _ := strconv.ParseInt(m[1], 10, 64)
				frame, _ := strconv.ParseInt(m[2], 10, 64)
				return PushArray(index, frame)
			}
		}
	}

	return Simple(OpNop)
}

func parsePushOperand(operand string) Instruction {
	if numberPattern.MatchString(operand) || colourPattern.MatchString(operand) {
		return PushImmediate(operand)
	}

	if m := labelPattern.FindStringSubmatch(operand); m != nil {
		return PushLabel(m[1])
	}

	if m := pcPattern.FindStringSubmatch(operand); m != nil {
		offset, _ := strconv.ParseInt(m[1], 10, 64)
		return PushOffset(offset)
	}

	if m := indexedPattern.FindStringSubmatch(operand); m != nil {
		index, _ := strconv.ParseInt(m[1], 10, 64)
		frame, _ := strconv.ParseInt(m[2], 10, 64)
		return PushIndexed(index, frame)
	}

	if m := relPattern.FindStringSubmatch(operand); m != nil {
		index, _ := strconv.ParseInt(m[1], 10, 64)
		frame, _ := strconv.ParseInt(m[2], 10, 64)
		return PushIndexedOffset(index, frame)
	}

	return Simple(OpNop)
}

// ParseProgram decodes a whole text program. Blank and comment-only
// lines are skipped rather than decoded as nop.
func ParseProgram(source string) Program {
	program := make(Program, 0)

	for _, line := range strings.Split(source, "\n") {
		stripped := line
		if i := strings.Index(stripped, "//"); i >= 0 {
			stripped = stripped[:i]
		}
		if strings.TrimSpace(stripped) == "" {
			continue
		}

		program = append(program, ParseInstruction(line))
	}

	return program
}

// FormatProgram renders a program in canonical text form.
func FormatProgram(program Program) string {
	var b strings.Builder

	for _, instr := range program {
		b.WriteString(instr.String())
		b.WriteByte('\n')
	}

	return b.String()
}
