// Package isa defines the stack-machine instruction set shared by the
// code generator and the virtual machine, together with its text and
// binary encodings.
package isa

import "fmt"

type Opcode int

const (
	// Pseudo-instruction marking a jump or call target. Occupies a
	// program slot and executes as a no-op.
	OpLabel Opcode = iota

	OpPushImmediate
	OpPushLabel
	OpPushOffset
	OpPushIndexed
	OpPushIndexedOffset
	OpPushArray

	OpStore
	OpStoreArray
	OpNop
	OpDrop
	OpDup
	OpDupArray
	OpNot
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpInc
	OpDec
	OpMax
	OpMin
	OpRandomInt
	OpLessThan
	OpLessEqual
	OpGreaterThan
	OpGreaterEqual
	OpEqual
	OpJump
	OpConditionalJump
	OpCall
	OpReturn
	OpReturnArray
	OpHalt
	OpFrameOpen
	OpFrameClose
	OpAlloc
	OpDelay
	OpWrite
	OpWriteBox
	OpWriteLine
	OpRead
	OpClear
	OpWidth
	OpHeight
	OpPrint
	OpPrintArray
)

// Instruction is one program slot. Text holds the label name for
// OpLabel and OpPushLabel, or the literal for OpPushImmediate.
// Offset is the signed pc displacement of OpPushOffset. Index and
// Frame address a slot for the indexed push variants: Index is the
// slot within the frame, Frame the ancestor distance from the active
// frame.
type Instruction struct {
	Op     Opcode
	Text   string
	Offset int64
	Index  int64
	Frame  int64
}

func Simple(op Opcode) Instruction {
	return Instruction{Op: op}
}

func Label(name string) Instruction {
	return Instruction{Op: OpLabel, Text: name}
}

func PushImmediate(literal string) Instruction {
	return Instruction{Op: OpPushImmediate, Text: literal}
}

func PushLabel(name string) Instruction {
	return Instruction{Op: OpPushLabel, Text: name}
}

func PushOffset(offset int64) Instruction {
	return Instruction{Op: OpPushOffset, Offset: offset}
}

func PushIndexed(index, frame int64) Instruction {
	return Instruction{Op: OpPushIndexed, Index: index, Frame: frame}
}

func PushIndexedOffset(index, frame int64) Instruction {
	return Instruction{Op: OpPushIndexedOffset, Index: index, Frame: frame}
}

func PushArray(index, frame int64) Instruction {
	return Instruction{Op: OpPushArray, Index: index, Frame: frame}
}

// mnemonics holds the canonical spelling of every argument-free opcode.
var mnemonics = map[Opcode]string{
	OpStore:           "st",
	OpStoreArray:      "sta",
	OpNop:             "nop",
	OpDrop:            "drop",
	OpDup:             "dup",
	OpDupArray:        "dupa",
	OpNot:             "not",
	OpAdd:             "add",
	OpSub:             "sub",
	OpMul:             "mul",
	OpDiv:             "div",
	OpMod:             "mod",
	OpInc:             "inc",
	OpDec:             "dec",
	OpMax:             "max",
	OpMin:             "min",
	OpRandomInt:       "irnd",
	OpLessThan:        "lt",
	OpLessEqual:       "le",
	OpGreaterThan:     "gt",
	OpGreaterEqual:    "ge",
	OpEqual:           "eq",
	OpJump:            "jmp",
	OpConditionalJump: "cjmp",
	OpCall:            "call",
	OpReturn:          "ret",
	OpReturnArray:     "reta",
	OpHalt:            "halt",
	OpFrameOpen:       "oframe",
	OpFrameClose:      "cframe",
	OpAlloc:           "alloc",
	OpDelay:           "delay",
	OpWrite:           "write",
	OpWriteBox:        "writebox",
	OpWriteLine:       "writeline",
	OpRead:            "read",
	OpClear:           "clear",
	OpWidth:           "width",
	OpHeight:          "height",
	OpPrint:           "print",
	OpPrintArray:      "printa",
}

// String renders the canonical text form of the instruction. Alias
// mnemonics accepted by the parser always serialize to the canonical
// spelling, so parse and format round-trip to a stable text.
func (i Instruction) String() string {
	switch i.Op {
	case OpLabel:
		return "." + i.Text

	case OpPushImmediate:
		return "push " + i.Text

	case OpPushLabel:
		return "push ." + i.Text

	case OpPushOffset:
		if i.Offset >= 0 {
			return fmt.Sprintf("push #PC+%d", i.Offset)
		}
		return fmt.Sprintf("push #PC%d", i.Offset)

	case OpPushIndexed:
		return fmt.Sprintf("push [%d:%d]", i.Index, i.Frame)

	case OpPushIndexedOffset:
		return fmt.Sprintf("push +[%d:%d]", i.Index, i.Frame)

	case OpPushArray:
		return fmt.Sprintf("pusha [%d:%d]", i.Index, i.Frame)
	}

	if mnemonic, ok := mnemonics[i.Op]; ok {
		return mnemonic
	}

	return "nop"
}

// Program is an instruction sequence in execution order.
type Program []Instruction

// Labels maps each label name to its program slot. Duplicate labels
// keep the first occurrence.
func (p Program) Labels() map[string]int {
	labels := make(map[string]int)

	for i, instr := range p {
		if instr.Op != OpLabel {
			continue
		}
		if _, ok := labels[instr.Text]; !ok {
			labels[instr.Text] = i
		}
	}

	return labels
}
