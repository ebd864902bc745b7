package isa

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Binary encoding of a program: a CBOR envelope with a magic string
// and a format version, encoded canonically so the same program always
// produces the same bytes.

const (
	binaryMagic   = "PIXB"
	binaryVersion = 1
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("isa: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type binaryInstruction struct {
	Op     int    `cbor:"o"`
	Text   string `cbor:"t,omitempty"`
	Offset int64  `cbor:"d,omitempty"`
	Index  int64  `cbor:"i,omitempty"`
	Frame  int64  `cbor:"f,omitempty"`
}

type binaryProgram struct {
	Magic        string              `cbor:"magic"`
	Version      int                 `cbor:"version"`
	Instructions []binaryInstruction `cbor:"instructions"`
}

// MarshalProgram serializes a program to its binary form.
func MarshalProgram(program Program) ([]byte, error) {
	envelope := binaryProgram{
		Magic:        binaryMagic,
		Version:      binaryVersion,
		Instructions: make([]binaryInstruction, 0, len(program)),
	}

	for _, instr := range program {
		envelope.Instructions = append(envelope.Instructions, binaryInstruction{
			Op:     int(instr.Op),
			Text:   instr.Text,
			Offset: instr.Offset,
			Index:  instr.Index,
			Frame:  instr.Frame,
		})
	}

	return cborEncMode.Marshal(&envelope)
}

// UnmarshalProgram deserializes a binary program, validating its magic
// string and format version.
func UnmarshalProgram(data []byte) (Program, error) {
	var envelope binaryProgram
	if err := cbor.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("isa: unmarshal program: %w", err)
	}

	if envelope.Magic != binaryMagic {
		return nil, fmt.Errorf("isa: bad magic %q, want %q", envelope.Magic, binaryMagic)
	}
	if envelope.Version != binaryVersion {
		return nil, fmt.Errorf("isa: unsupported format version %d", envelope.Version)
	}

	program := make(Program, 0, len(envelope.Instructions))
	for _, instr := range envelope.Instructions {
		program = append(program, Instruction{
			Op:     Opcode(instr.Op),
			Text:   instr.Text,
			Offset: instr.Offset,
			Index:  instr.Index,
			Frame:  instr.Frame,
		})
	}

	return program, nil
}
