package vm_test

import (
	"errors"
	"testing"

	"pixardis/pkg/vm"
)

func TestFrameReadWrite(t *testing.T) {
	m := vm.NewMemory()
	m.FrameOpen(2)

	if err := m.Write(0, 1, vm.IntegerOperand(42)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := m.Read(0, 1)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != vm.IntegerOperand(42) {
		t.Errorf("read %+v, want 42", got)
	}

	// Untouched slots read back as integer zero.
	zero, err := m.Read(0, 0)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if zero != vm.IntegerOperand(0) {
		t.Errorf("fresh slot holds %+v, want integer zero", zero)
	}
}

func TestFrameDistances(t *testing.T) {
	m := vm.NewMemory()

	m.FrameOpen(1)
	_ = m.Write(0, 0, vm.IntegerOperand(1))

	m.FrameOpen(1)
	_ = m.Write(0, 0, vm.IntegerOperand(2))

	// Distance 0 is the innermost frame, 1 its enclosing frame.
	inner, _ := m.Read(0, 0)
	outer, _ := m.Read(1, 0)

	if inner.Integer != 2 || outer.Integer != 1 {
		t.Errorf("read inner %d outer %d, want 2 and 1", inner.Integer, outer.Integer)
	}

	m.FrameClose()
	top, _ := m.Read(0, 0)
	if top.Integer != 1 {
		t.Errorf("after close the top frame holds %d, want 1", top.Integer)
	}
}

func TestMemoryBounds(t *testing.T) {
	m := vm.NewMemory()

	if _, err := m.Read(0, 0); !errors.Is(err, vm.ErrInvalidStackFrame) {
		t.Errorf("read with no frames: %v, want ErrInvalidStackFrame", err)
	}

	m.FrameOpen(2)

	if _, err := m.Read(0, 2); !errors.Is(err, vm.ErrInvalidMemoryAccess) {
		t.Errorf("out-of-range offset: %v, want ErrInvalidMemoryAccess", err)
	}
	if err := m.Write(0, -1, vm.IntegerOperand(0)); !errors.Is(err, vm.ErrInvalidMemoryAccess) {
		t.Errorf("negative offset: %v, want ErrInvalidMemoryAccess", err)
	}
	if _, err := m.Read(1, 0); !errors.Is(err, vm.ErrInvalidStackFrame) {
		t.Errorf("distance past the outermost frame: %v, want ErrInvalidStackFrame", err)
	}
}

func TestFrameAlloc(t *testing.T) {
	m := vm.NewMemory()

	// Alloc with no frame open is ignored, like close.
	m.FrameAlloc(4)
	if m.Depth() != 0 {
		t.Fatalf("depth %d after ignored alloc, want 0", m.Depth())
	}

	m.FrameOpen(1)
	m.FrameAlloc(2)

	// Allocated slots arrive as integer zero, like fresh frames.
	slot, err := m.Read(0, 2)
	if err != nil {
		t.Fatalf("read of allocated slot failed: %v", err)
	}
	if slot != vm.IntegerOperand(0) {
		t.Errorf("allocated slot holds %+v, want integer zero", slot)
	}

	if err := m.Write(0, 2, vm.IntegerOperand(9)); err != nil {
		t.Fatalf("write to allocated slot failed: %v", err)
	}
	if _, err := m.Read(0, 3); err == nil {
		t.Error("read past the allocated slots succeeded")
	}
}

func TestDepth(t *testing.T) {
	m := vm.NewMemory()

	m.FrameOpen(0)
	m.FrameOpen(0)
	if m.Depth() != 2 {
		t.Errorf("depth %d, want 2", m.Depth())
	}

	m.FrameClose()
	m.FrameClose()
	m.FrameClose() // a spare close is ignored
	if m.Depth() != 0 {
		t.Errorf("depth %d, want 0", m.Depth())
	}
}
