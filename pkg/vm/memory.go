package vm

// StackFrame is one frame of working memory. Slots start out as
// integer zero and the frame can grow with alloc.
type StackFrame struct {
	slots []Operand
}

func integerZeroes(size int) []Operand {
	slots := make([]Operand, size)
	for i := range slots {
		slots[i] = IntegerOperand(0)
	}

	return slots
}

// NewStackFrame creates a frame with the given number of slots.
func NewStackFrame(size int) *StackFrame {
	return &StackFrame{
		slots: integerZeroes(size),
	}
}

func (f *StackFrame) Size() int {
	return len(f.slots)
}

// Alloc extends the frame by size integer-zero slots.
func (f *StackFrame) Alloc(size int) {
	f.slots = append(f.slots, integerZeroes(size)...)
}

func (f *StackFrame) Read(offset int) (Operand, error) {
	if offset < 0 || offset >= len(f.slots) {
		return Operand{}, ErrInvalidMemoryAccess
	}

	return f.slots[offset], nil
}

func (f *StackFrame) Write(offset int, operand Operand) error {
	if offset < 0 || offset >= len(f.slots) {
		return ErrInvalidMemoryAccess
	}

	f.slots[offset] = operand
	return nil
}

// Memory is the frame stack. Frame distances count from the top: 0 is
// the innermost frame, 1 its caller's block, and so on.
type Memory struct {
	frames []*StackFrame
}

// NewMemory creates a new Memory instance
func NewMemory() *Memory {
	return &Memory{
		frames: make([]*StackFrame, 0, 8),
	}
}

func (m *Memory) frameAt(distance int) (*StackFrame, error) {
	index := len(m.frames) - distance - 1
	if index < 0 || index >= len(m.frames) {
		return nil, ErrInvalidStackFrame
	}

	return m.frames[index], nil
}

func (m *Memory) FrameOpen(size int) {
	m.frames = append(m.frames, NewStackFrame(size))
}

func (m *Memory) FrameClose() {
	if n := len(m.frames); n > 0 {
		m.frames = m.frames[:n-1]
	}
}

// FrameAlloc grows the innermost frame. A missing frame is ignored,
// matching how close behaves on an empty stack.
func (m *Memory) FrameAlloc(size int) {
	if n := len(m.frames); n > 0 {
		m.frames[n-1].Alloc(size)
	}
}

func (m *Memory) Read(distance, offset int) (Operand, error) {
	frame, err := m.frameAt(distance)
	if err != nil {
		return Operand{}, err
	}

	return frame.Read(offset)
}

func (m *Memory) Write(distance, offset int, operand Operand) error {
	frame, err := m.frameAt(distance)
	if err != nil {
		return err
	}

	return frame.Write(offset, operand)
}

// Depth returns the number of open frames.
func (m *Memory) Depth() int {
	return len(m.frames)
}
