package vm

import (
	"errors"
	"fmt"
	"strings"

	"pixardis/pkg/isa"
)

// Step executes up to cycles instructions. While a delay is pending
// the cycles are consumed without advancing the program counter, so a
// caller stepping the machine at a fixed rate gets real-time delays.
//
// A halt trap or a fault stops the machine and is returned; otherwise
// the machine is left paused.
func (m *Machine) Step(cycles int) error {
	if m.state != StateDelayed {
		m.state = StateRunning
	}

	for i := 0; i < cycles; i++ {
		if m.state == StateDelayed {
			if m.clock()-m.delayedAt < m.cooldown {
				continue
			}
			m.state = StateRunning
		}

		if m.maxSteps > 0 && m.steps >= m.maxSteps {
			m.state = StateStopped
			return ErrMaxStepsExceeded
		}

		if m.pc < 0 || m.pc >= len(m.program) {
			m.state = StateStopped
			return ErrInstruction
		}

		instruction := m.program[m.pc]
		m.pc++
		m.steps++

		if err := m.execute(instruction); err != nil {
			m.state = StateStopped

			if errors.Is(err, ErrHalt) {
				return err
			}

			m.logger.Error("execution fault",
				"err", err, "pc", m.pc, "instruction", instruction.String())
			return err
		}
	}

	if m.state != StateDelayed {
		m.state = StatePaused
	}

	return nil
}

// Run executes until the program halts or faults. A halt trap is
// normal termination and returns nil.
func (m *Machine) Run() error {
	for {
		if err := m.Step(1); err != nil {
			if errors.Is(err, ErrHalt) {
				return nil
			}
			return err
		}
	}
}

// delay suspends execution for the given number of milliseconds.
func (m *Machine) delay(millis int64) {
	m.delayedAt = m.clock()
	m.cooldown = float64(millis) / 1000.0
	m.state = StateDelayed
}

func (m *Machine) execute(instruction isa.Instruction) error {
	switch instruction.Op {
	case isa.OpLabel, isa.OpNop:
		// Labels occupy a program slot but do nothing.

	case isa.OpPushImmediate:
		m.pushOperand(OperandFromLiteral(instruction.Text))

	case isa.OpPushLabel:
		address, ok := m.labels[instruction.Text]
		if !ok {
			return ErrInvalidLabel
		}
		m.pushOperand(IntegerOperand(int64(address)))

	case isa.OpPushOffset:
		// The counter was already advanced past this slot.
		address := int64(m.pc) + instruction.Offset - 1
		m.pushOperand(IntegerOperand(address))

	case isa.OpPushIndexed:
		value, err := m.memory.Read(int(instruction.Frame), int(instruction.Index))
		if err != nil {
			return err
		}
		m.pushOperand(value)

	case isa.OpPushIndexedOffset:
		// Element slot is the static base plus a popped index.
		offset, err := m.popInteger(ErrInvalidOffset)
		if err != nil {
			return err
		}
		value, err := m.memory.Read(int(instruction.Frame), int(instruction.Index)+int(offset))
		if err != nil {
			return err
		}
		m.pushOperand(value)

	case isa.OpPushArray:
		return m.executePushArray(instruction)

	case isa.OpStore:
		return m.executeStore()

	case isa.OpStoreArray:
		return m.executeStoreArray()

	case isa.OpDrop:
		_, err := m.popOperand()
		return err

	case isa.OpDup:
		operand, ok := m.operands.Peek()
		if !ok {
			return ErrStackUnderflow
		}
		m.pushOperand(operand)

	case isa.OpDupArray:
		count, err := m.popInteger(ErrInvalidCount)
		if err != nil {
			return err
		}
		for i := int64(0); i < count; i++ {
			operand, ok := m.operands.Peek()
			if !ok {
				return ErrStackUnderflow
			}
			m.pushOperand(operand)
		}

	case isa.OpNot:
		operand, err := m.popOperand()
		if err != nil {
			return err
		}
		switch operand.Kind {
		case KindUnsigned:
			m.pushOperand(UnsignedOperand(^operand.Unsigned))
		case KindInteger:
			m.pushOperand(IntegerOperand(^operand.Integer))
		default:
			return ErrInvalidOperand
		}

	case isa.OpAdd, isa.OpSub, isa.OpMul, isa.OpDiv, isa.OpMod, isa.OpMax, isa.OpMin:
		return m.executeArithmetic(instruction.Op)

	case isa.OpInc, isa.OpDec:
		return m.executeIncDec(instruction.Op)

	case isa.OpRandomInt:
		upper, err := m.popInteger(ErrInvalidOperand)
		if err != nil {
			return err
		}
		if upper <= 0 {
			return ErrInvalidOperand
		}
		m.pushOperand(IntegerOperand(m.rng.Int63n(upper)))

	case isa.OpLessThan, isa.OpLessEqual, isa.OpGreaterThan, isa.OpGreaterEqual, isa.OpEqual:
		return m.executeComparison(instruction.Op)

	case isa.OpJump:
		address, err := m.popInteger(ErrInvalidAddress)
		if err != nil {
			return err
		}
		m.pc = int(address)

	case isa.OpConditionalJump:
		return m.executeConditionalJump()

	case isa.OpCall:
		return m.executeCall()

	case isa.OpReturn:
		return m.executeReturn()

	case isa.OpReturnArray:
		return m.executeReturnArray()

	case isa.OpHalt:
		return ErrHalt

	case isa.OpFrameOpen:
		size, err := m.popInteger(ErrInvalidFrameSize)
		if err != nil {
			return err
		}
		m.memory.FrameOpen(int(size))

	case isa.OpFrameClose:
		m.memory.FrameClose()

	case isa.OpAlloc:
		size, err := m.popInteger(ErrInvalidFrameSize)
		if err != nil {
			return err
		}
		m.memory.FrameAlloc(int(size))

	case isa.OpDelay:
		millis, err := m.popInteger(ErrInvalidDelay)
		if err != nil {
			return err
		}
		m.delay(millis)

	case isa.OpWrite:
		x, err := m.popCoordinate()
		if err != nil {
			return err
		}
		y, err := m.popCoordinate()
		if err != nil {
			return err
		}
		colour, err := m.popColour()
		if err != nil {
			return err
		}
		_ = m.display.WritePixel(x, y, colour)

	case isa.OpWriteBox:
		return m.executeWriteBox()

	case isa.OpWriteLine:
		return m.executeWriteLine()

	case isa.OpRead:
		x, err := m.popCoordinate()
		if err != nil {
			return err
		}
		y, err := m.popCoordinate()
		if err != nil {
			return err
		}
		value, err := m.display.ReadPixel(x, y)
		if err != nil {
			return err
		}
		m.pushOperand(UnsignedOperand(value))

	case isa.OpClear:
		colour, err := m.popColour()
		if err != nil {
			return err
		}
		m.display.Clear(colour)

	case isa.OpWidth:
		m.pushOperand(IntegerOperand(int64(m.display.Width())))

	case isa.OpHeight:
		m.pushOperand(IntegerOperand(int64(m.display.Height())))

	case isa.OpPrint:
		operand, err := m.popOperand()
		if err != nil {
			return err
		}
		fmt.Fprintln(m.out, operand.String())

	case isa.OpPrintArray:
		return m.executePrintArray()
	}

	return nil
}

// executePushArray pops a count and pushes that many slots starting
// at the instruction's base, last slot first, so the first element
// ends up on top.
func (m *Machine) executePushArray(instruction isa.Instruction) error {
	count, err := m.popInteger(ErrInvalidOperand)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrInvalidOperand
	}

	for offset := count - 1; offset >= 0; offset-- {
		value, err := m.memory.Read(int(instruction.Frame), int(instruction.Index+offset))
		if err != nil {
			return err
		}
		m.pushOperand(value)
	}

	return nil
}

func (m *Machine) executeStore() error {
	frame, err := m.popInteger(ErrInvalidFrame)
	if err != nil {
		return err
	}

	offset, err := m.popInteger(ErrInvalidOffset)
	if err != nil {
		return err
	}

	value, err := m.popOperand()
	if err != nil {
		return err
	}

	return m.memory.Write(int(frame), int(offset), value)
}

// executeStoreArray pops frame, offset and count, then writes count
// popped values into consecutive slots, top of stack first.
func (m *Machine) executeStoreArray() error {
	frame, err := m.popInteger(ErrInvalidFrame)
	if err != nil {
		return err
	}

	offset, err := m.popInteger(ErrInvalidOffset)
	if err != nil {
		return err
	}

	count, err := m.popInteger(ErrInvalidCount)
	if err != nil {
		return err
	}

	for index := int64(0); index < count; index++ {
		value, err := m.popOperand()
		if err != nil {
			return err
		}
		if err := m.memory.Write(int(frame), int(offset+index), value); err != nil {
			return err
		}
	}

	return nil
}

func (m *Machine) executeArithmetic(op isa.Opcode) error {
	a, err := m.popOperand()
	if err != nil {
		return err
	}
	b, err := m.popOperand()
	if err != nil {
		return err
	}

	var result Operand

	switch op {
	case isa.OpAdd:
		result, err = binaryOperand(a, b,
			func(a, b uint64) (uint64, error) { return a + b, nil },
			func(a, b int64) (int64, error) { return a + b, nil },
			func(a, b float64) (float64, error) { return a + b, nil })

	case isa.OpSub:
		result, err = binaryOperand(a, b,
			func(a, b uint64) (uint64, error) { return a - b, nil },
			func(a, b int64) (int64, error) { return a - b, nil },
			func(a, b float64) (float64, error) { return a - b, nil })

	case isa.OpMul:
		result, err = binaryOperand(a, b,
			func(a, b uint64) (uint64, error) { return a * b, nil },
			func(a, b int64) (int64, error) { return a * b, nil },
			func(a, b float64) (float64, error) { return a * b, nil })

	case isa.OpDiv:
		result, err = binaryOperand(a, b,
			func(a, b uint64) (uint64, error) {
				if b == 0 {
					return 0, ErrDivisionByZero
				}
				return a / b, nil
			},
			func(a, b int64) (int64, error) {
				if b == 0 {
					return 0, ErrDivisionByZero
				}
				return a / b, nil
			},
			func(a, b float64) (float64, error) {
				if b < epsilon && b > -epsilon {
					return 0, ErrDivisionByZero
				}
				return a / b, nil
			})

	case isa.OpMod:
		// Modulo is integral only.
		switch {
		case a.Kind == KindUnsigned && b.Kind == KindUnsigned:
			if b.Unsigned == 0 {
				return ErrDivisionByZero
			}
			result = UnsignedOperand(a.Unsigned % b.Unsigned)
		case a.Kind == KindInteger && b.Kind == KindInteger:
			if b.Integer == 0 {
				return ErrDivisionByZero
			}
			result = IntegerOperand(a.Integer % b.Integer)
		default:
			return ErrInvalidOperand
		}

	case isa.OpMax:
		result, err = binaryOperand(a, b,
			func(a, b uint64) (uint64, error) { return max(a, b), nil },
			func(a, b int64) (int64, error) { return max(a, b), nil },
			func(a, b float64) (float64, error) { return max(a, b), nil })

	case isa.OpMin:
		result, err = binaryOperand(a, b,
			func(a, b uint64) (uint64, error) { return min(a, b), nil },
			func(a, b int64) (int64, error) { return min(a, b), nil },
			func(a, b float64) (float64, error) { return min(a, b), nil })
	}

	if err != nil {
		return err
	}

	m.pushOperand(result)
	return nil
}

func (m *Machine) executeIncDec(op isa.Opcode) error {
	delta := int64(1)
	if op == isa.OpDec {
		delta = -1
	}

	operand, err := m.popOperand()
	if err != nil {
		return err
	}

	switch operand.Kind {
	case KindUnsigned:
		m.pushOperand(UnsignedOperand(operand.Unsigned + uint64(delta)))
	case KindInteger:
		m.pushOperand(IntegerOperand(operand.Integer + delta))
	case KindReal:
		m.pushOperand(RealOperand(operand.Real + float64(delta)))
	}

	return nil
}

func (m *Machine) executeComparison(op isa.Opcode) error {
	a, err := m.popOperand()
	if err != nil {
		return err
	}
	b, err := m.popOperand()
	if err != nil {
		return err
	}

	var result Operand

	switch op {
	case isa.OpLessThan:
		result, err = compareOperand(a, b,
			func(a, b uint64) bool { return a < b },
			func(a, b int64) bool { return a < b },
			func(a, b float64) bool { return a < b })
	case isa.OpLessEqual:
		result, err = compareOperand(a, b,
			func(a, b uint64) bool { return a <= b },
			func(a, b int64) bool { return a <= b },
			func(a, b float64) bool { return a <= b })
	case isa.OpGreaterThan:
		result, err = compareOperand(a, b,
			func(a, b uint64) bool { return a > b },
			func(a, b int64) bool { return a > b },
			func(a, b float64) bool { return a > b })
	case isa.OpGreaterEqual:
		result, err = compareOperand(a, b,
			func(a, b uint64) bool { return a >= b },
			func(a, b int64) bool { return a >= b },
			func(a, b float64) bool { return a >= b })
	case isa.OpEqual:
		result, err = compareOperand(a, b,
			func(a, b uint64) bool { return a == b },
			func(a, b int64) bool { return a == b },
			func(a, b float64) bool { return a == b })
	}

	if err != nil {
		return err
	}

	m.pushOperand(result)
	return nil
}

func (m *Machine) executeConditionalJump() error {
	address, err := m.popInteger(ErrInvalidAddress)
	if err != nil {
		return err
	}

	operand, err := m.popOperand()
	if err != nil {
		return err
	}

	var condition int64
	switch operand.Kind {
	case KindUnsigned:
		condition = int64(operand.Unsigned)
	case KindInteger:
		condition = operand.Integer
	default:
		return ErrInvalidOperand
	}

	if condition != 0 {
		m.pc = int(address)
	}

	return nil
}

// executeCall pops the target address and the argument count, moves
// the arguments into a fresh frame, saves the return address and
// jumps.
func (m *Machine) executeCall() error {
	address, err := m.popInteger(ErrInvalidAddress)
	if err != nil {
		return err
	}

	count, err := m.popInteger(ErrInvalidArgumentCount)
	if err != nil {
		return err
	}

	arguments := make([]Operand, 0, count)
	for i := int64(0); i < count; i++ {
		operand, err := m.popOperand()
		if err != nil {
			return err
		}
		arguments = append(arguments, operand)
	}

	m.memory.FrameOpen(int(count))

	for index, operand := range arguments {
		if err := m.memory.Write(0, index, operand); err != nil {
			return err
		}
	}

	m.addresses.Push(m.pc)
	m.pc = int(address)

	return nil
}

func (m *Machine) executeReturn() error {
	value, err := m.popOperand()
	if err != nil {
		return err
	}

	m.memory.FrameClose()

	address, ok := m.addresses.Pop()
	if !ok {
		return ErrStackUnderflow
	}

	m.pushOperand(value)
	m.pc = address

	return nil
}

// executeReturnArray returns count stacked values to the caller in
// their original order.
func (m *Machine) executeReturnArray() error {
	count, err := m.popInteger(ErrInvalidOperand)
	if err != nil {
		return err
	}

	values := make([]Operand, 0, count)
	for i := int64(0); i < count; i++ {
		operand, err := m.popOperand()
		if err != nil {
			return err
		}
		values = append(values, operand)
	}

	m.memory.FrameClose()

	address, ok := m.addresses.Pop()
	if !ok {
		return ErrStackUnderflow
	}

	for i := len(values) - 1; i >= 0; i-- {
		m.pushOperand(values[i])
	}

	m.pc = address
	return nil
}

func (m *Machine) executeWriteBox() error {
	x, err := m.popCoordinate()
	if err != nil {
		return err
	}
	y, err := m.popCoordinate()
	if err != nil {
		return err
	}
	width, err := m.popCoordinate()
	if err != nil {
		return err
	}
	height, err := m.popCoordinate()
	if err != nil {
		return err
	}
	colour, err := m.popColour()
	if err != nil {
		return err
	}

	m.display.WriteBox(x, y, width, height, colour)
	return nil
}

func (m *Machine) executeWriteLine() error {
	x0, err := m.popCoordinate()
	if err != nil {
		return err
	}
	y0, err := m.popCoordinate()
	if err != nil {
		return err
	}
	x1, err := m.popCoordinate()
	if err != nil {
		return err
	}
	y1, err := m.popCoordinate()
	if err != nil {
		return err
	}
	colour, err := m.popColour()
	if err != nil {
		return err
	}

	_ = m.display.WriteLine(x0, y0, x1, y1, colour)
	return nil
}

// executePrintArray prints count stacked values as one bracketed
// list, in stack order.
func (m *Machine) executePrintArray() error {
	count, err := m.popInteger(ErrInvalidOperand)
	if err != nil {
		return err
	}

	values := make([]string, 0, count)
	for i := int64(0); i < count; i++ {
		operand, err := m.popOperand()
		if err != nil {
			return err
		}
		values = append(values, operand.String())
	}

	fmt.Fprintf(m.out, "[%s]\n", strings.Join(values, ", "))
	return nil
}

const epsilon = 2.220446049250313e-16
