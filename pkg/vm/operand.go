package vm

import (
	"fmt"
	"strconv"
	"strings"
)

type OperandKind int

const (
	// Unsigned holds colour values, Integer everything the language
	// calls bool or int, Real the float type.
	KindUnsigned OperandKind = iota
	KindInteger
	KindReal
)

// Operand is one tagged runtime value.
type Operand struct {
	Kind     OperandKind
	Unsigned uint64
	Integer  int64
	Real     float64
}

func UnsignedOperand(value uint64) Operand {
	return Operand{Kind: KindUnsigned, Unsigned: value}
}

func IntegerOperand(value int64) Operand {
	return Operand{Kind: KindInteger, Integer: value}
}

func RealOperand(value float64) Operand {
	return Operand{Kind: KindReal, Real: value}
}

// OperandFromLiteral decodes a push immediate: a literal with a dot is
// real, a #RRGGBB literal is unsigned, anything else is an integer. A
// malformed colour decodes to magenta so the mistake is visible on the
// display instead of silently black.
func OperandFromLiteral(literal string) Operand {
	if strings.Contains(literal, ".") {
		value, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return RealOperand(0)
		}
		return RealOperand(value)
	}

	if strings.HasPrefix(literal, "#") && len(literal) == 7 {
		value, err := strconv.ParseUint(literal[1:], 16, 64)
		if err != nil {
			return UnsignedOperand(0xFF00FF)
		}
		return UnsignedOperand(value)
	}

	value, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return IntegerOperand(0)
	}

	return IntegerOperand(value)
}

// String renders the operand the way print reports it.
func (o Operand) String() string {
	switch o.Kind {
	case KindUnsigned:
		return fmt.Sprintf("unsigned :: %d", o.Unsigned)
	case KindReal:
		return "real :: " + strconv.FormatFloat(o.Real, 'f', -1, 64)
	default:
		return fmt.Sprintf("int :: %d", o.Integer)
	}
}

// binaryOperand applies an arithmetic operation with the machine's
// promotion rules: matching kinds stay put, mixed integer and real
// promote to real, and unsigned never mixes with the other kinds.
func binaryOperand(a, b Operand,
	unsigned func(a, b uint64) (uint64, error),
	integer func(a, b int64) (int64, error),
	real func(a, b float64) (float64, error),
) (Operand, error) {
	switch {
	case a.Kind == KindUnsigned && b.Kind == KindUnsigned:
		value, err := unsigned(a.Unsigned, b.Unsigned)
		if err != nil {
			return Operand{}, err
		}
		return UnsignedOperand(value), nil

	case a.Kind == KindInteger && b.Kind == KindInteger:
		value, err := integer(a.Integer, b.Integer)
		if err != nil {
			return Operand{}, err
		}
		return IntegerOperand(value), nil

	case a.Kind == KindReal && b.Kind == KindReal:
		value, err := real(a.Real, b.Real)
		if err != nil {
			return Operand{}, err
		}
		return RealOperand(value), nil

	case a.Kind == KindReal && b.Kind == KindInteger:
		value, err := real(a.Real, float64(b.Integer))
		if err != nil {
			return Operand{}, err
		}
		return RealOperand(value), nil

	case a.Kind == KindInteger && b.Kind == KindReal:
		value, err := real(float64(a.Integer), b.Real)
		if err != nil {
			return Operand{}, err
		}
		return RealOperand(value), nil
	}

	return Operand{}, ErrInvalidOperand
}

// compareOperand applies a comparison with the same pairing rules.
// Unsigned pairs yield an unsigned flag, every other pair an integer
// flag.
func compareOperand(a, b Operand,
	unsigned func(a, b uint64) bool,
	integer func(a, b int64) bool,
	real func(a, b float64) bool,
) (Operand, error) {
	flag := func(truth bool) int64 {
		if truth {
			return 1
		}
		return 0
	}

	switch {
	case a.Kind == KindUnsigned && b.Kind == KindUnsigned:
		return UnsignedOperand(uint64(flag(unsigned(a.Unsigned, b.Unsigned)))), nil

	case a.Kind == KindInteger && b.Kind == KindInteger:
		return IntegerOperand(flag(integer(a.Integer, b.Integer))), nil

	case a.Kind == KindReal && b.Kind == KindReal:
		return IntegerOperand(flag(real(a.Real, b.Real))), nil

	case a.Kind == KindReal && b.Kind == KindInteger:
		return IntegerOperand(flag(real(a.Real, float64(b.Integer)))), nil

	case a.Kind == KindInteger && b.Kind == KindReal:
		return IntegerOperand(flag(real(float64(a.Integer), b.Real))), nil
	}

	return Operand{}, ErrInvalidOperand
}
