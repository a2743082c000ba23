package vm

import (
	"math"

	"github.com/nolang-vm/nolang/format"
)

// binaryArith implements ADD/SUB/MUL/DIV/MOD.
// Integer overflow wraps (Go's defined two's-complement semantics);
// DIV/MOD by zero on an exact integer type is DivisionByZero; any F64
// result is checked immediately for NaN/infinity before it can reach
// the stack.
func (m *Machine) binaryArith(op format.Opcode, tag format.TypeTag, at int) *Error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}

	switch tag {
	case format.TagI64:
		x, y := a.AsI64(), b.AsI64()
		var r int64
		switch op {
		case format.OpAdd:
			r = x + y
		case format.OpSub:
			r = x - y
		case format.OpMul:
			r = x * y
		case format.OpDiv:
			if y == 0 {
				return fault(DivisionByZero, at, "")
			}
			r = x / y
		case format.OpMod:
			if y == 0 {
				return fault(DivisionByZero, at, "")
			}
			r = x % y
		}
		return m.push(format.I64(r))

	case format.TagU64:
		x, y := a.AsU64(), b.AsU64()
		var r uint64
		switch op {
		case format.OpAdd:
			r = x + y
		case format.OpSub:
			r = x - y
		case format.OpMul:
			r = x * y
		case format.OpDiv:
			if y == 0 {
				return fault(DivisionByZero, at, "")
			}
			r = x / y
		case format.OpMod:
			if y == 0 {
				return fault(DivisionByZero, at, "")
			}
			r = x % y
		}
		return m.push(format.U64(r))

	case format.TagF64:
		x, y := a.AsF64(), b.AsF64()
		var r float64
		switch op {
		case format.OpAdd:
			r = x + y
		case format.OpSub:
			r = x - y
		case format.OpMul:
			r = x * y
		case format.OpDiv:
			r = x / y
		case format.OpMod:
			r = math.Mod(x, y)
		}
		if err := m.checkFloat(at, r); err != nil {
			return err
		}
		return m.push(format.F64(r))

	default:
		return fault(TypeofMismatch, at, "arithmetic on non-numeric tag %v", tag)
	}
}

func (m *Machine) negate(tag format.TypeTag, at int) *Error {
	a, err := m.pop()
	if err != nil {
		return err
	}
	switch tag {
	case format.TagI64:
		return m.push(format.I64(-a.AsI64()))
	case format.TagF64:
		r := -a.AsF64()
		if err := m.checkFloat(at, r); err != nil {
			return err
		}
		return m.push(format.F64(r))
	default:
		return fault(TypeofMismatch, at, "NEG on non-numeric tag %v", tag)
	}
}

// compare implements EQ/NEQ/LT/LTE/GT/GTE. EQ/NEQ
// use Value.Equal and work for every kind; ordered comparisons require a
// numeric or Char operand.
func (m *Machine) compare(op format.Opcode, tag format.TypeTag, at int) *Error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}

	if op == format.OpEq {
		return m.push(format.Bool(a.Equal(b)))
	}
	if op == format.OpNeq {
		return m.push(format.Bool(!a.Equal(b)))
	}

	var less, equal bool
	switch tag {
	case format.TagI64:
		less, equal = a.AsI64() < b.AsI64(), a.AsI64() == b.AsI64()
	case format.TagU64:
		less, equal = a.AsU64() < b.AsU64(), a.AsU64() == b.AsU64()
	case format.TagF64:
		less, equal = a.AsF64() < b.AsF64(), a.AsF64() == b.AsF64()
	case format.TagChar:
		less, equal = a.AsChar() < b.AsChar(), a.AsChar() == b.AsChar()
	default:
		return fault(TypeofMismatch, at, "ordered comparison on non-ordinal tag %v", tag)
	}

	var r bool
	switch op {
	case format.OpLt:
		r = less
	case format.OpLte:
		r = less || equal
	case format.OpGt:
		r = !less && !equal
	case format.OpGte:
		r = !less || equal
	}
	return m.push(format.Bool(r))
}

// logicBinary implements AND/OR/XOR/SHL/SHR on Bool or integer
// operands.
func (m *Machine) logicBinary(op format.Opcode, tag format.TypeTag, at int) *Error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}

	switch tag {
	case format.TagBool:
		x, y := a.AsBool(), b.AsBool()
		var r bool
		switch op {
		case format.OpAnd:
			r = x && y
		case format.OpOr:
			r = x || y
		case format.OpXor:
			r = x != y
		default:
			return fault(TypeofMismatch, at, "shift on Bool")
		}
		return m.push(format.Bool(r))
	case format.TagI64:
		x, y := a.AsI64(), b.AsI64()
		shift := uint(uint64(y))
		var r int64
		switch op {
		case format.OpAnd:
			r = x & y
		case format.OpOr:
			r = x | y
		case format.OpXor:
			r = x ^ y
		case format.OpShl:
			r = x << shift
		case format.OpShr:
			r = x >> shift
		}
		return m.push(format.I64(r))
	case format.TagU64:
		x, y := a.AsU64(), b.AsU64()
		shift := uint(y)
		var r uint64
		switch op {
		case format.OpAnd:
			r = x & y
		case format.OpOr:
			r = x | y
		case format.OpXor:
			r = x ^ y
		case format.OpShl:
			r = x << shift
		case format.OpShr:
			r = x >> shift
		}
		return m.push(format.U64(r))
	default:
		return fault(TypeofMismatch, at, "logic/bitwise on non-Bool, non-integer tag %v", tag)
	}
}

func (m *Machine) logicNot(tag format.TypeTag, at int) *Error {
	a, err := m.pop()
	if err != nil {
		return err
	}
	switch tag {
	case format.TagBool:
		return m.push(format.Bool(!a.AsBool()))
	case format.TagI64:
		return m.push(format.I64(^a.AsI64()))
	case format.TagU64:
		return m.push(format.U64(^a.AsU64()))
	default:
		return fault(TypeofMismatch, at, "NOT on non-Bool, non-integer tag %v", tag)
	}
}
