package format

import (
	"fmt"
	"math"
	"strings"
)

// ValueKind discriminates the runtime Value union. It mirrors
// TypeTag but excludes tags that name things that aren't runtime
// values on their own (None, FuncType, Maybe, Result — Maybe/Result
// values are represented as Variant at runtime, per the conventional
// tag assignment).
type ValueKind uint8

const (
	KindI64 ValueKind = iota
	KindU64
	KindF64
	KindBool
	KindChar
	KindUnit
	KindVariant
	KindTuple
	KindArray
)

// Value is the VM's runtime discriminated union. Composite values
// (Variant payload, Tuple, Array) own their children; there is no
// sharing, aliasing, or cycles — all ownership is a tree.
type Value struct {
	Kind ValueKind

	i64  int64
	u64  uint64
	f64  uint64 // raw IEEE-754 bits; equality on F64 is bitwise
	b    bool
	ch   uint32
	elem []Value // Tuple fields or Array elements, in order

	variantTagCount uint16
	variantTag      uint16
	variantPayload  *Value // nil for a no-payload tag
}

func I64(v int64) Value   { return Value{Kind: KindI64, i64: v} }
func U64(v uint64) Value  { return Value{Kind: KindU64, u64: v} }
func Bool(v bool) Value   { return Value{Kind: KindBool, b: v} }
func Char(v uint32) Value { return Value{Kind: KindChar, ch: v} }
func Unit() Value         { return Value{Kind: KindUnit} }

// F64 constructs a float value from a float64 already known not to be
// NaN or infinite; the VM is responsible for performing that check
// before a float ever becomes a Value.
func F64(v float64) Value {
	return Value{Kind: KindF64, f64: math.Float64bits(v)}
}

// F64FromBits constructs a float value directly from its raw IEEE-754
// bit pattern, without any NaN/infinity check. ConstExtValue uses it to
// decode an F64 CONST_EXT payload; the VM then checks the result before
// it can reach the stack.
func F64FromBits(bits uint64) Value {
	return Value{Kind: KindF64, f64: bits}
}

// F64Bits returns v's raw IEEE-754 bit pattern. It does not check Kind:
// for a value that is not an F64 it returns 0, so callers check Kind
// first.
func (v Value) F64Bits() uint64 { return v.f64 }

// IsNonFinite reports whether an F64 value is NaN or +/-Infinity. The
// VM checks this immediately after every float-producing operation and
// every CONST_EXT F64 load so that NaN and infinity never reach the
// stack.
func (v Value) IsNonFinite() bool {
	f := v.AsF64()
	return math.IsNaN(f) || math.IsInf(f, 0)
}

func Tuple(fields []Value) Value {
	return Value{Kind: KindTuple, elem: fields}
}

func Array(elems []Value) Value {
	return Value{Kind: KindArray, elem: elems}
}

// Variant constructs a tagged union value. payload may be nil for a
// tag that carries no data (e.g. the None case of Maybe).
func Variant(tagCount, tag uint16, payload *Value) Value {
	return Value{Kind: KindVariant, variantTagCount: tagCount, variantTag: tag, variantPayload: payload}
}

func (v Value) AsI64() int64   { return v.i64 }
func (v Value) AsU64() uint64  { return v.u64 }
func (v Value) AsF64() float64 { return math.Float64frombits(v.f64) }
func (v Value) AsBool() bool   { return v.b }
func (v Value) AsChar() uint32 { return v.ch }

func (v Value) Elements() []Value { return v.elem }

func (v Value) VariantTagCount() uint16 { return v.variantTagCount }
func (v Value) VariantTag() uint16      { return v.variantTag }
func (v Value) VariantPayload() *Value  { return v.variantPayload }

// TypeTag returns the TypeTag corresponding to v's runtime kind. Maybe
// and Result values are indistinguishable from a plain two-tag Variant
// at this level: the tag names are a convention the verifier and
// assembler track, not a distinct runtime representation.
func (v Value) TypeTag() TypeTag {
	switch v.Kind {
	case KindI64:
		return TagI64
	case KindU64:
		return TagU64
	case KindF64:
		return TagF64
	case KindBool:
		return TagBool
	case KindChar:
		return TagChar
	case KindUnit:
		return TagUnit
	case KindVariant:
		return TagVariant
	case KindTuple:
		return TagTuple
	case KindArray:
		return TagArray
	default:
		return TagNone
	}
}

// Equal implements the VM's equality rule: structural for composites,
// bitwise for F64 (so a NaN bit pattern compares equal to itself).
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindI64:
		return v.i64 == o.i64
	case KindU64:
		return v.u64 == o.u64
	case KindF64:
		return v.f64 == o.f64
	case KindBool:
		return v.b == o.b
	case KindChar:
		return v.ch == o.ch
	case KindUnit:
		return true
	case KindVariant:
		if v.variantTagCount != o.variantTagCount || v.variantTag != o.variantTag {
			return false
		}
		if (v.variantPayload == nil) != (o.variantPayload == nil) {
			return false
		}
		if v.variantPayload == nil {
			return true
		}
		return v.variantPayload.Equal(*o.variantPayload)
	case KindTuple, KindArray:
		if len(v.elem) != len(o.elem) {
			return false
		}
		for i := range v.elem {
			if !v.elem[i].Equal(o.elem[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders v in its unambiguous canonical textual form:
// I64(-13), Bool(true), Variant { tag_count: 2, tag: 0, payload: I64(5) },
// Tuple(I64(3), Bool(true)), Array[I64(1), I64(2)], Unit, Char('A').
func (v Value) String() string {
	switch v.Kind {
	case KindI64:
		return fmt.Sprintf("I64(%d)", v.i64)
	case KindU64:
		return fmt.Sprintf("U64(%d)", v.u64)
	case KindF64:
		return fmt.Sprintf("F64(%v)", v.AsF64())
	case KindBool:
		return fmt.Sprintf("Bool(%v)", v.b)
	case KindChar:
		return fmt.Sprintf("Char('%c')", rune(v.ch))
	case KindUnit:
		return "Unit"
	case KindVariant:
		payload := "none"
		if v.variantPayload != nil {
			payload = v.variantPayload.String()
		}
		return fmt.Sprintf("Variant { tag_count: %d, tag: %d, payload: %s }", v.variantTagCount, v.variantTag, payload)
	case KindTuple:
		return fmt.Sprintf("Tuple(%s)", joinValues(v.elem))
	case KindArray:
		return fmt.Sprintf("Array[%s]", joinValues(v.elem))
	default:
		return "?"
	}
}

func joinValues(vs []Value) string {
	var sb strings.Builder
	for i, e := range vs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
	}
	return sb.String()
}
