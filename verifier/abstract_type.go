package verifier

import "github.com/nolang-vm/nolang/format"

// AbstractKind is the lattice of statically-trackable value shapes the
// types pass reasons about. Unknown is the lattice top: it subsumes
// every concrete kind, and a comparison against it never triggers a
// TypeMismatch, which is emitted only when both sides are concrete and
// distinct. The one check that reports an Unknown is MATCH: a subject
// whose type stays Unknown is a TypeMismatch, since its matchability
// and fork depth cannot be established.
type AbstractKind int

const (
	AKUnknown AbstractKind = iota
	AKI64
	AKU64
	AKF64
	AKBool
	AKChar
	AKUnit
	AKVariant // also covers Maybe/Result, which are Variant at runtime
	AKTuple
	AKArray
)

// AbstractType is one stack or binding slot's statically inferred
// shape.
type AbstractType struct {
	Kind AbstractKind
}

var unknownType = AbstractType{Kind: AKUnknown}

func fromTag(t format.TypeTag) AbstractType {
	switch t {
	case format.TagI64:
		return AbstractType{Kind: AKI64}
	case format.TagU64:
		return AbstractType{Kind: AKU64}
	case format.TagF64:
		return AbstractType{Kind: AKF64}
	case format.TagBool:
		return AbstractType{Kind: AKBool}
	case format.TagChar:
		return AbstractType{Kind: AKChar}
	case format.TagUnit:
		return AbstractType{Kind: AKUnit}
	case format.TagVariant, format.TagMaybe, format.TagResult:
		return AbstractType{Kind: AKVariant}
	case format.TagTuple:
		return AbstractType{Kind: AKTuple}
	case format.TagArray:
		return AbstractType{Kind: AKArray}
	default:
		return unknownType
	}
}

func isNumeric(k AbstractKind) bool {
	return k == AKI64 || k == AKU64 || k == AKF64
}

func isInteger(k AbstractKind) bool {
	return k == AKI64 || k == AKU64
}

// mismatch reports whether a concrete-vs-concrete comparison between the
// instruction's declared type and an inferred stack type should be
// treated as a mismatch: both must be concrete (not Unknown) and
// different.
func mismatch(declared, inferred AbstractKind) bool {
	return declared != AKUnknown && inferred != AKUnknown && declared != inferred
}
