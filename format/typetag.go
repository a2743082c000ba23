package format

// TypeTag is the second byte of every encoded instruction: it names the
// runtime type an opcode operates on or produces.
type TypeTag uint8

// The closed enumeration of 13 tags. Maybe and Result are semantic
// aliases for two-tag Variant encodings with conventional tag
// assignments (Some=0/None=1, Ok=0/Err=1); they exist as distinct tags
// so the verifier and assembler can name the intent without the caller
// hand-rolling a VARIANT_NEW(2, ...).
const (
	TagNone TypeTag = iota
	TagI64
	TagU64
	TagF64
	TagBool
	TagChar
	TagVariant
	TagTuple
	TagFuncType
	TagArray
	TagMaybe
	TagResult
	TagUnit
)

var typeTagNames = [...]string{
	TagNone:     "NONE",
	TagI64:      "I64",
	TagU64:      "U64",
	TagF64:      "F64",
	TagBool:     "BOOL",
	TagChar:     "CHAR",
	TagVariant:  "VARIANT",
	TagTuple:    "TUPLE",
	TagFuncType: "FUNC_TYPE",
	TagArray:    "ARRAY",
	TagMaybe:    "MAYBE",
	TagResult:   "RESULT",
	TagUnit:     "UNIT",
}

var nameToTypeTag = func() map[string]TypeTag {
	m := make(map[string]TypeTag, len(typeTagNames))
	for tag, name := range typeTagNames {
		m[name] = TypeTag(tag)
	}
	return m
}()

// String returns the canonical token for t, or "" if t is out of range.
func (t TypeTag) String() string {
	if int(t) >= len(typeTagNames) {
		return ""
	}
	return typeTagNames[t]
}

// IsValid reports whether t is a member of the 13-tag enumeration.
func (t TypeTag) IsValid() bool {
	return int(t) < len(typeTagNames)
}

// LookupTypeTag resolves a token (already upper-cased) to its TypeTag.
func LookupTypeTag(name string) (TypeTag, bool) {
	t, ok := nameToTypeTag[name]
	return t, ok
}

// maxTypeTag is the largest legal encoded value of a TypeTag byte.
const maxTypeTag = TypeTag(TagUnit)
