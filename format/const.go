package format

import "unicode/utf8"

// ConstValue synthesizes the Value a CONST instruction denotes, per
// its type tag. It returns ok=false for a tag CONST never
// legally carries (F64 or a composite tag — those require CONST_EXT or
// a constructor opcode) or for a Char field that is not a valid Unicode
// scalar value. ConstValue performs no bounds or canonicality checking
// beyond what's needed to synthesize a value; that's the verifier's
// job.
func ConstValue(instr Instruction) (Value, bool) {
	switch instr.Tag {
	case TagI64:
		return I64(int64(signExtend32(instr.Arg1, instr.Arg2))), true
	case TagU64:
		return U64(uint64(combine32(instr.Arg1, instr.Arg2))), true
	case TagBool:
		return Bool(instr.Arg1 != 0), true
	case TagChar:
		r := rune(instr.Arg1)
		if !utf8.ValidRune(r) {
			return Value{}, false
		}
		return Char(uint32(instr.Arg1)), true
	case TagUnit:
		return Unit(), true
	default:
		return Value{}, false
	}
}

// combine32 reassembles the 32-bit field (arg1 << 16) | arg2 used by
// I64/U64 CONST encodings.
func combine32(arg1, arg2 uint16) uint32 {
	return uint32(arg1)<<16 | uint32(arg2)
}

// signExtend32 sign-extends the 32-bit two's-complement field to 64
// bits.
func signExtend32(arg1, arg2 uint16) int64 {
	return int64(int32(combine32(arg1, arg2)))
}

// ConstExtPayload reassembles the 64-bit payload CONST_EXT carries
// across its two instruction slots: head.Arg1 supplies the high 16
// bits; the low 48 bits are the trailing slot's arg1/arg2/arg3 fields
// (bytes 2..7 of its encoding) taken verbatim as little-endian data,
// without reinterpreting the trailing slot's opcode or type tag byte.
// The caller (assembler or VM) is responsible for ensuring the
// trailing slot is present.
func ConstExtPayload(head, trailing Instruction) uint64 {
	low48 := uint64(trailing.Arg1) | uint64(trailing.Arg2)<<16 | uint64(trailing.Arg3)<<32
	return uint64(head.Arg1)<<48 | low48
}

// ConstExtValue synthesizes the Value a CONST_EXT pair denotes for a
// scalar type tag (I64, U64, or F64 — the types CONST_EXT exists to
// extend). It returns ok=false for any other tag; composite types are
// never constructed from instruction-encoded literals.
func ConstExtValue(head, trailing Instruction) (Value, bool) {
	payload := ConstExtPayload(head, trailing)
	switch head.Tag {
	case TagI64:
		return I64(int64(payload)), true
	case TagU64:
		return U64(payload), true
	case TagF64:
		return F64FromBits(payload), true
	default:
		return Value{}, false
	}
}

// EncodeConstExt builds the two-slot encoding of a CONST_EXT scalar
// payload for the given tag, mirroring ConstExtPayload's layout. The
// trailing slot's own opcode/tag are OpNop/TagNone: inert markers that
// keep the slot decodable, since DecodeProgram decodes every 8-byte slot
// and rejects an invalid opcode or tag byte. No pass interprets the slot
// as an instruction: the verifier's structural pass records CONST_EXT
// data slots and the later passes skip them.
func EncodeConstExt(tag TypeTag, payload uint64) (head, trailing Instruction) {
	head = Instruction{Op: OpConstExt, Tag: tag, Arg1: uint16(payload >> 48)}
	trailing = Instruction{
		Op:   OpNop,
		Tag:  TagNone,
		Arg1: uint16(payload),
		Arg2: uint16(payload >> 16),
		Arg3: uint16(payload >> 32),
	}
	return head, trailing
}
