package verifier

import "github.com/nolang-vm/nolang/format"

// simpleDelta returns the fixed (pop, push) operand-stack delta for
// opcodes whose stack effect never depends on context (function
// metadata, match branching). ok is false for opcodes the stack pass
// and structural scanner must special-case: CONST_EXT's trailing data
// slot is not scanned as an instruction at all, MATCH/CASE/EXHAUST fork
// and converge, CALL/RECURSE depend on the callee's parameter count,
// RET/HALT are checked against the whole-body/program balance rather
// than a local delta, and FUNC/ENDFUNC/PRE/POST are structural
// sentinels with no operand-stack effect of their own.
func simpleDelta(op format.Opcode) (pop, push int, ok bool) {
	switch op {
	case format.OpBind:
		return 1, 0, true
	case format.OpRef:
		return 0, 1, true
	case format.OpDrop:
		return 0, 0, true
	case format.OpConst, format.OpConstExt:
		return 0, 1, true
	case format.OpAdd, format.OpSub, format.OpMul, format.OpDiv, format.OpMod:
		return 2, 1, true
	case format.OpNeg:
		return 1, 1, true
	case format.OpEq, format.OpNeq, format.OpLt, format.OpLte, format.OpGt, format.OpGte:
		return 2, 1, true
	case format.OpAnd, format.OpOr, format.OpXor, format.OpShl, format.OpShr:
		return 2, 1, true
	case format.OpNot:
		return 1, 1, true
	case format.OpVariantNew:
		return 1, 1, true
	case format.OpProject:
		return 1, 1, true
	case format.OpArrayGet:
		return 2, 1, true
	case format.OpArrayLen:
		return 1, 1, true
	case format.OpAssert:
		return 1, 0, true
	case format.OpTypeof:
		// TYPEOF peeks at the top (pop, push back, push Bool): it needs
		// one operand present and nets +1.
		return 1, 2, true
	case format.OpNop, format.OpHash:
		return 0, 0, true
	case format.OpTupleNew, format.OpArrayNew:
		return 0, 0, false // arity n comes from Arg1; caller must compute
	default:
		return 0, 0, false
	}
}

// usedArgs reports which of an instruction's arg1/arg2/arg3 fields carry
// meaning for op; every other field must be zero in a well-formed
// program.
func usedArgs(op format.Opcode) (u1, u2, u3 bool) {
	switch op {
	case format.OpRef, format.OpConstExt, format.OpMatch, format.OpCase,
		format.OpFunc, format.OpCall, format.OpRecurse,
		format.OpTupleNew, format.OpArrayNew:
		return true, false, false
	case format.OpConst:
		return true, true, false
	case format.OpVariantNew:
		return true, true, false
	case format.OpProject:
		return true, false, false
	case format.OpHash:
		return true, true, true
	default:
		return false, false, false
	}
}
