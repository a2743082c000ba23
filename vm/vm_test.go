package vm

import (
	"math/rand"
	"testing"

	"github.com/nolang-vm/nolang/format"
)

func i64Const(v int64) format.Instruction {
	u := uint32(v)
	return format.Instruction{Op: format.OpConst, Tag: format.TagI64, Arg1: uint16(u >> 16), Arg2: uint16(u)}
}

func u64Const(v uint64) format.Instruction {
	return format.Instruction{Op: format.OpConst, Tag: format.TagU64, Arg1: uint16(v >> 16), Arg2: uint16(v)}
}

func halt() format.Instruction { return format.Instruction{Op: format.OpHalt} }

// Scenario 1: addition.
func TestExecuteAddition(t *testing.T) {
	prog := format.Program{
		i64Const(5),
		i64Const(3),
		{Op: format.OpAdd, Tag: format.TagI64},
		halt(),
	}
	got, err := Execute(prog)
	if err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if got.Kind != format.KindI64 || got.AsI64() != 8 {
		t.Fatalf("got %v, want I64(8)", got)
	}
}

// Scenario 2: boolean match.
func TestExecuteBoolMatch(t *testing.T) {
	prog := format.Program{
		{Op: format.OpConst, Tag: format.TagBool, Arg1: 1},
		{Op: format.OpMatch, Tag: format.TagBool, Arg1: 2},
		{Op: format.OpCase, Arg1: 0},
		i64Const(0),
		{Op: format.OpCase, Arg1: 1},
		i64Const(1),
		{Op: format.OpExhaust},
		halt(),
	}
	got, err := Execute(prog)
	if err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if got.AsI64() != 1 {
		t.Fatalf("got %v, want I64(1)", got)
	}
}

// Scenario 3: factorial(5) via RECURSE.
func TestExecuteFactorial(t *testing.T) {
	// FUNC 1
	//   REF 0; CONST I64 1; LTE; MATCH BOOL 2
	//     CASE 0: REF 0; CONST I64 1; SUB; RECURSE 100; REF 0; MUL; RET-value flows to RET below
	//     CASE 1: CONST I64 1
	//   EXHAUST
	//   RET
	//   HASH
	// ENDFUNC
	// entry: CONST I64 5; CALL 0; HALT
	body := format.Program{
		{Op: format.OpFunc, Arg1: 1},
		{Op: format.OpRef, Arg1: 0},
		i64Const(1),
		{Op: format.OpLte, Tag: format.TagI64},
		{Op: format.OpMatch, Tag: format.TagBool, Arg1: 2},
		{Op: format.OpCase, Arg1: 0},
		{Op: format.OpRef, Arg1: 0},
		i64Const(1),
		{Op: format.OpSub, Tag: format.TagI64},
		{Op: format.OpRecurse, Arg1: 100},
		{Op: format.OpRef, Arg1: 0},
		{Op: format.OpMul, Tag: format.TagI64},
		{Op: format.OpCase, Arg1: 1},
		i64Const(1),
		{Op: format.OpExhaust},
		{Op: format.OpRet},
		{Op: format.OpHash},
		{Op: format.OpEndFunc},
		i64Const(5),
		{Op: format.OpCall, Arg1: 0},
		halt(),
	}
	got, err := Execute(body)
	if err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if got.AsI64() != 120 {
		t.Fatalf("got %v, want I64(120)", got)
	}
}

// Scenario 4: absolute value with a POST contract.
func TestExecuteAbsWithPostcondition(t *testing.T) {
	prog := format.Program{
		{Op: format.OpFunc, Arg1: 1},
		{Op: format.OpPost},
		{Op: format.OpRef, Arg1: 0},
		i64Const(0),
		{Op: format.OpGte, Tag: format.TagI64},
		{Op: format.OpNop},
		{Op: format.OpRef, Arg1: 0},
		i64Const(0),
		{Op: format.OpLt, Tag: format.TagI64},
		{Op: format.OpMatch, Tag: format.TagBool, Arg1: 2},
		{Op: format.OpCase, Arg1: 0},
		{Op: format.OpRef, Arg1: 0},
		{Op: format.OpCase, Arg1: 1},
		{Op: format.OpRef, Arg1: 0},
		{Op: format.OpNeg, Tag: format.TagI64},
		{Op: format.OpExhaust},
		{Op: format.OpRet},
		{Op: format.OpHash},
		{Op: format.OpEndFunc},
		i64Const(-13),
		{Op: format.OpCall, Arg1: 0},
		halt(),
	}
	got, err := Execute(prog)
	if err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if got.AsI64() != 13 {
		t.Fatalf("got %v, want I64(13)", got)
	}
}

// A body binding left un-DROPped at RET must not shadow the parameters
// POST refers to: REF 1 in the POST block is the first parameter, not
// whatever the body bound last.
func TestExecutePostSeesParamsPastBodyBindings(t *testing.T) {
	prog := format.Program{
		{Op: format.OpFunc, Arg1: 1},
		{Op: format.OpPost},
		{Op: format.OpRef, Arg1: 0}, // return value
		{Op: format.OpRef, Arg1: 1}, // first parameter
		i64Const(1),
		{Op: format.OpAdd, Tag: format.TagI64},
		{Op: format.OpEq, Tag: format.TagI64}, // result == param + 1
		{Op: format.OpNop},
		{Op: format.OpRef, Arg1: 0},
		i64Const(1),
		{Op: format.OpAdd, Tag: format.TagI64},
		{Op: format.OpBind}, // body binding, deliberately never dropped
		{Op: format.OpRef, Arg1: 0},
		{Op: format.OpRet},
		{Op: format.OpHash},
		{Op: format.OpEndFunc},
		i64Const(5),
		{Op: format.OpCall, Arg1: 0},
		halt(),
	}
	got, err := Execute(prog)
	if err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if got.AsI64() != 6 {
		t.Fatalf("got %v, want I64(6)", got)
	}
}

// Scenario 5: tuple projection.
func TestExecuteTupleProjection(t *testing.T) {
	prog := format.Program{
		i64Const(3),
		i64Const(7),
		{Op: format.OpTupleNew, Arg1: 2},
		{Op: format.OpProject, Arg1: 1},
		halt(),
	}
	got, err := Execute(prog)
	if err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if got.AsI64() != 7 {
		t.Fatalf("got %v, want I64(7)", got)
	}
}

func TestExecuteHaltWithEmptyStack(t *testing.T) {
	_, err := Execute(format.Program{halt()})
	if err == nil || err.Kind != HaltWithEmptyStack {
		t.Fatalf("got %v, want HaltWithEmptyStack", err)
	}
}

func TestExecuteDivisionByZero(t *testing.T) {
	prog := format.Program{
		i64Const(10),
		i64Const(0),
		{Op: format.OpDiv, Tag: format.TagI64},
		halt(),
	}
	_, err := Execute(prog)
	if err == nil || err.Kind != DivisionByZero {
		t.Fatalf("got %v, want DivisionByZero", err)
	}
	if err.At != 2 {
		t.Fatalf("fault at %d, want 2 (the DIV instruction)", err.At)
	}
}

func TestExecuteRecursionDepthExceeded(t *testing.T) {
	// Unconditional RECURSE with limit 3: the fourth invocation trips
	// the declared budget.
	prog := format.Program{
		{Op: format.OpFunc, Arg1: 1},
		{Op: format.OpRef, Arg1: 0},
		{Op: format.OpRecurse, Arg1: 3},
		{Op: format.OpRet},
		{Op: format.OpHash},
		{Op: format.OpEndFunc},
		i64Const(1),
		{Op: format.OpCall, Arg1: 0},
		halt(),
	}
	_, err := Execute(prog)
	if err == nil || err.Kind != RecursionDepthExceeded {
		t.Fatalf("got %v, want RecursionDepthExceeded", err)
	}
}

func TestExecuteCallCycleTerminates(t *testing.T) {
	// A self-CALL never passes verification, but Execute must still
	// terminate on it rather than growing frames forever.
	prog := format.Program{
		{Op: format.OpFunc, Arg1: 0},
		{Op: format.OpCall, Arg1: 0},
		{Op: format.OpRet},
		{Op: format.OpHash},
		{Op: format.OpEndFunc},
		{Op: format.OpCall, Arg1: 0},
		halt(),
	}
	_, err := Execute(prog)
	if err == nil || err.Kind != StackOverflow {
		t.Fatalf("got %v, want StackOverflow from the call depth cap", err)
	}
}

// Adversarial property: Execute terminates on arbitrary unverified
// instruction streams with a Value or a typed error, never a panic or
// an unbounded loop. The seed is fixed so failures reproduce.
func TestExecuteAdversarialStreamsTerminate(t *testing.T) {
	ops := []format.Opcode{
		format.OpBind, format.OpRef, format.OpDrop,
		format.OpConst, format.OpConstExt,
		format.OpAdd, format.OpSub, format.OpMul, format.OpDiv, format.OpMod, format.OpNeg,
		format.OpEq, format.OpNeq, format.OpLt, format.OpLte, format.OpGt, format.OpGte,
		format.OpAnd, format.OpOr, format.OpXor, format.OpNot, format.OpShl, format.OpShr,
		format.OpMatch, format.OpCase, format.OpExhaust,
		format.OpFunc, format.OpEndFunc, format.OpPre, format.OpPost,
		format.OpHash, format.OpCall, format.OpRecurse, format.OpRet,
		format.OpVariantNew, format.OpTupleNew, format.OpProject,
		format.OpArrayNew, format.OpArrayGet, format.OpArrayLen,
		format.OpAssert, format.OpTypeof, format.OpNop,
		format.OpHalt,
	}

	rng := rand.New(rand.NewSource(0x564D5653))
	for trial := 0; trial < 500; trial++ {
		n := 1 + rng.Intn(48)
		prog := make(format.Program, n)
		for i := range prog {
			prog[i] = format.Instruction{
				Op:   ops[rng.Intn(len(ops))],
				Tag:  format.TypeTag(rng.Intn(13)),
				Arg1: uint16(rng.Intn(1 << 16)),
				Arg2: uint16(rng.Intn(1 << 16)),
				Arg3: uint16(rng.Intn(1 << 16)),
			}
		}
		_, _ = Execute(prog)
	}
}

func TestExecuteArrayIndexOutOfBounds(t *testing.T) {
	prog := format.Program{
		i64Const(1), i64Const(2), i64Const(3),
		{Op: format.OpArrayNew, Tag: format.TagI64, Arg1: 3},
		u64Const(3),
		{Op: format.OpArrayGet},
		halt(),
	}
	_, err := Execute(prog)
	if err == nil || err.Kind != ArrayIndexOutOfBounds {
		t.Fatalf("got %v, want ArrayIndexOutOfBounds", err)
	}
}
