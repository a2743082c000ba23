package verifier_test

import (
	"math/rand"
	"testing"

	"github.com/nolang-vm/nolang/format"
	"github.com/nolang-vm/nolang/verifier"
)

func i64Const(v int64) format.Instruction {
	u := uint32(v)
	return format.Instruction{Op: format.OpConst, Tag: format.TagI64, Arg1: uint16(u >> 16), Arg2: uint16(u)}
}

func halt() format.Instruction { return format.Instruction{Op: format.OpHalt} }

// validFactorial builds the same factorial function vm's own tests use,
// computing its HASH field for real via the package under test so the
// fixture needs no hand-maintained digest constant.
func validFactorial() format.Program {
	body := format.Program{
		{Op: format.OpFunc, Arg1: 1}, // 0
		{Op: format.OpRef, Arg1: 0},  // 1
		i64Const(1),                  // 2
		{Op: format.OpLte, Tag: format.TagI64},      // 3
		{Op: format.OpMatch, Tag: format.TagBool, Arg1: 2}, // 4
		{Op: format.OpCase, Arg1: 0}, // 5
		{Op: format.OpRef, Arg1: 0},  // 6
		i64Const(1),                  // 7
		{Op: format.OpSub, Tag: format.TagI64}, // 8
		{Op: format.OpRecurse, Arg1: 100},      // 9
		{Op: format.OpRef, Arg1: 0},            // 10
		{Op: format.OpMul, Tag: format.TagI64},  // 11
		{Op: format.OpCase, Arg1: 1},            // 12
		i64Const(1),                             // 13
		{Op: format.OpExhaust},                  // 14
		{Op: format.OpRet},                      // 15
		{Op: format.OpHash},                     // 16, patched below
		{Op: format.OpEndFunc},                  // 17
		i64Const(5),                             // 18
		{Op: format.OpCall, Arg1: 0},            // 19
		halt(),                                  // 20
	}
	patchHash(body, 0, 16)
	return body
}

// patchHash recomputes and writes the HASH instruction at hashAt for
// the function block [funcAt, hashAt).
func patchHash(prog format.Program, funcAt, hashAt int) {
	digest := verifier.BlockHash(prog[funcAt:hashAt])
	a1, a2, a3 := verifier.EncodeHash(digest)
	prog[hashAt] = format.Instruction{Op: format.OpHash, Arg1: a1, Arg2: a2, Arg3: a3}
}

func findKind(errs []*verifier.Error, kind verifier.Kind) *verifier.Error {
	for _, e := range errs {
		if e.Kind == kind {
			return e
		}
	}
	return nil
}

func TestVerifyAcceptsValidProgram(t *testing.T) {
	prog := validFactorial()
	if errs := verifier.Verify(prog); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if !verifier.Ok(prog) {
		t.Fatal("expected Ok to report true")
	}
}

func TestVerifyMissingHalt(t *testing.T) {
	prog := format.Program{i64Const(1)}
	errs := verifier.Verify(prog)
	if found := findKind(errs, verifier.MissingHalt); found == nil {
		t.Fatalf("expected MissingHalt, got %v", errs)
	}
}

func TestVerifyHashMismatch(t *testing.T) {
	prog := validFactorial()
	prog[16].Arg1 ^= 0xFFFF // corrupt the stored digest
	errs := verifier.Verify(prog)
	if found := findKind(errs, verifier.HashMismatch); found == nil {
		t.Fatalf("expected HashMismatch, got %v", errs)
	}
}

func TestVerifyNonExhaustiveMatch(t *testing.T) {
	// MATCH declares 2 cases but only CASE 0 is present.
	prog := format.Program{
		{Op: format.OpConst, Tag: format.TagBool, Arg1: 1},
		{Op: format.OpMatch, Tag: format.TagBool, Arg1: 2},
		{Op: format.OpCase, Arg1: 0},
		i64Const(1),
		{Op: format.OpExhaust},
		halt(),
	}
	errs := verifier.Verify(prog)
	if found := findKind(errs, verifier.NonExhaustiveMatch); found == nil {
		t.Fatalf("expected NonExhaustiveMatch, got %v", errs)
	}
}

func TestVerifyDuplicateCase(t *testing.T) {
	prog := format.Program{
		{Op: format.OpConst, Tag: format.TagBool, Arg1: 1},
		{Op: format.OpMatch, Tag: format.TagBool, Arg1: 2},
		{Op: format.OpCase, Arg1: 0},
		i64Const(1),
		{Op: format.OpCase, Arg1: 0},
		i64Const(2),
		{Op: format.OpExhaust},
		halt(),
	}
	errs := verifier.Verify(prog)
	if found := findKind(errs, verifier.DuplicateCase); found == nil {
		t.Fatalf("expected DuplicateCase, got %v", errs)
	}
}

func TestVerifyContractMustBeBool(t *testing.T) {
	// PRE block whose expression yields a concrete I64, not Bool.
	prog := format.Program{
		{Op: format.OpFunc, Arg1: 1},
		{Op: format.OpPre},
		i64Const(1),
		{Op: format.OpNop},
		{Op: format.OpRef, Arg1: 0},
		{Op: format.OpRet},
		{Op: format.OpHash},
		{Op: format.OpEndFunc},
		i64Const(1),
		{Op: format.OpCall, Arg1: 0},
		halt(),
	}
	patchHash(prog, 0, 6)
	errs := verifier.Verify(prog)
	if found := findKind(errs, verifier.PreConditionNotBool); found == nil {
		t.Fatalf("expected PreConditionNotBool, got %v", errs)
	}
}

func TestVerifyUnreachableBetweenFunctions(t *testing.T) {
	// A stray instruction sitting between two FUNC blocks belongs to
	// neither function's own range nor the entry point's (which only
	// starts after the last ENDFUNC), so it can never execute.
	prog := format.Program{
		{Op: format.OpFunc, Arg1: 0},
		i64Const(1),
		{Op: format.OpRet},
		{Op: format.OpHash}, // patched below
		{Op: format.OpEndFunc},
		i64Const(99), // orphaned, unreachable
		{Op: format.OpFunc, Arg1: 0},
		i64Const(2),
		{Op: format.OpRet},
		{Op: format.OpHash}, // patched below
		{Op: format.OpEndFunc},
		{Op: format.OpCall, Arg1: 0},
		halt(),
	}
	patchHash(prog, 0, 3)
	patchHash(prog, 6, 9)

	errs := verifier.Verify(prog)
	if found := findKind(errs, verifier.UnreachableInstruction); found == nil {
		t.Fatalf("expected UnreachableInstruction, got %v", errs)
	}
}

func TestVerifyStackUnderflow(t *testing.T) {
	prog := format.Program{
		{Op: format.OpAdd, Tag: format.TagI64}, // nothing pushed yet
		halt(),
	}
	errs := verifier.Verify(prog)
	if found := findKind(errs, verifier.StackUnderflow); found == nil {
		t.Fatalf("expected StackUnderflow, got %v", errs)
	}
}

func TestVerifyUnbalancedStackAtHalt(t *testing.T) {
	prog := format.Program{
		i64Const(1),
		i64Const(2),
		halt(),
	}
	errs := verifier.Verify(prog)
	if found := findKind(errs, verifier.UnbalancedStack); found == nil {
		t.Fatalf("expected UnbalancedStack, got %v", errs)
	}
}

func TestVerifyRefTooDeep(t *testing.T) {
	prog := format.Program{
		{Op: format.OpRef, Arg1: format.MaxBindingSlots},
		halt(),
	}
	errs := verifier.Verify(prog)
	if found := findKind(errs, verifier.RefTooDeep); found == nil {
		t.Fatalf("expected RefTooDeep, got %v", errs)
	}
}

func TestVerifyRecursionLimitTooHigh(t *testing.T) {
	prog := format.Program{
		{Op: format.OpFunc, Arg1: 0},
		{Op: format.OpRecurse, Arg1: format.MaxRecursion + 1},
		{Op: format.OpRet},
		{Op: format.OpHash},
		{Op: format.OpEndFunc},
		halt(),
	}
	patchHash(prog, 0, 3)
	errs := verifier.Verify(prog)
	if found := findKind(errs, verifier.RecursionLimitTooHigh); found == nil {
		t.Fatalf("expected RecursionLimitTooHigh, got %v", errs)
	}
}

func TestVerifyRejectsSelfCall(t *testing.T) {
	// A function body may only CALL earlier functions; self-recursion
	// goes through RECURSE and its mandatory depth limit.
	prog := format.Program{
		{Op: format.OpFunc, Arg1: 0},
		{Op: format.OpCall, Arg1: 0},
		{Op: format.OpRet},
		{Op: format.OpHash},
		{Op: format.OpEndFunc},
		{Op: format.OpCall, Arg1: 0},
		halt(),
	}
	patchHash(prog, 0, 3)
	errs := verifier.Verify(prog)
	if found := findKind(errs, verifier.UnresolvableRef); found == nil {
		t.Fatalf("expected UnresolvableRef for a self-CALL, got %v", errs)
	}
}

var allOpcodes = []format.Opcode{
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

// Adversarial property: verification terminates on arbitrary
// instruction streams with a (possibly empty) error list, never a
// panic. The seed is fixed so failures reproduce.
func TestVerifyAdversarialStreamsTerminate(t *testing.T) {
	rng := rand.New(rand.NewSource(0x4E6F4C61))
	for trial := 0; trial < 500; trial++ {
		n := 1 + rng.Intn(48)
		prog := make(format.Program, n)
		for i := range prog {
			prog[i] = format.Instruction{
				Op:   allOpcodes[rng.Intn(len(allOpcodes))],
				Tag:  format.TypeTag(rng.Intn(13)),
				Arg1: uint16(rng.Intn(1 << 16)),
				Arg2: uint16(rng.Intn(1 << 16)),
				Arg3: uint16(rng.Intn(1 << 16)),
			}
		}
		_ = verifier.Verify(prog)
	}
}

func TestScanFunctionBlocksFindsBoundariesBeforeHashIsCorrect(t *testing.T) {
	prog := validFactorial()
	prog[16].Arg1 = 0 // wrong hash; full Verify would reject this program
	blocks := verifier.ScanFunctionBlocks(prog)
	if len(blocks) != 1 {
		t.Fatalf("got %d function blocks, want 1", len(blocks))
	}
	fb := blocks[0]
	if fb.Index != 0 || fb.EndFunc != 17 || fb.HashAt != 16 {
		t.Fatalf("unexpected block boundaries: %+v", fb)
	}
}
