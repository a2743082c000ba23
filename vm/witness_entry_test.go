package vm

import (
	"testing"

	"github.com/nolang-vm/nolang/format"
)

// factorialFunc returns the FUNC..ENDFUNC block from
// TestExecuteFactorial without any entry-point code, so CallFunction
// can drive it directly against arbitrary arguments.
func factorialFunc() format.Program {
	return format.Program{
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
		halt(),
	}
}

func TestCallFunctionMatchesEntryPointResult(t *testing.T) {
	got, err := CallFunction(factorialFunc(), 0, []format.Value{format.I64(5)})
	if err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if got.AsI64() != 120 {
		t.Fatalf("got %v, want I64(120)", got)
	}
}

func TestCallFunctionUnknownIndex(t *testing.T) {
	_, err := CallFunction(factorialFunc(), 7, []format.Value{format.I64(5)})
	if err == nil {
		t.Fatal("expected an error calling a nonexistent function index")
	}
}

func TestCallFunctionWrongArgCount(t *testing.T) {
	_, err := CallFunction(factorialFunc(), 0, nil)
	if err == nil {
		t.Fatal("expected an error calling with too few arguments")
	}
}
