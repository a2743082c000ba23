package vm

import (
	"testing"

	"github.com/nolang-vm/nolang/format"
)

func TestSessionStepMatchesExecuteResult(t *testing.T) {
	prog := format.Program{
		i64Const(5),
		i64Const(3),
		{Op: format.OpAdd, Tag: format.TagI64},
		halt(),
	}

	s := NewSession(prog)
	steps := 0
	for !s.Step() {
		steps++
		if steps > 100 {
			t.Fatal("session did not halt")
		}
	}

	got, err := s.Result()
	if err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if got.AsI64() != 8 {
		t.Fatalf("got %v, want I64(8)", got)
	}
}

func TestSessionObservesIntermediateStack(t *testing.T) {
	prog := format.Program{
		i64Const(5),
		i64Const(3),
		{Op: format.OpAdd, Tag: format.TagI64},
		halt(),
	}

	s := NewSession(prog)
	if s.PC() != 0 {
		t.Fatalf("got PC %d, want 0", s.PC())
	}

	s.Step() // CONST 5
	if len(s.Stack()) != 1 || s.Stack()[0].AsI64() != 5 {
		t.Fatalf("unexpected stack after first CONST: %v", s.Stack())
	}

	s.Step() // CONST 3
	if len(s.Stack()) != 2 {
		t.Fatalf("unexpected stack after second CONST: %v", s.Stack())
	}

	s.Step() // ADD
	if len(s.Stack()) != 1 || s.Stack()[0].AsI64() != 8 {
		t.Fatalf("unexpected stack after ADD: %v", s.Stack())
	}

	if s.Halted() {
		t.Fatal("session halted before reaching HALT")
	}
	s.Step() // HALT
	if !s.Halted() {
		t.Fatal("expected session to be halted")
	}
}

func TestSessionStepAfterHaltIsNoOp(t *testing.T) {
	prog := format.Program{i64Const(1), halt()}
	s := NewSession(prog)
	for !s.Step() {
	}
	pc := s.PC()
	s.Step()
	if s.PC() != pc {
		t.Fatalf("PC moved after halt: got %d, want %d", s.PC(), pc)
	}
}
