package asm_test

import (
	"testing"

	"github.com/nolang-vm/nolang/asm"
	"github.com/nolang-vm/nolang/format"
)

func mustAssemble(t *testing.T, src string) format.Program {
	t.Helper()
	prog, errs := asm.Assemble(src)
	if errs.HasErrors() {
		t.Fatalf("assemble(%q): %v", src, errs)
	}
	return prog
}

func TestAssembleAddition(t *testing.T) {
	src := "CONST I64 0 5\nCONST I64 0 3\nADD I64\nHALT\n"
	prog := mustAssemble(t, src)
	want := format.Program{
		{Op: format.OpConst, Tag: format.TagI64, Arg1: 0, Arg2: 5},
		{Op: format.OpConst, Tag: format.TagI64, Arg1: 0, Arg2: 3},
		{Op: format.OpAdd, Tag: format.TagI64},
		{Op: format.OpHalt},
	}
	if len(prog) != len(want) {
		t.Fatalf("got %d instructions, want %d", len(prog), len(want))
	}
	for i := range want {
		if prog[i] != want[i] {
			t.Errorf("instruction %d: got %+v, want %+v", i, prog[i], want[i])
		}
	}
}

func TestAssembleSignExtension(t *testing.T) {
	prog := mustAssemble(t, "CONST I64 0xFFFF 0xFFF3\nHALT\n")
	v, ok := format.ConstValue(prog[0])
	if !ok || v.AsI64() != -13 {
		t.Fatalf("got %v, ok=%v, want I64(-13)", v, ok)
	}
}

func TestAssembleUnknownOpcode(t *testing.T) {
	_, errs := asm.Assemble("FROB 1 2\n")
	if !errs.HasErrors() {
		t.Fatal("expected an error for an unknown opcode")
	}
	if errs.Errors[0].Line != 1 {
		t.Fatalf("got line %d, want 1", errs.Errors[0].Line)
	}
}

func TestAssembleWrongArity(t *testing.T) {
	_, errs := asm.Assemble("REF\n")
	if !errs.HasErrors() {
		t.Fatal("expected an arity error for REF with no operand")
	}
}

func TestAssembleUnknownTypeTag(t *testing.T) {
	_, errs := asm.Assemble("CONST BOGUS 0 5\n")
	if !errs.HasErrors() {
		t.Fatal("expected an error for an unknown type tag")
	}
}

func TestAssembleCollectsAllErrors(t *testing.T) {
	_, errs := asm.Assemble("FROB\nBARF\n")
	if len(errs.Errors) != 2 {
		t.Fatalf("got %d errors, want 2 (one per bad line)", len(errs.Errors))
	}
}

func TestConstExtRoundTrip(t *testing.T) {
	prog := mustAssemble(t, "CONST_EXT F64 4614256650576692846\nHALT\n")
	if len(prog) != 3 { // head + trailing + HALT
		t.Fatalf("got %d instructions, want 3", len(prog))
	}
	v, ok := format.ConstExtValue(prog[0], prog[1])
	if !ok {
		t.Fatal("ConstExtValue rejected a well-formed CONST_EXT pair")
	}
	if v.AsF64() != 3.14159 {
		t.Fatalf("got %v, want 3.14159", v.AsF64())
	}

	text := asm.Disassemble(prog)
	roundTrip := mustAssemble(t, text)
	if len(roundTrip) != len(prog) {
		t.Fatalf("round trip produced %d instructions, want %d", len(roundTrip), len(prog))
	}
	for i := range prog {
		if prog[i] != roundTrip[i] {
			t.Errorf("instruction %d: got %+v, want %+v", i, roundTrip[i], prog[i])
		}
	}
}

func TestDisassembleBinaryRoundTrip(t *testing.T) {
	src := "CONST I64 0 5\nCONST I64 0 3\nADD I64\nHALT\n"
	prog := mustAssemble(t, src)
	bin := format.EncodeProgram(prog)

	text, err := asm.DisassembleBinary(bin)
	if err != nil {
		t.Fatalf("DisassembleBinary: %v", err)
	}

	reassembled, errs := asm.AssembleBinary(text)
	if errs.HasErrors() {
		t.Fatalf("reassembling disassembled text: %v", errs)
	}
	if string(reassembled) != string(bin) {
		t.Fatal("assemble(disassemble(bin)) != bin; round trip is not bit-exact")
	}
}

func TestDisassembleBoolMatch(t *testing.T) {
	src := "CONST BOOL 1 0\nMATCH 2\nCASE 0\nCONST I64 0 0\nCASE 1\nCONST I64 0 1\nEXHAUST\nHALT\n"
	prog := mustAssemble(t, src)
	text := asm.Disassemble(prog)
	roundTrip := mustAssemble(t, text)
	if len(roundTrip) != len(prog) {
		t.Fatalf("got %d instructions after round trip, want %d", len(roundTrip), len(prog))
	}
	for i := range prog {
		if prog[i] != roundTrip[i] {
			t.Errorf("instruction %d: got %+v, want %+v", i, roundTrip[i], prog[i])
		}
	}
}

func TestWhitespaceAndCommentsInsignificant(t *testing.T) {
	a := mustAssemble(t, "  CONST   I64   0   5  ; a comment\nHALT ; done\n")
	b := mustAssemble(t, "CONST I64 0 5\nHALT\n")
	if len(a) != len(b) {
		t.Fatalf("got %d instructions, want %d", len(a), len(b))
	}
	for i := range b {
		if a[i] != b[i] {
			t.Errorf("instruction %d: got %+v, want %+v", i, a[i], b[i])
		}
	}
}
