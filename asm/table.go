package asm

import "github.com/nolang-vm/nolang/format"

// operandShape describes one opcode's fixed textual arity:
// whether a type-tag token follows the mnemonic, and how many numeric
// argument tokens follow that. This is the single source of truth both
// the parser (checking arity) and the disassembler (emitting canonical
// text) consult, so the two can never disagree about a line's shape.
//
// The tag token appears exactly for the opcodes whose Tag field the
// verifier's types pass or the VM's execution actually reads
// (arithmetic, comparison, logic/bitwise, TYPEOF, ARRAY_NEW,
// CONST/CONST_EXT). Every other opcode's Tag field is always encoded
// as TagNone and carries no token in text (see DESIGN.md).
type operandShape struct {
	hasTag bool
	nargs  int // number of plain numeric argument tokens (CONST_EXT is special-cased separately)
}

var shapes = map[format.Opcode]operandShape{
	format.OpBind: {false, 0},
	format.OpRef:  {false, 1},
	format.OpDrop: {false, 0},

	format.OpConst: {true, 2},
	// CONST_EXT is handled specially by the parser/disassembler (a
	// single 64-bit payload token expanding to two instruction slots);
	// the parser reads only its hasTag flag, and the disassembler uses
	// the entry only for a CONST_EXT in the program's last slot, which
	// has no trailing data slot.
	format.OpConstExt: {true, 1},

	format.OpAdd: {true, 0}, format.OpSub: {true, 0}, format.OpMul: {true, 0},
	format.OpDiv: {true, 0}, format.OpMod: {true, 0}, format.OpNeg: {true, 0},

	format.OpEq: {true, 0}, format.OpNeq: {true, 0}, format.OpLt: {true, 0},
	format.OpLte: {true, 0}, format.OpGt: {true, 0}, format.OpGte: {true, 0},

	format.OpAnd: {true, 0}, format.OpOr: {true, 0}, format.OpXor: {true, 0},
	format.OpNot: {true, 0}, format.OpShl: {true, 0}, format.OpShr: {true, 0},

	format.OpMatch:   {false, 1},
	format.OpCase:    {false, 1},
	format.OpExhaust: {false, 0},

	format.OpFunc:    {false, 1},
	format.OpEndFunc: {false, 0},
	format.OpPre:     {false, 0},
	format.OpPost:    {false, 0},
	format.OpHash:    {false, 3},
	format.OpCall:    {false, 1},
	format.OpRecurse: {false, 1},
	format.OpRet:     {false, 0},

	format.OpVariantNew: {false, 2},
	format.OpTupleNew:   {false, 1},
	format.OpProject:    {false, 1},
	format.OpArrayNew:   {true, 1},
	format.OpArrayGet:   {false, 0},
	format.OpArrayLen:   {false, 0},

	format.OpAssert: {false, 0},
	format.OpTypeof: {true, 0},
	format.OpNop:    {false, 0},

	format.OpHalt: {false, 0},
}
