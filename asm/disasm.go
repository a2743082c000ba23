package asm

import (
	"strconv"
	"strings"

	"github.com/nolang-vm/nolang/format"
)

// Disassemble renders prog as canonical NoLang assembly text: one
// instruction per line, uppercase mnemonics, unsigned decimal operands.
// The canonicity rule is that Assemble(Disassemble(prog)) reproduces
// prog bit-exact; Disassemble never needs to guess at formatting choices
// precisely because this package's Parser accepts exactly the forms
// Disassemble emits and nothing else is canonical.
func Disassemble(prog format.Program) string {
	var sb strings.Builder
	for i := 0; i < len(prog); i++ {
		instr := prog[i]

		if instr.Op == format.OpConstExt && i+1 < len(prog) {
			payload := format.ConstExtPayload(instr, prog[i+1])
			sb.WriteString("CONST_EXT ")
			sb.WriteString(instr.Tag.String())
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatUint(payload, 10))
			sb.WriteByte('\n')
			i++
			continue
		}

		sb.WriteString(instr.Op.String())
		shape := shapes[instr.Op]
		if shape.hasTag {
			sb.WriteByte(' ')
			sb.WriteString(instr.Tag.String())
		}
		args := [3]uint16{instr.Arg1, instr.Arg2, instr.Arg3}
		for j := 0; j < shape.nargs; j++ {
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatUint(uint64(args[j]), 10))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
