package asm

import "github.com/nolang-vm/nolang/format"

// Assemble parses src and returns the decoded program, or the full
// list of line-numbered errors found. It performs no verification: an
// assembler output that fails verification is a programmer error, not
// an assembler error, so callers that need a guaranteed-runnable
// program feed the result through verifier.Verify themselves.
func Assemble(src string) (format.Program, *ErrorList) {
	prog, errs := Parse(src)
	if errs.HasErrors() {
		return nil, errs
	}
	return prog, errs
}

// AssembleBinary parses src and encodes it straight to .nolb bytes.
func AssembleBinary(src string) ([]byte, *ErrorList) {
	prog, errs := Assemble(src)
	if errs.HasErrors() {
		return nil, errs
	}
	return format.EncodeProgram(prog), errs
}

// DisassembleBinary decodes raw .nolb bytes and renders them as
// canonical assembly text.
func DisassembleBinary(b []byte) (string, *format.DecodeError) {
	prog, err := format.DecodeProgram(b)
	if err != nil {
		return "", err
	}
	return Disassemble(prog), nil
}
