package format

// Program is an ordered sequence of decoded instructions. A valid
// program places all function definitions before the entry point and
// ends with HALT — Program itself does not enforce this; the verifier
// does.
type Program []Instruction

// EncodeProgram concatenates the 8-byte encoding of every instruction
// in order, matching the raw .nolb file layout: no header, no
// checksum, no metadata.
func EncodeProgram(p Program) []byte {
	out := make([]byte, 0, len(p)*InstructionBytes)
	for _, instr := range p {
		b := instr.Encode()
		out = append(out, b[:]...)
	}
	return out
}

// DecodeProgram splits b into InstructionBytes-wide slots and decodes
// each one. It collects nothing beyond the first failure: decode is a
// per-instruction, index-carrying operation, and the verifier is
// responsible for aggregating every problem across a whole program.
func DecodeProgram(b []byte) (Program, *DecodeError) {
	if len(b)%InstructionBytes != 0 {
		return nil, InvalidLength(len(b))
	}
	n := len(b) / InstructionBytes
	prog := make(Program, 0, n)
	for i := 0; i < n; i++ {
		instr, err := Decode(b[i*InstructionBytes:(i+1)*InstructionBytes], i)
		if err != nil {
			return nil, err
		}
		prog = append(prog, instr)
	}
	return prog, nil
}
