package format

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []Instruction{
		{Op: OpHalt, Tag: TagNone},
		{Op: OpConst, Tag: TagI64, Arg1: 0xFFFF, Arg2: 0xFFF3},
		{Op: OpBind, Tag: TagNone, Arg1: 7},
		{Op: OpCall, Tag: TagNone, Arg1: 3},
		{Op: OpMatch, Tag: TagNone, Arg1: 2},
	}
	for _, instr := range tests {
		b := instr.Encode()
		got, err := Decode(b[:], 0)
		if err != nil {
			t.Fatalf("decode(encode(%v)) failed: %v", instr, err)
		}
		if got != instr {
			t.Errorf("decode(encode(%v)) = %v, want same", instr, got)
		}
	}
}

func TestDecodeIllegalOpcode(t *testing.T) {
	b := [InstructionBytes]byte{}
	_, err := Decode(b[:], 5)
	if err == nil || err.Kind != ErrIllegalOpcode {
		t.Fatalf("expected IllegalOpcode, got %v", err)
	}
	if err.At != 5 {
		t.Errorf("At = %d, want 5", err.At)
	}
}

func TestDecodeReservedOpcode(t *testing.T) {
	b := [InstructionBytes]byte{0x0F, 0, 0, 0, 0, 0, 0, 0}
	_, err := Decode(b[:], 0)
	if err == nil || err.Kind != ErrReservedOpcode {
		t.Fatalf("expected ReservedOpcode, got %v", err)
	}
}

func TestDecodeReservedTypeTag(t *testing.T) {
	b := [InstructionBytes]byte{byte(OpHalt), 0xFF, 0, 0, 0, 0, 0, 0}
	_, err := Decode(b[:], 0)
	if err == nil || err.Kind != ErrReservedTypeTag {
		t.Fatalf("expected ReservedTypeTag, got %v", err)
	}
}

func TestDecodeInvalidLength(t *testing.T) {
	_, err := Decode(make([]byte, 7), 0)
	if err == nil || err.Kind != ErrInvalidLength {
		t.Fatalf("expected InvalidLength, got %v", err)
	}
}

func TestDecodeAnyEightBytesNeverPanics(t *testing.T) {
	// For any 8-byte string, decode returns either a valid
	// instruction that re-encodes to the same bytes, or a typed error.
	for op := 0; op < 256; op++ {
		for _, tag := range []byte{0, 1, 12, 13, 200, 255} {
			b := [InstructionBytes]byte{byte(op), tag, 1, 2, 3, 4, 5, 6}
			instr, err := Decode(b[:], 0)
			if err != nil {
				continue
			}
			got := instr.Encode()
			if got != b {
				t.Errorf("decode(%v)=%v re-encodes to %v, want %v", b, instr, got, b)
			}
		}
	}
}
