package format

import "testing"

func TestOpcodeCount(t *testing.T) {
	if len(opcodeNames) != 44 {
		t.Errorf("opcode count = %d, want 44", len(opcodeNames))
	}
}

func TestOpcodeNameRoundTrip(t *testing.T) {
	for op, name := range opcodeNames {
		got, ok := LookupOpcode(name)
		if !ok || got != op {
			t.Errorf("LookupOpcode(%q) = %v, %v; want %v, true", name, got, ok, op)
		}
	}
}

func TestTypeTagCount(t *testing.T) {
	if len(typeTagNames) != 13 {
		t.Errorf("type tag count = %d, want 13", len(typeTagNames))
	}
}

func TestReservedRangesAreInvalid(t *testing.T) {
	reserved := []Opcode{0x01, 0x0F, 0x13, 0x36, 0x46, 0x56, 0x63, 0x78, 0x86, 0x93, 0xA1, 0xFF}
	for _, op := range reserved {
		if op.IsValid() {
			t.Errorf("opcode 0x%02x unexpectedly valid", byte(op))
		}
	}
}
