package debug

import (
	"strings"
	"testing"

	"github.com/nolang-vm/nolang/format"
)

func i64Const(v int64) format.Instruction {
	u := uint32(v)
	return format.Instruction{Op: format.OpConst, Tag: format.TagI64, Arg1: uint16(u >> 16), Arg2: uint16(u)}
}

func additionProgram() format.Program {
	return format.Program{
		i64Const(5),
		i64Const(3),
		{Op: format.OpAdd, Tag: format.TagI64},
		{Op: format.OpHalt},
	}
}

func TestStepCommandAdvancesOneInstruction(t *testing.T) {
	d := NewDebugger(additionProgram(), nil)
	d.ExecuteCommand("step")
	if d.Session().PC() != 1 {
		t.Fatalf("got PC %d, want 1", d.Session().PC())
	}
}

func TestContinueCommandRunsToHalt(t *testing.T) {
	d := NewDebugger(additionProgram(), nil)
	d.ExecuteCommand("continue")
	if !d.Session().Halted() {
		t.Fatal("expected session to be halted after continue")
	}
	result, err := d.Session().Result()
	if err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if result.AsI64() != 8 {
		t.Fatalf("got %v, want I64(8)", result)
	}
}

func TestContinueStopsAtBreakpoint(t *testing.T) {
	d := NewDebugger(additionProgram(), nil)
	d.Breakpoints.Add(2)
	d.ExecuteCommand("continue")
	if d.Session().Halted() {
		t.Fatal("session should have stopped at the breakpoint, not halted")
	}
	if d.Session().PC() != 2 {
		t.Fatalf("got PC %d, want 2", d.Session().PC())
	}
}

func TestRestartResetsSession(t *testing.T) {
	d := NewDebugger(additionProgram(), nil)
	d.ExecuteCommand("continue")
	d.ExecuteCommand("run")
	if d.Session().Halted() {
		t.Fatal("expected a fresh session after restart")
	}
	if d.Session().PC() != 0 {
		t.Fatalf("got PC %d, want 0", d.Session().PC())
	}
}

func TestBreakAndDeleteCommands(t *testing.T) {
	d := NewDebugger(additionProgram(), nil)
	d.ExecuteCommand("break 2")
	if !d.Breakpoints.Has(2) {
		t.Fatal("expected breakpoint at instruction 2")
	}
	d.ExecuteCommand("delete 2")
	if d.Breakpoints.Has(2) {
		t.Fatal("expected breakpoint to be removed")
	}
}

func TestUnknownCommandReportsOutputWithoutError(t *testing.T) {
	d := NewDebugger(additionProgram(), nil)
	d.ExecuteCommand("frobnicate")
	if !strings.Contains(d.Output(), "unknown command") {
		t.Fatalf("expected an unknown-command message, got %q", d.Output())
	}
}

func TestDisasmCommandPrintsProgram(t *testing.T) {
	d := NewDebugger(additionProgram(), nil)
	d.ExecuteCommand("disasm")
	if !strings.Contains(d.Output(), "ADD") || !strings.Contains(d.Output(), "HALT") {
		t.Fatalf("expected disassembly in output, got %q", d.Output())
	}
}
