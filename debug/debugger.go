// Package debug implements the interactive step debugger supplementing
// NoLang's three core engines. It drives a vm.Session one instruction
// at a time, rendering the operand stack, binding environment, call
// frames, and disassembly in a gdamore/tcell + rivo/tview TUI.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nolang-vm/nolang/asm"
	"github.com/nolang-vm/nolang/config"
	"github.com/nolang-vm/nolang/format"
	"github.com/nolang-vm/nolang/vm"
)

// Debugger owns one program's debug state: its session, breakpoints,
// and accumulated command output, independent of any particular UI.
type Debugger struct {
	Prog        format.Program
	Breakpoints *Breakpoints
	Cfg         *config.Config

	session *vm.Session
	output  strings.Builder
}

// NewDebugger creates a debugger over prog, starting a fresh session.
func NewDebugger(prog format.Program, cfg *config.Config) *Debugger {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	d := &Debugger{Prog: prog, Breakpoints: NewBreakpoints(), Cfg: cfg}
	d.session = vm.NewSessionWithConfig(prog, cfg)
	return d
}

// Session returns the debugger's current execution session.
func (d *Debugger) Session() *vm.Session { return d.session }

// Output returns command output accumulated since the last Reset.
func (d *Debugger) Output() string { return d.output.String() }

// Reset clears accumulated output; the TUI calls it before running
// each command.
func (d *Debugger) Reset() { d.output.Reset() }

func (d *Debugger) printf(format string, args ...any) {
	fmt.Fprintf(&d.output, format, args...)
}

// ExecuteCommand parses and runs one debugger command line, collecting
// its effect into Output(). It never returns an error for a malformed
// command — it reports the problem through Output instead, so the TUI
// command loop never needs special-case error handling.
func (d *Debugger) ExecuteCommand(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch strings.ToLower(fields[0]) {
	case "step", "s":
		d.cmdStep()
	case "continue", "c":
		d.cmdContinue()
	case "run", "r":
		d.cmdRestart()
	case "break", "b":
		d.cmdBreak(fields[1:])
	case "delete":
		d.cmdDelete(fields[1:])
	case "disasm", "d":
		d.cmdDisasm()
	case "help", "h", "?":
		d.cmdHelp()
	default:
		d.printf("unknown command %q (try \"help\")\n", fields[0])
	}
}

func (d *Debugger) cmdStep() {
	if d.session.Halted() {
		d.printf("program already halted\n")
		return
	}
	d.session.Step()
	d.reportIfHalted()
}

// cmdContinue steps until a breakpoint, HALT, or fault: it runs to the
// next stop condition rather than single-stepping.
func (d *Debugger) cmdContinue() {
	if d.session.Halted() {
		d.printf("program already halted\n")
		return
	}
	for {
		d.session.Step()
		if d.session.Halted() {
			d.reportIfHalted()
			return
		}
		if d.Breakpoints.Has(d.session.PC()) {
			d.printf("breakpoint hit at instruction %d\n", d.session.PC())
			return
		}
	}
}

func (d *Debugger) cmdRestart() {
	d.session = vm.NewSessionWithConfig(d.Prog, d.Cfg)
	d.printf("restarted at instruction %d\n", d.session.PC())
}

func (d *Debugger) cmdBreak(args []string) {
	if len(args) != 1 {
		d.printf("usage: break INDEX\n")
		return
	}
	at, err := strconv.Atoi(args[0])
	if err != nil || at < 0 || at >= len(d.Prog) {
		d.printf("invalid instruction index %q\n", args[0])
		return
	}
	d.Breakpoints.Add(at)
	d.printf("breakpoint set at instruction %d\n", at)
}

func (d *Debugger) cmdDelete(args []string) {
	if len(args) != 1 {
		d.printf("usage: delete INDEX\n")
		return
	}
	at, err := strconv.Atoi(args[0])
	if err != nil || !d.Breakpoints.Remove(at) {
		d.printf("no breakpoint at %q\n", args[0])
		return
	}
	d.printf("breakpoint at instruction %d removed\n", at)
}

func (d *Debugger) cmdDisasm() {
	d.printf("%s", asm.Disassemble(d.Prog))
}

func (d *Debugger) cmdHelp() {
	d.printf(`commands:
  step, s           execute one instruction
  continue, c       run until a breakpoint, HALT, or fault
  run, r            restart the session from the entry point
  break INDEX       set a breakpoint at an instruction index
  delete INDEX      remove a breakpoint
  disasm, d         print the full disassembly
  help, h           show this message
`)
}

func (d *Debugger) reportIfHalted() {
	if !d.session.Halted() {
		return
	}
	result, err := d.session.Result()
	if err != nil {
		d.printf("fault: %v\n", err)
		return
	}
	d.printf("halted: %s\n", result.String())
}
