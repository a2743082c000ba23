package debug

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nolang-vm/nolang/asm"
)

// TUI is the text user interface wrapping a Debugger: a left panel
// showing code, a right panel showing live machine state, an output
// log, and a command line.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	MainLayout      *tview.Flex
	DisassemblyView *tview.TextView
	StackView       *tview.TextView
	EnvView         *tview.TextView
	FramesView      *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField
}

// NewTUI creates a text user interface over d.
func NewTUI(d *Debugger) *TUI {
	t := &TUI{
		Debugger: d,
		App:      tview.NewApplication(),
	}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.DisassemblyView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.StackView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.StackView.SetBorder(true).SetTitle(" Operand Stack ")

	t.EnvView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.EnvView.SetBorder(true).SetTitle(" Bindings ")

	t.FramesView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.FramesView.SetBorder(true).SetTitle(" Call Frames ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.StackView, 0, 1, false).
		AddItem(t.EnvView, 0, 1, false).
		AddItem(t.FramesView, 0, 1, false).
		AddItem(t.BreakpointsView, 6, 0, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.DisassemblyView, 0, 2, false).
		AddItem(rightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

func (t *TUI) executeCommand(cmd string) {
	if strings.EqualFold(strings.TrimSpace(cmd), "quit") || strings.EqualFold(strings.TrimSpace(cmd), "q") {
		t.App.Stop()
		return
	}
	t.Debugger.Reset()
	t.Debugger.ExecuteCommand(cmd)
	if out := t.Debugger.Output(); out != "" {
		t.WriteOutput(out)
	}
	t.RefreshAll()
}

// WriteOutput appends text to the output log.
func (t *TUI) WriteOutput(text string) {
	_, _ = fmt.Fprint(t.OutputView, text)
	t.OutputView.ScrollToEnd()
}

// RefreshAll redraws every panel from the debugger's current session
// state. The Disassembly and Bindings panels honor
// cfg.Debugger.ShowDisasm / .ShowBindings: when a panel is switched
// off, it's left showing its last content instead of being redrawn.
func (t *TUI) RefreshAll() {
	if t.Debugger.Cfg.Debugger.ShowDisasm {
		t.updateDisassemblyView()
	}
	t.updateStackView()
	if t.Debugger.Cfg.Debugger.ShowBindings {
		t.updateEnvView()
	}
	t.updateFramesView()
	t.updateBreakpointsView()
	t.App.Draw()
}

func (t *TUI) updateDisassemblyView() {
	t.DisassemblyView.Clear()
	session := t.Debugger.Session()
	pc := session.PC()
	lines := strings.Split(asm.Disassemble(t.Debugger.Prog), "\n")

	context := t.Debugger.Cfg.Display.DisasmContext
	if context <= 0 {
		context = 12
	}
	start := pc - context
	if start < 0 {
		start = 0
	}
	end := pc + context
	if end > len(lines) {
		end = len(lines)
	}

	colorOutput := t.Debugger.Cfg.Display.ColorOutput

	var b strings.Builder
	for i := start; i < end; i++ {
		marker := "  "
		color := "white"
		if i == pc {
			marker = "->"
			color = "yellow"
		}
		if t.Debugger.Breakpoints.Has(i) {
			marker = "* "
		}
		if colorOutput {
			fmt.Fprintf(&b, "[%s]%s %4d: %s[white]\n", color, marker, i, lines[i])
		} else {
			fmt.Fprintf(&b, "%s %4d: %s\n", marker, i, lines[i])
		}
	}
	t.DisassemblyView.SetText(b.String())
}

func (t *TUI) updateStackView() {
	t.StackView.Clear()
	values := t.Debugger.Session().Stack()
	var b strings.Builder
	for i := len(values) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "[%2d] %s\n", i, values[i].String())
	}
	t.StackView.SetText(b.String())
}

func (t *TUI) updateEnvView() {
	t.EnvView.Clear()
	env := t.Debugger.Session().Env()
	var b strings.Builder
	for i := len(env) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "REF %-3d %s\n", len(env)-1-i, env[i].String())
	}
	t.EnvView.SetText(b.String())
}

func (t *TUI) updateFramesView() {
	t.FramesView.Clear()
	frames := t.Debugger.Session().Frames()
	var b strings.Builder
	for i, f := range frames {
		fmt.Fprintf(&b, "#%d func=%d return=%d envDepth=%d recurse=%d\n", i, f.FuncIdx, f.ReturnPC, f.EnvDepth, f.RecurseDepth)
	}
	t.FramesView.SetText(b.String())
}

func (t *TUI) updateBreakpointsView() {
	t.BreakpointsView.Clear()
	var b strings.Builder
	for _, at := range t.Debugger.Breakpoints.All() {
		fmt.Fprintf(&b, "instruction %d\n", at)
	}
	t.BreakpointsView.SetText(b.String())
}

// Run starts the TUI event loop, blocking until the user quits.
func (t *TUI) Run() error {
	t.RefreshAll()
	return t.App.SetRoot(t.MainLayout, true).SetFocus(t.CommandInput).Run()
}
