package debug

import (
	"github.com/nolang-vm/nolang/config"
	"github.com/nolang-vm/nolang/format"
)

// Run starts the interactive TUI debugger over prog. It
// blocks until the user quits the interface.
func Run(prog format.Program, cfg *config.Config) error {
	d := NewDebugger(prog, cfg)
	return NewTUI(d).Run()
}
