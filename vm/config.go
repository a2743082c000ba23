package vm

import (
	"github.com/nolang-vm/nolang/config"
	"github.com/nolang-vm/nolang/format"
)

// stackCapFromConfig resolves cfg's operand stack override, falling
// back to config.DefaultConfig() when cfg is nil and to the hard
// ceiling when the configured value is out of range.
func stackCapFromConfig(cfg *config.Config) int {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	capacity := cfg.Execution.StackCapacity
	if capacity <= 0 || capacity > format.OperandStackCap {
		capacity = format.OperandStackCap
	}
	return capacity
}

// ExecuteWithConfig runs Execute using cfg.Execution.StackCapacity as
// the operand stack cap instead of the hard ceiling directly —
// config.Validate already guarantees that value never exceeds
// format.OperandStackCap.
func ExecuteWithConfig(prog format.Program, cfg *config.Config) (format.Value, *Error) {
	return ExecuteWithStackCap(prog, stackCapFromConfig(cfg))
}

// NewSessionWithConfig starts a debug session exactly as NewSession
// does, but with the operand stack capped per cfg rather than the hard
// ceiling, so a session started from the `debug` CLI verb observes the
// same stack limit a `run` of the same program would.
func NewSessionWithConfig(prog format.Program, cfg *config.Config) *Session {
	funcs, entry := scanPrelude(prog)
	return &Session{m: &Machine{prog: prog, funcs: funcs, pc: entry, stackCap: stackCapFromConfig(cfg)}}
}
