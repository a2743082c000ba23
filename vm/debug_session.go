package vm

import "github.com/nolang-vm/nolang/format"

// Session wraps a Machine for single-step execution, the access
// pattern the interactive debugger
// needs that Execute's run-to-HALT loop doesn't expose. It shares the
// exact same step() dispatch and resolveCaseContext bookkeeping
// Execute uses, so single-stepping a program and Executing it observe
// identical state at every instruction boundary.
type Session struct {
	m      *Machine
	halted bool
	result format.Value
	err    *Error
}

// NewSession starts a debug session at prog's entry point.
func NewSession(prog format.Program) *Session {
	funcs, entry := scanPrelude(prog)
	return &Session{m: &Machine{prog: prog, funcs: funcs, pc: entry}}
}

// Halted reports whether the session has reached HALT or faulted.
// Once true, Step no longer advances the machine.
func (s *Session) Halted() bool { return s.halted }

// Result returns the halted top-of-stack value and any fault, valid
// only once Halted reports true.
func (s *Session) Result() (format.Value, *Error) { return s.result, s.err }

// PC returns the instruction index the session is about to execute.
func (s *Session) PC() int { return s.m.pc }

// Stack returns a snapshot of the current operand stack, bottom first.
func (s *Session) Stack() []format.Value {
	return append([]format.Value(nil), s.m.stack...)
}

// Env returns a snapshot of the current binding environment, in
// append order (REF 0 is the last element, per the de Bruijn
// convention).
func (s *Session) Env() []format.Value {
	return append([]format.Value(nil), s.m.env...)
}

// Frames returns a snapshot of the current call-frame stack,
// outermost first.
func (s *Session) Frames() []Frame {
	return append([]Frame(nil), s.m.frames...)
}

// Program returns the program the session is executing.
func (s *Session) Program() format.Program { return s.m.prog }

// Step executes exactly one instruction. It reports true once the
// session reaches HALT or faults; after that Step is a no-op that
// keeps returning the same outcome.
func (s *Session) Step() bool {
	if s.halted {
		return true
	}

	s.m.resolveCaseContext()
	if s.m.pc < 0 || s.m.pc >= len(s.m.prog) {
		s.halted = true
		s.err = fault(UnexpectedEndOfProgram, s.m.pc, "program counter left the program")
		return true
	}
	if s.m.prog[s.m.pc].Op == format.OpHalt {
		s.halted = true
		switch len(s.m.stack) {
		case 1:
			s.result = s.m.stack[0]
		case 0:
			s.err = fault(HaltWithEmptyStack, s.m.pc, "")
		default:
			s.err = fault(HaltWithMultipleValues, s.m.pc, "stack holds %d values", len(s.m.stack))
		}
		return true
	}
	if err := s.m.step(); err != nil {
		s.halted = true
		s.err = err
		return true
	}
	return false
}
