package vm

import "github.com/nolang-vm/nolang/format"

// CallFunction invokes the funcIdx-th FUNC block (in declaration order,
// the same binding index CALL(funcIdx) would use) directly, with args
// pushed onto a fresh stack in declaration order — args[0] ends up
// bound at REF 0, exactly as if the entry point had pushed args[0]
// first and args[len(args)-1] last before a CALL. This is how the
// witness runner exercises one function against a recorded
// (input, expected) pair without needing a tailored entry point in the
// program itself.
//
// CallFunction shares CALL's own mechanics (doCall/doRet, PRE/POST
// enforcement, recursion bookkeeping) by running the prelude scan and
// then driving the same Machine used by Execute; it is just as total.
func CallFunction(prog format.Program, funcIdx int, args []format.Value) (format.Value, *Error) {
	funcs, _ := scanPrelude(prog)
	if funcIdx < 0 || funcIdx >= len(funcs) {
		return format.Value{}, fault(UnexpectedEndOfProgram, 0, "function %d does not exist", funcIdx)
	}

	m := &Machine{prog: prog, funcs: funcs}
	for _, a := range args {
		if err := m.push(a); err != nil {
			return format.Value{}, err
		}
	}

	sentinel := len(prog)
	m.pc = sentinel
	instr := format.Instruction{Op: format.OpCall, Arg1: uint16(funcIdx)}
	if err := m.doCall(instr, sentinel); err != nil {
		return format.Value{}, err
	}
	if err := m.runUntil(sentinel); err != nil {
		return format.Value{}, err
	}

	switch len(m.stack) {
	case 1:
		return m.stack[0], nil
	case 0:
		return format.Value{}, fault(HaltWithEmptyStack, sentinel, "function %d returned without a value", funcIdx)
	default:
		return format.Value{}, fault(HaltWithMultipleValues, sentinel, "stack holds %d values after RET", len(m.stack))
	}
}
