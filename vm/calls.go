package vm

import "github.com/nolang-vm/nolang/format"

// maxFrameDepth bounds the call-frame stack. Unlike the operand
// stack's 4096 cap it is not part of the format: it exists so a CALL
// cycle in an
// unverified program surfaces as a runtime error instead of running
// forever.
const maxFrameDepth = 1 << 16

// doCall implements CALL and RECURSE. Both pop
// param_count arguments (the last one popped lands at binding index 0),
// run the callee's PRE sub-ranges in order (a false result is
// PreconditionFailed), push a new frame, and jump to the body.
// RECURSE additionally increments the current frame's recursion counter
// against its own declared limit before reusing CALL's mechanics
// against the currently executing function.
func (m *Machine) doCall(instr format.Instruction, at int) *Error {
	var funcIdx int

	if instr.Op == format.OpCall {
		k := int(instr.Arg1)
		if k < 0 || k >= len(m.funcs) {
			return fault(UnexpectedEndOfProgram, at, "CALL target %d does not exist", k)
		}
		funcIdx = k
	} else {
		if len(m.frames) == 0 {
			return fault(UnexpectedEndOfProgram, at, "RECURSE outside any function")
		}
		cur := &m.frames[len(m.frames)-1]
		limit := int(instr.Arg1)
		cur.RecurseDepth++
		if cur.RecurseDepth > limit {
			return fault(RecursionDepthExceeded, at, "limit %d", limit)
		}
		funcIdx = cur.FuncIdx
	}

	// Call-frame depth cap. A verified program's call graph is a DAG
	// (CALL only reaches earlier functions) with RECURSE budgeted per
	// frame, but an unverified one can CALL in a cycle with no budget
	// ever consulted; the cap keeps Execute terminating on such input.
	// It sits far above any depth a budgeted program reaches in
	// practice.
	if len(m.frames) >= maxFrameDepth {
		return fault(StackOverflow, at, "call depth limit %d", maxFrameDepth)
	}

	target := m.funcs[funcIdx]
	if len(m.stack) < target.ParamCount {
		return fault(StackUnderflow, at, "call needs %d argument(s), has %d", target.ParamCount, len(m.stack))
	}

	envDepth := len(m.env)
	for i := 0; i < target.ParamCount; i++ {
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.env = append(m.env, v)
	}

	recurseDepth := 0
	if instr.Op == format.OpRecurse {
		recurseDepth = m.frames[len(m.frames)-1].RecurseDepth
	}
	frame := Frame{
		ReturnPC:     m.pc,
		EnvDepth:     envDepth,
		FuncIdx:      funcIdx,
		RecurseDepth: recurseDepth,
		CaseCtxDepth: len(m.caseCtxs),
	}

	for _, r := range target.PreRanges {
		m.pc = r.Start
		if err := m.runUntil(r.End); err != nil {
			return err
		}
		v, err := m.pop()
		if err != nil {
			return err
		}
		if v.Kind != format.KindBool || !v.AsBool() {
			return fault(PreconditionFailed, r.Start, "")
		}
	}

	m.frames = append(m.frames, frame)
	m.pc = target.BodyStart
	return nil
}

// doRet implements RET: pop the return value, make it
// visible at binding index 0 for POST, run the POST sub-ranges, restore
// the binding environment to the frame's saved depth, and resume the
// caller with the return value pushed onto its stack.
func (m *Machine) doRet(at int) *Error {
	if len(m.frames) == 0 {
		return fault(UnexpectedEndOfProgram, at, "RET outside any function")
	}
	frame := m.frames[len(m.frames)-1]
	m.frames = m.frames[:len(m.frames)-1]

	retVal, err := m.pop()
	if err != nil {
		return err
	}

	// POST sees exactly [params..., retVal]: index 0 the return value,
	// 1..param_count the parameters. A body binding left un-DROPped
	// would otherwise sit above the params and shadow them, diverging
	// from the environment the contracts pass checks POST against.
	target := m.funcs[frame.FuncIdx]
	paramTop := frame.EnvDepth + target.ParamCount
	if len(m.env) > paramTop {
		m.env = m.env[:paramTop]
	}
	m.env = append(m.env, retVal)

	for _, r := range target.PostRanges {
		m.pc = r.Start
		if err := m.runUntil(r.End); err != nil {
			return err
		}
		v, err := m.pop()
		if err != nil {
			return err
		}
		if v.Kind != format.KindBool || !v.AsBool() {
			return fault(PostconditionFailed, r.Start, "")
		}
	}

	m.env = m.env[:frame.EnvDepth]
	if len(m.caseCtxs) > frame.CaseCtxDepth {
		m.caseCtxs = m.caseCtxs[:frame.CaseCtxDepth]
	}
	m.pc = frame.ReturnPC
	return m.push(retVal)
}
