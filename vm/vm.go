package vm

import (
	"math"

	"github.com/nolang-vm/nolang/format"
)

// Frame is the VM's record of one outstanding function invocation:
// the return address, the binding-environment depth to restore to on
// RET, which function this is (for RECURSE), and the current recursion
// depth.
type Frame struct {
	ReturnPC     int
	EnvDepth     int
	FuncIdx      int
	RecurseDepth int
	// CaseCtxDepth is the case-context stack height at call time; RET
	// truncates back to it so a callee abandoned mid-CASE (possible only
	// on unverified input) can't leak a pending context into its caller.
	CaseCtxDepth int
}

// caseContext is the conditional jump to EXHAUST: the main loop
// checks it before every fetch and, once PC reaches the matched CASE
// body's end, redirects to just past EXHAUST.
//
// A single pending context isn't enough: a CASE body can RECURSE back
// into the same function, whose own MATCH reuses the identical
// instruction range and would overwrite a lone context before the
// outer invocation's body-end ever fires. Contexts are therefore kept
// on a stack, LIFO, which lines up exactly with call/return nesting —
// only the top is ever consulted, and it's popped once consumed.
type caseContext struct {
	bodyEnd int
	after   int
}

// Machine holds all mutable execution state for one Execute call.
type Machine struct {
	prog     format.Program
	funcs    []FuncMeta
	stack    []format.Value
	env      []format.Value
	frames   []Frame
	pc       int
	caseCtxs []caseContext
	stackCap int // operand stack capacity; 0 means format.OperandStackCap
}

// effectiveStackCap returns m.stackCap, falling back to the hard
// ceiling when unset or configured out of range.
func (m *Machine) effectiveStackCap() int {
	if m.stackCap <= 0 || m.stackCap > format.OperandStackCap {
		return format.OperandStackCap
	}
	return m.stackCap
}

// resolveCaseContext jumps PC past EXHAUST for every case context whose
// body has just ended, looping in case an empty body leaves PC exactly
// on the next context's boundary too.
func (m *Machine) resolveCaseContext() {
	for len(m.caseCtxs) > 0 && m.pc == m.caseCtxs[len(m.caseCtxs)-1].bodyEnd {
		top := m.caseCtxs[len(m.caseCtxs)-1]
		m.caseCtxs = m.caseCtxs[:len(m.caseCtxs)-1]
		m.pc = top.after
	}
}

// Execute runs prog from its entry point to HALT. It is total:
// on any program, decoded but not necessarily verified, it returns
// either the halted top-of-stack Value or a typed *Error — never a
// panic, and never an infinite loop beyond what the program's own
// RECURSE/CALL structure specifies.
func Execute(prog format.Program) (format.Value, *Error) {
	return ExecuteWithStackCap(prog, format.OperandStackCap)
}

// ExecuteWithStackCap runs prog exactly as Execute does, but caps the
// operand stack at stackCap instead of the hard ceiling
// format.OperandStackCap directly — a value outside (0, OperandStackCap]
// falls back to the hard ceiling (the cap may only be tightened,
// never loosened).
func ExecuteWithStackCap(prog format.Program, stackCap int) (format.Value, *Error) {
	funcs, entry := scanPrelude(prog)
	m := &Machine{prog: prog, funcs: funcs, pc: entry, stackCap: stackCap}

	for {
		m.resolveCaseContext()
		if m.pc < 0 || m.pc >= len(prog) {
			return format.Value{}, fault(UnexpectedEndOfProgram, m.pc, "program counter left the program")
		}
		if prog[m.pc].Op == format.OpHalt {
			switch len(m.stack) {
			case 1:
				return m.stack[0], nil
			case 0:
				return format.Value{}, fault(HaltWithEmptyStack, m.pc, "")
			default:
				return format.Value{}, fault(HaltWithMultipleValues, m.pc, "stack holds %d values", len(m.stack))
			}
		}
		if err := m.step(); err != nil {
			return format.Value{}, err
		}
	}
}

// runUntil executes step() repeatedly starting at the Machine's current
// PC until PC reaches stop, used for PRE/POST contract sub-ranges in
// CALL/RET handling and by CallFunction to run a called function until
// it returns.
func (m *Machine) runUntil(stop int) *Error {
	for m.pc != stop {
		m.resolveCaseContext()
		if m.pc < 0 || m.pc >= len(m.prog) {
			return fault(UnexpectedEndOfProgram, m.pc, "program counter left the program")
		}
		if err := m.step(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) pop() (format.Value, *Error) {
	if len(m.stack) == 0 {
		return format.Value{}, fault(StackUnderflow, m.pc, "")
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *Machine) push(v format.Value) *Error {
	limit := m.effectiveStackCap()
	if len(m.stack) >= limit {
		return fault(StackOverflow, m.pc, "limit %d", limit)
	}
	m.stack = append(m.stack, v)
	return nil
}

func (m *Machine) checkFloat(at int, f float64) *Error {
	if math.IsNaN(f) {
		return fault(FloatNaN, at, "")
	}
	if math.IsInf(f, 0) {
		return fault(FloatInfinity, at, "")
	}
	return nil
}

// step executes exactly one logical instruction at m.pc, advancing pc
// (or redirecting it, for MATCH/CALL/RECURSE/RET) and returns a fault if
// one occurred. Sentinel opcodes a well-formed control flow never lands
// on directly (FUNC, PRE, POST, ENDFUNC, CASE, EXHAUST, NOP, HASH) are
// no-ops: the loop simply skips over them.
func (m *Machine) step() *Error {
	at := m.pc
	instr := m.prog[at]
	m.pc++

	switch instr.Op {
	case format.OpNop, format.OpHash, format.OpFunc, format.OpPre, format.OpPost,
		format.OpEndFunc, format.OpCase, format.OpExhaust:
		return nil

	case format.OpBind:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.env = append(m.env, v)
		return nil

	case format.OpRef:
		k := int(instr.Arg1)
		if k >= len(m.env) {
			return fault(BindingUnderflow, at, "REF %d exceeds binding depth %d", k, len(m.env))
		}
		return m.push(m.env[len(m.env)-1-k])

	case format.OpDrop:
		if len(m.env) == 0 {
			return fault(BindingUnderflow, at, "DROP on empty environment")
		}
		m.env = m.env[:len(m.env)-1]
		return nil

	case format.OpConst:
		v, ok := format.ConstValue(instr)
		if !ok {
			return fault(TypeofMismatch, at, "CONST tag %v cannot synthesize a value", instr.Tag)
		}
		return m.push(v)

	case format.OpConstExt:
		if at+1 >= len(m.prog) {
			return fault(UnexpectedEndOfProgram, at, "CONST_EXT missing trailing slot")
		}
		trailing := m.prog[at+1]
		v, ok := format.ConstExtValue(instr, trailing)
		if !ok {
			return fault(TypeofMismatch, at, "CONST_EXT tag %v cannot synthesize a value", instr.Tag)
		}
		if v.Kind == format.KindF64 {
			if err := m.checkFloat(at, v.AsF64()); err != nil {
				return err
			}
		}
		m.pc = at + 2
		return m.push(v)

	case format.OpAdd, format.OpSub, format.OpMul, format.OpDiv, format.OpMod:
		return m.binaryArith(instr.Op, instr.Tag, at)

	case format.OpNeg:
		return m.negate(instr.Tag, at)

	case format.OpEq, format.OpNeq, format.OpLt, format.OpLte, format.OpGt, format.OpGte:
		return m.compare(instr.Op, instr.Tag, at)

	case format.OpAnd, format.OpOr, format.OpXor, format.OpShl, format.OpShr:
		return m.logicBinary(instr.Op, instr.Tag, at)

	case format.OpNot:
		return m.logicNot(instr.Tag, at)

	case format.OpMatch:
		return m.doMatch(instr, at)

	case format.OpCall, format.OpRecurse:
		return m.doCall(instr, at)

	case format.OpRet:
		return m.doRet(at)

	case format.OpVariantNew:
		payload, err := m.pop()
		if err != nil {
			return err
		}
		return m.push(format.Variant(instr.Arg1, instr.Arg2, &payload))

	case format.OpTupleNew:
		n := int(instr.Arg1)
		fields := make([]format.Value, n)
		for i := n - 1; i >= 0; i-- {
			v, err := m.pop()
			if err != nil {
				return err
			}
			fields[i] = v
		}
		return m.push(format.Tuple(fields))

	case format.OpProject:
		tup, err := m.pop()
		if err != nil {
			return err
		}
		if tup.Kind != format.KindTuple {
			return fault(ArrayIndexOutOfBounds, at, "PROJECT on a non-Tuple value")
		}
		idx := int(instr.Arg1)
		elems := tup.Elements()
		if idx < 0 || idx >= len(elems) {
			return fault(ArrayIndexOutOfBounds, at, "tuple index %d out of range [0,%d)", idx, len(elems))
		}
		return m.push(elems[idx])

	case format.OpArrayNew:
		n := int(instr.Arg1)
		elems := make([]format.Value, n)
		for i := n - 1; i >= 0; i-- {
			v, err := m.pop()
			if err != nil {
				return err
			}
			elems[i] = v
		}
		return m.push(format.Array(elems))

	case format.OpArrayGet:
		idx, err := m.pop()
		if err != nil {
			return err
		}
		arr, err := m.pop()
		if err != nil {
			return err
		}
		if arr.Kind != format.KindArray {
			return fault(ArrayIndexOutOfBounds, at, "ARRAY_GET on a non-Array value")
		}
		i := int(idx.AsU64())
		elems := arr.Elements()
		if i < 0 || i >= len(elems) {
			return fault(ArrayIndexOutOfBounds, at, "index %d out of range [0,%d)", i, len(elems))
		}
		return m.push(elems[i])

	case format.OpArrayLen:
		arr, err := m.pop()
		if err != nil {
			return err
		}
		if arr.Kind != format.KindArray {
			return fault(ArrayIndexOutOfBounds, at, "ARRAY_LEN on a non-Array value")
		}
		return m.push(format.U64(uint64(len(arr.Elements()))))

	case format.OpAssert:
		v, err := m.pop()
		if err != nil {
			return err
		}
		if v.Kind != format.KindBool || !v.AsBool() {
			return fault(AssertFailed, at, "")
		}
		return nil

	case format.OpTypeof:
		v, err := m.pop()
		if err != nil {
			return err
		}
		if err := m.push(v); err != nil {
			return err
		}
		return m.push(format.Bool(v.TypeTag() == instr.Tag))

	default:
		return nil
	}
}
