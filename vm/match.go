package vm

import "github.com/nolang-vm/nolang/format"

// doMatch implements MATCH: pop the subject, extract its runtime tag,
// find the CASE with that tag, push the payload if the subject is a Variant
// that carries one (VARIANT_NEW always stores a payload; only a Variant
// built outside the VM, such as a witness input, can lack one), jump
// into its body, and install the case context that redirects PC to just
// past EXHAUST once the body runs out.
func (m *Machine) doMatch(instr format.Instruction, at int) *Error {
	subject, err := m.pop()
	if err != nil {
		return err
	}

	var tag int
	switch subject.Kind {
	case format.KindBool:
		if subject.AsBool() {
			tag = 1
		}
	case format.KindVariant:
		tag = int(subject.VariantTag())
	default:
		return fault(TypeofMismatch, at, "MATCH on a non-matchable value")
	}

	bodyStart, bodyEnd, afterExhaust, found := findCase(m.prog, at, tag)
	if !found {
		return fault(InvalidCaseTag, at, "no CASE for tag %d", tag)
	}

	if subject.Kind == format.KindVariant && subject.VariantPayload() != nil {
		if err := m.push(*subject.VariantPayload()); err != nil {
			return err
		}
	}

	m.pc = bodyStart
	m.caseCtxs = append(m.caseCtxs, caseContext{bodyEnd: bodyEnd, after: afterExhaust})
	return nil
}

// findCase linearly scans the CASEs belonging to the MATCH at matchAt,
// skipping over any nested MATCH block wholesale, and returns the
// matched case's body range and the PC just past the whole block's
// EXHAUST.
func findCase(prog format.Program, matchAt, tag int) (bodyStart, bodyEnd, afterExhaust int, found bool) {
	depth := 0
	var curTag, curStart int
	haveCur := false

	closeCurrent := func(end int) {
		if haveCur && curTag == tag && !found {
			bodyStart, bodyEnd, found = curStart, end, true
		}
		haveCur = false
	}

	for i := matchAt + 1; i < len(prog); i++ {
		op := prog[i].Op
		if op == format.OpConstExt {
			i++
			continue
		}
		if depth > 0 {
			if op == format.OpMatch {
				depth++
			} else if op == format.OpExhaust {
				depth--
			}
			continue
		}
		switch op {
		case format.OpMatch:
			depth++
		case format.OpCase:
			closeCurrent(i)
			curTag, curStart, haveCur = int(prog[i].Arg1), i+1, true
		case format.OpExhaust:
			closeCurrent(i)
			return bodyStart, bodyEnd, i + 1, found
		}
	}

	return 0, 0, 0, false
}
