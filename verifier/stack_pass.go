package verifier

import "github.com/nolang-vm/nolang/format"

// stackPass is analysis pass 7: walks every function body and the
// entry point tracking only operand-stack depth (no types), proving the
// depth never goes negative (StackUnderflow) and that it converges to
// exactly one value at each RET and at the final HALT
// (UnbalancedStack otherwise). Every MATCH branch must converge on
// depth base+1 by EXHAUST, where base is the depth after the subject
// pop.
func stackPass(ctx *Context) []*Error {
	var errs []*Error

	for _, fb := range ctx.Funcs {
		if fb.Malformed {
			continue
		}
		end := fb.HashAt
		if end < 0 {
			end = fb.EndFunc
		}
		_, blockErrs := walkDepth(ctx, fb.BodyStart, end, 0, &fb)
		errs = append(errs, blockErrs...)
	}

	_, entryErrs := walkDepth(ctx, ctx.EntryPoint, len(ctx.Prog), 0, nil)
	errs = append(errs, entryErrs...)

	return errs
}

// walkDepth returns the operand-stack depth at the end of [start, end),
// starting from initial, along with any errors found along the way.
func walkDepth(ctx *Context, start, end, initial int, fn *FuncBlock) (int, []*Error) {
	var errs []*Error
	depth := initial

	checkUnderflow := func(i, need int) bool {
		if depth < need {
			errs = append(errs, newErr(StackUnderflow, i, "needs %d operand(s), has %d", need, depth))
			return false
		}
		return true
	}

	for i := start; i < end; i++ {
		if ctx.ConstExt[i] {
			continue
		}
		instr := ctx.Prog[i]

		switch instr.Op {
		case format.OpRet:
			if depth != 1 {
				errs = append(errs, newErr(UnbalancedStack, i, "RET requires exactly 1 value on the stack, found %d", depth))
			}
			checkUnderflow(i, 1)
			depth = 0
		case format.OpHalt:
			if depth != 1 {
				errs = append(errs, newErr(UnbalancedStack, i, "HALT requires exactly 1 value on the stack, found %d", depth))
			}
		case format.OpMatch:
			mi, ok := ctx.MatchByIndex[i]
			if !ok || ctx.Matches[mi].Malformed {
				continue
			}
			mb := ctx.Matches[mi]
			checkUnderflow(i, 1)
			depth--
			base := depth
			info := ctx.MatchTypeInfo[i]
			caseInitial := base
			if info.HasPayload {
				caseInitial++
			}
			// Every branch must converge on base+1 by EXHAUST, whether
			// its entry depth was base (no payload) or base+1.
			for _, c := range mb.Cases {
				caseEnd, caseErrs := walkDepth(ctx, c.Body.Start, c.Body.End, caseInitial, fn)
				errs = append(errs, caseErrs...)
				if caseEnd != base+1 {
					errs = append(errs, newErr(UnbalancedStack, c.CaseAt, "CASE body leaves depth %d, must converge on %d", caseEnd, base+1))
				}
			}
			depth = base + 1
			i = mb.ExhaustAt
		case format.OpCall, format.OpRecurse:
			var target *FuncBlock
			if instr.Op == format.OpCall {
				k := int(instr.Arg1)
				if k >= 0 && k < len(ctx.Funcs) {
					target = &ctx.Funcs[k]
				}
			} else {
				target = fn
			}
			if target != nil {
				checkUnderflow(i, target.ParamCount)
				depth -= target.ParamCount
			}
			depth++
		case format.OpTupleNew, format.OpArrayNew:
			n := int(instr.Arg1)
			checkUnderflow(i, n)
			depth = depth - n + 1
		default:
			pop, push, ok := simpleDelta(instr.Op)
			if !ok {
				continue
			}
			checkUnderflow(i, pop)
			depth = depth - pop + push
		}
	}

	return depth, errs
}
