package verifier

import "github.com/nolang-vm/nolang/format"

// reachabilityPass is analysis pass 8, the last pass: it marks live
// every instruction from the entry point to the end of the program, the
// FUNC, PRE/POST blocks, body, HASH and ENDFUNC of every function block
// (whether or not any CALL names it), and every CASE body of a MATCH
// inside those ranges; CONST_EXT data slots and instructions inside a
// fatally malformed region are skipped. Anything else is unreachable.
// The entry region is marked whole, so code after an earlier top-level
// HALT is not flagged. NOP is exempt: it is a deliberate filler/marker
// opcode (used as CONST_EXT's trailing-slot placeholder and as the
// PRE/POST terminator) and is never itself flagged as unreachable.
func reachabilityPass(ctx *Context) []*Error {
	var errs []*Error
	live := make(map[int]bool, len(ctx.Prog))

	markRange(ctx, live, ctx.EntryPoint, len(ctx.Prog))
	for _, fb := range ctx.Funcs {
		if fb.Malformed {
			continue
		}
		live[fb.Index] = true
		for _, r := range fb.PreBlocks {
			live[r.Start-1] = true // the PRE instruction itself
			markRange(ctx, live, r.Start, r.End)
		}
		for _, r := range fb.PostBlocks {
			live[r.Start-1] = true // the POST instruction itself
			markRange(ctx, live, r.Start, r.End)
		}
		end := fb.HashAt
		if end < 0 {
			end = fb.EndFunc
		}
		markRange(ctx, live, fb.BodyStart, end)
		if fb.HashAt >= 0 {
			live[fb.HashAt] = true
		}
		live[fb.EndFunc] = true
	}

	for i, instr := range ctx.Prog {
		if ctx.isFatal(i) || ctx.ConstExt[i] || live[i] {
			continue
		}
		if instr.Op == format.OpNop {
			continue
		}
		errs = append(errs, newErr(UnreachableInstruction, i, ""))
	}

	return errs
}

// markRange marks every instruction in [start, end) live, recursing
// through MATCH/CASE bodies so nested blocks are marked even though
// they aren't walked by straight-line iteration.
func markRange(ctx *Context, live map[int]bool, start, end int) {
	for i := start; i < end; i++ {
		if ctx.ConstExt[i] {
			continue
		}
		live[i] = true
		if ctx.Prog[i].Op == format.OpMatch {
			mi, ok := ctx.MatchByIndex[i]
			if !ok {
				continue
			}
			mb := ctx.Matches[mi]
			for _, c := range mb.Cases {
				live[c.CaseAt] = true
				markRange(ctx, live, c.Body.Start, c.Body.End)
			}
			live[mb.ExhaustAt] = true
		}
	}
}
