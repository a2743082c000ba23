package verifier

import "github.com/nolang-vm/nolang/format"

// structuralPass is analysis pass 2: it establishes function
// blocks, match blocks, CONST_EXT data slots, and the entry point, and
// checks the mechanical nesting/ordering/zero-field invariants that
// don't require type or stack reasoning. It is the pass every other
// pass depends on for shared context.
func structuralPass(ctx *Context) []*Error {
	var errs []*Error

	markConstExtSlots(ctx)
	errs = append(errs, buildMatchBlocks(ctx)...)
	errs = append(errs, buildFuncBlocks(ctx)...)
	errs = append(errs, checkUnusedFields(ctx)...)
	errs = append(errs, checkHalt(ctx)...)

	// Entry point: first instruction after the last ENDFUNC, or 0.
	ctx.EntryPoint = 0
	for _, fb := range ctx.Funcs {
		if fb.EndFunc+1 > ctx.EntryPoint {
			ctx.EntryPoint = fb.EndFunc + 1
		}
	}
	if len(ctx.Prog) > 0 && ctx.EntryPoint > len(ctx.Prog) {
		ctx.EntryPoint = len(ctx.Prog)
	}

	return errs
}

// markConstExtSlots records which instruction slots are CONST_EXT
// trailing data before any bracket matching runs: a payload slot's
// bytes are raw data, so even if they happen to decode as
// MATCH/FUNC/anything else, no pass may interpret them structurally.
func markConstExtSlots(ctx *Context) {
	for i := 0; i < len(ctx.Prog); i++ {
		if ctx.ConstExt[i] {
			continue
		}
		if ctx.Prog[i].Op == format.OpConstExt && i+1 < len(ctx.Prog) {
			ctx.ConstExt[i+1] = true
		}
	}
}

func checkHalt(ctx *Context) []*Error {
	n := len(ctx.Prog)
	if n == 0 || ctx.Prog[n-1].Op != format.OpHalt {
		return []*Error{newErr(MissingHalt, n-1, "program must end with HALT")}
	}
	return nil
}

type matchFrame struct {
	matchAt      int
	cases        []CaseBlock
	curCaseStart int
}

// buildMatchBlocks bracket-matches MATCH/CASE/EXHAUST, allowing
// arbitrary nesting of MATCH blocks inside CASE bodies, and checks the
// canonical ascending-tag ordering invariant.
func buildMatchBlocks(ctx *Context) []*Error {
	var errs []*Error
	var stack []*matchFrame

	for i, instr := range ctx.Prog {
		if ctx.ConstExt[i] {
			continue
		}
		switch instr.Op {
		case format.OpMatch:
			stack = append(stack, &matchFrame{matchAt: i, curCaseStart: -1})
		case format.OpCase:
			if len(stack) == 0 {
				errs = append(errs, newErr(UnmatchedMatch, i, "CASE outside any MATCH"))
				continue
			}
			top := stack[len(stack)-1]
			if top.curCaseStart >= 0 {
				top.cases[len(top.cases)-1].Body.End = i
			}
			tag := int(instr.Arg1)
			if n := len(top.cases); n > 0 {
				prev := top.cases[n-1].Tag
				if tag != prev && tag < prev {
					errs = append(errs, newErr(CaseOrderViolation, i, "tag %d follows tag %d out of ascending order", tag, prev))
				}
			}
			top.cases = append(top.cases, CaseBlock{CaseAt: i, Tag: tag, Body: Range{Start: i + 1}})
			top.curCaseStart = i + 1
		case format.OpExhaust:
			if len(stack) == 0 {
				errs = append(errs, newErr(UnmatchedMatch, i, "EXHAUST outside any MATCH"))
				continue
			}
			top := stack[len(stack)-1]
			if top.curCaseStart >= 0 {
				top.cases[len(top.cases)-1].Body.End = i
			}
			mb := MatchBlock{MatchAt: top.matchAt, Cases: top.cases, ExhaustAt: i}
			ctx.MatchByIndex[top.matchAt] = len(ctx.Matches)
			ctx.Matches = append(ctx.Matches, mb)
			stack = stack[:len(stack)-1]
		}
	}

	for _, f := range stack {
		errs = append(errs, newErr(UnmatchedMatch, f.matchAt, "MATCH without matching EXHAUST"))
		mb := MatchBlock{MatchAt: f.matchAt, Cases: f.cases, ExhaustAt: -1, Malformed: true}
		ctx.MatchByIndex[f.matchAt] = len(ctx.Matches)
		ctx.Matches = append(ctx.Matches, mb)
		ctx.markFatal(Range{Start: f.matchAt, End: len(ctx.Prog)})
	}

	return errs
}

// buildFuncBlocks bracket-matches FUNC/ENDFUNC (no nesting allowed),
// locates each block's PRE/POST/RET/HASH sub-structure, and assigns
// binding indices in FUNC appearance order (CALL names a function by
// that ordinal, not by identifier).
func buildFuncBlocks(ctx *Context) []*Error {
	var errs []*Error
	depth := 0
	start := -1

	for i, instr := range ctx.Prog {
		if ctx.ConstExt[i] {
			continue
		}
		switch instr.Op {
		case format.OpFunc:
			if depth > 0 {
				errs = append(errs, newErr(NestedFunc, i, "FUNC nested inside another FUNC"))
			} else {
				start = i
			}
			depth++
		case format.OpEndFunc:
			if depth == 0 {
				errs = append(errs, newErr(UnmatchedFunc, i, "ENDFUNC without matching FUNC"))
				continue
			}
			depth--
			if depth == 0 {
				fb, blockErrs := buildOneFunc(ctx, start, i)
				errs = append(errs, blockErrs...)
				idx := len(ctx.Funcs)
				ctx.FuncByIndex[start] = idx
				ctx.Funcs = append(ctx.Funcs, fb)
			}
		}
	}
	if depth > 0 {
		errs = append(errs, newErr(UnmatchedFunc, start, "FUNC without matching ENDFUNC"))
		ctx.markFatal(Range{Start: start, End: len(ctx.Prog)})
	}
	return errs
}

func buildOneFunc(ctx *Context, start, end int) (FuncBlock, []*Error) {
	var errs []*Error
	fb := FuncBlock{Index: start, EndFunc: end, RetAt: -1, HashAt: -1}
	fb.ParamCount = int(ctx.Prog[start].Arg1)

	cursor := start + 1
	for cursor < end && ctx.Prog[cursor].Op == format.OpPre {
		contentEnd, next, err := scanContractBlock(ctx, cursor+1, end)
		if err != nil {
			errs = append(errs, err)
			fb.Malformed = true
			ctx.markFatal(Range{Start: start, End: end + 1})
			return fb, errs
		}
		fb.PreBlocks = append(fb.PreBlocks, Range{Start: cursor + 1, End: contentEnd})
		cursor = next
	}
	for cursor < end && ctx.Prog[cursor].Op == format.OpPost {
		contentEnd, next, err := scanContractBlock(ctx, cursor+1, end)
		if err != nil {
			errs = append(errs, err)
			fb.Malformed = true
			ctx.markFatal(Range{Start: start, End: end + 1})
			return fb, errs
		}
		fb.PostBlocks = append(fb.PostBlocks, Range{Start: cursor + 1, End: contentEnd})
		cursor = next
	}
	fb.BodyStart = cursor

	if end-1 >= fb.BodyStart && ctx.Prog[end-1].Op == format.OpHash {
		fb.HashAt = end - 1
	}

	retCount := 0
	for i := fb.BodyStart; i < end; i++ {
		if i == fb.HashAt || ctx.ConstExt[i] {
			continue
		}
		if ctx.Prog[i].Op == format.OpRet {
			if retCount == 0 {
				fb.RetAt = i
			} else {
				errs = append(errs, newErr(UnbalancedStack, i, "function body contains more than one RET"))
			}
			retCount++
		}
	}
	if retCount == 0 {
		errs = append(errs, newErr(UnbalancedStack, start, "function body missing RET"))
	}

	return fb, errs
}

// scanContractBlock finds the end of a PRE/POST sub-block. A depth-only
// delimiter is ambiguous here: "REF 0; CONST I64 0; GTE" touches depth 1
// again right after the lone REF, long before the expression the author
// meant is actually finished, and the instruction stream gives no way to
// tell the two readings apart by stack shape alone. This implementation
// instead resolves the undocumented PRE/POST delimiter (see DESIGN.md) by
// requiring an explicit terminator: a PRE/POST block's content runs from
// `from` up to (not including) the next NOP not belonging to a CONST_EXT
// trailing slot, and that NOP is consumed as the block's end marker.
// contentEnd is the NOP's index (the exclusive end of the expression);
// next is contentEnd+1, where scanning for the following PRE/POST/body
// resumes.
func scanContractBlock(ctx *Context, from, limit int) (contentEnd, next int, err *Error) {
	i := from
	for i < limit {
		op := ctx.Prog[i].Op
		if op == format.OpFunc || op == format.OpEndFunc {
			return 0, 0, newErr(UnbalancedStack, from, "FUNC/ENDFUNC inside a PRE/POST block before its terminating NOP")
		}
		if op == format.OpConstExt {
			i += 2
			continue
		}
		if op == format.OpNop {
			return i, i + 1, nil
		}
		i++
	}
	return 0, 0, newErr(UnbalancedStack, from, "PRE/POST block has no terminating NOP")
}

// checkUnusedFields enforces that every field an opcode does not use is
// zero, skipping CONST_EXT trailing data slots (which are raw
// payload bytes, not instructions).
func checkUnusedFields(ctx *Context) []*Error {
	var errs []*Error
	for i := 0; i < len(ctx.Prog); i++ {
		if ctx.ConstExt[i] {
			continue
		}
		instr := ctx.Prog[i]
		u1, u2, u3 := usedArgs(instr.Op)
		if !u1 && instr.Arg1 != 0 {
			errs = append(errs, newErr(NonZeroUnusedField, i, "arg1"))
		}
		if !u2 && instr.Arg2 != 0 {
			errs = append(errs, newErr(NonZeroUnusedField, i, "arg2"))
		}
		if !u3 && instr.Arg3 != 0 {
			errs = append(errs, newErr(NonZeroUnusedField, i, "arg3"))
		}
	}
	return errs
}
