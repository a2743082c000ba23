package verifier

import "github.com/nolang-vm/nolang/format"

// limitsPass is analysis pass 1: the cheap, context-free bounds
// checks that every later pass can assume hold.
func limitsPass(ctx *Context) []*Error {
	var errs []*Error

	if len(ctx.Prog) > ctx.Limits.MaxProgramSize {
		errs = append(errs, newErr(ProgramTooLarge, len(ctx.Prog)-1, "program has %d instructions, limit is %d", len(ctx.Prog), ctx.Limits.MaxProgramSize))
	}

	for i, instr := range ctx.Prog {
		switch instr.Op {
		case format.OpRef:
			if int(instr.Arg1) >= ctx.Limits.MaxRefDepth {
				errs = append(errs, newErr(RefTooDeep, i, "REF index %d exceeds limit %d", instr.Arg1, ctx.Limits.MaxRefDepth))
			}
		case format.OpRecurse:
			if int(instr.Arg1) > ctx.Limits.MaxRecursion {
				errs = append(errs, newErr(RecursionLimitTooHigh, i, "RECURSE limit %d exceeds %d", instr.Arg1, ctx.Limits.MaxRecursion))
			}
		}
	}

	return errs
}
