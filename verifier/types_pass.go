package verifier

import "github.com/nolang-vm/nolang/format"

// MatchPayload records, per MATCH instruction, whether its subject's
// selected case pushes a payload value (a Variant/Maybe/Result subject
// always does, since payload is a mandatory field of the Variant value;
// a Bool subject never does). The stack pass uses this to know each
// CASE's fork depth.
type MatchPayload struct {
	HasPayload bool
	Resolved   bool // false if the subject's matchability couldn't be statically determined
}

// typesPass is analysis pass 5: an abstract-interpretation walk
// of every function body and the entry point using an Unknown-topped
// type lattice, checking arithmetic/comparison/logic operand types,
// REF validity, MATCH subject matchability, and CASE result agreement.
func typesPass(ctx *Context) []*Error {
	var errs []*Error
	ctx.MatchTypeInfo = make(map[int]MatchPayload)

	for _, fb := range ctx.Funcs {
		if fb.Malformed {
			continue
		}
		env := make([]AbstractType, fb.ParamCount)
		for i := range env {
			env[i] = unknownType
		}
		end := fb.HashAt
		if end < 0 {
			end = fb.EndFunc
		}
		_, blockErrs := simulateBlock(ctx, env, nil, fb.BodyStart, end, &fb)
		errs = append(errs, blockErrs...)
	}

	_, entryErrs := simulateBlock(ctx, nil, nil, ctx.EntryPoint, len(ctx.Prog), nil)
	errs = append(errs, entryErrs...)

	return errs
}

// simulateBlock walks instructions in [start, end) maintaining an
// abstract operand stack and binding environment, recursing into
// MATCH..EXHAUST constructs case by case. fn is the enclosing function
// (for RECURSE's param count), nil at the entry point.
func simulateBlock(ctx *Context, env []AbstractType, stack []AbstractType, start, end int, fn *FuncBlock) ([]AbstractType, []*Error) {
	var errs []*Error
	pop := func() AbstractType {
		if len(stack) == 0 {
			return unknownType
		}
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return t
	}
	push := func(t AbstractType) { stack = append(stack, t) }

	for i := start; i < end; i++ {
		if ctx.ConstExt[i] {
			continue
		}
		instr := ctx.Prog[i]
		declared := fromTag(instr.Tag)

		switch instr.Op {
		case format.OpBind:
			env = append(env, pop())
		case format.OpRef:
			k := int(instr.Arg1)
			if k >= len(env) {
				errs = append(errs, newErr(UnresolvableRef, i, "REF %d exceeds binding depth %d", k, len(env)))
				push(unknownType)
			} else {
				push(env[len(env)-1-k])
			}
		case format.OpDrop:
			if len(env) > 0 {
				env = env[:len(env)-1]
			}
		case format.OpConst, format.OpConstExt:
			push(declared)
		case format.OpAdd, format.OpSub, format.OpMul, format.OpDiv, format.OpMod:
			if !isNumeric(declared.Kind) {
				errs = append(errs, newErr(TypeMismatch, i, "arithmetic requires a numeric type"))
			}
			if instr.Op == format.OpMod && declared.Kind == AKF64 {
				errs = append(errs, newErr(TypeMismatch, i, "MOD is forbidden on F64"))
			}
			b, a := pop(), pop()
			if mismatch(declared.Kind, a.Kind) || mismatch(declared.Kind, b.Kind) {
				errs = append(errs, newErr(TypeMismatch, i, "operand type disagrees with declared %v", declared.Kind))
			}
			push(declared)
		case format.OpNeg:
			if declared.Kind != AKI64 && declared.Kind != AKF64 {
				errs = append(errs, newErr(TypeMismatch, i, "NEG is only valid on I64 or F64"))
			}
			a := pop()
			if mismatch(declared.Kind, a.Kind) {
				errs = append(errs, newErr(TypeMismatch, i, "operand type disagrees with declared %v", declared.Kind))
			}
			push(declared)
		case format.OpEq, format.OpNeq, format.OpLt, format.OpLte, format.OpGt, format.OpGte:
			b, a := pop(), pop()
			if mismatch(declared.Kind, a.Kind) || mismatch(declared.Kind, b.Kind) {
				errs = append(errs, newErr(TypeMismatch, i, "comparison operand disagrees with declared %v", declared.Kind))
			}
			push(AbstractType{Kind: AKBool})
		case format.OpAnd, format.OpOr, format.OpXor:
			if declared.Kind != AKBool && !isInteger(declared.Kind) {
				errs = append(errs, newErr(TypeMismatch, i, "logic/bitwise requires Bool or integer type"))
			}
			b, a := pop(), pop()
			if mismatch(declared.Kind, a.Kind) || mismatch(declared.Kind, b.Kind) {
				errs = append(errs, newErr(TypeMismatch, i, "operand type disagrees with declared %v", declared.Kind))
			}
			push(declared)
		case format.OpNot:
			if declared.Kind != AKBool && !isInteger(declared.Kind) {
				errs = append(errs, newErr(TypeMismatch, i, "logic/bitwise requires Bool or integer type"))
			}
			a := pop()
			if mismatch(declared.Kind, a.Kind) {
				errs = append(errs, newErr(TypeMismatch, i, "operand type disagrees with declared %v", declared.Kind))
			}
			push(declared)
		case format.OpShl, format.OpShr:
			if !isInteger(declared.Kind) {
				errs = append(errs, newErr(TypeMismatch, i, "shifts require an integer type"))
			}
			b, a := pop(), pop()
			if mismatch(declared.Kind, a.Kind) || mismatch(declared.Kind, b.Kind) {
				errs = append(errs, newErr(TypeMismatch, i, "operand type disagrees with declared %v", declared.Kind))
			}
			push(declared)
		case format.OpMatch:
			mi, ok := ctx.MatchByIndex[i]
			if !ok || ctx.Matches[mi].Malformed {
				pop()
				push(unknownType)
				continue
			}
			mb := ctx.Matches[mi]
			subject := pop()
			effective := declared
			if effective.Kind == AKUnknown {
				effective = subject
			} else if mismatch(declared.Kind, subject.Kind) {
				errs = append(errs, newErr(TypeMismatch, i, "MATCH tag disagrees with inferred subject type"))
			}

			info := MatchPayload{}
			switch effective.Kind {
			case AKBool:
				info.HasPayload, info.Resolved = false, true
			case AKVariant:
				info.HasPayload, info.Resolved = true, true
			case AKUnknown:
				errs = append(errs, newErr(TypeMismatch, i, "MATCH subject type could not be determined statically"))
				info.HasPayload, info.Resolved = true, false
			default:
				errs = append(errs, newErr(TypeMismatch, i, "MATCH subject must be Bool, Variant, Maybe, or Result"))
				info.HasPayload, info.Resolved = true, false
			}
			ctx.MatchTypeInfo[i] = info

			var result AbstractType
			resultKnown := false
			for _, c := range mb.Cases {
				caseStack := append([]AbstractType(nil), stack...)
				if info.HasPayload {
					caseStack = append(caseStack, unknownType)
				}
				caseEnv := append([]AbstractType(nil), env...)
				finalStack, caseErrs := simulateBlock(ctx, caseEnv, caseStack, c.Body.Start, c.Body.End, fn)
				errs = append(errs, caseErrs...)
				if len(finalStack) == 0 {
					continue
				}
				top := finalStack[len(finalStack)-1]
				if !resultKnown {
					result, resultKnown = top, true
				} else if mismatch(result.Kind, top.Kind) {
					errs = append(errs, newErr(TypeMismatch, c.CaseAt, "CASE bodies disagree on result type"))
				} else if result.Kind == AKUnknown {
					result = top
				}
			}
			if !resultKnown {
				result = unknownType
			}
			push(result)
			i = mb.ExhaustAt
		case format.OpCall, format.OpRecurse:
			var target *FuncBlock
			if instr.Op == format.OpCall {
				k := int(instr.Arg1)
				if k >= 0 && k < len(ctx.Funcs) {
					target = &ctx.Funcs[k]
				}
				// Inside a function body, CALL may only name an earlier
				// function: the call graph stays a DAG, and RECURSE (with
				// its mandatory depth limit) is the one way back into the
				// current function. Without this, two CALLs could cycle
				// with no budget bounding them.
				if fn != nil && target != nil {
					if self, ok := ctx.FuncByIndex[fn.Index]; ok && k >= self {
						errs = append(errs, newErr(UnresolvableRef, i, "CALL %d from function %d: only earlier functions are callable", k, self))
					}
				}
			} else {
				target = fn
			}
			if target == nil {
				errs = append(errs, newErr(UnresolvableRef, i, "call target does not exist"))
			} else {
				for n := 0; n < target.ParamCount; n++ {
					pop()
				}
			}
			push(unknownType)
		case format.OpRet:
			pop()
		case format.OpVariantNew:
			pop()
			push(AbstractType{Kind: AKVariant})
		case format.OpTupleNew:
			n := int(instr.Arg1)
			for j := 0; j < n; j++ {
				pop()
			}
			push(AbstractType{Kind: AKTuple})
		case format.OpProject:
			a := pop()
			if a.Kind != AKUnknown && a.Kind != AKTuple {
				errs = append(errs, newErr(TypeMismatch, i, "PROJECT requires a Tuple"))
			}
			push(unknownType)
		case format.OpArrayNew:
			n := int(instr.Arg1)
			for j := 0; j < n; j++ {
				a := pop()
				if mismatch(declared.Kind, a.Kind) {
					errs = append(errs, newErr(TypeMismatch, i, "array element disagrees with declared %v", declared.Kind))
				}
			}
			push(AbstractType{Kind: AKArray})
		case format.OpArrayGet:
			idx := pop()
			if mismatch(AKU64, idx.Kind) {
				errs = append(errs, newErr(TypeMismatch, i, "ARRAY_GET index must be U64"))
			}
			arr := pop()
			if arr.Kind != AKUnknown && arr.Kind != AKArray {
				errs = append(errs, newErr(TypeMismatch, i, "ARRAY_GET requires an Array"))
			}
			push(unknownType)
		case format.OpArrayLen:
			arr := pop()
			if arr.Kind != AKUnknown && arr.Kind != AKArray {
				errs = append(errs, newErr(TypeMismatch, i, "ARRAY_LEN requires an Array"))
			}
			push(AbstractType{Kind: AKU64})
		case format.OpAssert:
			a := pop()
			if mismatch(AKBool, a.Kind) {
				errs = append(errs, newErr(TypeMismatch, i, "ASSERT requires Bool"))
			}
		case format.OpTypeof:
			// TYPEOF peeks: the inspected value stays put under the Bool.
			a := pop()
			push(a)
			push(AbstractType{Kind: AKBool})
		}
	}
	return stack, errs
}
