package verifier

// contractsPass is analysis pass 6: every PRE block must reduce
// to a single Bool given a synthetic environment of the function's
// parameters; every POST block must reduce to a single Bool given the
// parameters plus the return value bound at index 0 (the most recently
// pushed binding, per the de Bruijn convention).
func contractsPass(ctx *Context) []*Error {
	var errs []*Error

	for _, fb := range ctx.Funcs {
		if fb.Malformed {
			continue
		}
		for _, r := range fb.PreBlocks {
			env := unknownEnv(fb.ParamCount)
			errs = append(errs, checkContractBlock(ctx, env, r, PreConditionNotBool)...)
		}
		for _, r := range fb.PostBlocks {
			env := unknownEnv(fb.ParamCount + 1)
			errs = append(errs, checkContractBlock(ctx, env, r, PostConditionNotBool)...)
		}
	}

	return errs
}

func unknownEnv(n int) []AbstractType {
	env := make([]AbstractType, n)
	for i := range env {
		env[i] = unknownType
	}
	return env
}

func checkContractBlock(ctx *Context, env []AbstractType, r Range, notBool Kind) []*Error {
	finalStack, errs := simulateBlock(ctx, env, nil, r.Start, r.End, nil)
	if len(finalStack) != 1 {
		errs = append(errs, newErr(notBool, r.Start, "contract block leaves %d value(s) on the stack, expected exactly 1", len(finalStack)))
		return errs
	}
	top := finalStack[len(finalStack)-1]
	if mismatch(AKBool, top.Kind) {
		errs = append(errs, newErr(notBool, r.Start, "contract block produced %v, not Bool", top.Kind))
	}
	return errs
}

func (k AbstractKind) String() string {
	switch k {
	case AKUnknown:
		return "Unknown"
	case AKI64:
		return "I64"
	case AKU64:
		return "U64"
	case AKF64:
		return "F64"
	case AKBool:
		return "Bool"
	case AKChar:
		return "Char"
	case AKUnit:
		return "Unit"
	case AKVariant:
		return "Variant"
	case AKTuple:
		return "Tuple"
	case AKArray:
		return "Array"
	default:
		return "?"
	}
}
