package verifier

import (
	"github.com/nolang-vm/nolang/config"
	"github.com/nolang-vm/nolang/format"
)

// VerifyWithConfig runs the same eight passes as Verify, in the same
// fixed order, but against cfg's verifier limit overrides instead of the
// format package's hard ceilings directly — config.Validate already
// guarantees those overrides never loosen the hard ceilings, only
// tighten them. It also honors cfg.Verifier.FailFast: set, it stops
// after the first pass that reports any error instead of running all
// eight and collecting everything, for tooling that only wants the
// first problem rather than the default exhaustive discipline.
func VerifyWithConfig(prog format.Program, cfg *config.Config) []*Error {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ctx := newContextWithLimits(prog, Limits{
		MaxProgramSize: cfg.Verifier.MaxProgramSize,
		MaxRefDepth:    cfg.Verifier.MaxRefDepth,
		MaxRecursion:   cfg.Verifier.MaxRecursion,
	})

	passes := []func(*Context) []*Error{
		limitsPass, structuralPass, exhaustionPass, hashPass,
		typesPass, contractsPass, stackPass, reachabilityPass,
	}

	var errs []*Error
	for _, pass := range passes {
		errs = append(errs, pass(ctx)...)
		if cfg.Verifier.FailFast && len(errs) > 0 {
			return errs
		}
	}
	return errs
}
