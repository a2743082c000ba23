package verifier

import "github.com/nolang-vm/nolang/format"

// Verify runs all eight analysis passes over prog in fixed order and
// returns every error found. A pass that discovers a fatally malformed
// region marks it via Context.Fatal so later passes don't cascade
// further false positives out of it, but every pass still runs over
// the rest of the program: verification is exhaustive, not fail-fast.
func Verify(prog format.Program) []*Error {
	ctx := newContext(prog)

	var errs []*Error
	errs = append(errs, limitsPass(ctx)...)
	errs = append(errs, structuralPass(ctx)...)
	errs = append(errs, exhaustionPass(ctx)...)
	errs = append(errs, hashPass(ctx)...)
	errs = append(errs, typesPass(ctx)...)
	errs = append(errs, contractsPass(ctx)...)
	errs = append(errs, stackPass(ctx)...)
	errs = append(errs, reachabilityPass(ctx)...)

	return errs
}

// Ok reports whether prog passed every analysis pass.
func Ok(prog format.Program) bool {
	return len(Verify(prog)) == 0
}
