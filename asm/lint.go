package asm

import (
	"fmt"

	"github.com/nolang-vm/nolang/format"
)

// LintLevel has two severity tiers: an Error is always
// wrong, a Warning is a likely mistake worth a human's attention.
type LintLevel int

const (
	LintError LintLevel = iota
	LintWarning
)

func (l LintLevel) String() string {
	if l == LintError {
		return "error"
	}
	return "warning"
}

// LintIssue is one finding from Lint, addressed by instruction index
// rather than a line/column pair: NoLang assembly has no labels to
// anchor a richer position, and Disassemble's canonical text always
// places one instruction per line in program order.
type LintIssue struct {
	Level   LintLevel
	At      int
	Message string
	Code    string
}

func (i *LintIssue) Error() string {
	return fmt.Sprintf("instruction %d: %s: %s [%s]", i.At, i.Level, i.Message, i.Code)
}

// Lint analyzes an assembled program for likely mistakes: code after a
// top-level HALT, a binding dropped right after it is made, a function
// no CALL names, a CONST_EXT whose payload fits a CONST, an arity over
// the 256 ceiling, and a RECURSE limit the verifier's Limits pass
// rejects. It runs independently of Verify and never blocks assembly:
// a program can have lint issues and still assemble cleanly.
func Lint(prog format.Program) []*LintIssue {
	var issues []*LintIssue
	issues = append(issues, lintUnreachableAfterHalt(prog)...)
	issues = append(issues, lintDeadBinding(prog)...)
	issues = append(issues, lintUncalledFunc(prog)...)
	issues = append(issues, lintNonCanonicalConstExt(prog)...)
	issues = append(issues, lintExcessiveArity(prog)...)
	issues = append(issues, lintExcessiveRecursionLimit(prog)...)
	return issues
}

// lintUnreachableAfterHalt flags the instruction right after a
// top-level HALT, one issue per HALT: once the VM halts it never
// resumes, so nothing between that HALT and the next FUNC block (or end
// of program) can run. A HALT inside a
// FUNC body is unreachable by construction (only RET leaves a
// function), so this check only looks at top-level code.
func lintUnreachableAfterHalt(prog format.Program) []*LintIssue {
	var issues []*LintIssue
	depth := 0
	justHalted := false
	for i, instr := range prog {
		if justHalted {
			issues = append(issues, &LintIssue{
				Level:   LintWarning,
				At:      i,
				Message: "instruction follows a HALT that already terminated the program",
				Code:    "UNREACHABLE_AFTER_HALT",
			})
			justHalted = false
		}
		switch instr.Op {
		case format.OpFunc:
			depth++
		case format.OpEndFunc:
			depth--
		case format.OpHalt:
			if depth == 0 {
				justHalted = true
			}
		}
	}
	return issues
}

// lintDeadBinding flags a BIND immediately followed by DROP: the
// binding is released before any REF could ever reach it, so the pair
// does nothing but shuffle a value off the stack and lose it.
func lintDeadBinding(prog format.Program) []*LintIssue {
	var issues []*LintIssue
	for i := 0; i+1 < len(prog); i++ {
		if prog[i].Op == format.OpBind && prog[i+1].Op == format.OpDrop {
			issues = append(issues, &LintIssue{
				Level:   LintWarning,
				At:      i,
				Message: "binding is created and immediately dropped",
				Code:    "DEAD_BIND",
			})
		}
	}
	return issues
}

// lintUncalledFunc flags a FUNC block whose binding index is never
// named by any CALL in the stream. RECURSE can only re-enter a function
// already running, so a function no CALL reaches can never execute —
// the verifier's reachability pass still accepts it (function bodies
// are live by definition there), which is exactly why it's worth a
// lint warning instead.
func lintUncalledFunc(prog format.Program) []*LintIssue {
	var funcAt []int
	called := make(map[int]bool)
	depth := 0
	for i := 0; i < len(prog); i++ {
		switch prog[i].Op {
		case format.OpConstExt:
			i++
		case format.OpFunc:
			if depth == 0 {
				funcAt = append(funcAt, i)
			}
			depth++
		case format.OpEndFunc:
			if depth > 0 {
				depth--
			}
		case format.OpCall:
			called[int(prog[i].Arg1)] = true
		}
	}

	var issues []*LintIssue
	for idx, at := range funcAt {
		if !called[idx] {
			issues = append(issues, &LintIssue{
				Level:   LintWarning,
				At:      at,
				Message: "function is never named by any CALL",
				Code:    "UNCALLED_FUNC",
			})
		}
	}
	return issues
}

// lintNonCanonicalConstExt flags a CONST_EXT whose payload would have
// fit a plain CONST: the canonical form always uses the smallest viable
// constant encoding, so a two-slot load of a 32-bit value marks a
// non-canonical producer even though both encodings execute
// identically.
func lintNonCanonicalConstExt(prog format.Program) []*LintIssue {
	var issues []*LintIssue
	for i := 0; i+1 < len(prog); i++ {
		instr := prog[i]
		if instr.Op != format.OpConstExt {
			continue
		}
		payload := format.ConstExtPayload(instr, prog[i+1])
		fits := false
		switch instr.Tag {
		case format.TagI64:
			fits = int64(payload) == int64(int32(payload))
		case format.TagU64:
			fits = payload == uint64(uint32(payload))
		}
		if fits {
			issues = append(issues, &LintIssue{
				Level:   LintWarning,
				At:      i,
				Message: "payload fits 32 bits; CONST is the canonical encoding",
				Code:    "NONCANONICAL_CONST_EXT",
			})
		}
		i++ // skip the trailing payload slot
	}
	return issues
}

// lintExcessiveArity flags a VARIANT_NEW tag count, TUPLE_NEW arity, or
// MATCH variant count over the 256 ceiling. The encoding's 16-bit
// fields can express larger values and the VM handles them without
// faulting, so this bound lives here rather than in a verification
// pass.
func lintExcessiveArity(prog format.Program) []*LintIssue {
	var issues []*LintIssue
	for i := 0; i < len(prog); i++ {
		instr := prog[i]
		switch instr.Op {
		case format.OpConstExt:
			i++
			continue
		case format.OpVariantNew, format.OpTupleNew, format.OpMatch:
			if int(instr.Arg1) > format.MaxVariantArity {
				issues = append(issues, &LintIssue{
					Level:   LintError,
					At:      i,
					Message: "tag count or arity exceeds the 256 ceiling",
					Code:    "EXCESSIVE_ARITY",
				})
			}
		}
	}
	return issues
}

// lintExcessiveRecursionLimit flags a RECURSE whose declared limit
// exceeds the hard ceiling the verifier's Limits pass enforces:
// such a program fails verification outright, so this is a preview of
// that failure at lint time, before running the full pass.
func lintExcessiveRecursionLimit(prog format.Program) []*LintIssue {
	var issues []*LintIssue
	for i, instr := range prog {
		if instr.Op == format.OpRecurse && int(instr.Arg1) > format.MaxRecursion {
			issues = append(issues, &LintIssue{
				Level:   LintError,
				At:      i,
				Message: "declared recursion limit exceeds the hard ceiling",
				Code:    "RECURSION_LIMIT_TOO_HIGH",
			})
		}
	}
	return issues
}
