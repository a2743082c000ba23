package verifier

import "github.com/nolang-vm/nolang/format"

// FuncBlock describes one FUNC..ENDFUNC region discovered by the
// structural pass. Index ranges are all inclusive of
// their start, exclusive of their end, except where noted.
type FuncBlock struct {
	Index      int // FUNC instruction's own slot index; the binding index is the block's position in Context.Funcs (see FuncByIndex)
	ParamCount int
	PreBlocks  []Range // each PRE sub-block's body (instructions strictly after the PRE sentinel, up to but not including its terminating NOP)
	PostBlocks []Range
	BodyStart  int // first body instruction after the PRE/POST prologue
	RetAt      int // index of the block's RET instruction, -1 if missing
	HashAt     int // index of the block's HASH instruction, -1 if missing
	EndFunc    int // ENDFUNC instruction's index
	Malformed  bool
}

// Range is a half-open instruction index range [Start, End).
type Range struct {
	Start, End int
}

// MatchBlock describes one MATCH..EXHAUST region.
type MatchBlock struct {
	MatchAt   int
	Cases     []CaseBlock
	ExhaustAt int
	Malformed bool
}

// CaseBlock describes one CASE sub-block of a MatchBlock.
type CaseBlock struct {
	CaseAt int
	Tag    int
	Body   Range // instructions strictly after CASE, up to the next CASE/EXHAUST at the same nesting depth
}

// Limits holds the three bounds the limits pass (#1) checks against.
// DefaultLimits returns the format package's hard ceilings;
// VerifyWithConfig builds a Limits from a loaded config's soft
// overrides instead, which config.Validate already guarantees never
// exceed those same hard ceilings.
type Limits struct {
	MaxProgramSize int
	MaxRefDepth    int
	MaxRecursion   int
}

// DefaultLimits returns the format package's hard ceilings,
// unmodified by any runtime configuration.
func DefaultLimits() Limits {
	return Limits{
		MaxProgramSize: format.MaxInstructions,
		MaxRefDepth:    format.MaxBindingSlots,
		MaxRecursion:   format.MaxRecursion,
	}
}

// Context is the shared analysis state the structural pass (#2)
// produces and every later pass consumes.
type Context struct {
	Prog       format.Program
	Limits     Limits
	Funcs      []FuncBlock
	Matches    []MatchBlock
	ConstExt   map[int]bool // instruction indices consumed as CONST_EXT trailing data
	EntryPoint int
	// FuncByIndex maps a FUNC instruction's own slot index to its
	// position in Funcs (== its VM binding index), for quick lookup
	// from other passes walking the raw instruction stream.
	FuncByIndex map[int]int
	// MatchByIndex maps a MATCH instruction's slot index to its
	// position in Matches.
	MatchByIndex map[int]int
	// Fatal marks instruction indices inside a region pass 2 judged so
	// malformed that later passes should not analyze it further, to
	// avoid cascading false positives.
	Fatal map[int]bool
	// MatchTypeInfo records, per MATCH instruction index, whether its
	// cases receive a payload value. Populated by the types pass (#5),
	// consumed by the stack pass (#7).
	MatchTypeInfo map[int]MatchPayload
}

func newContext(prog format.Program) *Context {
	return newContextWithLimits(prog, DefaultLimits())
}

func newContextWithLimits(prog format.Program, limits Limits) *Context {
	return &Context{
		Prog:         prog,
		Limits:       limits,
		ConstExt:     make(map[int]bool),
		FuncByIndex:  make(map[int]int),
		MatchByIndex: make(map[int]int),
		Fatal:        make(map[int]bool),
	}
}

func (c *Context) markFatal(r Range) {
	for i := r.Start; i < r.End; i++ {
		c.Fatal[i] = true
	}
}

func (c *Context) isFatal(i int) bool {
	return c.Fatal[i]
}
