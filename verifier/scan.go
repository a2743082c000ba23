package verifier

import "github.com/nolang-vm/nolang/format"

// ScanFunctionBlocks runs just enough of the structural pass to locate
// every FUNC..ENDFUNC block's boundaries, independent of whether the
// program verifies as a whole. The `hash` CLI verb needs this: a
// hand-authored program's HASH fields are, by construction, wrong until
// `hash` computes and the author patches them in, so the program won't
// pass hashPass yet — but the blocks' byte ranges are already
// well-defined from nesting alone.
func ScanFunctionBlocks(prog format.Program) []FuncBlock {
	ctx := newContext(prog)
	markConstExtSlots(ctx)
	buildFuncBlocks(ctx)
	return ctx.Funcs
}
