package vm

import "github.com/nolang-vm/nolang/format"

// Range is a half-open instruction index range [Start, End).
type Range struct {
	Start, End int
}

// FuncMeta is the prelude's record of one FUNC..ENDFUNC block:
// parameter count, body boundaries, and the PRE/POST
// sub-ranges CALL and RET must walk.
type FuncMeta struct {
	Index      int
	ParamCount int
	PreRanges  []Range
	PostRanges []Range
	BodyStart  int
	RetAt      int
	HashAt     int
	EndFunc    int
}

// scanPrelude builds the function table by a single linear pass over
// prog, assigning binding indices in FUNC appearance order (CALL
// names a function by that ordinal, not by identifier). It tolerates
// malformation since the VM must remain total on unverified input: an
// unmatched FUNC or ENDFUNC is never recorded, a missing HASH leaves
// HashAt at -1, and a block whose PRE/POST sub-block has no terminating
// NOP is left out of the table, so later blocks take lower binding
// indices. A CALL naming an index past the table fails with
// UnexpectedEndOfProgram rather than panicking.
func scanPrelude(prog format.Program) (funcs []FuncMeta, entryPoint int) {
	depth := 0
	start := -1

	for i := 0; i < len(prog); i++ {
		switch prog[i].Op {
		case format.OpConstExt:
			i++ // skip trailing data slot
		case format.OpFunc:
			if depth == 0 {
				start = i
			}
			depth++
		case format.OpEndFunc:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				if fm, ok := buildFuncMeta(prog, start, i); ok {
					funcs = append(funcs, fm)
				}
				entryPoint = i + 1
			}
		}
	}

	return funcs, entryPoint
}

func buildFuncMeta(prog format.Program, start, end int) (FuncMeta, bool) {
	fm := FuncMeta{Index: start, EndFunc: end, RetAt: -1, HashAt: -1}
	fm.ParamCount = int(prog[start].Arg1)

	cursor := start + 1
	for cursor < end && prog[cursor].Op == format.OpPre {
		contentEnd, next, ok := scanContractRange(prog, cursor+1, end)
		if !ok {
			return fm, false
		}
		fm.PreRanges = append(fm.PreRanges, Range{Start: cursor + 1, End: contentEnd})
		cursor = next
	}
	for cursor < end && prog[cursor].Op == format.OpPost {
		contentEnd, next, ok := scanContractRange(prog, cursor+1, end)
		if !ok {
			return fm, false
		}
		fm.PostRanges = append(fm.PostRanges, Range{Start: cursor + 1, End: contentEnd})
		cursor = next
	}
	fm.BodyStart = cursor

	if end-1 >= fm.BodyStart && prog[end-1].Op == format.OpHash {
		fm.HashAt = end - 1
	}
	for i := fm.BodyStart; i < end; i++ {
		if i == fm.HashAt {
			continue
		}
		if prog[i].Op == format.OpRet {
			fm.RetAt = i
			break
		}
	}

	return fm, true
}

// scanContractRange mirrors verifier/structural_pass.go's
// scanContractBlock: a PRE/POST block's content runs up to (not
// including) the next NOP not belonging to a CONST_EXT trailing slot,
// which is consumed as the block's terminator. A depth-based delimiter
// is ambiguous for any multi-operator contract expression (see
// DESIGN.md), so both packages resolve it the same explicit way.
// contentEnd is the NOP's index; next is contentEnd+1.
func scanContractRange(prog format.Program, from, limit int) (contentEnd, next int, ok bool) {
	i := from
	for i < limit {
		op := prog[i].Op
		if op == format.OpFunc || op == format.OpEndFunc {
			return 0, 0, false
		}
		if op == format.OpConstExt {
			i += 2
			continue
		}
		if op == format.OpNop {
			return i, i + 1, true
		}
		i++
	}
	return 0, 0, false
}
