package verifier

import (
	"github.com/zeebo/blake3"

	"github.com/nolang-vm/nolang/format"
)

// hashPass is analysis pass 4: every function block must carry a
// HASH instruction whose 48-bit payload equals the 48-bit truncation of
// BLAKE3 over the encoded bytes from FUNC through the instruction
// preceding HASH.
func hashPass(ctx *Context) []*Error {
	var errs []*Error
	for _, fb := range ctx.Funcs {
		if fb.Malformed {
			continue
		}
		if fb.HashAt < 0 {
			errs = append(errs, newErr(MissingHash, fb.Index, "no HASH found at the second-to-last slot before ENDFUNC"))
			continue
		}
		expected := BlockHash(ctx.Prog[fb.Index:fb.HashAt])
		stored := ctx.Prog[fb.HashAt]
		got := uint64(stored.Arg1)<<32 | uint64(stored.Arg2)<<16 | uint64(stored.Arg3)
		if got != expected {
			errs = append(errs, newErr(HashMismatch, fb.HashAt, "stored 0x%012x, expected 0x%012x", got, expected))
		}
	}
	return errs
}

// BlockHash computes the 48-bit truncated BLAKE3 digest of a function
// block's encoded bytes (FUNC through the instruction preceding HASH).
// It's exported so the `hash` tooling verb can recompute it for
// hand-authored programs.
func BlockHash(block format.Program) uint64 {
	digest := blake3.Sum256(format.EncodeProgram(block))
	// Big-endian 48-bit truncation: the HASH instruction's arg1|arg2|arg3
	// fields hold the three most-significant 16-bit big-endian halves of
	// the digest's leading 6 bytes.
	return uint64(digest[0])<<40 | uint64(digest[1])<<32 | uint64(digest[2])<<24 |
		uint64(digest[3])<<16 | uint64(digest[4])<<8 | uint64(digest[5])
}

// EncodeHash splits a 48-bit digest into the HASH instruction's
// arg1/arg2/arg3 big-endian halves, the inverse layout BlockHash reads.
func EncodeHash(digest uint64) (arg1, arg2, arg3 uint16) {
	arg1 = uint16(digest >> 32)
	arg2 = uint16(digest >> 16)
	arg3 = uint16(digest)
	return
}
