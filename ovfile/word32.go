package ovfile

// EncodeWord32 and DecodeWord32 are the W=32 counterpart of the hi/lo
// 32-bit split used by encode/decode for W=64: with a 32-bit dat
// word there is nothing to split, so each element maps to exactly one
// 32-bit unit on the wire. Kept as standalone helpers (not a parallel
// Overlap type) since this build's format is fixed at W=64 — these exist
// so the W=32 wire layout spec.md §9 calls out is implemented without
// doubling the package for a width this build never opens a file with.
func EncodeWord32(dat []uint32, dst []byte) {
	off := 0
	for _, w := range dat {
		nativeEndian.PutUint32(dst[off:], w)
		off += 4
	}
}

func DecodeWord32(src []byte, n int) []uint32 {
	out := make([]uint32, n)
	off := 0
	for i := range out {
		out[i] = nativeEndian.Uint32(src[off:])
		off += 4
	}
	return out
}
