package rewriter

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Hash128 computes a 128-bit digest of data. No example repo in the
// examined dependency set carries a native 128-bit hash (sneller's
// dchest/siphash is 64-bit only); this combines two 64-bit xxhash digests
// into 16 bytes, the first over data and the second over seedSuffix
// followed by data, rather than introducing a bespoke algorithm.
func Hash128(data []byte) [16]byte {
	var out [16]byte

	h1 := xxhash.New()
	_, _ = h1.Write(data)
	binary.LittleEndian.PutUint64(out[0:8], h1.Sum64())

	h2 := xxhash.New()
	_, _ = h2.Write(seedSuffix)
	_, _ = h2.Write(data)
	binary.LittleEndian.PutUint64(out[8:16], h2.Sum64())

	return out
}

// seedSuffix perturbs the second xxhash instance's state so its digest is
// independent of the first's, without needing a seeded-xxhash constructor.
var seedSuffix = []byte{0x9e, 0x37, 0x79, 0xb9, 0x7f, 0x4a, 0x7c, 0x15}
