package bloomfilter

import "github.com/dgryski/go-farm"

// hashFunctionFamily derives k independent integer positions in
// [0, m) from a byte sequence using FarmHash64-with-seed. xxh3 was
// tried in the originating implementation and produced poor
// cardinality estimates; it must not be substituted here without
// re-validating the §8-equivalent distribution properties.
type hashFunctionFamily struct {
	k    int
	m    uint64
	pow2 bool
}

func newHashFunctionFamily(k int, m uint64) hashFunctionFamily {
	return hashFunctionFamily{
		k:    k,
		m:    m,
		pow2: m != 0 && m&(m-1) == 0,
	}
}

// positions writes the k positions for item into dst, reusing its
// backing array when it already has capacity k.
func (h hashFunctionFamily) positions(item []byte, dst []uint64) []uint64 {
	if cap(dst) < h.k {
		dst = make([]uint64, h.k)
	}
	dst = dst[:h.k]
	for i := 0; i < h.k; i++ {
		hv := farm.Hash64WithSeed(item, seeds[i])
		if h.pow2 {
			dst[i] = hv & (h.m - 1)
		} else {
			dst[i] = hv % h.m
		}
	}
	return dst
}
