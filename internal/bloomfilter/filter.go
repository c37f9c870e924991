// Package bloomfilter implements the probabilistic set at the heart
// of the deduplication pipeline: a fixed-size bit vector, backed by a
// named shared-memory segment, that any number of goroutines can
// attach to and mutate concurrently without locking. See segment.go
// for the shared-memory mechanics and hash.go for the hash family.
package bloomfilter

import (
	"math"
	"math/bits"
)

// Filter is a Bloom filter whose bit vector lives in a segment that
// may be shared with other Filter instances in other goroutines (or,
// unchanged, other processes attached to the same named segment).
type Filter struct {
	cfg     Config
	seg     *segment
	hashers hashFunctionFamily
}

// NewMinimumMemory creates a filter sized by the minimum-memory
// formula: m = ceil(-n*ln(p)/(ln 2)^2), k = ceil((m/n)*ln 2).
func NewMinimumMemory(n uint64, p float64) (*Filter, error) {
	m, k := minimumMemorySize(n, p)
	return newOwned(n, p, m, k)
}

// NewFixedMemory creates a filter constrained to memBytes bytes,
// searching for the smallest k in [1,100] meeting the target
// false-positive rate. It fails with a configuration error if no
// such k exists.
func NewFixedMemory(n uint64, p float64, memBytes uint64) (*Filter, error) {
	m, k, err := fixedMemorySize(n, p, memBytes)
	if err != nil {
		return nil, err
	}
	return newOwned(n, p, m, k)
}

func newOwned(n uint64, p float64, m uint64, k int) (*Filter, error) {
	cfg := Config{N: n, P: p, M: m, K: k}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seg, err := createSegment(m)
	if err != nil {
		return nil, err
	}
	cfg.ShmName = seg.name
	return &Filter{cfg: cfg, seg: seg, hashers: newHashFunctionFamily(k, m)}, nil
}

// Attach rebuilds a Filter that shares bits with the creator,
// without re-zeroing them.
func Attach(cfg Config) (*Filter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seg, err := attachSegment(cfg.ShmName, cfg.M)
	if err != nil {
		return nil, err
	}
	return &Filter{cfg: cfg, seg: seg, hashers: newHashFunctionFamily(cfg.K, cfg.M)}, nil
}

// Handle returns a descriptor sufficient for another goroutine or
// process to attach to the same bits.
func (f *Filter) Handle() Config {
	return f.cfg
}

// Close releases this Filter's view of the shared segment. Every
// non-owning attacher must call it before the owner calls Destroy;
// the owner does not call Close, since Destroy releases the owner's
// own view itself.
func (f *Filter) Close() error {
	return f.seg.release()
}

// Destroy tears down the backing shared-memory segment. Only the
// Filter returned by NewMinimumMemory/NewFixedMemory (the owner) may
// call this, and only once every attacher has called Close.
func (f *Filter) Destroy() error {
	return f.seg.destroy()
}

// Add inserts item and reports whether it was not previously present,
// i.e. whether at least one bit flipped 0->1. Callers that want "was
// this already present" semantics should test !Add(item) per §4.3 and
// the authoritative resolution of the open question in §9.
func (f *Filter) Add(item []byte) bool {
	positions := f.hashers.positions(item, nil)
	added := false
	bits := f.seg.bits
	for _, pos := range positions {
		byteIdx := pos / 8
		mask := byte(1) << (pos % 8)
		if bits[byteIdx]&mask == 0 {
			bits[byteIdx] |= mask
			added = true
		}
	}
	return added
}

// Contains reports whether all k bits for item are set. False
// positives are possible at a rate bounded by the filter's
// configured p; false negatives are impossible.
func (f *Filter) Contains(item []byte) bool {
	positions := f.hashers.positions(item, nil)
	bits := f.seg.bits
	for _, pos := range positions {
		byteIdx := pos / 8
		mask := byte(1) << (pos % 8)
		if bits[byteIdx]&mask == 0 {
			return false
		}
	}
	return true
}

// Count returns the Swamidass-Baldi approximate cardinality:
// ceil((-m/k) * ln(1 - X/m)), where X is the number of set bits.
func (f *Filter) Count() uint64 {
	x := popcount(f.seg.bits)
	if x == 0 {
		return 0
	}
	m := float64(f.cfg.M)
	if uint64(x) >= f.cfg.M {
		x = uint64(f.cfg.M - 1) // avoid ln(0); the filter is saturated.
	}
	k := float64(f.cfg.K)
	est := math.Ceil((-m / k) * math.Log(1-float64(x)/m))
	if est < 0 {
		return 0
	}
	return uint64(est)
}

func popcount(data []byte) uint64 {
	var total uint64
	i := 0
	for ; i+8 <= len(data); i += 8 {
		total += uint64(bits.OnesCount64(
			uint64(data[i]) | uint64(data[i+1])<<8 | uint64(data[i+2])<<16 | uint64(data[i+3])<<24 |
				uint64(data[i+4])<<32 | uint64(data[i+5])<<40 | uint64(data[i+6])<<48 | uint64(data[i+7])<<56))
	}
	for ; i < len(data); i++ {
		total += uint64(bits.OnesCount8(data[i]))
	}
	return total
}

// MinimumMemoryBytes returns the byte size (m/8) a minimum-memory
// filter sized for n items at false-positive rate p would occupy.
// This backs the CLI's --mem-calc flag.
func MinimumMemoryBytes(n uint64, p float64) uint64 {
	m, _ := minimumMemorySize(n, p)
	return m / 8
}
