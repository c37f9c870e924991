package bloomfilter

import (
	"math"

	"github.com/pkg/errors"
)

// Config is the immutable descriptor a process uses to attach to an
// existing filter's bits. It is data, not a reference: a worker
// rebuilds a Filter from a Config without ever holding a pointer into
// the creator's address space.
type Config struct {
	// ShmName identifies the shared-memory segment holding the bits.
	ShmName string
	// N is the target capacity in items.
	N uint64
	// P is the target false-positive rate at capacity N.
	P float64
	// M is the bit-vector size, in bits.
	M uint64
	// K is the number of hash functions.
	K int
}

// minimumMemorySize computes m = ceil(-n*ln(p) / (ln 2)^2) and
// k = ceil((m/n)*ln 2), per spec.md §4.1's literal formula and
// `_examples/original_source/src/streammd/markdups.py`'s
// `optimal_m_k`. m is left unrounded: hash.go falls back to `mod m`
// for position reduction whenever m isn't already a power of two, so
// there is no correctness reason to round it, and rounding up would
// silently inflate the value `--mem-calc` reports past what spec.md
// §6 and the original tool's own `mem_calc` compute.
func minimumMemorySize(n uint64, p float64) (m uint64, k int) {
	ln2 := math.Ln2
	mf := -float64(n) * math.Log(p) / (ln2 * ln2)
	m = uint64(math.Ceil(mf))
	kf := (float64(m) / float64(n)) * ln2
	k = int(math.Ceil(kf))
	if k < 1 {
		k = 1
	}
	if k > maxK {
		k = maxK
	}
	return m, k
}

// fixedMemorySize implements fixed-memory mode: given n, p and a byte
// budget mem, set m = mem*8 and search k in [1, maxK] for the
// smallest k satisfying (1-(1-1/m)^(k*n))^k < p. Returns an error if
// no such k exists.
func fixedMemorySize(n uint64, p float64, memBytes uint64) (m uint64, k int, err error) {
	m = memBytes * 8
	if m == 0 {
		return 0, 0, errors.New("bloomfilter: fixed-memory mode requires a non-zero byte budget")
	}
	for cand := 1; cand <= maxK; cand++ {
		fpr := falsePositiveRate(m, uint64(cand), n)
		if fpr < p {
			return m, cand, nil
		}
	}
	return 0, 0, errors.Errorf(
		"bloomfilter: no k in [1,%d] achieves fp-rate %.3g for n=%d items in %d bytes", maxK, p, n, memBytes)
}

// falsePositiveRate computes (1-(1-1/m)^(k*n))^k.
func falsePositiveRate(m, k, n uint64) float64 {
	base := 1 - 1/float64(m)
	inner := math.Pow(base, float64(k*n))
	return math.Pow(1-inner, float64(k))
}

// validate enforces the Data Model invariants: m >= 1, 1 <= k <= 100.
func (c Config) validate() error {
	if c.M < 1 {
		return errors.Errorf("bloomfilter: invalid config: m=%d must be >= 1", c.M)
	}
	if c.K < 1 || c.K > maxK {
		return errors.Errorf("bloomfilter: invalid config: k=%d must be in [1,%d]", c.K, maxK)
	}
	return nil
}
