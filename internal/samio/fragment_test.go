package samio

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = "@HD\tVN:1.6\n@SQ\tSN:chr1\tLN:248956422\n"

func mustParse(t *testing.T, hdr *Header, line string) *Alignment {
	t.Helper()
	a, err := Parse(line, hdr)
	require.NoError(t, err)
	return a
}

// samLine builds a minimal 11-field SAM record.
func samLine(qname string, flag int, rname string, pos int, cigar string) string {
	fields := []string{qname, strconv.Itoa(flag), rname, strconv.Itoa(pos), "60", cigar, "=", "0", "0", "*", "*"}
	return strings.Join(fields, "\t")
}

func TestFragmentEnds_SoftClipEquivalence(t *testing.T) {
	hdr := NewHeader(testHeader)

	// pair A: read1 CIGAR 5S95M at reference_start=105 (1-based pos 106)
	a1 := mustParse(t, hdr, samLine("qa", 0x1|0x40, "chr1", 106, "5S95M"))
	a2 := mustParse(t, hdr, samLine("qa", 0x1|0x80|0x10, "chr1", 501, "50M"))

	// pair B: read1 CIGAR 95M at reference_start=100 (1-based pos 101)
	b1 := mustParse(t, hdr, samLine("qb", 0x1|0x40, "chr1", 101, "95M"))
	b2 := mustParse(t, hdr, samLine("qb", 0x1|0x80|0x10, "chr1", 501, "50M"))

	end1a, end2a, ok := FragmentEnds([]*Alignment{a1, a2})
	require.True(t, ok)
	end1b, end2b, ok := FragmentEnds([]*Alignment{b1, b2})
	require.True(t, ok)

	assert.Equal(t, end1a, end1b, "soft-clip-adjusted 5' position must match the unclipped equivalent")
	assert.Equal(t, end2a, end2b)
}

func TestFragmentEnds_OrientationDistinguishes(t *testing.T) {
	hdr := NewHeader(testHeader)

	// pair A: both forward, positions 100 and 300.
	a1 := mustParse(t, hdr, samLine("qa", 0x1|0x40, "chr1", 101, "50M"))
	a2 := mustParse(t, hdr, samLine("qa", 0x1|0x80, "chr1", 301, "50M"))

	// pair B: read1 forward at 100, read2 reverse with reference_end=300.
	b1 := mustParse(t, hdr, samLine("qb", 0x1|0x40, "chr1", 101, "50M"))
	b2 := mustParse(t, hdr, samLine("qb", 0x1|0x80|0x10, "chr1", 251, "50M"))

	end1a, end2a, ok := FragmentEnds([]*Alignment{a1, a2})
	require.True(t, ok)
	end1b, end2b, ok := FragmentEnds([]*Alignment{b1, b2})
	require.True(t, ok)

	assert.NotEqual(t, [2]EndKey{end1a, end2a}, [2]EndKey{end1b, end2b}, "orientation must distinguish otherwise-identical coordinates")
}

func TestFragmentEnds_OneMateUnmapped(t *testing.T) {
	hdr := NewHeader(testHeader)
	mapped := mustParse(t, hdr, samLine("q1", 0x1|0x40, "chr1", 51, "50M"))
	unmapped := mustParse(t, hdr, samLine("q1", 0x1|0x80|0x4, "*", 0, "*"))

	end1, end2, ok := FragmentEnds([]*Alignment{mapped, unmapped})
	require.True(t, ok)
	assert.False(t, end1.IsUnmapped())
	assert.True(t, end2.IsUnmapped(), "the sentinel must always sort second")
}

func TestFragmentEnds_BothUnmappedReturnsNull(t *testing.T) {
	hdr := NewHeader(testHeader)
	u1 := mustParse(t, hdr, samLine("q1", 0x1|0x40|0x4, "*", 0, "*"))
	u2 := mustParse(t, hdr, samLine("q1", 0x1|0x80|0x4, "*", 0, "*"))

	_, _, ok := FragmentEnds([]*Alignment{u1, u2})
	assert.False(t, ok)
}

func TestFragmentEnds_SecondaryAndSupplementaryIgnored(t *testing.T) {
	hdr := NewHeader(testHeader)
	primary1 := mustParse(t, hdr, samLine("q1", 0x1|0x40, "chr1", 101, "50M"))
	secondary := mustParse(t, hdr, samLine("q1", 0x1|0x40|0x100, "chr1", 9001, "50M"))
	primary2 := mustParse(t, hdr, samLine("q1", 0x1|0x80, "chr1", 301, "50M"))
	supplementary := mustParse(t, hdr, samLine("q1", 0x1|0x80|0x800, "chr1", 9501, "50M"))

	end1, end2, ok := FragmentEnds([]*Alignment{primary1, secondary, primary2, supplementary})
	require.True(t, ok)
	assert.EqualValues(t, 100, end1.Position)
	assert.EqualValues(t, 300, end2.Position)
}
