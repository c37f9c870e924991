package dedup

import (
	"bufio"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streammd/streammd/internal/bloomfilter"
)

const workerTestHeader = "@HD\tVN:1.6\n@SQ\tSN:chr1\tLN:248956422\n"

func newTestFilter(t *testing.T) *bloomfilter.Filter {
	t.Helper()
	f, err := bloomfilter.NewMinimumMemory(1000, 0.001)
	require.NoError(t, err)
	t.Cleanup(func() { f.Destroy() })
	return f
}

func mkLine(qname string, flag int, rname string, pos int, cigar string) string {
	fields := []string{qname, strconv.Itoa(flag), rname, strconv.Itoa(pos), "60", cigar, "=", "0", "0", "*", "*"}
	return strings.Join(fields, "\t")
}

// runWorkerOnGroups feeds groups through a single Worker and returns the
// emitted output lines (in group order) plus the accumulated Stats.
func runWorkerOnGroups(t *testing.T, f *bloomfilter.Filter, groups ...QnameGroup) ([]string, Stats) {
	t.Helper()
	out, outFile := newTestWriter(t)

	headerCh := make(chan string, 1)
	workCh := make(chan Batch, 2)
	headerCh <- workerTestHeader
	workCh <- Batch(groups)
	workCh <- nil

	w := &Worker{HeaderCh: headerCh, WorkCh: workCh, Output: out, Filter: f}
	stats, err := w.Run()
	require.NoError(t, err)

	_, err = outFile.Seek(0, 0)
	require.NoError(t, err)
	var lines []string
	sc := bufio.NewScanner(outFile)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, stats
}

func flagOf(t *testing.T, line string) uint16 {
	t.Helper()
	fields := strings.Split(line, "\t")
	require.GreaterOrEqual(t, len(fields), 2)
	v, err := strconv.ParseUint(fields[1], 10, 16)
	require.NoError(t, err)
	return uint16(v)
}

func TestWorkerFirstOccurrenceNotMarkedDuplicate(t *testing.T) {
	f := newTestFilter(t)
	group := QnameGroup{
		mkLine("r1", 0x1|0x40, "chr1", 101, "50M"),
		mkLine("r1", 0x1|0x80, "chr1", 301, "50M"),
	}

	lines, stats := runWorkerOnGroups(t, f, group)
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Zero(t, flagOf(t, l)&0x400, "first occurrence of a fragment must not be marked duplicate")
	}
	assert.EqualValues(t, 1, stats.Qnames)
	assert.EqualValues(t, 2, stats.Alignments)
	assert.EqualValues(t, 0, stats.Dups)
}

func TestWorkerRepeatedFragmentMarkedDuplicate(t *testing.T) {
	f := newTestFilter(t)
	groupA := QnameGroup{
		mkLine("r1", 0x1|0x40, "chr1", 101, "50M"),
		mkLine("r1", 0x1|0x80, "chr1", 301, "50M"),
	}
	groupB := QnameGroup{
		mkLine("r2", 0x1|0x40, "chr1", 101, "50M"),
		mkLine("r2", 0x1|0x80, "chr1", 301, "50M"),
	}

	lines, stats := runWorkerOnGroups(t, f, groupA, groupB)
	require.Len(t, lines, 4)
	for _, l := range lines[:2] {
		assert.Zero(t, flagOf(t, l)&0x400)
	}
	for _, l := range lines[2:] {
		assert.NotZero(t, flagOf(t, l)&0x400, "second occurrence of the same fragment key must be marked duplicate")
	}
	assert.EqualValues(t, 2, stats.Qnames)
	assert.EqualValues(t, 4, stats.Alignments)
	assert.EqualValues(t, 2, stats.Dups)
}

func TestWorkerUnmappedMateOnlyMarksMappedAlignments(t *testing.T) {
	f := newTestFilter(t)
	groupA := QnameGroup{
		mkLine("r1", 0x1|0x40, "chr1", 101, "50M"),
		mkLine("r1", 0x1|0x80|0x4, "*", 0, "*"),
	}
	groupB := QnameGroup{
		mkLine("r2", 0x1|0x40, "chr1", 101, "50M"),
		mkLine("r2", 0x1|0x80|0x4, "*", 0, "*"),
	}

	lines, stats := runWorkerOnGroups(t, f, groupA, groupB)
	require.Len(t, lines, 4)

	// second group's mapped mate gets marked; its unmapped mate does not.
	assert.Zero(t, flagOf(t, lines[0])&0x400)
	assert.Zero(t, flagOf(t, lines[1])&0x400)
	assert.NotZero(t, flagOf(t, lines[2])&0x400, "mapped mate of repeated single-ended key must be marked")
	assert.Zero(t, flagOf(t, lines[3])&0x400, "unmapped mate is never marked duplicate")
	assert.EqualValues(t, 1, stats.Dups)
}
