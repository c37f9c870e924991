package samio

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMappedRecord(t *testing.T) {
	hdr := NewHeader(testHeader)
	line := samLine("r1", 0x1|0x40, "chr1", 101, "5S95M")
	a, err := Parse(line, hdr)
	require.NoError(t, err)

	assert.EqualValues(t, 0, a.ReferenceID)
	assert.EqualValues(t, 100, a.ReferenceStart)
	assert.EqualValues(t, 195, a.ReferenceEnd)
	assert.True(t, a.IsRead1())
	assert.False(t, a.IsRead2())
	assert.True(t, a.IsMapped())
	assert.Equal(t, "r1", a.Qname())
}

func TestParseUnmappedRecord(t *testing.T) {
	hdr := NewHeader(testHeader)
	line := samLine("r1", 0x1|0x40|0x4, "*", 0, "*")
	a, err := Parse(line, hdr)
	require.NoError(t, err)

	assert.True(t, a.IsUnmapped())
	assert.EqualValues(t, -1, a.ReferenceID)
	assert.EqualValues(t, -1, a.ReferenceStart)
	assert.EqualValues(t, -1, a.ReferenceEnd)
}

func TestParseRejectsShortRecord(t *testing.T) {
	hdr := NewHeader(testHeader)
	_, err := Parse("r1\t4\t*\t0", hdr)
	assert.Error(t, err)
}

func TestParseRejectsBadFlag(t *testing.T) {
	hdr := NewHeader(testHeader)
	fields := []string{"r1", "notanumber", "chr1", "1", "60", "50M", "=", "0", "0", "*", "*"}
	_, err := Parse(strings.Join(fields, "\t"), hdr)
	assert.Error(t, err)
}

func TestMarkDuplicateSetsFlagBit(t *testing.T) {
	hdr := NewHeader(testHeader)
	a, err := Parse(samLine("r1", 0x1|0x40, "chr1", 1, "50M"), hdr)
	require.NoError(t, err)

	assert.False(t, a.Flag&FlagDuplicate != 0)
	a.MarkDuplicate()
	assert.True(t, a.Flag&FlagDuplicate != 0)
}

func TestLineRoundTripsWithUpdatedFlag(t *testing.T) {
	hdr := NewHeader(testHeader)
	line := samLine("r1", 0x1|0x40, "chr1", 1, "50M")
	a, err := Parse(line, hdr)
	require.NoError(t, err)

	a.MarkDuplicate()
	got := a.Line()

	fields := strings.Split(got, "\t")
	require.Len(t, fields, minFields)
	gotFlag, err := strconv.ParseUint(fields[fieldFlag], 10, 16)
	require.NoError(t, err)
	assert.EqualValues(t, (0x1|0x40)|FlagDuplicate, gotFlag)

	// every other field must be untouched
	wantFields := strings.Split(line, "\t")
	for i := range fields {
		if i == fieldFlag {
			continue
		}
		assert.Equal(t, wantFields[i], fields[i])
	}
}

func TestIsPrimary(t *testing.T) {
	hdr := NewHeader(testHeader)
	primary, err := Parse(samLine("r1", 0x1|0x40, "chr1", 1, "50M"), hdr)
	require.NoError(t, err)
	secondary, err := Parse(samLine("r1", 0x1|0x40|0x100, "chr1", 1, "50M"), hdr)
	require.NoError(t, err)
	supplementary, err := Parse(samLine("r1", 0x1|0x40|0x800, "chr1", 1, "50M"), hdr)
	require.NoError(t, err)

	assert.True(t, primary.IsPrimary())
	assert.False(t, secondary.IsPrimary())
	assert.False(t, supplementary.IsPrimary())
}
