package samio

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SAM flag bits used by this package (spec.md's GLOSSARY).
const (
	FlagPaired        uint16 = 0x1
	FlagUnmapped      uint16 = 0x4
	FlagReverse       uint16 = 0x10
	FlagRead1         uint16 = 0x40
	FlagRead2         uint16 = 0x80
	FlagSecondary     uint16 = 0x100
	FlagDuplicate     uint16 = 0x400
	FlagSupplementary uint16 = 0x800
)

// minimum mandatory SAM columns: QNAME FLAG RNAME POS MAPQ CIGAR RNEXT PNEXT TLEN SEQ QUAL
const minFields = 11

const (
	fieldQname = iota
	fieldFlag
	fieldRname
	fieldPos
	fieldMapq
	fieldCigar
	fieldRnext
	fieldPnext
	fieldTlen
	fieldSeq
	fieldQual
)

// Alignment is the minimum behavioral contract the SAM-record parser
// must expose for each record, per spec.md §3.
type Alignment struct {
	Flag           uint16
	ReferenceID    int32
	ReferenceStart int32 // 0-based leftmost mapped base
	ReferenceEnd   int32 // one past the last aligned base
	Cigar          []CigarOp

	fields []string // raw tab-split fields, preserved for lossless re-serialization
}

// Parse decodes one tab-delimited SAM record line, resolving RNAME
// against hdr.
func Parse(line string, hdr *Header) (*Alignment, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < minFields {
		return nil, errors.Errorf("samio: record has %d fields, want at least %d: %q", len(fields), minFields, line)
	}

	flag64, err := strconv.ParseUint(fields[fieldFlag], 10, 16)
	if err != nil {
		return nil, errors.Wrapf(err, "samio: invalid flag field in %q", line)
	}
	pos64, err := strconv.ParseInt(fields[fieldPos], 10, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "samio: invalid pos field in %q", line)
	}

	ops, err := parseCigar(fields[fieldCigar])
	if err != nil {
		return nil, err
	}

	a := &Alignment{
		Flag:   uint16(flag64),
		Cigar:  ops,
		fields: fields,
	}
	if a.IsUnmapped() {
		// -1 follows the BAM binary convention for an unmapped read's
		// reference id; the EndKey-level UNMAPPED sentinel used for
		// sort-to-last ordering is a distinct, larger value (endkey.go).
		a.ReferenceID = -1
		a.ReferenceStart = -1
		a.ReferenceEnd = -1
	} else {
		a.ReferenceID = hdr.referenceID(fields[fieldRname])
		a.ReferenceStart = int32(pos64) - 1 // SAM POS is 1-based
		a.ReferenceEnd = a.ReferenceStart + referenceConsumed(ops)
	}
	return a, nil
}

// Qname returns the record's query name (field 1).
func (a *Alignment) Qname() string { return a.fields[fieldQname] }

func (a *Alignment) IsRead1() bool         { return a.Flag&FlagRead1 != 0 }
func (a *Alignment) IsRead2() bool         { return a.Flag&FlagRead2 != 0 }
func (a *Alignment) IsSecondary() bool     { return a.Flag&FlagSecondary != 0 }
func (a *Alignment) IsSupplementary() bool { return a.Flag&FlagSupplementary != 0 }
func (a *Alignment) IsUnmapped() bool      { return a.Flag&FlagUnmapped != 0 }
func (a *Alignment) IsMapped() bool        { return !a.IsUnmapped() }
func (a *Alignment) IsReverse() bool       { return a.Flag&FlagReverse != 0 }
func (a *Alignment) IsForward() bool       { return !a.IsReverse() }

// IsPrimary reports whether the alignment is neither secondary nor
// supplementary, per the GLOSSARY's definition of "primary alignment".
func (a *Alignment) IsPrimary() bool {
	return !a.IsSecondary() && !a.IsSupplementary()
}

// MarkDuplicate sets the 0x400 duplicate bit.
func (a *Alignment) MarkDuplicate() {
	a.Flag |= FlagDuplicate
}

// Line serializes the alignment back to a SAM text line, identical to
// the input except for the flag field.
func (a *Alignment) Line() string {
	a.fields[fieldFlag] = strconv.FormatUint(uint64(a.Flag), 10)
	return strings.Join(a.fields, "\t")
}
