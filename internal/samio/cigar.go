package samio

import (
	"strconv"

	"github.com/pkg/errors"
)

// CigarOp is one (operation, length) pair of a CIGAR string. Op uses
// the SAM/BAM numeric encoding; OpSoftClip (4) is the only one the
// fragment-ends extractor inspects directly.
type CigarOp struct {
	Op     byte
	Length int32
}

const (
	OpMatch     byte = 0 // M
	OpInsert    byte = 1 // I
	OpDelete    byte = 2 // D
	OpSkip      byte = 3 // N
	OpSoftClip  byte = 4 // S
	OpHardClip  byte = 5 // H
	OpPad       byte = 6 // P
	OpEqual     byte = 7 // =
	OpMismatch  byte = 8 // X
	cigarOpLUT       = "MIDNSHP=X"
)

// parseCigar parses a SAM CIGAR string such as "5S95M" into ops. "*"
// (no alignment) parses to an empty slice.
func parseCigar(s string) ([]CigarOp, error) {
	if s == "*" || s == "" {
		return nil, nil
	}
	var ops []CigarOp
	length := 0
	haveDigits := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			length = length*10 + int(c-'0')
			haveDigits = true
			continue
		}
		if !haveDigits {
			return nil, errors.Errorf("samio: malformed cigar %q", s)
		}
		opIdx := indexByte(cigarOpLUT, c)
		if opIdx < 0 {
			return nil, errors.Errorf("samio: unknown cigar op %q in %q", c, s)
		}
		ops = append(ops, CigarOp{Op: byte(opIdx), Length: int32(length)})
		length = 0
		haveDigits = false
	}
	if haveDigits {
		return nil, errors.Errorf("samio: trailing length with no op in cigar %q", s)
	}
	return ops, nil
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// referenceConsumed returns the number of reference bases spanned by
// ops: M, D, N, =, and X all consume the reference; I, S, H, and P do
// not.
func referenceConsumed(ops []CigarOp) int32 {
	var n int32
	for _, op := range ops {
		switch op.Op {
		case OpMatch, OpDelete, OpSkip, OpEqual, OpMismatch:
			n += op.Length
		}
	}
	return n
}

// cigarString renders ops back to SAM text, used only by tests that
// need to round-trip a synthetic record.
func cigarString(ops []CigarOp) string {
	if len(ops) == 0 {
		return "*"
	}
	var b []byte
	for _, op := range ops {
		b = strconv.AppendInt(b, int64(op.Length), 10)
		b = append(b, cigarOpLUT[op.Op])
	}
	return string(b)
}
