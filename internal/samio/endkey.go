package samio

import "strconv"

// Orientation is the strand an EndKey was observed on.
type Orientation byte

const (
	OrientNone    Orientation = 0
	OrientForward Orientation = 'F'
	OrientReverse Orientation = 'R'
)

// EndKey is the triple (ref_id, position, orientation) spec.md §3
// defines as a fragment end. endUnmappedRefID exceeds any legal
// reference id a header can produce (header ids are int32 values
// starting at 0, so the largest possible id is 2^31-1), so
// unmappedEndKey always sorts last.
const endUnmappedRefID int64 = 1 << 31

// unmappedEndKey is the EndKey sentinel for a missing or unmapped
// selected primary.
var unmappedEndKey = EndKey{RefID: endUnmappedRefID, Position: -1, Orientation: OrientNone}

type EndKey struct {
	RefID       int64
	Position    int32
	Orientation Orientation
}

// IsUnmapped reports whether k is the UNMAPPED sentinel.
func (k EndKey) IsUnmapped() bool { return k == unmappedEndKey }

// Less orders EndKeys ascending by (ref_id, position, orientation),
// the ordering spec.md §4.4 step 4 sorts the pair by.
func (k EndKey) Less(other EndKey) bool {
	if k.RefID != other.RefID {
		return k.RefID < other.RefID
	}
	if k.Position != other.Position {
		return k.Position < other.Position
	}
	return k.Orientation < other.Orientation
}

// String renders the key as "{ref}_{pos}{orient}", the exact
// serialization spec.md §3 uses for the Bloom-filter key.
func (k EndKey) String() string {
	s := strconv.FormatInt(k.RefID, 10) + "_" + strconv.FormatInt(int64(k.Position), 10)
	if k.Orientation != OrientNone {
		s += string(rune(k.Orientation))
	}
	return s
}
