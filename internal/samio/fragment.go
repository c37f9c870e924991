package samio

// FragmentEnds is the FragmentEndsExtractor of spec.md §4.4: a pure
// function from a qname-group of alignments to a canonical,
// coordinate-sorted pair of end-keys, used as the duplicate
// fingerprint. ok is false when neither mate has a usable primary
// (step 2's early-out).
func FragmentEnds(group []*Alignment) (first, second EndKey, ok bool) {
	var read1, read2 *Alignment
	for _, a := range group {
		if !a.IsPrimary() {
			continue
		}
		if a.IsRead1() && read1 == nil {
			read1 = a
		} else if a.IsRead2() && read2 == nil {
			read2 = a
		}
	}

	end1 := endKeyFor(read1)
	end2 := endKeyFor(read2)
	if end1.IsUnmapped() && end2.IsUnmapped() {
		return EndKey{}, EndKey{}, false
	}

	if end2.Less(end1) {
		end1, end2 = end2, end1
	}
	return end1, end2, true
}

// endKeyFor computes the unclipped 5' fragment end for a selected
// primary, per spec.md §4.4 step 3. a may be nil (the mate was
// missing from the group entirely), which is treated the same as an
// unmapped mate.
func endKeyFor(a *Alignment) EndKey {
	if a == nil || a.IsUnmapped() {
		return unmappedEndKey
	}
	if a.IsForward() {
		frontSoft := int32(0)
		if len(a.Cigar) > 0 && a.Cigar[0].Op == OpSoftClip {
			frontSoft = a.Cigar[0].Length
		}
		return EndKey{
			RefID:       int64(a.ReferenceID),
			Position:    a.ReferenceStart - frontSoft,
			Orientation: OrientForward,
		}
	}
	backSoft := int32(0)
	if n := len(a.Cigar); n > 0 && a.Cigar[n-1].Op == OpSoftClip {
		backSoft = a.Cigar[n-1].Length
	}
	return EndKey{
		RefID:       int64(a.ReferenceID),
		Position:    a.ReferenceEnd + backSoft,
		Orientation: OrientReverse,
	}
}
