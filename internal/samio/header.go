package samio

import "strings"

// Header resolves SAM reference names (the RNAME field) to the
// integer reference_id the Data Model requires, by assigning ids in
// the order @SQ lines appear in the header block — the same
// convention BAM's binary reference list uses, so reference_id is
// stable and comparable the way spec.md's EndKey ordering assumes.
type Header struct {
	text   string
	ref2id map[string]int32
}

// NewHeader builds a Header from the concatenated header lines
// (as produced by the Reader) each terminated by '\n'.
func NewHeader(text string) *Header {
	h := &Header{text: text, ref2id: make(map[string]int32)}
	var id int32
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, "@SQ\t") {
			continue
		}
		for _, field := range strings.Split(line, "\t") {
			if strings.HasPrefix(field, "SN:") {
				h.ref2id[field[3:]] = id
				id++
				break
			}
		}
	}
	return h
}

// Text returns the concatenated header blob, for diagnostics.
func (h *Header) Text() string { return h.text }

// referenceID returns the integer id for name, or -1 (the BAM
// unmapped-reference convention) if name is "*" or not found in the
// header's @SQ lines.
func (h *Header) referenceID(name string) int32 {
	if name == "*" {
		return -1
	}
	if id, ok := h.ref2id[name]; ok {
		return id
	}
	return -1
}
