package dedup

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/streammd/streammd/internal/bloomfilter"
	"github.com/streammd/streammd/internal/samio"
)

// Stats are the per-worker counters spec.md §4.3/§4.5 requires the
// coordinator to sum across all workers.
type Stats struct {
	Qnames     uint64
	Alignments uint64
	Dups       uint64
}

// Worker is one of the N tasks that drain the work channel, derive
// each qname-group's fingerprint, update the shared Bloom filter, and
// rewrite/emit records, per spec.md §4.3.
type Worker struct {
	HeaderCh <-chan string
	WorkCh   <-chan Batch
	Output   *AtomicWriter
	Filter   *bloomfilter.Filter
}

// Run drains exactly one header, then batches until the terminal nil
// sentinel, returning this worker's accumulated counters.
func (w *Worker) Run() (Stats, error) {
	headerBlob := <-w.HeaderCh
	hdr := samio.NewHeader(headerBlob)

	var stats Stats
	for {
		batch := <-w.WorkCh
		if batch == nil {
			break
		}
		for _, group := range batch {
			if err := w.processGroup(group, hdr, &stats); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

func (w *Worker) processGroup(raw QnameGroup, hdr *samio.Header, stats *Stats) error {
	alignments := make([]*samio.Alignment, len(raw))
	for i, line := range raw {
		a, err := samio.Parse(line, hdr)
		if err != nil {
			return errors.Wrapf(err, "dedup: parse record %d of qname-group", i)
		}
		alignments[i] = a
	}

	stats.Qnames++
	stats.Alignments += uint64(len(alignments))

	end1, end2, ok := samio.FragmentEnds(alignments)
	if ok {
		w.markDuplicates(end1, end2, alignments, stats)
	}

	return w.emit(alignments)
}

// markDuplicates builds the Bloom-filter key per spec.md §4.3 step 4
// and flags the group's alignments if the key was already present.
func (w *Worker) markDuplicates(end1, end2 samio.EndKey, alignments []*samio.Alignment, stats *Stats) {
	if end2.IsUnmapped() {
		key := end1.String()
		if !w.Filter.Add([]byte(key)) {
			for _, a := range alignments {
				if a.IsMapped() {
					a.MarkDuplicate()
					stats.Dups++
				}
			}
		}
		return
	}

	key := end1.String() + end2.String()
	if !w.Filter.Add([]byte(key)) {
		for _, a := range alignments {
			a.MarkDuplicate()
		}
		stats.Dups += uint64(len(alignments))
	}
}

// emit serializes every alignment back to a SAM line and writes the
// whole group as one atomic block, so groups remain contiguous in
// the output even though groups themselves may interleave.
func (w *Worker) emit(alignments []*samio.Alignment) error {
	lines := make([]string, len(alignments))
	for i, a := range alignments {
		lines[i] = a.Line()
	}
	block := strings.Join(lines, "\n") + "\n"
	return w.Output.WriteAtomic([]byte(block))
}
