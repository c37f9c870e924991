package dedup

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// QnameGroup is an ordered sequence of raw SAM record lines sharing a
// query name; spec.md §3 requires size >= 2 (singletons are fatal).
// Lines are kept raw here — parsing into samio.Alignment happens in
// the worker, once it has the header needed to resolve RNAME.
type QnameGroup []string

// Batch is a bundle of qname-groups, the unit pushed through the work
// channel. A nil Batch is the terminal sentinel.
type Batch []QnameGroup

// defaultBatchSize is spec.md §4.2's default batch size.
const defaultBatchSize = 50

// Reader is the single task that segments stdin into qname-groups and
// batches, per spec.md §4.2.
type Reader struct {
	Output     *AtomicWriter
	HeaderCh   chan<- string
	WorkCh     chan<- Batch
	NConsumers int
	BatchSize  int
}

// Run reads r line by line until EOF, writing header lines to
// r.Output, then r.NConsumers copies of the header blob to HeaderCh,
// then qname-grouped batches to WorkCh, terminated by one nil
// sentinel per consumer. It returns the first fatal error
// encountered (header-missing or a singleton qname), naming the
// offending qname where applicable.
func (r *Reader) Run(in io.Reader) error {
	batchSize := r.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanLineBytes)

	var headerLines []string
	var sawRecord bool
	var currentQname string
	var currentLines QnameGroup
	var batch Batch

	flushGroup := func() error {
		if currentLines == nil {
			return nil
		}
		if len(currentLines) < 2 {
			return errors.Errorf("dedup: singleton qname-group for qname %q (paired data required)", currentQname)
		}
		batch = append(batch, currentLines)
		currentLines = nil
		if len(batch) >= batchSize {
			r.WorkCh <- batch
			batch = nil
		}
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if !sawRecord && strings.HasPrefix(line, "@") {
			headerLines = append(headerLines, line)
			if err := r.Output.WriteAtomic([]byte(line + "\n")); err != nil {
				return errors.Wrap(err, "dedup: write header line")
			}
			continue
		}

		if !sawRecord {
			sawRecord = true
			if len(headerLines) == 0 {
				return errors.New("dedup: input has no header (@ lines)")
			}
			headerBlob := strings.Join(headerLines, "\n") + "\n"
			for i := 0; i < r.NConsumers; i++ {
				r.HeaderCh <- headerBlob
			}
		}

		qname := firstField(line)
		if qname != currentQname || currentLines == nil {
			if err := flushGroup(); err != nil {
				return err
			}
			currentQname = qname
		}
		currentLines = append(currentLines, line)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "dedup: read input")
	}

	if !sawRecord {
		// Header-only (or empty) input. A missing header is still
		// fatal; a header with zero records is not an error, but the
		// header blob must still reach every worker so none block
		// forever waiting on HeaderCh.
		if len(headerLines) == 0 {
			return errors.New("dedup: input has no header (@ lines)")
		}
		headerBlob := strings.Join(headerLines, "\n") + "\n"
		for i := 0; i < r.NConsumers; i++ {
			r.HeaderCh <- headerBlob
		}
	}

	if err := flushGroup(); err != nil {
		return err
	}
	if len(batch) > 0 {
		r.WorkCh <- batch
	}
	for i := 0; i < r.NConsumers; i++ {
		r.WorkCh <- nil
	}
	return nil
}

func firstField(line string) string {
	if i := strings.IndexByte(line, '\t'); i >= 0 {
		return line[:i]
	}
	return line
}
