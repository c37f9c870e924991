// Package dedup implements the streaming SAM deduplication pipeline:
// one Reader task segmenting stdin into qname-groups and batches, N
// Worker tasks deriving fragment fingerprints and rewriting flags
// against a shared bloomfilter.Filter, and a Coordinator that wires
// them together, per spec.md §4.2-§4.5.
package dedup

import (
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/streammd/streammd/internal/bloomfilter"
)

// Options configures a single run of the pipeline.
type Options struct {
	Input       io.Reader
	Output      *os.File
	Filter      *bloomfilter.Filter // owner; Coordinator calls Destroy on completion
	NConsumers  int
	QueueSize   int
	BatchSize   int
	Logger      *zap.SugaredLogger
	Version     string
	CommandLine string
}

const (
	defaultQueueSize = 1000
)

type workerResult struct {
	stats Stats
	err   error
}

// Run spawns the reader and NConsumers workers, waits for them to
// complete, sums their counters, estimates the filter's cardinality,
// logs the summary line spec.md §6 requires, and tears down the
// shared-memory segment. It returns the first fatal error
// encountered by the reader or any worker; per spec.md §7, no error
// is recovered silently and partial output already written is not
// rolled back.
func Run(opts Options) (Stats, error) {
	nconsumers := opts.NConsumers
	if nconsumers <= 0 {
		nconsumers = 1
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	defer opts.Filter.Destroy() //nolint:errcheck // best-effort segment cleanup on exit

	out, err := NewAtomicWriter(opts.Output)
	if err != nil {
		return Stats{}, err
	}

	headerCh := make(chan string, nconsumers)
	workCh := make(chan Batch, queueSize)

	reader := &Reader{
		Output:     out,
		HeaderCh:   headerCh,
		WorkCh:     workCh,
		NConsumers: nconsumers,
		BatchSize:  opts.BatchSize,
	}
	readerErrCh := make(chan error, 1)
	go func() { readerErrCh <- reader.Run(opts.Input) }()

	handle := opts.Filter.Handle()
	resultCh := make(chan workerResult, nconsumers)
	for i := 0; i < nconsumers; i++ {
		go func() {
			wf, err := bloomfilter.Attach(handle)
			if err != nil {
				resultCh <- workerResult{err: err}
				return
			}
			defer wf.Close() //nolint:errcheck // releasing this goroutine's mapping

			worker := &Worker{HeaderCh: headerCh, WorkCh: workCh, Output: out, Filter: wf}
			stats, err := worker.Run()
			resultCh <- workerResult{stats: stats, err: err}
		}()
	}

	var total Stats
	var firstErr error
	var readerErr error
	readerDone := false
	remaining := nconsumers

	for remaining > 0 {
		select {
		case err := <-readerErrCh:
			readerDone = true
			readerErr = err
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case res := <-resultCh:
			remaining--
			total.Qnames += res.stats.Qnames
			total.Alignments += res.stats.Alignments
			total.Dups += res.stats.Dups
			if res.err != nil && firstErr == nil {
				firstErr = res.err
			}
		}
		if firstErr != nil {
			// Fatal: per spec.md §5/§7 cancellation is cooperative only.
			// We stop waiting rather than risk deadlocking on a reader
			// or worker that will never make further progress; the
			// process exits non-zero immediately after this returns,
			// taking any still-running goroutines with it.
			return total, firstErr
		}
	}
	if !readerDone {
		readerErr = <-readerErrCh
		if readerErr != nil {
			return total, readerErr
		}
	}

	approx := opts.Filter.Count()
	var dupFraction float64
	if total.Alignments > 0 {
		dupFraction = float64(total.Dups) / float64(total.Alignments)
	}
	if opts.Logger != nil {
		opts.Logger.Infow("streammd summary",
			"version", opts.Version,
			"command_line", opts.CommandLine,
			"approx_stored_items", approx,
			"qnames", total.Qnames,
			"alignments", total.Alignments,
			"duplicates", total.Dups,
			"duplicate_fraction", dupFraction,
		)
	}

	return total, nil
}
