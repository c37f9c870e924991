package dedup

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

// maxScanLineBytes bounds the longest SAM record line (SEQ/QUAL can
// run long for long-read platforms) the reader will accept.
const maxScanLineBytes = 1 << 26

// AtomicWriter wraps the output file descriptor so every logical unit
// — one header line, or one complete qname-group block — reaches the
// descriptor through a single write(2) syscall, per spec.md §5's
// shared-output-descriptor rule. A pipe's write of up to PIPE_BUF
// bytes is atomic by itself; for a regular file (which has no such
// guarantee against concurrent writers) a serializing mutex is used
// as the safe fallback spec.md §9 calls for.
type AtomicWriter struct {
	f  *os.File
	mu *sync.Mutex // non-nil only when f is not a pipe/fifo
}

// NewAtomicWriter inspects f's mode to decide whether writes need the
// serializing-mutex fallback.
func NewAtomicWriter(f *os.File) (*AtomicWriter, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "dedup: stat output descriptor")
	}
	w := &AtomicWriter{f: f}
	if info.Mode()&(os.ModeNamedPipe|os.ModeSocket) == 0 {
		w.mu = &sync.Mutex{}
	}
	return w, nil
}

// WriteAtomic writes p as a single unit.
func (w *AtomicWriter) WriteAtomic(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if w.mu != nil {
		w.mu.Lock()
		defer w.mu.Unlock()
	}
	_, err := w.f.Write(p)
	return err
}
