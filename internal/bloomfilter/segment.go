package bloomfilter

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// segment is a non-owning or owning view onto a contiguous region of
// m/8 bytes backed by a named, mmap'd file (under /dev/shm where that
// directory exists, otherwise the OS temp directory) so that any
// number of goroutines (or, unchanged, OS processes) can attach to
// the identical physical pages by name. Grounded on
// dgraph-io-ristretto's z/mmap_linux.go, which maps a file
// MAP_SHARED via golang.org/x/sys/unix for the same reason: every
// attacher sees writes made through any other attacher's mapping.
type segment struct {
	name  string
	file  *os.File
	bits  []byte
	owner bool
}

var segmentCounter uint64

// createSegment allocates a new zeroed segment of the given bit
// count, named uniquely under /dev/shm (or the OS temp directory when
// /dev/shm does not exist), and mmaps it
// read-write. The creator owns the file's lifetime; release() closes
// the local mapping, destroy() additionally unlinks the backing file.
func createSegment(sizeBits uint64) (*segment, error) {
	sizeBytes := int64((sizeBits + 7) / 8)
	if sizeBytes == 0 {
		sizeBytes = 1
	}

	id := atomic.AddUint64(&segmentCounter, 1)
	name := fmt.Sprintf("streammd-bloom-%d-%d", os.Getpid(), id)
	path := shmPath(name)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "bloomfilter: create shared-memory segment")
	}
	if err := f.Truncate(sizeBytes); err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.Wrap(err, "bloomfilter: size shared-memory segment")
	}

	bits, err := unix.Mmap(int(f.Fd()), 0, int(sizeBytes), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.Wrap(err, "bloomfilter: mmap shared-memory segment")
	}
	// Initialized to all zeros exactly once by the creator; the
	// kernel guarantees a freshly truncated file reads as zero, so no
	// explicit clear is required.

	return &segment{name: name, file: f, bits: bits, owner: true}, nil
}

// attachSegment attaches a non-owning view to an existing segment by
// name. It does not re-zero the bits.
func attachSegment(name string, sizeBits uint64) (*segment, error) {
	sizeBytes := int64((sizeBits + 7) / 8)
	if sizeBytes == 0 {
		sizeBytes = 1
	}

	path := shmPath(name)
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "bloomfilter: attach shared-memory segment")
	}

	bits, err := unix.Mmap(int(f.Fd()), 0, int(sizeBytes), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "bloomfilter: mmap attached segment")
	}

	return &segment{name: name, file: f, bits: bits, owner: false}, nil
}

// release unmaps this process's view of the segment and closes its
// file. Every non-owning attacher must call it before the owner calls
// destroy, which releases the owner's own view itself.
func (s *segment) release() error {
	if s.bits != nil {
		if err := unix.Munmap(s.bits); err != nil {
			return errors.Wrap(err, "bloomfilter: munmap segment")
		}
		s.bits = nil
	}
	return s.file.Close()
}

// destroy tears down the segment's backing file. Only the owner
// (the shared-memory manager that created it) may call this, and
// only after every other attacher has released its view.
func (s *segment) destroy() error {
	if !s.owner {
		return errors.New("bloomfilter: destroy called by a non-owning attacher")
	}
	if err := s.release(); err != nil {
		return err
	}
	return os.Remove(shmPath(s.name))
}

func shmPath(name string) string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return "/dev/shm/" + name
	}
	return os.TempDir() + "/" + name
}
