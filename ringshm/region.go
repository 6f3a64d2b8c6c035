package ringshm

import (
	"fmt"
	"math/rand"
	"os"

	"golang.org/x/sys/unix"

	"github.com/alephcore/msginfra/msgerr"
)

// shmDir is where named shared-memory segments are created, mirroring the
// POSIX shm_open convention of backing /dev/shm.
var shmDir = "/dev/shm"

// region is one mmap'd shared-memory segment.
type region struct {
	name   string
	f      *os.File
	data   []byte
	closed bool
}

// randSuffix generates the "<rand>" component used by every name in §6:
// "shm<rand>", "req<rand>", "ack<rand>".
func randSuffix() int64 {
	return rand.Int63()
}

// createRegion opens (O_CREAT|O_RDWR, mode 0666), truncates, and maps a new
// anonymous-but-named shared region of size bytes.
func createRegion(name string, size int64) (*region, error) {
	path := shmDir + "/" + name
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", msgerr.ErrResourceExhausted, path, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: truncate %s: %v", msgerr.ErrResourceExhausted, path, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: mmap %s: %v", msgerr.ErrResourceExhausted, path, err)
	}
	return &region{name: name, f: f, data: data}, nil
}

// attachRegion opens and maps an existing named region without creating or
// truncating it, for a process that did not allocate the segment itself —
// e.g. a re-exec'd actor rendezvousing with a channel its parent created
// (spec §2: an actor "opens the send/receive ports assigned to its
// closure").
func attachRegion(name string, size int64) (*region, error) {
	path := shmDir + "/" + name
	f, err := os.OpenFile(path, os.O_RDWR, 0666)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", msgerr.ErrResourceExhausted, path, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: mmap %s: %v", msgerr.ErrResourceExhausted, path, err)
	}
	return &region{name: name, f: f, data: data}, nil
}

// detach unmaps and closes the local file descriptor without unlinking the
// backing name. Safe to call from a child process that inherited the
// mapping across fork.
func (r *region) detach() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil {
			return err
		}
		r.data = nil
	}
	return r.f.Close()
}

// unlink removes this region's name from the filesystem. Only the
// creating process may call this (spec §4.3 ownership invariant). Removing
// an already-absent name is not an error, so repeated cleanup is idempotent.
func (r *region) unlink() error {
	if err := os.Remove(shmDir + "/" + r.name); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
