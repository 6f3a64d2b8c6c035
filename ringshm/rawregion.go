package ringshm

import "fmt"

// RawRegion is a named mmap'd shared-memory segment with no ring/semaphore
// structure imposed on it — used directly by packages that need a plain
// shared byte array, such as the actor manager's status table.
type RawRegion struct {
	reg *region
}

// NewRawRegion creates (or truncates) a named shared-memory segment of the
// given size and maps it into this process.
func NewRawRegion(name string, size int64) (*RawRegion, error) {
	reg, err := createRegion(name, size)
	if err != nil {
		return nil, err
	}
	return &RawRegion{reg: reg}, nil
}

// Bytes returns the mapped segment. Callers must not reslice past len.
func (r *RawRegion) Bytes() []byte { return r.reg.data }

// Name returns the segment's /dev/shm name.
func (r *RawRegion) Name() string { return r.reg.name }

// Detach unmaps and closes the local handle without unlinking the name.
func (r *RawRegion) Detach() error { return r.reg.detach() }

// Unlink removes the segment's name from the filesystem. Only the creating
// process may call this.
func (r *RawRegion) Unlink() error { return r.reg.unlink() }

// DetachAndUnlink is the common teardown pairing used by registry closers.
func (r *RawRegion) DetachAndUnlink() error {
	if err := r.Detach(); err != nil {
		return fmt.Errorf("detach %s: %w", r.reg.name, err)
	}
	return r.Unlink()
}
