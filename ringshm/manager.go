package ringshm

import (
	"fmt"
	"os"
	"sync"

	"github.com/alephcore/msginfra/msgerr"
)

// closer is one registered teardown action. Registry drains these in
// reverse (LIFO) order on DeleteAll, per the design-notes re-architecture
// of the original single singleton with raw handle maps.
type closer func() error

// Registry is a process-wide registry of every shared-memory segment and
// semaphore this process has allocated. Only the creating process may
// drain it; DeleteAll refuses to run in any other process.
type Registry struct {
	mu      sync.Mutex
	owner   int
	closers []namedCloser
}

type namedCloser struct {
	label string
	fn    closer
}

// NewRegistry returns an empty registry bound to the current process.
func NewRegistry() *Registry {
	return &Registry{owner: os.Getpid()}
}

// register appends a teardown action, to be run in reverse order.
func (r *Registry) register(label string, fn closer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, namedCloser{label: label, fn: fn})
}

// DeleteAll drains every registered closer in LIFO order. Must run only in
// the registry's owning (creating) process (spec §4.3 invariant); called
// from any other process it returns an msgerr.ErrFatal error and unlinks
// nothing.
func (r *Registry) DeleteAll() error {
	if os.Getpid() != r.owner {
		return fmt.Errorf("%w: DeleteAll called outside owning process", msgerr.ErrFatal)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].fn(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("cleanup %s: %w", r.closers[i].label, err)
		}
	}
	r.closers = nil
	return firstErr
}

// Manager is the shared-memory manager (component C): it creates,
// tracks, and destroys shm segments and named semaphore pairs on behalf
// of the shmem channel factory.
type Manager struct {
	reg *Registry
}

// NewManager returns a manager with a fresh registry.
func NewManager() *Manager {
	return &Manager{reg: NewRegistry()}
}

// AllocChannelSharedMemory implements spec §4.3: allocate a shm region
// sized nbytes*capacity (plus header room per slot), open the req/ack
// semaphore pair, and return a ring bound to both.
func (m *Manager) AllocChannelSharedMemory(nbytes, capacity int) (*RingBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0", msgerr.ErrResourceExhausted)
	}
	rnd := randSuffix()
	shmName := fmt.Sprintf("shm%d", rnd)
	reqName := fmt.Sprintf("req%d", rnd)
	ackName := fmt.Sprintf("ack%d", rnd)

	reg, err := createRegion(shmName, int64(slotSize(nbytes)*capacity))
	if err != nil {
		return nil, err
	}
	m.reg.register("shm:"+shmName, func() error {
		if err := reg.detach(); err != nil {
			return err
		}
		return reg.unlink()
	})

	req, err := openSemaphore(reqName, 0)
	if err != nil {
		return nil, err
	}
	m.reg.register("sem:"+reqName, func() error {
		if err := req.Close(); err != nil {
			return err
		}
		return req.Unlink()
	})

	ack, err := openSemaphore(ackName, uint(capacity))
	if err != nil {
		return nil, err
	}
	m.reg.register("sem:"+ackName, func() error {
		if err := ack.Close(); err != nil {
			return err
		}
		return ack.Unlink()
	})

	return newRingBuffer(reg, req, ack, capacity, nbytes), nil
}

// DeleteAllSharedMemory unmaps every region, unlinks every shm name, and
// closes+unlinks every semaphore this manager allocated. Idempotent: a
// second call finds an empty registry and returns nil. Must be called
// exactly once, from the process manager, in the creating process only.
func (m *Manager) DeleteAllSharedMemory() error {
	return m.reg.DeleteAll()
}
