package ringshm

/*
#include <fcntl.h>
#include <semaphore.h>
#include <errno.h>
#include <stdlib.h>

static sem_t *open_named_sem(const char *name, unsigned int value) {
	return sem_open(name, O_CREAT, 0644, value);
}
*/
import "C"

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/alephcore/msginfra/msgerr"
)

// Semaphore wraps a named POSIX counting semaphore (sem_open/sem_wait family).
// It is the synchronisation primitive behind the ring buffer's req/ack
// slot accounting (spec §4.2): req counts filled slots, ack counts free
// slots, and Wait reissues sem_wait when a signal interrupts it (EINTR).
type Semaphore struct {
	name string
	c    *C.sem_t
}

// openSemaphore opens (creating if necessary) a named semaphore with the
// given initial value.
func openSemaphore(name string, initial uint) (*Semaphore, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	sem := C.open_named_sem(cname, C.uint(initial))
	if sem == nil {
		return nil, fmt.Errorf("%w: sem_open %s failed", msgerr.ErrResourceExhausted, name)
	}
	return &Semaphore{name: name, c: sem}, nil
}

// Wait blocks until the semaphore is non-zero, then decrements it.
func (s *Semaphore) Wait() {
	for {
		ret, errno := C.sem_wait(s.c)
		if ret == 0 {
			return
		}
		if errno == syscall.EINTR {
			continue // interrupted by a signal, restart per §4.2
		}
		return
	}
}

// TryWait attempts a non-blocking decrement. Returns true on success.
func (s *Semaphore) TryWait() bool {
	ret, _ := C.sem_trywait(s.c)
	return ret == 0
}

// Post increments the semaphore, waking one waiter if any.
func (s *Semaphore) Post() {
	C.sem_post(s.c)
}

// Value returns the current semaphore count (advisory; races are allowed
// under the SPSC discipline per spec §4.2).
func (s *Semaphore) Value() int {
	var v C.int
	C.sem_getvalue(s.c, &v)
	return int(v)
}

// Close detaches this process's handle without unlinking the name. Used
// by child processes that inherited the semaphore across fork.
func (s *Semaphore) Close() error {
	C.sem_close(s.c)
	return nil
}

// Unlink removes the semaphore's name from the system. Must only be
// called by the process that created it (spec §4.3 ownership invariant).
func (s *Semaphore) Unlink() error {
	cname := C.CString(s.name)
	defer C.free(unsafe.Pointer(cname))
	C.sem_unlink(cname)
	return nil
}

// Name returns the semaphore's system-wide name.
func (s *Semaphore) Name() string { return s.name }
