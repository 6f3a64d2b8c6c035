package ringshm

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alephcore/msginfra/msgerr"
)

// AttachRingBuffer reopens a ring by the names a prior
// AllocChannelSharedMemory call produced, without creating or resizing
// anything. Used by a re-exec'd actor to rendezvous with a channel its
// parent allocated (spec §2). Opening an existing named semaphore with
// O_CREAT is a POSIX no-op beyond returning the existing handle, so the
// initial-value arguments here are ignored in practice and only matter if
// the names somehow don't exist yet.
func AttachRingBuffer(shmName, reqName, ackName string, nbytes, capacity int) (*RingBuffer, error) {
	reg, err := attachRegion(shmName, int64(slotSize(nbytes)*capacity))
	if err != nil {
		return nil, err
	}
	req, err := openSemaphore(reqName, 0)
	if err != nil {
		return nil, err
	}
	ack, err := openSemaphore(ackName, uint(capacity))
	if err != nil {
		return nil, err
	}
	return newRingBuffer(reg, req, ack, capacity, nbytes), nil
}

// ChannelEnv returns the environment variables an actor needs to attach to
// ch via AttachChannelFromEnv, each keyed under prefix. BuildActor callers
// use this to pass a channel's rendezvous info to a re-exec'd child that
// needs to open the send/receive ports assigned to its closure.
func ChannelEnv(prefix string, ch *Channel) map[string]string {
	return map[string]string{
		prefix + "_NAME":     ch.Name(),
		prefix + "_SHM":      ch.ShmName(),
		prefix + "_REQ":      ch.ReqName(),
		prefix + "_ACK":      ch.AckName(),
		prefix + "_CAPACITY": strconv.Itoa(ch.Capacity()),
		prefix + "_NBYTES":   strconv.Itoa(ch.NBytes()),
	}
}

// AttachChannelFromEnv reconstructs a channel from the environment
// variables a ChannelEnv call under the same prefix wrote into this
// process's environment (typically by an actor's parent, via BuildActor).
func AttachChannelFromEnv(prefix string) (*Channel, error) {
	name := os.Getenv(prefix + "_NAME")
	if name == "" {
		return nil, fmt.Errorf("%w: no channel env under prefix %q", msgerr.ErrResourceExhausted, prefix)
	}
	capacity, err := strconv.Atoi(os.Getenv(prefix + "_CAPACITY"))
	if err != nil {
		return nil, fmt.Errorf("%w: bad %s_CAPACITY: %v", msgerr.ErrResourceExhausted, prefix, err)
	}
	nbytes, err := strconv.Atoi(os.Getenv(prefix + "_NBYTES"))
	if err != nil {
		return nil, fmt.Errorf("%w: bad %s_NBYTES: %v", msgerr.ErrResourceExhausted, prefix, err)
	}
	ring, err := AttachRingBuffer(os.Getenv(prefix+"_SHM"), os.Getenv(prefix+"_REQ"), os.Getenv(prefix+"_ACK"), nbytes, capacity)
	if err != nil {
		return nil, err
	}
	return NewChannel(name, ring), nil
}
