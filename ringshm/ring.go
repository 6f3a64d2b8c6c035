// Package ringshm implements the shared-memory SPSC ring (spec §4.2), its
// process-wide resource manager (§4.3), and the shmem channel built on top
// of it (§4.4 in the component table, §4.1 port contract).
package ringshm

import (
	"sync/atomic"

	"github.com/alephcore/msginfra/meta"
	"github.com/alephcore/msginfra/syncx"
)

// WriteFunc serialises one slot's contents into the byte span starting at
// the given offset within the region.
type WriteFunc func(slot []byte)

// ReadFunc parses one slot's contents from the byte span starting at the
// given offset within the region.
type ReadFunc func(slot []byte)

// slotSize is the per-slot footprint: the fixed metadata header followed
// by up to nbytes of payload.
func slotSize(nbytes int) int {
	return meta.HeaderSize + nbytes
}

// RingBuffer is a single-producer/single-consumer ring of capacity slots
// over a shared byte region, gated by two named counting semaphores: req
// counts filled slots (consumer waits on it), ack counts free slots
// (producer waits on it). Producer touches idxSend only; consumer touches
// idxRecv only, per spec §4.2.
type RingBuffer struct {
	reg      *region
	req      *Semaphore // filled-slot count, initial 0
	ack      *Semaphore // free-slot count, initial capacity
	capacity int
	nbytes   int
	idxSend  int // producer-owned
	idxRecv  int // consumer-owned

	// obs fires on every successful Store, so a selector parked on this
	// ring's receive port wakes on arrival rather than only on drain
	// (spec §4.8).
	obs syncx.ObserverSet
	// closed marks a Join'd ring: a parked BlockLoad must return false
	// rather than hang forever (spec §4.1 bounded-return contract).
	closed atomic.Bool
}

// newRingBuffer wires a region and its req/ack semaphore pair into a ring
// of the given capacity and per-slot payload budget.
func newRingBuffer(reg *region, req, ack *Semaphore, capacity, nbytes int) *RingBuffer {
	return &RingBuffer{reg: reg, req: req, ack: ack, capacity: capacity, nbytes: nbytes}
}

// Capacity returns the number of slots.
func (r *RingBuffer) Capacity() int { return r.capacity }

// NBytes returns the maximum payload size per slot.
func (r *RingBuffer) NBytes() int { return r.nbytes }

func (r *RingBuffer) slotAt(idx int) []byte {
	sz := slotSize(r.nbytes)
	off := idx * sz
	return r.reg.data[off : off+sz]
}

// Store runs the producer protocol (§4.2): wait for a free slot, serialise
// into it, advance idxSend, publish a filled slot, then wake any selector
// parked on this ring's receive side.
func (r *RingBuffer) Store(write WriteFunc) {
	r.ack.Wait()
	write(r.slotAt(r.idxSend))
	r.idxSend = (r.idxSend + 1) % r.capacity
	r.req.Post()
	r.obs.Notify()
}

// BlockLoad runs the blocking consumer protocol: wait for a filled slot,
// parse it, advance idxRecv, release the slot back to the producer. It
// returns false without touching the slot if the ring was Close'd while
// waiting, the signal a Join'd receive port needs to return rather than
// block forever (spec §4.1).
func (r *RingBuffer) BlockLoad(read ReadFunc) bool {
	r.req.Wait()
	if r.closed.Load() {
		return false
	}
	read(r.slotAt(r.idxRecv))
	r.idxRecv = (r.idxRecv + 1) % r.capacity
	r.ack.Post()
	return true
}

// Close marks the ring closed and posts once to req so a consumer already
// parked in BlockLoad's sem_wait wakes up and observes the close instead of
// hanging. Idempotent: only the first call posts.
func (r *RingBuffer) Close() {
	if r.closed.CompareAndSwap(false, true) {
		r.req.Post()
	}
}

// Load runs the non-blocking consumer protocol. It returns false without
// touching idxRecv if no slot is currently filled.
func (r *RingBuffer) Load(read ReadFunc) bool {
	if !r.req.TryWait() {
		return false
	}
	read(r.slotAt(r.idxRecv))
	r.idxRecv = (r.idxRecv + 1) % r.capacity
	r.ack.Post()
	return true
}

// TryProbe is advisory: sem_trywait on req immediately followed by
// sem_post on success. For the single owning consumer of an SPSC ring
// this is authoritative, since nothing else can shrink req between the
// trywait and the post (spec §4.2).
func (r *RingBuffer) TryProbe() bool {
	if !r.req.TryWait() {
		return false
	}
	r.req.Post()
	return true
}

// Peek reads the current receive slot without advancing idxRecv. It holds
// req for the duration of the read so a concurrent Load/BlockLoad cannot
// consume the same slot mid-peek, then restores it — this is the fixed
// behaviour for the bug flagged in spec §9: Peek always populates the
// metadata it returns from the slot it actually read.
func (r *RingBuffer) Peek(read ReadFunc) {
	r.req.Wait()
	read(r.slotAt(r.idxRecv))
	r.req.Post()
}

// Read parses the current receive slot directly, with no semaphore
// coordination at all. It is only safe when capacity == 1 and the caller
// is the ring's sole consumer (the blocking single-slot variant), where
// there is always exactly one slot and no indices to race on.
func (r *RingBuffer) Read(read ReadFunc) {
	read(r.slotAt(r.idxRecv))
}

// Balance returns req + ack, which must equal capacity at any quiescent
// point (spec §8 semaphore-balance invariant).
func (r *RingBuffer) Balance() int {
	return r.req.Value() + r.ack.Value()
}

// encodeInto writes m's header followed by payload into slot, rejecting
// payloads that would not fit (spec §7 PayloadTooLarge).
func encodeInto(slot []byte, m *meta.Meta, payload []byte) error {
	if err := meta.CheckFits(m, len(slot)-meta.HeaderSize); err != nil {
		return err
	}
	hdr := meta.Encode(m)
	copy(slot[:meta.HeaderSize], hdr[:])
	copy(slot[meta.HeaderSize:], payload)
	return nil
}

// decodeFrom parses a header from slot and copies out a freshly allocated
// payload buffer owned by the caller (spec §4.1 Recv contract).
func decodeFrom(slot []byte) (meta.Meta, []byte, error) {
	m, err := meta.Decode(slot[:meta.HeaderSize])
	if err != nil {
		return meta.Meta{}, nil, err
	}
	n := m.ByteLen()
	maxLen := int64(len(slot) - meta.HeaderSize)
	if n > maxLen {
		// Legacy producer wrote more than this slot can hold; clamp
		// defensively rather than read out of bounds.
		n = maxLen
	}
	payload := make([]byte, n)
	copy(payload, slot[meta.HeaderSize:int64(meta.HeaderSize)+n])
	return m, payload, nil
}
