// Package meta defines the fixed-layout descriptor that accompanies every
// array message payload, and its bit-exact wire encoding.
package meta

import (
	"encoding/binary"
	"fmt"

	"github.com/alephcore/msginfra/msgerr"
)

// MaxDims is the maximum supported array dimensionality.
const MaxDims = 5

// HeaderSize is the fixed, bit-exact size of the serialised header (the
// payload pointer slot is producer-local and not part of the wire form).
const HeaderSize = 112

// Type is the closed set of element type tags carried in a Meta record.
type Type int64

const (
	Bool Type = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Complex64
	Complex128
)

// ElemSize returns the canonical byte size for t, or 0 if t is unknown.
func (t Type) ElemSize() int {
	switch t {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		return 0
	}
}

// Meta is the fixed-size header describing one message payload. The wire
// layout (see Encode/Decode) is identical across every transport.
type Meta struct {
	ND        int64
	Type      Type
	ElSize    int64
	TotalSize int64
	Dims      [MaxDims]int64
	Strides   [MaxDims]int64
}

// Validate checks the invariants required by the data model: 1 <= ND <=
// MaxDims, ElSize >= 1, and TotalSize equal to the product of the leading
// ND dims.
func (m *Meta) Validate() error {
	if m.ND < 1 || m.ND > MaxDims {
		return fmt.Errorf("meta: nd %d out of range [1,%d]", m.ND, MaxDims)
	}
	if m.ElSize < 1 {
		return fmt.Errorf("meta: elsize %d must be >= 1", m.ElSize)
	}
	product := int64(1)
	for i := int64(0); i < m.ND; i++ {
		product *= m.Dims[i]
	}
	if product != m.TotalSize {
		return fmt.Errorf("meta: total_size %d != product of dims %d", m.TotalSize, product)
	}
	return nil
}

// ByteLen returns the payload length in bytes implied by this header.
func (m *Meta) ByteLen() int64 {
	return m.ElSize * m.TotalSize
}

// NewMeta builds a Meta for a contiguous, row-major array of the given
// element type and dims, computing TotalSize and Strides.
func NewMeta(t Type, dims ...int64) (Meta, error) {
	nd := int64(len(dims))
	if nd < 1 || nd > MaxDims {
		return Meta{}, fmt.Errorf("meta: nd %d out of range [1,%d]", nd, MaxDims)
	}
	m := Meta{ND: nd, Type: t, ElSize: int64(t.ElemSize())}
	if m.ElSize == 0 {
		return Meta{}, fmt.Errorf("meta: unknown type tag %d", t)
	}
	total := int64(1)
	for i, d := range dims {
		m.Dims[i] = d
		total *= d
	}
	m.TotalSize = total
	stride := int64(1)
	for i := int(nd) - 1; i >= 0; i-- {
		m.Strides[i] = stride
		stride *= m.Dims[i]
	}
	return m, nil
}

// Encode serialises the header into the fixed 112-byte wire form,
// little-endian, with no hidden padding.
func Encode(m *Meta) [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(m.ND))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(m.Type))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(m.ElSize))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(m.TotalSize))
	for i := 0; i < MaxDims; i++ {
		binary.LittleEndian.PutUint64(buf[32+i*8:40+i*8], uint64(m.Dims[i]))
	}
	for i := 0; i < MaxDims; i++ {
		binary.LittleEndian.PutUint64(buf[72+i*8:80+i*8], uint64(m.Strides[i]))
	}
	return buf
}

// Decode parses a header previously produced by Encode.
func Decode(buf []byte) (Meta, error) {
	if len(buf) < HeaderSize {
		return Meta{}, fmt.Errorf("meta: short header, got %d bytes want %d", len(buf), HeaderSize)
	}
	var m Meta
	m.ND = int64(binary.LittleEndian.Uint64(buf[0:8]))
	m.Type = Type(binary.LittleEndian.Uint64(buf[8:16]))
	m.ElSize = int64(binary.LittleEndian.Uint64(buf[16:24]))
	m.TotalSize = int64(binary.LittleEndian.Uint64(buf[24:32]))
	for i := 0; i < MaxDims; i++ {
		m.Dims[i] = int64(binary.LittleEndian.Uint64(buf[32+i*8 : 40+i*8]))
	}
	for i := 0; i < MaxDims; i++ {
		m.Strides[i] = int64(binary.LittleEndian.Uint64(buf[72+i*8 : 80+i*8]))
	}
	return m, nil
}

// CheckFits returns msgerr.ErrPayloadTooLarge if m's payload would not fit
// in a slot of nbytes capacity (after the header).
func CheckFits(m *Meta, nbytes int) error {
	if m.ByteLen() > int64(nbytes) {
		return fmt.Errorf("%w: %d bytes exceeds slot capacity %d", msgerr.ErrPayloadTooLarge, m.ByteLen(), nbytes)
	}
	return nil
}
