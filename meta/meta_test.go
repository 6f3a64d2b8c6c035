package meta

import (
	"errors"
	"testing"

	"github.com/alephcore/msginfra/msgerr"
)

func TestNewMetaComputesStridesAndTotal(t *testing.T) {
	m, err := NewMeta(Int64, 2, 3, 4)
	if err != nil {
		t.Fatalf("NewMeta: %v", err)
	}
	if m.TotalSize != 24 {
		t.Fatalf("total size = %d, want 24", m.TotalSize)
	}
	if m.Strides != [MaxDims]int64{12, 4, 1, 0, 0} {
		t.Fatalf("strides = %v", m.Strides)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Type{Bool, Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64, Float32, Float64, Complex64, Complex128}
	for _, ty := range cases {
		m, err := NewMeta(ty, 7)
		if err != nil {
			t.Fatalf("NewMeta(%v): %v", ty, err)
		}
		wire := Encode(&m)
		got, err := Decode(wire[:])
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got != m {
			t.Fatalf("round trip mismatch: got %+v want %+v", got, m)
		}
	}
}

func TestValidateRejectsBadDims(t *testing.T) {
	m := Meta{ND: 6, ElSize: 8, TotalSize: 1}
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for nd > MaxDims")
	}
	m = Meta{ND: 2, ElSize: 8, Dims: [MaxDims]int64{2, 3}, TotalSize: 7}
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for mismatched total_size")
	}
}

func TestCheckFitsRejectsOversizedPayload(t *testing.T) {
	m, _ := NewMeta(Int64, 16)
	if err := CheckFits(&m, 64); !errors.Is(err, msgerr.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if err := CheckFits(&m, 128); err != nil {
		t.Fatalf("expected fit, got %v", err)
	}
}
