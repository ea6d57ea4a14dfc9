package binreader

import (
	"math"
	"testing"

	"github.com/deploymenttheory/garlic/internal/errs"
)

func TestULEB128RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, math.MaxUint32, math.MaxUint64}
	for _, v := range values {
		enc := EncodeULEB128(nil, v)
		b := New(enc)
		got, err := b.ReadULEB128()
		if err != nil {
			t.Fatalf("ReadULEB128(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
}

func TestSLEB128RoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 63, -64, 64, -65, 1 << 40, -(1 << 40), math.MinInt64, math.MaxInt64}
	for _, v := range values {
		enc := EncodeSLEB128(nil, v)
		b := New(enc)
		got, err := b.ReadSLEB128()
		if err != nil {
			t.Fatalf("ReadSLEB128(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
}

func TestULEB128RejectsOverlongSequence(t *testing.T) {
	// 11 continuation bytes, never terminating: must be rejected past
	// the 10-byte limit (property 2 of spec.md §8).
	bogus := make([]byte, 11)
	for i := range bogus {
		bogus[i] = 0x80
	}
	b := New(bogus)
	if _, err := b.ReadULEB128(); err != errs.ErrBadEncoding {
		t.Fatalf("expected ErrBadEncoding, got %v", err)
	}
}

func TestULEB128TruncatedInput(t *testing.T) {
	b := New([]byte{0x80}) // continuation bit set, no more bytes
	if _, err := b.ReadULEB128(); err != errs.ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}
