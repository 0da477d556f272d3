package optionset

import (
	"errors"
	"testing"
)

// FuzzMaskCodecRoundTrip exercises the mask encode/decode path with arbitrary bytes.
// Goal: no panics; 8-byte inputs must roundtrip.
func FuzzMaskCodecRoundTrip(f *testing.F) {
	f.Add(make([]byte, 8))
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})

	// Invalid sizes.
	f.Add([]byte{})
	f.Add([]byte{1, 2, 3})
	f.Add(make([]byte, 7))
	f.Add(make([]byte, 9))

	f.Fuzz(func(t *testing.T, data []byte) {
		mask, err := DecodeMask(data)
		if err != nil {
			if !errors.Is(err, ErrInvalidMaskSize) {
				t.Fatalf("unexpected decode error: %v", err)
			}
			return
		}

		encoded := EncodeMask(mask)
		if len(encoded) != len(data) {
			t.Fatalf("roundtrip length mismatch: %d vs %d", len(encoded), len(data))
		}
		for i := range encoded {
			if encoded[i] != data[i] {
				t.Fatalf("roundtrip byte mismatch at %d: %02x vs %02x", i, encoded[i], data[i])
			}
		}
	})
}

func TestEncodeMaskIsBigEndian(t *testing.T) {
	got := EncodeMask(0x0102)
	want := []byte{0, 0, 0, 0, 0, 0, 0x01, 0x02}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("EncodeMask(0x0102) = %x, want %x", got, want)
		}
	}
}
