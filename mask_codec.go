package optionset

import "encoding/binary"

// MaskSize is the encoded length of a mask in bytes.
const MaskSize = 8

// EncodeMask returns the big-endian encoding of mask. Stores and token claims
// persist masks in this form.
func EncodeMask(mask uint64) []byte {
	b := make([]byte, MaskSize)
	binary.BigEndian.PutUint64(b, mask)
	return b
}

// DecodeMask parses a mask produced by [EncodeMask].
func DecodeMask(data []byte) (uint64, error) {
	if len(data) != MaskSize {
		return 0, ErrInvalidMaskSize
	}
	return binary.BigEndian.Uint64(data), nil
}
