package bitio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_PacksMSBFirst(t *testing.T) {
	w := NewWriter(4)
	w.WriteBits(0b1, 1)
	w.WriteBits(0b01, 2)
	w.WriteBits(0b11111, 5)
	w.WriteBits(0b101, 3)

	assert.Equal(t, uint64(11), w.Bits())
	assert.Equal(t, []byte{0b10111111, 0b10100000}, w.Bytes())
}

func TestWriter_LongCodes(t *testing.T) {
	w := NewWriter(0)
	w.WriteBits(0x3, 2)
	w.WriteBits(^uint64(0), 64)
	w.WriteBits(0, 6)

	out := w.Bytes()
	require.Len(t, out, 9)
	assert.Equal(t, uint64(72), w.Bits())
	assert.Equal(t, byte(0xFF), out[0])
	for _, b := range out[1:8] {
		assert.Equal(t, byte(0xFF), b)
	}
	assert.Equal(t, byte(0xC0), out[8])
}

func TestReader_RoundTrip(t *testing.T) {
	w := NewWriter(0)
	pattern := []uint{1, 0, 0, 1, 1, 1, 0, 1, 0, 1}
	for _, b := range pattern {
		w.WriteBits(uint64(b), 1)
	}
	data := w.Bytes()

	r := NewReader(data, w.Bits())
	for i, want := range pattern {
		got, err := r.ReadBit()
		require.NoError(t, err, "bit %d", i)
		assert.Equal(t, want, got, "bit %d", i)
	}
	assert.Equal(t, uint64(len(pattern)), r.Consumed())

	_, err := r.ReadBit()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestReader_ClampsToData(t *testing.T) {
	r := NewReader([]byte{0xFF}, 100)
	assert.Equal(t, uint64(8), r.Remaining())
}
