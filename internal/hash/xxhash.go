package hash

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns the 64-bit xxHash of data.
func Fingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// FingerprintFloats hashes the little-endian IEEE-754 encoding of values,
// prefixed by the given shape. Every slice is prefixed by its length so that
// moving values between adjacent slices changes the fingerprint.
func FingerprintFloats(shape []int, values ...[]float32) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, s := range shape {
		binary.LittleEndian.PutUint64(buf[:], uint64(s))
		_, _ = d.Write(buf[:])
	}
	for _, vs := range values {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(vs)))
		_, _ = d.Write(buf[:])
		for _, v := range vs {
			binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(v))
			_, _ = d.Write(buf[:4])
		}
	}
	return d.Sum64()
}

// FingerprintFloat64s is FingerprintFloats for float64 values, seeded with
// a kind string so different parameter families never collide by layout.
func FingerprintFloat64s(kind string, shape []int, values ...[]float64) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(kind)
	var buf [8]byte
	for _, s := range shape {
		binary.LittleEndian.PutUint64(buf[:], uint64(s))
		_, _ = d.Write(buf[:])
	}
	for _, vs := range values {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(vs)))
		_, _ = d.Write(buf[:])
		for _, v := range vs {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = d.Write(buf[:])
		}
	}
	return d.Sum64()
}
