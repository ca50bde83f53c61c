// Package compress provides the block compressors available for container
// sections.
//
// Every block is compressed independently and decompressed against a known
// raw size, so no framing is added around the compressed bytes.
package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies a compression algorithm. The values are persisted.
type Type uint8

const (
	// None stores the block verbatim.
	None Type = 1
	// Zstd is Zstandard (better ratio, good for cold data).
	Zstd Type = 2
	// S2 is the Snappy-compatible S2 format (fast).
	S2 Type = 3
	// LZ4 is LZ4 block compression (fast, good for hot data).
	LZ4 Type = 4
)

// ErrCorrupt is returned when a compressed block cannot be decoded to its
// declared size.
var ErrCorrupt = errors.New("compress: corrupt block")

// ErrUnknownType is returned for an unrecognized Type.
var ErrUnknownType = errors.New("compress: unknown compression type")

// String returns the name of the type.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case S2:
		return "s2"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	return t >= None && t <= LZ4
}

// ParseType parses a type name as returned by String.
func ParseType(s string) (Type, error) {
	switch s {
	case "", "none":
		return None, nil
	case "zstd":
		return Zstd, nil
	case "s2":
		return S2, nil
	case "lz4":
		return LZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderCRC(false))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

// minSavings is the fraction a compressor must shave off to be worth keeping.
const minSavings = 0.1

// Compress compresses data with t. When compression does not reduce the size
// by at least 10% the data is returned verbatim with type None. The returned
// type is the one that must be recorded for decompression.
func Compress(t Type, data []byte) ([]byte, Type, error) {
	if t == None || len(data) == 0 {
		return data, None, nil
	}

	var out []byte
	switch t {
	case Zstd:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	case S2:
		out = s2.Encode(nil, data)
	case LZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("compress: lz4: %w", err)
		}
		// n == 0 means incompressible.
		out = dst[:n]
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownType, uint8(t))
	}

	if len(out) == 0 || float64(len(out)) > float64(len(data))*(1-minSavings) {
		return data, None, nil
	}
	return out, t, nil
}

// Decompress decodes data compressed with t into exactly rawSize bytes.
func Decompress(t Type, data []byte, rawSize int) ([]byte, error) {
	if rawSize < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrCorrupt, rawSize)
	}

	switch t {
	case None:
		if len(data) != rawSize {
			return nil, fmt.Errorf("%w: stored block has %d bytes, expected %d", ErrCorrupt, len(data), rawSize)
		}
		return data, nil

	case Zstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		decoded, err := dec.DecodeAll(data, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		if len(decoded) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return decoded, nil

	case S2:
		n, err := s2.DecodedLen(data)
		if err != nil {
			return nil, fmt.Errorf("%w: s2: %v", ErrCorrupt, err)
		}
		if n != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		decoded, err := s2.Decode(make([]byte, rawSize), data)
		if err != nil {
			return nil, fmt.Errorf("%w: s2: %v", ErrCorrupt, err)
		}
		return decoded, nil

	case LZ4:
		result := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(data, result)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
		}
		if n != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, uint8(t))
	}
}
