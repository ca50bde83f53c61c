package container

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/vqz/codebook"
	"github.com/hupe1980/vqz/internal/compress"
)

const (
	// HeaderSize is the fixed size of the container header in bytes.
	HeaderSize = 76

	// Version is the current format version.
	Version = 1

	// checksumOffset is where the CRC32C field starts; the checksum covers
	// the header bytes before it.
	checksumOffset = 72

	// maxCodebookBytes bounds the decoded codebook section.
	maxCodebookBytes = 1 << 30
)

// Magic identifies a container.
var Magic = [4]byte{'V', 'Q', 'Z', 0x01}

// Flag bits.
const (
	// FlagEmbeddedCodebook is set when the codebook section holds the codebook.
	FlagEmbeddedCodebook uint8 = 1 << 0

	knownFlags = FlagEmbeddedCodebook
)

// Header is the fixed-size container header.
type Header struct {
	Version     uint16        // byte offset 4-5
	Flags       uint8         // byte offset 6
	Compression compress.Type // byte offset 7
	OrigLen     uint64        // byte offset 8-15
	BlockLen    uint32        // byte offset 16-19
	Dim         uint32        // byte offset 20-23
	K           uint32        // byte offset 24-27
	Symbols     uint64        // byte offset 28-35
	Bits        uint64        // byte offset 36-43
	CodebookID  uint64        // byte offset 44-51
	TransformID uint64        // byte offset 52-59
	CodebookLen uint32        // byte offset 60-63
	TableLen    uint32        // byte offset 64-67
	StreamLen   uint32        // byte offset 68-71
	Checksum    uint32        // byte offset 72-75
}

// Embedded reports whether the codebook is stored inside the container.
func (h *Header) Embedded() bool { return h.Flags&FlagEmbeddedCodebook != 0 }

// Bytes serializes the header.
func (h *Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:4], Magic[:])
	binary.LittleEndian.PutUint16(b[4:6], h.Version)
	b[6] = h.Flags
	b[7] = uint8(h.Compression)
	binary.LittleEndian.PutUint64(b[8:16], h.OrigLen)
	binary.LittleEndian.PutUint32(b[16:20], h.BlockLen)
	binary.LittleEndian.PutUint32(b[20:24], h.Dim)
	binary.LittleEndian.PutUint32(b[24:28], h.K)
	binary.LittleEndian.PutUint64(b[28:36], h.Symbols)
	binary.LittleEndian.PutUint64(b[36:44], h.Bits)
	binary.LittleEndian.PutUint64(b[44:52], h.CodebookID)
	binary.LittleEndian.PutUint64(b[52:60], h.TransformID)
	binary.LittleEndian.PutUint32(b[60:64], h.CodebookLen)
	binary.LittleEndian.PutUint32(b[64:68], h.TableLen)
	binary.LittleEndian.PutUint32(b[68:72], h.StreamLen)
	binary.LittleEndian.PutUint32(b[72:76], h.Checksum)
	return b
}

// Parse parses the header from data, which must be at least HeaderSize bytes.
// Only the magic, version, flags and compression type are validated; see
// Validate for the structural invariants.
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: %d bytes is shorter than the %d-byte header", ErrCorrupt, len(data), HeaderSize)
	}
	if [4]byte(data[0:4]) != Magic {
		return fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[0:4])
	}

	h.Version = binary.LittleEndian.Uint16(data[4:6])
	h.Flags = data[6]
	h.Compression = compress.Type(data[7])
	h.OrigLen = binary.LittleEndian.Uint64(data[8:16])
	h.BlockLen = binary.LittleEndian.Uint32(data[16:20])
	h.Dim = binary.LittleEndian.Uint32(data[20:24])
	h.K = binary.LittleEndian.Uint32(data[24:28])
	h.Symbols = binary.LittleEndian.Uint64(data[28:36])
	h.Bits = binary.LittleEndian.Uint64(data[36:44])
	h.CodebookID = binary.LittleEndian.Uint64(data[44:52])
	h.TransformID = binary.LittleEndian.Uint64(data[52:60])
	h.CodebookLen = binary.LittleEndian.Uint32(data[60:64])
	h.TableLen = binary.LittleEndian.Uint32(data[64:68])
	h.StreamLen = binary.LittleEndian.Uint32(data[68:72])
	h.Checksum = binary.LittleEndian.Uint32(data[72:76])

	if h.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupt, h.Version)
	}
	if h.Flags&^knownFlags != 0 {
		return fmt.Errorf("%w: unknown flags %#x", ErrCorrupt, h.Flags)
	}
	if !h.Compression.Valid() {
		return fmt.Errorf("%w: unknown codebook compression %d", ErrCorrupt, uint8(h.Compression))
	}
	return nil
}

// ParseHeader parses and validates a header from the start of data.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if err := h.Parse(data); err != nil {
		return Header{}, err
	}
	if err := h.Validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Size returns the total container size the header declares.
func (h *Header) Size() uint64 {
	return HeaderSize + uint64(h.CodebookLen) + uint64(h.TableLen) + uint64(h.StreamLen)
}

// RawCodebookLen returns the uncompressed codebook section size, K*D*4.
func (h *Header) RawCodebookLen() uint64 {
	return uint64(h.K) * uint64(h.Dim) * 4
}

// Validate checks the structural invariants between header fields.
func (h *Header) Validate() error {
	if h.BlockLen == 0 || h.Dim == 0 || h.K == 0 {
		return fmt.Errorf("%w: block_len=%d dim=%d k=%d", ErrCorrupt, h.BlockLen, h.Dim, h.K)
	}
	if h.K > codebook.MaxSize {
		return fmt.Errorf("%w: k=%d exceeds %d", ErrCorrupt, h.K, codebook.MaxSize)
	}
	if h.RawCodebookLen() > maxCodebookBytes {
		return fmt.Errorf("%w: codebook of %d x %d exceeds %d bytes", ErrCorrupt, h.K, h.Dim, maxCodebookBytes)
	}
	if h.OrigLen == 0 {
		return fmt.Errorf("%w: zero original length", ErrCorrupt)
	}
	if want := (h.OrigLen-1)/uint64(h.BlockLen) + 1; h.Symbols != want {
		return fmt.Errorf("%w: %d symbols for %d bytes in blocks of %d, expected %d",
			ErrCorrupt, h.Symbols, h.OrigLen, h.BlockLen, want)
	}
	if want := (h.Bits + 7) / 8; uint64(h.StreamLen) != want {
		return fmt.Errorf("%w: stream length %d for %d bits, expected %d", ErrCorrupt, h.StreamLen, h.Bits, want)
	}
	// Every code is between 1 and 64 bits long.
	if h.Bits < h.Symbols || (h.Bits+63)/64 > h.Symbols {
		return fmt.Errorf("%w: %d bits cannot hold %d symbols", ErrCorrupt, h.Bits, h.Symbols)
	}
	if h.TableLen < 4 {
		return fmt.Errorf("%w: table length %d", ErrCorrupt, h.TableLen)
	}

	if !h.Embedded() {
		if h.CodebookLen != 0 {
			return fmt.Errorf("%w: external codebook with %d-byte section", ErrCorrupt, h.CodebookLen)
		}
		return nil
	}
	if h.CodebookLen == 0 {
		return fmt.Errorf("%w: embedded codebook section is empty", ErrCorrupt)
	}
	if h.Compression == compress.None && uint64(h.CodebookLen) != h.RawCodebookLen() {
		return fmt.Errorf("%w: codebook section %d bytes, expected %d", ErrCorrupt, h.CodebookLen, h.RawCodebookLen())
	}
	return nil
}
