package container

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vqz/codebook"
	"github.com/hupe1980/vqz/huffman"
	"github.com/hupe1980/vqz/internal/compress"
	"github.com/hupe1980/vqz/internal/conv"
	"github.com/hupe1980/vqz/internal/hash"
)

var (
	// ErrCorrupt is returned when a container is truncated, oversized or
	// internally inconsistent.
	ErrCorrupt = errors.New("container: corrupt container")

	// ErrCodebookMismatch is returned when a codebook supplied for an
	// external-codebook container has a different fingerprint.
	ErrCodebookMismatch = errors.New("container: codebook fingerprint mismatch")

	// ErrNoCodebook is returned when a codebook is required but not attached.
	ErrNoCodebook = errors.New("container: no codebook attached")
)

// Container is a decoded compression artifact.
type Container struct {
	Header Header

	// Codebook is nil after Unmarshal of an external-codebook container until
	// AttachCodebook is called.
	Codebook *codebook.Codebook
	Table    *huffman.Table
	Stream   []byte
}

// Params describe the artifact being written.
type Params struct {
	OrigLen     uint64
	BlockLen    int
	TransformID uint64
	Symbols     uint64
	Bits        uint64

	// External stores only the codebook fingerprint; the codebook itself
	// must be persisted separately.
	External bool

	// Compression is applied to the codebook section when it helps.
	Compression compress.Type
}

// Marshal writes a container holding cb, the code table and the packed stream.
func Marshal(p Params, cb *codebook.Codebook, table *huffman.Table, stream []byte) ([]byte, error) {
	if cb == nil {
		return nil, ErrNoCodebook
	}
	if table.Alphabet() != cb.K() {
		return nil, fmt.Errorf("container: table alphabet %d does not match k=%d", table.Alphabet(), cb.K())
	}

	blockLen, err := conv.IntToUint32(p.BlockLen)
	if err != nil {
		return nil, fmt.Errorf("container: block length: %w", err)
	}
	dim, err := conv.IntToUint32(cb.Dim())
	if err != nil {
		return nil, fmt.Errorf("container: dim: %w", err)
	}
	streamLen, err := conv.IntToUint32(len(stream))
	if err != nil {
		return nil, fmt.Errorf("container: stream length: %w", err)
	}

	h := Header{
		Version:     Version,
		Compression: compress.None,
		OrigLen:     p.OrigLen,
		BlockLen:    blockLen,
		Dim:         dim,
		K:           uint32(cb.K()),
		Symbols:     p.Symbols,
		Bits:        p.Bits,
		CodebookID:  cb.ID(),
		TransformID: p.TransformID,
		StreamLen:   streamLen,
	}

	var cbSection []byte
	if !p.External {
		h.Flags |= FlagEmbeddedCodebook
		ctype := p.Compression
		if ctype == 0 {
			ctype = compress.None
		}
		cbSection, h.Compression, err = compress.Compress(ctype, cb.AppendRaw(make([]byte, 0, cb.RawSize())))
		if err != nil {
			return nil, fmt.Errorf("container: codebook section: %w", err)
		}
		if h.CodebookLen, err = conv.IntToUint32(len(cbSection)); err != nil {
			return nil, fmt.Errorf("container: codebook section: %w", err)
		}
	}

	tableSection, err := table.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if h.TableLen, err = conv.IntToUint32(len(tableSection)); err != nil {
		return nil, fmt.Errorf("container: table section: %w", err)
	}

	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("container: refusing to write invalid header: %w", err)
	}

	out := h.Bytes()
	h.Checksum = hash.CRC32CParts(out[:checksumOffset], cbSection, tableSection, stream)
	out = h.Bytes()

	out = append(out, cbSection...)
	out = append(out, tableSection...)
	out = append(out, stream...)
	return out, nil
}

// Unmarshal parses and validates a container. The returned container does
// not alias data.
func Unmarshal(data []byte) (*Container, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	if size := h.Size(); uint64(len(data)) != size {
		if uint64(len(data)) < size {
			return nil, fmt.Errorf("%w: truncated: %d bytes, header declares %d", ErrCorrupt, len(data), size)
		}
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, uint64(len(data))-size)
	}

	off := uint64(HeaderSize)
	cbSection := data[off : off+uint64(h.CodebookLen)]
	off += uint64(h.CodebookLen)
	tableSection := data[off : off+uint64(h.TableLen)]
	off += uint64(h.TableLen)
	stream := data[off : off+uint64(h.StreamLen)]

	if sum := hash.CRC32CParts(data[:checksumOffset], cbSection, tableSection, stream); sum != h.Checksum {
		return nil, fmt.Errorf("%w: checksum %08x, header declares %08x", ErrCorrupt, sum, h.Checksum)
	}

	c := &Container{
		Header: h,
		Stream: append([]byte(nil), stream...),
	}

	if h.Embedded() {
		raw, err := compress.Decompress(h.Compression, cbSection, int(h.RawCodebookLen()))
		if err != nil {
			return nil, fmt.Errorf("%w: codebook section: %w", ErrCorrupt, err)
		}
		cb, err := codebook.FromRaw(int(h.K), int(h.Dim), raw)
		if err != nil {
			return nil, fmt.Errorf("%w: codebook section: %w", ErrCorrupt, err)
		}
		if cb.ID() != h.CodebookID {
			return nil, fmt.Errorf("%w: embedded codebook fingerprint %016x, header declares %016x",
				ErrCorrupt, cb.ID(), h.CodebookID)
		}
		c.Codebook = cb
	}

	c.Table, err = huffman.UnmarshalTable(tableSection, int(h.K))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return c, nil
}

// AttachCodebook supplies the codebook for a container. It fails with a
// *codebook.ShapeError when K or D differ from the header and with
// ErrCodebookMismatch when the fingerprint differs.
func (c *Container) AttachCodebook(cb *codebook.Codebook) error {
	if cb == nil {
		return ErrNoCodebook
	}
	if err := cb.CheckShape(int(c.Header.K), int(c.Header.Dim)); err != nil {
		return err
	}
	if cb.ID() != c.Header.CodebookID {
		return fmt.Errorf("%w: got %016x, container expects %016x", ErrCodebookMismatch, cb.ID(), c.Header.CodebookID)
	}
	c.Codebook = cb
	return nil
}

// Symbols decodes the code symbol stream.
func (c *Container) Symbols() ([]uint32, error) {
	symbols, err := c.Table.Decode(c.Stream, c.Header.Bits, c.Header.Symbols)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return symbols, nil
}
