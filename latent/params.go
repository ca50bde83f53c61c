package latent

import (
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/vqz/codec"
)

// LoadParams reads Linear parameters from r using c (codec.Default when nil).
func LoadParams(r io.Reader, c codec.Codec) (Params, error) {
	if c == nil {
		c = codec.Default
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Params{}, fmt.Errorf("latent: read params: %w", err)
	}
	var p Params
	if err := c.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("%w: decode %s: %v", ErrInvalidParams, c.Name(), err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// WriteParams encodes p to w using c (codec.Default when nil).
func WriteParams(w io.Writer, p Params, c codec.Codec) error {
	if c == nil {
		c = codec.Default
	}
	data, err := c.Marshal(p)
	if err != nil {
		return fmt.Errorf("latent: encode params: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// OpenLinear loads a Linear transform from a parameter file. The codec is
// picked from the file extension.
func OpenLinear(path string) (*Linear, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := LoadParams(f, codec.ForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewLinear(p)
}
