package latent

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/vqz/internal/hash"
)

// Params are the learned parameters of a Linear transform.
//
// Encoder is a Dim x BlockLen matrix and Decoder a BlockLen x Dim matrix,
// both row-major. Biases are optional.
type Params struct {
	BlockLen    int       `json:"block_len" yaml:"block_len"`
	Dim         int       `json:"dim" yaml:"dim"`
	Encoder     []float64 `json:"encoder" yaml:"encoder"`
	EncoderBias []float64 `json:"encoder_bias,omitempty" yaml:"encoder_bias,omitempty"`
	Decoder     []float64 `json:"decoder" yaml:"decoder"`
	DecoderBias []float64 `json:"decoder_bias,omitempty" yaml:"decoder_bias,omitempty"`
}

// Validate checks the parameter shapes and values.
func (p Params) Validate() error {
	if p.BlockLen <= 0 || p.Dim <= 0 {
		return fmt.Errorf("%w: block_len=%d dim=%d", ErrInvalidParams, p.BlockLen, p.Dim)
	}
	n := p.BlockLen * p.Dim
	if len(p.Encoder) != n {
		return fmt.Errorf("%w: encoder has %d weights, expected %d", ErrInvalidParams, len(p.Encoder), n)
	}
	if len(p.Decoder) != n {
		return fmt.Errorf("%w: decoder has %d weights, expected %d", ErrInvalidParams, len(p.Decoder), n)
	}
	if len(p.EncoderBias) != 0 && len(p.EncoderBias) != p.Dim {
		return fmt.Errorf("%w: encoder bias has %d values, expected %d", ErrInvalidParams, len(p.EncoderBias), p.Dim)
	}
	if len(p.DecoderBias) != 0 && len(p.DecoderBias) != p.BlockLen {
		return fmt.Errorf("%w: decoder bias has %d values, expected %d", ErrInvalidParams, len(p.DecoderBias), p.BlockLen)
	}
	for _, vs := range [][]float64{p.Encoder, p.EncoderBias, p.Decoder, p.DecoderBias} {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite weight", ErrInvalidParams)
			}
		}
	}
	return nil
}

// Linear is an affine transform: latent = E·x + a, block = W·z + b.
type Linear struct {
	name        string
	blockLen    int
	dim         int
	enc         *mat.Dense
	encBias     []float64
	dec         *mat.Dense
	decBias     []float64
	fingerprint uint64
}

// NewLinear creates a Linear transform. The parameters are copied.
func NewLinear(p Params) (*Linear, error) {
	return newLinear("linear", p)
}

func newLinear(name string, p Params) (*Linear, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	l := &Linear{
		name:     name,
		blockLen: p.BlockLen,
		dim:      p.Dim,
		enc:      mat.NewDense(p.Dim, p.BlockLen, append([]float64(nil), p.Encoder...)),
		dec:      mat.NewDense(p.BlockLen, p.Dim, append([]float64(nil), p.Decoder...)),
		encBias:  append([]float64(nil), p.EncoderBias...),
		decBias:  append([]float64(nil), p.DecoderBias...),
	}
	l.fingerprint = hash.FingerprintFloat64s("linear", []int{p.BlockLen, p.Dim},
		p.Encoder, p.EncoderBias, p.Decoder, p.DecoderBias)
	return l, nil
}

// Name implements Transform.
func (l *Linear) Name() string { return l.name }

// BlockLen implements Transform.
func (l *Linear) BlockLen() int { return l.blockLen }

// Dim implements Transform.
func (l *Linear) Dim() int { return l.dim }

// Fingerprint implements Transform.
func (l *Linear) Fingerprint() uint64 { return l.fingerprint }

// Encode implements Transform.
func (l *Linear) Encode(block []float32) ([]float32, error) {
	if err := checkWidth("block", len(block), l.blockLen); err != nil {
		return nil, err
	}
	return affine(l.enc, block, l.encBias, l.dim), nil
}

// Decode implements Transform.
func (l *Linear) Decode(latent []float32) ([]float32, error) {
	if err := checkWidth("latent vector", len(latent), l.dim); err != nil {
		return nil, err
	}
	return affine(l.dec, latent, l.decBias, l.blockLen), nil
}

// Params returns a copy of the transform parameters.
func (l *Linear) Params() Params {
	return Params{
		BlockLen:    l.blockLen,
		Dim:         l.dim,
		Encoder:     append([]float64(nil), l.enc.RawMatrix().Data...),
		EncoderBias: append([]float64(nil), l.encBias...),
		Decoder:     append([]float64(nil), l.dec.RawMatrix().Data...),
		DecoderBias: append([]float64(nil), l.decBias...),
	}
}

func affine(m *mat.Dense, in []float32, bias []float64, rows int) []float32 {
	x := mat.NewVecDense(len(in), nil)
	for i, v := range in {
		x.SetVec(i, float64(v))
	}

	var y mat.VecDense
	y.MulVec(m, x)

	out := make([]float32, rows)
	for i := range out {
		v := y.AtVec(i)
		if len(bias) > 0 {
			v += bias[i]
		}
		out[i] = float32(v)
	}
	return out
}
