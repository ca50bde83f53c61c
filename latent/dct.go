package latent

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DCTParams returns Linear parameters for an orthonormal DCT-II basis of
// length blockLen truncated to the first dim coefficients. The decoder is
// the transpose of the encoder, which is the least-squares inverse.
func DCTParams(blockLen, dim int) (Params, error) {
	if blockLen <= 0 || dim <= 0 || dim > blockLen {
		return Params{}, fmt.Errorf("%w: dct requires 0 < dim <= block_len, got block_len=%d dim=%d",
			ErrInvalidParams, blockLen, dim)
	}

	basis := mat.NewDense(dim, blockLen, nil)
	n := float64(blockLen)
	for k := 0; k < dim; k++ {
		scale := math.Sqrt(2 / n)
		if k == 0 {
			scale = math.Sqrt(1 / n)
		}
		for i := 0; i < blockLen; i++ {
			basis.Set(k, i, scale*math.Cos(math.Pi*(float64(i)+0.5)*float64(k)/n))
		}
	}

	var inv mat.Dense
	inv.CloneFrom(basis.T())

	return Params{
		BlockLen: blockLen,
		Dim:      dim,
		Encoder:  append([]float64(nil), basis.RawMatrix().Data...),
		Decoder:  append([]float64(nil), inv.RawMatrix().Data...),
	}, nil
}

// NewDCT creates a truncated DCT-II transform.
func NewDCT(blockLen, dim int) (*Linear, error) {
	p, err := DCTParams(blockLen, dim)
	if err != nil {
		return nil, err
	}
	return newLinear("dct", p)
}
