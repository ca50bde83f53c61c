package latent

import (
	"fmt"

	"github.com/hupe1980/vqz/internal/hash"
)

// Identity passes blocks through unchanged (D = L).
type Identity struct {
	blockLen int
}

// NewIdentity creates an identity transform over blocks of blockLen samples.
func NewIdentity(blockLen int) (*Identity, error) {
	if blockLen <= 0 {
		return nil, fmt.Errorf("%w: block_len=%d", ErrInvalidParams, blockLen)
	}
	return &Identity{blockLen: blockLen}, nil
}

// Name implements Transform.
func (t *Identity) Name() string { return "identity" }

// BlockLen implements Transform.
func (t *Identity) BlockLen() int { return t.blockLen }

// Dim implements Transform.
func (t *Identity) Dim() int { return t.blockLen }

// Fingerprint implements Transform.
func (t *Identity) Fingerprint() uint64 {
	return hash.FingerprintFloat64s("identity", []int{t.blockLen, t.blockLen})
}

// Encode implements Transform.
func (t *Identity) Encode(block []float32) ([]float32, error) {
	if err := checkWidth("block", len(block), t.blockLen); err != nil {
		return nil, err
	}
	return append([]float32(nil), block...), nil
}

// Decode implements Transform.
func (t *Identity) Decode(latent []float32) ([]float32, error) {
	if err := checkWidth("latent vector", len(latent), t.blockLen); err != nil {
		return nil, err
	}
	return append([]float32(nil), latent...), nil
}
