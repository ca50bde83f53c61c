// Package quantization implements vector quantization against a codebook.
//
// Encode replaces a latent vector with the index of its nearest centroid
// (squared Euclidean distance, ties resolved to the lowest index). Decode
// returns the centroid at an index unchanged, so for every in-range index i:
//
//	Encode(Decode(i, cb), cb) == i
//
// Building the codebook is a pluggable strategy behind the Trainer interface.
// KMeansTrainer is the default and is fully deterministic for a given seed:
//
//	trainer := quantization.KMeansTrainer{Seed: 42}
//	cb, err := trainer.Train(ctx, latents, 256)
//	symbols, _, err := quantization.EncodeBatch(ctx, latents, cb, 0)
package quantization
