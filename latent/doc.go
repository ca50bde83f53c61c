// Package latent maps fixed-length raw blocks to fixed-width latent vectors
// and back.
//
// A Transform is a fixed, pre-trained component: its parameters are supplied
// at construction and never change. Encode and Decode are deterministic,
// depend only on the block passed in, and are safe for concurrent use, so
// blocks can be processed in parallel.
//
// Three transforms are provided:
//
//   - Linear: a learned affine encoder/decoder pair loaded from Params.
//   - DCT: an orthonormal DCT-II basis truncated to the first D coefficients,
//     the default when no trained model is supplied.
//   - Identity: D = L, useful for tests and near-lossless operation.
//
// The transform stage is lossy. Decode(Encode(b)) approximates b; callers
// must not assume bit-exact reconstruction.
//
// Framing between bytes and samples is handled by Preprocess and Postprocess:
// byte b becomes sample b/255 and the inverse rounds and clamps to [0, 255].
package latent
