// Package distance provides vector distance calculations for latent vectors.
//
// The kernels are plain scalar loops with a fixed summation order, so the
// same inputs always produce bit-identical results on every platform. The
// quantizer relies on this to make nearest-centroid assignment reproducible.
//
// # Usage
//
//	dist := distance.SquaredL2(a, b)
package distance
