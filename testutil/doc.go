// Package testutil provides deterministic data generators for tests and
// benchmarks.
//
// # Payloads
//
//	rng := testutil.NewRNG(seed)
//	noise := rng.Bytes(4096)                 // incompressible
//	text := rng.Text(4096)                   // low-entropy ASCII
//	tiled := testutil.RepeatBlock(block, 10) // identical blocks
//
// # Latent vectors and symbols
//
//	vecs := rng.ClusteredVectors(1000, 16, 8, 0.05)
//	syms := rng.ZipfSymbols(10000, 256, 1.2)
package testutil
