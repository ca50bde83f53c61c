// Package hash provides checksums and fingerprints for vqz artifacts.
//
// # CRC32-Castagnoli (CRC32C)
//
// Container integrity is protected with CRC32C, which is hardware
// accelerated on x86 (SSE4.2) and ARM (CRC extension):
//
//	checksum := hash.CRC32C(data)
//
// # Fingerprints
//
// Codebooks, transforms and stored artifacts are identified by 64-bit
// xxHash fingerprints. A fingerprint identifies content; it is not a
// security primitive.
//
//	id := hash.Fingerprint(codebookBytes)
package hash
