// Package archive persists compressed containers and their codebooks in a
// blobstore.BlobStore under content-addressed names.
//
// Layout:
//
//	containers/<16 hex>.vqz   container bytes, named by their xxhash64
//	codebooks/<16 hex>.vqcb   codebook.MarshalBinary output, named by codebook ID
//
// Every object is immutable; writing the same content twice is a no-op in
// effect. Transient store failures are retried with exponential backoff and
// decoded codebooks are cached in memory.
package archive
