// Package blobstore provides storage abstraction for persisted vqz artifacts
// (containers and externally stored codebooks).
//
// Artifacts are immutable: they are written once with Put and read back with
// Open. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral use
//   - LocalStore: local filesystem with atomic rename-on-write
//   - minio.Store: MinIO and S3-compatible storage
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Open must return an error satisfying errors.Is(err, ErrNotFound) when the
// blob does not exist.
package blobstore
