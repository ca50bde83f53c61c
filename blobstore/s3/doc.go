// Package s3 provides an Amazon S3 implementation of the blobstore.BlobStore
// interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("vqz/"),
//	    s3.WithRegion("us-east-1"),
//	)
//	arc := archive.New(store)
//
// # Features
//
//   - Range reads for partial fetches
//   - CRC32C-checked single-request puts for small artifacts
//   - Multipart uploads for large artifacts
//   - Automatic pagination for listing
package s3
