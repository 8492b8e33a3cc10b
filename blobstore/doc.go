// Package blobstore provides the storage abstraction for registry snapshots.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral registries
//   - LocalStore: local filesystem with atomic replace
//   - s3.Store: Amazon S3 with multipart uploads for large snapshots
//   - minio.Store: MinIO and other S3-compatible object stores
//   - badger.Store: embedded Badger key-value store
//
// # Custom Implementations
//
// Implement the Store interface to support other backends:
//
//	type Store interface {
//	    Get(ctx, name) ([]byte, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
