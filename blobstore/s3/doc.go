// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "percolator/")
//	err = registry.Save(ctx, store, "queries.snap")
//
// Small blobs are written with a single PutObject carrying a CRC32C checksum.
// Blobs larger than the upload part size go through the multipart uploader.
package s3
