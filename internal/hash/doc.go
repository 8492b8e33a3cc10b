// Package hash provides the CRC32-Castagnoli checksum used for shard routing
// in the registry, snapshot integrity and S3 upload checksums.
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For streaming checksums:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
package hash
