// Package fs provides the filesystem abstraction behind the local blob store.
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test wrapper that injects write, sync and rename failures
//
// [WriteFileAtomic] writes through a temporary file, syncs it and renames it
// into place, so readers never observe a partially written snapshot.
package fs
