package registry

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/percolator/blobstore"
	"github.com/hupe1980/percolator/codec"
	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/internal/hash"
	"github.com/hupe1980/percolator/query"
)

var (
	// ErrNotPersistable is returned by Save for queries that were registered
	// without a query.Definition.
	ErrNotPersistable = errors.New("registry: query not persistable")
	// ErrCorruptSnapshot is returned by Load for malformed snapshots.
	ErrCorruptSnapshot = errors.New("registry: corrupt snapshot")
)

// Snapshot format:
//
//	[magic "PRCS"][version u8]
//	[codec name len u8][codec name][compression name len u8][compression name]
//	[crc32c u32 of payload][payload]
//
// The payload is the compressed, codec-encoded snapshotBody.
const (
	snapshotMagic   = "PRCS"
	snapshotVersion = 1
)

type snapshotRecord struct {
	ID         string            `json:"id"`
	Definition query.Definition  `json:"definition"`
	Metadata   document.Document `json:"metadata,omitempty"`
}

type snapshotBody struct {
	Records []snapshotRecord `json:"records"`
}

// SaveOption configures Save.
type SaveOption func(*saveOptions)

type saveOptions struct {
	codec       codec.Codec
	compression codec.Compression
	skip        bool
}

// WithCodec sets the payload codec. Defaults to codec.Default.
func WithCodec(c codec.Codec) SaveOption {
	return func(o *saveOptions) { o.codec = c }
}

// WithCompression sets the payload compression. Defaults to codec.DefaultCompression.
func WithCompression(c codec.Compression) SaveOption {
	return func(o *saveOptions) { o.compression = c }
}

// SkipNonPersistable skips queries without a definition instead of failing.
func SkipNonPersistable() SaveOption {
	return func(o *saveOptions) { o.skip = true }
}

// SaveStats reports what Save wrote.
type SaveStats struct {
	Saved   int
	Skipped int
	Bytes   int
}

// Save writes the registered query definitions and metadata to store.
func (r *Registry) Save(ctx context.Context, store blobstore.Store, name string, optFns ...SaveOption) (SaveStats, error) {
	o := saveOptions{
		codec:       codec.Default,
		compression: codec.DefaultCompression,
	}
	for _, fn := range optFns {
		fn(&o)
	}

	var (
		stats SaveStats
		body  snapshotBody
		err   error
	)
	r.Range(func(e Entry) bool {
		if e.Definition == nil {
			if !o.skip {
				err = fmt.Errorf("%w: %q", ErrNotPersistable, e.ID)
				return false
			}
			stats.Skipped++
			return true
		}
		body.Records = append(body.Records, snapshotRecord{
			ID:         e.ID,
			Definition: *e.Definition,
			Metadata:   e.Metadata,
		})
		return true
	})
	if err != nil {
		return stats, err
	}

	data, err := encodeSnapshot(body, o.codec, o.compression)
	if err != nil {
		return stats, err
	}
	if err := store.Put(ctx, name, data); err != nil {
		return stats, fmt.Errorf("registry: save %s: %w", name, err)
	}

	stats.Saved = len(body.Records)
	stats.Bytes = len(data)
	r.logger.Info("registry snapshot saved",
		"name", name,
		"saved", stats.Saved,
		"skipped", stats.Skipped,
		"bytes", stats.Bytes,
		"codec", o.codec.Name(),
		"compression", o.compression.Name(),
	)
	return stats, nil
}

// Load reads a snapshot from store and registers its queries. Existing
// queries with the same identifiers are replaced. It returns the number of
// loaded queries.
func (r *Registry) Load(ctx context.Context, store blobstore.Store, name string) (int, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("registry: load %s: %w", name, err)
	}

	body, err := decodeSnapshot(data)
	if err != nil {
		return 0, fmt.Errorf("registry: load %s: %w", name, err)
	}

	for _, rec := range body.Records {
		if err := r.RegisterDefinition(rec.ID, rec.Definition, rec.Metadata); err != nil {
			return 0, fmt.Errorf("registry: load %s: %w", name, err)
		}
	}

	r.logger.Info("registry snapshot loaded", "name", name, "queries", len(body.Records))
	return len(body.Records), nil
}

func encodeSnapshot(body snapshotBody, c codec.Codec, comp codec.Compression) ([]byte, error) {
	raw, err := c.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("registry: encode snapshot: %w", err)
	}
	payload, err := comp.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("registry: compress snapshot: %w", err)
	}

	codecName, compName := c.Name(), comp.Name()
	out := make([]byte, 0, len(snapshotMagic)+1+1+len(codecName)+1+len(compName)+4+len(payload))
	out = append(out, snapshotMagic...)
	out = append(out, snapshotVersion)
	out = append(out, byte(len(codecName)))
	out = append(out, codecName...)
	out = append(out, byte(len(compName)))
	out = append(out, compName...)
	out = binary.LittleEndian.AppendUint32(out, hash.CRC32C(payload))
	out = append(out, payload...)
	return out, nil
}

func decodeSnapshot(data []byte) (snapshotBody, error) {
	var body snapshotBody

	if len(data) < len(snapshotMagic)+1 || string(data[:len(snapshotMagic)]) != snapshotMagic {
		return body, fmt.Errorf("%w: bad magic", ErrCorruptSnapshot)
	}
	data = data[len(snapshotMagic):]
	if data[0] != snapshotVersion {
		return body, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, data[0])
	}
	data = data[1:]

	codecName, data, err := readName(data)
	if err != nil {
		return body, err
	}
	compName, data, err := readName(data)
	if err != nil {
		return body, err
	}
	if len(data) < 4 {
		return body, fmt.Errorf("%w: missing checksum", ErrCorruptSnapshot)
	}
	sum := binary.LittleEndian.Uint32(data)
	payload := data[4:]
	if hash.CRC32C(payload) != sum {
		return body, fmt.Errorf("%w: checksum mismatch", ErrCorruptSnapshot)
	}

	c, ok := codec.ByName(codecName)
	if !ok {
		return body, fmt.Errorf("%w: unknown codec %q", ErrCorruptSnapshot, codecName)
	}
	comp, err := codec.CompressionByName(compName)
	if err != nil {
		return body, err
	}

	raw, err := comp.Decompress(payload)
	if err != nil {
		return body, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if err := c.Unmarshal(raw, &body); err != nil {
		return body, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return body, nil
}

func readName(data []byte) (string, []byte, error) {
	if len(data) < 1 || len(data) < 1+int(data[0]) {
		return "", nil, fmt.Errorf("%w: truncated header", ErrCorruptSnapshot)
	}
	n := int(data[0])
	return string(data[1 : 1+n]), data[1+n:], nil
}
