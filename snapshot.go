package percolator

import (
	"context"
	"errors"

	"github.com/hupe1980/percolator/blobstore"
	"github.com/hupe1980/percolator/registry"
	"github.com/hupe1980/percolator/resource"
)

var errNilStore = errors.New("percolator: nil blob store")

// SaveSnapshot persists the registry to store under name. Transfers are
// throttled by the configured IO limit.
func (p *Percolator) SaveSnapshot(ctx context.Context, store blobstore.Store, name string, optFns ...registry.SaveOption) (registry.SaveStats, error) {
	if p.closed.Load() {
		return registry.SaveStats{}, ErrClosed
	}
	if store == nil {
		return registry.SaveStats{}, errNilStore
	}
	stats, err := p.registry.Save(ctx, &throttledStore{Store: store, rc: p.resources}, name, optFns...)
	p.logger.LogSnapshot(ctx, "save", name, stats.Saved, err)
	return stats, err
}

// LoadSnapshot registers every query of the snapshot stored under name.
func (p *Percolator) LoadSnapshot(ctx context.Context, store blobstore.Store, name string) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	if store == nil {
		return 0, errNilStore
	}
	n, err := p.registry.Load(ctx, &throttledStore{Store: store, rc: p.resources}, name)
	p.logger.LogSnapshot(ctx, "load", name, n, err)
	return n, err
}

// throttledStore applies the IO limit of a resource controller to blob
// transfers.
type throttledStore struct {
	blobstore.Store
	rc *resource.Controller
}

func (s *throttledStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.Store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.rc.AcquireIO(ctx, len(data)); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *throttledStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	return s.Store.Put(ctx, name, data)
}
