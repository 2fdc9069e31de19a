package replay

import (
	"context"
	"errors"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/tuannm99/novabuf/internal/bufferpool"
	"github.com/tuannm99/novabuf/internal/storage"
)

type Result struct {
	Policy bufferpool.Policy
	Stats  bufferpool.PoolStats
	// Stalls counts gets that failed because every frame was pinned.
	Stalls uint64
}

func (r Result) HitRatio() float64 {
	total := r.Stats.Hits + r.Stats.Misses
	if total == 0 {
		return 0
	}
	return float64(r.Stats.Hits) / float64(total)
}

// StoreFactory hands each replayed policy its own backing store.
type StoreFactory func(policy bufferpool.Policy) (bufferpool.PageStore, error)

// MemStores returns a factory of in-memory stores.
func MemStores(pageSize int) StoreFactory {
	return func(bufferpool.Policy) (bufferpool.PageStore, error) {
		return bufferpool.NewMemStore(pageSize), nil
	}
}

// FileStores returns a factory of segment-file stores, one directory per
// policy under dir.
func FileStores(dir string, pageSize int) StoreFactory {
	return func(policy bufferpool.Policy) (bufferpool.PageStore, error) {
		fs := storage.LocalFileSet{Dir: filepath.Join(dir, string(policy)), Base: "pages"}
		return storage.NewFileStore(fs, pageSize)
	}
}

// Run replays ops against a fresh pool on top of store.
func Run(ops []Op, opts bufferpool.Options, store bufferpool.PageStore) (Result, error) {
	pool, err := bufferpool.NewPool(store, opts)
	if err != nil {
		return Result{}, err
	}

	res := Result{Policy: opts.Policy}
	for _, op := range ops {
		switch op.Kind {
		case OpGet:
			_, err = pool.FetchPage(op.PageID, op.Access)
			if errors.Is(err, bufferpool.ErrNoFreeFrame) {
				res.Stalls++
				err = nil
			}
		case OpPut:
			err = pool.UnpinPage(op.PageID, false)
		case OpDirty:
			err = pool.UnpinPage(op.PageID, true)
		case OpDrop:
			err = pool.DeletePage(op.PageID)
		}
		// A put for a page whose get stalled is expected in a trace.
		if errors.Is(err, bufferpool.ErrPageNotResident) || errors.Is(err, bufferpool.ErrPageNotPinned) {
			err = nil
		}
		if err != nil {
			return res, err
		}
	}
	if err := pool.FlushAll(); err != nil {
		return res, err
	}

	res.Stats = pool.Stats()
	return res, nil
}

// Compare replays ops once per policy, concurrently. Results keep the order
// of policies.
func Compare(ctx context.Context, ops []Op, policies []bufferpool.Policy, base bufferpool.Options, stores StoreFactory) ([]Result, error) {
	results := make([]Result, len(policies))
	g, ctx := errgroup.WithContext(ctx)
	for i, policy := range policies {
		i, policy := i, policy
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			opts := base
			opts.Policy = policy

			store, err := stores(policy)
			if err != nil {
				return err
			}
			res, err := Run(ops, opts, store)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
