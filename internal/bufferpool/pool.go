package bufferpool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tuannm99/novabuf/pkg/lrukx"
)

var (
	DefaultCapacity = 128
	DefaultK        = 2

	ErrNoFreeFrame     = errors.New("bufferpool: no free frame available (all pinned)")
	ErrPagePinned      = errors.New("bufferpool: page is pinned")
	ErrPageNotResident = errors.New("bufferpool: page is not resident")
	ErrPageNotPinned   = errors.New("bufferpool: page is not pinned")
	ErrUnknownPolicy   = errors.New("bufferpool: unknown replacement policy")
)

type Frame struct {
	PageID uint32
	Data   []byte
	Dirty  bool
	Pin    int32
}

type Options struct {
	Capacity int
	Policy   Policy
	K        int
	Logger   *slog.Logger
}

type PoolStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Flushes   uint64
}

var _ Manager = (*Pool)(nil)

type Pool struct {
	store  PageStore
	logger *slog.Logger

	mu        sync.Mutex
	frames    []*Frame       // len == capacity, nil == free slot
	pageTable map[uint32]int // PageID -> frame index
	stats     PoolStats

	replacementPolicy Replacer
}

func NewPool(store PageStore, opts Options) (*Pool, error) {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.K <= 0 {
		opts.K = DefaultK
	}
	if opts.Policy == "" {
		opts.Policy = PolicyLRUK
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	repl, err := NewReplacer(opts.Policy, opts.Capacity, opts.K)
	if err != nil {
		return nil, err
	}

	return &Pool{
		store:             store,
		logger:            opts.Logger.With("component", "bufferpool", "policy", string(opts.Policy)),
		frames:            make([]*Frame, opts.Capacity),
		pageTable:         make(map[uint32]int),
		replacementPolicy: repl,
	}, nil
}

// FetchPage pins pageID, loading it from the store on a miss.
func (p *Pool) FetchPage(pageID uint32, at lrukx.AccessType) (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// 1) HIT
	if idx, ok := p.pageTable[pageID]; ok {
		f := p.frames[idx]
		if f == nil {
			// Inconsistent: mapping exists but frame is nil -> cleanup
			delete(p.pageTable, pageID)
		} else {
			p.stats.Hits++
			if err := p.replacementPolicy.RecordAccess(idx, at); err != nil {
				return nil, err
			}
			f.Pin++
			if f.Pin == 1 {
				if err := p.replacementPolicy.SetEvictable(idx, false); err != nil {
					return nil, err
				}
			}
			return f, nil
		}
	}
	p.stats.Misses++

	// 2) Find free slot
	freeIdx := -1
	for i, f := range p.frames {
		if f == nil {
			freeIdx = i
			break
		}
	}
	if freeIdx != -1 {
		data, err := p.store.ReadPage(pageID)
		if err != nil {
			return nil, err
		}
		return p.install(freeIdx, pageID, data, at)
	}

	// 3) Evict
	victimIdx, ok := p.replacementPolicy.Evict()
	if !ok {
		return nil, ErrNoFreeFrame
	}

	victim := p.frames[victimIdx]
	if victim == nil || victim.Pin != 0 {
		// Replacer and frame table disagree; do not hand out the slot.
		p.logger.Warn("bufferpool: replacer returned unusable victim", "frame", victimIdx)
		return nil, ErrNoFreeFrame
	}

	if victim.Dirty {
		if err := p.store.WritePage(victim.PageID, victim.Data); err != nil {
			p.logger.Warn("bufferpool: flush victim failed",
				"frame", victimIdx, "page", victim.PageID, "err", err)
			p.restoreVictim(victimIdx)
			return nil, err
		}
		victim.Dirty = false
		p.stats.Flushes++
	}

	data, err := p.store.ReadPage(pageID)
	if err != nil {
		p.restoreVictim(victimIdx)
		return nil, err
	}

	p.logger.Debug("bufferpool: evicted page",
		"frame", victimIdx, "victim_page", victim.PageID, "new_page", pageID)
	p.stats.Evictions++
	delete(p.pageTable, victim.PageID)
	p.frames[victimIdx] = nil

	return p.install(victimIdx, pageID, data, at)
}

func (p *Pool) install(idx int, pageID uint32, data []byte, at lrukx.AccessType) (*Frame, error) {
	if err := p.replacementPolicy.RecordAccess(idx, at); err != nil {
		return nil, err
	}
	if err := p.replacementPolicy.SetEvictable(idx, false); err != nil {
		return nil, err
	}

	f := &Frame{
		PageID: pageID,
		Data:   data,
		Pin:    1,
	}
	p.frames[idx] = f
	p.pageTable[pageID] = idx
	return f, nil
}

// restoreVictim puts a frame that was already taken out of the replacer back
// as evictable. Its previous history is lost.
func (p *Pool) restoreVictim(idx int) {
	if err := p.replacementPolicy.RecordAccess(idx, lrukx.AccessUnknown); err != nil {
		p.logger.Warn("bufferpool: restore victim failed", "frame", idx, "err", err)
		return
	}
	_ = p.replacementPolicy.SetEvictable(idx, true)
}

// UnpinPage drops one pin and marks the page dirty if asked.
// The frame becomes evictable when its pin count reaches zero.
func (p *Pool) UnpinPage(pageID uint32, dirty bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageID]
	if !ok || p.frames[idx] == nil {
		return fmt.Errorf("%w: page %d", ErrPageNotResident, pageID)
	}
	f := p.frames[idx]
	if f.Pin == 0 {
		return fmt.Errorf("%w: page %d", ErrPageNotPinned, pageID)
	}

	if dirty {
		f.Dirty = true
	}
	f.Pin--
	if f.Pin == 0 {
		return p.replacementPolicy.SetEvictable(idx, true)
	}
	return nil
}

func (p *Pool) FlushPage(pageID uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageID]
	if !ok || p.frames[idx] == nil {
		return fmt.Errorf("%w: page %d", ErrPageNotResident, pageID)
	}
	return p.flush(p.frames[idx])
}

func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, f := range p.frames {
		if f == nil {
			continue
		}
		if err := p.flush(f); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) flush(f *Frame) error {
	if !f.Dirty {
		return nil
	}
	if err := p.store.WritePage(f.PageID, f.Data); err != nil {
		return err
	}
	f.Dirty = false
	p.stats.Flushes++
	return nil
}

// DeletePage drops pageID from the pool, flushing it first if dirty.
// Pages that are not resident are ignored.
func (p *Pool) DeletePage(pageID uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[pageID]
	if !ok {
		return nil
	}

	f := p.frames[idx]
	if f == nil {
		delete(p.pageTable, pageID)
		return nil
	}

	if f.Pin != 0 {
		return fmt.Errorf("%w: page %d", ErrPagePinned, pageID)
	}

	if err := p.flush(f); err != nil {
		return err
	}
	if err := p.replacementPolicy.Remove(idx); err != nil {
		return err
	}

	p.frames[idx] = nil
	delete(p.pageTable, pageID)
	return nil
}

func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Evictable returns how many resident frames could be reclaimed right now.
func (p *Pool) Evictable() int {
	return p.replacementPolicy.Size()
}
