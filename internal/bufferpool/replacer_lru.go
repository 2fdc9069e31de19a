package bufferpool

import (
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/tuannm99/novabuf/pkg/lrukx"
)

// lruReplacer evicts the least recently accessed evictable frame.
// The recency order lives in a simplelru list keyed by frame id. Values are
// pointers so the evictable flag can flip without touching recency.
type lruReplacer struct {
	mu       sync.Mutex
	order    *simplelru.LRU[int, *lruEntry]
	capacity int
	size     int
}

type lruEntry struct {
	evictable bool
}

func newLRUReplacer(capacity int) (*lruReplacer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", lrukx.ErrInvalidConfig, capacity)
	}
	// Frame ids are < capacity, so the list never overflows on its own.
	order, err := simplelru.NewLRU[int, *lruEntry](capacity, nil)
	if err != nil {
		return nil, err
	}
	return &lruReplacer{order: order, capacity: capacity}, nil
}

func (l *lruReplacer) check(frameID int) error {
	if frameID < 0 || frameID >= l.capacity {
		return fmt.Errorf("%w: %d (capacity %d)", lrukx.ErrInvalidFrame, frameID, l.capacity)
	}
	return nil
}

func (l *lruReplacer) RecordAccess(frameID int, _ lrukx.AccessType) error {
	if err := l.check(frameID); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	// Get moves an existing entry to the front.
	if _, ok := l.order.Get(frameID); !ok {
		l.order.Add(frameID, &lruEntry{})
	}
	return nil
}

func (l *lruReplacer) SetEvictable(frameID int, evictable bool) error {
	if err := l.check(frameID); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.order.Peek(frameID)
	if !ok || e.evictable == evictable {
		return nil
	}

	e.evictable = evictable
	if evictable {
		l.size++
	} else {
		l.size--
	}
	return nil
}

func (l *lruReplacer) Evict() (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.size == 0 {
		return -1, false
	}
	// Keys is oldest first.
	for _, id := range l.order.Keys() {
		if e, _ := l.order.Peek(id); e.evictable {
			l.order.Remove(id)
			l.size--
			return id, true
		}
	}
	return -1, false
}

func (l *lruReplacer) Remove(frameID int) error {
	if err := l.check(frameID); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.order.Peek(frameID)
	if !ok {
		return nil
	}
	if !e.evictable {
		return fmt.Errorf("%w: %d", lrukx.ErrFrameNotEvictable, frameID)
	}
	l.order.Remove(frameID)
	l.size--
	return nil
}

func (l *lruReplacer) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}
