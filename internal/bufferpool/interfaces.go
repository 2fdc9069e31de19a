package bufferpool

import "github.com/tuannm99/novabuf/pkg/lrukx"

// Replacer decides which unpinned frame gives up its slot.
// Frame ids are frame indices [0..capacity) of the owning pool.
type Replacer interface {
	RecordAccess(frameID int, at lrukx.AccessType) error
	SetEvictable(frameID int, evictable bool) error
	Evict() (frameID int, ok bool)
	Remove(frameID int) error
	Size() int
}

// PageStore is the backing storage a pool reads misses from and flushes to.
type PageStore interface {
	ReadPage(pageID uint32) ([]byte, error)
	WritePage(pageID uint32, data []byte) error
}

type Manager interface {
	FetchPage(pageID uint32, at lrukx.AccessType) (*Frame, error)
	UnpinPage(pageID uint32, dirty bool) error
	FlushAll() error
}
