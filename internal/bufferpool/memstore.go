package bufferpool

import (
	"fmt"
	"sync"
)

const DefaultPageSize = 8 << 10

// MemStore is an in-memory PageStore. Pages that were never written read
// back zero-filled.
type MemStore struct {
	pageSize int

	mu     sync.Mutex
	pages  map[uint32][]byte
	reads  uint64
	writes uint64

	// failWrites makes WritePage return this error when set (tests only).
	failWrites error
}

func NewMemStore(pageSize int) *MemStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &MemStore{
		pageSize: pageSize,
		pages:    make(map[uint32][]byte),
	}
}

func (m *MemStore) ReadPage(pageID uint32) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	buf := make([]byte, m.pageSize)
	if src, ok := m.pages[pageID]; ok {
		copy(buf, src)
	}
	return buf, nil
}

func (m *MemStore) WritePage(pageID uint32, data []byte) error {
	if len(data) != m.pageSize {
		return fmt.Errorf("memstore: page must be exactly %d bytes, got %d", m.pageSize, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWrites != nil {
		return m.failWrites
	}
	m.writes++
	m.pages[pageID] = append([]byte(nil), data...)
	return nil
}

// Counts returns how many reads and writes reached the store.
func (m *MemStore) Counts() (reads, writes uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads, m.writes
}
