package clockx

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrOutOfRange = errors.New("clockx: slot id out of range")
	ErrPinned     = errors.New("clockx: slot is not evictable")
)

// Clock implements CLOCK (second-chance) replacement for a fixed number of slots.
// It tracks ref bits and evictable state for slot IDs [0..capacity).
type Clock struct {
	mu        sync.Mutex
	ref       []bool
	evictable []bool
	present   []bool
	hand      int
	size      int // number of evictable slots
}

func New(capacity int) *Clock {
	if capacity <= 0 {
		capacity = 1
	}
	return &Clock{
		ref:       make([]bool, capacity),
		evictable: make([]bool, capacity),
		present:   make([]bool, capacity),
	}
}

func (c *Clock) Capacity() int { return len(c.ref) }

func (c *Clock) check(id int) error {
	if id < 0 || id >= len(c.ref) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, id)
	}
	return nil
}

// Touch marks slot as recently accessed. A new slot starts non-evictable.
func (c *Clock) Touch(id int) error {
	if err := c.check(id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.present[id] = true
	c.ref[id] = true
	return nil
}

// SetEvictable marks whether slot can be evicted (e.g., pin==0).
// Slots that were never touched are ignored.
func (c *Clock) SetEvictable(id int, evictable bool) error {
	if err := c.check(id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.present[id] || c.evictable[id] == evictable {
		return nil
	}

	c.evictable[id] = evictable
	if evictable {
		c.size++
	} else {
		c.size--
	}
	return nil
}

// Evict returns victim slot id and ok flag.
// It also removes the victim from tracking (present=false).
func (c *Clock) Evict() (id int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.ref)
	if c.size == 0 {
		return -1, false
	}

	// Two sweeps: the first may only clear ref bits.
	for j := 0; j < 2*n; j++ {
		idx := c.hand
		c.hand = (c.hand + 1) % n

		if !c.present[idx] || !c.evictable[idx] {
			continue
		}
		if c.ref[idx] {
			c.ref[idx] = false
			continue
		}

		c.clear(idx)
		c.size--
		return idx, true
	}

	return -1, false
}

// Remove drops slot from tracking. Untracked slots are ignored and
// non-evictable ones are rejected with ErrPinned.
func (c *Clock) Remove(id int) error {
	if err := c.check(id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.present[id] {
		return nil
	}
	if !c.evictable[id] {
		return fmt.Errorf("%w: %d", ErrPinned, id)
	}

	c.clear(id)
	c.size--
	return nil
}

func (c *Clock) clear(id int) {
	c.present[id] = false
	c.evictable[id] = false
	c.ref[id] = false
}

func (c *Clock) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}
