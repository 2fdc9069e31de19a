// Package lrukx implements the LRU-K frame replacement policy.
//
// A Replacer tracks access history for the frames of one buffer pool and
// picks the evictable frame with the largest backward k-distance. Frames with
// fewer than k recorded accesses have +inf distance and are ordered among
// themselves by plain LRU.
package lrukx

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrInvalidFrame      = errors.New("lrukx: frame id out of range")
	ErrFrameNotEvictable = errors.New("lrukx: frame is not evictable")
	ErrInvalidConfig     = errors.New("lrukx: invalid replacer config")
)

// AccessType describes why a frame was touched. It is recorded for stats only
// and never changes which frame gets evicted.
type AccessType uint8

const (
	AccessUnknown AccessType = iota
	AccessLookup
	AccessScan
	AccessIndex

	numAccessTypes
)

func (a AccessType) String() string {
	switch a {
	case AccessLookup:
		return "lookup"
	case AccessScan:
		return "scan"
	case AccessIndex:
		return "index"
	default:
		return "unknown"
	}
}

// ParseAccessType maps "lookup", "scan", "index" to their AccessType.
// Anything else is AccessUnknown.
func ParseAccessType(s string) AccessType {
	switch s {
	case "lookup":
		return AccessLookup
	case "scan":
		return AccessScan
	case "index":
		return AccessIndex
	default:
		return AccessUnknown
	}
}

// Stats is a snapshot of replacer counters.
type Stats struct {
	Accesses  map[AccessType]uint64
	Evictions uint64
	Removals  uint64
}

// Replacer is an LRU-K replacer for frame ids [0..capacity).
// All methods are safe for concurrent use.
type Replacer struct {
	mu       sync.Mutex
	entries  map[int]*history
	clock    uint64 // logical timestamp, +1 per RecordAccess
	size     int    // number of evictable entries
	capacity int
	k        int

	accesses  [numAccessTypes]uint64
	evictions uint64
	removals  uint64
}

func New(capacity, k int) (*Replacer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidConfig, capacity)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k %d", ErrInvalidConfig, k)
	}
	return &Replacer{
		entries:  make(map[int]*history),
		capacity: capacity,
		k:        k,
	}, nil
}

func (r *Replacer) Capacity() int { return r.capacity }

func (r *Replacer) K() int { return r.k }

func (r *Replacer) checkFrame(frameID int) error {
	if frameID < 0 || frameID >= r.capacity {
		return fmt.Errorf("%w: %d (capacity %d)", ErrInvalidFrame, frameID, r.capacity)
	}
	return nil
}

// RecordAccess stamps frameID with the next logical timestamp.
// A frame seen for the first time starts out non-evictable.
func (r *Replacer) RecordAccess(frameID int, at AccessType) error {
	if err := r.checkFrame(frameID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.clock++
	if at >= numAccessTypes {
		at = AccessUnknown
	}
	r.accesses[at]++

	if h, ok := r.entries[frameID]; ok {
		h.record(r.clock)
		return nil
	}
	r.entries[frameID] = newHistory(frameID, r.k, r.clock)
	return nil
}

// SetEvictable toggles whether frameID may be evicted and keeps Size in step.
// Unknown frames are ignored.
func (r *Replacer) SetEvictable(frameID int, evictable bool) error {
	if err := r.checkFrame(frameID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.entries[frameID]
	if !ok || h.evictable == evictable {
		return nil
	}

	h.evictable = evictable
	if evictable {
		r.size++
	} else {
		r.size--
	}
	return nil
}

// Evict removes and returns the evictable frame with the largest backward
// k-distance. It returns (-1, false) when nothing is evictable.
func (r *Replacer) Evict() (frameID int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size == 0 {
		return -1, false
	}

	var victim *history
	for _, h := range r.entries {
		if !h.evictable {
			continue
		}
		if victim == nil || h.evictsBefore(victim) {
			victim = h
		}
	}
	if victim == nil {
		return -1, false
	}

	delete(r.entries, victim.frameID)
	r.size--
	r.evictions++
	return victim.frameID, true
}

// Remove drops frameID and its history regardless of its k-distance.
// Removing an untracked frame is a no-op; removing a pinned one fails with
// ErrFrameNotEvictable and leaves the replacer untouched.
func (r *Replacer) Remove(frameID int) error {
	if err := r.checkFrame(frameID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.entries[frameID]
	if !ok {
		return nil
	}
	if !h.evictable {
		return fmt.Errorf("%w: %d", ErrFrameNotEvictable, frameID)
	}

	delete(r.entries, frameID)
	r.size--
	r.removals++
	return nil
}

// Size returns the number of evictable frames.
func (r *Replacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Len returns the number of tracked frames, evictable or not.
func (r *Replacer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// KDistance reports the backward k-distance of frameID.
// inf is true when the frame has fewer than k accesses.
func (r *Replacer) KDistance(frameID int) (dist uint64, inf bool, tracked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.entries[frameID]
	if !ok {
		return 0, false, false
	}
	d := h.kDistance()
	if d == infDistance {
		return 0, true, true
	}
	return d, false, true
}

// History returns the retained timestamps of frameID, oldest first.
func (r *Replacer) History(frameID int) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.entries[frameID]
	if !ok {
		return nil
	}
	return h.timestamps()
}

func (r *Replacer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc := make(map[AccessType]uint64, numAccessTypes)
	for i, n := range r.accesses {
		if n > 0 {
			acc[AccessType(i)] = n
		}
	}
	return Stats{
		Accesses:  acc,
		Evictions: r.evictions,
		Removals:  r.removals,
	}
}
