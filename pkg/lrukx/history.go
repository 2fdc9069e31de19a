package lrukx

import "math"

// infDistance stands in for +inf backward k-distance.
const infDistance = math.MaxUint64

// history keeps the last k access timestamps of one frame in a ring.
// Timestamps are stored oldest first when read through at().
type history struct {
	frameID   int
	ts        []uint64 // len == k
	head      int      // index of the oldest timestamp
	n         int      // number of valid timestamps
	evictable bool
}

func newHistory(frameID, k int, now uint64) *history {
	h := &history{
		frameID: frameID,
		ts:      make([]uint64, k),
	}
	h.record(now)
	return h
}

// record appends now, dropping the oldest timestamp once k are held.
func (h *history) record(now uint64) {
	k := len(h.ts)
	if h.n < k {
		h.ts[(h.head+h.n)%k] = now
		h.n++
		return
	}
	h.ts[h.head] = now
	h.head = (h.head + 1) % k
}

func (h *history) at(i int) uint64 {
	return h.ts[(h.head+i)%len(h.ts)]
}

func (h *history) oldest() uint64 { return h.at(0) }

func (h *history) latest() uint64 { return h.at(h.n - 1) }

// kDistance is latest - k-th most recent, or infDistance with fewer than k accesses.
func (h *history) kDistance() uint64 {
	if h.n < len(h.ts) {
		return infDistance
	}
	return h.latest() - h.oldest()
}

// timestamps returns a copy, oldest first.
func (h *history) timestamps() []uint64 {
	out := make([]uint64, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.at(i)
	}
	return out
}

// evictsBefore reports whether h is a better victim than other.
//
// Order: +inf distance beats any finite one; among +inf the older latest
// access wins (plain LRU); among equal finite distances the older k-th most
// recent access wins, then the lower frame id.
func (h *history) evictsBefore(other *history) bool {
	hd, od := h.kDistance(), other.kDistance()
	if hd == infDistance && od == infDistance {
		if h.latest() != other.latest() {
			return h.latest() < other.latest()
		}
		return h.frameID < other.frameID
	}
	if hd != od {
		return hd > od
	}
	if h.oldest() != other.oldest() {
		return h.oldest() < other.oldest()
	}
	return h.frameID < other.frameID
}
