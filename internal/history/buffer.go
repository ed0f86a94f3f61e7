// Package history keeps a bounded in-memory ring of recent telemetry
// snapshots. It is the only state shared between connection sessions.
package history

import (
	"sync"
	"time"

	"cranewatch"
)

// DefaultCapacity bounds the ring when no explicit capacity is given.
const DefaultCapacity = 1000

// Buffer is a capacity-bounded, append-only sequence of snapshots. Appends
// evict the oldest entry once the ring is full. Entries are ordered by
// arrival; the buffer never re-sorts by snapshot timestamp.
//
// All methods are safe for concurrent use. Reads take the same lock as
// Append, so a Since result is always a consistent cut of the ring.
type Buffer struct {
	mu       sync.RWMutex
	entries  []cranewatch.TelemetrySnapshot
	start    int // index of the oldest entry
	size     int
	capacity int
}

// New returns an empty buffer holding at most capacity snapshots.
// Non-positive capacities fall back to DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		entries:  make([]cranewatch.TelemetrySnapshot, capacity),
		capacity: capacity,
	}
}

// Append inserts the snapshot as the newest entry, evicting the oldest one
// when the ring is at capacity. O(1).
func (b *Buffer) Append(s cranewatch.TelemetrySnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := (b.start + b.size) % b.capacity
	b.entries[idx] = s
	if b.size < b.capacity {
		b.size++
		return
	}
	// Full: the slot we just wrote was the oldest entry.
	b.start = (b.start + 1) % b.capacity
}

// Len returns the number of retained snapshots.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Latest returns the most recently appended snapshot. The second return is
// false while the buffer is empty.
func (b *Buffer) Latest() (cranewatch.TelemetrySnapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return cranewatch.TelemetrySnapshot{}, false
	}
	idx := (b.start + b.size - 1) % b.capacity
	return b.entries[idx], true
}

// Since returns every retained snapshot with Timestamp >= t, most-recent-first,
// truncated to at most the buffer capacity. The result is a copy; the ring is
// not mutated.
func (b *Buffer) Since(t time.Time) []cranewatch.TelemetrySnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]cranewatch.TelemetrySnapshot, 0, b.size)
	for i := b.size - 1; i >= 0; i-- {
		s := b.entries[(b.start+i)%b.capacity]
		if s.Timestamp.Before(t) {
			continue
		}
		out = append(out, s)
		if len(out) == b.capacity {
			break
		}
	}
	return out
}
