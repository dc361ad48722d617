package log

import (
	"sync"
)

// CircularBuffer is a thread-safe circular buffer that implements
// [io.Writer]. It stores a fixed number of recent log entries, overwriting
// the oldest entry when full. It backs the MCP get_logs tool, which needs
// recent log lines without unbounded growth.
type CircularBuffer struct {
	entries  [][]byte
	size     int
	capacity int
	head     int
	mu       sync.RWMutex
	full     bool
}

// NewCircularBuffer creates a circular buffer holding up to capacity entries.
func NewCircularBuffer(capacity int) *CircularBuffer {
	if capacity <= 0 {
		capacity = 100 // Default capacity.
	}

	return &CircularBuffer{
		entries:  make([][]byte, capacity),
		capacity: capacity,
	}
}

// Write implements [io.Writer]. Each call stores one entry; when the buffer
// is full the oldest entry is overwritten. The data is copied, so callers
// may reuse the slice.
func (cb *CircularBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	entry := make([]byte, len(p))
	copy(entry, p)

	cb.entries[cb.head] = entry
	cb.head = (cb.head + 1) % cb.capacity

	if !cb.full {
		cb.size++
		if cb.size == cb.capacity {
			cb.full = true
		}
	}

	return len(p), nil
}

// Entries returns a copy of all current entries in chronological order
// (oldest first). The returned slice is safe to modify.
func (cb *CircularBuffer) Entries() [][]byte {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if cb.size == 0 {
		return nil
	}

	result := make([][]byte, 0, cb.size)

	if cb.full {
		// Oldest entry is at head when the buffer has wrapped.
		for i := range cb.capacity {
			result = append(result, cb.entries[(cb.head+i)%cb.capacity])
		}
	} else {
		for i := range cb.size {
			result = append(result, cb.entries[i])
		}
	}

	return result
}

// Len returns the number of stored entries.
func (cb *CircularBuffer) Len() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return cb.size
}
