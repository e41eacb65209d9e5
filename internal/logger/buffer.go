package logger

import (
	"sync"
	"time"
)

// Entry is one captured line of job output.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	JobName   string    `json:"job_name"`
	Stream    string    `json:"stream"` // stdout or stderr
	Message   string    `json:"message"`
}

// Buffer is a thread-safe ring buffer of recent job output lines.
type Buffer struct {
	mu      sync.RWMutex
	entries []Entry
	size    int
	index   int
	full    bool
}

// NewBuffer creates a ring buffer with the given capacity.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = 1000
	}
	return &Buffer{
		entries: make([]Entry, size),
		size:    size,
	}
}

// Add appends an entry, evicting the oldest when full.
func (b *Buffer) Add(entry Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.index] = entry
	b.index++
	if b.index >= b.size {
		b.index = 0
		b.full = true
	}
}

// All returns the retained entries in chronological order.
func (b *Buffer) All() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.full {
		result := make([]Entry, b.index)
		copy(result, b.entries[:b.index])
		return result
	}

	result := make([]Entry, b.size)
	copy(result, b.entries[b.index:])
	copy(result[b.size-b.index:], b.entries[:b.index])
	return result
}

// Recent returns the last n entries in chronological order.
func (b *Buffer) Recent(n int) []Entry {
	all := b.All()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Len returns the number of retained entries.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.full {
		return b.size
	}
	return b.index
}
