// Package buffer implements line buffering for batched object writes.
package buffer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/pkg/buffer"
	"github.com/bittrance/vector/pkg/event"
)

// Ensure implementations satisfy interfaces at compile time.
var (
	_ buffer.Buffer  = (*KeyBuffer)(nil)
	_ buffer.Manager = (*Manager)(nil)
)

// KeyBuffer buffers encoded lines destined for a single partition key.
// It is thread-safe and enforces size and line count limits. First and
// last write times feed the rotation policy.
type KeyBuffer struct {
	key            string
	lines          [][]byte
	maxSizeBytes   int64
	maxLines       int
	currentSize    int64
	firstWriteTime time.Time
	lastWriteTime  time.Time
	now            func() time.Time
	mu             sync.RWMutex
}

// New creates a new key buffer. A limit of zero disables that limit.
func New(key string, maxSizeBytes int64, maxLines int) *KeyBuffer {
	return &KeyBuffer{
		key:          key,
		maxSizeBytes: maxSizeBytes,
		maxLines:     maxLines,
		now:          time.Now,
	}
}

// Key returns the partition key this buffer collects lines for.
func (b *KeyBuffer) Key() string {
	return b.key
}

// Add appends a line. The buffer keeps the slice; callers must not reuse it.
func (b *KeyBuffer) Add(line []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxLines > 0 && len(b.lines) >= b.maxLines {
		return fmt.Errorf("%w: max lines (%d) reached", errors.ErrBufferFull, b.maxLines)
	}

	size := int64(len(line))
	if b.maxSizeBytes > 0 && len(b.lines) > 0 && b.currentSize+size > b.maxSizeBytes {
		return fmt.Errorf("%w: max size (%d bytes) would be exceeded", errors.ErrBufferFull, b.maxSizeBytes)
	}

	b.lines = append(b.lines, line)
	b.currentSize += size

	now := b.now()
	if b.firstWriteTime.IsZero() {
		b.firstWriteTime = now
	}
	b.lastWriteTime = now

	return nil
}

// Drain removes and returns all lines. The returned slice is owned by
// the caller.
func (b *KeyBuffer) Drain() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	lines := b.lines
	b.reset()
	return lines
}

// Restore puts lines taken by Drain back in front of the buffered lines.
// The earlier first write time and the later last write time win.
func (b *KeyBuffer) Restore(lines [][]byte, stats event.BatchStats) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := len(b.lines)
	size := b.currentSize
	n := 0
	for _, line := range lines {
		if b.maxLines > 0 && count >= b.maxLines {
			break
		}
		l := int64(len(line))
		if b.maxSizeBytes > 0 && count > 0 && size+l > b.maxSizeBytes {
			break
		}
		count++
		size += l
		n++
	}
	if n == 0 {
		return 0
	}

	restored := make([][]byte, 0, count)
	restored = append(restored, lines[:n]...)
	b.lines = append(restored, b.lines...)
	b.currentSize = size

	if first := stats.FirstWriteTime; !first.IsZero() && (b.firstWriteTime.IsZero() || first.Before(b.firstWriteTime)) {
		b.firstWriteTime = first
	}
	if last := stats.LastWriteTime; last.After(b.lastWriteTime) {
		b.lastWriteTime = last
	}
	return n
}

// Stats returns current buffer statistics.
func (b *KeyBuffer) Stats() event.BatchStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return event.BatchStats{
		RecordCount:    len(b.lines),
		SizeBytes:      b.currentSize,
		FirstWriteTime: b.firstWriteTime,
		LastWriteTime:  b.lastWriteTime,
	}
}

// IsEmpty returns true if the buffer is empty.
func (b *KeyBuffer) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines) == 0
}

// Reset clears the buffer and resets all statistics.
func (b *KeyBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

func (b *KeyBuffer) reset() {
	b.lines = nil
	b.currentSize = 0
	b.firstWriteTime = time.Time{}
	b.lastWriteTime = time.Time{}
}

// Manager manages buffers for many partition keys, creating them on demand.
// Uses double-checked locking for efficient concurrent access.
type Manager struct {
	buffers      map[string]*KeyBuffer
	maxSizeBytes int64
	maxLines     int
	mu           sync.RWMutex
}

// NewManager creates a new buffer manager.
func NewManager(maxSizeBytes int64, maxLines int) *Manager {
	return &Manager{
		buffers:      make(map[string]*KeyBuffer),
		maxSizeBytes: maxSizeBytes,
		maxLines:     maxLines,
	}
}

// GetOrCreate returns the buffer for key, creating it if needed.
func (m *Manager) GetOrCreate(key string) buffer.Buffer {
	m.mu.RLock()
	buf, exists := m.buffers[key]
	m.mu.RUnlock()

	if exists {
		return buf
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if buf, exists := m.buffers[key]; exists {
		return buf
	}

	buf = New(key, m.maxSizeBytes, m.maxLines)
	m.buffers[key] = buf
	return buf
}

// Keys returns the keys of all live buffers in ascending order.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.buffers))
	for k := range m.buffers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Remove forgets the buffer for key.
func (m *Manager) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buffers, key)
}

// Len returns the number of live buffers.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.buffers)
}

// SizeBytes returns the bytes held across all buffers.
func (m *Manager) SizeBytes() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, buf := range m.buffers {
		total += buf.Stats().SizeBytes
	}
	return total
}
