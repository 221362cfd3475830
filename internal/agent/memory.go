package agent

import (
	"slices"
	"sync"
	"time"
)

// DefaultMaxShortTerm bounds short-term memory when no bound is configured.
const DefaultMaxShortTerm = 100

// MemoryItem is one recorded observation.
type MemoryItem struct {
	Content   any            `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

// Memory keeps observations in insertion order. When short-term memory grows
// past its bound, its oldest half moves to the end of long-term memory.
type Memory struct {
	mu           sync.Mutex
	shortTerm    []MemoryItem
	longTerm     []MemoryItem
	maxShortTerm int
	now          func() time.Time
}

// NewMemory creates a Memory whose short-term part holds at most
// maxShortTerm items. Non-positive values select DefaultMaxShortTerm.
func NewMemory(maxShortTerm int) *Memory {
	if maxShortTerm <= 0 {
		maxShortTerm = DefaultMaxShortTerm
	}
	return &Memory{
		maxShortTerm: maxShortTerm,
		now:          time.Now,
	}
}

// Add records an observation.
func (m *Memory) Add(content any, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.shortTerm = append(m.shortTerm, MemoryItem{
		Content:   content,
		Timestamp: m.now().UTC(),
		Metadata:  metadata,
	})
	if len(m.shortTerm) > m.maxShortTerm {
		m.consolidate()
	}
}

// consolidate moves the oldest len/2 short-term items to long-term memory.
// Both sequences get fresh backing arrays so neither aliases the other.
func (m *Memory) consolidate() {
	split := len(m.shortTerm) / 2
	m.longTerm = append(m.longTerm, m.shortTerm[:split]...)
	m.shortTerm = slices.Clone(m.shortTerm[split:])
}

// Retrieve returns up to limit memories, short-term first. The query is
// not used for ranking yet.
func (m *Memory) Retrieve(query string, limit int) []MemoryItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]MemoryItem, 0, len(m.shortTerm)+len(m.longTerm))
	all = append(all, m.shortTerm...)
	all = append(all, m.longTerm...)
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

// Snapshot returns copies of both memory sequences.
func (m *Memory) Snapshot() (shortTerm, longTerm []MemoryItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.shortTerm), slices.Clone(m.longTerm)
}

// Len returns the number of short-term and long-term items.
func (m *Memory) Len() (shortTerm, longTerm int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shortTerm), len(m.longTerm)
}
