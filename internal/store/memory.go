package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

// ClickRow is one appended ledger row.
type ClickRow struct {
	Alias     shortener.Alias
	FlushedAt time.Time
	Clicks    int64
}

// MemoryStore is an in-memory link store and click ledger. Like the SQL stores it keeps one
// row per alias per flush and sums them on read.
type MemoryStore struct {
	mu     sync.RWMutex
	links  map[shortener.Alias]shortener.Link
	clicks map[shortener.Alias][]ClickRow
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:  make(map[shortener.Alias]shortener.Link),
		clicks: make(map[shortener.Alias][]ClickRow),
	}
}

func (m *MemoryStore) InsertIfAbsent(_ context.Context, link *shortener.Link) (*shortener.Link, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.Alias]; ok {
		return nil, false, nil
	}

	m.links[link.Alias] = *link
	inserted := *link

	return &inserted, true, nil
}

func (m *MemoryStore) GetByAlias(_ context.Context, alias shortener.Alias) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[alias]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &link, nil
}

func (m *MemoryStore) AppendClicks(_ context.Context, at time.Time, counts map[shortener.Alias]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for alias, n := range counts {
		m.clicks[alias] = append(m.clicks[alias], ClickRow{Alias: alias, FlushedAt: at, Clicks: n})
	}

	return nil
}

func (m *MemoryStore) TotalClicks(_ context.Context, alias shortener.Alias) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, row := range m.clicks[alias] {
		total += row.Clicks
	}

	return total, nil
}

// ClickRows returns the ledger rows of alias in append order.
func (m *MemoryStore) ClickRows(alias shortener.Alias) []ClickRow {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.clicks[alias])
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}
