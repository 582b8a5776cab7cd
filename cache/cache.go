// Package cache persists per-header-layout geometry so pages and documents
// sharing a vendor layout reuse stabilized column spans and row spacing.
// Entries are keyed by header fingerprint; the most recent writer wins.
package cache

import (
	"sync"
	"time"

	"github.com/tablekit/itemfix/model"
)

// Column is one cached column span
type Column struct {
	Index  int     `json:"index"`
	Family string  `json:"family"`
	Header string  `json:"header"`
	X0     float64 `json:"x0"`
	X1     float64 `json:"x1"`
}

// Entry is the cached geometry for one header fingerprint
type Entry struct {
	Columns         []Column  `json:"columns"`
	MedianRowHeight float64   `json:"median_row_height"`
	MedianRowGap    float64   `json:"median_row_gap"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FromBands converts resolved column bands into a cache entry
func FromBands(bands []model.ColumnBand, rowHeight, rowGap float64) Entry {
	e := Entry{
		MedianRowHeight: rowHeight,
		MedianRowGap:    rowGap,
		UpdatedAt:       time.Now().UTC(),
	}
	for _, b := range bands {
		e.Columns = append(e.Columns, Column{
			Index:  b.Index,
			Family: b.Family,
			Header: b.Header,
			X0:     b.X0,
			X1:     b.X1,
		})
	}
	return e
}

// Store is the injected template-cache interface. Implementations must make
// Save atomic per fingerprint so parallel documents degrade to
// last-writer-wins rather than corruption.
type Store interface {
	Load(fingerprint string) (Entry, bool, error)
	Save(fingerprint string, entry Entry) error
}

// Memory is an in-process Store for tests and single-shot runs
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

// Load returns the entry for a fingerprint
func (m *Memory) Load(fingerprint string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[fingerprint]
	return e, ok, nil
}

// Save stores the entry for a fingerprint
func (m *Memory) Save(fingerprint string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[fingerprint] = entry
	return nil
}
