package memory

import (
	"context"
	"sync"

	"tracker/internal/ledger"
	"tracker/internal/sheets"
)

// Mirror keeps the last synced sheets in memory. It stands in for Google
// Sheets when no spreadsheet is configured.
type Mirror struct {
	mu         sync.Mutex
	history    [][]any
	categories [][]any
	syncs      int
	revision   uint64
}

var _ sheets.Mirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) Sync(_ context.Context, snap ledger.Snapshot) error {
	history := sheets.HistoryRows(snap)
	categories := sheets.CategoryRows(snap.Totals)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = history
	m.categories = categories
	m.revision = snap.Revision
	m.syncs++
	return nil
}

// History returns the rows of the last sync, header included.
func (m *Mirror) History() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]any(nil), m.history...)
}

func (m *Mirror) Categories() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]any(nil), m.categories...)
}

// Syncs reports how many times Sync was called.
func (m *Mirror) Syncs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncs
}

func (m *Mirror) Revision() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revision
}
