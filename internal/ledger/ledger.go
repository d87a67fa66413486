// Package ledger holds the transaction list and the totals derived from it.
//
// Every mutation updates the totals incrementally, writes the full list to the
// configured Store and then notifies subscribers. A Ledger is safe for
// concurrent use.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"tracker/internal/core"
	applog "tracker/internal/log"
)

var (
	// ErrPersist wraps storage failures. The in-memory change that triggered
	// the write is kept.
	ErrPersist     = errors.New("persist transactions")
	ErrDuplicateID = errors.New("duplicate transaction id")
)

// Store persists the ordered transaction list.
type Store interface {
	Load(ctx context.Context) ([]core.Transaction, error)
	Save(ctx context.Context, txs []core.Transaction) error
}

// Snapshot is a point-in-time copy of the ledger for rendering.
type Snapshot struct {
	Revision uint64
	Totals   core.Totals
	// Transactions are ordered most recent first.
	Transactions []core.Transaction
}

type Ledger struct {
	mu       sync.Mutex
	store    Store
	ids      IDGenerator
	logger   *slog.Logger
	txs      []core.Transaction
	known    map[string]struct{}
	totals   core.Totals
	revision uint64

	subsMu  sync.Mutex
	subs    []subscription
	nextSub int
}

type Option func(*Ledger)

func WithIDGenerator(g IDGenerator) Option {
	return func(l *Ledger) {
		if g != nil {
			l.ids = g
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New returns an empty ledger. A nil store keeps the ledger in memory only.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		ids:    UUIDGenerator{},
		logger: slog.Default(),
		known:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(applog.FieldComponent, applog.ComponentLedger)
	return l
}

// Hydrate replaces the in-memory state with the persisted list and rebuilds
// the totals by replaying every transaction in stored order.
func (l *Ledger) Hydrate(ctx context.Context) error {
	var txs []core.Transaction
	if l.store != nil {
		loaded, err := l.store.Load(ctx)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		txs = loaded
	}

	known := make(map[string]struct{}, len(txs))
	for i, tx := range txs {
		if tx.ID == "" {
			return fmt.Errorf("stored transaction %d: %w", i, core.ErrMissingID)
		}
		if _, dup := known[tx.ID]; dup {
			return fmt.Errorf("stored transaction %d: %w: %s", i, ErrDuplicateID, tx.ID)
		}
		known[tx.ID] = struct{}{}
	}

	l.mu.Lock()
	l.txs = slices.Clone(txs)
	l.known = known
	l.totals = core.Recompute(txs)
	l.revision++
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "Ledger hydrated",
		applog.FieldOperation, applog.OpHydrate,
		applog.FieldRevision, snap.Revision,
		"count", len(txs),
		"balance", snap.Totals.Balance.String())
	l.notify(Event{Kind: EventHydrated, Snapshot: snap})
	return nil
}

// Add records a new transaction. Input is assumed valid; see the services
// package for validation. The returned error is non-nil only when the write
// to the store failed, in which case the transaction is still recorded.
func (l *Ledger) Add(ctx context.Context, category core.Category, name string, amount core.Money) (core.Transaction, error) {
	l.mu.Lock()
	tx := core.Transaction{
		ID:       l.newIDLocked(),
		Category: category,
		Name:     name,
		Amount:   amount,
	}
	l.txs = append(l.txs, tx)
	l.known[tx.ID] = struct{}{}
	l.totals = l.totals.Apply(tx)
	l.revision++
	err := l.persistLocked(ctx)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.logger.DebugContext(ctx, "Transaction added",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldTransactionID, tx.ID,
		applog.FieldCategory, tx.Category.String(),
		applog.FieldAmountCents, tx.Amount.Cents)
	l.notify(Event{Kind: EventAdded, Transaction: tx, Snapshot: snap})
	return tx, err
}

// Delete removes the transaction with the given id. An unknown id is a no-op
// and reports false.
func (l *Ledger) Delete(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return false, nil
	}
	tx := l.txs[i]
	l.txs = slices.Delete(l.txs, i, i+1)
	delete(l.known, id)
	l.totals = l.totals.Revert(tx)
	l.revision++
	err := l.persistLocked(ctx)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.logger.DebugContext(ctx, "Transaction deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldTransactionID, tx.ID,
		applog.FieldAmountCents, tx.Amount.Cents)
	l.notify(Event{Kind: EventDeleted, Transaction: tx, Snapshot: snap})
	return true, err
}

func (l *Ledger) FindByID(id string) (core.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexLocked(id); i >= 0 {
		return l.txs[i], true
	}
	return core.Transaction{}, false
}

// Snapshot returns the totals and the transactions, most recent first.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Transactions returns the transactions in insertion order.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.txs)
}

func (l *Ledger) Totals() core.Totals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.txs)
}

func (l *Ledger) indexLocked(id string) int {
	return slices.IndexFunc(l.txs, func(t core.Transaction) bool { return t.ID == id })
}

// newIDLocked retries on the off chance the generator repeats an id already
// present, e.g. a counter salt reused across sessions.
func (l *Ledger) newIDLocked() string {
	for attempt := 0; ; attempt++ {
		id := l.ids.NewID()
		if attempt >= maxIDAttempts {
			id += "-" + UUIDGenerator{}.NewID()
		}
		if _, taken := l.known[id]; !taken && id != "" {
			return id
		}
	}
}

const maxIDAttempts = 8

func (l *Ledger) persistLocked(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	if err := l.store.Save(ctx, slices.Clone(l.txs)); err != nil {
		l.logger.ErrorContext(ctx, "Failed to persist transactions",
			applog.FieldError, err,
			"count", len(l.txs))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (l *Ledger) snapshotLocked() Snapshot {
	recent := slices.Clone(l.txs)
	slices.Reverse(recent)
	return Snapshot{
		Revision:     l.revision,
		Totals:       l.totals,
		Transactions: recent,
	}
}
