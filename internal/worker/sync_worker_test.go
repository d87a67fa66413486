package worker

import (
	"context"
	"errors"
	"testing"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/ledger"
	sheetsmem "tracker/internal/sheets/memory"
	"tracker/internal/storage"
	"tracker/internal/storage/memory"
)

type failingMirror struct{ err error }

func (f failingMirror) Sync(context.Context, ledger.Snapshot) error { return f.err }

func seedStore(t *testing.T, txs ...core.Transaction) *memory.Store {
	t.Helper()
	store := memory.New()
	if err := storage.NewTransactionLog(store).Save(context.Background(), txs); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func TestHandleLedgerEvent_MirrorsStoredState(t *testing.T) {
	store := seedStore(t,
		core.Transaction{ID: "a", Category: core.Income, Name: "Salary", Amount: core.Cents(2000)},
		core.Transaction{ID: "b", Category: core.Grocery, Name: "Milk", Amount: core.Cents(450)},
	)
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror)

	msg := &amqp.LedgerEventMessage{Kind: ledger.EventAdded, ID: "b"}
	if err := w.HandleLedgerEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleLedgerEvent() error = %v", err)
	}

	history := mirror.History()
	if len(history) != 3 {
		t.Fatalf("history rows = %d, want 3", len(history))
	}
	if history[1][0] != "b" {
		t.Errorf("most recent transaction should come first, got %v", history[1])
	}
}

func TestHandleLedgerEvent_DeletedStillSyncs(t *testing.T) {
	store := seedStore(t)
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror)

	msg := &amqp.LedgerEventMessage{Kind: ledger.EventDeleted, ID: "gone"}
	if err := w.HandleLedgerEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleLedgerEvent() error = %v", err)
	}
	if mirror.Syncs() != 1 || len(mirror.History()) != 1 {
		t.Fatalf("expected one sync with header only, syncs = %d rows = %d", mirror.Syncs(), len(mirror.History()))
	}
}

func TestHandleLedgerEvent_Errors(t *testing.T) {
	ctx := context.Background()
	msg := &amqp.LedgerEventMessage{Kind: ledger.EventAdded, ID: "a"}

	t.Run("corrupt store", func(t *testing.T) {
		store := memory.New()
		if err := store.Set(ctx, storage.TransactionKey, "{not json"); err != nil {
			t.Fatal(err)
		}
		w := NewSyncWorker(store, sheetsmem.New())
		if err := w.HandleLedgerEvent(ctx, msg); err == nil {
			t.Fatal("expected error for corrupt store")
		}
	})

	t.Run("mirror failure", func(t *testing.T) {
		boom := errors.New("sheets unavailable")
		w := NewSyncWorker(seedStore(t), failingMirror{err: boom})
		if err := w.HandleLedgerEvent(ctx, msg); !errors.Is(err, boom) {
			t.Fatalf("HandleLedgerEvent() error = %v, want %v", err, boom)
		}
	})
}

func TestStartupSync(t *testing.T) {
	store := seedStore(t,
		core.Transaction{ID: "a", Category: core.Home, Name: "Rent", Amount: core.Cents(1500)},
	)
	mirror := sheetsmem.New()
	if err := NewSyncWorker(store, mirror).StartupSync(context.Background()); err != nil {
		t.Fatalf("StartupSync() error = %v", err)
	}

	var home any
	for _, row := range mirror.Categories() {
		if row[0] == "Home" {
			home = row[1]
		}
	}
	if home != "15.00" {
		t.Fatalf("home total = %v, want 15.00", home)
	}
}
