package worker

import (
	"context"
	"fmt"
	"log/slog"

	"tracker/internal/amqp"
	"tracker/internal/ledger"
	applog "tracker/internal/log"
	"tracker/internal/sheets"
	"tracker/internal/storage"
)

// SyncWorker keeps the spreadsheet mirror in step with the shared store.
// Every event triggers a full rewrite from a freshly hydrated ledger, so
// duplicated or out-of-order messages converge on the stored state.
type SyncWorker struct {
	store  storage.KeyValueStore
	mirror sheets.Mirror
	logger *slog.Logger
}

func NewSyncWorker(store storage.KeyValueStore, mirror sheets.Mirror) *SyncWorker {
	return &SyncWorker{
		store:  store,
		mirror: mirror,
		logger: slog.Default().With(applog.FieldComponent, applog.ComponentWorker),
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		"kind", string(msg.Kind),
		applog.FieldTransactionID, msg.ID,
		"timestamp", msg.Timestamp)

	snap, err := w.load(ctx)
	if err != nil {
		return err
	}

	present := containsTransaction(snap, msg.ID)
	switch {
	case msg.Kind == ledger.EventAdded && !present:
		w.logger.WarnContext(ctx, "Added transaction missing from store, mirroring stored state",
			applog.FieldTransactionID, msg.ID)
	case msg.Kind == ledger.EventDeleted && present:
		w.logger.WarnContext(ctx, "Deleted transaction still in store, mirroring stored state",
			applog.FieldTransactionID, msg.ID)
	}

	return w.sync(ctx, snap)
}

// StartupSync mirrors the stored state once, covering events missed while the
// worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	snap, err := w.load(ctx)
	if err != nil {
		return err
	}
	if err := w.sync(ctx, snap); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed",
		applog.FieldOperation, applog.OpStartup,
		"transactions", len(snap.Transactions))
	return nil
}

func (w *SyncWorker) load(ctx context.Context) (ledger.Snapshot, error) {
	l := ledger.New(storage.NewTransactionLog(w.store), ledger.WithLogger(w.logger))
	if err := l.Hydrate(ctx); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("load ledger from store: %w", err)
	}
	return l.Snapshot(), nil
}

func (w *SyncWorker) sync(ctx context.Context, snap ledger.Snapshot) error {
	if err := w.mirror.Sync(ctx, snap); err != nil {
		return fmt.Errorf("sync mirror: %w", err)
	}
	w.logger.InfoContext(ctx, "Mirror updated",
		applog.FieldOperation, applog.OpSync,
		"transactions", len(snap.Transactions),
		"balance_cents", snap.Totals.Balance.Cents)
	return nil
}

func containsTransaction(snap ledger.Snapshot, id string) bool {
	for _, tx := range snap.Transactions {
		if tx.ID == id {
			return true
		}
	}
	return false
}
