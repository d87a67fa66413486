package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"tracker/internal/core"
	"tracker/internal/ledger"
)

// LedgerEventMessage announces that a transaction was added to or deleted
// from the ledger. It carries the full record so consumers do not need to
// read the store to describe the change.
type LedgerEventMessage struct {
	Kind        ledger.EventKind `json:"kind"`
	ID          string           `json:"id"`
	Category    string           `json:"category"`
	Name        string           `json:"name"`
	AmountCents int64            `json:"amount_cents"`
	Timestamp   time.Time        `json:"timestamp"`
}

func NewLedgerEventMessage(kind ledger.EventKind, tx core.Transaction) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:        kind,
		ID:          tx.ID,
		Category:    tx.Category.String(),
		Name:        tx.Name,
		AmountCents: tx.Amount.Cents,
		Timestamp:   time.Now(),
	}
}

// Transaction rebuilds the record described by the message.
func (m *LedgerEventMessage) Transaction() (core.Transaction, error) {
	category, err := core.ParseCategory(m.Category)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("message %s: %w", m.ID, err)
	}
	return core.Transaction{
		ID:       m.ID,
		Category: category,
		Name:     m.Name,
		Amount:   core.Cents(m.AmountCents),
	}, nil
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case ledger.EventAdded, ledger.EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	return &msg, nil
}
