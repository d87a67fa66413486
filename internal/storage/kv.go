// Package storage persists the transaction log in a key-value string store.
//
// The whole ordered list is stored as one JSON array under TransactionKey and
// rewritten on every change.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tracker/internal/core"
)

// TransactionKey is the key the transaction log is stored under.
const TransactionKey = "transactions"

// KeyValueStore is a string-to-string store.
type KeyValueStore interface {
	// Get returns the value for key; found is false when the key was never set.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// EncodeTransactions serializes txs as a JSON array, preserving order.
func EncodeTransactions(txs []core.Transaction) (string, error) {
	if txs == nil {
		txs = []core.Transaction{}
	}
	b, err := json.Marshal(txs)
	if err != nil {
		return "", fmt.Errorf("encode transactions: %w", err)
	}
	return string(b), nil
}

// DecodeTransactions parses the output of EncodeTransactions. A blank value
// decodes to an empty list.
func DecodeTransactions(s string) ([]core.Transaction, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var txs []core.Transaction
	if err := json.Unmarshal([]byte(s), &txs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return txs, nil
}

// TransactionLog stores the ledger in a KeyValueStore.
type TransactionLog struct {
	kv  KeyValueStore
	key string
}

func NewTransactionLog(kv KeyValueStore) *TransactionLog {
	return &TransactionLog{kv: kv, key: TransactionKey}
}

// Load implements ledger.Store
func (l *TransactionLog) Load(ctx context.Context) ([]core.Transaction, error) {
	v, found, err := l.kv.Get(ctx, l.key)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", l.key, err)
	}
	if !found {
		return nil, nil
	}
	return DecodeTransactions(v)
}

// Save implements ledger.Store
func (l *TransactionLog) Save(ctx context.Context, txs []core.Transaction) error {
	v, err := EncodeTransactions(txs)
	if err != nil {
		return err
	}
	if err := l.kv.Set(ctx, l.key, v); err != nil {
		return fmt.Errorf("write %q: %w", l.key, err)
	}
	return nil
}
