package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tracker/internal/storage"
)

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatalf("unexpected value in new store")
	}
	if err := s.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = s.Set(ctx, "k", "v2")
	v, found, err := s.Get(ctx, "k")
	if err != nil || !found || v != "v2" {
		t.Fatalf("get = %q, %v, %v", v, found, err)
	}
	if s.Writes() != 2 {
		t.Fatalf("writes = %d", s.Writes())
	}
}

func TestNewFromDir(t *testing.T) {
	dir := t.TempDir()
	seed := `[{"id":"x","category":"home","name":"Rent","amount":900}]`
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(seed+"\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s := NewFromDir(dir)
	txs, err := storage.NewTransactionLog(s).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(txs) != 1 || txs[0].Amount.Cents != 90000 {
		t.Fatalf("seeded transactions = %+v", txs)
	}

	empty := NewFromDir(filepath.Join(dir, "missing"))
	if _, found, _ := empty.Get(context.Background(), storage.TransactionKey); found {
		t.Fatalf("missing seed file should leave store empty")
	}
}
