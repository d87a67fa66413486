package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(" " + strings.ToUpper(c.String()) + " ")
		if err != nil || got != c {
			t.Fatalf("ParseCategory(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseCategory("salary"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestExpenseCategories(t *testing.T) {
	got := ExpenseCategories()
	want := []Category{Grocery, Restaurant, Transit, Car, Home, Other}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] || !got[i].IsExpense() {
			t.Fatalf("position %d: got %v want %v", i, got[i], want[i])
		}
	}
	if Income.IsExpense() {
		t.Fatalf("income must not be an expense")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Category: Grocery, Name: "Milk", Amount: Cents(450)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zero := Transaction{Category: Other, Name: "Free sample", Amount: Cents(0)}
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be allowed, got %v", err)
	}

	bads := []Transaction{
		{Category: Grocery, Name: "  ", Amount: Cents(1)},
		{Category: Grocery, Name: strings.Repeat("x", MaxNameLength+1), Amount: Cents(1)},
		{Category: Grocery, Name: "a", Amount: Cents(-1)},
		{Category: Category(42), Name: "a", Amount: Cents(1)},
	}
	for i, tx := range bads {
		err := tx.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: %v does not wrap ErrInvalidInput", i, err)
		}
	}
}

func TestTransactionJSON(t *testing.T) {
	in := `{"id":"abc","category":"grocery","name":"Milk","amount":4.5}`
	var tx Transaction
	if err := json.Unmarshal([]byte(in), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tx.ID != "abc" || tx.Category != Grocery || tx.Name != "Milk" || tx.Amount.Cents != 450 {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	out, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != in {
		t.Fatalf("marshal = %s, want %s", out, in)
	}

	if err := json.Unmarshal([]byte(`{"category":"salary"}`), &tx); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestTotalsApplyRevert(t *testing.T) {
	var s Totals
	milk := Transaction{ID: "1", Category: Grocery, Name: "Milk", Amount: Cents(450)}
	pay := Transaction{ID: "2", Category: Income, Name: "Paycheck", Amount: Cents(100000)}

	s = s.Apply(milk)
	if s.Income.Cents != 0 || s.Expense.Cents != 450 || s.Balance.Cents != -450 || s.ByCategory.Get(Grocery).Cents != 450 {
		t.Fatalf("after milk: %+v", s)
	}
	s = s.Apply(pay)
	if s.Income.Cents != 100000 || s.Balance.Cents != 99550 {
		t.Fatalf("after paycheck: %+v", s)
	}
	if s.ByCategory.Get(Income).Cents != 0 {
		t.Fatalf("income must not be tracked per category")
	}
	s = s.Revert(milk)
	if s.Expense.Cents != 0 || s.Balance.Cents != 100000 || s.ByCategory.Get(Grocery).Cents != 0 {
		t.Fatalf("after revert: %+v", s)
	}
	if got := Recompute([]Transaction{milk, pay}); got != (Totals{}).Apply(milk).Apply(pay) {
		t.Fatalf("Recompute mismatch: %+v", got)
	}
}
