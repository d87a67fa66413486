package core

// Totals are the aggregates derived from a set of transactions.
type Totals struct {
	Income     Money
	Expense    Money
	Balance    Money
	ByCategory CategoryTotals
}

// Apply accumulates t into the totals.
func (s Totals) Apply(t Transaction) Totals {
	if t.IsIncome() {
		s.Income = s.Income.Add(t.Amount)
		s.Balance = s.Balance.Add(t.Amount)
		return s
	}
	s.Expense = s.Expense.Add(t.Amount)
	s.Balance = s.Balance.Sub(t.Amount)
	s.ByCategory = s.ByCategory.Add(t.Category, t.Amount)
	return s
}

// Revert is the exact inverse of Apply.
func (s Totals) Revert(t Transaction) Totals {
	if t.IsIncome() {
		s.Income = s.Income.Sub(t.Amount)
		s.Balance = s.Balance.Sub(t.Amount)
		return s
	}
	s.Expense = s.Expense.Sub(t.Amount)
	s.Balance = s.Balance.Add(t.Amount)
	s.ByCategory = s.ByCategory.Sub(t.Category, t.Amount)
	return s
}

// Recompute replays Apply over txs starting from zero.
func Recompute(txs []Transaction) Totals {
	var s Totals
	for _, t := range txs {
		s = s.Apply(t)
	}
	return s
}
