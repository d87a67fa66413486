// Package sheets describes the spreadsheet mirror of the ledger and the rows
// written to it.
package sheets

import (
	"context"

	"tracker/internal/core"
	"tracker/internal/ledger"
)

// Mirror replaces the contents of an external spreadsheet with a snapshot.
type Mirror interface {
	Sync(ctx context.Context, snap ledger.Snapshot) error
}

var (
	HistoryHeader    = []any{"ID", "Category", "Name", "Amount"}
	CategoriesHeader = []any{"Category", "Total"}
)

// HistoryRows returns the header followed by one row per transaction, most
// recent first. Amounts are plain two-decimal strings.
func HistoryRows(snap ledger.Snapshot) [][]any {
	rows := make([][]any, 0, len(snap.Transactions)+1)
	rows = append(rows, HistoryHeader)
	for _, tx := range snap.Transactions {
		rows = append(rows, []any{tx.ID, tx.Category.Label(), tx.Name, tx.Amount.String()})
	}
	return rows
}

// CategoryRows returns the header, the income total, one row per expense
// category and the expense and balance totals.
func CategoryRows(totals core.Totals) [][]any {
	rows := [][]any{CategoriesHeader, {core.Income.Label(), totals.Income.String()}}
	for _, c := range core.ExpenseCategories() {
		rows = append(rows, []any{c.Label(), totals.ByCategory.Get(c).String()})
	}
	rows = append(rows,
		[]any{"Expense", totals.Expense.String()},
		[]any{"Balance", totals.Balance.String()},
	)
	return rows
}
