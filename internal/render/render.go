// Package render turns a ledger snapshot into the view shown by the web UI
// and the CLI: formatted totals, the history list, the per-category breakdown
// and the doughnut chart segments.
package render

import (
	"strings"

	"github.com/Rhymond/go-money"

	"tracker/internal/core"
	"tracker/internal/ledger"
)

// EmptyChartMessage is shown instead of the chart when there is nothing to plot.
const EmptyChartMessage = "Please add new transaction."

const DefaultCurrency = "USD"

type View struct {
	Revision uint64 `json:"revision"`
	Currency string `json:"currency"`

	Income  string `json:"income"`
	Expense string `json:"expense"`
	Balance string `json:"balance"`

	IncomeDisplay  string `json:"income_display"`
	ExpenseDisplay string `json:"expense_display"`
	BalanceDisplay string `json:"balance_display"`

	// BalancePositive selects the centre colour; BalanceAbs is the unsigned
	// figure printed in the middle of the chart.
	BalancePositive bool   `json:"balance_positive"`
	BalanceAbs      string `json:"balance_abs"`

	History    []HistoryRow  `json:"history"`
	Categories []CategoryRow `json:"categories"`
	Chart      Chart         `json:"chart"`
}

type HistoryRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Income   bool   `json:"income"`
}

type CategoryRow struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Amount  string `json:"amount"`
	Color   string `json:"color"`
	Percent int    `json:"percent"`
}

type Chart struct {
	Empty    bool      `json:"empty"`
	Message  string    `json:"message,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

type Segment struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Color string `json:"color"`
	// Percent of total expense, rounded; used for the conic-gradient stops.
	Percent int `json:"percent"`
	Start   int `json:"start"`
}

// Build renders snap. An unknown currency code falls back to USD.
func Build(snap ledger.Snapshot, currency string) View {
	currency = normalizeCurrency(currency)
	t := snap.Totals

	v := View{
		Revision:        snap.Revision,
		Currency:        currency,
		Income:          t.Income.String(),
		Expense:         t.Expense.String(),
		Balance:         t.Balance.String(),
		IncomeDisplay:   Display(t.Income, currency),
		ExpenseDisplay:  Display(t.Expense, currency),
		BalanceDisplay:  Display(t.Balance, currency),
		BalancePositive: !t.Balance.IsNegative(),
		BalanceAbs:      t.Balance.Abs().String(),
		History:         make([]HistoryRow, 0, len(snap.Transactions)),
	}

	for _, tx := range snap.Transactions {
		v.History = append(v.History, HistoryRow{
			ID:       tx.ID,
			Name:     tx.Name,
			Category: tx.Category.String(),
			Amount:   tx.Amount.String(),
			Income:   tx.IsIncome(),
		})
	}

	cats := core.ExpenseCategories()
	amounts := make([]core.Money, len(cats))
	for i, c := range cats {
		amounts[i] = t.ByCategory.Get(c)
	}
	shares := apportion(amounts, t.Expense)
	for i, c := range cats {
		v.Categories = append(v.Categories, CategoryRow{
			Key:     c.String(),
			Label:   c.Label(),
			Amount:  amounts[i].String(),
			Color:   c.Color(),
			Percent: shares[i],
		})
	}

	v.Chart = buildChart(snap, v.Categories)
	return v
}

func buildChart(snap ledger.Snapshot, rows []CategoryRow) Chart {
	if len(snap.Transactions) == 0 {
		return Chart{Empty: true, Message: EmptyChartMessage}
	}
	var c Chart
	start := 0
	for _, r := range rows {
		c.Segments = append(c.Segments, Segment{
			Label:   r.Label,
			Value:   r.Amount,
			Color:   r.Color,
			Percent: r.Percent,
			Start:   start,
		})
		start += r.Percent
	}
	return c
}

// apportion splits 100 percent across parts by the largest remainder method,
// so the shares of a positive whole always add up to exactly 100. Every share
// is 0 when whole is not positive.
func apportion(parts []core.Money, whole core.Money) []int {
	shares := make([]int, len(parts))
	if whole.Cents <= 0 {
		return shares
	}
	rems := make([]int64, len(parts))
	total := 0
	for i, p := range parts {
		if p.Cents <= 0 {
			continue
		}
		scaled := p.Cents * 100
		shares[i] = int(scaled / whole.Cents)
		rems[i] = scaled % whole.Cents
		total += shares[i]
	}
	for total < 100 {
		best := -1
		for i, r := range rems {
			if r > 0 && (best < 0 || r > rems[best]) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		shares[best]++
		rems[best] = 0
		total++
	}
	return shares
}

// Display formats m with the currency's symbol and separators, e.g. "$4.50".
// Amounts are rescaled from cents to the currency's own minor unit, rounding
// half away from zero for currencies with fewer than two decimals.
func Display(m core.Money, currency string) string {
	code := normalizeCurrency(currency)
	fraction := money.GetCurrency(code).Fraction
	minor := m.Decimal().Shift(int32(fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}

func normalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || money.GetCurrency(code) == nil {
		return DefaultCurrency
	}
	return code
}
