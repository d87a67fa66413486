package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category classifies a transaction. Income is the only category that
// increases the balance; every other category is an expense.
type Category uint8

const (
	Income Category = iota
	Grocery
	Restaurant
	Transit
	Car
	Home
	Other

	numCategories
)

var categoryNames = [numCategories]string{
	Income:     "income",
	Grocery:    "grocery",
	Restaurant: "restaurant",
	Transit:    "transit",
	Car:        "car",
	Home:       "home",
	Other:      "other",
}

var categoryLabels = [numCategories]string{
	Income:     "Income",
	Grocery:    "Grocery",
	Restaurant: "Restaurant",
	Transit:    "Transit",
	Car:        "Car",
	Home:       "Home",
	Other:      "Other",
}

// Chart colours of the expense categories.
var categoryColors = [numCategories]string{
	Income:     "#018749",
	Grocery:    "#FFADAD",
	Restaurant: "#FFD6A5",
	Transit:    "#CAFFBF",
	Car:        "#98F6FF",
	Home:       "#BDB2FF",
	Other:      "#FDFFB6",
}

// Categories returns every category, income first.
func Categories() []Category {
	out := make([]Category, 0, numCategories)
	for c := Income; c < numCategories; c++ {
		out = append(out, c)
	}
	return out
}

// ExpenseCategories returns the non-income categories in display order.
func ExpenseCategories() []Category {
	return Categories()[1:]
}

// ParseCategory resolves a category name, ignoring case and surrounding spaces.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if name == s {
			return Category(c), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func (c Category) Valid() bool { return c < numCategories }

// IsExpense reports whether amounts in c count towards the expense total.
func (c Category) IsExpense() bool { return c.Valid() && c != Income }

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", uint8(c))
	}
	return categoryNames[c]
}

// Label is the capitalised name shown in the UI.
func (c Category) Label() string {
	if !c.Valid() {
		return c.String()
	}
	return categoryLabels[c]
}

func (c Category) Color() string {
	if !c.Valid() {
		return "#CCCCCC"
	}
	return categoryColors[c]
}

func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(c))
	}
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("category must be a string: %w", err)
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CategoryTotals holds one running total per category. The Income slot is
// never written by the ledger; income has its own total.
type CategoryTotals [numCategories]Money

func (t CategoryTotals) Get(c Category) Money {
	if !c.Valid() {
		return Money{}
	}
	return t[c]
}

// Add returns a copy of t with amount added to c's total.
func (t CategoryTotals) Add(c Category, amount Money) CategoryTotals {
	if c.Valid() {
		t[c] = t[c].Add(amount)
	}
	return t
}

// Sub returns a copy of t with amount removed from c's total.
func (t CategoryTotals) Sub(c Category, amount Money) CategoryTotals {
	if c.Valid() {
		t[c] = t[c].Sub(amount)
	}
	return t
}
