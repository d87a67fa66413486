package core

import (
	"errors"
	"fmt"
	"strings"
)

type Transaction struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Amount   Money    `json:"amount"`
}

var (
	// ErrInvalidInput is wrapped by every validation error so callers can
	// tell user mistakes apart from system failures.
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyName       = fmt.Errorf("%w: name is required", ErrInvalidInput)
	ErrNameTooLong     = fmt.Errorf("%w: name too long (max %d characters)", ErrInvalidInput, MaxNameLength)
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidInput)
	ErrUnknownCategory = fmt.Errorf("%w: unknown category", ErrInvalidInput)
	ErrMissingID       = errors.New("transaction id is empty")
)

const MaxNameLength = 200

// Validate checks the fields a caller controls. The id is checked separately
// because it is assigned by the ledger.
func (t Transaction) Validate() error {
	if !t.Category.Valid() {
		return ErrUnknownCategory
	}
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > MaxNameLength {
		return ErrNameTooLong
	}
	return t.Amount.Validate()
}

// IsIncome reports whether t increases the balance.
func (t Transaction) IsIncome() bool { return t.Category == Income }
