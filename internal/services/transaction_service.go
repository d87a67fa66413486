package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tracker/internal/core"
	"tracker/internal/ledger"
	applog "tracker/internal/log"
)

// EventPublisher forwards ledger changes to other processes.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, kind ledger.EventKind, tx core.Transaction) error
	Close() error
}

// TransactionService validates user input before it reaches the ledger and
// announces every change on the optional publisher.
type TransactionService struct {
	ledger    *ledger.Ledger
	publisher EventPublisher
	logger    *slog.Logger
}

func NewTransactionService(l *ledger.Ledger, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		ledger:    l,
		publisher: publisher,
		logger:    slog.Default().With(applog.FieldComponent, applog.ComponentLedger),
	}
}

// Input is the raw form data of a new transaction.
type Input struct {
	Category string
	Name     string
	Amount   string
}

// Parse validates in and returns the transaction it describes, without an
// id. Every error wraps core.ErrInvalidInput.
func Parse(in Input) (core.Transaction, error) {
	name := sanitizeInput(in.Name)
	amount := strings.TrimSpace(in.Amount)
	if name == "" || amount == "" {
		return core.Transaction{}, fmt.Errorf("%w: name and amount are required", core.ErrInvalidInput)
	}
	category, err := core.ParseCategory(in.Category)
	if err != nil {
		return core.Transaction{}, err
	}
	money, err := core.ParseAmount(amount)
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{Category: category, Name: name, Amount: money}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// Record validates in and adds it to the ledger.
func (s *TransactionService) Record(ctx context.Context, in Input) (core.Transaction, error) {
	parsed, err := Parse(in)
	if err != nil {
		s.logger.InfoContext(ctx, "Rejected transaction input",
			applog.FieldOperation, applog.OpValidate,
			applog.FieldError, err)
		return core.Transaction{}, err
	}

	tx, err := s.ledger.Add(ctx, parsed.Category, parsed.Name, parsed.Amount)
	if err != nil {
		// The ledger keeps the transaction even when the write failed.
		return tx, fmt.Errorf("record transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction recorded",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithTransaction(tx.ID, tx.Category.String(), tx.Name, tx.Amount.Cents).
			ToSlice()...)
	s.publish(ctx, ledger.EventAdded, tx)
	return tx, nil
}

// Remove deletes the transaction with id. A missing id is not an error and
// reports false.
func (s *TransactionService) Remove(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	tx, found := s.ledger.FindByID(id)
	if !found {
		s.logger.DebugContext(ctx, "Delete of unknown transaction ignored", applog.FieldTransactionID, id)
		return false, nil
	}
	removed, err := s.ledger.Delete(ctx, id)
	if err != nil {
		return removed, fmt.Errorf("remove transaction: %w", err)
	}
	if removed {
		s.logger.InfoContext(ctx, "Transaction removed",
			applog.FieldOperation, applog.OpDelete,
			applog.FieldTransactionID, id)
		s.publish(ctx, ledger.EventDeleted, tx)
	}
	return removed, nil
}

func (s *TransactionService) Ledger() *ledger.Ledger { return s.ledger }

func (s *TransactionService) publish(ctx context.Context, kind ledger.EventKind, tx core.Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, kind, tx); err != nil {
		// The change is already applied locally.
		fields := applog.NewFields().
			WithTransaction(tx.ID, tx.Category.String(), tx.Name, tx.Amount.Cents).
			WithError(err)
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			append(fields.ToSlice(), "kind", string(kind))...)
	}
}

// Close closes the publisher.
func (s *TransactionService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	return nil
}

// IsInvalidInput reports whether err is a user input problem.
func IsInvalidInput(err error) bool {
	return errors.Is(err, core.ErrInvalidInput)
}

// sanitizeInput trims whitespace and drops control characters other than
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
