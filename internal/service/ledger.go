package service

import (
	"context"
	"fmt"

	"github.com/ticketi/ticketi-api/internal/domain"
)

type LedgerRepository interface {
	TransactionsByTicket(ctx context.Context, ticketID uint) ([]domain.Transaction, error)
	TransactionsByUser(ctx context.Context, userID uint) ([]domain.Transaction, error)
}

// TransactionAppender is satisfied by the unit-of-work store so ledger rows
// commit together with the ticket change they describe.
type TransactionAppender interface {
	AppendTransaction(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error)
}

type Ledger struct {
	repo LedgerRepository
}

func NewLedger(repo LedgerRepository) *Ledger {
	return &Ledger{
		repo: repo,
	}
}

// Record appends one completed transfer. There is no update or delete counterpart.
func (l *Ledger) Record(ctx context.Context, store TransactionAppender, transaction domain.Transaction) (domain.Transaction, error) {
	transaction.ID = 0
	transaction.Status = domain.TransactionCompleted
	if !transaction.IsValid() {
		return domain.Transaction{}, fmt.Errorf("ticket %d: %w", transaction.TicketID, ErrInvalidTransaction)
	}

	created, err := store.AppendTransaction(ctx, transaction)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("store.AppendTransaction -> %w", err)
	}

	return created, nil
}

func (l *Ledger) TicketHistory(ctx context.Context, ticketID uint) ([]domain.Transaction, error) {
	transactions, err := l.repo.TransactionsByTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("l.repo.TransactionsByTicket -> %w", err)
	}

	return transactions, nil
}

func (l *Ledger) UserHistory(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	transactions, err := l.repo.TransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("l.repo.TransactionsByUser -> %w", err)
	}

	return transactions, nil
}
