package repository

import (
	"context"
	"fmt"

	"github.com/ticketi/ticketi-api/internal/domain"
	"github.com/ticketi/ticketi-api/internal/repository/dao"
)

func (r *TicketRepository) TransactionsByTicket(ctx context.Context, ticketID uint) ([]domain.Transaction, error) {
	if _, err := r.dao.GetByID(ctx, ticketID); err != nil {
		return nil, fmt.Errorf("r.dao.GetByID -> %w", err)
	}

	transactions, err := r.dao.FindTransactionsByTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindTransactionsByTicket -> %w", err)
	}

	return transactionsDaoToDomain(transactions), nil
}

func (r *TicketRepository) TransactionsByUser(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	transactions, err := r.dao.FindTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindTransactionsByUser -> %w", err)
	}

	return transactionsDaoToDomain(transactions), nil
}

func transactionDomainToDao(t domain.Transaction) dao.Transaction {
	status := string(t.Status)
	if status == "" {
		status = dao.TransactionCompleted
	}

	return dao.Transaction{
		ID:              t.ID,
		TicketID:        t.TicketID,
		SellerID:        t.SellerID,
		BuyerID:         t.BuyerID,
		Price:           t.Price,
		TransactionType: string(t.Type),
		Status:          status,
		Timestamp:       t.Timestamp,
	}
}

func transactionDaoToDomain(t dao.Transaction) domain.Transaction {
	return domain.Transaction{
		ID:        t.ID,
		TicketID:  t.TicketID,
		SellerID:  t.SellerID,
		BuyerID:   t.BuyerID,
		Price:     t.Price,
		Type:      domain.TransactionType(t.TransactionType),
		Status:    domain.TransactionStatus(t.Status),
		Timestamp: t.Timestamp,
	}
}

func transactionsDaoToDomain(transactions []dao.Transaction) []domain.Transaction {
	result := make([]domain.Transaction, len(transactions))
	for i, t := range transactions {
		result[i] = transactionDaoToDomain(t)
	}
	return result
}
