package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionPrimary   = "primary"
	TransactionResale    = "resale"
	TransactionCompleted = "completed"
)

// Transaction rows form the append-only ownership ledger. The DAO exposes no
// update or delete.
type Transaction struct {
	ID              uint            `gorm:"primaryKey"`
	TicketID        uint            `gorm:"not null;index"`
	Ticket          Ticket          `gorm:"foreignKey:TicketID;constraint:OnDelete:RESTRICT"`
	SellerID        uint            `gorm:"not null;index"`
	BuyerID         uint            `gorm:"not null;index"`
	Price           decimal.Decimal `gorm:"type:numeric;not null"`
	TransactionType string          `gorm:"not null"`
	Status          string          `gorm:"not null;default:completed"`
	Timestamp       time.Time       `gorm:"not null;index"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (d *TicketDAO) InsertTransaction(ctx context.Context, transaction Transaction) (Transaction, error) {
	transaction.ID = 0
	if transaction.Timestamp.IsZero() {
		transaction.Timestamp = time.Now().UTC()
	}

	result := d.db.WithContext(ctx).Omit("Ticket").Create(&transaction)
	if result.Error != nil {
		return Transaction{}, classify(result.Error)
	}

	return transaction, nil
}

func (d *TicketDAO) FindTransactionsByTicket(ctx context.Context, ticketID uint) ([]Transaction, error) {
	var transactions []Transaction

	result := d.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("timestamp ASC, id ASC").
		Find(&transactions)
	if result.Error != nil {
		return nil, fmt.Errorf("d.db.Find(transactions) -> %w", result.Error)
	}

	return transactions, nil
}

func (d *TicketDAO) FindTransactionsByUser(ctx context.Context, userID uint) ([]Transaction, error) {
	var transactions []Transaction

	result := d.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("timestamp DESC, id DESC").
		Find(&transactions)
	if result.Error != nil {
		return nil, fmt.Errorf("d.db.Find(transactions) -> %w", result.Error)
	}

	return transactions, nil
}

func (d *TicketDAO) CountTransactions(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&Transaction{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
