package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionPrimary TransactionType = "primary"
	TransactionResale  TransactionType = "resale"
)

type TransactionStatus string

const TransactionCompleted TransactionStatus = "completed"

// Transaction is one ownership transfer. Rows are never updated or deleted.
type Transaction struct {
	ID        uint              `json:"id"`
	TicketID  uint              `json:"ticket_id"`
	SellerID  uint              `json:"seller_id"`
	BuyerID   uint              `json:"buyer_id"`
	Price     decimal.Decimal   `json:"price"`
	Type      TransactionType   `json:"transaction_type"`
	Status    TransactionStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
}

func (tt Transaction) IsValid() bool {
	if tt.TicketID == 0 || tt.BuyerID == 0 {
		return false
	}
	if tt.Type == TransactionResale && tt.SellerID == tt.BuyerID {
		return false
	}
	if tt.Price.IsNegative() {
		return false
	}
	return tt.Type == TransactionPrimary || tt.Type == TransactionResale
}

// Receipt is what a successful transfer returns to the caller.
type Receipt struct {
	Ticket      Ticket      `json:"ticket"`
	Transaction Transaction `json:"transaction"`
}
