package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTransition = errors.New("ticket is not in the state required by this transition")
	ErrNegativePrice     = errors.New("price must be a non-negative number")
)

type TicketStatus string

const (
	TicketAvailable TicketStatus = "available"
	TicketSold      TicketStatus = "sold"
	TicketResale    TicketStatus = "resale"
)

// legalTransitions is the complete ticket lifecycle: available -> sold -> (resale -> sold)*.
var legalTransitions = map[TicketStatus][]TicketStatus{
	TicketAvailable: {TicketSold},
	TicketSold:      {TicketResale},
	TicketResale:    {TicketSold},
}

func CanTransition(from, to TicketStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Ticket struct {
	ID           uint             `json:"id"`
	Code         uuid.UUID        `json:"code"`
	EventID      uint             `json:"event_id"`
	OwnerID      *uint            `json:"owner_id"`
	Price        decimal.Decimal  `json:"price"`
	Status       TicketStatus     `json:"status"`
	ResalePrice  *decimal.Decimal `json:"resale_price"`
	PurchaseDate *time.Time       `json:"purchase_date"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func NewTicket(eventID uint, price decimal.Decimal) Ticket {
	return Ticket{
		Code:    uuid.New(),
		EventID: eventID,
		Price:   price,
		Status:  TicketAvailable,
	}
}

func (t Ticket) IsOwnedBy(userID uint) bool {
	return t.OwnerID != nil && *t.OwnerID == userID
}

// transition is the only place a ticket status changes.
func (t *Ticket) transition(to TicketStatus) error {
	if !CanTransition(t.Status, to) {
		return fmt.Errorf("%s -> %s: %w", t.Status, to, ErrInvalidTransition)
	}
	t.Status = to
	return nil
}

// SellTo performs a primary sale.
func (t *Ticket) SellTo(buyerID uint, now time.Time) error {
	if t.Status != TicketAvailable {
		return fmt.Errorf("%s -> %s: %w", t.Status, TicketSold, ErrInvalidTransition)
	}
	if err := t.transition(TicketSold); err != nil {
		return err
	}
	t.OwnerID = &buyerID
	t.PurchaseDate = &now
	t.ResalePrice = nil
	return nil
}

func (t *Ticket) ListForResale(price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrNegativePrice
	}
	if err := t.transition(TicketResale); err != nil {
		return err
	}
	t.ResalePrice = &price
	return nil
}

func (t *Ticket) CancelResale() error {
	if t.Status != TicketResale {
		return fmt.Errorf("%s -> %s: %w", t.Status, TicketSold, ErrInvalidTransition)
	}
	if err := t.transition(TicketSold); err != nil {
		return err
	}
	t.ResalePrice = nil
	return nil
}

// ResellTo transfers a listed ticket to a new owner and returns the price paid.
func (t *Ticket) ResellTo(buyerID uint, now time.Time) (decimal.Decimal, error) {
	if t.Status != TicketResale || t.ResalePrice == nil {
		return decimal.Zero, fmt.Errorf("%s -> %s: %w", t.Status, TicketSold, ErrInvalidTransition)
	}
	paid := *t.ResalePrice
	if err := t.transition(TicketSold); err != nil {
		return decimal.Zero, err
	}
	t.OwnerID = &buyerID
	t.PurchaseDate = &now
	t.ResalePrice = nil
	return paid, nil
}

type ResaleListing struct {
	TicketID      uint            `json:"ticket_id"`
	EventID       uint            `json:"event_id"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	ResalePrice   decimal.Decimal `json:"resale_price"`
	SellerID      uint            `json:"seller_id"`
}

type TicketPage struct {
	Tickets []Ticket `json:"tickets"`
	Total   int64    `json:"total"`
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
}

func (p TicketPage) TotalPages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p TicketPage) HasNext() bool {
	return p.Page < p.TotalPages()
}
