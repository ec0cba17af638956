package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrNoTicketsAvailable = errors.New("no tickets available")
)

const (
	StatusAvailable = "available"
	StatusSold      = "sold"
	StatusResale    = "resale"
)

type Ticket struct {
	ID           uint                `gorm:"primaryKey"`
	Code         uuid.UUID           `gorm:"type:uuid;uniqueIndex;not null"`
	EventID      uint                `gorm:"not null;index:idx_tickets_event_status,priority:1"`
	OwnerID      *uint               `gorm:"index"`
	Price        decimal.Decimal     `gorm:"type:numeric;not null"`
	Status       string              `gorm:"not null;default:available;index:idx_tickets_event_status,priority:2"`
	ResalePrice  decimal.NullDecimal `gorm:"type:numeric;check:chk_tickets_resale_price,(status = 'resale') = (resale_price IS NOT NULL)"`
	PurchaseDate *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type StatusCount struct {
	Status string
	Count  int64
}

type TicketDAO struct {
	db *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{
		db: db,
	}
}

// Transaction runs fn inside one database transaction. The TicketDAO handed to fn
// is bound to that transaction; fn returning an error rolls everything back.
func (d *TicketDAO) Transaction(ctx context.Context, fn func(txDAO *TicketDAO) error) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TicketDAO{db: tx})
	})

	return classify(err)
}

// LockEvent takes the event row lock. Purchases of one event queue on it while
// other events proceed independently.
func (d *TicketDAO) LockEvent(ctx context.Context, eventID uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, eventID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, classify(result.Error)
	}

	return event, nil
}

func (d *TicketDAO) GetEvent(ctx context.Context, eventID uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, eventID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *TicketDAO) LockTicket(ctx context.Context, ticketID uint) (Ticket, error) {
	var ticket Ticket

	result := d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ticket, ticketID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ticket{}, ErrTicketNotFound
		}

		return Ticket{}, classify(result.Error)
	}

	return ticket, nil
}

// LockFirstAvailable locks the available ticket with the lowest id for the event.
func (d *TicketDAO) LockFirstAvailable(ctx context.Context, eventID uint) (Ticket, error) {
	var ticket Ticket

	result := d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("event_id = ? AND status = ?", eventID, StatusAvailable).
		Order("id ASC").
		First(&ticket)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ticket{}, ErrNoTicketsAvailable
		}

		return Ticket{}, classify(result.Error)
	}

	return ticket, nil
}

// UpdateState writes the lifecycle columns only if the row still has the
// expected status. Zero rows affected means another writer got there first.
func (d *TicketDAO) UpdateState(ctx context.Context, ticket Ticket, expectedStatus string) (Ticket, error) {
	result := d.db.WithContext(ctx).
		Model(&Ticket{}).
		Where("id = ? AND status = ?", ticket.ID, expectedStatus).
		Updates(map[string]interface{}{
			"status":        ticket.Status,
			"owner_id":      ticket.OwnerID,
			"resale_price":  ticket.ResalePrice,
			"purchase_date": ticket.PurchaseDate,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return Ticket{}, classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return Ticket{}, ErrConcurrencyConflict
	}

	var updated Ticket
	if err := d.db.WithContext(ctx).First(&updated, ticket.ID).Error; err != nil {
		return Ticket{}, fmt.Errorf("d.db.First(ticket) -> %w", err)
	}

	return updated, nil
}

// RecountTicketsSold recomputes the event counter from the ticket rows in the
// current transaction and returns the new value.
func (d *TicketDAO) RecountTicketsSold(ctx context.Context, eventID uint) (int, error) {
	var ticketsSold int

	result := d.db.WithContext(ctx).Raw(
		`UPDATE events
		 SET tickets_sold = (SELECT COUNT(*) FROM tickets WHERE event_id = ? AND status <> ?),
		     updated_at = ?
		 WHERE id = ?
		 RETURNING tickets_sold`,
		eventID, StatusAvailable, time.Now().UTC(), eventID,
	).Scan(&ticketsSold)
	if result.Error != nil {
		return 0, classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrEventNotFound
	}

	return ticketsSold, nil
}

func (d *TicketDAO) GetByID(ctx context.Context, ticketID uint) (Ticket, error) {
	var ticket Ticket

	result := d.db.WithContext(ctx).First(&ticket, ticketID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ticket{}, ErrTicketNotFound
		}

		return Ticket{}, result.Error
	}

	return ticket, nil
}

func (d *TicketDAO) FindByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]Ticket, int64, error) {
	var (
		tickets []Ticket
		total   int64
	)

	query := d.db.WithContext(ctx).Model(&Ticket{}).Where("owner_id = ?", ownerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("query.Count -> %w", err)
	}

	result := query.Order("id ASC").Limit(limit).Offset(offset).Find(&tickets)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return tickets, total, nil
}

func (d *TicketDAO) FindByEventAndStatus(ctx context.Context, eventID uint, status string) ([]Ticket, error) {
	var tickets []Ticket

	query := d.db.WithContext(ctx).Where("event_id = ? AND status = ?", eventID, status)
	if status == StatusResale {
		query = query.Order("resale_price ASC")
	}

	result := query.Order("id ASC").Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

func (d *TicketDAO) CountByStatus(ctx context.Context, eventID uint) ([]StatusCount, error) {
	var counts []StatusCount

	result := d.db.WithContext(ctx).
		Model(&Ticket{}).
		Select("status, COUNT(*) AS count").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&counts)
	if result.Error != nil {
		return nil, result.Error
	}

	return counts, nil
}
