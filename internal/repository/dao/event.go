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
	ErrEventNotFound     = errors.New("event not found")
	ErrEventHasSales     = errors.New("event has sold tickets")
	ErrInventoryMismatch = errors.New("created ticket count does not match capacity")
)

type Event struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Location    string `gorm:"not null"`
	LocationLat *float64
	LocationLng *float64
	Description string `gorm:"not null"`
	Image       string
	Date        time.Time       `gorm:"not null;index"`
	Price       decimal.Decimal `gorm:"type:numeric;not null"`
	Capacity    int             `gorm:"not null;check:chk_events_capacity,capacity > 0"`
	TicketsSold int             `gorm:"not null;default:0;check:chk_events_tickets_sold,tickets_sold <= capacity"`
	Status      string          `gorm:"not null;default:upcoming"`
	Category    string          `gorm:"index"`
	OrganizerID uint            `gorm:"not null;index"`
	Tickets     []Ticket        `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

// CreateWithInventory inserts the event and exactly Capacity available tickets
// in one transaction.
func (d *EventDAO) CreateWithInventory(ctx context.Context, event Event, batchSize int) (Event, error) {
	event.Tickets = nil

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("tx.Create(event) -> %w", err)
		}

		tickets := make([]Ticket, event.Capacity)
		for i := range tickets {
			tickets[i] = Ticket{
				Code:    uuid.New(),
				EventID: event.ID,
				Price:   event.Price,
				Status:  StatusAvailable,
			}
		}

		result := tx.CreateInBatches(&tickets, batchSize)
		if result.Error != nil {
			return fmt.Errorf("tx.CreateInBatches(tickets) -> %w", result.Error)
		}
		if result.RowsAffected != int64(event.Capacity) {
			return ErrInventoryMismatch
		}

		return nil
	})
	if err != nil {
		return Event{}, classify(err)
	}

	return event, nil
}

func (d *EventDAO) GetByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByOrganizer(ctx context.Context, organizerID uint) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).
		Where("organizer_id = ?", organizerID).
		Order("date DESC").
		Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

// Update writes the mutable columns. Capacity and tickets_sold are never touched here.
func (d *EventDAO) Update(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).
		Model(&Event{ID: event.ID}).
		Select("Name", "Location", "LocationLat", "LocationLng", "Description", "Image", "Date", "Price", "Status", "Category").
		Updates(&event)
	if result.Error != nil {
		return Event{}, classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return Event{}, ErrEventNotFound
	}

	return d.GetByID(ctx, event.ID)
}

// Delete removes an event and its inventory, refusing once any ticket was sold.
func (d *EventDAO) Delete(ctx context.Context, id uint) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event Event
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		var transferred int64
		err = tx.Model(&Ticket{}).
			Where("event_id = ? AND status <> ?", id, StatusAvailable).
			Count(&transferred).Error
		if err != nil {
			return fmt.Errorf("tx.Count(tickets) -> %w", err)
		}
		if event.TicketsSold > 0 || transferred > 0 {
			return ErrEventHasSales
		}

		if err := tx.Where("event_id = ?", id).Delete(&Ticket{}).Error; err != nil {
			return fmt.Errorf("tx.Delete(tickets) -> %w", err)
		}
		if err := tx.Delete(&Event{}, id).Error; err != nil {
			return fmt.Errorf("tx.Delete(event) -> %w", err)
		}

		return nil
	})

	return classify(err)
}
