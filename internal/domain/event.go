package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case EventUpcoming, EventOngoing, EventCompleted:
		return true
	}
	return false
}

type Event struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Location    string          `json:"location"`
	LocationLat *float64        `json:"location_lat"`
	LocationLng *float64        `json:"location_lng"`
	Description string          `json:"description"`
	Image       string          `json:"image,omitempty"`
	Date        time.Time       `json:"date"`
	Price       decimal.Decimal `json:"price"`
	Capacity    int             `json:"capacity"`
	TicketsSold int             `json:"tickets_sold"`
	Status      EventStatus     `json:"status"`
	Category    string          `json:"category,omitempty"`
	OrganizerID uint            `json:"organizer_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HasElapsed reports whether the event date is not strictly after now.
func (e Event) HasElapsed(now time.Time) bool {
	return !e.Date.After(now)
}

func (e Event) IsOrganizer(userID uint) bool {
	return e.OrganizerID == userID
}

// EventPatch carries the mutable fields of an event. Nil means unchanged.
type EventPatch struct {
	Name        *string
	Location    *string
	LocationLat *float64
	LocationLng *float64
	Description *string
	Image       *string
	Date        *time.Time
	Price       *decimal.Decimal
	Status      *EventStatus
	Category    *string
}

func (p EventPatch) Apply(e Event) Event {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.LocationLat != nil {
		e.LocationLat = p.LocationLat
	}
	if p.LocationLng != nil {
		e.LocationLng = p.LocationLng
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Image != nil {
		e.Image = *p.Image
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Price != nil {
		e.Price = *p.Price
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	return e
}

type Availability struct {
	EventID   uint `json:"event_id"`
	Capacity  int  `json:"capacity"`
	Available int  `json:"available"`
	Resale    int  `json:"resale"`
	Sold      int  `json:"sold"`
}
