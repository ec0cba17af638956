package repository

import (
	"context"
	"fmt"

	"github.com/ticketi/ticketi-api/internal/domain"
	"github.com/ticketi/ticketi-api/internal/repository/dao"
)

var (
	ErrEventNotFound     = dao.ErrEventNotFound
	ErrEventHasSales     = dao.ErrEventHasSales
	ErrInventoryMismatch = dao.ErrInventoryMismatch
)

type EventDAO interface {
	CreateWithInventory(ctx context.Context, event dao.Event, batchSize int) (dao.Event, error)
	GetByID(ctx context.Context, id uint) (dao.Event, error)
	FindByOrganizer(ctx context.Context, organizerID uint) ([]dao.Event, error)
	Update(ctx context.Context, event dao.Event) (dao.Event, error)
	Delete(ctx context.Context, id uint) error
}

type EventRepository struct {
	dao       EventDAO
	batchSize int
}

func NewEventRepository(dao EventDAO, batchSize int) *EventRepository {
	if batchSize <= 0 {
		batchSize = 500
	}

	return &EventRepository{
		dao:       dao,
		batchSize: batchSize,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.CreateWithInventory(ctx, eventDomainToDao(event), r.batchSize)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.CreateWithInventory -> %w", err)
	}

	return eventDaoToDomain(created), nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uint) (domain.Event, error) {
	event, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.GetByID -> %w", err)
	}

	return eventDaoToDomain(event), nil
}

func (r *EventRepository) FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error) {
	events, err := r.dao.FindByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByOrganizer -> %w", err)
	}

	result := make([]domain.Event, len(events))
	for i, e := range events {
		result[i] = eventDaoToDomain(e)
	}

	return result, nil
}

func (r *EventRepository) Update(ctx context.Context, event domain.Event) (domain.Event, error) {
	updated, err := r.dao.Update(ctx, eventDomainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return eventDaoToDomain(updated), nil
}

func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func eventDomainToDao(e domain.Event) dao.Event {
	return dao.Event{
		ID:          e.ID,
		Name:        e.Name,
		Location:    e.Location,
		LocationLat: e.LocationLat,
		LocationLng: e.LocationLng,
		Description: e.Description,
		Image:       e.Image,
		Date:        e.Date,
		Price:       e.Price,
		Capacity:    e.Capacity,
		TicketsSold: e.TicketsSold,
		Status:      string(e.Status),
		Category:    e.Category,
		OrganizerID: e.OrganizerID,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func eventDaoToDomain(e dao.Event) domain.Event {
	return domain.Event{
		ID:          e.ID,
		Name:        e.Name,
		Location:    e.Location,
		LocationLat: e.LocationLat,
		LocationLng: e.LocationLng,
		Description: e.Description,
		Image:       e.Image,
		Date:        e.Date,
		Price:       e.Price,
		Capacity:    e.Capacity,
		TicketsSold: e.TicketsSold,
		Status:      domain.EventStatus(e.Status),
		Category:    e.Category,
		OrganizerID: e.OrganizerID,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
