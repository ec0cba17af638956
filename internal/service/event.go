package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ticketi/ticketi-api/internal/config"
	"github.com/ticketi/ticketi-api/internal/domain"
)

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	GetByID(ctx context.Context, id uint) (domain.Event, error)
	FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error)
	Update(ctx context.Context, event domain.Event) (domain.Event, error)
	Delete(ctx context.Context, id uint) error
}

type EventService struct {
	repo  EventRepository
	cache AvailabilityCache
	conf  *config.TicketingConfig
	now   func() time.Time
}

func NewEventService(repo EventRepository, cache AvailabilityCache, conf *config.TicketingConfig) *EventService {
	return &EventService{
		repo:  repo,
		cache: cache,
		conf:  conf,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateEvent validates the event and provisions its full ticket inventory.
func (s *EventService) CreateEvent(ctx context.Context, organizerID uint, event domain.Event) (domain.Event, error) {
	if !event.Date.After(s.now()) {
		return domain.Event{}, ErrInvalidEventDate
	}
	if event.Price.IsNegative() {
		return domain.Event{}, ErrInvalidPrice
	}
	if event.Capacity <= 0 || (s.conf.MaxCapacity > 0 && event.Capacity > s.conf.MaxCapacity) {
		return domain.Event{}, fmt.Errorf("capacity %d: %w", event.Capacity, ErrInvalidCapacity)
	}
	if event.Status == "" {
		event.Status = domain.EventUpcoming
	}
	if !event.Status.IsValid() {
		return domain.Event{}, ErrInvalidEventStatus
	}

	event.ID = 0
	event.TicketsSold = 0
	event.OrganizerID = organizerID

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	zap.L().Info("event provisioned",
		zap.Uint("event_id", created.ID),
		zap.Uint("organizer_id", organizerID),
		zap.Int("capacity", created.Capacity),
	)

	return created, nil
}

func (s *EventService) GetEvent(ctx context.Context, eventID uint) (domain.Event, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	return event, nil
}

func (s *EventService) ListOrganizerEvents(ctx context.Context, organizerID uint) ([]domain.Event, error) {
	events, err := s.repo.FindByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByOrganizer -> %w", err)
	}

	return events, nil
}

// UpdateEvent applies a partial update. Capacity and the sold counter are not
// part of the patch; issued tickets keep the price they were created with.
func (s *EventService) UpdateEvent(ctx context.Context, eventID, callerID uint, patch domain.EventPatch) (domain.Event, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	if !event.IsOrganizer(callerID) {
		return domain.Event{}, ErrUnauthorized
	}

	if patch.Date != nil && !patch.Date.After(s.now()) {
		return domain.Event{}, ErrInvalidEventDate
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return domain.Event{}, ErrInvalidPrice
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return domain.Event{}, ErrInvalidEventStatus
	}

	updated, err := s.repo.Update(ctx, patch.Apply(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, eventID, callerID uint) error {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	if !event.IsOrganizer(callerID) {
		return ErrUnauthorized
	}

	if err := s.repo.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		zap.L().Warn("availability cache invalidation failed", zap.Uint("event_id", eventID), zap.Error(err))
	}

	return nil
}
