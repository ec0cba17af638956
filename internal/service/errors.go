package service

import (
	"errors"

	"github.com/ticketi/ticketi-api/internal/metrics"
	"github.com/ticketi/ticketi-api/internal/repository"
)

var (
	ErrEventNotFound       = repository.ErrEventNotFound
	ErrEventHasSales       = repository.ErrEventHasSales
	ErrTicketNotFound      = repository.ErrTicketNotFound
	ErrNoTicketsAvailable  = repository.ErrNoTicketsAvailable
	ErrConcurrencyConflict = repository.ErrConcurrencyConflict
)

var (
	ErrEventElapsed       = errors.New("event date has passed")
	ErrUnauthorized       = errors.New("caller is not allowed to act on this resource")
	ErrInvalidState       = errors.New("ticket is not in the required state")
	ErrNotForResale       = errors.New("ticket is not listed for resale")
	ErrCannotBuyOwnTicket = errors.New("cannot buy your own ticket")
	ErrInvalidPrice       = errors.New("price must be a non-negative number")
	ErrInvalidEventDate   = errors.New("event date must be in the future")
	ErrInvalidCapacity    = errors.New("capacity is out of range")
	ErrInvalidEventStatus = errors.New("unknown event status")
	ErrInvalidPage        = errors.New("invalid page parameters")
	ErrInvalidTransaction = errors.New("invalid ledger transaction")
)

// rejections are the errors that describe a refused request rather than a fault.
var rejections = []error{
	ErrEventNotFound,
	ErrEventHasSales,
	ErrTicketNotFound,
	ErrNoTicketsAvailable,
	ErrEventElapsed,
	ErrUnauthorized,
	ErrInvalidState,
	ErrNotForResale,
	ErrCannotBuyOwnTicket,
	ErrInvalidPrice,
	ErrInvalidEventDate,
	ErrInvalidCapacity,
	ErrInvalidEventStatus,
	ErrInvalidPage,
}

var classifyOutcome = metrics.ClassifyWith(ErrConcurrencyConflict, rejections...)
