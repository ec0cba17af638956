package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ticketi/ticketi-api/internal/domain"
	"github.com/ticketi/ticketi-api/internal/repository/dao"
)

var (
	ErrTicketNotFound      = dao.ErrTicketNotFound
	ErrNoTicketsAvailable  = dao.ErrNoTicketsAvailable
	ErrConcurrencyConflict = dao.ErrConcurrencyConflict
)

type TicketDAO interface {
	Transaction(ctx context.Context, fn func(txDAO *dao.TicketDAO) error) error
	GetEvent(ctx context.Context, eventID uint) (dao.Event, error)
	GetByID(ctx context.Context, ticketID uint) (dao.Ticket, error)
	FindByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]dao.Ticket, int64, error)
	FindByEventAndStatus(ctx context.Context, eventID uint, status string) ([]dao.Ticket, error)
	CountByStatus(ctx context.Context, eventID uint) ([]dao.StatusCount, error)
	FindTransactionsByTicket(ctx context.Context, ticketID uint) ([]dao.Transaction, error)
	FindTransactionsByUser(ctx context.Context, userID uint) ([]dao.Transaction, error)
}

// TxStore is the set of operations available inside one atomic unit of work.
// Every method runs in the same database transaction.
type TxStore interface {
	LockEvent(ctx context.Context, eventID uint) (domain.Event, error)
	GetEvent(ctx context.Context, eventID uint) (domain.Event, error)
	LockTicket(ctx context.Context, ticketID uint) (domain.Ticket, error)
	LockFirstAvailable(ctx context.Context, eventID uint) (domain.Ticket, error)
	SaveTicketState(ctx context.Context, ticket domain.Ticket, expected domain.TicketStatus) (domain.Ticket, error)
	RecountTicketsSold(ctx context.Context, eventID uint) (int, error)
	AppendTransaction(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error)
}

type TicketRepository struct {
	dao TicketDAO
}

func NewTicketRepository(dao TicketDAO) *TicketRepository {
	return &TicketRepository{
		dao: dao,
	}
}

// Atomically runs fn in one transaction. Any error returned by fn rolls back
// every write made through the TxStore.
func (r *TicketRepository) Atomically(ctx context.Context, fn func(store TxStore) error) error {
	err := r.dao.Transaction(ctx, func(txDAO *dao.TicketDAO) error {
		return fn(&txStore{dao: txDAO})
	})
	if err != nil {
		return fmt.Errorf("r.dao.Transaction -> %w", err)
	}

	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, ticketID uint) (domain.Ticket, error) {
	ticket, err := r.dao.GetByID(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.GetByID -> %w", err)
	}

	return ticketDaoToDomain(ticket), nil
}

func (r *TicketRepository) FindByOwner(ctx context.Context, ownerID uint, page, perPage int) (domain.TicketPage, error) {
	tickets, total, err := r.dao.FindByOwner(ctx, ownerID, perPage, (page-1)*perPage)
	if err != nil {
		return domain.TicketPage{}, fmt.Errorf("r.dao.FindByOwner -> %w", err)
	}

	return domain.TicketPage{
		Tickets: ticketsDaoToDomain(tickets),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

func (r *TicketRepository) FindResaleListings(ctx context.Context, eventID uint) ([]domain.ResaleListing, error) {
	if _, err := r.dao.GetEvent(ctx, eventID); err != nil {
		return nil, fmt.Errorf("r.dao.GetEvent -> %w", err)
	}

	tickets, err := r.dao.FindByEventAndStatus(ctx, eventID, dao.StatusResale)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEventAndStatus -> %w", err)
	}

	listings := make([]domain.ResaleListing, 0, len(tickets))
	for _, t := range tickets {
		if !t.ResalePrice.Valid || t.OwnerID == nil {
			continue
		}
		listings = append(listings, domain.ResaleListing{
			TicketID:      t.ID,
			EventID:       t.EventID,
			OriginalPrice: t.Price,
			ResalePrice:   t.ResalePrice.Decimal,
			SellerID:      *t.OwnerID,
		})
	}

	return listings, nil
}

func (r *TicketRepository) CountAvailability(ctx context.Context, eventID uint) (domain.Availability, error) {
	event, err := r.dao.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Availability{}, fmt.Errorf("r.dao.GetEvent -> %w", err)
	}

	counts, err := r.dao.CountByStatus(ctx, eventID)
	if err != nil {
		return domain.Availability{}, fmt.Errorf("r.dao.CountByStatus -> %w", err)
	}

	availability := domain.Availability{
		EventID:  event.ID,
		Capacity: event.Capacity,
	}
	for _, c := range counts {
		switch c.Status {
		case dao.StatusAvailable:
			availability.Available = int(c.Count)
		case dao.StatusSold:
			availability.Sold = int(c.Count)
		case dao.StatusResale:
			availability.Resale = int(c.Count)
		}
	}

	return availability, nil
}

type txStore struct {
	dao *dao.TicketDAO
}

func (s *txStore) LockEvent(ctx context.Context, eventID uint) (domain.Event, error) {
	event, err := s.dao.LockEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.dao.LockEvent -> %w", err)
	}

	return eventDaoToDomain(event), nil
}

func (s *txStore) GetEvent(ctx context.Context, eventID uint) (domain.Event, error) {
	event, err := s.dao.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.dao.GetEvent -> %w", err)
	}

	return eventDaoToDomain(event), nil
}

func (s *txStore) LockTicket(ctx context.Context, ticketID uint) (domain.Ticket, error) {
	ticket, err := s.dao.LockTicket(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.dao.LockTicket -> %w", err)
	}

	return ticketDaoToDomain(ticket), nil
}

func (s *txStore) LockFirstAvailable(ctx context.Context, eventID uint) (domain.Ticket, error) {
	ticket, err := s.dao.LockFirstAvailable(ctx, eventID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.dao.LockFirstAvailable -> %w", err)
	}

	return ticketDaoToDomain(ticket), nil
}

func (s *txStore) SaveTicketState(ctx context.Context, ticket domain.Ticket, expected domain.TicketStatus) (domain.Ticket, error) {
	saved, err := s.dao.UpdateState(ctx, ticketDomainToDao(ticket), string(expected))
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.dao.UpdateState -> %w", err)
	}

	return ticketDaoToDomain(saved), nil
}

func (s *txStore) RecountTicketsSold(ctx context.Context, eventID uint) (int, error) {
	sold, err := s.dao.RecountTicketsSold(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("s.dao.RecountTicketsSold -> %w", err)
	}

	return sold, nil
}

func (s *txStore) AppendTransaction(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	created, err := s.dao.InsertTransaction(ctx, transactionDomainToDao(transaction))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("s.dao.InsertTransaction -> %w", err)
	}

	return transactionDaoToDomain(created), nil
}

func ticketDomainToDao(t domain.Ticket) dao.Ticket {
	var resalePrice decimal.NullDecimal
	if t.ResalePrice != nil {
		resalePrice = decimal.NewNullDecimal(*t.ResalePrice)
	}

	return dao.Ticket{
		ID:           t.ID,
		Code:         t.Code,
		EventID:      t.EventID,
		OwnerID:      t.OwnerID,
		Price:        t.Price,
		Status:       string(t.Status),
		ResalePrice:  resalePrice,
		PurchaseDate: t.PurchaseDate,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func ticketDaoToDomain(t dao.Ticket) domain.Ticket {
	var resalePrice *decimal.Decimal
	if t.ResalePrice.Valid {
		price := t.ResalePrice.Decimal
		resalePrice = &price
	}

	return domain.Ticket{
		ID:           t.ID,
		Code:         t.Code,
		EventID:      t.EventID,
		OwnerID:      t.OwnerID,
		Price:        t.Price,
		Status:       domain.TicketStatus(t.Status),
		ResalePrice:  resalePrice,
		PurchaseDate: t.PurchaseDate,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func ticketsDaoToDomain(tickets []dao.Ticket) []domain.Ticket {
	result := make([]domain.Ticket, len(tickets))
	for i, t := range tickets {
		result[i] = ticketDaoToDomain(t)
	}
	return result
}
