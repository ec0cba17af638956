package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ticketi/ticketi-api/internal/config"
	"github.com/ticketi/ticketi-api/internal/domain"
	"github.com/ticketi/ticketi-api/internal/metrics"
	"github.com/ticketi/ticketi-api/internal/repository"
)

const maxPerPage = 100

type TicketRepository interface {
	Atomically(ctx context.Context, fn func(store repository.TxStore) error) error
	GetByID(ctx context.Context, ticketID uint) (domain.Ticket, error)
	FindByOwner(ctx context.Context, ownerID uint, page, perPage int) (domain.TicketPage, error)
	FindResaleListings(ctx context.Context, eventID uint) ([]domain.ResaleListing, error)
	CountAvailability(ctx context.Context, eventID uint) (domain.Availability, error)
}

type AvailabilityCache interface {
	Get(ctx context.Context, eventID uint) (domain.Availability, uint64, bool, error)
	Set(ctx context.Context, availability domain.Availability, generation uint64) error
	Invalidate(ctx context.Context, eventID uint) error
}

type TicketService struct {
	repo   TicketRepository
	ledger *Ledger
	cache  AvailabilityCache
	conf   *config.TicketingConfig
	now    func() time.Time
}

func NewTicketService(repo TicketRepository, ledger *Ledger, cache AvailabilityCache, conf *config.TicketingConfig) *TicketService {
	return &TicketService{
		repo:   repo,
		ledger: ledger,
		cache:  cache,
		conf:   conf,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Purchase claims one available ticket of the event for the buyer. The claim,
// the ledger row and the tickets_sold recount commit together. A lost lock race
// is retried in a fresh transaction up to the configured number of attempts.
func (s *TicketService) Purchase(ctx context.Context, eventID, buyerID uint) (receipt domain.Receipt, err error) {
	start := time.Now()
	defer func() { metrics.Observe("purchase", start, err, classifyOutcome) }()

	attempts := s.conf.ClaimAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		receipt, err = s.purchaseOnce(ctx, eventID, buyerID)
		if err == nil {
			s.invalidate(ctx, eventID)
			return receipt, nil
		}
		if !errors.Is(err, ErrConcurrencyConflict) || attempt >= attempts {
			return domain.Receipt{}, err
		}

		metrics.PurchaseRetried()
		zap.L().Debug("retrying purchase after conflict",
			zap.Uint("event_id", eventID),
			zap.Uint("buyer_id", buyerID),
			zap.Int("attempt", attempt),
		)
	}
}

func (s *TicketService) purchaseOnce(ctx context.Context, eventID, buyerID uint) (domain.Receipt, error) {
	var receipt domain.Receipt

	err := s.repo.Atomically(ctx, func(store repository.TxStore) error {
		event, err := store.LockEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("store.LockEvent -> %w", err)
		}

		now := s.now()
		if event.HasElapsed(now) {
			return ErrEventElapsed
		}

		ticket, err := store.LockFirstAvailable(ctx, eventID)
		if err != nil {
			return fmt.Errorf("store.LockFirstAvailable -> %w", err)
		}

		if err := ticket.SellTo(buyerID, now); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidState, err)
		}

		saved, err := store.SaveTicketState(ctx, ticket, domain.TicketAvailable)
		if err != nil {
			return fmt.Errorf("store.SaveTicketState -> %w", err)
		}

		transaction, err := s.ledger.Record(ctx, store, domain.Transaction{
			TicketID:  saved.ID,
			SellerID:  event.OrganizerID,
			BuyerID:   buyerID,
			Price:     saved.Price,
			Type:      domain.TransactionPrimary,
			Timestamp: now,
		})
		if err != nil {
			return fmt.Errorf("s.ledger.Record -> %w", err)
		}

		if _, err := store.RecountTicketsSold(ctx, eventID); err != nil {
			return fmt.Errorf("store.RecountTicketsSold -> %w", err)
		}

		receipt = domain.Receipt{Ticket: saved, Transaction: transaction}
		return nil
	})
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("s.repo.Atomically -> %w", err)
	}

	return receipt, nil
}

// ListForResale puts a sold ticket on the resale market. The seller keeps
// ownership until someone buys it.
func (s *TicketService) ListForResale(ctx context.Context, ticketID, sellerID uint, price decimal.Decimal) (ticket domain.Ticket, err error) {
	start := time.Now()
	defer func() { metrics.Observe("list_for_resale", start, err, classifyOutcome) }()

	err = s.repo.Atomically(ctx, func(store repository.TxStore) error {
		current, err := store.LockTicket(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("store.LockTicket -> %w", err)
		}

		if !current.IsOwnedBy(sellerID) {
			return ErrUnauthorized
		}
		if current.Status != domain.TicketSold {
			return fmt.Errorf("ticket is %s: %w", current.Status, ErrInvalidState)
		}

		event, err := store.GetEvent(ctx, current.EventID)
		if err != nil {
			return fmt.Errorf("store.GetEvent -> %w", err)
		}
		if event.HasElapsed(s.now()) {
			return ErrEventElapsed
		}

		if err := current.ListForResale(price); err != nil {
			return transitionErr(err)
		}

		ticket, err = store.SaveTicketState(ctx, current, domain.TicketSold)
		if err != nil {
			return fmt.Errorf("store.SaveTicketState -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.repo.Atomically -> %w", err)
	}

	s.invalidate(ctx, ticket.EventID)
	return ticket, nil
}

func (s *TicketService) CancelResale(ctx context.Context, ticketID, callerID uint) (ticket domain.Ticket, err error) {
	start := time.Now()
	defer func() { metrics.Observe("cancel_resale", start, err, classifyOutcome) }()

	err = s.repo.Atomically(ctx, func(store repository.TxStore) error {
		current, err := store.LockTicket(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("store.LockTicket -> %w", err)
		}

		if current.Status != domain.TicketResale {
			return fmt.Errorf("ticket is %s: %w", current.Status, ErrInvalidState)
		}
		if !current.IsOwnedBy(callerID) {
			return ErrUnauthorized
		}

		if err := current.CancelResale(); err != nil {
			return transitionErr(err)
		}

		ticket, err = store.SaveTicketState(ctx, current, domain.TicketResale)
		if err != nil {
			return fmt.Errorf("store.SaveTicketState -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.repo.Atomically -> %w", err)
	}

	s.invalidate(ctx, ticket.EventID)
	return ticket, nil
}

// PurchaseResale transfers a listed ticket to the buyer at its resale price.
// tickets_sold is left alone since the ticket left the primary pool already.
func (s *TicketService) PurchaseResale(ctx context.Context, ticketID, buyerID uint) (receipt domain.Receipt, err error) {
	start := time.Now()
	defer func() { metrics.Observe("purchase_resale", start, err, classifyOutcome) }()

	err = s.repo.Atomically(ctx, func(store repository.TxStore) error {
		ticket, err := store.LockTicket(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("store.LockTicket -> %w", err)
		}

		if ticket.Status != domain.TicketResale || ticket.OwnerID == nil {
			return ErrNotForResale
		}
		if ticket.IsOwnedBy(buyerID) {
			return ErrCannotBuyOwnTicket
		}

		event, err := store.GetEvent(ctx, ticket.EventID)
		if err != nil {
			return fmt.Errorf("store.GetEvent -> %w", err)
		}

		now := s.now()
		if event.HasElapsed(now) {
			return ErrEventElapsed
		}

		sellerID := *ticket.OwnerID
		paid, err := ticket.ResellTo(buyerID, now)
		if err != nil {
			return transitionErr(err)
		}

		saved, err := store.SaveTicketState(ctx, ticket, domain.TicketResale)
		if err != nil {
			return fmt.Errorf("store.SaveTicketState -> %w", err)
		}

		transaction, err := s.ledger.Record(ctx, store, domain.Transaction{
			TicketID:  saved.ID,
			SellerID:  sellerID,
			BuyerID:   buyerID,
			Price:     paid,
			Type:      domain.TransactionResale,
			Timestamp: now,
		})
		if err != nil {
			return fmt.Errorf("s.ledger.Record -> %w", err)
		}

		receipt = domain.Receipt{Ticket: saved, Transaction: transaction}
		return nil
	})
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("s.repo.Atomically -> %w", err)
	}

	s.invalidate(ctx, receipt.Ticket.EventID)
	return receipt, nil
}

func (s *TicketService) GetTicket(ctx context.Context, ticketID uint) (domain.Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	return ticket, nil
}

// Availability serves counts from the cache and falls back to the database on
// a miss or a cache fault. Counts read on a miss are written back under the
// generation seen before the read, so a mutation committed in between retires
// them.
func (s *TicketService) Availability(ctx context.Context, eventID uint) (domain.Availability, error) {
	cached, generation, found, err := s.cache.Get(ctx, eventID)
	switch {
	case err != nil:
		metrics.CacheError()
		zap.L().Warn("availability cache read failed", zap.Uint("event_id", eventID), zap.Error(err))
	case found:
		metrics.CacheHit()
		return cached, nil
	default:
		metrics.CacheMiss()
	}

	availability, err := s.repo.CountAvailability(ctx, eventID)
	if err != nil {
		return domain.Availability{}, fmt.Errorf("s.repo.CountAvailability -> %w", err)
	}

	if err := s.cache.Set(ctx, availability, generation); err != nil {
		zap.L().Warn("availability cache write failed", zap.Uint("event_id", eventID), zap.Error(err))
	}

	return availability, nil
}

func (s *TicketService) ResaleListings(ctx context.Context, eventID uint) ([]domain.ResaleListing, error) {
	listings, err := s.repo.FindResaleListings(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindResaleListings -> %w", err)
	}

	return listings, nil
}

func (s *TicketService) OwnedTickets(ctx context.Context, ownerID uint, page, perPage int) (domain.TicketPage, error) {
	if page < 1 || perPage < 1 || perPage > maxPerPage {
		return domain.TicketPage{}, fmt.Errorf("page=%d per_page=%d: %w", page, perPage, ErrInvalidPage)
	}

	tickets, err := s.repo.FindByOwner(ctx, ownerID, page, perPage)
	if err != nil {
		return domain.TicketPage{}, fmt.Errorf("s.repo.FindByOwner -> %w", err)
	}

	return tickets, nil
}

func (s *TicketService) invalidate(ctx context.Context, eventID uint) {
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		zap.L().Warn("availability cache invalidation failed", zap.Uint("event_id", eventID), zap.Error(err))
	}
}

func transitionErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrNegativePrice):
		return fmt.Errorf("%w: %w", ErrInvalidPrice, err)
	case errors.Is(err, domain.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return err
}
