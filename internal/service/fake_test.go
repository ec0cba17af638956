package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ticketi/ticketi-api/internal/domain"
	"github.com/ticketi/ticketi-api/internal/repository"
)

type memState struct {
	events       map[uint]domain.Event
	tickets      map[uint]domain.Ticket
	transactions []domain.Transaction
	nextEventID  uint
	nextTicketID uint
	nextTxID     uint
}

func (st memState) clone() memState {
	c := memState{
		events:       make(map[uint]domain.Event, len(st.events)),
		tickets:      make(map[uint]domain.Ticket, len(st.tickets)),
		transactions: append([]domain.Transaction(nil), st.transactions...),
		nextEventID:  st.nextEventID,
		nextTicketID: st.nextTicketID,
		nextTxID:     st.nextTxID,
	}
	for id, e := range st.events {
		c.events[id] = e
	}
	for id, t := range st.tickets {
		c.tickets[id] = t
	}
	return c
}

// memStore is an in-memory stand-in for the postgres repositories. Units of
// work are serialised by one mutex and rolled back from a snapshot on error.
type memStore struct {
	mu    sync.Mutex
	state memState

	// conflicts makes that many LockFirstAvailable calls fail with a lock conflict.
	conflicts  int
	appendErr  error
	atomically int
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			events:  map[uint]domain.Event{},
			tickets: map[uint]domain.Ticket{},
		},
	}
}

func (s *memStore) Atomically(ctx context.Context, fn func(store repository.TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.atomically++
	snapshot := s.state.clone()
	if err := fn(&memTx{s: s}); err != nil {
		s.state = snapshot
		return fmt.Errorf("memStore.Atomically -> %w", err)
	}

	return nil
}

func (s *memStore) snapshot() memState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *memStore) sortedTicketIDs() []uint {
	ids := make([]uint, 0, len(s.state.tickets))
	for id := range s.state.tickets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// memEvents exposes the event side of memStore.
type memEvents struct {
	*memStore
}

func (s memEvents) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.nextEventID++
	event.ID = s.state.nextEventID
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	s.state.events[event.ID] = event

	for i := 0; i < event.Capacity; i++ {
		s.state.nextTicketID++
		t := domain.NewTicket(event.ID, event.Price)
		t.ID = s.state.nextTicketID
		s.state.tickets[t.ID] = t
	}

	return event, nil
}

func (s memEvents) GetByID(ctx context.Context, id uint) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.state.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	return e, nil
}

func (s memEvents) FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []domain.Event
	for _, e := range s.state.events {
		if e.OrganizerID == organizerID {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.After(events[j].Date) })
	return events, nil
}

func (s memEvents) Update(ctx context.Context, event domain.Event) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.state.events[event.ID]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	event.Capacity = current.Capacity
	event.TicketsSold = current.TicketsSold
	event.UpdatedAt = time.Now()
	s.state.events[event.ID] = event
	return event, nil
}

func (s memEvents) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.events[id]; !ok {
		return repository.ErrEventNotFound
	}
	for _, t := range s.state.tickets {
		if t.EventID == id && t.Status != domain.TicketAvailable {
			return repository.ErrEventHasSales
		}
	}
	for tid, t := range s.state.tickets {
		if t.EventID == id {
			delete(s.state.tickets, tid)
		}
	}
	delete(s.state.events, id)
	return nil
}

// TicketRepository reads

func (s *memStore) GetByID(ctx context.Context, ticketID uint) (domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.state.tickets[ticketID]
	if !ok {
		return domain.Ticket{}, repository.ErrTicketNotFound
	}
	return t, nil
}

func (s *memStore) FindByOwner(ctx context.Context, ownerID uint, page, perPage int) (domain.TicketPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var owned []domain.Ticket
	for _, id := range s.sortedTicketIDs() {
		if t := s.state.tickets[id]; t.IsOwnedBy(ownerID) {
			owned = append(owned, t)
		}
	}

	out := domain.TicketPage{Total: int64(len(owned)), Page: page, PerPage: perPage, Tickets: []domain.Ticket{}}
	from := (page - 1) * perPage
	if from < len(owned) {
		to := from + perPage
		if to > len(owned) {
			to = len(owned)
		}
		out.Tickets = owned[from:to]
	}
	return out, nil
}

func (s *memStore) FindResaleListings(ctx context.Context, eventID uint) ([]domain.ResaleListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.events[eventID]; !ok {
		return nil, repository.ErrEventNotFound
	}

	listings := []domain.ResaleListing{}
	for _, id := range s.sortedTicketIDs() {
		t := s.state.tickets[id]
		if t.EventID != eventID || t.Status != domain.TicketResale {
			continue
		}
		listings = append(listings, domain.ResaleListing{
			TicketID:      t.ID,
			EventID:       t.EventID,
			OriginalPrice: t.Price,
			ResalePrice:   *t.ResalePrice,
			SellerID:      *t.OwnerID,
		})
	}
	sort.SliceStable(listings, func(i, j int) bool { return listings[i].ResalePrice.LessThan(listings[j].ResalePrice) })
	return listings, nil
}

func (s *memStore) CountAvailability(ctx context.Context, eventID uint) (domain.Availability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.state.events[eventID]
	if !ok {
		return domain.Availability{}, repository.ErrEventNotFound
	}

	a := domain.Availability{EventID: eventID, Capacity: e.Capacity}
	for _, t := range s.state.tickets {
		if t.EventID != eventID {
			continue
		}
		switch t.Status {
		case domain.TicketAvailable:
			a.Available++
		case domain.TicketSold:
			a.Sold++
		case domain.TicketResale:
			a.Resale++
		}
	}
	return a, nil
}

// LedgerRepository

func (s *memStore) TransactionsByTicket(ctx context.Context, ticketID uint) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.tickets[ticketID]; !ok {
		return nil, repository.ErrTicketNotFound
	}

	out := []domain.Transaction{}
	for _, tx := range s.state.transactions {
		if tx.TicketID == ticketID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *memStore) TransactionsByUser(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Transaction{}
	for i := len(s.state.transactions) - 1; i >= 0; i-- {
		tx := s.state.transactions[i]
		if tx.BuyerID == userID || tx.SellerID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// memTx runs with memStore.mu held.
type memTx struct {
	s *memStore
}

func (tx *memTx) LockEvent(ctx context.Context, eventID uint) (domain.Event, error) {
	return tx.GetEvent(ctx, eventID)
}

func (tx *memTx) GetEvent(ctx context.Context, eventID uint) (domain.Event, error) {
	e, ok := tx.s.state.events[eventID]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	return e, nil
}

func (tx *memTx) LockTicket(ctx context.Context, ticketID uint) (domain.Ticket, error) {
	t, ok := tx.s.state.tickets[ticketID]
	if !ok {
		return domain.Ticket{}, repository.ErrTicketNotFound
	}
	return t, nil
}

func (tx *memTx) LockFirstAvailable(ctx context.Context, eventID uint) (domain.Ticket, error) {
	if tx.s.conflicts > 0 {
		tx.s.conflicts--
		return domain.Ticket{}, repository.ErrConcurrencyConflict
	}

	for _, id := range tx.s.sortedTicketIDs() {
		t := tx.s.state.tickets[id]
		if t.EventID == eventID && t.Status == domain.TicketAvailable {
			return t, nil
		}
	}
	return domain.Ticket{}, repository.ErrNoTicketsAvailable
}

func (tx *memTx) SaveTicketState(ctx context.Context, ticket domain.Ticket, expected domain.TicketStatus) (domain.Ticket, error) {
	current, ok := tx.s.state.tickets[ticket.ID]
	if !ok {
		return domain.Ticket{}, repository.ErrTicketNotFound
	}
	if current.Status != expected {
		return domain.Ticket{}, repository.ErrConcurrencyConflict
	}

	ticket.UpdatedAt = time.Now()
	tx.s.state.tickets[ticket.ID] = ticket
	return ticket, nil
}

func (tx *memTx) RecountTicketsSold(ctx context.Context, eventID uint) (int, error) {
	e, ok := tx.s.state.events[eventID]
	if !ok {
		return 0, repository.ErrEventNotFound
	}

	sold := 0
	for _, t := range tx.s.state.tickets {
		if t.EventID == eventID && t.Status != domain.TicketAvailable {
			sold++
		}
	}
	if sold > e.Capacity {
		return 0, fmt.Errorf("tickets_sold %d exceeds capacity %d", sold, e.Capacity)
	}

	e.TicketsSold = sold
	tx.s.state.events[eventID] = e
	return sold, nil
}

func (tx *memTx) AppendTransaction(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	if tx.s.appendErr != nil {
		return domain.Transaction{}, tx.s.appendErr
	}

	tx.s.state.nextTxID++
	transaction.ID = tx.s.state.nextTxID
	tx.s.state.transactions = append(tx.s.state.transactions, transaction)
	return transaction, nil
}

type memCache struct {
	mu          sync.Mutex
	entries     map[uint]memEntry
	generations map[uint]uint64
	getErr      error
	invalidated []uint
}

type memEntry struct {
	availability domain.Availability
	generation   uint64
}

func newMemCache() *memCache {
	return &memCache{entries: map[uint]memEntry{}, generations: map[uint]uint64{}}
}

func (c *memCache) Get(ctx context.Context, eventID uint) (domain.Availability, uint64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return domain.Availability{}, 0, false, c.getErr
	}
	generation := c.generations[eventID]
	e, ok := c.entries[eventID]
	if !ok || e.generation != generation {
		return domain.Availability{}, generation, false, nil
	}
	return e.availability, generation, true, nil
}

func (c *memCache) Set(ctx context.Context, availability domain.Availability, generation uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[availability.EventID] = memEntry{availability: availability, generation: generation}
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, eventID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[eventID]++
	c.invalidated = append(c.invalidated, eventID)
	return nil
}
