package v1

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/ticketi/ticketi-api/internal/domain"
)

type mockTicketService struct {
	mock.Mock
}

func (m *mockTicketService) Purchase(ctx context.Context, eventID, buyerID uint) (domain.Receipt, error) {
	args := m.Called(ctx, eventID, buyerID)
	return args.Get(0).(domain.Receipt), args.Error(1)
}

func (m *mockTicketService) ListForResale(ctx context.Context, ticketID, sellerID uint, price decimal.Decimal) (domain.Ticket, error) {
	args := m.Called(ctx, ticketID, sellerID, price)
	return args.Get(0).(domain.Ticket), args.Error(1)
}

func (m *mockTicketService) CancelResale(ctx context.Context, ticketID, callerID uint) (domain.Ticket, error) {
	args := m.Called(ctx, ticketID, callerID)
	return args.Get(0).(domain.Ticket), args.Error(1)
}

func (m *mockTicketService) PurchaseResale(ctx context.Context, ticketID, buyerID uint) (domain.Receipt, error) {
	args := m.Called(ctx, ticketID, buyerID)
	return args.Get(0).(domain.Receipt), args.Error(1)
}

func (m *mockTicketService) GetTicket(ctx context.Context, ticketID uint) (domain.Ticket, error) {
	args := m.Called(ctx, ticketID)
	return args.Get(0).(domain.Ticket), args.Error(1)
}

func (m *mockTicketService) Availability(ctx context.Context, eventID uint) (domain.Availability, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(domain.Availability), args.Error(1)
}

func (m *mockTicketService) ResaleListings(ctx context.Context, eventID uint) ([]domain.ResaleListing, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).([]domain.ResaleListing), args.Error(1)
}

func (m *mockTicketService) OwnedTickets(ctx context.Context, ownerID uint, page, perPage int) (domain.TicketPage, error) {
	args := m.Called(ctx, ownerID, page, perPage)
	return args.Get(0).(domain.TicketPage), args.Error(1)
}

type mockLedgerService struct {
	mock.Mock
}

func (m *mockLedgerService) TicketHistory(ctx context.Context, ticketID uint) ([]domain.Transaction, error) {
	args := m.Called(ctx, ticketID)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *mockLedgerService) UserHistory(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

type mockEventService struct {
	mock.Mock
}

func (m *mockEventService) CreateEvent(ctx context.Context, organizerID uint, event domain.Event) (domain.Event, error) {
	args := m.Called(ctx, organizerID, event)
	return args.Get(0).(domain.Event), args.Error(1)
}

func (m *mockEventService) GetEvent(ctx context.Context, eventID uint) (domain.Event, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(domain.Event), args.Error(1)
}

func (m *mockEventService) ListOrganizerEvents(ctx context.Context, organizerID uint) ([]domain.Event, error) {
	args := m.Called(ctx, organizerID)
	return args.Get(0).([]domain.Event), args.Error(1)
}

func (m *mockEventService) UpdateEvent(ctx context.Context, eventID, callerID uint, patch domain.EventPatch) (domain.Event, error) {
	args := m.Called(ctx, eventID, callerID, patch)
	return args.Get(0).(domain.Event), args.Error(1)
}

func (m *mockEventService) DeleteEvent(ctx context.Context, eventID, callerID uint) error {
	args := m.Called(ctx, eventID, callerID)
	return args.Error(0)
}
