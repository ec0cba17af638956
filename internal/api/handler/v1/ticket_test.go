package v1

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ticketi/ticketi-api/internal/api/middleware"
	"github.com/ticketi/ticketi-api/internal/domain"
	"github.com/ticketi/ticketi-api/internal/service"
)

const callerID uint = 42

func asCaller(userID uint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if userID != 0 {
			ctx.Set(middleware.UserIDKey, userID)
		}
		ctx.Next()
	}
}

func newTicketRouter(svc *mockTicketService, ledger *mockLedgerService, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTicketHandler(svc, ledger)

	r := gin.New()
	g := r.Group("/api/v1", asCaller(userID))
	g.POST("/events/:eventID/purchase", h.HandlePurchase)
	g.GET("/events/:eventID/availability", h.HandleAvailability)
	g.GET("/events/:eventID/resale", h.HandleResaleListings)
	g.GET("/tickets/:ticketID", h.HandleGetTicket)
	g.GET("/tickets/:ticketID/transactions", h.HandleTicketHistory)
	g.POST("/tickets/:ticketID/resale", h.HandleListForResale)
	g.DELETE("/tickets/:ticketID/resale", h.HandleCancelResale)
	g.POST("/tickets/:ticketID/resale/purchase", h.HandlePurchaseResale)
	g.GET("/users/me/tickets", h.HandleMyTickets)
	g.GET("/users/me/transactions", h.HandleMyTransactions)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlePurchase(t *testing.T) {
	owner := callerID
	receipt := domain.Receipt{
		Ticket:      domain.Ticket{ID: 3, EventID: 9, OwnerID: &owner, Status: domain.TicketSold, Price: decimal.NewFromInt(20)},
		Transaction: domain.Transaction{ID: 1, TicketID: 3, SellerID: 1, BuyerID: callerID, Type: domain.TransactionPrimary},
	}

	tests := []struct {
		name       string
		path       string
		userID     uint
		result     domain.Receipt
		err        error
		wantStatus int
	}{
		{name: "success", path: "/api/v1/events/9/purchase", userID: callerID, result: receipt, wantStatus: http.StatusCreated},
		{name: "sold out", path: "/api/v1/events/9/purchase", userID: callerID, err: fmt.Errorf("wrapped -> %w", service.ErrNoTicketsAvailable), wantStatus: http.StatusConflict},
		{name: "conflict", path: "/api/v1/events/9/purchase", userID: callerID, err: service.ErrConcurrencyConflict, wantStatus: http.StatusConflict},
		{name: "elapsed", path: "/api/v1/events/9/purchase", userID: callerID, err: service.ErrEventElapsed, wantStatus: http.StatusUnprocessableEntity},
		{name: "unknown event", path: "/api/v1/events/9/purchase", userID: callerID, err: service.ErrEventNotFound, wantStatus: http.StatusNotFound},
		{name: "store fault", path: "/api/v1/events/9/purchase", userID: callerID, err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError},
		{name: "bad id", path: "/api/v1/events/abc/purchase", userID: callerID, wantStatus: http.StatusBadRequest},
		{name: "anonymous", path: "/api/v1/events/9/purchase", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockTicketService{}
			svc.On("Purchase", mock.Anything, uint(9), callerID).Return(tc.result, tc.err).Maybe()

			w := do(newTicketRouter(svc, &mockLedgerService{}, tc.userID), http.MethodPost, tc.path, "")

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusCreated {
				assert.Contains(t, w.Body.String(), `"transaction_type":"primary"`)
			}
			if tc.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "connection reset")
			}
		})
	}
}

func TestHandleListForResale(t *testing.T) {
	svc := &mockTicketService{}
	listed := domain.Ticket{ID: 3, Status: domain.TicketResale}
	svc.On("ListForResale", mock.Anything, uint(3), callerID, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(1500))
	})).Return(listed, nil).Once()
	svc.On("ListForResale", mock.Anything, uint(4), callerID, mock.Anything).Return(domain.Ticket{}, service.ErrUnauthorized).Once()
	svc.On("ListForResale", mock.Anything, uint(5), callerID, mock.Anything).Return(domain.Ticket{}, service.ErrInvalidPrice).Once()
	r := newTicketRouter(svc, &mockLedgerService{}, callerID)

	w := do(r, http.MethodPost, "/api/v1/tickets/3/resale", `{"price":"1500"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"resale"`)

	w = do(r, http.MethodPost, "/api/v1/tickets/4/resale", `{"price":10}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/api/v1/tickets/5/resale", `{"price":-1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPost, "/api/v1/tickets/3/resale", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/tickets/3/resale", `{"price":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func TestHandleCancelResale(t *testing.T) {
	svc := &mockTicketService{}
	svc.On("CancelResale", mock.Anything, uint(3), callerID).Return(domain.Ticket{ID: 3, Status: domain.TicketSold}, nil).Once()
	svc.On("CancelResale", mock.Anything, uint(4), callerID).Return(domain.Ticket{}, service.ErrInvalidState).Once()
	r := newTicketRouter(svc, &mockLedgerService{}, callerID)

	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/api/v1/tickets/3/resale", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodDelete, "/api/v1/tickets/4/resale", "").Code)
	svc.AssertExpectations(t)
}

func TestHandlePurchaseResale(t *testing.T) {
	svc := &mockTicketService{}
	svc.On("PurchaseResale", mock.Anything, uint(3), callerID).Return(domain.Receipt{}, service.ErrCannotBuyOwnTicket).Once()
	svc.On("PurchaseResale", mock.Anything, uint(4), callerID).Return(domain.Receipt{}, service.ErrNotForResale).Once()
	svc.On("PurchaseResale", mock.Anything, uint(5), callerID).Return(domain.Receipt{}, service.ErrTicketNotFound).Once()
	svc.On("PurchaseResale", mock.Anything, uint(6), callerID).Return(domain.Receipt{Transaction: domain.Transaction{Type: domain.TransactionResale}}, nil).Once()
	r := newTicketRouter(svc, &mockLedgerService{}, callerID)

	w := do(r, http.MethodPost, "/api/v1/tickets/3/resale/purchase", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), service.ErrCannotBuyOwnTicket.Error())

	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodPost, "/api/v1/tickets/4/resale/purchase", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/v1/tickets/5/resale/purchase", "").Code)
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v1/tickets/6/resale/purchase", "").Code)
	svc.AssertExpectations(t)
}

func TestHandleResale_MissingEventOfTicket(t *testing.T) {
	svc := &mockTicketService{}
	svc.On("PurchaseResale", mock.Anything, uint(8), callerID).Return(domain.Receipt{}, service.ErrEventNotFound).Once()
	svc.On("ListForResale", mock.Anything, uint(8), callerID, mock.Anything).Return(domain.Ticket{}, service.ErrEventNotFound).Once()
	svc.On("PurchaseResale", mock.Anything, uint(5), callerID).Return(domain.Receipt{}, service.ErrTicketNotFound).Once()
	r := newTicketRouter(svc, &mockLedgerService{}, callerID)

	w := do(r, http.MethodPost, "/api/v1/tickets/8/resale/purchase", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"status":"Resource not found.","error":"event not found"}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/v1/tickets/8/resale", `{"price":"40"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "ID 8")

	w = do(r, http.MethodPost, "/api/v1/tickets/5/resale/purchase", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"status":"Resource not found.","error":"ticket with ID 5 not found"}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestHandleGetTicket_OwnerOnly(t *testing.T) {
	other := uint(7)
	owner := callerID
	svc := &mockTicketService{}
	svc.On("GetTicket", mock.Anything, uint(3)).Return(domain.Ticket{ID: 3, OwnerID: &owner}, nil)
	svc.On("GetTicket", mock.Anything, uint(4)).Return(domain.Ticket{ID: 4, OwnerID: &other}, nil)
	ledger := &mockLedgerService{}
	ledger.On("TicketHistory", mock.Anything, uint(3)).Return([]domain.Transaction{{ID: 1, TicketID: 3}}, nil)
	r := newTicketRouter(svc, ledger, callerID)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/tickets/3", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/v1/tickets/4", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/tickets/3/transactions", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/v1/tickets/4/transactions", "").Code)
	ledger.AssertNumberOfCalls(t, "TicketHistory", 1)
}

func TestHandleAvailabilityAndListings(t *testing.T) {
	svc := &mockTicketService{}
	svc.On("Availability", mock.Anything, uint(9)).Return(domain.Availability{EventID: 9, Capacity: 10, Available: 4, Sold: 5, Resale: 1}, nil)
	svc.On("ResaleListings", mock.Anything, uint(9)).Return([]domain.ResaleListing(nil), nil)
	svc.On("ResaleListings", mock.Anything, uint(10)).Return([]domain.ResaleListing(nil), service.ErrEventNotFound)
	r := newTicketRouter(svc, &mockLedgerService{}, callerID)

	w := do(r, http.MethodGet, "/api/v1/events/9/availability", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"event_id":9,"capacity":10,"available":4,"resale":1,"sold":5}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/v1/events/9/resale", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/events/10/resale", "").Code)
}

func TestHandleMyTickets(t *testing.T) {
	svc := &mockTicketService{}
	svc.On("OwnedTickets", mock.Anything, callerID, 2, 10).Return(domain.TicketPage{Page: 2, PerPage: 10, Total: 11}, nil).Once()
	svc.On("OwnedTickets", mock.Anything, callerID, 1, 20).Return(domain.TicketPage{Page: 1, PerPage: 20}, nil).Once()
	r := newTicketRouter(svc, &mockLedgerService{}, callerID)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/users/me/tickets?page=2&per_page=10", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/users/me/tickets", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/v1/users/me/tickets?per_page=500", "").Code)
	svc.AssertExpectations(t)
}

func TestHandleMyTransactions(t *testing.T) {
	ledger := &mockLedgerService{}
	ledger.On("UserHistory", mock.Anything, callerID).Return([]domain.Transaction{{ID: 2}, {ID: 1}}, nil)
	r := newTicketRouter(&mockTicketService{}, ledger, callerID)

	w := do(r, http.MethodGet, "/api/v1/users/me/transactions", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":2`)
}
