package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ticketi/ticketi-api/internal/api/handler/v1/request"
	"github.com/ticketi/ticketi-api/internal/api/handler/v1/response"
	"github.com/ticketi/ticketi-api/internal/domain"
	"github.com/ticketi/ticketi-api/internal/service"
)

type TicketService interface {
	Purchase(ctx context.Context, eventID, buyerID uint) (domain.Receipt, error)
	ListForResale(ctx context.Context, ticketID, sellerID uint, price decimal.Decimal) (domain.Ticket, error)
	CancelResale(ctx context.Context, ticketID, callerID uint) (domain.Ticket, error)
	PurchaseResale(ctx context.Context, ticketID, buyerID uint) (domain.Receipt, error)
	GetTicket(ctx context.Context, ticketID uint) (domain.Ticket, error)
	Availability(ctx context.Context, eventID uint) (domain.Availability, error)
	ResaleListings(ctx context.Context, eventID uint) ([]domain.ResaleListing, error)
	OwnedTickets(ctx context.Context, ownerID uint, page, perPage int) (domain.TicketPage, error)
}

type LedgerService interface {
	TicketHistory(ctx context.Context, ticketID uint) ([]domain.Transaction, error)
	UserHistory(ctx context.Context, userID uint) ([]domain.Transaction, error)
}

type TicketHandler struct {
	svc    TicketService
	ledger LedgerService
}

func NewTicketHandler(svc TicketService, ledger LedgerService) *TicketHandler {
	return &TicketHandler{
		svc:    svc,
		ledger: ledger,
	}
}

// HandlePurchase godoc
// @Summary      Buy a ticket
// @Description  Claims one available ticket of the event at its primary price.
// @Tags         tickets
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      201      {object}  domain.Receipt
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Failure      429      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/purchase [post]
// @Security BearerAuth
func (h *TicketHandler) HandlePurchase(ctx *gin.Context) {
	userID, respErr := getUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := parseID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	receipt, err := h.svc.Purchase(ctx.Request.Context(), eventID, userID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("HandlePurchase -> h.svc.Purchase", err, eventTarget(eventID)))
		return
	}

	ctx.JSON(http.StatusCreated, receipt)
}

// HandleAvailability godoc
// @Summary      Ticket availability
// @Tags         tickets
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {object}  domain.Availability
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/availability [get]
// @Security BearerAuth
func (h *TicketHandler) HandleAvailability(ctx *gin.Context) {
	eventID, respErr := parseID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	availability, err := h.svc.Availability(ctx.Request.Context(), eventID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("HandleAvailability -> h.svc.Availability", err, eventTarget(eventID)))
		return
	}

	ctx.JSON(http.StatusOK, availability)
}

// HandleResaleListings godoc
// @Summary      Resale listings of an event
// @Description  Cheapest first.
// @Tags         resale
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {array}   domain.ResaleListing
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/resale [get]
// @Security BearerAuth
func (h *TicketHandler) HandleResaleListings(ctx *gin.Context) {
	eventID, respErr := parseID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	listings, err := h.svc.ResaleListings(ctx.Request.Context(), eventID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("HandleResaleListings -> h.svc.ResaleListings", err, eventTarget(eventID)))
		return
	}
	if listings == nil {
		listings = []domain.ResaleListing{}
	}

	ctx.JSON(http.StatusOK, listings)
}

// HandleGetTicket godoc
// @Summary      Get one of the caller's tickets
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path      int  true  "Ticket ID"
// @Success      200       {object}  domain.Ticket
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /tickets/{ticketID} [get]
// @Security BearerAuth
func (h *TicketHandler) HandleGetTicket(ctx *gin.Context) {
	ticket, ok := h.ownedTicket(ctx, "HandleGetTicket")
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, ticket)
}

// HandleTicketHistory godoc
// @Summary      Ownership history of a ticket
// @Description  Every transfer of the ticket, oldest first. Only the current owner may read it.
// @Tags         ledger
// @Produce      json
// @Param        ticketID  path      int  true  "Ticket ID"
// @Success      200       {array}   domain.Transaction
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /tickets/{ticketID}/transactions [get]
// @Security BearerAuth
func (h *TicketHandler) HandleTicketHistory(ctx *gin.Context) {
	ticket, ok := h.ownedTicket(ctx, "HandleTicketHistory")
	if !ok {
		return
	}

	history, err := h.ledger.TicketHistory(ctx.Request.Context(), ticket.ID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("HandleTicketHistory -> h.ledger.TicketHistory", err, ticketTarget(ticket.ID)))
		return
	}

	ctx.JSON(http.StatusOK, history)
}

func (h *TicketHandler) ownedTicket(ctx *gin.Context, op string) (domain.Ticket, bool) {
	userID, respErr := getUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return domain.Ticket{}, false
	}

	ticketID, respErr := parseID(ctx, "ticketID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return domain.Ticket{}, false
	}

	ticket, err := h.svc.GetTicket(ctx.Request.Context(), ticketID)
	if err != nil {
		response.RenderErr(ctx, serviceErr(op+" -> h.svc.GetTicket", err, ticketTarget(ticketID)))
		return domain.Ticket{}, false
	}

	if !ticket.IsOwnedBy(userID) {
		response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrUnauthorized))
		return domain.Ticket{}, false
	}

	return ticket, true
}

// HandleListForResale godoc
// @Summary      List a ticket for resale
// @Tags         resale
// @Accept       json
// @Produce      json
// @Param        ticketID  path      int                           true  "Ticket ID"
// @Param        input     body      request.ListForResaleRequest  true  "Resale price"
// @Success      200       {object}  domain.Ticket
// @Failure      400       {object}  response.Err
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      422       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /tickets/{ticketID}/resale [post]
// @Security BearerAuth
func (h *TicketHandler) HandleListForResale(ctx *gin.Context) {
	userID, respErr := getUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ticketID, respErr := parseID(ctx, "ticketID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.ListForResaleRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	ticket, err := h.svc.ListForResale(ctx.Request.Context(), ticketID, userID, *input.Price)
	if err != nil {
		response.RenderErr(ctx, serviceErr("HandleListForResale -> h.svc.ListForResale", err, ticketTarget(ticketID)))
		return
	}

	ctx.JSON(http.StatusOK, ticket)
}

// HandleCancelResale godoc
// @Summary      Withdraw a resale listing
// @Tags         resale
// @Produce      json
// @Param        ticketID  path      int  true  "Ticket ID"
// @Success      200       {object}  domain.Ticket
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      422       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /tickets/{ticketID}/resale [delete]
// @Security BearerAuth
func (h *TicketHandler) HandleCancelResale(ctx *gin.Context) {
	userID, respErr := getUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ticketID, respErr := parseID(ctx, "ticketID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ticket, err := h.svc.CancelResale(ctx.Request.Context(), ticketID, userID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("HandleCancelResale -> h.svc.CancelResale", err, ticketTarget(ticketID)))
		return
	}

	ctx.JSON(http.StatusOK, ticket)
}

// HandlePurchaseResale godoc
// @Summary      Buy a ticket listed for resale
// @Tags         resale
// @Produce      json
// @Param        ticketID  path      int  true  "Ticket ID"
// @Success      201       {object}  domain.Receipt
// @Failure      404       {object}  response.Err
// @Failure      409       {object}  response.Err
// @Failure      422       {object}  response.Err
// @Failure      429       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /tickets/{ticketID}/resale/purchase [post]
// @Security BearerAuth
func (h *TicketHandler) HandlePurchaseResale(ctx *gin.Context) {
	userID, respErr := getUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ticketID, respErr := parseID(ctx, "ticketID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	receipt, err := h.svc.PurchaseResale(ctx.Request.Context(), ticketID, userID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("HandlePurchaseResale -> h.svc.PurchaseResale", err, ticketTarget(ticketID)))
		return
	}

	ctx.JSON(http.StatusCreated, receipt)
}

// HandleMyTickets godoc
// @Summary      Tickets owned by the caller
// @Tags         tickets
// @Produce      json
// @Param        page      query     int  false  "Page, from 1"
// @Param        per_page  query     int  false  "Page size, 1 to 100"
// @Success      200       {object}  domain.TicketPage
// @Failure      400       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /users/me/tickets [get]
// @Security BearerAuth
func (h *TicketHandler) HandleMyTickets(ctx *gin.Context) {
	userID, respErr := getUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	query, err := request.ParsePageQuery(ctx.Query("page"), ctx.Query("per_page"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	page, err := h.svc.OwnedTickets(ctx.Request.Context(), userID, query.Page, query.PerPage)
	if err != nil {
		response.RenderErr(ctx, serviceErr("HandleMyTickets -> h.svc.OwnedTickets", err, noTarget))
		return
	}

	ctx.JSON(http.StatusOK, page)
}

// HandleMyTransactions godoc
// @Summary      Transfers the caller took part in
// @Description  As buyer or seller, newest first.
// @Tags         ledger
// @Produce      json
// @Success      200  {array}   domain.Transaction
// @Failure      500  {object}  response.Err
// @Router       /users/me/transactions [get]
// @Security BearerAuth
func (h *TicketHandler) HandleMyTransactions(ctx *gin.Context) {
	userID, respErr := getUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	history, err := h.ledger.UserHistory(ctx.Request.Context(), userID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("HandleMyTransactions -> h.ledger.UserHistory", err, noTarget))
		return
	}

	ctx.JSON(http.StatusOK, history)
}
