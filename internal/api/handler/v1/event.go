package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ticketi/ticketi-api/internal/api/handler/v1/request"
	"github.com/ticketi/ticketi-api/internal/api/handler/v1/response"
	"github.com/ticketi/ticketi-api/internal/domain"
)

type EventService interface {
	CreateEvent(ctx context.Context, organizerID uint, event domain.Event) (domain.Event, error)
	GetEvent(ctx context.Context, eventID uint) (domain.Event, error)
	ListOrganizerEvents(ctx context.Context, organizerID uint) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, eventID, callerID uint, patch domain.EventPatch) (domain.Event, error)
	DeleteEvent(ctx context.Context, eventID, callerID uint) error
}

type EventHandler struct {
	svc EventService
}

func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{
		svc: svc,
	}
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Description  Creates the event and provisions exactly capacity available tickets.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateEventRequest  true  "Event details"
// @Success      201    {object}  domain.Event
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      422    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /events [post]
// @Security BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	userID, respErr := getUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := input.ToDomain()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.CreateEvent(ctx.Request.Context(), userID, event)
	if err != nil {
		response.RenderErr(ctx, serviceErr("HandleCreateEvent -> h.svc.CreateEvent", err, noTarget))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleGetEvent godoc
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [get]
// @Security BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	eventID, respErr := parseID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	event, err := h.svc.GetEvent(ctx.Request.Context(), eventID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("HandleGetEvent -> h.svc.GetEvent", err, eventTarget(eventID)))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleListMyEvents godoc
// @Summary      List the caller's events
// @Description  Events organized by the authenticated user, latest date first.
// @Tags         events
// @Produce      json
// @Success      200  {array}   domain.Event
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /users/me/events [get]
// @Security BearerAuth
func (h *EventHandler) HandleListMyEvents(ctx *gin.Context) {
	userID, respErr := getUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	events, err := h.svc.ListOrganizerEvents(ctx.Request.Context(), userID)
	if err != nil {
		response.RenderErr(ctx, serviceErr("HandleListMyEvents -> h.svc.ListOrganizerEvents", err, noTarget))
		return
	}
	if events == nil {
		events = []domain.Event{}
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleUpdateEvent godoc
// @Summary      Update an event
// @Description  Partial update by the organizer. Capacity cannot change.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                         true  "Event ID"
// @Param        input    body      request.UpdateEventRequest  true  "Fields to change"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [patch]
// @Security BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
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

	var input request.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	patch, err := input.ToPatch()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.svc.UpdateEvent(ctx.Request.Context(), eventID, userID, patch)
	if err != nil {
		response.RenderErr(ctx, serviceErr("HandleUpdateEvent -> h.svc.UpdateEvent", err, eventTarget(eventID)))
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleDeleteEvent godoc
// @Summary      Delete an event
// @Description  Only possible while no ticket of the event has been sold.
// @Tags         events
// @Param        eventID  path  int  true  "Event ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID} [delete]
// @Security BearerAuth
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
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

	if err := h.svc.DeleteEvent(ctx.Request.Context(), eventID, userID); err != nil {
		response.RenderErr(ctx, serviceErr("HandleDeleteEvent -> h.svc.DeleteEvent", err, eventTarget(eventID)))
		return
	}

	ctx.Status(http.StatusNoContent)
}
