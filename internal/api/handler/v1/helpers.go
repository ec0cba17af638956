package v1

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ticketi/ticketi-api/internal/api/handler/v1/response"
	"github.com/ticketi/ticketi-api/internal/api/middleware"
	"github.com/ticketi/ticketi-api/internal/service"
)

var errNoCaller = errors.New("no authenticated caller in context")

func getUserID(ctx *gin.Context) (uint, *response.Err) {
	value, ok := ctx.Get(middleware.UserIDKey)
	if !ok {
		return 0, response.ErrUnauthorized(errNoCaller)
	}

	userID, ok := value.(uint)
	if !ok || userID == 0 {
		return 0, response.ErrUnauthorized(errNoCaller)
	}

	return userID, nil
}

func parseID(ctx *gin.Context, param string) (uint, *response.Err) {
	id, err := strconv.ParseUint(ctx.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid %s", param))
	}

	return uint(id), nil
}

// target is the resource a request addresses by its path id.
type target struct {
	resource string
	id       uint
}

var noTarget target

func eventTarget(id uint) target {
	return target{resource: "event", id: id}
}

func ticketTarget(id uint) target {
	return target{resource: "ticket", id: id}
}

func (t target) notFound(resource string) *response.Err {
	if t.resource != resource {
		return response.ErrResourceNotFound(resource)
	}

	return response.ErrNotFound(resource, "ID", t.id)
}

// serviceErr maps the service error taxonomy to HTTP responses. Anything not
// listed is an infrastructure fault.
func serviceErr(op string, err error, t target) *response.Err {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		return t.notFound("event")
	case errors.Is(err, service.ErrTicketNotFound):
		return t.notFound("ticket")
	case errors.Is(err, service.ErrUnauthorized):
		return response.ErrPermissionDenied(service.ErrUnauthorized)
	case errors.Is(err, service.ErrNoTicketsAvailable):
		return response.ErrConflict(service.ErrNoTicketsAvailable)
	case errors.Is(err, service.ErrConcurrencyConflict):
		return response.ErrConflict(service.ErrConcurrencyConflict)
	case errors.Is(err, service.ErrEventHasSales):
		return response.ErrConflict(service.ErrEventHasSales)
	case errors.Is(err, service.ErrInvalidPage):
		return response.ErrBadRequest(service.ErrInvalidPage)
	}

	for _, rejected := range []error{
		service.ErrEventElapsed,
		service.ErrInvalidState,
		service.ErrNotForResale,
		service.ErrCannotBuyOwnTicket,
		service.ErrInvalidPrice,
		service.ErrInvalidEventDate,
		service.ErrInvalidCapacity,
		service.ErrInvalidEventStatus,
	} {
		if errors.Is(err, rejected) {
			return response.ErrUnprocessable(rejected)
		}
	}

	return response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err))
}
