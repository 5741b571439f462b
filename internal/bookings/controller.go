package bookings

import (
	"net/http"

	"fvivu/internal/shared/middleware"
	"fvivu/internal/shared/utils/query"
	"fvivu/internal/shared/utils/response"
	"fvivu/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// CreateBooking books seats without payment; the booking stays PENDING
func (c *Controller) CreateBooking(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if !c.bind(ctx, &req) {
		return
	}

	booking, err := c.service.CreateBooking(ctx.Request.Context(), actor.ID, &req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to create booking")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking created successfully", booking, nil)
}

func (c *Controller) GetMyBookings(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	q := query.FromContext(ctx)
	items, total, err := c.service.GetMyBookings(ctx.Request.Context(), actor.ID, q)
	if err != nil {
		response.RespondError(ctx, err, "Failed to retrieve bookings")
		return
	}
	response.RespondPaginated(ctx, http.StatusOK, "Bookings retrieved successfully", items, response.NewPagination(q.Page, q.Limit, total))
}

func (c *Controller) GetPartnerBookings(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	q := query.FromContext(ctx)
	items, total, err := c.service.GetPartnerBookings(ctx.Request.Context(), actor.ID, q)
	if err != nil {
		response.RespondError(ctx, err, "Failed to retrieve bookings")
		return
	}
	response.RespondPaginated(ctx, http.StatusOK, "Bookings retrieved successfully", items, response.NewPagination(q.Page, q.Limit, total))
}

func (c *Controller) GetBooking(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), actor, ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, err, "Failed to retrieve booking")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

func (c *Controller) CancelBooking(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	booking, err := c.service.CancelBooking(ctx.Request.Context(), actor, ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, err, "Failed to cancel booking")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Booking cancelled successfully", booking, nil)
}

func (c *Controller) RemainingSlots(ctx *gin.Context) {
	var req RemainingSlotsRequest
	if !c.bind(ctx, &req) {
		return
	}

	slots, err := c.service.RemainingSlots(ctx.Request.Context(), ctx.Param("id"), req.StartDate)
	if err != nil {
		response.RespondError(ctx, err, "Failed to compute remaining slots")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Remaining slots retrieved successfully", slots, nil)
}

func (c *Controller) bind(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return false
	}
	if err := c.validator.Struct(req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return false
	}
	return true
}

func currentActor(ctx *gin.Context) (users.Actor, bool) {
	actor, ok := middleware.CurrentActor(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
	}
	return actor, ok
}
