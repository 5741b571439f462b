package tours

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

func (c *Controller) ListTours(ctx *gin.Context) {
	q := query.FromContext(ctx)
	items, total, err := c.service.ListTours(ctx.Request.Context(), q)
	if err != nil {
		response.RespondError(ctx, err, "Failed to retrieve tours")
		return
	}
	response.RespondPaginated(ctx, http.StatusOK, "Tours retrieved successfully", items, response.NewPagination(q.Page, q.Limit, total))
}

func (c *Controller) GetTour(ctx *gin.Context) {
	tour, err := c.service.GetTour(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, err, "Failed to retrieve tour")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Tour retrieved successfully", tour, nil)
}

func (c *Controller) GetStartDates(ctx *gin.Context) {
	dates, err := c.service.GetStartDates(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, err, "Failed to retrieve start dates")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Start dates retrieved successfully", dates, nil)
}

func (c *Controller) CreateTour(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req CreateTourRequest
	if !c.bind(ctx, &req) {
		return
	}

	tour, err := c.service.CreateTour(ctx.Request.Context(), actor.ID, &req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to create tour")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Tour submitted for review", tour, nil)
}

func (c *Controller) ListMyTours(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	q := query.FromContext(ctx)
	items, total, err := c.service.ListPartnerTours(ctx.Request.Context(), actor.ID, q)
	if err != nil {
		response.RespondError(ctx, err, "Failed to retrieve tours")
		return
	}
	response.RespondPaginated(ctx, http.StatusOK, "Tours retrieved successfully", items, response.NewPagination(q.Page, q.Limit, total))
}

func (c *Controller) UpdateTour(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req UpdateTourRequest
	if !c.bind(ctx, &req) {
		return
	}

	tour, err := c.service.UpdateTour(ctx.Request.Context(), actor, ctx.Param("id"), &req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to update tour")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Tour updated successfully", tour, nil)
}

func (c *Controller) DeleteTour(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	if err := c.service.DeleteTour(ctx.Request.Context(), actor, ctx.Param("id")); err != nil {
		response.RespondError(ctx, err, "Failed to delete tour")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Tour deleted successfully", nil, nil)
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
