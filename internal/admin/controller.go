package admin

import (
	"net/http"
	"strconv"

	"fvivu/internal/auth"
	"fvivu/internal/shared/middleware"
	"fvivu/internal/shared/utils/query"
	"fvivu/internal/shared/utils/response"
	"fvivu/internal/tours"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
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

// ListUsers accepts role, active, search, page and limit query parameters
func (c *Controller) ListUsers(ctx *gin.Context) {
	filter := auth.UserFilter{
		ListQuery: query.FromContext(ctx),
		Role:      ctx.Query("role"),
	}
	if raw := ctx.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Active must be true or false", nil, nil)
			return
		}
		filter.Active = &active
	}

	items, total, err := c.service.ListUsers(ctx.Request.Context(), filter)
	if err != nil {
		response.RespondError(ctx, err, "Failed to retrieve users")
		return
	}
	response.RespondPaginated(ctx, http.StatusOK, "Users retrieved successfully", items, response.NewPagination(filter.Page, filter.Limit, total))
}

func (c *Controller) CreatePartner(ctx *gin.Context) {
	var req CreatePartnerRequest
	if !c.bind(ctx, &req) {
		return
	}

	partner, err := c.service.CreatePartner(ctx.Request.Context(), &req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to create partner")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Partner created, login details sent by email", partner, nil)
}

func (c *Controller) ListPendingTours(ctx *gin.Context) {
	q := query.FromContext(ctx)

	var partnerID *uuid.UUID
	if raw := ctx.Query("partnerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid partner id", nil, nil)
			return
		}
		partnerID = &id
	}

	items, total, err := c.service.ListPendingTours(ctx.Request.Context(), q, partnerID)
	if err != nil {
		response.RespondError(ctx, err, "Failed to retrieve pending tours")
		return
	}
	response.RespondPaginated(ctx, http.StatusOK, "Pending tours retrieved successfully", items, response.NewPagination(q.Page, q.Limit, total))
}

func (c *Controller) ReviewTour(ctx *gin.Context) {
	adminID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req tours.ReviewTourRequest
	if !c.bind(ctx, &req) {
		return
	}

	tour, err := c.service.ReviewTour(ctx.Request.Context(), adminID, ctx.Param("id"), req.Decision)
	if err != nil {
		response.RespondError(ctx, err, "Failed to review tour")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Tour reviewed successfully", tour, nil)
}

func (c *Controller) BanUser(ctx *gin.Context) {
	user, err := c.service.BanUser(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, err, "Failed to ban user")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "User banned successfully", user, nil)
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
