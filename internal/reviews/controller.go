package reviews

import (
	"net/http"

	"fvivu/internal/shared/middleware"
	"fvivu/internal/shared/utils/query"
	"fvivu/internal/shared/utils/response"

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

// CreateReview posts the caller's review; customers review a tour once
func (c *Controller) CreateReview(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CreateReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	review, err := c.service.CreateReview(ctx.Request.Context(), userID, &req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to create review")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Review created successfully", review, nil)
}

func (c *Controller) ListTourReviews(ctx *gin.Context) {
	q := query.FromContext(ctx)
	items, total, err := c.service.ListTourReviews(ctx.Request.Context(), ctx.Param("tourId"), q)
	if err != nil {
		response.RespondError(ctx, err, "Failed to retrieve reviews")
		return
	}
	response.RespondPaginated(ctx, http.StatusOK, "Reviews retrieved successfully", items, response.NewPagination(q.Page, q.Limit, total))
}
