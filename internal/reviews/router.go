package reviews

import (
	"fvivu/internal/shared/config"
	"fvivu/internal/shared/middleware"
	"fvivu/internal/users"

	"github.com/gin-gonic/gin"
)

type Router struct {
	controller *Controller
	config     *config.Config
}

func NewRouter(controller *Controller, cfg *config.Config) *Router {
	return &Router{
		controller: controller,
		config:     cfg,
	}
}

// SetupRoutes registers the public listing and the customer-only create
func (rr *Router) SetupRoutes(rg *gin.RouterGroup) {
	reviews := rg.Group("/reviews")
	{
		reviews.GET("/tour/:tourId", rr.controller.ListTourReviews)
		reviews.POST("",
			middleware.JWTAuthWithConfig(rr.config),
			middleware.RequireRoles(users.RoleCustomer),
			rr.controller.CreateReview,
		)
	}
}
