package admin

import (
	"fvivu/internal/shared/config"
	"fvivu/internal/shared/middleware"

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

// SetupRoutes registers the admin-only routes under /admin
func (ar *Router) SetupRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.JWTAuthWithConfig(ar.config), middleware.RequireAdmin())
	{
		admin.GET("/users", ar.controller.ListUsers)
		admin.PATCH("/users/:id/ban", ar.controller.BanUser)
		admin.POST("/partners", ar.controller.CreatePartner)
		admin.GET("/tours/pending", ar.controller.ListPendingTours)
		admin.PATCH("/tours/:id/approve", ar.controller.ReviewTour)
	}
}
