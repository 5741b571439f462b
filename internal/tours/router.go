package tours

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

func (tr *Router) SetupRoutes(rg *gin.RouterGroup) {
	public := rg.Group("/tours")
	{
		public.GET("", tr.controller.ListTours)
		public.GET("/:id", tr.controller.GetTour)
		public.GET("/:id/start-dates", tr.controller.GetStartDates)
	}

	manage := rg.Group("/tours")
	manage.Use(middleware.JWTAuthWithConfig(tr.config))
	{
		manage.POST("", middleware.RequireRoles(users.RolePartner), tr.controller.CreateTour)
		manage.GET("/partner/mine", middleware.RequireRoles(users.RolePartner), tr.controller.ListMyTours)
		manage.PATCH("/:id", middleware.RequireRoles(users.RolePartner, users.RoleAdmin), tr.controller.UpdateTour)
		manage.DELETE("/:id", middleware.RequireRoles(users.RolePartner, users.RoleAdmin), tr.controller.DeleteTour)
	}
}
