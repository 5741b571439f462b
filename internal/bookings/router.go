package bookings

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

func (br *Router) SetupRoutes(rg *gin.RouterGroup) {
	rg.POST("/tours/:id/remaining-slots", br.controller.RemainingSlots)

	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuthWithConfig(br.config))
	{
		bookings.POST("", middleware.RequireRoles(users.RoleCustomer), br.controller.CreateBooking)
		bookings.GET("/my", br.controller.GetMyBookings)
		bookings.GET("/partner", middleware.RequireRoles(users.RolePartner), br.controller.GetPartnerBookings)
		bookings.GET("/:id", br.controller.GetBooking)
		bookings.POST("/:id/cancel", br.controller.CancelBooking)
	}
}
