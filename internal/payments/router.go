package payments

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

// SetupRoutes registers checkout under the API group
func (pr *Router) SetupRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings/checkout-session",
		middleware.JWTAuthWithConfig(pr.config),
		middleware.RequireRoles(users.RoleCustomer),
		pr.controller.CreateCheckoutSession,
	)
}

// SetupWebhookRoutes registers the provider callback, which carries no JWT
func (pr *Router) SetupWebhookRoutes(r gin.IRoutes) {
	r.POST("/webhook-checkout", pr.controller.HandleWebhook)
}
