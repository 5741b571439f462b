package auth

import (
	"fvivu/internal/shared/config"
	"fvivu/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles auth-related routes
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

// SetupRoutes registers all auth routes
func (authRouter *Router) SetupRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/signup", authRouter.controller.Signup)
		auth.POST("/login", authRouter.controller.Login)
		auth.POST("/refresh", authRouter.controller.RefreshToken)
		auth.POST("/logout", authRouter.controller.Logout)
		auth.POST("/forgot-password", authRouter.controller.ForgotPassword)
		auth.POST("/reset-password", authRouter.controller.ResetPassword)

		protected := auth.Group("")
		protected.Use(middleware.JWTAuthWithConfig(authRouter.config))
		{
			protected.PATCH("/update-password", authRouter.controller.UpdatePassword)
			protected.GET("/me", authRouter.controller.GetProfile)
			protected.PATCH("/profile", authRouter.controller.UpdateProfile)
			protected.GET("/confirm-email/:pin", authRouter.controller.ConfirmEmail)
			protected.POST("/resend-confirm-email", authRouter.controller.ResendConfirmation)
		}
	}
}
