package routes

import (
	"net/http"
	"time"

	_ "fvivu/docs"
	"fvivu/internal/admin"
	"fvivu/internal/auth"
	"fvivu/internal/bookings"
	"fvivu/internal/notifications"
	"fvivu/internal/payments"
	"fvivu/internal/reviews"
	"fvivu/internal/shared/config"
	"fvivu/internal/shared/database"
	"fvivu/internal/tours"
	"fvivu/pkg/cache"
	"fvivu/pkg/lock"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	publisher *notifications.Publisher

	authRepo    auth.Repository
	tourService tours.Service
	bookingSvc  bookings.Service
	retryJob    *payments.RetryJob
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, publisher *notifications.Publisher) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		publisher: publisher,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(r.config.GetAPIBasePath())
	{
		// order matters: later groups depend on services built by earlier ones
		r.setupAuthRoutes(api)
		r.setupTourRoutes(api)
		r.setupReviewRoutes(api)
		r.setupBookingRoutes(api)
		r.setupPaymentRoutes(engine, api)
		r.setupAdminRoutes(api)
	}
}

// RetryJob returns the payment event retry job built by SetupRoutes
func (r *Router) RetryJob() *payments.RetryJob {
	return r.retryJob
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "fvivu-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "fvivu-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "operational",
			"apiVersion": r.config.APIVersion,
			"timestamp":  time.Now(),
		})
	})
}

func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	r.authRepo = auth.NewRepository(r.db.PostgreSQL)
	authService := auth.NewService(r.authRepo, r.config, r.publisher)
	auth.NewRouter(auth.NewController(authService), r.config).SetupRoutes(rg)
}

func (r *Router) setupTourRoutes(rg *gin.RouterGroup) {
	r.tourService = tours.NewService(tours.NewRepository(r.db.PostgreSQL), cache.NewService(r.db.Redis))
	tours.NewRouter(tours.NewController(r.tourService), r.config).SetupRoutes(rg)
}

func (r *Router) setupReviewRoutes(rg *gin.RouterGroup) {
	reviewService := reviews.NewService(reviews.NewRepository(r.db.PostgreSQL), r.tourService)
	reviews.NewRouter(reviews.NewController(reviewService), r.config).SetupRoutes(rg)
}

func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	r.bookingSvc = bookings.NewService(bookings.NewRepository(r.db.PostgreSQL), r.tourService)
	bookings.NewRouter(bookings.NewController(r.bookingSvc), r.config).SetupRoutes(rg)
}

// setupPaymentRoutes wires checkout under the API prefix and the provider
// webhook at the root, where the provider is configured to call it
func (r *Router) setupPaymentRoutes(engine *gin.Engine, rg *gin.RouterGroup) {
	provider := payments.NewStripeProvider(r.config.Stripe)
	events := payments.NewRepository(r.db.PostgreSQL)

	gateway := payments.NewGateway(provider, r.tourService, r.bookingSvc, r.config.Stripe.Currency)
	webhooks := payments.NewWebhookService(
		provider,
		events,
		r.authRepo,
		r.bookingSvc,
		lock.NewRedisLocker(r.db.Redis),
		r.publisher,
		payments.WebhookConfig{
			MaxAttempts: r.config.Payments.MaxAttempts,
			RetryDelay:  r.config.Payments.RetryInterval,
			LockTTL:     r.config.Redis.EventLockTTL,
		},
	)
	r.retryJob = payments.NewRetryJob(webhooks, events, &payments.RetryJobConfig{
		Interval:  r.config.Payments.RetryInterval,
		BatchSize: r.config.Payments.RetryBatch,
	})

	router := payments.NewRouter(payments.NewController(gateway, webhooks), r.config)
	router.SetupRoutes(rg)
	router.SetupWebhookRoutes(engine)
}

func (r *Router) setupAdminRoutes(rg *gin.RouterGroup) {
	adminService := admin.NewService(r.authRepo, r.tourService, r.publisher)
	admin.NewRouter(admin.NewController(adminService), r.config).SetupRoutes(rg)
}
