package payments

import (
	"errors"
	"io"
	"net/http"

	"fvivu/internal/shared/middleware"
	"fvivu/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// maxWebhookBody matches the provider's documented event size limit
const maxWebhookBody = 65536

type Controller struct {
	gateway   Gateway
	webhooks  *WebhookService
	validator *validator.Validate
}

func NewController(gateway Gateway, webhooks *WebhookService) *Controller {
	return &Controller{
		gateway:   gateway,
		webhooks:  webhooks,
		validator: validator.New(),
	}
}

// CreateCheckoutSession starts a hosted checkout for the current customer
func (c *Controller) CreateCheckoutSession(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CheckoutSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	customer := Customer{ID: userID, Email: middleware.CurrentEmail(ctx)}
	session, err := c.gateway.CreateCheckoutSession(ctx.Request.Context(), customer, &req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to create checkout session")
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Checkout session created successfully", session, nil)
}

// HandleWebhook receives provider events. The body must be read raw for the
// signature check.
func (c *Controller) HandleWebhook(ctx *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondJSON(ctx, "error", http.StatusRequestEntityTooLarge, "Webhook payload too large", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to read request body", nil, nil)
		return
	}

	if err := c.webhooks.HandleWebhook(ctx.Request.Context(), payload, ctx.GetHeader("Stripe-Signature")); err != nil {
		response.RespondError(ctx, err, "Webhook processing failed")
		return
	}
	ctx.JSON(http.StatusOK, WebhookAck{Received: true})
}
