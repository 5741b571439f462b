package auth

import (
	"net/http"

	"fvivu/internal/shared/middleware"
	"fvivu/internal/shared/utils/response"
	"fvivu/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service   Service
	validator *validator.Validate
	logger    *logger.Logger
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
		logger:    logger.GetDefault(),
	}
}

func (c *Controller) Signup(ctx *gin.Context) {
	var req SignupRequest
	if !c.bind(ctx, &req) {
		return
	}

	resp, err := c.service.Signup(ctx.Request.Context(), &req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to register user")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "User registered successfully", resp, nil)
}

func (c *Controller) Login(ctx *gin.Context) {
	var req LoginRequest
	if !c.bind(ctx, &req) {
		return
	}

	resp, err := c.service.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.LogAuthFailure(ctx.Request.Context(), err.Error(), ctx.ClientIP())
		response.RespondError(ctx, err, "Failed to login")
		return
	}

	c.logger.LogAuthSuccess(ctx.Request.Context(), resp.User.ID, "password")
	response.RespondJSON(ctx, "success", http.StatusOK, "Login successful", resp, nil)
}

func (c *Controller) RefreshToken(ctx *gin.Context) {
	var req RefreshTokenRequest
	if !c.bind(ctx, &req) {
		return
	}

	tokenPair, err := c.service.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		response.RespondError(ctx, err, "Failed to refresh token")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Token refreshed successfully", tokenPair, nil)
}

// Logout is stateless, clients drop their tokens
func (c *Controller) Logout(ctx *gin.Context) {
	var req LogoutRequest
	_ = ctx.ShouldBindJSON(&req)

	response.RespondJSON(ctx, "success", http.StatusOK, "Logged out successfully", nil, nil)
}

func (c *Controller) UpdatePassword(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req UpdatePasswordRequest
	if !c.bind(ctx, &req) {
		return
	}

	tokenPair, err := c.service.UpdatePassword(ctx.Request.Context(), userID.String(), &req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to update password")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Password updated successfully", tokenPair, nil)
}

func (c *Controller) GetProfile(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	profile, err := c.service.GetProfile(ctx.Request.Context(), userID.String())
	if err != nil {
		response.RespondError(ctx, err, "Failed to load profile")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "User data retrieved successfully", profile, nil)
}

// UpdateProfile changes name, description or photo of the caller
func (c *Controller) UpdateProfile(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req UpdateProfileRequest
	if !c.bind(ctx, &req) {
		return
	}

	profile, err := c.service.UpdateProfile(ctx.Request.Context(), userID.String(), &req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to update profile")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Profile updated successfully", profile, nil)
}

func (c *Controller) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest
	if !c.bind(ctx, &req) {
		return
	}

	if err := c.service.ForgotPassword(ctx.Request.Context(), req.Email); err != nil {
		response.RespondError(ctx, err, "Failed to send password reset email")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "If the email is registered, a reset link has been sent", nil, nil)
}

func (c *Controller) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest
	if !c.bind(ctx, &req) {
		return
	}

	resp, err := c.service.ResetPassword(ctx.Request.Context(), &req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to reset password")
		return
	}

	c.logger.LogAuthSuccess(ctx.Request.Context(), resp.User.ID, "password_reset")
	response.RespondJSON(ctx, "success", http.StatusOK, "Password reset successfully", resp, nil)
}

func (c *Controller) ConfirmEmail(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	profile, err := c.service.ConfirmEmail(ctx.Request.Context(), userID.String(), ctx.Param("pin"))
	if err != nil {
		response.RespondError(ctx, err, "Failed to confirm email")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Email confirmed successfully", profile, nil)
}

func (c *Controller) ResendConfirmation(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	if err := c.service.ResendConfirmation(ctx.Request.Context(), userID.String()); err != nil {
		response.RespondError(ctx, err, "Failed to resend confirmation email")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "A new confirmation PIN has been sent", nil, nil)
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
