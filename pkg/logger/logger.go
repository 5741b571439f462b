package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance writing to stdout
func New() *Logger {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(w io.Writer) *Logger {
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	// Create handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Create handler based on environment
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		// Use text handler for development (more readable)
		handler = slog.NewTextHandler(w, opts)
	} else {
		// Use JSON handler for production (structured)
		handler = slog.NewJSONHandler(w, opts)
	}

	// Create logger
	logger := slog.New(handler)

	return &Logger{
		Logger: logger,
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogHTTPError logs an HTTP error
func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("ip", c.ClientIP()),
	)
}

// Business logic logging methods

// LogTourCreated logs when a partner submits a tour
func (l *Logger) LogTourCreated(ctx context.Context, tourID, partnerID string) {
	l.Logger.InfoContext(ctx,
		"Tour Created",
		slog.String("tour_id", tourID),
		slog.String("partner_id", partnerID),
	)
}

// LogTourReviewed logs an admin approval decision
func (l *Logger) LogTourReviewed(ctx context.Context, tourID, decision, adminID string) {
	l.Logger.InfoContext(ctx,
		"Tour Reviewed",
		slog.String("tour_id", tourID),
		slog.String("decision", decision),
		slog.String("admin_id", adminID),
	)
}

// LogReviewPosted logs a customer rating a tour
func (l *Logger) LogReviewPosted(ctx context.Context, reviewID, tourID, userID string, rating int) {
	l.Logger.InfoContext(ctx,
		"Review Posted",
		slog.String("review_id", reviewID),
		slog.String("tour_id", tourID),
		slog.String("user_id", userID),
		slog.Int("rating", rating),
	)
}

// LogBookingCreated logs when a booking is written to the ledger
func (l *Logger) LogBookingCreated(ctx context.Context, bookingID, tourID, userID, status string, seats int) {
	l.Logger.InfoContext(ctx,
		"Booking Created",
		slog.String("booking_id", bookingID),
		slog.String("tour_id", tourID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.Int("seats", seats),
	)
}

// LogBookingCancelled logs when a booking is cancelled
func (l *Logger) LogBookingCancelled(ctx context.Context, bookingID, tourID, userID string) {
	l.Logger.InfoContext(ctx,
		"Booking Cancelled",
		slog.String("booking_id", bookingID),
		slog.String("tour_id", tourID),
		slog.String("user_id", userID),
	)
}

// LogCapacityRejected logs a booking refused because the departure is full
func (l *Logger) LogCapacityRejected(ctx context.Context, tourID, startDate string, requested, remaining int) {
	l.Logger.WarnContext(ctx,
		"Booking Rejected: Capacity",
		slog.String("tour_id", tourID),
		slog.String("start_date", startDate),
		slog.Int("requested", requested),
		slog.Int("remaining", remaining),
	)
}

// Payment logging methods

// LogCheckoutSessionCreated logs a hosted checkout session
func (l *Logger) LogCheckoutSessionCreated(ctx context.Context, sessionID, tourID, userID string, amount int64) {
	l.Logger.InfoContext(ctx,
		"Checkout Session Created",
		slog.String("session_id", sessionID),
		slog.String("tour_id", tourID),
		slog.String("user_id", userID),
		slog.Int64("amount", amount),
	)
}

// LogWebhookEvent logs the outcome of a payment webhook event
func (l *Logger) LogWebhookEvent(ctx context.Context, eventID, eventType, outcome string) {
	l.Logger.InfoContext(ctx,
		"Payment Webhook Event",
		slog.String("event_id", eventID),
		slog.String("event_type", eventType),
		slog.String("outcome", outcome),
	)
}

// Security logging methods

// LogAuthSuccess logs successful authentication
func (l *Logger) LogAuthSuccess(ctx context.Context, userID, method string) {
	l.Logger.InfoContext(ctx,
		"Authentication Success",
		slog.String("user_id", userID),
		slog.String("method", method),
	)
}

// LogAuthFailure logs failed authentication
func (l *Logger) LogAuthFailure(ctx context.Context, reason, ip string) {
	l.Logger.WarnContext(ctx,
		"Authentication Failure",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// Helper methods for common patterns

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.InfoContext(ctx, msg, args...)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// DebugWithContext logs a debug message with context
func (l *Logger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.DebugContext(ctx, msg, args...)
}

var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
