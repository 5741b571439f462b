package payments

import (
	"context"
	"fmt"
	"time"

	"fvivu/internal/shared/apperror"
)

// EventCheckoutCompleted is the only provider event that creates bookings
const EventCheckoutCompleted = "checkout.session.completed"

// Metadata keys attached to every checkout session
const (
	metaStartDate      = "startDate"
	metaNumberOfPeople = "numberOfPeople"
	metaUserID         = "userId"
)

var ErrMalformedEvent = fmt.Errorf("%w: malformed payment event", apperror.ErrInvalidInput)

// CheckoutInput describes the hosted checkout page to create
type CheckoutInput struct {
	TourID         string
	TourName       string
	TourSummary    string
	ImageURL       string
	UnitAmount     int64
	Quantity       int
	Currency       string
	CustomerEmail  string
	UserID         string
	StartDate      time.Time
	IdempotencyKey string
}

type CheckoutSession struct {
	ID          string
	URL         string
	AmountTotal int64
	Currency    string
}

// Event is the verified envelope of a provider delivery
type Event struct {
	ID   string
	Type string
}

// CompletedCheckout is the part of a completed session needed to book seats
type CompletedCheckout struct {
	SessionID      string
	TourID         string
	CustomerEmail  string
	AmountTotal    int64
	StartDate      string
	NumberOfPeople string
	UserID         string
}

// Provider is the hosted checkout service
type Provider interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error)
	// VerifyEvent checks the signature header against the shared secret
	VerifyEvent(payload []byte, signature string) (*Event, error)
	// DecodeCheckout reads a checkout.session.completed payload that was
	// verified earlier
	DecodeCheckout(payload []byte) (*CompletedCheckout, error)
}
