package payments

import (
	"context"
	"fmt"

	"fvivu/internal/bookings"
	"fvivu/internal/shared/apperror"
	"fvivu/internal/tours"
	"fvivu/pkg/logger"

	"github.com/google/uuid"
)

// SlotCounter reports how many seats a departure has left
type SlotCounter interface {
	RemainingSlots(ctx context.Context, tourID string, startDate string) (*bookings.RemainingSlotsResponse, error)
}

// Customer is the authenticated buyer of a checkout session
type Customer struct {
	ID    uuid.UUID
	Email string
}

// Gateway starts hosted checkouts. It never writes to the booking ledger;
// the booking is created when the provider reports the payment.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, customer Customer, req *CheckoutSessionRequest) (*CheckoutSessionResponse, error)
}

// gateway implements the Gateway interface
type gateway struct {
	provider Provider
	tours    bookings.TourFinder
	slots    SlotCounter
	currency string
	logger   *logger.Logger
}

// NewGateway creates a new checkout gateway charging in currency
func NewGateway(provider Provider, tourFinder bookings.TourFinder, slots SlotCounter, currency string) Gateway {
	return &gateway{
		provider: provider,
		tours:    tourFinder,
		slots:    slots,
		currency: currency,
		logger:   logger.GetDefault(),
	}
}

// CreateCheckoutSession opens a hosted checkout for seats on one departure.
// Nothing is booked until the provider reports the payment.
func (g *gateway) CreateCheckoutSession(ctx context.Context, customer Customer, req *CheckoutSessionRequest) (*CheckoutSessionResponse, error) {
	// Step 1: Validate the request
	if req.TourID == "" || req.StartDate == "" || req.NumberOfPeople < 1 {
		return nil, fmt.Errorf("%w: tourId, startDate and numberOfPeople are required", apperror.ErrInvalidInput)
	}

	// Step 2: Load the tour and check the departure is scheduled
	tour, err := g.tours.FindTour(ctx, req.TourID)
	if err != nil {
		return nil, err
	}
	if tour.Status != tours.StatusActive {
		return nil, bookings.ErrTourNotBookable
	}

	day, err := tours.ParseStartDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	if !tour.HasStartDate(day) {
		return nil, bookings.ErrInvalidStartDate
	}

	// Step 3: Check seats. Advisory only, the webhook re-checks inside the
	// capacity transaction
	slots, err := g.slots.RemainingSlots(ctx, req.TourID, tours.FormatDay(day))
	if err != nil {
		return nil, err
	}
	if slots.RemainingSlots < req.NumberOfPeople {
		g.logger.LogCapacityRejected(ctx, req.TourID, slots.StartDate, req.NumberOfPeople, slots.RemainingSlots)
		return nil, &bookings.CapacityError{Requested: req.NumberOfPeople, Remaining: slots.RemainingSlots}
	}

	// Step 4: Ask the provider for a session; the metadata carries what the
	// webhook needs to create the booking
	cs, err := g.provider.CreateCheckoutSession(ctx, CheckoutInput{
		TourID:         tour.ID.String(),
		TourName:       tour.Name,
		TourSummary:    tour.Summary,
		ImageURL:       tour.ImageCover,
		UnitAmount:     tour.Price,
		Quantity:       req.NumberOfPeople,
		Currency:       g.currency,
		CustomerEmail:  customer.Email,
		UserID:         customer.ID.String(),
		StartDate:      day,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		g.logger.ErrorWithContext(ctx, "checkout session creation failed", err, map[string]interface{}{"tour_id": req.TourID})
		return nil, err
	}

	// Step 5: Report the amount the provider will charge
	amount := cs.AmountTotal
	if amount == 0 {
		amount = tour.Price * int64(req.NumberOfPeople)
	}
	g.logger.LogCheckoutSessionCreated(ctx, cs.ID, tour.ID.String(), customer.ID.String(), amount)

	currency := cs.Currency
	if currency == "" {
		currency = g.currency
	}
	return &CheckoutSessionResponse{
		SessionID:   cs.ID,
		URL:         cs.URL,
		AmountTotal: amount,
		Currency:    currency,
	}, nil
}
