package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fvivu/internal/shared/apperror"
	"fvivu/internal/shared/utils/query"
	"fvivu/internal/tours"
	"fvivu/internal/users"
	"fvivu/pkg/logger"

	"github.com/google/uuid"
)

// TourFinder reads tours for booking decisions. It must not serve from cache.
type TourFinder interface {
	FindTour(ctx context.Context, id string) (*tours.Tour, error)
}

// PaidBooking is a completed checkout reported by the payment provider
type PaidBooking struct {
	TourID            string
	UserID            uuid.UUID
	StartDate         time.Time
	NumberOfPeople    int
	AmountTotal       int64
	ProviderEventID   string
	CheckoutSessionID string
	PaidAt            time.Time
}

// Service interface defines the contract for booking business logic
type Service interface {
	CreateBooking(ctx context.Context, userID uuid.UUID, req *CreateBookingRequest) (*BookingResponse, error)
	GetMyBookings(ctx context.Context, userID uuid.UUID, q query.ListQuery) ([]BookingResponse, int64, error)
	RemainingSlots(ctx context.Context, tourID string, startDate string) (*RemainingSlotsResponse, error)
	// ConfirmPaidBooking records a paid booking once per provider event. The
	// bool is false when the event had already produced a booking.
	ConfirmPaidBooking(ctx context.Context, in PaidBooking) (*Booking, bool, error)
	CancelBooking(ctx context.Context, actor users.Actor, id string) (*BookingResponse, error)
	GetPartnerBookings(ctx context.Context, partnerID uuid.UUID, q query.ListQuery) ([]BookingResponse, int64, error)
	GetBooking(ctx context.Context, actor users.Actor, id string) (*BookingResponse, error)
}

// service implements the Service interface
type service struct {
	repo   Repository
	tours  TourFinder
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new booking service instance
func NewService(repo Repository, tourFinder TourFinder) Service {
	return &service{
		repo:   repo,
		tours:  tourFinder,
		logger: logger.GetDefault(),
		now:    time.Now,
	}
}

// CreateBooking books seats on a departure without payment. The booking is
// PENDING and holds its seats until cancelled.
func (s *service) CreateBooking(ctx context.Context, userID uuid.UUID, req *CreateBookingRequest) (*BookingResponse, error) {
	// Step 1: Validate the request
	if req.TourID == "" || req.StartDate == "" || req.NumberOfPeople < 1 {
		return nil, fmt.Errorf("%w: tourId, startDate and numberOfPeople are required", apperror.ErrInvalidInput)
	}

	// Step 2: Load the tour from the database, only ACTIVE tours take bookings
	tour, err := s.tours.FindTour(ctx, req.TourID)
	if err != nil {
		return nil, err
	}
	if tour.Status != tours.StatusActive {
		return nil, ErrTourNotBookable
	}

	// Step 3: The day must be one of the tour's departures
	day, err := tours.ParseStartDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	if !tour.HasStartDate(day) {
		return nil, ErrInvalidStartDate
	}

	// Step 4: Price is fixed at booking time
	booking := &Booking{
		TourID:         tour.ID,
		UserID:         userID,
		StartDate:      day,
		NumberOfPeople: req.NumberOfPeople,
		Price:          tour.Price * int64(req.NumberOfPeople),
		Status:         StatusPending,
	}

	// Step 5: Insert under the departure lock, rejecting overbooking
	if err := s.create(ctx, booking); err != nil {
		return nil, err
	}

	booking.Tour = tour
	resp := booking.ToResponse()
	return &resp, nil
}

// create runs the capacity-checked insert and logs the outcome
func (s *service) create(ctx context.Context, booking *Booking) error {
	err := s.repo.CreateWithCapacityCheck(ctx, booking)
	var capErr *CapacityError
	if errors.As(err, &capErr) {
		s.logger.LogCapacityRejected(ctx, booking.TourID.String(), tours.FormatDay(booking.StartDate), capErr.Requested, capErr.Remaining)
	}
	if err != nil {
		return err
	}
	s.logger.LogBookingCreated(ctx, booking.ID.String(), booking.TourID.String(), booking.UserID.String(), booking.Status.String(), booking.NumberOfPeople)
	return nil
}

// GetMyBookings lists the caller's bookings, newest first
func (s *service) GetMyBookings(ctx context.Context, userID uuid.UUID, q query.ListQuery) ([]BookingResponse, int64, error) {
	list, total, err := s.repo.ListByUser(ctx, userID, query.Normalize(q))
	if err != nil {
		return nil, 0, err
	}
	return ToResponses(list), total, nil
}

// RemainingSlots reports seats left on one departure. The count is read
// without locks and is advisory; the booking transaction re-checks it.
func (s *service) RemainingSlots(ctx context.Context, tourID string, startDate string) (*RemainingSlotsResponse, error) {
	tour, err := s.tours.FindTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	day, err := tours.ParseStartDate(startDate)
	if err != nil {
		return nil, err
	}

	booked, err := s.repo.BookedSeats(ctx, tour.ID, day)
	if err != nil {
		return nil, err
	}

	// remaining is clamped at zero, overbooking is reported separately
	resp := NewRemainingSlots(tour.ID.String(), day, tour.MaxGroupSize, booked)
	if resp.OverbookedBy > 0 {
		s.logger.WarnContext(ctx, "departure is overbooked",
			"tour_id", resp.TourID, "start_date", resp.StartDate, "overbooked_by", resp.OverbookedBy)
	}
	return &resp, nil
}

// ConfirmPaidBooking turns a completed checkout into a CONFIRMED booking.
// Replays of the same provider event return the existing booking.
func (s *service) ConfirmPaidBooking(ctx context.Context, in PaidBooking) (*Booking, bool, error) {
	// Step 1: Validate the checkout data
	if in.ProviderEventID == "" {
		return nil, false, fmt.Errorf("%w: provider event id is required", apperror.ErrInvalidInput)
	}
	if in.NumberOfPeople < 1 {
		return nil, false, fmt.Errorf("%w: numberOfPeople must be at least 1", apperror.ErrInvalidInput)
	}

	// Step 2: Load the tour; a paid booking is kept even if the tour was
	// deactivated after checkout
	tour, err := s.tours.FindTour(ctx, in.TourID)
	if err != nil {
		return nil, false, err
	}
	day := tours.NormalizeDay(in.StartDate)
	if !tour.HasStartDate(day) {
		return nil, false, ErrInvalidStartDate
	}

	// Step 3: Build the booking, the provider's amount is the price
	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	eventID := in.ProviderEventID
	booking := &Booking{
		TourID:          tour.ID,
		UserID:          in.UserID,
		StartDate:       day,
		NumberOfPeople:  in.NumberOfPeople,
		Price:           in.AmountTotal,
		Status:          StatusConfirmed,
		PaidAt:          &paidAt,
		ProviderEventID: &eventID,
	}
	if in.CheckoutSessionID != "" {
		sessionID := in.CheckoutSessionID
		booking.CheckoutSessionID = &sessionID
	}

	// Step 4: Insert; a known event id resolves to the booking it created
	err = s.create(ctx, booking)
	if errors.Is(err, ErrDuplicateProviderEvent) {
		existing, getErr := s.repo.GetByProviderEventID(ctx, eventID)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	booking.Tour = tour
	return booking, true, nil
}

// CancelBooking cancels a PENDING booking and releases its seats. Paid
// bookings need a refund and cannot be cancelled here.
func (s *service) CancelBooking(ctx context.Context, actor users.Actor, id string) (*BookingResponse, error) {
	booking, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanBeCancelled() {
		return nil, ErrNotCancellable
	}

	at := s.now()
	if err := s.repo.Cancel(ctx, booking.ID, at); err != nil {
		return nil, err
	}
	booking.Status = StatusCancelled
	booking.CancelledAt = &at

	s.logger.LogBookingCancelled(ctx, booking.ID.String(), booking.TourID.String(), booking.UserID.String())
	resp := booking.ToResponse()
	return &resp, nil
}

// GetPartnerBookings lists bookings made on the partner's tours
func (s *service) GetPartnerBookings(ctx context.Context, partnerID uuid.UUID, q query.ListQuery) ([]BookingResponse, int64, error) {
	list, total, err := s.repo.ListByPartner(ctx, partnerID, query.Normalize(q))
	if err != nil {
		return nil, 0, err
	}
	return ToResponses(list), total, nil
}

// GetBooking returns one booking to its owner or an admin
func (s *service) GetBooking(ctx context.Context, actor users.Actor, id string) (*BookingResponse, error) {
	booking, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := booking.ToResponse()
	return &resp, nil
}

// load fetches a booking visible to actor: its owner or an admin
func (s *service) load(ctx context.Context, actor users.Actor, id string) (*Booking, error) {
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotBookingOwner
	}
	return booking, nil
}
