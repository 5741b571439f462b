package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fvivu/internal/bookings"
	"fvivu/internal/shared/apperror"
	"fvivu/internal/shared/constants"
	"fvivu/internal/tours"
	"fvivu/internal/users"
	"fvivu/pkg/lock"
	"fvivu/pkg/logger"
)

const maxRetryDelay = time.Hour

// UserFinder resolves the paying customer
type UserFinder interface {
	GetUserByEmail(ctx context.Context, email string) (*users.User, error)
}

// BookingConfirmer turns a paid checkout into a confirmed booking
type BookingConfirmer interface {
	ConfirmPaidBooking(ctx context.Context, in bookings.PaidBooking) (*bookings.Booking, bool, error)
}

// ConfirmationNotifier tells the customer their booking is confirmed
type ConfirmationNotifier interface {
	BookingConfirmed(ctx context.Context, booking *bookings.Booking, customer *users.User) error
}

// WebhookConfig tunes retries and locking for payment events
type WebhookConfig struct {
	// MaxAttempts moves an event to DEAD once reached
	MaxAttempts int
	// RetryDelay is the first retry delay, doubled per attempt
	RetryDelay time.Duration
	LockTTL    time.Duration
}

// WebhookService records provider deliveries in the payment ledger and applies
// them to the booking ledger at most once
type WebhookService struct {
	provider Provider
	events   EventRepository
	users    UserFinder
	bookings BookingConfirmer
	locker   lock.Locker
	notifier ConfirmationNotifier
	config   WebhookConfig
	logger   *logger.Logger
	now      func() time.Time
}

// NewWebhookService creates a new webhook service instance
func NewWebhookService(
	provider Provider,
	events EventRepository,
	userFinder UserFinder,
	confirmer BookingConfirmer,
	locker lock.Locker,
	notifier ConfirmationNotifier,
	cfg WebhookConfig,
) *WebhookService {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &WebhookService{
		provider: provider,
		events:   events,
		users:    userFinder,
		bookings: confirmer,
		locker:   locker,
		notifier: notifier,
		config:   cfg,
		logger:   logger.GetDefault(),
		now:      time.Now,
	}
}

// HandleWebhook verifies and records one delivery, then processes it. Only a
// bad signature or a ledger write failure is returned; processing failures are
// kept on the event for the retry job.
func (s *WebhookService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	// Step 1: Verify the signature before anything is written
	verified, err := s.provider.VerifyEvent(payload, signature)
	if err != nil {
		s.logger.LogWebhookEvent(ctx, "", "", "rejected")
		return err
	}

	// Step 2: Record the delivery in the payment ledger
	next := s.now().Add(s.config.RetryDelay)
	stored, created, err := s.events.Record(ctx, &PaymentEvent{
		ProviderEventID: verified.ID,
		EventType:       verified.Type,
		Payload:         string(payload),
		Status:          EventReceived,
		NextAttemptAt:   &next,
	})
	if err != nil {
		return err
	}

	// Step 3: Settled events are not processed twice
	if !created && stored.Status.Settled() {
		s.logger.LogWebhookEvent(ctx, stored.ProviderEventID, stored.EventType, "duplicate")
		return nil
	}

	// Step 4: Apply it now; failures stay on the event for the retry job
	s.Process(ctx, stored.ProviderEventID)
	return nil
}

// Process applies one recorded event under its lock. It is safe to call from
// the live webhook and the retry job at the same time.
func (s *WebhookService) Process(ctx context.Context, providerEventID string) {
	handle, err := s.locker.Acquire(ctx, constants.BuildPaymentEventLockKey(providerEventID), s.config.LockTTL)
	switch {
	case errors.Is(err, lock.ErrNotAcquired):
		s.logger.DebugWithContext(ctx, "payment event is being processed elsewhere", map[string]interface{}{
			"event_id": providerEventID,
		})
		return
	case err != nil:
		// the unique provider event id on bookings still prevents double booking
		s.logger.WarnContext(ctx, "processing payment event without lock", "event_id", providerEventID, "error", err)
	default:
		defer func() {
			if err := handle.Release(context.Background()); err != nil {
				s.logger.WarnContext(ctx, "failed to release payment event lock", "event_id", providerEventID, "error", err)
			}
		}()
	}

	// re-read under the lock, another worker may have settled it
	evt, err := s.events.Get(ctx, providerEventID)
	if err != nil {
		s.logger.ErrorWithContext(ctx, "failed to load payment event", err, map[string]interface{}{"event_id": providerEventID})
		return
	}
	if evt.Status.Settled() {
		return
	}

	s.settle(ctx, evt, s.apply(ctx, evt))
}

type outcome struct {
	ignored bool
	booking *bookings.Booking
	err     error
}

// apply runs one attempt at turning an event into a booking
func (s *WebhookService) apply(ctx context.Context, evt *PaymentEvent) outcome {
	// Step 1: Only completed checkouts create bookings
	if evt.EventType != EventCheckoutCompleted {
		return outcome{ignored: true}
	}

	// Step 2: Decode the stored payload and validate the metadata
	checkout, err := s.provider.DecodeCheckout([]byte(evt.Payload))
	if err != nil {
		return outcome{err: err}
	}
	paid, err := s.paidBooking(ctx, evt, checkout)
	if err != nil {
		return outcome{err: err}
	}

	// Step 3: Resolve the paying customer by email
	customer, err := s.users.GetUserByEmail(ctx, checkout.CustomerEmail)
	if err != nil {
		return outcome{err: fmt.Errorf("failed to resolve customer %s: %w", checkout.CustomerEmail, err)}
	}
	paid.UserID = customer.ID

	// Step 4: Confirm the booking under the capacity lock
	booking, created, err := s.bookings.ConfirmPaidBooking(ctx, paid)
	if err != nil {
		return outcome{err: err}
	}

	// Step 5: Mail the customer, only for the delivery that created it
	if created && s.notifier != nil {
		if err := s.notifier.BookingConfirmed(ctx, booking, customer); err != nil {
			s.logger.WarnContext(ctx, "failed to publish booking confirmation", "booking_id", booking.ID, "error", err)
		}
	}
	return outcome{booking: booking}
}

// paidBooking maps checkout metadata onto a booking request. Bad metadata
// is ErrMalformedEvent, which is never retried.
func (s *WebhookService) paidBooking(_ context.Context, evt *PaymentEvent, checkout *CompletedCheckout) (bookings.PaidBooking, error) {
	if checkout.TourID == "" || checkout.CustomerEmail == "" {
		return bookings.PaidBooking{}, fmt.Errorf("%w: tour reference and customer email are required", ErrMalformedEvent)
	}
	people, err := strconv.Atoi(checkout.NumberOfPeople)
	if err != nil || people < 1 {
		return bookings.PaidBooking{}, fmt.Errorf("%w: numberOfPeople %q", ErrMalformedEvent, checkout.NumberOfPeople)
	}
	day, err := tours.ParseStartDate(checkout.StartDate)
	if err != nil {
		return bookings.PaidBooking{}, fmt.Errorf("%w: startDate %q", ErrMalformedEvent, checkout.StartDate)
	}

	return bookings.PaidBooking{
		TourID:            checkout.TourID,
		StartDate:         day,
		NumberOfPeople:    people,
		AmountTotal:       checkout.AmountTotal,
		ProviderEventID:   evt.ProviderEventID,
		CheckoutSessionID: checkout.SessionID,
		PaidAt:            s.now(),
	}, nil
}

// settle stores the result of one attempt. Client-kind errors will not fix
// themselves and go straight to DEAD.
func (s *WebhookService) settle(ctx context.Context, evt *PaymentEvent, out outcome) {
	now := s.now()
	evt.Attempts++

	switch {
	case out.ignored:
		evt.Status = EventIgnored
		evt.ProcessedAt = &now
		evt.NextAttemptAt = nil
	case out.err == nil:
		evt.Status = EventProcessed
		evt.ProcessedAt = &now
		evt.NextAttemptAt = nil
		evt.LastError = ""
		if out.booking != nil {
			id := out.booking.ID
			evt.BookingID = &id
		}
	case apperror.IsClientError(out.err) || evt.Attempts >= s.config.MaxAttempts:
		evt.Status = EventDead
		evt.LastError = out.err.Error()
		evt.NextAttemptAt = nil
		s.logger.ErrorWithContext(ctx, "payment event needs manual follow-up", out.err, map[string]interface{}{
			"event_id": evt.ProviderEventID,
			"attempts": evt.Attempts,
		})
	default:
		next := now.Add(s.retryDelay(evt.Attempts))
		evt.Status = EventFailed
		evt.LastError = out.err.Error()
		evt.NextAttemptAt = &next
	}

	if err := s.events.Update(ctx, evt); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to store payment event outcome", err, map[string]interface{}{
			"event_id": evt.ProviderEventID,
			"status":   evt.Status.String(),
		})
	}
	s.logger.LogWebhookEvent(ctx, evt.ProviderEventID, evt.EventType, evt.Status.String())
}

// retryDelay doubles the base delay per attempt, capped at an hour
func (s *WebhookService) retryDelay(attempts int) time.Duration {
	delay := s.config.RetryDelay
	for i := 1; i < attempts && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
