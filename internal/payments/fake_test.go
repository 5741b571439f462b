package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"fvivu/internal/bookings"
	"fvivu/internal/shared/apperror"
	"fvivu/internal/tours"
	"fvivu/internal/users"
	"fvivu/pkg/lock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
)

var june1 = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

// fakeProvider verifies and decodes with the real Stripe code and records
// checkout requests instead of calling Stripe
type fakeProvider struct {
	*StripeProvider
	mu       sync.Mutex
	requests []CheckoutInput
	err      error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{StripeProvider: newStripeProvider(testStripeConfig, nil, nil)}
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, in CheckoutInput) (*CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, in)
	if f.err != nil {
		return nil, f.err
	}
	return &CheckoutSession{
		ID:          "cs_test_" + in.IdempotencyKey[:8],
		URL:         "https://checkout.stripe.com/c/pay/test",
		AmountTotal: in.UnitAmount * int64(in.Quantity),
		Currency:    in.Currency,
	}, nil
}

// memoryEvents is an in-memory EventRepository. Rows are copied in and out
// like a database would.
type memoryEvents struct {
	mu     sync.Mutex
	rows   map[string]PaymentEvent
	failOn string
}

func newMemoryEvents() *memoryEvents {
	return &memoryEvents{rows: make(map[string]PaymentEvent)}
}

func (m *memoryEvents) Record(_ context.Context, evt *PaymentEvent) (*PaymentEvent, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "record" {
		return nil, false, errors.New("connection refused")
	}
	if existing, ok := m.rows[evt.ProviderEventID]; ok {
		return &existing, false, nil
	}
	evt.ID = uuid.New()
	evt.CreatedAt = time.Now()
	m.rows[evt.ProviderEventID] = *evt
	return evt, true, nil
}

func (m *memoryEvents) Get(_ context.Context, providerEventID string) (*PaymentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	evt, ok := m.rows[providerEventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	return &evt, nil
}

func (m *memoryEvents) Update(_ context.Context, evt *PaymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[evt.ProviderEventID] = *evt
	return nil
}

func (m *memoryEvents) DueForRetry(_ context.Context, now time.Time, limit int) ([]PaymentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []PaymentEvent
	for _, evt := range m.rows {
		if evt.Status != EventReceived && evt.Status != EventFailed {
			continue
		}
		if evt.NextAttemptAt != nil && evt.NextAttemptAt.After(now) {
			continue
		}
		due = append(due, evt)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *memoryEvents) status(id string) EventStatus {
	evt, _ := m.Get(context.Background(), id)
	if evt == nil {
		return ""
	}
	return evt.Status
}

type userDirectory map[string]*users.User

func (d userDirectory) GetUserByEmail(_ context.Context, email string) (*users.User, error) {
	u, ok := d[users.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("user %w", apperror.ErrNotFound)
	}
	return u, nil
}

// paidLedger confirms paid bookings once per provider event
type paidLedger struct {
	mu       sync.Mutex
	byEvent  map[string]*bookings.Booking
	failures int
}

func newPaidLedger() *paidLedger {
	return &paidLedger{byEvent: make(map[string]*bookings.Booking)}
}

func (l *paidLedger) ConfirmPaidBooking(_ context.Context, in bookings.PaidBooking) (*bookings.Booking, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failures > 0 {
		l.failures--
		return nil, false, errors.New("database is unavailable")
	}
	if existing, ok := l.byEvent[in.ProviderEventID]; ok {
		return existing, false, nil
	}
	eventID := in.ProviderEventID
	paidAt := in.PaidAt
	b := &bookings.Booking{
		ID:              uuid.New(),
		TourID:          uuid.MustParse(in.TourID),
		UserID:          in.UserID,
		StartDate:       in.StartDate,
		NumberOfPeople:  in.NumberOfPeople,
		Price:           in.AmountTotal,
		Status:          bookings.StatusConfirmed,
		PaidAt:          &paidAt,
		ProviderEventID: &eventID,
	}
	l.byEvent[eventID] = b
	return b, true, nil
}

func (l *paidLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byEvent)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []uuid.UUID
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, b *bookings.Booking, _ *users.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, b.ID)
	return nil
}

type webhookFixture struct {
	service  *WebhookService
	events   *memoryEvents
	ledger   *paidLedger
	notifier *recordingNotifier
	locker   *lock.LocalLocker
	customer *users.User
	clock    time.Time
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	customer := &users.User{ID: uuid.New(), Name: "An Nguyen", Email: "an@example.com", Role: users.RoleCustomer, Active: true}
	f := &webhookFixture{
		events:   newMemoryEvents(),
		ledger:   newPaidLedger(),
		notifier: &recordingNotifier{},
		locker:   lock.NewLocalLocker(),
		customer: customer,
		clock:    time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.service = NewWebhookService(
		newFakeProvider(),
		f.events,
		userDirectory{customer.Email: customer},
		f.ledger,
		f.locker,
		f.notifier,
		WebhookConfig{MaxAttempts: 3, RetryDelay: time.Minute, LockTTL: 10 * time.Second},
	)
	f.service.now = func() time.Time { return f.clock }
	return f
}

// checkoutEvent builds a checkout.session.completed payload
func checkoutEvent(t *testing.T, eventID, tourID, email string, people string) []byte {
	t.Helper()
	body := map[string]interface{}{
		"id":     eventID,
		"object": "event",
		"type":   EventCheckoutCompleted,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":                  "cs_" + eventID,
				"object":              "checkout.session",
				"client_reference_id": tourID,
				"customer_email":      email,
				"amount_total":        450000,
				"metadata": map[string]string{
					"startDate":      "2026-06-01",
					"numberOfPeople": people,
				},
			},
		},
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	return payload
}

func sign(payload []byte) (body []byte, header string) {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testWebhookSecret})
	return signed.Payload, signed.Header
}

type tourCatalog map[uuid.UUID]*tours.Tour

func (c tourCatalog) FindTour(_ context.Context, id string) (*tours.Tour, error) {
	tourID, err := uuid.Parse(id)
	if err != nil {
		return nil, tours.ErrTourNotFound
	}
	t, ok := c[tourID]
	if !ok {
		return nil, tours.ErrTourNotFound
	}
	return t, nil
}

// fixedSlots reports a constant number of booked seats per tour
type fixedSlots struct {
	catalog tourCatalog
	booked  int
}

func (s fixedSlots) RemainingSlots(ctx context.Context, tourID string, startDate string) (*bookings.RemainingSlotsResponse, error) {
	tour, err := s.catalog.FindTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	day, err := tours.ParseStartDate(startDate)
	if err != nil {
		return nil, err
	}
	resp := bookings.NewRemainingSlots(tourID, day, tour.MaxGroupSize, s.booked)
	return &resp, nil
}

func activeTour(maxGroupSize int, price int64) *tours.Tour {
	id := uuid.New()
	return &tours.Tour{
		ID:           id,
		Name:         "The Sea Explorer",
		Summary:      "Exploring the jaw-dropping US east coast by foot and by boat",
		MaxGroupSize: maxGroupSize,
		Price:        price,
		Status:       tours.StatusActive,
		StartDates:   []tours.StartDate{{TourID: id, StartDate: june1}},
	}
}
