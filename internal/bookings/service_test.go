package bookings

import (
	"context"
	"sync"
	"testing"
	"time"

	"fvivu/internal/shared/apperror"
	"fvivu/internal/shared/utils/query"
	"fvivu/internal/tours"
	"fvivu/internal/users"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var june1 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T, tour *tours.Tour) (Service, *memoryLedger) {
	t.Helper()
	catalog := tourCatalog{tour.ID: tour}
	ledger := newMemoryLedger(catalog)
	return NewService(ledger, catalog), ledger
}

func TestRemainingSlotsScenario(t *testing.T) {
	tour := newActiveTour(10, 100000, june1)
	svc, _ := setup(t, tour)
	ctx := context.Background()

	full, err := svc.RemainingSlots(ctx, tour.ID.String(), "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 10, full.RemainingSlots)

	_, err = svc.CreateBooking(ctx, uuid.New(), &CreateBookingRequest{
		TourID: tour.ID.String(), StartDate: "2025-06-01", NumberOfPeople: 4,
	})
	require.NoError(t, err)

	// a timestamp later the same day counts against the same departure
	slots, err := svc.RemainingSlots(ctx, tour.ID.String(), "2025-06-01T17:45:00Z")
	require.NoError(t, err)
	assert.Equal(t, 6, slots.RemainingSlots)
	assert.Equal(t, 4, slots.BookedSeats)
	assert.Zero(t, slots.OverbookedBy)
}

func TestRemainingSlotsUnknownTour(t *testing.T) {
	svc, _ := setup(t, newActiveTour(10, 100000, june1))

	_, err := svc.RemainingSlots(context.Background(), uuid.NewString(), "2025-06-01")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRemainingSlotsSurfacesOverbooking(t *testing.T) {
	tour := newActiveTour(10, 100000, june1)
	svc, _ := setup(t, tour)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, uuid.New(), &CreateBookingRequest{
		TourID: tour.ID.String(), StartDate: "2025-06-01", NumberOfPeople: 8,
	})
	require.NoError(t, err)

	tour.MaxGroupSize = 5
	slots, err := svc.RemainingSlots(ctx, tour.ID.String(), "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 0, slots.RemainingSlots)
	assert.Equal(t, 3, slots.OverbookedBy)
}

func TestCreateBookingPricesAndStaysUnpaid(t *testing.T) {
	tour := newActiveTour(10, 100000, june1)
	svc, _ := setup(t, tour)

	resp, err := svc.CreateBooking(context.Background(), uuid.New(), &CreateBookingRequest{
		TourID: tour.ID.String(), StartDate: "2025-06-01", NumberOfPeople: 3,
	})
	require.NoError(t, err)

	assert.EqualValues(t, 300000, resp.Price)
	assert.False(t, resp.Paid)
	assert.Equal(t, StatusPending, resp.Status)
	assert.Equal(t, "2025-06-01", resp.StartDate)
	require.NotNil(t, resp.Tour)
	assert.Equal(t, tour.Name, resp.Tour.Name)
}

func TestCreateBookingOffScheduleWritesNothing(t *testing.T) {
	tour := newActiveTour(10, 100000, june1)
	svc, ledger := setup(t, tour)

	_, err := svc.CreateBooking(context.Background(), uuid.New(), &CreateBookingRequest{
		TourID: tour.ID.String(), StartDate: "2025-06-02", NumberOfPeople: 1,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Zero(t, ledger.count())
}

func TestCreateBookingValidation(t *testing.T) {
	tour := newActiveTour(10, 100000, june1)
	svc, ledger := setup(t, tour)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateBookingRequest
		kind error
	}{
		{"missing tour", CreateBookingRequest{StartDate: "2025-06-01", NumberOfPeople: 1}, apperror.ErrInvalidInput},
		{"missing date", CreateBookingRequest{TourID: tour.ID.String(), NumberOfPeople: 1}, apperror.ErrInvalidInput},
		{"zero people", CreateBookingRequest{TourID: tour.ID.String(), StartDate: "2025-06-01"}, apperror.ErrInvalidInput},
		{"unknown tour", CreateBookingRequest{TourID: uuid.NewString(), StartDate: "2025-06-01", NumberOfPeople: 1}, apperror.ErrNotFound},
		{"over capacity", CreateBookingRequest{TourID: tour.ID.String(), StartDate: "2025-06-01", NumberOfPeople: 11}, apperror.ErrCapacityExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBooking(ctx, uuid.New(), &tt.req)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
	assert.Zero(t, ledger.count())
}

func TestCreateBookingRejectsPendingTour(t *testing.T) {
	tour := newActiveTour(10, 100000, june1)
	tour.Status = tours.StatusPending
	svc, _ := setup(t, tour)

	_, err := svc.CreateBooking(context.Background(), uuid.New(), &CreateBookingRequest{
		TourID: tour.ID.String(), StartDate: "2025-06-01", NumberOfPeople: 1,
	})
	assert.ErrorIs(t, err, ErrTourNotBookable)
}

func TestConcurrentBookingsNeverExceedCapacity(t *testing.T) {
	tour := newActiveTour(10, 100000, june1)
	svc, ledger := setup(t, tour)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateBooking(ctx, uuid.New(), &CreateBookingRequest{
				TourID: tour.ID.String(), StartDate: "2025-06-01", NumberOfPeople: 3,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
				return
			}
			assert.ErrorIs(t, err, apperror.ErrCapacityExceeded)
			rejected++
		}()
	}
	wg.Wait()

	booked, err := ledger.BookedSeats(ctx, tour.ID, june1)
	require.NoError(t, err)
	assert.LessOrEqual(t, booked, 10)
	assert.Equal(t, 3, accepted)
	assert.Equal(t, 22, rejected)
}

func TestConfirmPaidBookingIsIdempotent(t *testing.T) {
	tour := newActiveTour(10, 100000, june1)
	svc, ledger := setup(t, tour)
	ctx := context.Background()

	in := PaidBooking{
		TourID:          tour.ID.String(),
		UserID:          uuid.New(),
		StartDate:       june1,
		NumberOfPeople:  3,
		AmountTotal:     300000,
		ProviderEventID: "evt_123",
	}

	first, created, err := svc.ConfirmPaidBooking(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, first.Paid())
	assert.EqualValues(t, 300000, first.Price)
	require.NotNil(t, first.PaidAt)

	second, created, err := svc.ConfirmPaidBooking(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, ledger.count())
}

func TestConfirmPaidBookingReplayOnFullDeparture(t *testing.T) {
	tour := newActiveTour(4, 100000, june1)
	svc, ledger := setup(t, tour)
	ctx := context.Background()

	in := PaidBooking{
		TourID:          tour.ID.String(),
		UserID:          uuid.New(),
		StartDate:       june1,
		NumberOfPeople:  4,
		AmountTotal:     400000,
		ProviderEventID: "evt_full",
	}
	first, created, err := svc.ConfirmPaidBooking(ctx, in)
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := svc.ConfirmPaidBooking(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, ledger.count())
}

func TestCancelBooking(t *testing.T) {
	tour := newActiveTour(10, 100000, june1)
	svc, _ := setup(t, tour)
	ctx := context.Background()
	owner := users.Actor{ID: uuid.New(), Role: users.RoleCustomer}

	created, err := svc.CreateBooking(ctx, owner.ID, &CreateBookingRequest{
		TourID: tour.ID.String(), StartDate: "2025-06-01", NumberOfPeople: 10,
	})
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, users.Actor{ID: uuid.New(), Role: users.RoleCustomer}, created.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	cancelled, err := svc.CancelBooking(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	// seats are released
	slots, err := svc.RemainingSlots(ctx, tour.ID.String(), "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 10, slots.RemainingSlots)

	_, err = svc.CancelBooking(ctx, owner, created.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestCancelPaidBookingIsRejected(t *testing.T) {
	tour := newActiveTour(10, 100000, june1)
	svc, _ := setup(t, tour)
	ctx := context.Background()
	customer := uuid.New()

	paid, _, err := svc.ConfirmPaidBooking(ctx, PaidBooking{
		TourID: tour.ID.String(), UserID: customer, StartDate: june1,
		NumberOfPeople: 2, AmountTotal: 200000, ProviderEventID: "evt_paid",
	})
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, users.Actor{ID: customer, Role: users.RoleCustomer}, paid.ID.String())
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestGetMyBookingsNewestFirst(t *testing.T) {
	june2 := june1.AddDate(0, 0, 1)
	tour := newActiveTour(10, 100000, june1, june2)
	svc, _ := setup(t, tour)
	ctx := context.Background()
	customer := uuid.New()

	first, err := svc.CreateBooking(ctx, customer, &CreateBookingRequest{TourID: tour.ID.String(), StartDate: "2025-06-01", NumberOfPeople: 1})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	second, err := svc.CreateBooking(ctx, customer, &CreateBookingRequest{TourID: tour.ID.String(), StartDate: "2025-06-02", NumberOfPeople: 1})
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, uuid.New(), &CreateBookingRequest{TourID: tour.ID.String(), StartDate: "2025-06-01", NumberOfPeople: 1})
	require.NoError(t, err)

	items, total, err := svc.GetMyBookings(ctx, customer, query.ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}
