package payments

import (
	"context"
	"sync"
	"testing"
	"time"

	"fvivu/internal/shared/apperror"
	"fvivu/internal/shared/constants"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(t)
	payload := checkoutEvent(t, "evt_forged", uuid.NewString(), f.customer.Email, "2")

	err := f.service.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, apperror.ErrSignatureVerificationFailed)

	assert.Empty(t, f.events.rows)
	assert.Zero(t, f.ledger.count())
}

func TestHandleWebhookConfirmsBooking(t *testing.T) {
	f := newWebhookFixture(t)
	tourID := uuid.NewString()
	body, header := sign(checkoutEvent(t, "evt_paid", tourID, "AN@example.com", "3"))

	require.NoError(t, f.service.HandleWebhook(context.Background(), body, header))

	evt, err := f.events.Get(context.Background(), "evt_paid")
	require.NoError(t, err)
	assert.Equal(t, EventProcessed, evt.Status)
	assert.Equal(t, 1, evt.Attempts)
	require.NotNil(t, evt.BookingID)
	assert.Nil(t, evt.NextAttemptAt)

	booking := f.ledger.byEvent["evt_paid"]
	require.NotNil(t, booking)
	assert.Equal(t, *evt.BookingID, booking.ID)
	assert.Equal(t, f.customer.ID, booking.UserID)
	assert.Equal(t, tourID, booking.TourID.String())
	assert.Equal(t, 3, booking.NumberOfPeople)
	assert.EqualValues(t, 450000, booking.Price)
	assert.True(t, booking.StartDate.Equal(june1))
	assert.True(t, booking.PaidAt.Equal(f.clock))

	assert.Equal(t, []uuid.UUID{booking.ID}, f.notifier.sent)
}

func TestHandleWebhookRedeliveryIsNoop(t *testing.T) {
	f := newWebhookFixture(t)
	body, header := sign(checkoutEvent(t, "evt_twice", uuid.NewString(), f.customer.Email, "2"))

	require.NoError(t, f.service.HandleWebhook(context.Background(), body, header))
	require.NoError(t, f.service.HandleWebhook(context.Background(), body, header))

	assert.Equal(t, 1, f.ledger.count())
	assert.Len(t, f.notifier.sent, 1)
	evt, _ := f.events.Get(context.Background(), "evt_twice")
	assert.Equal(t, 1, evt.Attempts)
}

func TestHandleWebhookConcurrentDeliveries(t *testing.T) {
	f := newWebhookFixture(t)
	body, header := sign(checkoutEvent(t, "evt_race", uuid.NewString(), f.customer.Email, "2"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.service.HandleWebhook(context.Background(), body, header))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.ledger.count())
	assert.Len(t, f.notifier.sent, 1)
}

func TestHandleWebhookIgnoresOtherEvents(t *testing.T) {
	f := newWebhookFixture(t)
	body, header := sign([]byte(`{"id":"evt_intent","object":"event","type":"payment_intent.created","data":{"object":{}}}`))

	require.NoError(t, f.service.HandleWebhook(context.Background(), body, header))

	assert.Equal(t, EventIgnored, f.events.status("evt_intent"))
	assert.Zero(t, f.ledger.count())
}

func TestHandleWebhookPermanentFailuresAreDead(t *testing.T) {
	tests := []struct {
		name   string
		email  string
		people string
	}{
		{"malformed party size", "an@example.com", "three"},
		{"unknown customer", "nobody@example.com", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWebhookFixture(t)
			body, header := sign(checkoutEvent(t, "evt_bad", uuid.NewString(), tt.email, tt.people))

			require.NoError(t, f.service.HandleWebhook(context.Background(), body, header))

			evt, err := f.events.Get(context.Background(), "evt_bad")
			require.NoError(t, err)
			assert.Equal(t, EventDead, evt.Status)
			assert.NotEmpty(t, evt.LastError)
			assert.Nil(t, evt.NextAttemptAt)
			assert.Zero(t, f.ledger.count())
		})
	}
}

func TestHandleWebhookLedgerWriteFailure(t *testing.T) {
	f := newWebhookFixture(t)
	f.events.failOn = "record"
	body, header := sign(checkoutEvent(t, "evt_lost", uuid.NewString(), f.customer.Email, "2"))

	err := f.service.HandleWebhook(context.Background(), body, header)
	assert.Error(t, err)
	assert.Zero(t, f.ledger.count())
}

func TestTransientFailureIsRetriedByJob(t *testing.T) {
	f := newWebhookFixture(t)
	f.ledger.failures = 1
	body, header := sign(checkoutEvent(t, "evt_retry", uuid.NewString(), f.customer.Email, "2"))

	require.NoError(t, f.service.HandleWebhook(context.Background(), body, header))

	evt, _ := f.events.Get(context.Background(), "evt_retry")
	assert.Equal(t, EventFailed, evt.Status)
	assert.Equal(t, 1, evt.Attempts)
	assert.Contains(t, evt.LastError, "database is unavailable")
	require.NotNil(t, evt.NextAttemptAt)
	assert.Equal(t, f.clock.Add(time.Minute), *evt.NextAttemptAt)

	job := NewRetryJob(f.service, f.events, &RetryJobConfig{Interval: time.Second, BatchSize: 10})

	// not due yet
	assert.Zero(t, job.RunOnce(context.Background()))

	f.clock = f.clock.Add(2 * time.Minute)
	assert.Equal(t, 1, job.RunOnce(context.Background()))

	evt, _ = f.events.Get(context.Background(), "evt_retry")
	assert.Equal(t, EventProcessed, evt.Status)
	assert.Equal(t, 2, evt.Attempts)
	assert.Empty(t, evt.LastError)
	assert.Equal(t, 1, f.ledger.count())
}

func TestRetriesExhaustedMoveEventToDead(t *testing.T) {
	f := newWebhookFixture(t)
	f.ledger.failures = 10
	body, header := sign(checkoutEvent(t, "evt_doomed", uuid.NewString(), f.customer.Email, "2"))
	require.NoError(t, f.service.HandleWebhook(context.Background(), body, header))

	job := NewRetryJob(f.service, f.events, nil)
	for i := 0; i < 5; i++ {
		f.clock = f.clock.Add(time.Hour)
		job.RunOnce(context.Background())
	}

	evt, _ := f.events.Get(context.Background(), "evt_doomed")
	assert.Equal(t, EventDead, evt.Status)
	assert.Equal(t, 3, evt.Attempts)
	assert.Zero(t, f.ledger.count())
}

func TestProcessSkipsEventLockedElsewhere(t *testing.T) {
	f := newWebhookFixture(t)
	handle, err := f.locker.Acquire(context.Background(), constants.BuildPaymentEventLockKey("evt_locked"), time.Minute)
	require.NoError(t, err)

	body, header := sign(checkoutEvent(t, "evt_locked", uuid.NewString(), f.customer.Email, "2"))
	require.NoError(t, f.service.HandleWebhook(context.Background(), body, header))

	assert.Equal(t, EventReceived, f.events.status("evt_locked"))
	assert.Zero(t, f.ledger.count())

	require.NoError(t, handle.Release(context.Background()))
	f.service.Process(context.Background(), "evt_locked")
	assert.Equal(t, EventProcessed, f.events.status("evt_locked"))
}

func TestRetryDelayDoublesAndCaps(t *testing.T) {
	s := &WebhookService{config: WebhookConfig{RetryDelay: 30 * time.Second}}

	assert.Equal(t, 30*time.Second, s.retryDelay(1))
	assert.Equal(t, time.Minute, s.retryDelay(2))
	assert.Equal(t, 4*time.Minute, s.retryDelay(4))
	assert.Equal(t, time.Hour, s.retryDelay(20))
}
