package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fvivu/internal/shared/apperror"
	"fvivu/internal/shared/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

const testWebhookSecret = "whsec_test_secret"

var testStripeConfig = config.StripeConfig{
	SecretKey:     "sk_test_123",
	WebhookSecret: testWebhookSecret,
	Currency:      "vnd",
	SuccessURL:    "http://localhost:5173/my-bookings",
	CancelURL:     "http://localhost:5173/tours",
	MaxRetries:    3,
}

// stripeStub answers checkout session requests with a scripted list of statuses
type stripeStub struct {
	mu              sync.Mutex
	statuses        []int
	calls           int
	idempotencyKeys []string
	forms           []map[string]string
}

func (s *stripeStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = r.ParseForm()
	s.idempotencyKeys = append(s.idempotencyKeys, r.Header.Get("Idempotency-Key"))
	s.forms = append(s.forms, map[string]string{
		"client_reference_id":      r.PostForm.Get("client_reference_id"),
		"customer_email":           r.PostForm.Get("customer_email"),
		"metadata[startDate]":      r.PostForm.Get("metadata[startDate]"),
		"metadata[numberOfPeople]": r.PostForm.Get("metadata[numberOfPeople]"),
		"line_items[0][quantity]":  r.PostForm.Get("line_items[0][quantity]"),
		"unit_amount":              r.PostForm.Get("line_items[0][price_data][unit_amount]"),
	})

	status := http.StatusOK
	if s.calls < len(s.statuses) {
		status = s.statuses[s.calls]
	}
	s.calls++

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status != http.StatusOK {
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"stub failure"}}`))
		return
	}
	_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1","amount_total":300000,"currency":"vnd"}`))
}

func newStubbedProvider(t *testing.T, stub *stripeStub) *StripeProvider {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return newStripeProvider(testStripeConfig, backend, func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
	})
}

func checkoutInput() CheckoutInput {
	return CheckoutInput{
		TourID:         "5c88fa8cf4afda39709c2955",
		TourName:       "The Forest Hiker",
		UnitAmount:     100000,
		Quantity:       3,
		Currency:       "vnd",
		CustomerEmail:  "an@example.com",
		UserID:         "user-1",
		StartDate:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		IdempotencyKey: "checkout-key-1",
	}
}

func TestCreateCheckoutSessionSendsSessionParams(t *testing.T) {
	stub := &stripeStub{}
	p := newStubbedProvider(t, stub)

	cs, err := p.CreateCheckoutSession(context.Background(), checkoutInput())
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", cs.ID)
	assert.Equal(t, int64(300000), cs.AmountTotal)
	assert.Equal(t, "vnd", cs.Currency)

	require.Len(t, stub.forms, 1)
	form := stub.forms[0]
	assert.Equal(t, "5c88fa8cf4afda39709c2955", form["client_reference_id"])
	assert.Equal(t, "an@example.com", form["customer_email"])
	assert.Equal(t, "2026-06-01", form["metadata[startDate]"])
	assert.Equal(t, "3", form["metadata[numberOfPeople]"])
	assert.Equal(t, "3", form["line_items[0][quantity]"])
	assert.Equal(t, "100000", form["unit_amount"])
}

func TestCreateCheckoutSessionRetriesServerErrorsWithOneKey(t *testing.T) {
	stub := &stripeStub{statuses: []int{http.StatusInternalServerError, http.StatusTooManyRequests}}
	p := newStubbedProvider(t, stub)

	cs, err := p.CreateCheckoutSession(context.Background(), checkoutInput())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", cs.ID)

	assert.Equal(t, 3, stub.calls)
	for _, key := range stub.idempotencyKeys {
		assert.Equal(t, "checkout-key-1", key)
	}
}

func TestCreateCheckoutSessionClientErrorIsPermanent(t *testing.T) {
	stub := &stripeStub{statuses: []int{http.StatusBadRequest}}
	p := newStubbedProvider(t, stub)

	_, err := p.CreateCheckoutSession(context.Background(), checkoutInput())
	assert.ErrorIs(t, err, apperror.ErrUpstreamPayment)
	assert.Equal(t, 1, stub.calls)
}

func TestCreateCheckoutSessionGivesUpAfterMaxRetries(t *testing.T) {
	stub := &stripeStub{statuses: []int{500, 500, 500, 500, 500}}
	p := newStubbedProvider(t, stub)

	_, err := p.CreateCheckoutSession(context.Background(), checkoutInput())
	assert.ErrorIs(t, err, apperror.ErrUpstreamPayment)
	assert.Equal(t, 4, stub.calls)
}

func TestVerifyEvent(t *testing.T) {
	p := newStripeProvider(testStripeConfig, nil, nil)
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testWebhookSecret})
	evt, err := p.VerifyEvent(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", evt.ID)
	assert.Equal(t, EventCheckoutCompleted, evt.Type)

	forged := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: "whsec_other"})
	_, err = p.VerifyEvent(forged.Payload, forged.Header)
	assert.ErrorIs(t, err, apperror.ErrSignatureVerificationFailed)

	_, err = p.VerifyEvent(payload, "")
	assert.ErrorIs(t, err, apperror.ErrSignatureVerificationFailed)
}

func TestDecodeCheckout(t *testing.T) {
	p := newStripeProvider(testStripeConfig, nil, nil)

	t.Run("customer details email fallback", func(t *testing.T) {
		payload := []byte(`{"id":"evt_2","type":"checkout.session.completed","data":{"object":{
			"id":"cs_2","client_reference_id":"tour-1","amount_total":450000,
			"customer_details":{"email":"binh@example.com"},
			"metadata":{"startDate":"2026-06-01","numberOfPeople":"3","userId":"u-2"}}}}`)

		cs, err := p.DecodeCheckout(payload)
		require.NoError(t, err)
		assert.Equal(t, "cs_2", cs.SessionID)
		assert.Equal(t, "tour-1", cs.TourID)
		assert.Equal(t, "binh@example.com", cs.CustomerEmail)
		assert.Equal(t, int64(450000), cs.AmountTotal)
		assert.Equal(t, "2026-06-01", cs.StartDate)
		assert.Equal(t, "3", cs.NumberOfPeople)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := p.DecodeCheckout([]byte("{"))
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})

	t.Run("no data", func(t *testing.T) {
		_, err := p.DecodeCheckout([]byte(`{"id":"evt_3","type":"checkout.session.completed"}`))
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})
}
