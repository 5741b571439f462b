package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fvivu/internal/shared/apperror"
	"fvivu/internal/shared/config"
	"fvivu/internal/tours"
	"fvivu/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
)

// StripeProvider creates Stripe Checkout sessions and verifies Stripe webhooks
type StripeProvider struct {
	sessions      session.Client
	webhookSecret string
	successURL    string
	cancelURL     string
	newBackOff    func() backoff.BackOff
	logger        *logger.Logger
}

// NewStripeProvider builds a provider from config. Stripe's own network
// retries are disabled; calls are retried here with one idempotency key.
func NewStripeProvider(cfg config.StripeConfig) *StripeProvider {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	})
	return newStripeProvider(cfg, backend, func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 200 * time.Millisecond
		b.MaxElapsedTime = 10 * time.Second
		return backoff.WithMaxRetries(b, cfg.MaxRetries)
	})
}

func newStripeProvider(cfg config.StripeConfig, backend stripe.Backend, newBackOff func() backoff.BackOff) *StripeProvider {
	return &StripeProvider{
		sessions:      session.Client{B: backend, Key: cfg.SecretKey},
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		newBackOff:    newBackOff,
		logger:        logger.GetDefault(),
	}
}

// CreateCheckoutSession creates a hosted Stripe Checkout session for one
// line item, retrying transient failures with backoff
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error) {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(in.TourName + " Tour"),
	}
	if in.TourSummary != "" {
		product.Description = stripe.String(in.TourSummary)
	}
	if strings.HasPrefix(in.ImageURL, "http") {
		product.Images = stripe.StringSlice([]string{in.ImageURL})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.successURL),
		CancelURL:         stripe.String(p.cancelURL),
		CustomerEmail:     stripe.String(in.CustomerEmail),
		ClientReferenceID: stripe.String(in.TourID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(int64(in.Quantity)),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(in.Currency),
					UnitAmount:  stripe.Int64(in.UnitAmount),
					ProductData: product,
				},
			},
		},
	}
	// the same key on every retry, so Stripe creates at most one session
	params.Context = ctx
	params.SetIdempotencyKey(in.IdempotencyKey)
	params.AddMetadata(metaStartDate, tours.FormatDay(in.StartDate))
	params.AddMetadata(metaNumberOfPeople, strconv.Itoa(in.Quantity))
	params.AddMetadata(metaUserID, in.UserID)

	operation := func() (*stripe.CheckoutSession, error) {
		cs, err := p.sessions.New(params)
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return cs, err
	}
	notify := func(err error, wait time.Duration) {
		p.logger.WarnContext(ctx, "checkout session request failed, retrying",
			"tour_id", in.TourID, "error", err, "retry_in", wait)
	}

	cs, err := backoff.RetryNotifyWithData(operation, backoff.WithContext(p.newBackOff(), ctx), notify)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrUpstreamPayment, err)
	}

	return &CheckoutSession{
		ID:          cs.ID,
		URL:         cs.URL,
		AmountTotal: cs.AmountTotal,
		Currency:    string(cs.Currency),
	}, nil
}

// VerifyEvent checks the Stripe-Signature header against the webhook secret
func (p *StripeProvider) VerifyEvent(payload []byte, signature string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrSignatureVerificationFailed, err)
	}
	if evt.ID == "" {
		return nil, fmt.Errorf("%w: event id is missing", apperror.ErrSignatureVerificationFailed)
	}
	return &Event{ID: evt.ID, Type: string(evt.Type)}, nil
}

// DecodeCheckout reads the checkout session out of a verified event payload
func (p *StripeProvider) DecodeCheckout(payload []byte) (*CompletedCheckout, error) {
	var evt stripe.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: event has no data object", ErrMalformedEvent)
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	// customer_email is only set when the session was created with one
	email := cs.CustomerEmail
	if email == "" && cs.CustomerDetails != nil {
		email = cs.CustomerDetails.Email
	}

	return &CompletedCheckout{
		SessionID:      cs.ID,
		TourID:         cs.ClientReferenceID,
		CustomerEmail:  email,
		AmountTotal:    cs.AmountTotal,
		StartDate:      cs.Metadata[metaStartDate],
		NumberOfPeople: cs.Metadata[metaNumberOfPeople],
		UserID:         cs.Metadata[metaUserID],
	}, nil
}

// retryable reports whether a failed Stripe call may succeed on retry
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		code := stripeErr.HTTPStatusCode
		return code == 0 || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	// transport failure
	return true
}
