package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fvivu/internal/shared/apperror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrEventNotFound = fmt.Errorf("payment event %w", apperror.ErrNotFound)

// EventRepository is the webhook ledger. Each provider event id is stored once.
type EventRepository interface {
	// Record stores evt unless its provider event id is already known. It
	// returns the stored row and whether this call inserted it.
	Record(ctx context.Context, evt *PaymentEvent) (*PaymentEvent, bool, error)
	Get(ctx context.Context, providerEventID string) (*PaymentEvent, error)
	// Update persists the processing state of evt
	Update(ctx context.Context, evt *PaymentEvent) error
	// DueForRetry lists unsettled events whose next attempt is due, oldest first
	DueForRetry(ctx context.Context, now time.Time, limit int) ([]PaymentEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new payment event repository
func NewRepository(db *gorm.DB) EventRepository {
	return &repository{db: db}
}

func (r *repository) Record(ctx context.Context, evt *PaymentEvent) (*PaymentEvent, bool, error) {
	// ON CONFLICT DO NOTHING keeps the first delivery's payload
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(evt)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to record payment event: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return evt, true, nil
	}

	// a redelivery, return what is already stored
	existing, err := r.Get(ctx, evt.ProviderEventID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *repository) Get(ctx context.Context, providerEventID string) (*PaymentEvent, error) {
	var evt PaymentEvent
	err := r.db.WithContext(ctx).Where("provider_event_id = ?", providerEventID).First(&evt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &evt, nil
}

func (r *repository) Update(ctx context.Context, evt *PaymentEvent) error {
	// only processing state, the payload is immutable
	err := r.db.WithContext(ctx).Model(evt).
		Select("status", "attempts", "last_error", "next_attempt_at", "booking_id", "processed_at", "updated_at").
		Updates(evt).Error
	if err != nil {
		return fmt.Errorf("failed to update payment event %s: %w", evt.ProviderEventID, err)
	}
	return nil
}

func (r *repository) DueForRetry(ctx context.Context, now time.Time, limit int) ([]PaymentEvent, error) {
	var events []PaymentEvent
	err := r.db.WithContext(ctx).
		Where("status IN ?", []EventStatus{EventReceived, EventFailed}).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due payment events: %w", err)
	}
	return events, nil
}
