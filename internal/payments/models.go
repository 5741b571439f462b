package payments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventStatus tracks a provider event through the webhook ledger
type EventStatus string

const (
	EventReceived  EventStatus = "RECEIVED"
	EventProcessed EventStatus = "PROCESSED"
	EventIgnored   EventStatus = "IGNORED"
	EventFailed    EventStatus = "FAILED"
	EventDead      EventStatus = "DEAD"
)

func (s EventStatus) String() string {
	return string(s)
}

// Settled reports whether the event needs no further work
func (s EventStatus) Settled() bool {
	return s == EventProcessed || s == EventIgnored || s == EventDead
}

// PaymentEvent is one verified delivery from the payment provider. The raw
// payload is kept so failed events can be replayed by the retry job.
type PaymentEvent struct {
	ID              uuid.UUID   `json:"id" gorm:"primaryKey;type:uuid"`
	ProviderEventID string      `json:"providerEventId" gorm:"size:255;not null;uniqueIndex"`
	EventType       string      `json:"eventType" gorm:"size:100;not null"`
	Payload         string      `json:"-" gorm:"type:text;not null"`
	Status          EventStatus `json:"status" gorm:"type:varchar(20);not null;index:idx_payment_events_due"`
	Attempts        int         `json:"attempts" gorm:"not null"`
	LastError       string      `json:"lastError,omitempty" gorm:"type:text"`
	NextAttemptAt   *time.Time  `json:"nextAttemptAt,omitempty" gorm:"index:idx_payment_events_due"`
	BookingID       *uuid.UUID  `json:"bookingId,omitempty" gorm:"type:uuid"`
	ProcessedAt     *time.Time  `json:"processedAt,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func (PaymentEvent) TableName() string {
	return "payment_events"
}

func (e *PaymentEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
