package bookings

import (
	"time"

	"fvivu/internal/tours"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Booking struct {
	ID                uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	TourID            uuid.UUID  `json:"tourId" gorm:"type:uuid;not null;index:idx_bookings_tour_day"`
	UserID            uuid.UUID  `json:"userId" gorm:"type:uuid;not null;index"`
	StartDate         time.Time  `json:"startDate" gorm:"type:date;not null;index:idx_bookings_tour_day"`
	NumberOfPeople    int        `json:"numberOfPeople" gorm:"not null;check:number_of_people >= 1"`
	Price             int64      `json:"price" gorm:"not null;check:price >= 0"`
	Status            Status     `json:"status" gorm:"type:varchar(20);not null;check:status IN ('PENDING','CONFIRMED','CANCELLED')"`
	PaidAt            *time.Time `json:"paidAt,omitempty"`
	CancelledAt       *time.Time `json:"cancelledAt,omitempty"`
	ProviderEventID   *string    `json:"-" gorm:"size:255;uniqueIndex"`
	CheckoutSessionID *string    `json:"-" gorm:"size:255;index"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`

	Tour *tours.Tour `json:"-" gorm:"foreignKey:TourID;constraint:OnDelete:RESTRICT"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.StartDate = tours.NormalizeDay(b.StartDate)
	return nil
}

// Paid is derived from the status, there is no separate flag
func (b *Booking) Paid() bool {
	return b.Status == StatusConfirmed
}
