package reviews

import (
	"time"

	"fvivu/internal/tours"
	"fvivu/internal/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5

	// DefaultRatingsAverage is shown for a tour nobody has reviewed yet
	DefaultRatingsAverage = 4.5
)

// Review is one customer's rating of a tour. A customer reviews a tour once.
type Review struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	TourID    uuid.UUID `json:"tourId" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_tour_user"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_tour_user;index"`
	Review    string    `json:"review" gorm:"type:text;not null"`
	Rating    int       `json:"rating" gorm:"not null;check:rating BETWEEN 1 AND 5"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Tour *tours.Tour `json:"-" gorm:"foreignKey:TourID;constraint:OnDelete:CASCADE"`
	User *users.User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
