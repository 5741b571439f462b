package bookings

import (
	"time"

	"fvivu/internal/tours"
)

type TourSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	ImageCover string `json:"imageCover"`
	Duration   int    `json:"duration"`
}

type BookingResponse struct {
	ID             string       `json:"id"`
	TourID         string       `json:"tourId"`
	UserID         string       `json:"userId"`
	StartDate      string       `json:"startDate"`
	NumberOfPeople int          `json:"numberOfPeople"`
	Price          int64        `json:"price"`
	Status         Status       `json:"status"`
	Paid           bool         `json:"paid"`
	PaidAt         *time.Time   `json:"paidAt,omitempty"`
	CancelledAt    *time.Time   `json:"cancelledAt,omitempty"`
	Tour           *TourSummary `json:"tour,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// RemainingSlotsResponse reports capacity for one departure. RemainingSlots
// never goes below zero; OverbookedBy is set when bookings exceed capacity,
// which can happen after a partner lowers maxGroupSize.
type RemainingSlotsResponse struct {
	TourID         string `json:"tourId"`
	StartDate      string `json:"startDate"`
	MaxGroupSize   int    `json:"maxGroupSize"`
	BookedSeats    int    `json:"bookedSeats"`
	RemainingSlots int    `json:"remainingSlots"`
	OverbookedBy   int    `json:"overbookedBy"`
}

func (b *Booking) ToResponse() BookingResponse {
	resp := BookingResponse{
		ID:             b.ID.String(),
		TourID:         b.TourID.String(),
		UserID:         b.UserID.String(),
		StartDate:      tours.FormatDay(b.StartDate),
		NumberOfPeople: b.NumberOfPeople,
		Price:          b.Price,
		Status:         b.Status,
		Paid:           b.Paid(),
		PaidAt:         b.PaidAt,
		CancelledAt:    b.CancelledAt,
		CreatedAt:      b.CreatedAt,
	}
	if b.Tour != nil {
		resp.Tour = &TourSummary{
			ID:         b.Tour.ID.String(),
			Name:       b.Tour.Name,
			Slug:       b.Tour.Slug,
			ImageCover: b.Tour.ImageCover,
			Duration:   b.Tour.Duration,
		}
	}
	return resp
}

func ToResponses(list []Booking) []BookingResponse {
	out := make([]BookingResponse, len(list))
	for i := range list {
		out[i] = list[i].ToResponse()
	}
	return out
}

func NewRemainingSlots(tourID string, day time.Time, maxGroupSize, booked int) RemainingSlotsResponse {
	raw := maxGroupSize - booked
	resp := RemainingSlotsResponse{
		TourID:       tourID,
		StartDate:    tours.FormatDay(day),
		MaxGroupSize: maxGroupSize,
		BookedSeats:  booked,
	}
	if raw >= 0 {
		resp.RemainingSlots = raw
	} else {
		resp.OverbookedBy = -raw
	}
	return resp
}
