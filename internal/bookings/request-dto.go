package bookings

type CreateBookingRequest struct {
	TourID         string `json:"tourId" validate:"required,uuid"`
	StartDate      string `json:"startDate" validate:"required"`
	NumberOfPeople int    `json:"numberOfPeople" validate:"required,min=1,max=100"`
}

type RemainingSlotsRequest struct {
	StartDate string `json:"startDate" validate:"required"`
}
