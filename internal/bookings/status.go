package bookings

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// CanBeCancelled reports whether a customer may cancel directly.
// Confirmed bookings were paid and need a refund instead.
func (s Status) CanBeCancelled() bool {
	return s == StatusPending
}

// HoldsSeats reports whether the booking counts against capacity
func (s Status) HoldsSeats() bool {
	return s != StatusCancelled
}
