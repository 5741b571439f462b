package bookings

import (
	"fmt"

	"fvivu/internal/shared/apperror"
)

var (
	ErrBookingNotFound        = fmt.Errorf("booking %w", apperror.ErrNotFound)
	ErrInvalidStartDate       = fmt.Errorf("%w: start date is not on the tour schedule", apperror.ErrInvalidInput)
	ErrTourNotBookable        = fmt.Errorf("%w: tour is not open for booking", apperror.ErrInvalidInput)
	ErrNotBookingOwner        = fmt.Errorf("%w: booking belongs to another user", apperror.ErrForbidden)
	ErrNotCancellable         = fmt.Errorf("%w: only unpaid pending bookings can be cancelled", apperror.ErrConflict)
	ErrDuplicateProviderEvent = fmt.Errorf("%w: payment event already recorded", apperror.ErrConflict)
)

// CapacityError is returned when a departure cannot fit the requested party
type CapacityError struct {
	Requested int
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: only %d seats left, requested %d", apperror.ErrCapacityExceeded, e.Remaining, e.Requested)
}

func (e *CapacityError) Is(target error) bool {
	return target == apperror.ErrCapacityExceeded
}
