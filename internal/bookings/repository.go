package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fvivu/internal/shared/apperror"
	"fvivu/internal/shared/utils/query"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// Locks the departure row so capacity checks for one (tour, day) run one at a time
	lockDepartureSQL = `SELECT t.max_group_size FROM tour_start_dates sd
JOIN tours t ON t.id = sd.tour_id
WHERE sd.tour_id = ? AND sd.start_date = ?
FOR UPDATE OF sd`

	// Seats held on a departure; cancelled bookings release theirs
	bookedSeatsSQL = `SELECT COALESCE(SUM(number_of_people), 0) FROM bookings
WHERE tour_id = ? AND start_date = ? AND status <> ?`

	providerEventBookedSQL = `SELECT COUNT(*) FROM bookings WHERE provider_event_id = ?`
)

// Repository defines data access for the booking ledger
type Repository interface {
	// CreateWithCapacityCheck inserts booking only if the departure still has
	// room for it, holding a row lock on the departure for the duration.
	CreateWithCapacityCheck(ctx context.Context, booking *Booking) error
	BookedSeats(ctx context.Context, tourID uuid.UUID, day time.Time) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByProviderEventID(ctx context.Context, eventID string) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, q query.ListQuery) ([]Booking, int64, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID, q query.ListQuery) ([]Booking, int64, error)
	Cancel(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new booking repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateWithCapacityCheck(ctx context.Context, booking *Booking) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Step 1: Lock the departure and read its capacity
		var maxGroupSize int
		res := tx.Raw(lockDepartureSQL, booking.TourID, booking.StartDate).Scan(&maxGroupSize)
		if res.Error != nil {
			return fmt.Errorf("failed to lock departure: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInvalidStartDate
		}

		// Step 2: A replayed payment event already holds seats in the sum below, so
		// it has to be recognised before capacity is checked.
		if booking.ProviderEventID != nil {
			var existing int64
			if err := tx.Raw(providerEventBookedSQL, *booking.ProviderEventID).Scan(&existing).Error; err != nil {
				return fmt.Errorf("failed to look up payment event: %w", err)
			}
			if existing > 0 {
				return ErrDuplicateProviderEvent
			}
		}

		// Step 3: Sum the seats already held and compare
		var booked int
		if err := tx.Raw(bookedSeatsSQL, booking.TourID, booking.StartDate, StatusCancelled).Scan(&booked).Error; err != nil {
			return fmt.Errorf("failed to count booked seats: %w", err)
		}

		if booked+booking.NumberOfPeople > maxGroupSize {
			remaining := maxGroupSize - booked
			if remaining < 0 {
				remaining = 0
			}
			return &CapacityError{Requested: booking.NumberOfPeople, Remaining: remaining}
		}

		// Step 4: Insert while the lock is still held
		return tx.Create(booking).Error
	})
	// a concurrent insert of the same event can still lose the unique index race
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateProviderEvent
	}
	return err
}

// BookedSeats sums held seats outside any transaction
func (r *repository) BookedSeats(ctx context.Context, tourID uuid.UUID, day time.Time) (int, error) {
	var booked int
	err := r.db.WithContext(ctx).Raw(bookedSeatsSQL, tourID, day, StatusCancelled).Scan(&booked).Error
	return booked, err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Preload("Tour").Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// GetByProviderEventID finds the booking a payment event created
func (r *repository) GetByProviderEventID(ctx context.Context, eventID string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("provider_event_id = ?", eventID).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, q query.ListQuery) ([]Booking, int64, error) {
	db := r.db.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID)
	return r.page(db, q)
}

// ListByPartner lists bookings on any tour the partner owns
func (r *repository) ListByPartner(ctx context.Context, partnerID uuid.UUID, q query.ListQuery) ([]Booking, int64, error) {
	db := r.db.WithContext(ctx).Model(&Booking{}).
		Where("tour_id IN (?)", r.db.Table("tours").Select("id").Where("partner_id = ?", partnerID))
	return r.page(db, q)
}

// page counts then loads one page, newest first, with the tour attached
func (r *repository) page(db *gorm.DB, q query.ListQuery) ([]Booking, int64, error) {
	var (
		list  []Booking
		total int64
	)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Preload("Tour").
		Order("created_at DESC").
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&list).Error
	return list, total, err
}

// Cancel moves a pending booking to CANCELLED, releasing its seats
func (r *repository) Cancel(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]interface{}{
			"status":       StatusCancelled,
			"cancelled_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: booking can no longer be cancelled", apperror.ErrConflict)
	}
	return nil
}
