package tours

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fvivu/internal/shared/utils/query"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter narrows tour listings
type Filter struct {
	query.ListQuery
	Status    Status
	PartnerID *uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, tour *Tour) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tour, error)
	List(ctx context.Context, filter Filter) ([]Tour, int64, error)
	Update(ctx context.Context, tour *Tour, updates map[string]interface{}, startDates []time.Time) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountOpenBookings(ctx context.Context, tourID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new tour repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func orderedStartDates(db *gorm.DB) *gorm.DB {
	return db.Order("start_date ASC")
}

func (r *repository) Create(ctx context.Context, tour *Tour) error {
	err := r.db.WithContext(ctx).Create(tour).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrTourNameTaken
	}
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Tour, error) {
	var tour Tour
	err := r.db.WithContext(ctx).
		Preload("StartDates", orderedStartDates).
		Where("id = ?", id).
		First(&tour).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return &tour, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]Tour, int64, error) {
	var (
		list  []Tour
		total int64
	)

	db := r.db.WithContext(ctx).Model(&Tour{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.PartnerID != nil {
		db = db.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.Search != "" {
		pattern := filter.SearchPattern()
		db = db.Where("name ILIKE ? OR summary ILIKE ?", pattern, pattern)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("StartDates", orderedStartDates).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit).
		Find(&list).Error
	return list, total, err
}

// Update applies field updates and, when startDates is non-nil, replaces the
// schedule in the same transaction. A date that still carries pending or
// confirmed bookings cannot be dropped from the schedule.
func (r *repository) Update(ctx context.Context, tour *Tour, updates map[string]interface{}, startDates []time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(tour).Updates(updates).Error; err != nil {
				return err
			}
		}
		if startDates == nil {
			return nil
		}

		// Same row locks the booking transaction takes, so no booking can
		// land on a date while it is being removed.
		var current []time.Time
		if err := tx.Model(&StartDate{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tour_id = ?", tour.ID).
			Pluck("start_date", &current).Error; err != nil {
			return fmt.Errorf("failed to lock start dates: %w", err)
		}

		var booked []time.Time
		if err := tx.Table("bookings").
			Distinct().
			Where("tour_id = ? AND status <> ?", tour.ID, "CANCELLED").
			Pluck("start_date", &booked).Error; err != nil {
			return fmt.Errorf("failed to read booked dates: %w", err)
		}
		for _, day := range booked {
			if !containsDay(startDates, day) {
				return fmt.Errorf("%w: %s", ErrScheduleHasBookings, FormatDay(day))
			}
		}

		if err := tx.Where("tour_id = ?", tour.ID).Delete(&StartDate{}).Error; err != nil {
			return fmt.Errorf("failed to clear start dates: %w", err)
		}
		rows := make([]StartDate, len(startDates))
		for i, d := range startDates {
			rows[i] = StartDate{TourID: tour.ID, StartDate: d}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to write start dates: %w", err)
		}
		tour.StartDates = rows
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrTourNameTaken
	}
	return err
}

func containsDay(days []time.Time, day time.Time) bool {
	for _, d := range days {
		if SameDay(d, day) {
			return true
		}
	}
	return false
}

// TransitionStatus moves a tour from one status to another, failing if the
// tour is no longer in the expected state.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	res := r.db.WithContext(ctx).Model(&Tour{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTourNotPending
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tour_id = ?", id).Delete(&StartDate{}).Error; err != nil {
			return fmt.Errorf("failed to delete start dates: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&Tour{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete tour: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrTourNotFound
		}
		return nil
	})
}

func (r *repository) CountOpenBookings(ctx context.Context, tourID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM bookings WHERE tour_id = ? AND status <> ?", tourID, "CANCELLED").
		Scan(&count).Error
	return count, err
}
