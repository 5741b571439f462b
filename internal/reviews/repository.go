package reviews

import (
	"context"
	"errors"

	"fvivu/internal/shared/utils/query"
	"fvivu/internal/tours"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// recomputeRatingsSQL rebuilds a tour's rating aggregates from its reviews,
// falling back to the default average once the last review is gone.
const recomputeRatingsSQL = `UPDATE tours SET
	ratings_quantity = stats.quantity,
	ratings_average = stats.average
FROM (
	SELECT COUNT(*) AS quantity, COALESCE(ROUND(AVG(rating)::numeric, 1), 4.5) AS average
	FROM reviews WHERE tour_id = ?
) AS stats
WHERE tours.id = ?`

type Repository interface {
	// Create inserts the review and refreshes the tour's ratings in one transaction
	Create(ctx context.Context, review *Review) error
	ListByTour(ctx context.Context, tourID uuid.UUID, q query.ListQuery) ([]Review, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, review *Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tour", "User").Create(review).Error; err != nil {
			switch {
			case errors.Is(err, gorm.ErrDuplicatedKey):
				return ErrAlreadyReviewed
			case errors.Is(err, gorm.ErrForeignKeyViolated):
				return tours.ErrTourNotFound
			}
			return err
		}

		result := tx.Exec(recomputeRatingsSQL, review.TourID, review.TourID)
		if result.Error != nil {
			return result.Error
		}
		// the tour was deleted between the insert and the update
		if result.RowsAffected == 0 {
			return tours.ErrTourNotFound
		}
		return nil
	})
}

func (r *repository) ListByTour(ctx context.Context, tourID uuid.UUID, q query.ListQuery) ([]Review, int64, error) {
	q = query.Normalize(q)
	base := r.db.WithContext(ctx).Model(&Review{}).Where("tour_id = ?", tourID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []Review
	err := base.Preload("User").
		Order("created_at DESC").
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&list).Error
	return list, total, err
}
