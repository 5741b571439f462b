package database

import (
	"fmt"

	"fvivu/internal/bookings"
	"fvivu/internal/payments"
	"fvivu/internal/reviews"
	"fvivu/internal/tours"
	"fvivu/internal/users"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the API owns, then the indexes
// GORM tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&users.User{},
		&tours.Tour{},
		&tours.StartDate{},
		&bookings.Booking{},
		&payments.PaymentEvent{},
		&reviews.Review{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return MigrateIndexes(db)
}

var indexStatements = []string{
	// seats are summed per departure over bookings that still hold them
	`CREATE INDEX IF NOT EXISTS idx_bookings_open_seats
		ON bookings (tour_id, start_date)
		WHERE status <> 'CANCELLED'`,
	`CREATE INDEX IF NOT EXISTS idx_tours_active_created
		ON tours (created_at DESC)
		WHERE status = 'ACTIVE'`,
}

// MigrateIndexes adds partial indexes used by the capacity and listing queries
func MigrateIndexes(db *gorm.DB) error {
	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
