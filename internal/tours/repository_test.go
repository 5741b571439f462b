package tours

import (
	"context"
	"testing"
	"time"

	"fvivu/internal/shared/apperror"
	"fvivu/internal/shared/database/dbtest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryGetByIDPreloadsSchedule(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "tours" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "max_group_size", "price", "status", "partner_id"}).
			AddRow(id.String(), "Ha Long Bay Explorer", 10, int64(300000), "ACTIVE", uuid.NewString()))
	mock.ExpectQuery(`SELECT \* FROM "tour_start_dates" WHERE "tour_start_dates"."tour_id" = \$1 ORDER BY start_date ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tour_id", "start_date"}).
			AddRow(uuid.NewString(), id.String(), time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))

	tour, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 10, tour.MaxGroupSize)
	require.Len(t, tour.StartDates, 1)
	assert.True(t, tour.HasStartDate(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)))
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "tours"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTourNotFound)
}

func TestRepositoryCountOpenBookings(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE tour_id = \$1 AND status <> \$2`).
		WithArgs(id, "CANCELLED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountOpenBookings(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestRepositoryTransitionStatusStale(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tours" SET "status"=\$1,"updated_at"=\$2 WHERE id = \$3 AND status = \$4`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.TransitionStatus(context.Background(), uuid.New(), StatusPending, StatusActive)
	assert.ErrorIs(t, err, ErrTourNotPending)
}

func TestRepositoryUpdateRefusesToDropBookedDate(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewRepository(db)
	tour := &Tour{ID: uuid.New()}
	june1 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "start_date" FROM "tour_start_dates" WHERE tour_id = \$1 FOR UPDATE`).
		WithArgs(tour.ID).
		WillReturnRows(sqlmock.NewRows([]string{"start_date"}).AddRow(june1))
	mock.ExpectQuery(`SELECT DISTINCT "start_date" FROM "bookings" WHERE tour_id = \$1 AND status <> \$2`).
		WithArgs(tour.ID, "CANCELLED").
		WillReturnRows(sqlmock.NewRows([]string{"start_date"}).AddRow(june1))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), tour, nil, []time.Time{june1.AddDate(0, 1, 0)})
	assert.ErrorIs(t, err, ErrScheduleHasBookings)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Contains(t, err.Error(), "2026-06-01")
}

func TestRepositoryUpdateReplacesSchedule(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewRepository(db)
	tour := &Tour{ID: uuid.New()}
	june1 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "start_date" FROM "tour_start_dates"`).
		WillReturnRows(sqlmock.NewRows([]string{"start_date"}).AddRow(june1))
	mock.ExpectQuery(`SELECT DISTINCT "start_date" FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"start_date"}).AddRow(june1))
	mock.ExpectExec(`DELETE FROM "tour_start_dates" WHERE tour_id = \$1`).
		WithArgs(tour.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "tour_start_dates"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), tour, nil, []time.Time{june1, june1.AddDate(0, 1, 0)})
	require.NoError(t, err)
	assert.Len(t, tour.StartDates, 2)
}
