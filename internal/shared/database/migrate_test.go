package database

import (
	"errors"
	"testing"

	"fvivu/internal/shared/database/dbtest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIndexes(t *testing.T) {
	db, mock := dbtest.New(t)

	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_bookings_open_seats`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_tours_active_created`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, MigrateIndexes(db))
}

func TestMigrateIndexesStopsOnError(t *testing.T) {
	db, mock := dbtest.New(t)

	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_bookings_open_seats`).
		WillReturnError(errors.New("permission denied for schema public"))

	err := MigrateIndexes(db)
	assert.ErrorContains(t, err, "create index")
}
