package reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db), mock
}

func TestRepository_Reserve(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Hour)

	t.Run("Success", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectQuery("INSERT INTO vehicle_reservations \\(token,vehicle_id,start_time,end_time\\)").
			WithArgs(sqlmock.AnyArg(), int64(7), start, end).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(start))

		res, err := repo.Reserve(context.Background(), 7, start, end)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, res.Token)
		assert.Equal(t, int64(7), res.VehicleID)
		assert.False(t, res.IsReleased())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Exclusion violation is a conflict", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectQuery("INSERT INTO vehicle_reservations").
			WillReturnError(&pq.Error{Code: "23P01", Message: "conflicting key value violates exclusion constraint"})

		_, err := repo.Reserve(context.Background(), 7, start, end)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("Serialization failure is a conflict", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectQuery("INSERT INTO vehicle_reservations").
			WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access due to read/write dependencies among transactions"})

		_, err := repo.Reserve(context.Background(), 7, start, end)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("Other database error", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectQuery("INSERT INTO vehicle_reservations").
			WillReturnError(errors.New("connection refused"))

		_, err := repo.Reserve(context.Background(), 7, start, end)
		assert.ErrorIs(t, err, ErrExecQuery)
		assert.NotErrorIs(t, err, ErrConflict)
	})
}

func TestRepository_Release(t *testing.T) {
	token := uuid.New()

	t.Run("Releases active reservation", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectExec("UPDATE vehicle_reservations SET released_at = NOW\\(\\) WHERE token = \\$1 AND released_at IS NULL").
			WithArgs(token).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Release(context.Background(), token))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Second release is a no-op", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectExec("UPDATE vehicle_reservations SET released_at").
			WithArgs(token).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Release(context.Background(), token))
	})
}

func TestRepository_FindOverlapping(t *testing.T) {
	repo, mock := newTestRepo(t)
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	token := uuid.New()

	mock.ExpectQuery("SELECT token, vehicle_id, start_time, end_time, created_at, released_at FROM vehicle_reservations WHERE vehicle_id = \\$1 AND released_at IS NULL AND start_time < \\$2 AND end_time > \\$3").
		WithArgs(int64(7), end, start).
		WillReturnRows(sqlmock.NewRows([]string{"token", "vehicle_id", "start_time", "end_time", "created_at", "released_at"}).
			AddRow(token.String(), int64(7), start.Add(2*time.Hour), start.Add(5*time.Hour), start, nil))

	reservations, err := repo.FindOverlapping(context.Background(), 7, start, end)
	require.NoError(t, err)
	require.Len(t, reservations, 1)
	assert.Equal(t, token, reservations[0].Token)
	assert.Nil(t, reservations[0].ReleasedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
