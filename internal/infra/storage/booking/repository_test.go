package booking

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/ptr"
)

var testToken = uuid.MustParse("6f1c1f5e-2a7b-4c55-9d64-1d9a1a8f2c11")

func newTestRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db), mock
}

// bookingRow строка таблицы bookings в порядке columns
func bookingRow(id int64, status domain.BookingStatus, deposit domain.DepositStatus, start time.Time) []driver.Value {
	return []driver.Value{
		id, int64(3), int64(7), int64(2), nil,
		start, start.Add(30 * time.Hour), nil,
		string(status), string(deposit), testToken.String(),
		int64(30), int64(0), int64(1), int64(6),
		int64(0), int64(200), int64(60),
		int64(260), int64(26), int64(23), int64(0), int64(309), int64(309), int64(500),
		"pi_123", nil, nil,
		nil, nil, nil, nil,
		nil, nil,
		start, start,
	}
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	booking := &domain.Booking{
		RenterID:         3,
		VehicleID:        7,
		StationID:        2,
		StartTime:        now,
		EndTime:          now.Add(30 * time.Hour),
		Status:           domain.StatusPending,
		DepositStatus:    domain.DepositPending,
		ReservationToken: testToken,
		Price:            domain.PriceBreakdown{BasePrice: 260, TotalAmount: 309, Subtotal: 309},
	}

	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

	created, err := repo.Create(context.Background(), booking)
	require.NoError(t, err)
	assert.Equal(t, int64(11), created.ID)
	assert.Equal(t, now, created.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_ExecError(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("INSERT INTO bookings").WillReturnError(errors.New("connection reset"))

	_, err := repo.Create(context.Background(), &domain.Booking{})
	assert.ErrorIs(t, err, ErrExecQuery)
}

func TestRepository_GetByID(t *testing.T) {
	repo, mock := newTestRepo(t)
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1").
			WithArgs(int64(11)).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(bookingRow(11, domain.StatusPending, domain.DepositPending, start)...))

		b, err := repo.GetByID(context.Background(), 11)
		require.NoError(t, err)
		assert.Equal(t, int64(11), b.ID)
		assert.Equal(t, domain.StatusPending, b.Status)
		assert.Equal(t, domain.DepositPending, b.DepositStatus)
		assert.Equal(t, testToken, b.ReservationToken)
		assert.Equal(t, int64(309), b.Price.TotalAmount)
		assert.Equal(t, "pi_123", *b.PaymentRef)
		assert.Nil(t, b.PromotionID)
		assert.Nil(t, b.CancelledAt)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1").
			WithArgs(int64(404)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), 404)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Filters by renter and status", func(t *testing.T) {
		repo, mock := newTestRepo(t)
		status := domain.StatusConfirmed

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE renter_id = \\$1 AND status = \\$2 ORDER BY start_time DESC").
			WithArgs(int64(3), domain.StatusConfirmed).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(bookingRow(1, domain.StatusConfirmed, domain.DepositPaid, start)...).
				AddRow(bookingRow(2, domain.StatusConfirmed, domain.DepositPaid, start.Add(-48*time.Hour))...))

		bookings, err := repo.List(context.Background(), domain.BookingFilter{RenterID: ptr.Ptr(int64(3)), Status: &status, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, bookings, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Period overlap", func(t *testing.T) {
		repo, mock := newTestRepo(t)
		from := start
		to := start.Add(24 * time.Hour)

		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE end_time > \\$1 AND start_time < \\$2").
			WithArgs(from, to).
			WillReturnRows(sqlmock.NewRows(columns))

		bookings, err := repo.List(context.Background(), domain.BookingFilter{From: &from, To: &to})
		require.NoError(t, err)
		assert.Empty(t, bookings)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty station assignment skips the query", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		bookings, err := repo.List(context.Background(), domain.BookingFilter{StationIDs: []int64{}})
		require.NoError(t, err)
		assert.Empty(t, bookings)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_ListPendingDeposits(t *testing.T) {
	repo, mock := newTestRepo(t)
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE (.+) ORDER BY created_at ASC").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(bookingRow(5, domain.StatusPending, domain.DepositPending, start)...))

	bookings, err := repo.ListPendingDeposits(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.True(t, bookings[0].AwaitsDeposit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateState(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	upd := domain.StateUpdate{
		ExpectedStatus:     domain.StatusPending,
		ExpectedDeposit:    domain.DepositPending,
		Status:             domain.StatusConfirmed,
		DepositStatus:      domain.DepositPaid,
		DepositOutcomeID:   ptr.Ptr("poll:pi_123:PAID"),
		DepositProcessedAt: &now,
		UpdatedAt:          now,
	}

	t.Run("Success", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectExec("UPDATE bookings SET status = (.+) WHERE (.+)").
			WithArgs(domain.StatusConfirmed, domain.DepositPaid, now, "poll:pi_123:PAID", now,
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateState(context.Background(), 5, upd)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Concurrent change", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectExec("UPDATE bookings SET status = (.+) WHERE (.+)").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateState(context.Background(), 5, upd)
		assert.ErrorIs(t, err, ErrStateConflict)
	})

	t.Run("Serialization failure", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectExec("UPDATE bookings SET status = (.+) WHERE (.+)").
			WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access due to concurrent update"})

		err := repo.UpdateState(context.Background(), 5, upd)
		assert.ErrorIs(t, err, ErrStateConflict)
		assert.NotErrorIs(t, err, ErrExecQuery)
	})
}

func TestRepository_SetPaymentRef(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectExec("UPDATE bookings SET payment_ref = \\$1, updated_at = NOW\\(\\) WHERE id = \\$2").
			WithArgs("pi_123", int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SetPaymentRef(context.Background(), 5, "pi_123"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock := newTestRepo(t)

		mock.ExpectExec("UPDATE bookings SET payment_ref").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.SetPaymentRef(context.Background(), 5, "pi_123"), ErrBookingNotFound)
	})
}
